package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	config "github.com/NordCoder/Tgfeed/internal/config/feed-api"
	"github.com/NordCoder/Tgfeed/internal/obs"
	"github.com/NordCoder/Tgfeed/internal/services/feed-api/feed"
	"github.com/NordCoder/Tgfeed/internal/services/feed-api/webhook"
	"github.com/NordCoder/Tgfeed/internal/services/feed-api/widget"
)

const (
	webhookPath = "/telegram/webhook"
	feedPath    = "/api/feed"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, st *store, ingest *webhook.Usecase) (*http.Server, error) {
	feedUC := feed.NewUsecase(st.posts, feed.Config{
		Channel:      cfg.Telegram.Channel,
		DefaultLimit: cfg.Feed.DefaultLimit,
		MaxLimit:     cfg.Feed.MaxLimit,
	})
	widgetH, err := widget.NewHandler(widget.Config{
		Title:   "@" + cfg.Telegram.Channel,
		FeedURL: feedPath,
		Limit:   cfg.Feed.DefaultLimit,
	})
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, obs.Recover(logger), obs.AccessLog(logger))

	r.Method(http.MethodPost, webhookPath, webhook.NewHandler(ingest, logger, cfg.Server.MaxBodyBytes))
	r.With(feed.RateLimit(cfg.Server.FeedRPS, cfg.Server.FeedBurst)).
		Method(http.MethodGet, feedPath, feed.NewHandler(feedUC, logger, cfg.Feed.CacheMaxAge))
	r.Method(http.MethodGet, "/widget", widgetH)
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("OK")) })
	r.Get("/healthz", obs.HealthHandler(st.posts.Ping))
	r.Method(http.MethodGet, "/metrics", obs.MetricsHandler())

	return &http.Server{
		Addr: cfg.Server.HTTPAddr,
		Handler: otelhttp.NewHandler(r, "feed-api",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}, nil
}

func serveHTTP(srv *http.Server, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", srv.Addr))
	return srv.ListenAndServe()
}
