package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	config "github.com/NordCoder/Tgfeed/internal/config/feed-api"
	"github.com/NordCoder/Tgfeed/internal/services/feed-api/webhook"
)

func main() {
	cfgPath := flag.String("config", "config/feed-api.yaml", "path to yaml config (optional)")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting feed-api",
		zap.String("env", cfg.App.Env),
		zap.String("ver", cfg.App.Version),
		zap.String("channel", cfg.Telegram.Channel),
	)

	otelShutdown, err := initOTel(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	st, err := initStore(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("store init", zap.Error(err))
	}
	defer st.close()

	ingest := webhook.NewUsecase(st.posts, webhook.Config{
		Secret:  cfg.Telegram.WebhookSecret,
		Channel: cfg.Telegram.Channel,
	})

	workCtx, cancelWork := context.WithCancel(context.Background())
	defer cancelWork()

	var waitRelay func()
	if cfg.Events.Enable {
		uc, runner, closeProducer := initEvents(rootCtx, cfg, logger, st, ingest)
		defer func() { _ = closeProducer() }()
		ingest = uc
		runner.Start(workCtx)
		waitRelay = runner.Wait
	}

	grpcServer, healthSrv, grpcLn, err := buildGRPCServer(cfg)
	if err != nil {
		logger.Fatal("build grpc", zap.Error(err))
	}
	go watchHealth(workCtx, healthSrv, st.posts.Ping, cfg.Server.HealthInterval, logger)

	grpcErrCh := make(chan error, 1)
	go func() { grpcErrCh <- serveGRPC(grpcServer, grpcLn, logger) }()

	httpSrv, err := buildHTTPServer(cfg, logger, st, ingest)
	if err != nil {
		logger.Fatal("build http", zap.Error(err))
	}
	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, logger) }()

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logger.Warn("sd_notify ready", zap.Error(err))
	} else if ok {
		logger.Debug("sd_notify ready sent")
	}

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal", zap.String("reason", "context canceled"))
	case err := <-grpcErrCh:
		if err != nil {
			logger.Error("grpc serve", zap.Error(err))
		}
	case err := <-httpErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(err))
		}
	}
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()

	cancelWork()
	if waitRelay != nil {
		waitRelay()
	}
	logger.Info("bye")
}
