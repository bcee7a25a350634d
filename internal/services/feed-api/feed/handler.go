package feed

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/NordCoder/Tgfeed/internal/cachetag"
	"github.com/NordCoder/Tgfeed/internal/obs"
)

var (
	feedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_requests_total",
		Help: "Feed reads by outcome.",
	}, []string{"result"})
	feedLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "feed_query_duration_seconds",
		Help:    "Time spent building a feed page.",
		Buckets: prometheus.DefBuckets,
	})
)

var errBadParam = errors.New("bad parameter")

type Handler struct {
	uc           *Usecase
	log          *zap.Logger
	cacheControl string
}

func NewHandler(uc *Usecase, log *zap.Logger, cacheMaxAge time.Duration) *Handler {
	return &Handler{
		uc:           uc,
		log:          log,
		cacheControl: fmt.Sprintf("public, max-age=%d", int(cacheMaxAge/time.Second)),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { feedLatency.Observe(time.Since(start).Seconds()) }()

	params, err := parseParams(r.URL.Query())
	if err != nil {
		feedRequests.WithLabelValues("bad_request").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	page, err := h.uc.List(r.Context(), params)
	if err != nil {
		feedRequests.WithLabelValues("error").Inc()
		obs.WithTrace(r.Context(), h.log).Error("feed query failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	body, tag, err := cachetag.Encode(page)
	if err != nil {
		feedRequests.WithLabelValues("error").Inc()
		obs.WithTrace(r.Context(), h.log).Error("feed encode failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", tag)
	w.Header().Set("Cache-Control", h.cacheControl)
	if cachetag.Matches(r.Header.Get("If-None-Match"), tag) {
		feedRequests.WithLabelValues("not_modified").Inc()
		w.WriteHeader(http.StatusNotModified)
		return
	}

	feedRequests.WithLabelValues("ok").Inc()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func parseParams(v url.Values) (Params, error) {
	var p Params
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return p, fmt.Errorf("%w: limit must be an integer", errBadParam)
		}
		p.Limit = &n
	}
	var err error
	if p.Before, err = parseCursor(v, "before"); err != nil {
		return p, err
	}
	if p.After, err = parseCursor(v, "after"); err != nil {
		return p, err
	}
	return p, nil
}

func parseCursor(v url.Values, name string) (*int64, error) {
	s := v.Get(name)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", errBadParam, name)
	}
	return &n, nil
}
