package webhook

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v4"

	"github.com/NordCoder/Tgfeed/internal/domain/post"
	"github.com/NordCoder/Tgfeed/internal/obs"
)

// SecretHeader carries the secret_token registered with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

var webhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "webhook_events_total",
	Help: "Webhook deliveries by outcome.",
}, []string{"result"})

type Handler struct {
	uc       *Usecase
	log      *zap.Logger
	maxBytes int64
}

func NewHandler(uc *Usecase, log *zap.Logger, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	return &Handler{uc: uc, log: log, maxBytes: maxBytes}
}

// ServeHTTP answers 401 on a bad secret, 500 when the post could not be
// stored and 200 for everything else, so Telegram redelivers only on storage
// failures.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := obs.WithTrace(r.Context(), h.log)

	if err := h.uc.Authorize(r.Header.Get(SecretHeader)); err != nil {
		webhookEvents.WithLabelValues("unauthorized").Inc()
		log.Warn("webhook rejected", zap.String("remote", r.RemoteAddr))
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var upd tele.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBytes)).Decode(&upd); err != nil {
		webhookEvents.WithLabelValues("ignored").Inc()
		log.Info("webhook body ignored", zap.Error(err))
		w.WriteHeader(http.StatusOK)
		return
	}

	inserted, err := h.uc.Ingest(r.Context(), &upd)
	switch {
	case errors.Is(err, post.ErrMalformedEvent):
		webhookEvents.WithLabelValues("ignored").Inc()
		log.Debug("webhook update ignored", zap.Int("update_id", upd.ID), zap.Error(err))
		w.WriteHeader(http.StatusOK)
	case err != nil:
		webhookEvents.WithLabelValues("error").Inc()
		log.Error("webhook store failed", zap.Int("update_id", upd.ID), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
	default:
		result := "refreshed"
		if inserted {
			result = "stored"
		}
		webhookEvents.WithLabelValues(result).Inc()
		log.Info("channel post "+result,
			zap.Int("update_id", upd.ID),
			zap.Int("message_id", upd.ChannelPost.ID),
		)
		w.WriteHeader(http.StatusOK)
	}
}
