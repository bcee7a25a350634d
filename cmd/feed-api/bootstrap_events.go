package main

import (
	"context"

	"go.uber.org/zap"

	config "github.com/NordCoder/Tgfeed/internal/config/feed-api"
	"github.com/NordCoder/Tgfeed/internal/obs/retry"
	"github.com/NordCoder/Tgfeed/internal/outbox"
	"github.com/NordCoder/Tgfeed/internal/repository/kafka"
	"github.com/NordCoder/Tgfeed/internal/repository/postgres"
	"github.com/NordCoder/Tgfeed/internal/services/feed-api/webhook"
)

// initEvents switches ingestion to the transactional outbox and returns the
// relay that drains it into Kafka, plus the producer's closer.
func initEvents(ctx context.Context, cfg *config.Config, logger *zap.Logger, st *store, uc *webhook.Usecase) (*webhook.Usecase, *outbox.Runner, func() error) {
	log := logger.With(zap.String("component", "post-events"))
	if err := kafka.EnsureTopic(ctx, cfg.Events.Brokers, kafka.TopicSpec{Name: cfg.Events.Topic}, log); err != nil {
		// the writer auto-creates topics, so this only delays the first publish
		log.Warn("ensure topic", zap.Error(err))
	}

	producer := kafka.NewProducer(cfg.Events.Brokers, cfg.Events.Topic).WithLogger(log)
	repo := postgres.NewOutboxRepo(st.pg)
	runner := outbox.NewRunner(log, repo,
		outbox.Dispatcher(kafka.NewPostEvents(producer), retry.PublishPolicy(log)),
		outbox.RunnerConfig{
			Workers:       cfg.Events.Workers,
			BatchSize:     cfg.Events.BatchSize,
			Interval:      cfg.Events.Interval,
			InProgressTTL: cfg.Events.InProgressTTL,
		},
	)
	return uc.WithEvents(postgres.NewTransactor(st.pg, log), repo), runner, producer.Close
}
