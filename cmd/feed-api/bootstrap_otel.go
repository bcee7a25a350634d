package main

import (
	"context"

	"go.uber.org/zap"

	config "github.com/NordCoder/Tgfeed/internal/config/feed-api"
	"github.com/NordCoder/Tgfeed/internal/obs"
)

func initOTel(ctx context.Context, cfg *config.Config, logger *zap.Logger) (func(context.Context) error, error) {
	o, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		return nil, err
	}
	if cfg.OTEL.Enable {
		logger.Info("tracing enabled", zap.String("endpoint", cfg.OTEL.OTLPEndpoint), zap.Float64("ratio", cfg.OTEL.SampleRatio))
	}
	return o.Shutdown, nil
}
