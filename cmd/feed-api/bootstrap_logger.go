package main

import (
	"go.uber.org/zap"

	config "github.com/NordCoder/Tgfeed/internal/config/feed-api"
	"github.com/NordCoder/Tgfeed/internal/obs"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(cfg.AsLoggerConfig())
}
