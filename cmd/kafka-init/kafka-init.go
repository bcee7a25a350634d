package main

import (
	"context"
	"flag"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	config "github.com/NordCoder/Tgfeed/internal/config/feed-api"
	"github.com/NordCoder/Tgfeed/internal/obs"
	"github.com/NordCoder/Tgfeed/internal/repository/kafka"
)

// kafka-init provisions the post events topic ahead of the first deploy.
func main() {
	cfgPath := flag.String("config", "config/feed-api.yaml", "path to yaml config (optional)")
	partitions := flag.Int("partitions", 3, "number of partitions")
	rf := flag.Int("rf", 1, "replication factor")
	wait := flag.Duration("wait", 30*time.Second, "how long to wait for partition leaders")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}
	logger, err := obs.NewLogger(cfg.AsLoggerConfig())
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), *wait+10*time.Second)
	defer cancel()

	err = kafka.EnsureTopic(ctx, cfg.Events.Brokers, kafka.TopicSpec{
		Name:              cfg.Events.Topic,
		NumPartitions:     *partitions,
		ReplicationFactor: *rf,
		MaxWait:           *wait,
	}, logger.With(zap.String("component", "kafka-init")))
	if err != nil {
		logger.Fatal("ensure topic", zap.String("topic", cfg.Events.Topic), zap.Error(err))
	}
	logger.Info("kafka-init ok", zap.String("topic", cfg.Events.Topic))
}
