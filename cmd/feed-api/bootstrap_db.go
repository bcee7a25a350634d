package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	config "github.com/NordCoder/Tgfeed/internal/config/feed-api"
	"github.com/NordCoder/Tgfeed/internal/domain/post"
	"github.com/NordCoder/Tgfeed/internal/repository/postgres"
	"github.com/NordCoder/Tgfeed/internal/repository/sqlite"
)

// store bundles the selected backend. pg is set only for the postgres
// driver, which is the one that can carry the outbox.
type store struct {
	posts post.Repo
	pg    *postgres.DB
	close func()
}

func initStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		logger.Info("store: postgres", zap.Int32("max_conns", db.Pool.Config().MaxConns))
		return &store{posts: postgres.NewPostRepo(db), pg: db, close: db.Close}, nil
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.Store.SQLitePath, QueryTimeout: cfg.DB.QueryTimeout})
		if err != nil {
			return nil, err
		}
		logger.Info("store: sqlite", zap.String("path", cfg.Store.SQLitePath))
		return &store{posts: sqlite.NewPostRepo(db), close: func() { _ = db.Close() }}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
