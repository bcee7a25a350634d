package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	config "github.com/NordCoder/Tgfeed/internal/config/feed-api"
	"github.com/NordCoder/Tgfeed/internal/obs"
	"github.com/NordCoder/Tgfeed/migrations"
)

func main() {
	cfgPath := flag.String("config", "config/feed-api.yaml", "path to yaml config (optional)")
	command := flag.String("command", "up", "up, down or status")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
	logger = logger.With(zap.String("component", "migrator"), zap.String("driver", cfg.Store.Driver))

	if err := run(ctx, cfg, *command, logger); err != nil {
		logger.Fatal("migrate", zap.String("command", *command), zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, command string, logger *zap.Logger) error {
	dialect, driver, dsn := goose.DialectPostgres, "pgx", cfg.DB.DSN
	if cfg.Store.Driver == config.DriverSQLite {
		dialect, driver, dsn = goose.DialectSQLite3, "sqlite", cfg.Store.SQLitePath
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	fsys, err := fs.Sub(migrations.FS, migrations.Dir(string(dialect)))
	if err != nil {
		return err
	}
	p, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}

	switch command {
	case "up":
		res, err := p.Up(ctx)
		if err != nil {
			return err
		}
		for _, r := range res {
			logger.Info("applied", zap.Int64("version", r.Source.Version), zap.String("file", r.Source.Path), zap.Duration("took", r.Duration))
		}
		logger.Info("migrations: up OK", zap.Int("applied", len(res)))
	case "down":
		r, err := p.Down(ctx)
		if err != nil {
			return err
		}
		logger.Info("rolled back", zap.Int64("version", r.Source.Version), zap.String("file", r.Source.Path))
	case "status":
		sts, err := p.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range sts {
			logger.Info("status", zap.Int64("version", s.Source.Version), zap.String("file", s.Source.Path), zap.String("state", string(s.State)))
		}
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}
