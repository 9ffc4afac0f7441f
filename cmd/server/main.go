// Package main runs the cardforge HTTP server, which generates flashcards,
// summaries, images and audio through a multi-provider AI pipeline.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/phrazzld/cardforge/internal/config"
	"github.com/phrazzld/cardforge/internal/platform/logger"
	"github.com/phrazzld/cardforge/internal/platform/postgres"
)

func main() {
	if err := run(context.Background()); err != nil {
		log.Fatalf("cardforge server: %v", err)
	}
}

// run loads configuration, prepares the database and serves until a
// shutdown signal arrives.
func run(ctx context.Context) error {
	if err := loadDotEnv(".env"); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(logger.Config{Level: cfg.Server.LogLevel})
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("Server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Bool("fallback_enabled", cfg.AI.Fallback.Enabled),
		slog.Bool("cache_enabled", cfg.AI.Cache.Enabled))

	pool, err := setupAppDatabase(ctx, cfg, l)
	if err != nil {
		return err
	}

	if err := postgres.Migrate(ctx, pool, l); err != nil {
		pool.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	app, err := newApplication(ctx, cfg, l, pool)
	if err != nil {
		pool.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

// loadDotEnv exports the variables of a .env file that are not already set.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
