package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/cardforge/internal/api"
	"github.com/phrazzld/cardforge/internal/config"
	"github.com/phrazzld/cardforge/internal/generation"
	"github.com/phrazzld/cardforge/internal/platform/postgres"
	"github.com/phrazzld/cardforge/internal/platform/registry"
	"github.com/phrazzld/cardforge/internal/service"
	"github.com/phrazzld/cardforge/internal/service/auth"
	"github.com/phrazzld/cardforge/internal/store"
)

// database is the connection pool the application runs on.
// *pgxpool.Pool implements it.
type database interface {
	store.TxQuerier
	Close()
}

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     database

	deckStore      store.DeckStore
	flashcardStore store.FlashcardStore

	stack      *registry.Stack
	generation service.GenerationService
	jwtService auth.JWTService
}

// newApplication creates a new application instance with all dependencies initialized.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db database) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.deckStore = postgres.NewPostgresDeckStore(db, logger)
	app.flashcardStore = postgres.NewPostgresFlashcardStore(db, logger)

	contentSource := service.NewContentSource(app.deckStore, app.flashcardStore)
	app.stack, err = registry.NewStack(ctx, cfg, logger, generation.WithContentSource(contentSource))
	if err != nil {
		return nil, fmt.Errorf("failed to build AI pipeline: %w", err)
	}
	logger.Info("AI pipeline initialized",
		slog.Int("catalog_models", len(app.stack.Catalog.Models())))

	app.generation, err = service.NewGenerationService(
		app.stack.Orchestrator,
		app.stack.Selector,
		app.deckStore,
		app.flashcardStore,
		cacheConfig(cfg.AI.Cache),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

func cacheConfig(c config.CacheConfig) service.CacheConfig {
	return service.CacheConfig{
		Enabled: c.Enabled,
		TTL:     c.TTL(),
		Size:    c.Size,
	}
}

// setupRouter builds the HTTP handler from the application dependencies.
func (app *application) setupRouter() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Generation:         app.generation,
		JWTService:         app.jwtService,
		RateLimitPerMinute: app.config.AI.Limits.RateLimitPerMinute,
		MaxImageBytes:      app.config.AI.Limits.MaxImageBytes,
		MaxAudioBytes:      app.config.AI.Limits.MaxAudioBytes,
		Logger:             app.logger,
	})
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		app.db.Close()
	}
	app.logger.Info("Application shutdown completed")
}
