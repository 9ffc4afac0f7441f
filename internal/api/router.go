package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/cardforge/internal/api/middleware"
	"github.com/phrazzld/cardforge/internal/service"
	"github.com/phrazzld/cardforge/internal/service/auth"
)

// RouterConfig holds the dependencies of the HTTP router.
type RouterConfig struct {
	Generation         service.GenerationService
	JWTService         auth.JWTService
	RateLimitPerMinute int
	MaxImageBytes      int64
	MaxAudioBytes      int64
	Logger             *slog.Logger
}

// NewRouter creates the application router with all routes and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authMiddleware := apiMiddleware.NewAuthMiddleware(cfg.JWTService)
	rateLimiter := apiMiddleware.NewRateLimiter(cfg.RateLimitPerMinute)

	aiHandler := NewAIHandler(cfg.Generation, cfg.MaxImageBytes, cfg.Logger)
	audioHandler := NewAudioHandler(cfg.Generation, cfg.MaxAudioBytes, cfg.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Use(rateLimiter.Limit)

		r.Get("/ai/models", aiHandler.ListModels)
		r.Post("/ai/flashcards/generate-text", aiHandler.GenerateFromText)
		r.Post("/ai/flashcards/generate-prompt", aiHandler.GenerateFromPrompt)
		r.Post("/ai/flashcards/generate-image", aiHandler.GenerateFromImage)
		r.Post("/ai/summary/generate", aiHandler.GenerateSummary)
		r.Post("/ai/images/generate", aiHandler.GenerateImages)

		r.Post("/audio/text-to-speech", audioHandler.TextToSpeech)
		r.Post("/audio/text-to-speech/stream", audioHandler.TextToSpeechStream)
		r.Post("/audio/speech-to-text", audioHandler.SpeechToText)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			cfg.Logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
