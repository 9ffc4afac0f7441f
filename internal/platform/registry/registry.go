// Package registry assembles the AI stack from configuration: provider
// clients for every configured credential, the model catalog, the selector
// and the orchestrator.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/cardforge/internal/catalog"
	"github.com/phrazzld/cardforge/internal/config"
	"github.com/phrazzld/cardforge/internal/generation"
	"github.com/phrazzld/cardforge/internal/platform/anthropic"
	"github.com/phrazzld/cardforge/internal/platform/gemini"
	"github.com/phrazzld/cardforge/internal/platform/openai"
	"github.com/phrazzld/cardforge/internal/provider"
	"github.com/phrazzld/cardforge/internal/selector"
)

// Build creates a provider handle for every provider whose API key is set.
// A provider without a key is skipped and its models report unavailable.
func Build(ctx context.Context, cfg config.ProvidersConfig, l *slog.Logger) ([]provider.Handle, error) {
	if l == nil {
		l = slog.Default()
	}

	var handles []provider.Handle

	if cfg.OpenAIAPIKey != "" {
		c, err := openai.New(openai.Config{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Timeout:    cfg.RequestTimeout(),
			MaxRetries: cfg.MaxTransportRetries,
		}, l)
		if err != nil {
			return nil, fmt.Errorf("openai client: %w", err)
		}
		handles = append(handles, c.Handle())
	}

	if cfg.AnthropicAPIKey != "" {
		c, err := anthropic.New(anthropic.Config{
			APIKey:     cfg.AnthropicAPIKey,
			BaseURL:    cfg.AnthropicBaseURL,
			Timeout:    cfg.RequestTimeout(),
			MaxRetries: cfg.MaxTransportRetries,
		}, l)
		if err != nil {
			return nil, fmt.Errorf("anthropic client: %w", err)
		}
		handles = append(handles, c.Handle())
	}

	if cfg.GeminiAPIKey != "" {
		c, err := gemini.New(ctx, gemini.Config{
			APIKey:     cfg.GeminiAPIKey,
			MaxRetries: cfg.MaxTransportRetries,
		}, l)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		handles = append(handles, c.Handle())
	}

	for _, h := range handles {
		l.InfoContext(ctx, "provider registered", slog.String("provider", string(h.Provider)))
	}
	if len(handles) == 0 {
		l.WarnContext(ctx, "no provider API keys configured; every model is unavailable")
	}
	return handles, nil
}

// GenerationConfig converts the AI configuration section into orchestrator settings.
func GenerationConfig(ai config.AIConfig) generation.Config {
	return generation.Config{
		Limits: generation.Limits{
			MaxFlashcardsPerRequest: ai.Limits.MaxFlashcardsPerRequest,
			MaxTextLength:           ai.Limits.MaxTextLength,
			MaxImageBytes:           ai.Limits.MaxImageBytes,
			MaxAudioBytes:           ai.Limits.MaxAudioBytes,
			MaxSpeechTextLength:     ai.Limits.MaxSpeechTextLength,
		},
		Fallback: generation.FallbackConfig{
			Enabled:    ai.Fallback.Enabled,
			MaxRetries: ai.Fallback.MaxRetries,
			Models:     ai.Fallback.Models,
		},
		Temperature:    ai.Temperature,
		AttemptTimeout: ai.AttemptTimeout(),
	}
}

// Stack is the assembled AI pipeline.
type Stack struct {
	Catalog      *catalog.Catalog
	Selector     *selector.Selector
	Orchestrator *generation.Orchestrator
}

// NewStack loads the catalog (with its optional overlay), registers the
// configured providers and creates the orchestrator.
func NewStack(ctx context.Context, cfg *config.Config, l *slog.Logger, opts ...generation.Option) (*Stack, error) {
	cat, err := catalog.Load(cfg.AI.CatalogOverlayPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model catalog: %w", err)
	}

	handles, err := Build(ctx, cfg.Providers, l)
	if err != nil {
		return nil, err
	}
	return assemble(cat, handles, cfg.AI, l, opts...)
}

func assemble(
	cat *catalog.Catalog,
	handles []provider.Handle,
	ai config.AIConfig,
	l *slog.Logger,
	opts ...generation.Option,
) (*Stack, error) {
	sel := selector.New(cat, handles...)
	orch, err := generation.NewOrchestrator(sel, GenerationConfig(ai), l, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}
	return &Stack{Catalog: cat, Selector: sel, Orchestrator: orch}, nil
}
