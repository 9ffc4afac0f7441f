package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every configuration environment variable.
const EnvPrefix = "CARDFORGE"

var defaults = map[string]any{
	"server.port":      8080,
	"server.log_level": "info",

	"database.url":                "",
	"auth.jwt_secret":             "",
	"auth.token_lifetime_minutes": 60,

	"providers.openai_api_key":          "",
	"providers.openai_base_url":         "",
	"providers.anthropic_api_key":       "",
	"providers.anthropic_base_url":      "",
	"providers.gemini_api_key":          "",
	"providers.request_timeout_seconds": 60,
	"providers.max_transport_retries":   2,

	"ai.temperature":                       0.7,
	"ai.attempt_timeout_seconds":           90,
	"ai.catalog_overlay_path":              "",
	"ai.limits.max_flashcards_per_request": 20,
	"ai.limits.max_text_length":            10000,
	"ai.limits.rate_limit_per_minute":      10,
	"ai.limits.max_image_bytes":            10 << 20,
	"ai.limits.max_audio_bytes":            25 << 20,
	"ai.limits.max_speech_text_length":     4096,
	"ai.fallback.enabled":                  true,
	"ai.fallback.max_retries":              3,
	"ai.fallback.fallback_models":          []string{"gpt-4o-mini", "claude-3-5-haiku-20241022", "gemini-1.5-flash"},
	"ai.cache.enabled":                     true,
	"ai.cache.ttl_seconds":                 3600,
	"ai.cache.size":                        256,
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadAI loads the configuration but validates only the provider and AI
// sections. It serves tools that run the pipeline without the HTTP server
// or the database.
func LoadAI() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	v := validator.New()
	if err := v.Struct(cfg.Providers); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if err := v.Struct(cfg.AI); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func read() (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
