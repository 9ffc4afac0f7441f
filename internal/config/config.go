package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Providers ProvidersConfig `mapstructure:"providers" validate:"required"`
	AI        AIConfig        `mapstructure:"ai" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// ProvidersConfig holds the credentials and transport settings of the AI
// providers. A provider without an API key is not registered.
type ProvidersConfig struct {
	OpenAIAPIKey          string `mapstructure:"openai_api_key"`
	OpenAIBaseURL         string `mapstructure:"openai_base_url" validate:"omitempty,url"`
	AnthropicAPIKey       string `mapstructure:"anthropic_api_key"`
	AnthropicBaseURL      string `mapstructure:"anthropic_base_url" validate:"omitempty,url"`
	GeminiAPIKey          string `mapstructure:"gemini_api_key"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" validate:"gt=0"`
	MaxTransportRetries   int    `mapstructure:"max_transport_retries" validate:"gte=0,lte=10"`
}

// RequestTimeout is the HTTP timeout of a single provider request.
func (p ProvidersConfig) RequestTimeout() time.Duration {
	return time.Duration(p.RequestTimeoutSeconds) * time.Second
}

// AIConfig contains the settings of the generation pipeline.
type AIConfig struct {
	Temperature           float64        `mapstructure:"temperature" validate:"gte=0,lte=2"`
	AttemptTimeoutSeconds int            `mapstructure:"attempt_timeout_seconds" validate:"gte=0"`
	CatalogOverlayPath    string         `mapstructure:"catalog_overlay_path"`
	Limits                LimitsConfig   `mapstructure:"limits" validate:"required"`
	Fallback              FallbackConfig `mapstructure:"fallback" validate:"required"`
	Cache                 CacheConfig    `mapstructure:"cache" validate:"required"`
}

// AttemptTimeout is the deadline of one provider attempt.
func (a AIConfig) AttemptTimeout() time.Duration {
	return time.Duration(a.AttemptTimeoutSeconds) * time.Second
}

// LimitsConfig bounds the size of AI requests.
type LimitsConfig struct {
	MaxFlashcardsPerRequest int   `mapstructure:"max_flashcards_per_request" validate:"gt=0"`
	MaxTextLength           int   `mapstructure:"max_text_length" validate:"gt=0"`
	RateLimitPerMinute      int   `mapstructure:"rate_limit_per_minute" validate:"gte=0"`
	MaxImageBytes           int64 `mapstructure:"max_image_bytes" validate:"gt=0"`
	MaxAudioBytes           int64 `mapstructure:"max_audio_bytes" validate:"gt=0"`
	MaxSpeechTextLength     int   `mapstructure:"max_speech_text_length" validate:"gt=0"`
}

// FallbackConfig controls model fallback.
type FallbackConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	MaxRetries int      `mapstructure:"max_retries" validate:"gte=0"`
	Models     []string `mapstructure:"fallback_models" validate:"dive,required"`
}

// CacheConfig controls the in-memory result cache.
type CacheConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	TTLSeconds int  `mapstructure:"ttl_seconds" validate:"gt=0"`
	Size       int  `mapstructure:"size" validate:"gt=0"`
}

// TTL is the lifetime of a cached result.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}
