package generation

import "time"

// Limits bound the size of accepted requests.
type Limits struct {
	MaxFlashcardsPerRequest int
	MaxTextLength           int
	MaxImageBytes           int64
	MaxAudioBytes           int64
	MaxSpeechTextLength     int
}

// FallbackConfig controls the fallback chain.
type FallbackConfig struct {
	Enabled bool
	// MaxRetries is advisory; the chain is bounded by the length of Models.
	MaxRetries int
	// Models are catalog ids or names, tried in order.
	Models []string
}

// Config configures an Orchestrator.
type Config struct {
	Limits      Limits
	Fallback    FallbackConfig
	Temperature float64
	// AttemptTimeout bounds each provider attempt. Zero disables the bound.
	AttemptTimeout time.Duration
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Limits: Limits{
			MaxFlashcardsPerRequest: 20,
			MaxTextLength:           10000,
			MaxImageBytes:           10 << 20,
			MaxAudioBytes:           25 << 20,
			MaxSpeechTextLength:     4096,
		},
		Fallback: FallbackConfig{
			Enabled:    true,
			MaxRetries: 3,
			Models:     []string{"gpt-4o-mini", "claude-3-5-haiku-20241022", "gemini-1.5-flash"},
		},
		Temperature:    0.7,
		AttemptTimeout: 60 * time.Second,
	}
}
