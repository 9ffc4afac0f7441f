package catalog

import "strings"

// Provider identifies an AI vendor.
type Provider string

const (
	OpenAI    Provider = "OPENAI"
	Anthropic Provider = "ANTHROPIC"
	Google    Provider = "GOOGLE"
)

// ProviderInfo describes one provider of the fixed set.
type ProviderInfo struct {
	Code        Provider `json:"code"`
	DisplayName string   `json:"display_name"`
}

var providers = []ProviderInfo{
	{Code: OpenAI, DisplayName: "OpenAI"},
	{Code: Anthropic, DisplayName: "Anthropic Claude"},
	{Code: Google, DisplayName: "Google Gemini"},
}

// ParseProvider maps a provider code (any case) to a Provider.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToUpper(strings.TrimSpace(s)))
	for _, info := range providers {
		if info.Code == p {
			return p, nil
		}
	}
	return "", ErrUnknownProvider
}

// Model is an addressable model offered by exactly one provider.
type Model struct {
	// ID is the identifier sent on the wire, e.g. "gpt-4o-mini".
	ID string `json:"id"`
	// Name is the symbolic key, e.g. "GPT_4O_MINI".
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Provider    Provider `json:"provider"`

	SupportsVision           bool `json:"supports_vision"`
	SupportsImageGeneration  bool `json:"supports_image_generation"`
	SupportsSpeech           bool `json:"supports_speech"`
	SupportsTranscription    bool `json:"supports_transcription"`
	RecommendedForFlashcards bool `json:"recommended_for_flashcards"`

	MaxContextTokens int     `json:"max_context_tokens"`
	MaxOutputTokens  int     `json:"max_output_tokens"`
	CostPer1KTokens  float64 `json:"cost_per_1k_tokens"`
}

// SupportsChat reports whether the model accepts chat completions.
func (m Model) SupportsChat() bool {
	return !m.SupportsImageGeneration && !m.SupportsSpeech && !m.SupportsTranscription
}

// EstimateCost returns the approximate cost in USD of processing tokens.
func (m Model) EstimateCost(tokens int) float64 {
	return float64(tokens) / 1000 * m.CostPer1KTokens
}

// Names of the built-in models.
const (
	GPT4o           = "GPT_4O"
	GPT4oMini       = "GPT_4O_MINI"
	GPT41           = "GPT_4_1"
	GPT4Turbo       = "GPT_4_TURBO"
	GPT4            = "GPT_4"
	O1Preview       = "O1_PREVIEW"
	GPT35Turbo      = "GPT_3_5_TURBO"
	ClaudeSonnet4   = "CLAUDE_SONNET_4"
	ClaudeOpus41    = "CLAUDE_OPUS_4_1"
	Claude35Sonnet  = "CLAUDE_3_5_SONNET"
	Claude35Haiku   = "CLAUDE_3_5_HAIKU"
	Claude3Opus     = "CLAUDE_3_OPUS"
	Claude3Sonnet   = "CLAUDE_3_SONNET"
	Claude3Haiku    = "CLAUDE_3_HAIKU"
	GeminiPro       = "GEMINI_PRO"
	GeminiProVision = "GEMINI_PRO_VISION"
	Gemini15Pro     = "GEMINI_1_5_PRO"
	Gemini15Flash   = "GEMINI_1_5_FLASH"
	DallE3          = "DALL_E_3"
	DallE2          = "DALL_E_2"
	Imagen3         = "IMAGEN_3"
	TTS1            = "TTS_1"
	TTS1HD          = "TTS_1_HD"
	Whisper1        = "WHISPER_1"
)

var builtinDefaults = map[Provider]string{
	OpenAI:    GPT4oMini,
	Anthropic: ClaudeSonnet4,
	Google:    Gemini15Flash,
}

func chat(id, name, display string, p Provider, vision bool, ctx, out int, cost float64, recommended bool) Model {
	return Model{
		ID:                       id,
		Name:                     name,
		DisplayName:              display,
		Provider:                 p,
		SupportsVision:           vision,
		RecommendedForFlashcards: recommended,
		MaxContextTokens:         ctx,
		MaxOutputTokens:          out,
		CostPer1KTokens:          cost,
	}
}

// builtinModels returns a fresh copy of the built-in table.
func builtinModels() []Model {
	return []Model{
		chat("gpt-4o", GPT4o, "GPT-4 Omni", OpenAI, true, 128000, 4096, 0.005, false),
		chat("gpt-4o-mini", GPT4oMini, "GPT-4 Omni Mini", OpenAI, true, 128000, 16384, 0.0002, true),
		chat("gpt-4.1", GPT41, "GPT-4.1", OpenAI, true, 128000, 4096, 0.01, false),
		chat("gpt-4-turbo", GPT4Turbo, "GPT-4 Turbo", OpenAI, true, 128000, 4096, 0.01, false),
		chat("gpt-4", GPT4, "GPT-4", OpenAI, false, 8192, 4096, 0.03, false),
		chat("o1-preview", O1Preview, "O1 Preview", OpenAI, false, 128000, 32768, 0.015, false),
		chat("gpt-3.5-turbo", GPT35Turbo, "GPT-3.5 Turbo", OpenAI, false, 16385, 4096, 0.001, false),

		chat("claude-sonnet-4-20250514", ClaudeSonnet4, "Claude Sonnet 4", Anthropic, true, 200000, 8192, 0.003, true),
		chat("claude-opus-4-1-20250805", ClaudeOpus41, "Claude Opus 4.1", Anthropic, true, 200000, 8192, 0.015, false),
		chat("claude-3-5-sonnet-20241022", Claude35Sonnet, "Claude 3.5 Sonnet", Anthropic, true, 200000, 8192, 0.003, true),
		chat("claude-3-5-haiku-20241022", Claude35Haiku, "Claude 3.5 Haiku", Anthropic, true, 200000, 8192, 0.001, true),
		chat("claude-3-opus-20240229", Claude3Opus, "Claude 3 Opus", Anthropic, true, 200000, 4096, 0.015, false),
		chat("claude-3-sonnet-20240229", Claude3Sonnet, "Claude 3 Sonnet", Anthropic, true, 200000, 4096, 0.003, false),
		chat("claude-3-haiku-20240307", Claude3Haiku, "Claude 3 Haiku", Anthropic, true, 200000, 4096, 0.0005, true),

		chat("gemini-pro", GeminiPro, "Gemini Pro", Google, true, 30720, 2048, 0.001, false),
		chat("gemini-pro-vision", GeminiProVision, "Gemini Pro Vision", Google, true, 12288, 4096, 0.001, false),
		chat("gemini-1.5-pro", Gemini15Pro, "Gemini 1.5 Pro", Google, true, 1000000, 8192, 0.0035, false),
		chat("gemini-1.5-flash", Gemini15Flash, "Gemini 1.5 Flash", Google, true, 1000000, 8192, 0.0002, true),

		{
			ID: "dall-e-3", Name: DallE3, DisplayName: "DALL-E 3", Provider: OpenAI,
			SupportsImageGeneration: true, MaxContextTokens: 1000,
		},
		{
			ID: "dall-e-2", Name: DallE2, DisplayName: "DALL-E 2", Provider: OpenAI,
			SupportsImageGeneration: true, MaxContextTokens: 250,
		},
		{
			ID: "imagen-3.0-generate-002", Name: Imagen3, DisplayName: "Imagen 3", Provider: Google,
			SupportsImageGeneration: true, MaxContextTokens: 480,
		},
		{
			ID: "tts-1", Name: TTS1, DisplayName: "TTS 1", Provider: OpenAI,
			SupportsSpeech: true, MaxContextTokens: 1024,
		},
		{
			ID: "tts-1-hd", Name: TTS1HD, DisplayName: "TTS 1 HD", Provider: OpenAI,
			SupportsSpeech: true, MaxContextTokens: 1024,
		},
		{
			ID: "whisper-1", Name: Whisper1, DisplayName: "Whisper", Provider: OpenAI,
			SupportsTranscription: true, MaxContextTokens: 224,
		},
	}
}
