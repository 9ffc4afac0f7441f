package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/cardforge/internal/catalog"
	"github.com/phrazzld/cardforge/internal/provider"
	"github.com/sethvargo/go-retry"
	"google.golang.org/genai"
)

const defaultBaseDelay = 2 * time.Second

// Config holds the settings of a Client.
type Config struct {
	APIKey     string
	MaxRetries int
	// BaseDelay is the first backoff interval between retries.
	BaseDelay time.Duration
}

// modelsAPI is the subset of genai.Models used by the client.
type modelsAPI interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
	GenerateImages(
		ctx context.Context,
		model string,
		prompt string,
		config *genai.GenerateImagesConfig,
	) (*genai.GenerateImagesResponse, error)
}

// Client implements provider.ChatClient and provider.ImageClient on top of
// the Gemini API.
type Client struct {
	models modelsAPI
	cfg    Config
	logger *slog.Logger
}

var (
	_ provider.ChatClient  = (*Client)(nil)
	_ provider.ImageClient = (*Client)(nil)
)

// New creates a Client with the provided configuration.
//
// Parameters:
//   - ctx: Context for the SDK client initialization
//   - cfg: API key and retry settings
//   - logger: A structured logger for operation logging
//
// Returns:
//   - A ready Client, or an error if the key is missing or the SDK client
//     cannot be created
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return newWithModels(client.Models, cfg, logger), nil
}

func newWithModels(models modelsAPI, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.MaxRetries < 0 {
		logger.Warn("Invalid max retries value, using 0", "max_retries", cfg.MaxRetries)
		cfg.MaxRetries = 0
	}
	return &Client{
		models: models,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "gemini")),
	}
}

// Handle returns the provider handle backed by c. Gemini has no speech or
// transcription support.
func (c *Client) Handle() provider.Handle {
	return provider.Handle{Provider: catalog.Google, Chat: c, Image: c}
}

// CompleteChat sends the conversation to Models.GenerateContent.
//
// System messages become the system instruction; every other message becomes
// a content entry with its text and inline image parts.
func (c *Client) CompleteChat(ctx context.Context, messages []provider.Message, opts provider.ChatOptions) (string, error) {
	temperature := float32(opts.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(opts.MaxTokens),
	}

	var system []*genai.Part
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		if m.Role == provider.RoleSystem {
			system = append(system, genai.NewPartFromText(m.Text))
			continue
		}
		contents = append(contents, toContent(m))
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromParts(system, genai.RoleUser)
	}

	var text string
	err := c.withRetry(ctx, "generate_content", func(ctx context.Context) error {
		resp, err := c.models.GenerateContent(ctx, opts.Model, contents, config)
		if err != nil {
			return wrapError("generate_content", err)
		}
		text, err = responseText(resp)
		return err
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func toContent(m provider.Message) *genai.Content {
	role := genai.Role(genai.RoleUser)
	if m.Role == provider.RoleAssistant {
		role = genai.RoleModel
	}
	parts := make([]*genai.Part, 0, len(m.Images)+1)
	if m.Text != "" {
		parts = append(parts, genai.NewPartFromText(m.Text))
	}
	for _, img := range m.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	return genai.NewContentFromParts(parts, role)
}

// responseText extracts the text of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", emptyResponse("nil response")
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", blocked(string(resp.PromptFeedback.BlockReason))
	}
	if len(resp.Candidates) == 0 {
		return "", emptyResponse("no candidates")
	}
	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		return "", blocked("safety")
	}
	if cand.Content == nil {
		return "", emptyResponse("empty content")
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", emptyResponse("no text parts")
	}
	return sb.String(), nil
}

// GenerateImage generates opts.Count images with Imagen.
func (c *Client) GenerateImage(ctx context.Context, prompt string, opts provider.ImageOptions) ([]provider.GeneratedImage, error) {
	config := &genai.GenerateImagesConfig{
		NumberOfImages: int32(max(opts.Count, 1)),
		AspectRatio:    aspectRatio(opts.Size),
	}

	var images []provider.GeneratedImage
	err := c.withRetry(ctx, "generate_images", func(ctx context.Context) error {
		resp, err := c.models.GenerateImages(ctx, opts.Model, prompt, config)
		if err != nil {
			return wrapError("generate_images", err)
		}
		images = images[:0]
		for _, gi := range resp.GeneratedImages {
			if gi == nil || gi.Image == nil || len(gi.Image.ImageBytes) == 0 {
				continue
			}
			mime := gi.Image.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			images = append(images, provider.GeneratedImage{
				Data:          gi.Image.ImageBytes,
				MIMEType:      mime,
				RevisedPrompt: gi.EnhancedPrompt,
			})
		}
		if len(images) == 0 {
			return emptyResponse("no images")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}

// aspectRatio maps a WxH size to one of the ratios Imagen accepts.
func aspectRatio(size string) string {
	var w, h int
	if _, err := fmt.Sscanf(size, "%dx%d", &w, &h); err != nil || w <= 0 || h <= 0 {
		return "1:1"
	}
	switch r := float64(w) / float64(h); {
	case r >= 1.6:
		return "16:9"
	case r >= 1.2:
		return "4:3"
	case r <= 0.625:
		return "9:16"
	case r <= 0.8:
		return "3:4"
	default:
		return "1:1"
	}
}

// withRetry runs fn, retrying transient API errors with exponential backoff
// and jitter. Content blocks and empty responses are returned immediately.
func (c *Client) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	b := retry.WithMaxRetries(uint64(c.cfg.MaxRetries),
		retry.WithJitterPercent(50, retry.NewExponential(c.cfg.BaseDelay)))

	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		c.logger.DebugContext(ctx, "Making Gemini API call", "op", op, "attempt", attempt)

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, provider.ErrContentBlocked) || !provider.IsRetryable(err) {
			c.logger.WarnContext(ctx, "Gemini API call failed, not retrying",
				"op", op, "attempt", attempt, "error", err)
			return err
		}
		c.logger.WarnContext(ctx, "Gemini API call failed, retrying",
			"op", op, "attempt", attempt, "error", err)
		return retry.RetryableError(err)
	})
}

func emptyResponse(detail string) error {
	return &provider.Error{
		Provider: catalog.Google,
		Op:       "generate_content",
		Err:      fmt.Errorf("%w: %s", provider.ErrEmptyResponse, detail),
	}
}

func blocked(reason string) error {
	return &provider.Error{
		Provider: catalog.Google,
		Op:       "generate_content",
		Err:      fmt.Errorf("%w: %s", provider.ErrContentBlocked, strings.ToLower(reason)),
	}
}
