// Package anthropic is a chat client for the Anthropic messages API.
package anthropic

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/cardforge/internal/catalog"
	"github.com/phrazzld/cardforge/internal/platform/httpx"
	"github.com/phrazzld/cardforge/internal/provider"
)

const (
	// DefaultBaseURL is the public Anthropic API root.
	DefaultBaseURL = "https://api.anthropic.com/v1"

	apiVersion       = "2023-06-01"
	defaultMaxTokens = 4096
)

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("anthropic: API key is required")

// Config holds the connection settings of a Client.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
}

// Client implements provider.ChatClient.
type Client struct {
	baseURL string
	http    *httpx.Client
	logger  *slog.Logger
}

var _ provider.ChatClient = (*Client)(nil)

// New creates a Client.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		baseURL: base,
		http: httpx.New(catalog.Anthropic, httpx.Options{
			Timeout: cfg.Timeout,
			Headers: map[string]string{
				"x-api-key":         cfg.APIKey,
				"anthropic-version": apiVersion,
			},
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.BaseDelay,
		}, logger),
		logger: logger.With(slog.String("component", "anthropic")),
	}, nil
}

// Handle returns the provider handle backed by c. Anthropic offers chat only.
func (c *Client) Handle() provider.Handle {
	return provider.Handle{Provider: catalog.Anthropic, Chat: c}
}

type messagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type message struct {
	Role    string  `json:"role"`
	Content []block `json:"content"`
}

type block struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// CompleteChat sends the conversation to the messages endpoint. System
// messages are lifted into the top-level system prompt.
func (c *Client) CompleteChat(ctx context.Context, messages []provider.Message, opts provider.ChatOptions) (string, error) {
	req := messagesRequest{
		Model:       opts.Model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = defaultMaxTokens
	}

	var system []string
	for _, m := range messages {
		if m.Role == provider.RoleSystem {
			system = append(system, m.Text)
			continue
		}
		req.Messages = append(req.Messages, toMessage(m))
	}
	req.System = strings.Join(system, "\n\n")

	c.logger.DebugContext(ctx, "sending messages request",
		slog.String("model", opts.Model),
		slog.Int("messages", len(req.Messages)))

	resp, err := httpx.PostJSON[messagesResponse](ctx, c.http, "messages", c.baseURL+"/messages", req)
	if err != nil {
		return "", err
	}
	if resp.StopReason == "refusal" {
		return "", &provider.Error{Provider: catalog.Anthropic, Op: "messages", Err: provider.ErrContentBlocked}
	}

	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", &provider.Error{
			Provider: catalog.Anthropic,
			Op:       "messages",
			Err:      fmt.Errorf("%w: stop reason %q", provider.ErrEmptyResponse, resp.StopReason),
		}
	}
	return sb.String(), nil
}

func toMessage(m provider.Message) message {
	role := "user"
	if m.Role == provider.RoleAssistant {
		role = "assistant"
	}
	blocks := make([]block, 0, len(m.Images)+1)
	for _, img := range m.Images {
		blocks = append(blocks, block{
			Type: "image",
			Source: &imageSource{
				Type:      "base64",
				MediaType: img.MIMEType,
				Data:      base64.StdEncoding.EncodeToString(img.Data),
			},
		})
	}
	if m.Text != "" {
		blocks = append(blocks, block{Type: "text", Text: m.Text})
	}
	return message{Role: role, Content: blocks}
}
