// Package openai is a provider client for the OpenAI REST API. It covers
// chat completions (with inline images), image generation, speech synthesis
// and Whisper transcription.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/phrazzld/cardforge/internal/catalog"
	"github.com/phrazzld/cardforge/internal/platform/httpx"
	"github.com/phrazzld/cardforge/internal/provider"
)

// DefaultBaseURL is the public OpenAI API root.
const DefaultBaseURL = "https://api.openai.com/v1"

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("openai: API key is required")

// Config holds the connection settings of a Client.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// BaseDelay is the first backoff interval between transport retries.
	BaseDelay time.Duration
}

// Client talks to the OpenAI API. It implements provider.ChatClient,
// provider.ImageClient, provider.SpeechClient and provider.TranscriptionClient.
type Client struct {
	baseURL string
	http    *httpx.Client
	logger  *slog.Logger
}

var (
	_ provider.ChatClient          = (*Client)(nil)
	_ provider.ImageClient         = (*Client)(nil)
	_ provider.SpeechClient        = (*Client)(nil)
	_ provider.TranscriptionClient = (*Client)(nil)
)

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
		http: httpx.New(catalog.OpenAI, httpx.Options{
			Timeout:    cfg.Timeout,
			Headers:    map[string]string{"Authorization": "Bearer " + cfg.APIKey},
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.BaseDelay,
		}, logger),
		logger: logger.With(slog.String("component", "openai")),
	}, nil
}

// Handle returns the provider handle backed by c.
func (c *Client) Handle() provider.Handle {
	return provider.Handle{
		Provider:      catalog.OpenAI,
		Chat:          c,
		Image:         c,
		Speech:        c,
		Transcription: c,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// chatMessage content is either a string or a list of content parts.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// CompleteChat sends a chat completion request and returns the reply text.
func (c *Client) CompleteChat(ctx context.Context, messages []provider.Message, opts provider.ChatOptions) (string, error) {
	req := chatRequest{
		Model:     opts.Model,
		Messages:  make([]chatMessage, 0, len(messages)),
		MaxTokens: opts.MaxTokens,
	}
	// Reasoning models reject a temperature parameter.
	if !strings.HasPrefix(opts.Model, "o1") {
		t := opts.Temperature
		req.Temperature = &t
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, toChatMessage(m))
	}

	c.logger.DebugContext(ctx, "sending chat completion",
		slog.String("model", opts.Model),
		slog.Int("messages", len(messages)))
	resp, err := httpx.PostJSON[chatResponse](ctx, c.http, "chat", c.baseURL+"/chat/completions", req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", c.fail("chat", provider.ErrEmptyResponse)
	}
	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" || choice.Message.Refusal != "" {
		return "", c.fail("chat", fmt.Errorf("%w: %s", provider.ErrContentBlocked, choice.Message.Refusal))
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", c.fail("chat", provider.ErrEmptyResponse)
	}
	return choice.Message.Content, nil
}

func toChatMessage(m provider.Message) chatMessage {
	if len(m.Images) == 0 {
		return chatMessage{Role: string(m.Role), Content: m.Text}
	}
	parts := make([]contentPart, 0, len(m.Images)+1)
	if m.Text != "" {
		parts = append(parts, contentPart{Type: "text", Text: m.Text})
	}
	for _, img := range m.Images {
		parts = append(parts, contentPart{
			Type:     "image_url",
			ImageURL: &imageURL{URL: dataURL(img)},
		})
	}
	return chatMessage{Role: string(m.Role), Content: parts}
}

func dataURL(img provider.ImagePart) string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size,omitempty"`
	Quality        string `json:"quality,omitempty"`
	Style          string `json:"style,omitempty"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		URL           string `json:"url"`
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

// GenerateImage requests opts.Count images. DALL-E 3 accepts one image per
// request, so it is called once per image.
func (c *Client) GenerateImage(ctx context.Context, prompt string, opts provider.ImageOptions) ([]provider.GeneratedImage, error) {
	count := max(opts.Count, 1)
	perCall := count
	if opts.Model == "dall-e-3" {
		perCall = 1
	}

	var images []provider.GeneratedImage
	for len(images) < count {
		n := min(perCall, count-len(images))
		req := imageRequest{
			Model:          opts.Model,
			Prompt:         prompt,
			N:              n,
			Size:           opts.Size,
			ResponseFormat: "url",
		}
		if opts.Model == "dall-e-3" {
			req.Quality = opts.Quality
			req.Style = opts.Style
		}
		resp, err := httpx.PostJSON[imageResponse](ctx, c.http, "images", c.baseURL+"/images/generations", req)
		if err != nil {
			return nil, err
		}
		if len(resp.Data) == 0 {
			return nil, c.fail("images", provider.ErrEmptyResponse)
		}
		for _, d := range resp.Data {
			img := provider.GeneratedImage{URL: d.URL, RevisedPrompt: d.RevisedPrompt, MIMEType: "image/png"}
			if d.B64JSON != "" {
				data, err := base64.StdEncoding.DecodeString(d.B64JSON)
				if err != nil {
					return nil, c.fail("images", fmt.Errorf("decode image: %w", err))
				}
				img.Data = data
			}
			images = append(images, img)
		}
	}
	return images, nil
}

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	Speed          float64 `json:"speed,omitempty"`
	ResponseFormat string  `json:"response_format,omitempty"`
}

// SynthesizeSpeech returns the encoded audio for text.
func (c *Client) SynthesizeSpeech(ctx context.Context, text string, opts provider.SpeechOptions) ([]byte, error) {
	payload, err := json.Marshal(speechRequest{
		Model:          opts.Model,
		Input:          text,
		Voice:          opts.Voice,
		Speed:          opts.Speed,
		ResponseFormat: opts.Format,
	})
	if err != nil {
		return nil, c.fail("speech", err)
	}
	audio, err := c.http.Post(ctx, "speech", c.baseURL+"/audio/speech", "application/json", payload)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, c.fail("speech", provider.ErrEmptyResponse)
	}
	return audio, nil
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads audio to the transcription endpoint and returns the text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, opts provider.TranscriptionOptions) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	filename := opts.Filename
	if filename == "" {
		filename = "audio.mp3"
	}
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", c.fail("transcription", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", c.fail("transcription", err)
	}
	fields := map[string]string{
		"model":           opts.Model,
		"language":        opts.Language,
		"prompt":          opts.Prompt,
		"response_format": "json",
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return "", c.fail("transcription", err)
		}
	}
	if err := w.Close(); err != nil {
		return "", c.fail("transcription", err)
	}

	raw, err := c.http.Post(ctx, "transcription", c.baseURL+"/audio/transcriptions", w.FormDataContentType(), buf.Bytes())
	if err != nil {
		return "", err
	}
	var resp transcriptionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", c.fail("transcription", fmt.Errorf("%w: %v", provider.ErrEmptyResponse, err))
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", c.fail("transcription", provider.ErrEmptyResponse)
	}
	return resp.Text, nil
}

func (c *Client) fail(op string, err error) error {
	return &provider.Error{Provider: catalog.OpenAI, Op: op, Err: err}
}
