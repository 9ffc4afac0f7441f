// Package httpx is the JSON-over-HTTP transport shared by the provider
// clients that talk to REST endpoints directly. Transient failures (429 and
// 5xx) are retried with exponential backoff; everything else is returned as
// a *provider.Error on the first failure.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/cardforge/internal/catalog"
	"github.com/phrazzld/cardforge/internal/provider"
	"github.com/sethvargo/go-retry"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultBaseDelay = 500 * time.Millisecond
	maxErrorPreview  = 512
)

// Client posts requests to one provider.
type Client struct {
	provider   catalog.Provider
	http       *http.Client
	headers    map[string]string
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// Options configures a Client. Zero values select defaults.
type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	// Headers are sent with every request, e.g. authentication.
	Headers    map[string]string
	MaxRetries int
	BaseDelay  time.Duration
}

// New creates a Client for p.
func New(p catalog.Provider, opts Options, logger *slog.Logger) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	delay := opts.BaseDelay
	if delay <= 0 {
		delay = defaultBaseDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		provider:   p,
		http:       hc,
		headers:    opts.Headers,
		maxRetries: max(opts.MaxRetries, 0),
		baseDelay:  delay,
		logger:     logger.With(slog.String("component", "httpx"), slog.String("provider", string(p))),
	}
}

// PostJSON marshals body, posts it to url and decodes the JSON reply into T.
func PostJSON[T any](ctx context.Context, c *Client, op, url string, body any) (*T, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &provider.Error{Provider: c.provider, Op: op, Err: fmt.Errorf("marshal request: %w", err)}
	}

	raw, err := c.Post(ctx, op, url, "application/json", payload)
	if err != nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &provider.Error{
			Provider: c.provider,
			Op:       op,
			Err:      fmt.Errorf("%w: decode response: %v (body: %s)", provider.ErrEmptyResponse, err, preview(raw)),
		}
	}
	return &out, nil
}

// Post sends payload with the given content type and returns the raw body of
// a 2xx reply.
func (c *Client) Post(ctx context.Context, op, url, contentType string, payload []byte) ([]byte, error) {
	b := retry.WithMaxRetries(uint64(c.maxRetries), retry.WithJitterPercent(20, retry.NewExponential(c.baseDelay)))

	var body []byte
	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		var err error
		body, err = c.do(ctx, op, url, contentType, payload)
		if err != nil && provider.IsRetryable(err) {
			c.logger.WarnContext(ctx, "retrying provider request",
				slog.String("op", op),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, op, url, contentType string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &provider.Error{Provider: c.provider, Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Connection failures are treated like a 503 so they are retried.
		return nil, &provider.Error{Provider: c.provider, Op: op, StatusCode: http.StatusServiceUnavailable, Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", slog.String("error", cerr.Error()))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.Error{Provider: c.provider, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &provider.Error{Provider: c.provider, Op: op, StatusCode: resp.StatusCode, Err: statusError(resp.StatusCode, body)}
	}
	return body, nil
}

// errorEnvelope matches the error bodies of the OpenAI and Anthropic APIs.
type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func statusError(status int, body []byte) error {
	msg := preview(body)
	var env errorEnvelope
	if json.Unmarshal(body, &env) == nil && env.Error.Message != "" {
		msg = env.Error.Message
	}
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", provider.ErrRateLimited, msg)
	}
	return errors.New(msg)
}

func preview(b []byte) string {
	if len(b) > maxErrorPreview {
		return string(b[:maxErrorPreview]) + "..."
	}
	return string(b)
}
