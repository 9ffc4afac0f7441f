package gemini

import (
	"errors"
	"net/http"

	"github.com/phrazzld/cardforge/internal/catalog"
	"github.com/phrazzld/cardforge/internal/provider"
	"google.golang.org/genai"
)

// Error definitions for the gemini package.
var (
	// ErrMissingAPIKey is returned by New when no API key is configured.
	ErrMissingAPIKey = errors.New("gemini: API key is required")
)

// wrapError converts an SDK failure into a *provider.Error, keeping the HTTP
// status of API errors so transient ones can be retried.
func wrapError(op string, err error) error {
	var pe *provider.Error
	if errors.As(err, &pe) {
		return err
	}
	out := &provider.Error{Provider: catalog.Google, Op: op, Err: err}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		out.StatusCode = apiErr.Code
		if apiErr.Code == http.StatusTooManyRequests {
			out.Err = errors.Join(provider.ErrRateLimited, err)
		}
	}
	return out
}
