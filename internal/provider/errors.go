package provider

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/phrazzld/cardforge/internal/catalog"
)

var (
	// ErrCapabilityNotSupported is returned when a handle lacks the capability a call needs.
	ErrCapabilityNotSupported = errors.New("capability not supported by provider")

	// ErrContentBlocked is returned when the provider refuses the content on safety grounds.
	ErrContentBlocked = errors.New("content blocked by provider safety filters")

	// ErrEmptyResponse is returned when the provider answered without usable content.
	ErrEmptyResponse = errors.New("empty response from provider")

	// ErrRateLimited is returned when the provider answered 429.
	ErrRateLimited = errors.New("rate limited by provider")
)

// Error is a failed provider call.
type Error struct {
	Provider   catalog.Provider
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the same request may succeed.
func (e *Error) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// IsRetryable reports whether err is a retryable *Error.
func IsRetryable(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Retryable()
}
