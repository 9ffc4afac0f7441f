package provider

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/phrazzld/cardforge/internal/catalog"
	"github.com/stretchr/testify/assert"
)

func TestErrorRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{0, false},
	}

	for _, tc := range tests {
		err := &Error{Provider: catalog.OpenAI, Op: "chat", StatusCode: tc.status, Err: errors.New("boom")}
		assert.Equal(t, tc.want, err.Retryable(), "status %d", tc.status)
		assert.Equal(t, tc.want, IsRetryable(fmt.Errorf("wrapped: %w", err)), "status %d", tc.status)
	}
}

func TestErrorUnwrap(t *testing.T) {
	t.Parallel()

	err := &Error{Provider: catalog.Anthropic, Op: "chat", StatusCode: 429, Err: ErrRateLimited}
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, "ANTHROPIC chat: status 429: rate limited by provider", err.Error())

	noStatus := &Error{Provider: catalog.Google, Op: "images", Err: ErrEmptyResponse}
	assert.Equal(t, "GOOGLE images: empty response from provider", noStatus.Error())
	assert.False(t, IsRetryable(errors.New("plain")))
}
