package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogs routes the default logger to a buffer for the rest of the test.
func captureLogs(t *testing.T) *strings.Builder {
	t.Helper()
	var buf strings.Builder
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(old) })
	return &buf
}

func requestWithTrace(traceID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if traceID == "" {
		return req
	}
	return req.WithContext(context.WithValue(req.Context(), TraceIDKey, traceID))
}

func TestRespondWithJSON(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithJSON(w, requestWithTrace(""), http.StatusCreated, map[string]interface{}{
		"message": "success",
		"data":    123,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "success", response["message"])
	assert.Equal(t, float64(123), response["data"])

	w = httptest.NewRecorder()
	RespondWithJSON(w, requestWithTrace(""), http.StatusOK, nil)
	assert.Equal(t, "null\n", w.Body.String())
}

type unencodable struct {
	Circular *unencodable
}

func TestRespondWithJSONEncodingError(t *testing.T) {
	logs := captureLogs(t)

	data := &unencodable{}
	data.Circular = data

	w := httptest.NewRecorder()
	RespondWithJSON(w, requestWithTrace(""), http.StatusOK, data)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, logs.String(), "failed to encode JSON response")
}

func TestRespondWithBytes(t *testing.T) {
	audio := []byte{0xff, 0xfb, 0x90, 0x44}

	w := httptest.NewRecorder()
	RespondWithBytes(w, requestWithTrace(""), http.StatusOK, "audio/mpeg", audio)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "4", w.Header().Get("Content-Length"))
	assert.Equal(t, audio, w.Body.Bytes())
}

func TestRespondWithError(t *testing.T) {
	tests := map[string]struct {
		traceID string
	}{
		"with trace id":    {traceID: "test-trace-id"},
		"without trace id": {traceID: ""},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			RespondWithError(w, requestWithTrace(tc.traceID), http.StatusBadRequest, "Invalid request")

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var response ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, "Invalid request", response.Error)
			assert.Equal(t, tc.traceID, response.TraceID)
		})
	}
}

func TestRespondWithErrorAndLog(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		elevate   bool
		wantLevel string
	}{
		{name: "server error", status: http.StatusServiceUnavailable, wantLevel: "level=ERROR"},
		{name: "client error", status: http.StatusBadRequest, wantLevel: "level=DEBUG"},
		{name: "elevated client error", status: http.StatusForbidden, elevate: true, wantLevel: "level=WARN"},
		{name: "rate limited", status: http.StatusTooManyRequests, wantLevel: "level=WARN"},
		{name: "redirect ignores elevation", status: http.StatusMovedPermanently, elevate: true, wantLevel: "level=DEBUG"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			logs := captureLogs(t)

			var opts []ResponseOption
			if tc.elevate {
				opts = append(opts, WithElevatedLogLevel())
			}

			w := httptest.NewRecorder()
			RespondWithErrorAndLog(w, requestWithTrace("test-trace-id"), tc.status, "safe message",
				errors.New("openai call failed with key sk-abcdefghijklmnopqrstuvwx"), opts...)

			assert.Equal(t, tc.status, w.Code)
			var response ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, "safe message", response.Error)
			assert.Equal(t, "test-trace-id", response.TraceID)

			out := logs.String()
			assert.Contains(t, out, tc.wantLevel)
			assert.Contains(t, out, "trace_id=test-trace-id")
			assert.Contains(t, out, "error_type=")
			assert.NotContains(t, out, "sk-abcdefghijklmnopqrstuvwx")
			assert.NotContains(t, w.Body.String(), "openai call failed")
		})
	}
}
