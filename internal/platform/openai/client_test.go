package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/phrazzld/cardforge/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/"}, nil)
	require.NoError(t, err)
	return c
}

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := New(Config{APIKey: "  "}, nil)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestCompleteChat(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req["model"])
		assert.InDelta(t, 0.7, req["temperature"], 0.0001)
		assert.EqualValues(t, 1024, req["max_tokens"])

		msgs := req["messages"].([]any)
		require.Len(t, msgs, 2)
		assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
		assert.Equal(t, "make cards", msgs[1].(map[string]any)["content"])

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"[]"},"finish_reason":"stop"}]}`))
	})

	out, err := c.CompleteChat(context.Background(), []provider.Message{
		{Role: provider.RoleSystem, Text: "be helpful"},
		{Role: provider.RoleUser, Text: "make cards"},
	}, provider.ChatOptions{Model: "gpt-4o-mini", Temperature: 0.7, MaxTokens: 1024})
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestCompleteChat_ImagesBecomeDataURLs(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content []contentPart `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		parts := req.Messages[0].Content
		require.Len(t, parts, 2)
		assert.Equal(t, "text", parts[0].Type)
		assert.Equal(t, "image_url", parts[1].Type)
		assert.Equal(t, "data:image/png;base64,AQID", parts[1].ImageURL.URL)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	_, err := c.CompleteChat(context.Background(), []provider.Message{{
		Role:   provider.RoleUser,
		Text:   "describe",
		Images: []provider.ImagePart{{MIMEType: "image/png", Data: []byte{1, 2, 3}}},
	}}, provider.ChatOptions{Model: "gpt-4o"})
	require.NoError(t, err)
}

func TestCompleteChat_ReasoningModelOmitsTemperature(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_, has := req["temperature"]
		assert.False(t, has)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	_, err := c.CompleteChat(context.Background(), []provider.Message{{Role: provider.RoleUser, Text: "x"}},
		provider.ChatOptions{Model: "o1-preview", Temperature: 0.7})
	require.NoError(t, err)
}

func TestCompleteChat_Failures(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		body string
		want error
	}{
		"no choices":     {body: `{"choices":[]}`, want: provider.ErrEmptyResponse},
		"blank content":  {body: `{"choices":[{"message":{"content":"  "}}]}`, want: provider.ErrEmptyResponse},
		"content filter": {body: `{"choices":[{"message":{"content":""},"finish_reason":"content_filter"}]}`, want: provider.ErrContentBlocked},
		"refusal":        {body: `{"choices":[{"message":{"refusal":"no"}}]}`, want: provider.ErrContentBlocked},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := c.CompleteChat(context.Background(), []provider.Message{{Role: provider.RoleUser, Text: "x"}},
				provider.ChatOptions{Model: "gpt-4o-mini"})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCompleteChat_StatusError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
	})

	_, err := c.CompleteChat(context.Background(), []provider.Message{{Role: provider.RoleUser, Text: "x"}},
		provider.ChatOptions{Model: "gpt-4o-mini"})
	var pe *provider.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusUnauthorized, pe.StatusCode)
	assert.Contains(t, err.Error(), "Incorrect API key")
}

func TestGenerateImage_DallE3OneImagePerCall(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		calls.Add(1)

		var req imageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 1, req.N)
		assert.Equal(t, "hd", req.Quality)
		assert.Equal(t, "natural", req.Style)
		assert.Equal(t, "1024x1024", req.Size)

		_, _ = w.Write([]byte(`{"data":[{"url":"https://img/x.png","revised_prompt":"better"}]}`))
	})

	images, err := c.GenerateImage(context.Background(), "a cell", provider.ImageOptions{
		Model: "dall-e-3", Count: 2, Size: "1024x1024", Quality: "hd", Style: "natural",
	})
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, "https://img/x.png", images[0].URL)
	assert.Equal(t, "better", images[0].RevisedPrompt)
}

func TestGenerateImage_DallE2Batches(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req imageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 3, req.N)
		assert.Empty(t, req.Quality)
		_, _ = w.Write([]byte(`{"data":[{"b64_json":"AQID"},{"url":"u2"},{"url":"u3"}]}`))
	})

	images, err := c.GenerateImage(context.Background(), "p", provider.ImageOptions{Model: "dall-e-2", Count: 3, Quality: "hd"})
	require.NoError(t, err)
	require.Len(t, images, 3)
	assert.Equal(t, []byte{1, 2, 3}, images[0].Data)
}

func TestSynthesizeSpeech(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/speech", r.URL.Path)
		var req speechRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tts-1", req.Model)
		assert.Equal(t, "nova", req.Voice)
		assert.Equal(t, "mp3", req.ResponseFormat)
		assert.InDelta(t, 1.25, req.Speed, 0.0001)

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3audio"))
	})

	audio, err := c.SynthesizeSpeech(context.Background(), "hello", provider.SpeechOptions{
		Model: "tts-1", Voice: "nova", Speed: 1.25, Format: "mp3",
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3audio"), audio)
}

func TestTranscribe_Multipart(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "de", r.FormValue("language"))
		assert.Empty(t, r.FormValue("prompt"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "lecture.mp3", hdr.Filename)
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, []byte("ID3data"), data)

		_, _ = w.Write([]byte(`{"text":"Guten Tag"}`))
	})

	text, err := c.Transcribe(context.Background(), []byte("ID3data"), provider.TranscriptionOptions{
		Model: "whisper-1", Filename: "lecture.mp3", Language: "de",
	})
	require.NoError(t, err)
	assert.Equal(t, "Guten Tag", text)
}

func TestTranscribe_EmptyText(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":""}`))
	})

	_, err := c.Transcribe(context.Background(), []byte("x"), provider.TranscriptionOptions{Model: "whisper-1"})
	assert.ErrorIs(t, err, provider.ErrEmptyResponse)
}

func TestHandle(t *testing.T) {
	t.Parallel()

	c, err := New(Config{APIKey: "k"}, nil)
	require.NoError(t, err)
	h := c.Handle()
	assert.NotNil(t, h.Chat)
	assert.NotNil(t, h.Image)
	assert.NotNil(t, h.Speech)
	assert.NotNil(t, h.Transcription)
}
