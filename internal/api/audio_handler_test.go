package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/cardforge/internal/domain"
	"github.com/phrazzld/cardforge/internal/generation"
	"github.com/phrazzld/cardforge/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mp3Frame = []byte("ID3\x03\x00\x00\x00\x00\x00\x00fake mp3 payload")

func speechService(got *generation.TextToSpeech) *MockGenerationService {
	return &MockGenerationService{
		SynthesizeFn: func(_ context.Context, op generation.TextToSpeech, _ string) (*generation.SpeechResult, error) {
			*got = op
			return &generation.SpeechResult{
				Audio:         mp3Frame,
				MIMEType:      "audio/mpeg",
				ProcessedText: op.Text,
				OutputType:    op.OutputType,
				Voice:         op.Voice,
				SpeechModel:   "tts-1",
			}, nil
		},
	}
}

func TestAudioHandler_TextToSpeech(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	var got generation.TextToSpeech
	h := NewAudioHandler(speechService(&got), 1<<20, testLogger())

	w := httptest.NewRecorder()
	h.TextToSpeech(w, authedRequest(http.MethodPost, "/api/audio/text-to-speech",
		jsonBody(t, map[string]interface{}{"text": "Hello there", "voice": "nova", "speed": 1.5}), userID))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, generation.VoiceNova, got.Voice)
	assert.Equal(t, generation.SpeechFullText, got.OutputType)
	assert.Equal(t, 1.5, got.Speed)
	assert.Equal(t, userID, got.UserID)

	var resp SpeechResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	audio, err := base64.StdEncoding.DecodeString(resp.AudioData)
	require.NoError(t, err)
	assert.Equal(t, mp3Frame, audio)
	assert.Equal(t, "mp3", resp.Format)
	assert.Equal(t, "tts-1", resp.Model)
	assert.Equal(t, generation.VoiceNova, resp.Voice)
}

func TestAudioHandler_TextToSpeechStream(t *testing.T) {
	t.Parallel()

	var got generation.TextToSpeech
	h := NewAudioHandler(speechService(&got), 1<<20, testLogger())

	w := httptest.NewRecorder()
	h.TextToSpeechStream(w, authedRequest(http.MethodPost, "/api/audio/text-to-speech/stream",
		jsonBody(t, map[string]interface{}{"text": "Hello there", "outputType": "SUMMARY", "summaryWordCount": 50}), uuid.New()))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "speech.mp3")
	assert.Equal(t, mp3Frame, w.Body.Bytes())
	assert.Equal(t, generation.SpeechSummary, got.OutputType)
	assert.Equal(t, 50, got.SummaryWords)
}

func TestAudioHandler_TextToSpeechRejectsBadInput(t *testing.T) {
	t.Parallel()

	svc := &MockGenerationService{
		SynthesizeFn: func(context.Context, generation.TextToSpeech, string) (*generation.SpeechResult, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	h := NewAudioHandler(svc, 1<<20, testLogger())

	for name, body := range map[string]string{
		"unknown voice":  `{"text":"Hello","voice":"robot"}`,
		"missing text":   `{"voice":"alloy"}`,
		"bad output":     `{"text":"Hello","outputType":"POEM"}`,
		"speed too high": `{"text":"Hello","speed":9}`,
	} {
		w := httptest.NewRecorder()
		h.TextToSpeech(w, authedRequest(http.MethodPost, "/api/audio/text-to-speech", strings.NewReader(body), uuid.New()))
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
}

func audioRequest(t *testing.T, audio []byte, fields map[string]string, userID uuid.UUID) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", "lecture.mp3")
	require.NoError(t, err)
	_, err = part.Write(audio)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := authedRequest(http.MethodPost, "/api/audio/speech-to-text", &body, userID)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAudioHandler_SpeechToText(t *testing.T) {
	t.Parallel()

	userID, deckID := uuid.New(), uuid.New()

	t.Run("transcription only by default", func(t *testing.T) {
		t.Parallel()

		var got generation.SpeechToText
		svc := &MockGenerationService{
			TranscribeFn: func(_ context.Context, op generation.SpeechToText, _ string) (*generation.TranscriptionResult, error) {
				got = op
				return &generation.TranscriptionResult{Text: "hello world", Language: "en", Model: "whisper-1", Action: op.Action}, nil
			},
		}
		h := NewAudioHandler(svc, 1<<20, testLogger())

		w := httptest.NewRecorder()
		h.SpeechToText(w, audioRequest(t, mp3Frame, map[string]string{"language": "en"}, userID))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, generation.ActionTranscriptionOnly, got.Action)
		assert.Equal(t, "lecture.mp3", got.Filename)
		assert.Equal(t, mp3Frame, got.Audio)

		var resp TranscriptionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "hello world", resp.TranscribedText)
		assert.Equal(t, "en", resp.DetectedLanguage)
		assert.Equal(t, "TRANSCRIPTION_ONLY", resp.ActionPerformed)
	})

	t.Run("flashcards action", func(t *testing.T) {
		t.Parallel()

		var got generation.SpeechToText
		svc := &MockGenerationService{
			TranscribeFn: func(_ context.Context, op generation.SpeechToText, model string) (*generation.TranscriptionResult, error) {
				got = op
				return &generation.TranscriptionResult{
					Text:   "mitochondria are the powerhouse of the cell",
					Model:  model,
					Action: op.Action,
					Flashcards: &generation.FlashcardsResult{
						Cards: []domain.DraftFlashcard{draft(deckID, userID, "What powers the cell?", "Mitochondria")},
						Model: "gpt-4o-mini",
					},
				}, nil
			},
		}
		h := NewAudioHandler(svc, 1<<20, testLogger())

		w := httptest.NewRecorder()
		h.SpeechToText(w, audioRequest(t, mp3Frame, map[string]string{
			"action":         "flashcards",
			"deckId":         deckID.String(),
			"flashcardCount": "2",
			"model":          "whisper-1",
		}, userID))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, generation.ActionFlashcards, got.Action)
		assert.Equal(t, deckID, got.DeckID)
		assert.Equal(t, 2, got.Count)
		assert.Equal(t, userID, got.UserID)

		var resp TranscriptionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Flashcards, 1)
		assert.Equal(t, "FLASHCARDS", resp.ActionPerformed)
	})

	t.Run("bad form", func(t *testing.T) {
		t.Parallel()

		h := NewAudioHandler(&MockGenerationService{}, 1<<20, testLogger())

		for name, fields := range map[string]map[string]string{
			"unknown action": {"action": "translate"},
			"bad deck":       {"deckId": "deck-1"},
			"bad count":      {"flashcardCount": "x"},
		} {
			w := httptest.NewRecorder()
			h.SpeechToText(w, audioRequest(t, mp3Frame, fields, userID))
			assert.Equal(t, http.StatusBadRequest, w.Code, name)
		}
	})

	t.Run("not owned deck", func(t *testing.T) {
		t.Parallel()

		svc := &MockGenerationService{
			TranscribeFn: func(context.Context, generation.SpeechToText, string) (*generation.TranscriptionResult, error) {
				return nil, service.ErrNotOwned
			},
		}
		h := NewAudioHandler(svc, 1<<20, testLogger())

		w := httptest.NewRecorder()
		h.SpeechToText(w, audioRequest(t, mp3Frame, map[string]string{"action": "FLASHCARDS", "deckId": deckID.String()}, userID))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestAudioFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "mp3", audioFormat(""))
	assert.Equal(t, "mp3", audioFormat("audio/mpeg"))
	assert.Equal(t, "wav", audioFormat("audio/x-wav"))
	assert.Equal(t, "opus", audioFormat("audio/ogg"))
	assert.Equal(t, "webm", audioFormat("audio/webm"))
}
