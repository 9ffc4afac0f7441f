package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/cardforge/internal/api/shared"
	"github.com/phrazzld/cardforge/internal/catalog"
	"github.com/phrazzld/cardforge/internal/domain"
	"github.com/phrazzld/cardforge/internal/generation"
	"github.com/phrazzld/cardforge/internal/provider"
	"github.com/phrazzld/cardforge/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sourceText = "Photosynthesis converts light energy into chemical energy stored in glucose molecules."

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func authedRequest(method, target string, body io.Reader, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if userID != uuid.Nil {
		req = req.WithContext(shared.WithUserID(req.Context(), userID))
	}
	return req
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func draft(deckID, userID uuid.UUID, front, back string) domain.DraftFlashcard {
	return domain.DraftFlashcard{
		DeckID:     deckID,
		UserID:     userID,
		Front:      domain.CardSide{Text: front, Type: domain.ContentTextOnly},
		Back:       domain.CardSide{Text: back, Type: domain.ContentTextOnly},
		Tags:       []string{},
		Difficulty: domain.DifficultyMedium,
	}
}

func TestAIHandler_ListModels(t *testing.T) {
	t.Parallel()

	svc := &MockGenerationService{
		ModelsFn: func(context.Context) []service.ModelStatus {
			return []service.ModelStatus{
				{Model: catalog.Model{ID: "gpt-4o-mini", Provider: catalog.OpenAI}, Available: true},
				{Model: catalog.Model{ID: "gemini-1.5-flash", Provider: catalog.Google}, Available: false},
			}
		},
	}
	h := NewAIHandler(svc, 1<<20, testLogger())

	w := httptest.NewRecorder()
	h.ListModels(w, authedRequest(http.MethodGet, "/api/ai/models", nil, uuid.New()))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Models []struct {
			ID        string `json:"id"`
			Available bool   `json:"available"`
		} `json:"models"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Models, 2)
	assert.Equal(t, "gpt-4o-mini", resp.Models[0].ID)
	assert.True(t, resp.Models[0].Available)
	assert.False(t, resp.Models[1].Available)

	w = httptest.NewRecorder()
	h.ListModels(w, authedRequest(http.MethodGet, "/api/ai/models", nil, uuid.Nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAIHandler_GenerateFromText(t *testing.T) {
	t.Parallel()

	userID, deckID := uuid.New(), uuid.New()

	t.Run("saves by default", func(t *testing.T) {
		t.Parallel()

		var gotOp generation.Operation
		var gotModel string
		var gotSave bool
		svc := &MockGenerationService{
			GenerateFlashcardsFn: func(_ context.Context, op generation.Operation, model string, save bool) (*service.FlashcardsOutcome, error) {
				gotOp, gotModel, gotSave = op, model, save
				d := draft(deckID, userID, "What does photosynthesis produce?", "Glucose")
				card, err := domain.NewFlashcard(d)
				require.NoError(t, err)
				return &service.FlashcardsOutcome{
					Result: &generation.FlashcardsResult{Cards: []domain.DraftFlashcard{d}, Model: "gpt-4o-mini"},
					Saved:  []domain.Flashcard{*card},
				}, nil
			},
		}
		h := NewAIHandler(svc, 1<<20, testLogger())

		body := jsonBody(t, map[string]interface{}{
			"deckId": deckID, "text": sourceText, "count": 3, "model": "gpt-4o-mini",
			// A body-supplied user ID is ignored.
			"userId": uuid.New(),
		})
		w := httptest.NewRecorder()
		h.GenerateFromText(w, authedRequest(http.MethodPost, "/api/ai/flashcards/generate-text", body, userID))

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.True(t, gotSave)
		assert.Equal(t, "gpt-4o-mini", gotModel)
		assert.Equal(t, generation.TextToFlashcards{Text: sourceText, Count: 3, DeckID: deckID, UserID: userID}, gotOp)

		var resp FlashcardsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Flashcards, 1)
		assert.Len(t, resp.Saved, 1)
		assert.Equal(t, "gpt-4o-mini", resp.ModelUsed)
	})

	t.Run("save=false", func(t *testing.T) {
		t.Parallel()

		var gotSave = true
		svc := &MockGenerationService{
			GenerateFlashcardsFn: func(_ context.Context, _ generation.Operation, _ string, save bool) (*service.FlashcardsOutcome, error) {
				gotSave = save
				return &service.FlashcardsOutcome{
					Result: &generation.FlashcardsResult{Model: "gpt-4o-mini"},
					Cached: true,
				}, nil
			},
		}
		h := NewAIHandler(svc, 1<<20, testLogger())

		w := httptest.NewRecorder()
		h.GenerateFromText(w, authedRequest(http.MethodPost, "/api/ai/flashcards/generate-text?save=false",
			jsonBody(t, map[string]interface{}{"text": sourceText, "count": 3}), userID))

		require.Equal(t, http.StatusOK, w.Code)
		assert.False(t, gotSave)
		assert.Contains(t, w.Body.String(), `"cached":true`)
	})

	t.Run("rejects bad input before the service", func(t *testing.T) {
		t.Parallel()

		svc := &MockGenerationService{
			GenerateFlashcardsFn: func(context.Context, generation.Operation, string, bool) (*service.FlashcardsOutcome, error) {
				t.Fatal("service must not be called")
				return nil, nil
			},
		}
		h := NewAIHandler(svc, 1<<20, testLogger())

		cases := map[string]struct {
			target string
			body   string
		}{
			"malformed json": {"/api/ai/flashcards/generate-text", `{"text":`},
			"text too short": {"/api/ai/flashcards/generate-text", `{"text":"short","count":3}`},
			"zero count":     {"/api/ai/flashcards/generate-text", fmt.Sprintf(`{"text":%q,"count":0}`, sourceText)},
			"bad save flag":  {"/api/ai/flashcards/generate-text?save=maybe", fmt.Sprintf(`{"text":%q,"count":3}`, sourceText)},
			"bad deck id":    {"/api/ai/flashcards/generate-text", fmt.Sprintf(`{"text":%q,"count":3,"deckId":"nope"}`, sourceText)},
		}
		for name, tc := range cases {
			w := httptest.NewRecorder()
			h.GenerateFromText(w, authedRequest(http.MethodPost, tc.target, strings.NewReader(tc.body), userID))
			assert.Equal(t, http.StatusBadRequest, w.Code, name)
		}
	})

	t.Run("maps service errors", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			err        error
			wantStatus int
			wantMsg    string
		}{
			{service.ErrNotOwned, http.StatusForbidden, "You do not own this resource"},
			{&generation.AllProvidersError{Cause: fmt.Errorf("openai: 500 %s", "sk-abcdefghijklmnopqrstuvwx")},
				http.StatusServiceUnavailable, "temporarily unavailable"},
			{fmt.Errorf("%w: %w", generation.ErrValidation, generation.ErrUnknownModel), http.StatusBadRequest, "Unknown model"},
		}
		for _, tc := range cases {
			svc := &MockGenerationService{
				GenerateFlashcardsFn: func(context.Context, generation.Operation, string, bool) (*service.FlashcardsOutcome, error) {
					return nil, tc.err
				},
			}
			h := NewAIHandler(svc, 1<<20, testLogger())

			w := httptest.NewRecorder()
			h.GenerateFromText(w, authedRequest(http.MethodPost, "/api/ai/flashcards/generate-text",
				jsonBody(t, map[string]interface{}{"text": sourceText, "count": 3}), userID))

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tc.wantMsg)
			assert.NotContains(t, w.Body.String(), "sk-")
		}
	})
}

func TestAIHandler_GenerateFromPrompt(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	var gotOp generation.PromptToFlashcards
	var gotSave = true
	svc := &MockGenerationService{
		GenerateFlashcardsFn: func(_ context.Context, op generation.Operation, _ string, save bool) (*service.FlashcardsOutcome, error) {
			gotOp = op.(generation.PromptToFlashcards)
			gotSave = save
			return &service.FlashcardsOutcome{Result: &generation.FlashcardsResult{Model: "claude-3-5-haiku-20241022"}}, nil
		},
	}
	h := NewAIHandler(svc, 1<<20, testLogger())

	w := httptest.NewRecorder()
	h.GenerateFromPrompt(w, authedRequest(http.MethodPost, "/api/ai/flashcards/generate-prompt",
		jsonBody(t, map[string]interface{}{"prompt": "Explain the Krebs cycle", "topic": "biology"}), userID))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, gotSave, "prompt generation does not save unless asked")
	assert.Equal(t, defaultFlashcardCount, gotOp.Count)
	assert.Equal(t, "biology", gotOp.Topic)
	assert.Equal(t, userID, gotOp.UserID)
}

func imageRequest(t *testing.T, target string, image []byte, fields map[string]string, userID uuid.UUID) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if image != nil {
		part, err := mw.CreateFormFile("image", "diagram.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := authedRequest(http.MethodPost, target, &body, userID)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R', 0, 0, 0, 1}

func TestAIHandler_GenerateFromImage(t *testing.T) {
	t.Parallel()

	userID, deckID := uuid.New(), uuid.New()

	t.Run("passes image and form fields", func(t *testing.T) {
		t.Parallel()

		var gotOp generation.ImageToFlashcards
		var gotModel string
		var gotSave bool
		svc := &MockGenerationService{
			GenerateFlashcardsFn: func(_ context.Context, op generation.Operation, model string, save bool) (*service.FlashcardsOutcome, error) {
				gotOp, gotModel, gotSave = op.(generation.ImageToFlashcards), model, save
				return &service.FlashcardsOutcome{Result: &generation.FlashcardsResult{Model: model}}, nil
			},
		}
		h := NewAIHandler(svc, 1<<20, testLogger())

		req := imageRequest(t, "/api/ai/flashcards/generate-image?save=true", pngBytes, map[string]string{
			"deckId": deckID.String(),
			"count":  "4",
			"prompt": "Focus on labels",
			"model":  "gpt-4o",
		}, userID)
		w := httptest.NewRecorder()
		h.GenerateFromImage(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.True(t, gotSave)
		assert.Equal(t, "gpt-4o", gotModel)
		assert.Equal(t, pngBytes, gotOp.Image)
		assert.Equal(t, "image/png", gotOp.MIMEType)
		assert.Equal(t, 4, gotOp.Count)
		assert.Equal(t, deckID, gotOp.DeckID)
		assert.Equal(t, userID, gotOp.UserID)
		assert.Equal(t, "Focus on labels", gotOp.Prompt)
	})

	t.Run("vision error is 422", func(t *testing.T) {
		t.Parallel()

		svc := &MockGenerationService{
			GenerateFlashcardsFn: func(context.Context, generation.Operation, string, bool) (*service.FlashcardsOutcome, error) {
				return nil, fmt.Errorf("%w: gpt-3.5-turbo", generation.ErrVisionNotSupported)
			},
		}
		h := NewAIHandler(svc, 1<<20, testLogger())

		w := httptest.NewRecorder()
		h.GenerateFromImage(w, imageRequest(t, "/api/ai/flashcards/generate-image", pngBytes, map[string]string{"model": "gpt-3.5-turbo"}, userID))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("upload problems", func(t *testing.T) {
		t.Parallel()

		h := NewAIHandler(&MockGenerationService{}, 16, testLogger())

		w := httptest.NewRecorder()
		h.GenerateFromImage(w, imageRequest(t, "/api/ai/flashcards/generate-image", nil, map[string]string{"count": "3"}, userID))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = httptest.NewRecorder()
		h.GenerateFromImage(w, imageRequest(t, "/api/ai/flashcards/generate-image", pngBytes, nil, userID))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

		h = NewAIHandler(&MockGenerationService{}, 1<<20, testLogger())
		w = httptest.NewRecorder()
		h.GenerateFromImage(w, imageRequest(t, "/api/ai/flashcards/generate-image", pngBytes, map[string]string{"count": "many"}, userID))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid count")
	})
}

func TestAIHandler_GenerateSummary(t *testing.T) {
	t.Parallel()

	userID, deckID := uuid.New(), uuid.New()
	var gotOp generation.ContentToSummary
	svc := &MockGenerationService{
		SummarizeFn: func(_ context.Context, op generation.ContentToSummary, _ string) (*generation.SummaryResult, error) {
			gotOp = op
			return &generation.SummaryResult{
				Summary:    "Cells make energy.",
				Format:     op.Format,
				Length:     op.Length,
				WordCount:  3,
				Model:      "gpt-4o-mini",
				SourceType: op.SourceType,
				DeckID:     &deckID,
			}, nil
		},
	}
	h := NewAIHandler(svc, 1<<20, testLogger())

	w := httptest.NewRecorder()
	h.GenerateSummary(w, authedRequest(http.MethodPost, "/api/ai/summary/generate",
		jsonBody(t, map[string]interface{}{"sourceType": "DECK", "deckId": deckID}), userID))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, generation.SourceDeck, gotOp.SourceType)
	assert.Equal(t, generation.FormatParagraph, gotOp.Format)
	assert.Equal(t, generation.LengthMedium, gotOp.Length)
	assert.Equal(t, deckID, gotOp.DeckID)
	assert.Equal(t, userID, gotOp.UserID)
	assert.Contains(t, w.Body.String(), `"modelUsed":"gpt-4o-mini"`)

	w = httptest.NewRecorder()
	h.GenerateSummary(w, authedRequest(http.MethodPost, "/api/ai/summary/generate",
		jsonBody(t, map[string]interface{}{"sourceType": "DECK", "format": "HAIKU"}), userID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAIHandler_GenerateImages(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	var gotOp generation.TextToImage
	svc := &MockGenerationService{
		GenerateImagesFn: func(_ context.Context, op generation.TextToImage, model string) (*generation.ImagesResult, error) {
			gotOp = op
			return &generation.ImagesResult{
				Images: []provider.GeneratedImage{
					{URL: "https://images.example/1.png", RevisedPrompt: "a red apple on a desk"},
					{Data: []byte("raw"), MIMEType: "image/png"},
				},
				Prompt: op.Description,
				Width:  1024,
				Height: 1024,
				Model:  "dall-e-3",
			}, nil
		},
	}
	h := NewAIHandler(svc, 1<<20, testLogger())

	w := httptest.NewRecorder()
	h.GenerateImages(w, authedRequest(http.MethodPost, "/api/ai/images/generate",
		jsonBody(t, map[string]interface{}{"description": "a red apple", "count": 2, "quality": "hd"}), userID))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, gotOp.Count)
	assert.Equal(t, "hd", gotOp.Quality)
	assert.Equal(t, userID, gotOp.UserID)

	var resp ImagesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Images, 2)
	assert.Equal(t, "https://images.example/1.png", resp.Images[0].URL)
	assert.Equal(t, "cmF3", resp.Images[1].B64JSON)
	assert.Equal(t, "dall-e-3", resp.ModelUsed)
	assert.Equal(t, "a red apple", resp.OriginalDescription)
	assert.Equal(t, 1024, resp.Width)
}
