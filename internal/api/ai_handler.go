package api

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/cardforge/internal/api/shared"
	"github.com/phrazzld/cardforge/internal/generation"
	"github.com/phrazzld/cardforge/internal/service"
)

const defaultFlashcardCount = 5

// AIHandler serves the flashcard, summary and image generation endpoints.
type AIHandler struct {
	generation    service.GenerationService
	maxImageBytes int64
	logger        *slog.Logger
}

// NewAIHandler creates a new AIHandler. Uploaded images larger than
// maxImageBytes are rejected.
func NewAIHandler(svc service.GenerationService, maxImageBytes int64, logger *slog.Logger) *AIHandler {
	if svc == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("generation service cannot be nil for AIHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AIHandler")
	}
	return &AIHandler{
		generation:    svc,
		maxImageBytes: maxImageBytes,
		logger:        logger.With(slog.String("component", "ai_handler")),
	}
}

// ListModels handles GET /ai/models.
func (h *AIHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ModelsResponse{Models: h.generation.Models(r.Context())})
}

// GenerateFromText handles POST /ai/flashcards/generate-text. Cards are
// saved unless ?save=false is given.
func (h *AIHandler) GenerateFromText(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req GenerateTextRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	save, err := queryBool(r, "save", true)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	op := generation.TextToFlashcards{
		Text:   req.Text,
		Count:  req.Count,
		DeckID: derefUUID(req.DeckID),
		UserID: userID,
	}
	h.generateFlashcards(w, r, op, req.Model, save)
}

// GenerateFromPrompt handles POST /ai/flashcards/generate-prompt. Cards are
// saved only with ?save=true.
func (h *AIHandler) GenerateFromPrompt(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req GeneratePromptRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	save, err := queryBool(r, "save", false)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	count := req.Count
	if count == 0 {
		count = defaultFlashcardCount
	}
	op := generation.PromptToFlashcards{
		Prompt: req.Prompt,
		Topic:  req.Topic,
		Count:  count,
		DeckID: derefUUID(req.DeckID),
		UserID: userID,
	}
	h.generateFlashcards(w, r, op, req.Model, save)
}

// GenerateFromImage handles POST /ai/flashcards/generate-image, a multipart
// form with an "image" file part. Cards are saved only with ?save=true.
func (h *AIHandler) GenerateFromImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	image, err := shared.ReadFormFile(r, "image", h.maxImageBytes)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	form, err := parseImageForm(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if !validate(w, r, form) {
		return
	}
	save, err := queryBool(r, "save", false)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	op := generation.ImageToFlashcards{
		Image:    image.Data,
		MIMEType: image.MIMEType,
		Prompt:   form.Prompt,
		Count:    form.Count,
		DeckID:   derefUUID(form.DeckID),
		UserID:   userID,
	}
	h.generateFlashcards(w, r, op, form.Model, save)
}

func parseImageForm(r *http.Request) (*GenerateImageForm, error) {
	deckID, err := formUUID(r, "deckId")
	if err != nil {
		return nil, err
	}
	count, err := formInt(r, "count", defaultFlashcardCount)
	if err != nil {
		return nil, err
	}
	return &GenerateImageForm{
		DeckID: deckID,
		Prompt: r.FormValue("prompt"),
		Count:  count,
		Model:  r.FormValue("model"),
	}, nil
}

func (h *AIHandler) generateFlashcards(
	w http.ResponseWriter,
	r *http.Request,
	op generation.Operation,
	model string,
	save bool,
) {
	log := logFor(r, h.logger, "generate_flashcards")

	outcome, err := h.generation.GenerateFlashcards(r.Context(), op, model, save)
	if err != nil {
		log.Debug("flashcard generation failed",
			slog.String("operation", string(op.Kind())),
			slog.String("requested_model", model))
		HandleAPIError(w, r, err, "Failed to generate flashcards")
		return
	}

	status := http.StatusOK
	if len(outcome.Saved) > 0 {
		status = http.StatusCreated
	}
	shared.RespondWithJSON(w, r, status, FlashcardsResponse{
		Flashcards: outcome.Result.Cards,
		Saved:      outcome.Saved,
		ModelUsed:  outcome.Result.Model,
		Dropped:    outcome.Result.Dropped,
		Cached:     outcome.Cached,
	})
}

// GenerateSummary handles POST /ai/summary/generate.
func (h *AIHandler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req SummaryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	op := generation.ContentToSummary{
		SourceType:   generation.SourceType(req.SourceType),
		Text:         req.Text,
		Prompt:       req.Prompt,
		DeckID:       derefUUID(req.DeckID),
		FlashcardIDs: req.FlashcardIDs,
		Format:       generation.SummaryFormat(req.Format),
		Length:       generation.SummaryLength(req.Length),
		UserID:       userID,
	}
	if op.Format == "" {
		op.Format = generation.FormatParagraph
	}
	if op.Length == "" {
		op.Length = generation.LengthMedium
	}

	result, err := h.generation.Summarize(r.Context(), op, req.Model)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate summary")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// GenerateImages handles POST /ai/images/generate.
func (h *AIHandler) GenerateImages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req ImagesRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	op := generation.TextToImage{
		Description: req.Description,
		Count:       req.Count,
		Size:        req.Size,
		Quality:     req.Quality,
		Style:       req.Style,
		UserID:      userID,
	}

	started := time.Now()
	result, err := h.generation.GenerateImages(r.Context(), op, req.Model)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate images")
		return
	}

	images := make([]GeneratedImage, len(result.Images))
	for i, img := range result.Images {
		images[i] = GeneratedImage{
			URL:           img.URL,
			MIMEType:      img.MIMEType,
			RevisedPrompt: img.RevisedPrompt,
		}
		if len(img.Data) > 0 {
			images[i].B64JSON = base64.StdEncoding.EncodeToString(img.Data)
		}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ImagesResponse{
		Images:              images,
		ModelUsed:           result.Model,
		OriginalDescription: req.Description,
		Width:               result.Width,
		Height:              result.Height,
		GeneratedAt:         time.Now().UTC(),
		GenerationTimeMs:    time.Since(started).Milliseconds(),
	})
}
