package api

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/cardforge/internal/api/shared"
	"github.com/phrazzld/cardforge/internal/domain"
	"github.com/phrazzld/cardforge/internal/generation"
	"github.com/phrazzld/cardforge/internal/service"
)

const defaultAudioMIMEType = "audio/mpeg"

// AudioHandler serves the speech synthesis and transcription endpoints.
type AudioHandler struct {
	generation    service.GenerationService
	maxAudioBytes int64
	logger        *slog.Logger
}

// NewAudioHandler creates a new AudioHandler. Uploaded audio larger than
// maxAudioBytes is rejected.
func NewAudioHandler(svc service.GenerationService, maxAudioBytes int64, logger *slog.Logger) *AudioHandler {
	if svc == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("generation service cannot be nil for AudioHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AudioHandler")
	}
	return &AudioHandler{
		generation:    svc,
		maxAudioBytes: maxAudioBytes,
		logger:        logger.With(slog.String("component", "audio_handler")),
	}
}

// TextToSpeech handles POST /audio/text-to-speech. The audio is returned
// base64 encoded inside a JSON body.
func (h *AudioHandler) TextToSpeech(w http.ResponseWriter, r *http.Request) {
	result, ok := h.synthesize(w, r)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, SpeechResponse{
		AudioData:     base64.StdEncoding.EncodeToString(result.Audio),
		Format:        audioFormat(result.MIMEType),
		Voice:         result.Voice,
		OutputType:    result.OutputType,
		ProcessedText: result.ProcessedText,
		Model:         result.SpeechModel,
		ChatModel:     result.ChatModel,
	})
}

// TextToSpeechStream handles POST /audio/text-to-speech/stream. The audio
// is written as the raw response body.
func (h *AudioHandler) TextToSpeechStream(w http.ResponseWriter, r *http.Request) {
	result, ok := h.synthesize(w, r)
	if !ok {
		return
	}
	mimeType := result.MIMEType
	if mimeType == "" {
		mimeType = defaultAudioMIMEType
	}
	w.Header().Set("Content-Disposition", `inline; filename="speech.`+audioFormat(mimeType)+`"`)
	shared.RespondWithBytes(w, r, http.StatusOK, mimeType, result.Audio)
}

func (h *AudioHandler) synthesize(w http.ResponseWriter, r *http.Request) (*generation.SpeechResult, bool) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return nil, false
	}
	var req SpeechRequest
	if !decodeAndValidate(w, r, &req) {
		return nil, false
	}

	voice, known := generation.ParseVoice(req.Voice)
	if !known {
		HandleAPIError(w, r, domain.NewValidationError("voice", "is not a supported voice", nil), "")
		return nil, false
	}
	outputType := generation.SpeechOutput(req.OutputType)
	if outputType == "" {
		outputType = generation.SpeechFullText
	}

	op := generation.TextToSpeech{
		Text:         req.Text,
		OutputType:   outputType,
		SummaryWords: req.SummaryWordCount,
		Voice:        voice,
		Speed:        req.Speed,
		ChatModel:    req.ChatModel,
		UserID:       userID,
	}
	result, err := h.generation.Synthesize(r.Context(), op, req.Model)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to synthesize speech")
		return nil, false
	}

	logFor(r, h.logger, "text_to_speech").Debug("speech synthesized",
		slog.String("model", result.SpeechModel),
		slog.Int("bytes", len(result.Audio)))
	return result, true
}

// SpeechToText handles POST /audio/speech-to-text, a multipart form with an
// "audio" file part. The transcript can feed a summary or flashcards.
func (h *AudioHandler) SpeechToText(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	audio, err := shared.ReadFormFile(r, "audio", h.maxAudioBytes)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	form, err := parseTranscriptionForm(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if !validate(w, r, form) {
		return
	}

	op := generation.SpeechToText{
		Audio:     audio.Data,
		Filename:  audio.Filename,
		Language:  form.Language,
		Prompt:    form.Prompt,
		Action:    generation.TranscriptionAction(form.Action),
		DeckID:    derefUUID(form.DeckID),
		Count:     form.FlashcardCount,
		ChatModel: form.ChatModel,
		UserID:    userID,
	}
	if op.Action == "" {
		op.Action = generation.ActionTranscriptionOnly
	}

	result, err := h.generation.Transcribe(r.Context(), op, form.Model)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to transcribe audio")
		return
	}

	resp := TranscriptionResponse{
		TranscribedText:  result.Text,
		DetectedLanguage: result.Language,
		Model:            result.Model,
		ActionPerformed:  string(result.Action),
		Summary:          result.Summary,
	}
	if result.Flashcards != nil {
		resp.Flashcards = result.Flashcards.Cards
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

func parseTranscriptionForm(r *http.Request) (*TranscriptionForm, error) {
	deckID, err := formUUID(r, "deckId")
	if err != nil {
		return nil, err
	}
	count, err := formInt(r, "flashcardCount", 0)
	if err != nil {
		return nil, err
	}
	return &TranscriptionForm{
		Language:       r.FormValue("language"),
		Prompt:         r.FormValue("prompt"),
		Action:         strings.ToUpper(strings.TrimSpace(r.FormValue("action"))),
		DeckID:         deckID,
		FlashcardCount: count,
		Model:          r.FormValue("model"),
		ChatModel:      r.FormValue("chatModel"),
	}, nil
}

// audioFormat maps an audio MIME type to its file extension.
func audioFormat(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "", "audio/mpeg", "audio/mp3":
		return "mp3"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return "wav"
	case "audio/ogg", "audio/opus":
		return "opus"
	case "audio/aac":
		return "aac"
	case "audio/flac", "audio/x-flac":
		return "flac"
	default:
		_, sub, found := strings.Cut(mimeType, "/")
		if !found {
			return "mp3"
		}
		return sub
	}
}
