package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cardforge/internal/domain"
	"github.com/phrazzld/cardforge/internal/generation"
	"github.com/phrazzld/cardforge/internal/service"
)

// Request payloads. The caller's user ID always comes from the access
// token, never from the body.

// GenerateTextRequest is the payload of POST /ai/flashcards/generate-text.
type GenerateTextRequest struct {
	DeckID *uuid.UUID `json:"deckId"`
	Text   string     `json:"text"   validate:"required,min=50,max=100000"`
	Count  int        `json:"count"  validate:"gte=1,lte=30"`
	Model  string     `json:"model"  validate:"max=100"`
}

// GeneratePromptRequest is the payload of POST /ai/flashcards/generate-prompt.
type GeneratePromptRequest struct {
	DeckID *uuid.UUID `json:"deckId"`
	Prompt string     `json:"prompt" validate:"required,min=10,max=2000"`
	Topic  string     `json:"topic"  validate:"max=100"`
	Count  int        `json:"count"  validate:"gte=0,lte=30"`
	Model  string     `json:"model"  validate:"max=100"`
}

// GenerateImageForm holds the form fields of POST /ai/flashcards/generate-image.
// The image itself is the multipart part named "image".
type GenerateImageForm struct {
	DeckID *uuid.UUID
	Prompt string `validate:"max=1000"`
	Count  int    `validate:"gte=0,lte=20"`
	Model  string `validate:"max=100"`
}

// SummaryRequest is the payload of POST /ai/summary/generate.
type SummaryRequest struct {
	SourceType   string      `json:"sourceType"   validate:"required,oneof=TEXT PROMPT DECK FLASHCARDS"`
	DeckID       *uuid.UUID  `json:"deckId"`
	FlashcardIDs []uuid.UUID `json:"flashcardIds" validate:"max=500"`
	Text         string      `json:"text"         validate:"max=100000"`
	Prompt       string      `json:"prompt"       validate:"max=1000"`
	Format       string      `json:"format"       validate:"omitempty,oneof=PARAGRAPH BULLET_POINTS NUMBERED_LIST OUTLINE MARKDOWN"`
	Length       string      `json:"length"       validate:"omitempty,oneof=SHORT MEDIUM LONG DETAILED"`
	Model        string      `json:"model"        validate:"max=100"`
}

// ImagesRequest is the payload of POST /ai/images/generate.
type ImagesRequest struct {
	Description string `json:"description" validate:"required,max=1000"`
	Model       string `json:"model"       validate:"max=100"`
	Size        string `json:"size"        validate:"max=20"`
	Quality     string `json:"quality"     validate:"max=20"`
	Count       int    `json:"count"       validate:"gte=0,lte=10"`
	Style       string `json:"style"       validate:"max=20"`
}

// SpeechRequest is the payload of the text-to-speech endpoints.
type SpeechRequest struct {
	Text             string  `json:"text"             validate:"required,max=10000"`
	OutputType       string  `json:"outputType"       validate:"omitempty,oneof=FULL_TEXT SUMMARY"`
	Voice            string  `json:"voice"            validate:"max=20"`
	Speed            float64 `json:"speed"            validate:"omitempty,gte=0.25,lte=4"`
	SummaryWordCount int     `json:"summaryWordCount" validate:"gte=0,lte=2000"`
	Model            string  `json:"model"            validate:"max=100"`
	ChatModel        string  `json:"chatModel"        validate:"max=100"`
}

// TranscriptionForm holds the form fields of POST /audio/speech-to-text.
// The audio is the multipart part named "audio".
type TranscriptionForm struct {
	Language       string `validate:"max=10"`
	Prompt         string `validate:"max=1000"`
	Action         string `validate:"omitempty,oneof=TRANSCRIPTION_ONLY SUMMARY FLASHCARDS"`
	DeckID         *uuid.UUID
	FlashcardCount int    `validate:"gte=0,lte=30"`
	Model          string `validate:"max=100"`
	ChatModel      string `validate:"max=100"`
}

// Response payloads

// ModelsResponse lists the model catalog.
type ModelsResponse struct {
	Models []service.ModelStatus `json:"models"`
}

// FlashcardsResponse is returned by the flashcard generation endpoints.
type FlashcardsResponse struct {
	Flashcards []domain.DraftFlashcard `json:"flashcards"`
	// Saved holds the stored cards when the request asked to save them.
	Saved     []domain.Flashcard `json:"saved,omitempty"`
	ModelUsed string             `json:"modelUsed"`
	Dropped   int                `json:"dropped"`
	Cached    bool               `json:"cached"`
}

// ImagesResponse is returned by POST /ai/images/generate.
type ImagesResponse struct {
	Images              []GeneratedImage `json:"images"`
	ModelUsed           string           `json:"modelUsed"`
	OriginalDescription string           `json:"originalDescription"`
	Width               int              `json:"width"`
	Height              int              `json:"height"`
	GeneratedAt         time.Time        `json:"generatedAt"`
	GenerationTimeMs    int64            `json:"generationTimeMs"`
}

// GeneratedImage is one generated image, either as a URL or inline base64.
type GeneratedImage struct {
	URL           string `json:"url,omitempty"`
	B64JSON       string `json:"b64Json,omitempty"`
	MIMEType      string `json:"mimeType,omitempty"`
	RevisedPrompt string `json:"revisedPrompt,omitempty"`
}

// SpeechResponse is returned by POST /audio/text-to-speech. AudioData is
// base64 encoded.
type SpeechResponse struct {
	AudioData     string                  `json:"audioData"`
	Format        string                  `json:"format"`
	Voice         generation.Voice        `json:"voice"`
	OutputType    generation.SpeechOutput `json:"outputType"`
	ProcessedText string                  `json:"processedText"`
	Model         string                  `json:"model"`
	ChatModel     string                  `json:"chatModel,omitempty"`
}

// TranscriptionResponse is returned by POST /audio/speech-to-text.
type TranscriptionResponse struct {
	TranscribedText  string                    `json:"transcribedText"`
	DetectedLanguage string                    `json:"detectedLanguage,omitempty"`
	Model            string                    `json:"model"`
	ActionPerformed  string                    `json:"actionPerformed"`
	Summary          *generation.SummaryResult `json:"summary,omitempty"`
	Flashcards       []domain.DraftFlashcard   `json:"flashcards,omitempty"`
}
