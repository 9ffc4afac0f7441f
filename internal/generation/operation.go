package generation

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cardforge/internal/domain"
	"github.com/phrazzld/cardforge/internal/provider"
)

// Kind names an operation variant.
type Kind string

const (
	KindTextToFlashcards   Kind = "TEXT_TO_FLASHCARDS"
	KindPromptToFlashcards Kind = "PROMPT_TO_FLASHCARDS"
	KindImageToFlashcards  Kind = "IMAGE_TO_FLASHCARDS"
	KindContentToSummary   Kind = "CONTENT_TO_SUMMARY"
	KindTextToSpeech       Kind = "TEXT_TO_SPEECH"
	KindSpeechToText       Kind = "SPEECH_TO_TEXT"
	KindTextToImage        Kind = "TEXT_TO_IMAGE"
)

// Operation is one of the fixed set of AI operations. The set is closed:
// only the types in this package implement it.
type Operation interface {
	Kind() Kind
	operation()
}

// TextToFlashcards generates flashcards from source text.
type TextToFlashcards struct {
	Text   string    `json:"text"`
	Count  int       `json:"count"`
	DeckID uuid.UUID `json:"deckId"`
	UserID uuid.UUID `json:"userId"`
}

// PromptToFlashcards generates flashcards from a free-form instruction.
type PromptToFlashcards struct {
	Prompt string    `json:"prompt"`
	Topic  string    `json:"topic,omitempty"`
	Count  int       `json:"count"`
	DeckID uuid.UUID `json:"deckId"`
	UserID uuid.UUID `json:"userId"`
}

// ImageToFlashcards generates flashcards from an image. It requires a
// vision-capable model.
type ImageToFlashcards struct {
	Image    []byte    `json:"image"`
	MIMEType string    `json:"mimeType,omitempty"`
	Prompt   string    `json:"prompt,omitempty"`
	Count    int       `json:"count"`
	DeckID   uuid.UUID `json:"deckId"`
	UserID   uuid.UUID `json:"userId"`
}

// SourceType selects where a summary's content comes from.
type SourceType string

const (
	SourceText       SourceType = "TEXT"
	SourcePrompt     SourceType = "PROMPT"
	SourceDeck       SourceType = "DECK"
	SourceFlashcards SourceType = "FLASHCARDS"
)

// SummaryFormat is the layout of a generated summary.
type SummaryFormat string

const (
	FormatParagraph    SummaryFormat = "PARAGRAPH"
	FormatBulletPoints SummaryFormat = "BULLET_POINTS"
	FormatNumberedList SummaryFormat = "NUMBERED_LIST"
	FormatOutline      SummaryFormat = "OUTLINE"
	FormatMarkdown     SummaryFormat = "MARKDOWN"
)

// SummaryLength is the target size of a generated summary.
type SummaryLength string

const (
	LengthShort    SummaryLength = "SHORT"
	LengthMedium   SummaryLength = "MEDIUM"
	LengthLong     SummaryLength = "LONG"
	LengthDetailed SummaryLength = "DETAILED"
)

// Words returns the target word count of l.
func (l SummaryLength) Words() int {
	switch l {
	case LengthShort:
		return 100
	case LengthLong:
		return 500
	case LengthDetailed:
		return 1000
	default:
		return 250
	}
}

// ContentToSummary summarizes text, a prompt, a deck or a set of flashcards.
type ContentToSummary struct {
	SourceType   SourceType    `json:"sourceType"`
	Text         string        `json:"text,omitempty"`
	Prompt       string        `json:"prompt,omitempty"`
	DeckID       uuid.UUID     `json:"deckId,omitempty"`
	FlashcardIDs []uuid.UUID   `json:"flashcardIds,omitempty"`
	Format       SummaryFormat `json:"format,omitempty"`
	Length       SummaryLength `json:"length,omitempty"`
	// WordTarget overrides Length's word count when positive.
	WordTarget int       `json:"wordTarget,omitempty"`
	UserID     uuid.UUID `json:"userId"`
}

// SpeechOutput selects what TextToSpeech speaks.
type SpeechOutput string

const (
	SpeechFullText SpeechOutput = "FULL_TEXT"
	SpeechSummary  SpeechOutput = "SUMMARY"
)

// Voice is a synthesis voice.
type Voice string

const (
	VoiceAlloy   Voice = "ALLOY"
	VoiceEcho    Voice = "ECHO"
	VoiceFable   Voice = "FABLE"
	VoiceOnyx    Voice = "ONYX"
	VoiceNova    Voice = "NOVA"
	VoiceShimmer Voice = "SHIMMER"
)

var voices = []Voice{VoiceAlloy, VoiceEcho, VoiceFable, VoiceOnyx, VoiceNova, VoiceShimmer}

// TextToSpeech synthesizes speech, optionally from a summary of the text.
type TextToSpeech struct {
	Text         string       `json:"text"`
	OutputType   SpeechOutput `json:"outputType,omitempty"`
	SummaryWords int          `json:"summaryWords,omitempty"`
	Voice        Voice        `json:"voice,omitempty"`
	Speed        float64      `json:"speed,omitempty"`
	// ChatModel overrides the summarization model.
	ChatModel string    `json:"chatModel,omitempty"`
	UserID    uuid.UUID `json:"userId"`
}

// TranscriptionAction selects what happens after transcription.
type TranscriptionAction string

const (
	ActionTranscriptionOnly TranscriptionAction = "TRANSCRIPTION_ONLY"
	ActionSummary           TranscriptionAction = "SUMMARY"
	ActionFlashcards        TranscriptionAction = "FLASHCARDS"
)

// SpeechToText transcribes audio and optionally feeds the transcript into
// the summary or flashcard pipeline.
type SpeechToText struct {
	Audio    []byte              `json:"audio"`
	Filename string              `json:"filename,omitempty"`
	Language string              `json:"language,omitempty"`
	Prompt   string              `json:"prompt,omitempty"`
	Action   TranscriptionAction `json:"action,omitempty"`
	DeckID   uuid.UUID           `json:"deckId,omitempty"`
	Count    int                 `json:"count,omitempty"`
	// ChatModel overrides the model of the follow-up stage.
	ChatModel string    `json:"chatModel,omitempty"`
	UserID    uuid.UUID `json:"userId"`
}

// TextToImage generates images from a description.
type TextToImage struct {
	Description string    `json:"description"`
	Count       int       `json:"count,omitempty"`
	Size        string    `json:"size,omitempty"`
	Quality     string    `json:"quality,omitempty"`
	Style       string    `json:"style,omitempty"`
	UserID      uuid.UUID `json:"userId"`
}

func (TextToFlashcards) Kind() Kind   { return KindTextToFlashcards }
func (PromptToFlashcards) Kind() Kind { return KindPromptToFlashcards }
func (ImageToFlashcards) Kind() Kind  { return KindImageToFlashcards }
func (ContentToSummary) Kind() Kind   { return KindContentToSummary }
func (TextToSpeech) Kind() Kind       { return KindTextToSpeech }
func (SpeechToText) Kind() Kind       { return KindSpeechToText }
func (TextToImage) Kind() Kind        { return KindTextToImage }

func (TextToFlashcards) operation()   {}
func (PromptToFlashcards) operation() {}
func (ImageToFlashcards) operation()  {}
func (ContentToSummary) operation()   {}
func (TextToSpeech) operation()       {}
func (SpeechToText) operation()       {}
func (TextToImage) operation()        {}

// Result is the typed outcome of an Operation.
type Result interface {
	result()
}

// FlashcardsResult is returned by the flashcard operations.
type FlashcardsResult struct {
	Cards    []domain.DraftFlashcard `json:"cards"`
	Model    string                  `json:"model"`
	Dropped  int                     `json:"dropped"`
	Attempts []AttemptOutcome        `json:"-"`
}

// SummaryResult is returned by ContentToSummary.
type SummaryResult struct {
	Summary          string           `json:"summary"`
	Format           SummaryFormat    `json:"format"`
	Length           SummaryLength    `json:"length"`
	WordCount        int              `json:"wordCount"`
	Model            string           `json:"modelUsed"`
	SourceType       SourceType       `json:"sourceType"`
	DeckID           *uuid.UUID       `json:"deckId,omitempty"`
	FlashcardCount   int              `json:"flashcardCount,omitempty"`
	GeneratedAt      time.Time        `json:"generatedAt"`
	GenerationTimeMs int64            `json:"generationTimeMs"`
	Attempts         []AttemptOutcome `json:"-"`
}

// SpeechResult is returned by TextToSpeech.
type SpeechResult struct {
	Audio         []byte       `json:"audio"`
	MIMEType      string       `json:"mimeType"`
	ProcessedText string       `json:"processedText"`
	OutputType    SpeechOutput `json:"outputType"`
	Voice         Voice        `json:"voice"`
	SpeechModel   string       `json:"speechModel"`
	// ChatModel is set when the text was summarized first.
	ChatModel string `json:"chatModel,omitempty"`
}

// TranscriptionResult is returned by SpeechToText. Summary or Flashcards is
// set according to the requested action.
type TranscriptionResult struct {
	Text       string              `json:"text"`
	Language   string              `json:"language,omitempty"`
	Model      string              `json:"model"`
	Action     TranscriptionAction `json:"action"`
	Summary    *SummaryResult      `json:"summary,omitempty"`
	Flashcards *FlashcardsResult   `json:"flashcards,omitempty"`
}

// ImagesResult is returned by TextToImage.
type ImagesResult struct {
	Images []provider.GeneratedImage `json:"images"`
	Prompt string                    `json:"prompt"`
	Width  int                       `json:"width"`
	Height int                       `json:"height"`
	Model  string                    `json:"model"`
}

func (*FlashcardsResult) result()    {}
func (*SummaryResult) result()       {}
func (*SpeechResult) result()        {}
func (*TranscriptionResult) result() {}
func (*ImagesResult) result()        {}

// ParseVoice maps a voice name in any case to a Voice. Empty selects ALLOY.
func ParseVoice(s string) (Voice, bool) {
	if strings.TrimSpace(s) == "" {
		return VoiceAlloy, true
	}
	v := Voice(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range voices {
		if v == known {
			return v, true
		}
	}
	return "", false
}
