package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/phrazzld/cardforge/internal/domain"
	"github.com/phrazzld/cardforge/internal/provider"
)

// Default models per operation, as catalog ids.
const (
	defaultFlashcardModel  = "gpt-4o-mini"
	defaultVisionModel     = "gpt-4o"
	defaultSummaryModel    = "gpt-4o-mini"
	defaultSpeechModel     = "tts-1"
	defaultTranscribeModel = "whisper-1"
	defaultImageModel      = "dall-e-3"
)

const (
	defaultTopic            = "General"
	defaultImageInstruction = "Analyze the image content"
	defaultTranscriptCards  = 5
	defaultImageSize        = "1024x1024"
	maxImageDescription     = 1000
	maxImagesPerRequest     = 4
	imagePromptPrefix       = "Educational diagram or illustration: "
	speechMIMEType          = "audio/mpeg"
	speechFormat            = "mp3"
	minSpeechSpeed          = 0.25
	maxSpeechSpeed          = 4.0
)

const systemPrompt = "You are an expert educator who writes precise, well-structured study material."

var imageMIMETypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// request is the provider-agnostic input of one call. Only the field of the
// operation's call shape is set.
type request struct {
	Messages []provider.Message
	Prompt   string
	Text     string
	Audio    []byte

	// cardCount is the number of stored flashcards a summary was built from.
	cardCount int
}

// defaultModel returns the catalog id used when the caller names no model.
func defaultModel(op Operation) string {
	switch op.(type) {
	case TextToFlashcards, PromptToFlashcards:
		return defaultFlashcardModel
	case ImageToFlashcards:
		return defaultVisionModel
	case ContentToSummary:
		return defaultSummaryModel
	case TextToSpeech:
		return defaultSpeechModel
	case SpeechToText:
		return defaultTranscribeModel
	case TextToImage:
		return defaultImageModel
	default:
		return ""
	}
}

// requiresVision reports whether the operation sends image input to a chat model.
func requiresVision(op Operation) bool {
	switch op.(type) {
	case ImageToFlashcards:
		return true
	default:
		return false
	}
}

// validateInput rejects structurally invalid requests before any provider call.
func validateInput(op Operation, limits Limits) error {
	switch v := op.(type) {
	case TextToFlashcards:
		if strings.TrimSpace(v.Text) == "" {
			return invalid("text", "is required")
		}
		if len(v.Text) > limits.MaxTextLength {
			return invalid("text", fmt.Sprintf("must not exceed %d characters", limits.MaxTextLength))
		}
		return validateCount(v.Count, limits)

	case PromptToFlashcards:
		if strings.TrimSpace(v.Prompt) == "" {
			return invalid("prompt", "is required")
		}
		if len(v.Prompt) > limits.MaxTextLength {
			return invalid("prompt", fmt.Sprintf("must not exceed %d characters", limits.MaxTextLength))
		}
		return validateCount(v.Count, limits)

	case ImageToFlashcards:
		if len(v.Image) == 0 {
			return invalid("image", "is required")
		}
		if int64(len(v.Image)) > limits.MaxImageBytes {
			return invalid("image", fmt.Sprintf("must not exceed %d bytes", limits.MaxImageBytes))
		}
		if !isImage(v.Image) {
			return invalid("image", "must be a PNG, JPEG, GIF or WebP image")
		}
		return validateCount(v.Count, limits)

	case ContentToSummary:
		return validateSummary(v)

	case TextToSpeech:
		if strings.TrimSpace(v.Text) == "" {
			return invalid("text", "is required")
		}
		if len(v.Text) > limits.MaxSpeechTextLength {
			return invalid("text", fmt.Sprintf("must not exceed %d characters", limits.MaxSpeechTextLength))
		}
		switch v.OutputType {
		case "", SpeechFullText, SpeechSummary:
		default:
			return invalid("outputType", fmt.Sprintf("unknown output type %q", v.OutputType))
		}
		if _, ok := ParseVoice(string(v.Voice)); !ok {
			return invalid("voice", fmt.Sprintf("unknown voice %q", v.Voice))
		}
		if v.Speed != 0 && (v.Speed < minSpeechSpeed || v.Speed > maxSpeechSpeed) {
			return invalid("speed", fmt.Sprintf("must be between %.2f and %.1f", minSpeechSpeed, maxSpeechSpeed))
		}
		if v.SummaryWords < 0 {
			return invalid("summaryWords", "must not be negative")
		}
		return nil

	case SpeechToText:
		if len(v.Audio) == 0 {
			return invalid("audio", "is required")
		}
		if int64(len(v.Audio)) > limits.MaxAudioBytes {
			return invalid("audio", fmt.Sprintf("must not exceed %d bytes", limits.MaxAudioBytes))
		}
		if !isAudio(v.Audio) {
			return invalid("audio", "must be an audio file")
		}
		switch v.Action {
		case "", ActionTranscriptionOnly, ActionSummary:
		case ActionFlashcards:
			if v.DeckID == uuid.Nil {
				return invalid("deckId", "is required to generate flashcards")
			}
			if v.Count != 0 {
				return validateCount(v.Count, limits)
			}
		default:
			return invalid("action", fmt.Sprintf("unknown action %q", v.Action))
		}
		return nil

	case TextToImage:
		if strings.TrimSpace(v.Description) == "" {
			return invalid("description", "is required")
		}
		if len(v.Description) > maxImageDescription {
			return invalid("description", fmt.Sprintf("must not exceed %d characters", maxImageDescription))
		}
		if v.Count < 0 || v.Count > maxImagesPerRequest {
			return invalid("count", fmt.Sprintf("must be between 1 and %d", maxImagesPerRequest))
		}
		if v.Size != "" {
			if _, _, err := parseSize(v.Size); err != nil {
				return invalid("size", err.Error())
			}
		}
		switch strings.ToLower(v.Quality) {
		case "", "standard", "hd":
		default:
			return invalid("quality", "must be standard or hd")
		}
		switch strings.ToLower(v.Style) {
		case "", "vivid", "natural":
		default:
			return invalid("style", "must be vivid or natural")
		}
		return nil

	default:
		return fmt.Errorf("%w: %w: %T", ErrValidation, errUnknownOperation, op)
	}
}

func validateCount(count int, limits Limits) error {
	if count < 1 {
		return invalid("count", "must be at least 1")
	}
	if count > limits.MaxFlashcardsPerRequest {
		return invalid("count", fmt.Sprintf("must not exceed %d", limits.MaxFlashcardsPerRequest))
	}
	return nil
}

func validateSummary(v ContentToSummary) error {
	switch v.SourceType {
	case SourceText:
		if strings.TrimSpace(v.Text) == "" {
			return invalid("text", "is required for TEXT source")
		}
	case SourcePrompt:
		if strings.TrimSpace(v.Prompt) == "" {
			return invalid("prompt", "is required for PROMPT source")
		}
	case SourceDeck:
		if v.DeckID == uuid.Nil {
			return invalid("deckId", "is required for DECK source")
		}
	case SourceFlashcards:
		if len(v.FlashcardIDs) == 0 {
			return invalid("flashcardIds", "are required for FLASHCARDS source")
		}
	default:
		return invalid("sourceType", fmt.Sprintf("unknown source type %q", v.SourceType))
	}

	switch v.Format {
	case "", FormatParagraph, FormatBulletPoints, FormatNumberedList, FormatOutline, FormatMarkdown:
	default:
		return invalid("format", fmt.Sprintf("unknown format %q", v.Format))
	}
	switch v.Length {
	case "", LengthShort, LengthMedium, LengthLong, LengthDetailed:
	default:
		return invalid("length", fmt.Sprintf("unknown length %q", v.Length))
	}
	if v.WordTarget < 0 {
		return invalid("wordTarget", "must not be negative")
	}
	return nil
}

// buildRequest renders the provider-agnostic request of op.
func (o *Orchestrator) buildRequest(ctx context.Context, op Operation) (request, error) {
	switch v := op.(type) {
	case TextToFlashcards:
		text, err := o.prompts.flashcards("text", v.Count, v.Text, "")
		if err != nil {
			return request{}, err
		}
		return request{Messages: chatMessages(text, nil)}, nil

	case PromptToFlashcards:
		topic := strings.TrimSpace(v.Topic)
		if topic == "" {
			topic = defaultTopic
		}
		text, err := o.prompts.flashcards("prompt", v.Count, v.Prompt, topic)
		if err != nil {
			return request{}, err
		}
		return request{Messages: chatMessages(text, nil)}, nil

	case ImageToFlashcards:
		instruction := strings.TrimSpace(v.Prompt)
		if instruction == "" {
			instruction = defaultImageInstruction
		}
		text, err := o.prompts.flashcards("image", v.Count, instruction, "")
		if err != nil {
			return request{}, err
		}
		mime := v.MIMEType
		if mime == "" {
			mime = mimetype.Detect(v.Image).String()
		}
		return request{Messages: chatMessages(text, []provider.ImagePart{{MIMEType: mime, Data: v.Image}})}, nil

	case ContentToSummary:
		source, cards, err := o.summarySource(ctx, v)
		if err != nil {
			return request{}, err
		}
		words := v.Length.Words()
		if v.WordTarget > 0 {
			words = v.WordTarget
		}
		instructions := ""
		if v.SourceType != SourcePrompt {
			instructions = strings.TrimSpace(v.Prompt)
		}
		text, err := o.prompts.summary(v.Format, v.Length, words, instructions, source)
		if err != nil {
			return request{}, err
		}
		return request{Messages: chatMessages(text, nil), cardCount: cards}, nil

	case TextToSpeech:
		return request{Text: v.Text}, nil

	case SpeechToText:
		return request{Audio: v.Audio}, nil

	case TextToImage:
		return request{Prompt: imagePromptPrefix + strings.TrimSpace(v.Description)}, nil

	default:
		return request{}, fmt.Errorf("%w: %T", errUnknownOperation, op)
	}
}

func chatMessages(text string, images []provider.ImagePart) []provider.Message {
	return []provider.Message{
		{Role: provider.RoleSystem, Text: systemPrompt},
		{Role: provider.RoleUser, Text: text, Images: images},
	}
}

// summarySource returns the text to summarize and, for stored content, the
// number of flashcards it was built from.
func (o *Orchestrator) summarySource(ctx context.Context, v ContentToSummary) (string, int, error) {
	switch v.SourceType {
	case SourceText:
		return o.toMarkdown(ctx, v.Text), 0, nil
	case SourcePrompt:
		return v.Prompt, 0, nil
	case SourceDeck, SourceFlashcards:
		if o.content == nil {
			return "", 0, ErrNoContentSource
		}
		var (
			cards []domain.Flashcard
			err   error
		)
		if v.SourceType == SourceDeck {
			cards, err = o.content.DeckFlashcards(ctx, v.UserID, v.DeckID)
		} else {
			cards, err = o.content.Flashcards(ctx, v.UserID, v.FlashcardIDs)
		}
		if err != nil {
			return "", 0, fmt.Errorf("failed to load summary content: %w", err)
		}
		if len(cards) == 0 {
			return "", 0, invalid("source", "contains no flashcards")
		}
		return renderFlashcards(cards), len(cards), nil
	default:
		return "", 0, invalid("sourceType", fmt.Sprintf("unknown source type %q", v.SourceType))
	}
}

// toMarkdown converts HTML source text to markdown. Other text is returned unchanged.
func (o *Orchestrator) toMarkdown(ctx context.Context, text string) string {
	if !mimetype.Detect([]byte(text)).Is("text/html") {
		return text
	}
	md, err := htmltomarkdown.ConvertString(text)
	if err != nil {
		o.logger.DebugContext(ctx, "html conversion failed, summarizing raw text",
			slog.String("error", err.Error()))
		return text
	}
	return md
}

func renderFlashcards(cards []domain.Flashcard) string {
	var b strings.Builder
	for i, c := range cards {
		fmt.Fprintf(&b, "Flashcard %d\nQ: %s\nA: %s\n", i+1, renderSide(c.Front), renderSide(c.Back))
		if c.Hint != "" {
			fmt.Fprintf(&b, "Hint: %s\n", c.Hint)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func renderSide(s domain.CardSide) string {
	parts := make([]string, 0, 1+len(s.CodeBlocks))
	if s.Text != "" {
		parts = append(parts, s.Text)
	}
	for _, cb := range s.CodeBlocks {
		parts = append(parts, fmt.Sprintf("```%s\n%s\n```", cb.Language, cb.Code))
	}
	return strings.Join(parts, "\n")
}

func isImage(data []byte) bool {
	detected := mimetype.Detect(data)
	for _, t := range imageMIMETypes {
		if detected.Is(t) {
			return true
		}
	}
	return false
}

func isAudio(data []byte) bool {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		s := m.String()
		if strings.HasPrefix(s, "audio/") || s == "video/webm" || s == "video/mp4" {
			return true
		}
	}
	return false
}

// parseSize parses "WxH".
func parseSize(size string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(size)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q must look like 1024x1024", size)
	}
	width, errW := strconv.Atoi(w)
	height, errH := strconv.Atoi(h)
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("size %q must look like 1024x1024", size)
	}
	return width, height, nil
}
