package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/phrazzld/cardforge/internal/catalog"
	"github.com/phrazzld/cardforge/internal/domain"
	"github.com/phrazzld/cardforge/internal/parser"
	"github.com/phrazzld/cardforge/internal/provider"
	"github.com/phrazzld/cardforge/internal/selector"
)

// ContentSource loads stored flashcards for deck and flashcard summaries.
// Implementations must only return content owned by userID.
type ContentSource interface {
	DeckFlashcards(ctx context.Context, userID, deckID uuid.UUID) ([]domain.Flashcard, error)
	Flashcards(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]domain.Flashcard, error)
}

// Orchestrator executes operations against the configured providers. It
// holds no mutable state and is safe for concurrent use.
type Orchestrator struct {
	selector *selector.Selector
	catalog  *catalog.Catalog
	parser   *parser.Parser
	prompts  *prompts
	content  ContentSource
	cfg      Config
	logger   *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithContentSource enables DECK and FLASHCARDS summaries.
func WithContentSource(cs ContentSource) Option {
	return func(o *Orchestrator) {
		o.content = cs
	}
}

// NewOrchestrator creates an Orchestrator. Unknown fallback models are
// reported in the log and skipped at call time.
func NewOrchestrator(sel *selector.Selector, cfg Config, l *slog.Logger, opts ...Option) (*Orchestrator, error) {
	if sel == nil {
		return nil, errors.New("selector cannot be nil")
	}
	if l == nil {
		l = slog.Default()
	}

	p, err := loadPrompts()
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		selector: sel,
		catalog:  sel.Catalog(),
		parser:   parser.New(l),
		prompts:  p,
		cfg:      cfg,
		logger:   l.With(slog.String("component", "orchestrator")),
	}
	for _, opt := range opts {
		opt(o)
	}

	for _, ref := range cfg.Fallback.Models {
		if _, err := o.catalog.Resolve(ref); err != nil {
			o.logger.Warn("fallback model is not in the catalog", slog.String("model", ref))
		}
	}
	return o, nil
}

// Run executes op, dispatching on its variant.
func (o *Orchestrator) Run(ctx context.Context, op Operation, model string) (Result, error) {
	switch v := op.(type) {
	case TextToFlashcards:
		return asResult[*FlashcardsResult](o.GenerateFromText(ctx, v, model))
	case PromptToFlashcards:
		return asResult[*FlashcardsResult](o.GenerateFromPrompt(ctx, v, model))
	case ImageToFlashcards:
		return asResult[*FlashcardsResult](o.GenerateFromImage(ctx, v, model))
	case ContentToSummary:
		return asResult[*SummaryResult](o.Summarize(ctx, v, model))
	case TextToSpeech:
		return asResult[*SpeechResult](o.Synthesize(ctx, v, model))
	case SpeechToText:
		return asResult[*TranscriptionResult](o.Transcribe(ctx, v, model))
	case TextToImage:
		return asResult[*ImagesResult](o.GenerateImages(ctx, v, model))
	default:
		return nil, fmt.Errorf("%w: %w: %T", ErrValidation, errUnknownOperation, op)
	}
}

// asResult returns a nil Result for a failed call.
func asResult[T Result](r T, err error) (Result, error) {
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GenerateFromText generates flashcards from source text.
func (o *Orchestrator) GenerateFromText(ctx context.Context, op TextToFlashcards, model string) (*FlashcardsResult, error) {
	return o.generateFlashcards(ctx, op, model, op.Count, op.DeckID, op.UserID)
}

// GenerateFromPrompt generates flashcards from an instruction.
func (o *Orchestrator) GenerateFromPrompt(ctx context.Context, op PromptToFlashcards, model string) (*FlashcardsResult, error) {
	return o.generateFlashcards(ctx, op, model, op.Count, op.DeckID, op.UserID)
}

// GenerateFromImage generates flashcards from an image with a vision model.
func (o *Orchestrator) GenerateFromImage(ctx context.Context, op ImageToFlashcards, model string) (*FlashcardsResult, error) {
	return o.generateFlashcards(ctx, op, model, op.Count, op.DeckID, op.UserID)
}

func (o *Orchestrator) generateFlashcards(
	ctx context.Context,
	op Operation,
	model string,
	count int,
	deckID, userID uuid.UUID,
) (*FlashcardsResult, error) {
	if err := validateInput(op, o.cfg.Limits); err != nil {
		return nil, err
	}
	primary, err := o.resolveModel(model, defaultModel(op))
	if err != nil {
		return nil, err
	}
	req, err := o.buildRequest(ctx, op)
	if err != nil {
		return nil, err
	}

	parse := func(ctx context.Context, raw string) (parser.Batch, error) {
		return o.parser.ParseFlashcards(ctx, raw, count)
	}
	batch, attempts, err := execute(ctx, o, primary, chatAdapter(o, req.Messages, requiresVision(op), parse))
	if err != nil {
		o.logFailure(ctx, op, err)
		return nil, err
	}

	for i := range batch.Cards {
		batch.Cards[i].DeckID = deckID
		batch.Cards[i].UserID = userID
	}

	used := attempts[len(attempts)-1].Model
	o.logger.InfoContext(ctx, "flashcards generated",
		slog.String("operation", string(op.Kind())),
		slog.String("model", used),
		slog.Int("requested", count),
		slog.Int("generated", len(batch.Cards)),
		slog.Int("attempts", len(attempts)))

	return &FlashcardsResult{
		Cards:    batch.Cards,
		Model:    used,
		Dropped:  batch.Dropped,
		Attempts: attempts,
	}, nil
}

// Summarize summarizes text, a prompt, a deck or a set of flashcards.
func (o *Orchestrator) Summarize(ctx context.Context, op ContentToSummary, model string) (*SummaryResult, error) {
	start := time.Now()
	if err := validateInput(op, o.cfg.Limits); err != nil {
		return nil, err
	}
	if op.Format == "" {
		op.Format = FormatParagraph
	}
	if op.Length == "" {
		op.Length = LengthMedium
	}

	primary, err := o.resolveModel(model, defaultModel(op))
	if err != nil {
		return nil, err
	}
	req, err := o.buildRequest(ctx, op)
	if err != nil {
		return nil, err
	}

	parse := func(_ context.Context, raw string) (string, error) {
		summary := parser.CleanSummary(raw)
		if summary == "" {
			return "", fmt.Errorf("%w: empty summary", provider.ErrEmptyResponse)
		}
		return summary, nil
	}
	summary, attempts, err := execute(ctx, o, primary, chatAdapter(o, req.Messages, false, parse))
	if err != nil {
		o.logFailure(ctx, op, err)
		return nil, err
	}

	res := &SummaryResult{
		Summary:          summary,
		Format:           op.Format,
		Length:           op.Length,
		WordCount:        parser.CountWords(summary),
		Model:            attempts[len(attempts)-1].Model,
		SourceType:       op.SourceType,
		FlashcardCount:   req.cardCount,
		GeneratedAt:      time.Now().UTC(),
		GenerationTimeMs: time.Since(start).Milliseconds(),
		Attempts:         attempts,
	}
	if op.SourceType == SourceDeck {
		deckID := op.DeckID
		res.DeckID = &deckID
	}
	return res, nil
}

// Synthesize converts text to speech. With SUMMARY output the text is first
// summarized by a chat model and the summary is spoken.
func (o *Orchestrator) Synthesize(ctx context.Context, op TextToSpeech, model string) (*SpeechResult, error) {
	if err := validateInput(op, o.cfg.Limits); err != nil {
		return nil, err
	}
	voice, _ := ParseVoice(string(op.Voice))
	if op.OutputType == "" {
		op.OutputType = SpeechFullText
	}
	if op.Speed == 0 {
		op.Speed = 1.0
	}
	if op.SummaryWords == 0 {
		op.SummaryWords = LengthMedium.Words()
	}

	primary, err := o.resolveModel(model, defaultModel(op))
	if err != nil {
		return nil, err
	}
	speech := speechAdapter("", provider.SpeechOptions{})
	if err := speech.check(primary); err != nil {
		return nil, err
	}

	res := &SpeechResult{OutputType: op.OutputType, Voice: voice, MIMEType: speechMIMEType}
	text := op.Text
	if op.OutputType == SpeechSummary {
		summary, err := o.Summarize(ctx, ContentToSummary{
			SourceType: SourceText,
			Text:       op.Text,
			Format:     FormatParagraph,
			Length:     LengthMedium,
			WordTarget: op.SummaryWords,
			UserID:     op.UserID,
		}, op.ChatModel)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize text for speech: %w", err)
		}
		text = truncate(summary.Summary, o.cfg.Limits.MaxSpeechTextLength)
		res.ChatModel = summary.Model
	}

	req, err := o.buildRequest(ctx, TextToSpeech{Text: text})
	if err != nil {
		return nil, err
	}
	audio, attempts, err := execute(ctx, o, primary, speechAdapter(req.Text, provider.SpeechOptions{
		Voice:  strings.ToLower(string(voice)),
		Speed:  op.Speed,
		Format: speechFormat,
	}))
	if err != nil {
		o.logFailure(ctx, op, err)
		return nil, err
	}

	res.Audio = audio
	res.ProcessedText = text
	res.SpeechModel = attempts[len(attempts)-1].Model
	return res, nil
}

// Transcribe converts speech to text and runs the requested follow-up.
func (o *Orchestrator) Transcribe(ctx context.Context, op SpeechToText, model string) (*TranscriptionResult, error) {
	if err := validateInput(op, o.cfg.Limits); err != nil {
		return nil, err
	}
	if op.Action == "" {
		op.Action = ActionTranscriptionOnly
	}
	language := strings.TrimSpace(op.Language)
	if strings.EqualFold(language, "auto") {
		language = ""
	}
	filename := op.Filename
	if filename == "" {
		filename = "audio" + mimetype.Detect(op.Audio).Extension()
	}

	primary, err := o.resolveModel(model, defaultModel(op))
	if err != nil {
		return nil, err
	}
	req, err := o.buildRequest(ctx, op)
	if err != nil {
		return nil, err
	}

	text, attempts, err := execute(ctx, o, primary, transcriptionAdapter(req.Audio, provider.TranscriptionOptions{
		Filename: filename,
		Language: language,
		Prompt:   op.Prompt,
	}))
	if err != nil {
		o.logFailure(ctx, op, err)
		return nil, err
	}

	res := &TranscriptionResult{
		Text:     strings.TrimSpace(text),
		Language: language,
		Model:    attempts[len(attempts)-1].Model,
		Action:   op.Action,
	}

	switch op.Action {
	case ActionSummary:
		summary, err := o.Summarize(ctx, ContentToSummary{
			SourceType: SourceText,
			Text:       res.Text,
			Format:     FormatParagraph,
			Length:     LengthMedium,
			UserID:     op.UserID,
		}, op.ChatModel)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize transcript: %w", err)
		}
		res.Summary = summary
	case ActionFlashcards:
		count := op.Count
		if count == 0 {
			count = min(defaultTranscriptCards, o.cfg.Limits.MaxFlashcardsPerRequest)
		}
		cards, err := o.GenerateFromText(ctx, TextToFlashcards{
			Text:   res.Text,
			Count:  count,
			DeckID: op.DeckID,
			UserID: op.UserID,
		}, op.ChatModel)
		if err != nil {
			return nil, fmt.Errorf("failed to generate flashcards from transcript: %w", err)
		}
		res.Flashcards = cards
	}
	return res, nil
}

// GenerateImages generates educational images from a description.
func (o *Orchestrator) GenerateImages(ctx context.Context, op TextToImage, model string) (*ImagesResult, error) {
	if err := validateInput(op, o.cfg.Limits); err != nil {
		return nil, err
	}
	if op.Count == 0 {
		op.Count = 1
	}
	if op.Size == "" {
		op.Size = defaultImageSize
	}
	width, height, _ := parseSize(op.Size)

	primary, err := o.resolveModel(model, defaultModel(op))
	if err != nil {
		return nil, err
	}
	req, err := o.buildRequest(ctx, op)
	if err != nil {
		return nil, err
	}

	images, attempts, err := execute(ctx, o, primary, imageAdapter(req.Prompt, provider.ImageOptions{
		Count:   op.Count,
		Size:    fmt.Sprintf("%dx%d", width, height),
		Quality: strings.ToLower(op.Quality),
		Style:   strings.ToLower(op.Style),
	}))
	if err != nil {
		o.logFailure(ctx, op, err)
		return nil, err
	}

	return &ImagesResult{
		Images: images,
		Prompt: req.Prompt,
		Width:  width,
		Height: height,
		Model:  attempts[len(attempts)-1].Model,
	}, nil
}

// resolveModel returns the requested model, or fallback when none is named.
// An unknown name is a validation failure, never a silent default.
func (o *Orchestrator) resolveModel(requested, fallback string) (catalog.Model, error) {
	ref := strings.TrimSpace(requested)
	if ref == "" {
		ref = fallback
	}
	m, err := o.catalog.Resolve(ref)
	if err != nil {
		return catalog.Model{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return m, nil
}

func (o *Orchestrator) logFailure(ctx context.Context, op Operation, err error) {
	attrs := []any{
		slog.String("operation", string(op.Kind())),
		slog.String("error", err.Error()),
	}
	var all *AllProvidersError
	if errors.As(err, &all) {
		attrs = append(attrs, slog.Int("attempts", len(all.Attempts)))
	}
	o.logger.ErrorContext(ctx, "operation failed", attrs...)
}

// truncate cuts s to at most n bytes at a word boundary.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := s[:n]
	if i := strings.LastIndexAny(cut, " \n\t"); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}
