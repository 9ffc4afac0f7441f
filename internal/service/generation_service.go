package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cardforge/internal/catalog"
	"github.com/phrazzld/cardforge/internal/domain"
	"github.com/phrazzld/cardforge/internal/generation"
	"github.com/phrazzld/cardforge/internal/platform/logger"
	"github.com/phrazzld/cardforge/internal/store"
)

// Pipeline runs generation operations. *generation.Orchestrator implements it.
type Pipeline interface {
	Run(ctx context.Context, op generation.Operation, model string) (generation.Result, error)
}

// ModelDirectory lists catalog models and their availability.
// *selector.Selector implements it.
type ModelDirectory interface {
	Catalog() *catalog.Catalog
	IsAvailable(model catalog.Model) bool
}

// ModelStatus is a catalog model together with its availability.
type ModelStatus struct {
	catalog.Model
	Available bool `json:"available"`
}

// FlashcardsOutcome is the result of a flashcard generation request.
type FlashcardsOutcome struct {
	Result *generation.FlashcardsResult
	// Saved holds the persisted cards when saving was requested.
	Saved  []domain.Flashcard
	Cached bool
}

// GenerationService runs AI operations on behalf of an authenticated user.
type GenerationService interface {
	// Models lists every catalog model with its availability.
	Models(ctx context.Context) []ModelStatus

	// GenerateFlashcards runs a text, prompt or image flashcard operation.
	// When save is true the cards are stored in the operation's deck, which
	// must exist and belong to the caller.
	GenerateFlashcards(ctx context.Context, op generation.Operation, model string, save bool) (*FlashcardsOutcome, error)

	// Summarize runs a summary. Deck and flashcard sources are restricted to
	// content owned by the caller.
	Summarize(ctx context.Context, op generation.ContentToSummary, model string) (*generation.SummaryResult, error)

	// Synthesize converts text, or a summary of it, to speech.
	Synthesize(ctx context.Context, op generation.TextToSpeech, model string) (*generation.SpeechResult, error)

	// Transcribe converts speech to text and runs the requested follow-up.
	Transcribe(ctx context.Context, op generation.SpeechToText, model string) (*generation.TranscriptionResult, error)

	// GenerateImages creates images from a description.
	GenerateImages(ctx context.Context, op generation.TextToImage, model string) (*generation.ImagesResult, error)
}

// CacheConfig controls result caching.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Size    int
}

type generationServiceImpl struct {
	pipeline Pipeline
	models   ModelDirectory
	decks    store.DeckStore
	cards    store.FlashcardStore
	cache    *resultCache
	logger   *slog.Logger
}

var _ GenerationService = (*generationServiceImpl)(nil)

// NewGenerationService creates a GenerationService.
// It returns an error if any of the required dependencies are nil.
func NewGenerationService(
	pipeline Pipeline,
	models ModelDirectory,
	decks store.DeckStore,
	cards store.FlashcardStore,
	cache CacheConfig,
	logger *slog.Logger,
) (GenerationService, error) {
	if pipeline == nil {
		return nil, domain.NewValidationError("pipeline", "cannot be nil", domain.ErrValidation)
	}
	if models == nil {
		return nil, domain.NewValidationError("models", "cannot be nil", domain.ErrValidation)
	}
	if decks == nil {
		return nil, domain.NewValidationError("decks", "cannot be nil", domain.ErrValidation)
	}
	if cards == nil {
		return nil, domain.NewValidationError("cards", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &generationServiceImpl{
		pipeline: pipeline,
		models:   models,
		decks:    decks,
		cards:    cards,
		logger:   logger.With(slog.String("component", "generation_service")),
	}
	if cache.Enabled {
		s.cache = newResultCache(cache.Size, cache.TTL)
	}
	return s, nil
}

// Models implements GenerationService.Models.
func (s *generationServiceImpl) Models(ctx context.Context) []ModelStatus {
	models := s.models.Catalog().Models()
	out := make([]ModelStatus, len(models))
	for i, m := range models {
		out[i] = ModelStatus{Model: m, Available: s.models.IsAvailable(m)}
	}
	return out
}

// GenerateFlashcards implements GenerationService.GenerateFlashcards.
func (s *generationServiceImpl) GenerateFlashcards(
	ctx context.Context,
	op generation.Operation,
	model string,
	save bool,
) (*FlashcardsOutcome, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var deckID, userID uuid.UUID
	switch v := op.(type) {
	case generation.TextToFlashcards:
		deckID, userID = v.DeckID, v.UserID
	case generation.PromptToFlashcards:
		deckID, userID = v.DeckID, v.UserID
	case generation.ImageToFlashcards:
		deckID, userID = v.DeckID, v.UserID
	default:
		return nil, domain.NewValidationError("operation", fmt.Sprintf("%s does not produce flashcards", op.Kind()), nil)
	}

	if save && deckID == uuid.Nil {
		return nil, domain.NewValidationError("deckId", "is required to save flashcards", nil)
	}
	if deckID != uuid.Nil {
		if err := checkDeckOwner(ctx, s.decks, userID, deckID); err != nil {
			return nil, err
		}
	}

	r, cached, err := s.run(ctx, op, model)
	if err != nil {
		return nil, err
	}
	result := r.(*generation.FlashcardsResult)

	outcome := &FlashcardsOutcome{Result: result, Cached: cached}
	if !save {
		return outcome, nil
	}

	saved, err := s.save(ctx, result.Cards)
	if err != nil {
		return nil, err
	}
	outcome.Saved = saved

	log.Info("generated flashcards saved",
		slog.String("deck_id", deckID.String()),
		slog.Int("count", len(saved)))
	return outcome, nil
}

func (s *generationServiceImpl) save(ctx context.Context, drafts []domain.DraftFlashcard) ([]domain.Flashcard, error) {
	cards := make([]*domain.Flashcard, 0, len(drafts))
	for _, d := range drafts {
		card, err := domain.NewFlashcard(d)
		if err != nil {
			return nil, NewGenerationServiceError("save", "generated card is invalid", err)
		}
		cards = append(cards, card)
	}

	if err := s.cards.CreateMany(ctx, cards); err != nil {
		return nil, NewGenerationServiceError("save", "failed to store flashcards", err)
	}

	saved := make([]domain.Flashcard, len(cards))
	for i, c := range cards {
		saved[i] = *c
	}
	return saved, nil
}

// Summarize implements GenerationService.Summarize.
func (s *generationServiceImpl) Summarize(
	ctx context.Context,
	op generation.ContentToSummary,
	model string,
) (*generation.SummaryResult, error) {
	r, _, err := s.run(ctx, op, model)
	if err != nil {
		return nil, err
	}
	return r.(*generation.SummaryResult), nil
}

// Synthesize implements GenerationService.Synthesize.
func (s *generationServiceImpl) Synthesize(
	ctx context.Context,
	op generation.TextToSpeech,
	model string,
) (*generation.SpeechResult, error) {
	r, _, err := s.run(ctx, op, model)
	if err != nil {
		return nil, err
	}
	return r.(*generation.SpeechResult), nil
}

// Transcribe implements GenerationService.Transcribe.
func (s *generationServiceImpl) Transcribe(
	ctx context.Context,
	op generation.SpeechToText,
	model string,
) (*generation.TranscriptionResult, error) {
	if op.Action == generation.ActionFlashcards && op.DeckID != uuid.Nil {
		if err := checkDeckOwner(ctx, s.decks, op.UserID, op.DeckID); err != nil {
			return nil, err
		}
	}
	r, _, err := s.run(ctx, op, model)
	if err != nil {
		return nil, err
	}
	return r.(*generation.TranscriptionResult), nil
}

// GenerateImages implements GenerationService.GenerateImages.
func (s *generationServiceImpl) GenerateImages(
	ctx context.Context,
	op generation.TextToImage,
	model string,
) (*generation.ImagesResult, error) {
	r, _, err := s.run(ctx, op, model)
	if err != nil {
		return nil, err
	}
	return r.(*generation.ImagesResult), nil
}

// run executes op through the cache. Deck and flashcard summaries bypass
// the cache because their content changes without the request changing.
func (s *generationServiceImpl) run(
	ctx context.Context,
	op generation.Operation,
	model string,
) (generation.Result, bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	key, cacheable := "", s.cache != nil && cacheableOperation(op)
	if cacheable {
		key, cacheable = cacheKey(op, model)
	}
	if cacheable {
		if r, ok := s.cache.get(key); ok {
			log.Debug("generation cache hit", slog.String("operation", string(op.Kind())))
			return r, true, nil
		}
	}

	r, err := s.pipeline.Run(ctx, op, model)
	if err != nil {
		return nil, false, err
	}
	if r == nil {
		return nil, false, errors.New("pipeline returned no result")
	}

	if cacheable {
		s.cache.add(key, r)
	}
	return r, false, nil
}

func cacheableOperation(op generation.Operation) bool {
	if v, ok := op.(generation.ContentToSummary); ok {
		return v.SourceType != generation.SourceDeck && v.SourceType != generation.SourceFlashcards
	}
	return true
}
