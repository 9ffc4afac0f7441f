package api

import (
	"context"

	"github.com/phrazzld/cardforge/internal/generation"
	"github.com/phrazzld/cardforge/internal/service"
)

// MockGenerationService implements service.GenerationService for testing.
// Unset functions return nil results and a nil error.
type MockGenerationService struct {
	ModelsFn             func(ctx context.Context) []service.ModelStatus
	GenerateFlashcardsFn func(ctx context.Context, op generation.Operation, model string, save bool) (*service.FlashcardsOutcome, error)
	SummarizeFn          func(ctx context.Context, op generation.ContentToSummary, model string) (*generation.SummaryResult, error)
	SynthesizeFn         func(ctx context.Context, op generation.TextToSpeech, model string) (*generation.SpeechResult, error)
	TranscribeFn         func(ctx context.Context, op generation.SpeechToText, model string) (*generation.TranscriptionResult, error)
	GenerateImagesFn     func(ctx context.Context, op generation.TextToImage, model string) (*generation.ImagesResult, error)
}

var _ service.GenerationService = (*MockGenerationService)(nil)

// Models implements service.GenerationService.
func (m *MockGenerationService) Models(ctx context.Context) []service.ModelStatus {
	if m.ModelsFn != nil {
		return m.ModelsFn(ctx)
	}
	return nil
}

// GenerateFlashcards implements service.GenerationService.
func (m *MockGenerationService) GenerateFlashcards(
	ctx context.Context,
	op generation.Operation,
	model string,
	save bool,
) (*service.FlashcardsOutcome, error) {
	if m.GenerateFlashcardsFn != nil {
		return m.GenerateFlashcardsFn(ctx, op, model, save)
	}
	return nil, nil
}

// Summarize implements service.GenerationService.
func (m *MockGenerationService) Summarize(
	ctx context.Context,
	op generation.ContentToSummary,
	model string,
) (*generation.SummaryResult, error) {
	if m.SummarizeFn != nil {
		return m.SummarizeFn(ctx, op, model)
	}
	return nil, nil
}

// Synthesize implements service.GenerationService.
func (m *MockGenerationService) Synthesize(
	ctx context.Context,
	op generation.TextToSpeech,
	model string,
) (*generation.SpeechResult, error) {
	if m.SynthesizeFn != nil {
		return m.SynthesizeFn(ctx, op, model)
	}
	return nil, nil
}

// Transcribe implements service.GenerationService.
func (m *MockGenerationService) Transcribe(
	ctx context.Context,
	op generation.SpeechToText,
	model string,
) (*generation.TranscriptionResult, error) {
	if m.TranscribeFn != nil {
		return m.TranscribeFn(ctx, op, model)
	}
	return nil, nil
}

// GenerateImages implements service.GenerationService.
func (m *MockGenerationService) GenerateImages(
	ctx context.Context,
	op generation.TextToImage,
	model string,
) (*generation.ImagesResult, error) {
	if m.GenerateImagesFn != nil {
		return m.GenerateImagesFn(ctx, op, model)
	}
	return nil, nil
}
