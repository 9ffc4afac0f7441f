package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/cardforge/internal/domain"
	"github.com/phrazzld/cardforge/internal/generation"
	"github.com/stretchr/testify/mock"
)

// MockDeckStore mocks the store.DeckStore interface
type MockDeckStore struct {
	mock.Mock
}

func (m *MockDeckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Deck), args.Error(1)
}

// MockFlashcardStore mocks the store.FlashcardStore interface
type MockFlashcardStore struct {
	mock.Mock
}

func (m *MockFlashcardStore) CreateMany(ctx context.Context, cards []*domain.Flashcard) error {
	args := m.Called(ctx, cards)
	return args.Error(0)
}

func (m *MockFlashcardStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]domain.Flashcard, error) {
	args := m.Called(ctx, deckID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flashcard), args.Error(1)
}

func (m *MockFlashcardStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Flashcard, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flashcard), args.Error(1)
}

// MockPipeline mocks the Pipeline interface
type MockPipeline struct {
	mock.Mock
}

func (m *MockPipeline) Run(ctx context.Context, op generation.Operation, model string) (generation.Result, error) {
	args := m.Called(ctx, op, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(generation.Result), args.Error(1)
}
