package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/cardforge/internal/domain"
)

// DeckStore defines the interface for deck data persistence.
type DeckStore interface {
	// GetByID retrieves a deck by its unique ID.
	// Returns ErrDeckNotFound if the deck does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error)
}

// FlashcardStore defines the interface for flashcard data persistence.
type FlashcardStore interface {
	// CreateMany saves cards atomically: either all cards are stored or none.
	// Returns ErrInvalidEntity wrapped errors if a card fails validation or
	// references a deck that does not exist.
	CreateMany(ctx context.Context, cards []*domain.Flashcard) error

	// ListByDeck returns the cards of a deck ordered by creation time.
	// An empty deck yields an empty slice, not an error.
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]domain.Flashcard, error)

	// GetByIDs returns the cards with the given IDs in the order requested.
	// Returns ErrFlashcardNotFound if any ID does not exist.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Flashcard, error)
}
