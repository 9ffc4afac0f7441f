package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/cardforge/internal/domain"
	"github.com/phrazzld/cardforge/internal/generation"
	"github.com/phrazzld/cardforge/internal/store"
)

// storeContentSource serves stored flashcards to summaries, enforcing ownership.
type storeContentSource struct {
	decks store.DeckStore
	cards store.FlashcardStore
}

var _ generation.ContentSource = (*storeContentSource)(nil)

// NewContentSource returns a generation.ContentSource backed by the stores.
func NewContentSource(decks store.DeckStore, cards store.FlashcardStore) generation.ContentSource {
	return &storeContentSource{decks: decks, cards: cards}
}

// DeckFlashcards returns the cards of a deck owned by userID.
func (s *storeContentSource) DeckFlashcards(ctx context.Context, userID, deckID uuid.UUID) ([]domain.Flashcard, error) {
	if err := checkDeckOwner(ctx, s.decks, userID, deckID); err != nil {
		return nil, err
	}
	return s.cards.ListByDeck(ctx, deckID)
}

// Flashcards returns the requested cards. Every card must belong to userID.
func (s *storeContentSource) Flashcards(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]domain.Flashcard, error) {
	cards, err := s.cards.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, card := range cards {
		if card.UserID != userID {
			return nil, fmt.Errorf("%w: flashcard %s", ErrNotOwned, card.ID)
		}
	}
	return cards, nil
}

// checkDeckOwner returns store.ErrDeckNotFound for a missing deck and
// ErrNotOwned for a deck of another user.
func checkDeckOwner(ctx context.Context, decks store.DeckStore, userID, deckID uuid.UUID) error {
	deck, err := decks.GetByID(ctx, deckID)
	if err != nil {
		return err
	}
	if !deck.OwnedBy(userID) {
		return fmt.Errorf("%w: deck %s", ErrNotOwned, deckID)
	}
	return nil
}
