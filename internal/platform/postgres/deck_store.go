package postgres

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/cardforge/internal/domain"
	"github.com/phrazzld/cardforge/internal/store"
)

// PostgresDeckStore implements the store.DeckStore interface
// using a PostgreSQL database as the storage backend.
type PostgresDeckStore struct {
	db     store.Querier
	logger *slog.Logger
}

// NewPostgresDeckStore creates a new PostgreSQL implementation of the DeckStore interface.
// It accepts a pool or transaction that is initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresDeckStore(db store.Querier, logger *slog.Logger) *PostgresDeckStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDeckStore{
		db:     db,
		logger: logger.With(slog.String("component", "deck_store")),
	}
}

// Ensure PostgresDeckStore implements store.DeckStore interface
var _ store.DeckStore = (*PostgresDeckStore)(nil)

// GetByID implements store.DeckStore.GetByID.
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	var deck domain.Deck
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, name, COALESCE(description, ''), created_at, updated_at
		FROM decks
		WHERE id = $1`, id).
		Scan(&deck.ID, &deck.UserID, &deck.Name, &deck.Description, &deck.CreatedAt, &deck.UpdatedAt)
	if err != nil {
		if IsNotFoundError(err) {
			s.logger.DebugContext(ctx, "deck not found", slog.String("deck_id", id.String()))
			return nil, store.ErrDeckNotFound
		}
		s.logger.ErrorContext(ctx, "failed to get deck",
			slog.String("deck_id", id.String()),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("deck", "get", "query failed", MapError(err))
	}

	return &deck, nil
}
