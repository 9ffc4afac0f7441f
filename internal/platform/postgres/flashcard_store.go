package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/phrazzld/cardforge/internal/domain"
	"github.com/phrazzld/cardforge/internal/store"
)

const flashcardColumns = `id, deck_id, user_id, front, back, COALESCE(hint, ''), tags, difficulty, created_at, updated_at`

// PostgresFlashcardStore implements the store.FlashcardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresFlashcardStore struct {
	db     store.Querier
	logger *slog.Logger
}

// NewPostgresFlashcardStore creates a new PostgreSQL implementation of the FlashcardStore interface.
// When db is a pool, CreateMany opens its own transaction. When db is already
// a transaction, the inserts join it.
func NewPostgresFlashcardStore(db store.Querier, logger *slog.Logger) *PostgresFlashcardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresFlashcardStore{
		db:     db,
		logger: logger.With(slog.String("component", "flashcard_store")),
	}
}

// Ensure PostgresFlashcardStore implements store.FlashcardStore interface
var _ store.FlashcardStore = (*PostgresFlashcardStore)(nil)

// CreateMany implements store.FlashcardStore.CreateMany.
func (s *PostgresFlashcardStore) CreateMany(ctx context.Context, cards []*domain.Flashcard) error {
	if len(cards) == 0 {
		return nil
	}

	for i, card := range cards {
		if card == nil {
			return fmt.Errorf("%w: flashcard %d is nil", store.ErrInvalidEntity, i)
		}
		if err := card.Validate(); err != nil {
			return fmt.Errorf("%w: flashcard %d: %v", store.ErrInvalidEntity, i, err)
		}
	}

	insert := func(ctx context.Context, q store.Querier) error {
		for _, card := range cards {
			if err := insertFlashcard(ctx, q, card); err != nil {
				return err
			}
		}
		return nil
	}

	var err error
	if txq, ok := s.db.(store.TxQuerier); ok {
		err = store.RunInTransaction(ctx, txq, func(ctx context.Context, tx pgx.Tx) error {
			return insert(ctx, tx)
		})
	} else {
		err = insert(ctx, s.db)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create flashcards",
			slog.Int("count", len(cards)),
			slog.String("error", err.Error()))
		return err
	}

	s.logger.DebugContext(ctx, "flashcards created", slog.Int("count", len(cards)))
	return nil
}

func insertFlashcard(ctx context.Context, q store.Querier, card *domain.Flashcard) error {
	front, err := json.Marshal(card.Front)
	if err != nil {
		return fmt.Errorf("%w: encode front: %v", store.ErrInvalidEntity, err)
	}
	back, err := json.Marshal(card.Back)
	if err != nil {
		return fmt.Errorf("%w: encode back: %v", store.ErrInvalidEntity, err)
	}

	tags := card.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err = q.Exec(ctx, `
		INSERT INTO flashcards (id, deck_id, user_id, front, back, hint, tags, difficulty, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10)`,
		card.ID, card.DeckID, card.UserID, front, back, card.Hint, tags,
		string(card.Difficulty), card.CreatedAt, card.UpdatedAt,
	)
	if err != nil {
		return MapError(err)
	}
	return nil
}

// ListByDeck implements store.FlashcardStore.ListByDeck.
func (s *PostgresFlashcardStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]domain.Flashcard, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+flashcardColumns+` FROM flashcards WHERE deck_id = $1 ORDER BY created_at, id`, deckID)
	if err != nil {
		return nil, store.NewStoreError("flashcard", "list", "query failed", MapError(err))
	}

	cards, err := scanFlashcards(rows)
	if err != nil {
		return nil, store.NewStoreError("flashcard", "list", "scan failed", err)
	}
	return cards, nil
}

// GetByIDs implements store.FlashcardStore.GetByIDs.
func (s *PostgresFlashcardStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Flashcard, error) {
	if len(ids) == 0 {
		return []domain.Flashcard{}, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+flashcardColumns+` FROM flashcards WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, store.NewStoreError("flashcard", "get", "query failed", MapError(err))
	}

	found, err := scanFlashcards(rows)
	if err != nil {
		return nil, store.NewStoreError("flashcard", "get", "scan failed", err)
	}

	byID := make(map[uuid.UUID]domain.Flashcard, len(found))
	for _, card := range found {
		byID[card.ID] = card
	}

	cards := make([]domain.Flashcard, 0, len(ids))
	for _, id := range ids {
		card, ok := byID[id]
		if !ok {
			s.logger.DebugContext(ctx, "flashcard not found", slog.String("flashcard_id", id.String()))
			return nil, fmt.Errorf("%w: %s", store.ErrFlashcardNotFound, id)
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func scanFlashcards(rows pgx.Rows) ([]domain.Flashcard, error) {
	defer rows.Close()

	cards := []domain.Flashcard{}
	for rows.Next() {
		var (
			card        domain.Flashcard
			front, back []byte
			difficulty  string
		)
		if err := rows.Scan(
			&card.ID, &card.DeckID, &card.UserID, &front, &back, &card.Hint,
			&card.Tags, &difficulty, &card.CreatedAt, &card.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(front, &card.Front); err != nil {
			return nil, fmt.Errorf("decode front of %s: %w", card.ID, err)
		}
		if err := json.Unmarshal(back, &card.Back); err != nil {
			return nil, fmt.Errorf("decode back of %s: %w", card.ID, err)
		}
		card.Difficulty = domain.ParseDifficulty(difficulty)
		cards = append(cards, card)
	}
	return cards, rows.Err()
}
