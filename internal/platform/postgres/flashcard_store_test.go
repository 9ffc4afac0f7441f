package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/phrazzld/cardforge/internal/domain"
	"github.com/phrazzld/cardforge/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var flashcardColumnNames = []string{
	"id", "deck_id", "user_id", "front", "back", "hint", "tags", "difficulty", "created_at", "updated_at",
}

func newTestFlashcard(t *testing.T, deckID, userID uuid.UUID, front string) *domain.Flashcard {
	t.Helper()
	card, err := domain.NewFlashcard(domain.DraftFlashcard{
		DeckID:     deckID,
		UserID:     userID,
		Front:      domain.CardSide{Text: front, Type: domain.ContentTextOnly},
		Back:       domain.CardSide{Text: "answer to " + front, Type: domain.ContentTextOnly},
		Tags:       []string{"go"},
		Difficulty: domain.DifficultyMedium,
	})
	require.NoError(t, err)
	return card
}

func flashcardRow(t *testing.T, card *domain.Flashcard) []any {
	t.Helper()
	front, err := json.Marshal(card.Front)
	require.NoError(t, err)
	back, err := json.Marshal(card.Back)
	require.NoError(t, err)
	return []any{
		card.ID, card.DeckID, card.UserID, front, back, card.Hint, card.Tags,
		string(card.Difficulty), card.CreatedAt, card.UpdatedAt,
	}
}

func insertArgs() []any {
	args := make([]any, 10)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestPostgresFlashcardStore_CreateMany(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	deckID, userID := uuid.New(), uuid.New()
	cards := []*domain.Flashcard{
		newTestFlashcard(t, deckID, userID, "What is a goroutine?"),
		newTestFlashcard(t, deckID, userID, "What is a channel?"),
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO flashcards").WithArgs(insertArgs()...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO flashcards").WithArgs(insertArgs()...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err = NewPostgresFlashcardStore(mock, nil).CreateMany(context.Background(), cards)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFlashcardStore_CreateMany_RollsBackOnConstraintViolation(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	deckID, userID := uuid.New(), uuid.New()
	cards := []*domain.Flashcard{
		newTestFlashcard(t, deckID, userID, "first"),
		newTestFlashcard(t, deckID, userID, "second"),
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO flashcards").WithArgs(insertArgs()...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO flashcards").WithArgs(insertArgs()...).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "flashcards_deck_id_fkey"})
	mock.ExpectRollback()

	err = NewPostgresFlashcardStore(mock, nil).CreateMany(context.Background(), cards)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFlashcardStore_CreateMany_InvalidCardSkipsDatabase(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	card := newTestFlashcard(t, uuid.New(), uuid.New(), "front")
	card.Back = domain.CardSide{}

	err = NewPostgresFlashcardStore(mock, nil).CreateMany(context.Background(), []*domain.Flashcard{card})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)

	err = NewPostgresFlashcardStore(mock, nil).CreateMany(context.Background(), []*domain.Flashcard{nil})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)

	assert.NoError(t, NewPostgresFlashcardStore(mock, nil).CreateMany(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFlashcardStore_CreateMany_JoinsExistingTransaction(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// Hides Begin so the store treats the querier as an open transaction.
	txOnly := struct{ store.Querier }{mock}

	mock.ExpectExec("INSERT INTO flashcards").WithArgs(insertArgs()...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	card := newTestFlashcard(t, uuid.New(), uuid.New(), "front")
	err = NewPostgresFlashcardStore(txOnly, nil).CreateMany(context.Background(), []*domain.Flashcard{card})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFlashcardStore_ListByDeck(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	deckID, userID := uuid.New(), uuid.New()
	first := newTestFlashcard(t, deckID, userID, "first")
	second := newTestFlashcard(t, deckID, userID, "second")
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	mock.ExpectQuery("FROM flashcards WHERE deck_id").
		WithArgs(deckID).
		WillReturnRows(pgxmock.NewRows(flashcardColumnNames).
			AddRow(flashcardRow(t, first)...).
			AddRow(flashcardRow(t, second)...))

	cards, err := NewPostgresFlashcardStore(mock, nil).ListByDeck(context.Background(), deckID)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "first", cards[0].Front.Text)
	assert.Equal(t, "answer to second", cards[1].Back.Text)
	assert.Equal(t, domain.DifficultyMedium, cards[0].Difficulty)
	assert.Equal(t, []string{"go"}, cards[1].Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFlashcardStore_ListByDeck_Empty(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	deckID := uuid.New()
	mock.ExpectQuery("FROM flashcards WHERE deck_id").
		WithArgs(deckID).
		WillReturnRows(pgxmock.NewRows(flashcardColumnNames))

	cards, err := NewPostgresFlashcardStore(mock, nil).ListByDeck(context.Background(), deckID)
	require.NoError(t, err)
	assert.NotNil(t, cards)
	assert.Empty(t, cards)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFlashcardStore_GetByIDs_PreservesRequestOrder(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	deckID, userID := uuid.New(), uuid.New()
	a := newTestFlashcard(t, deckID, userID, "a")
	b := newTestFlashcard(t, deckID, userID, "b")

	ids := []uuid.UUID{b.ID, a.ID}
	mock.ExpectQuery("ANY").
		WithArgs(ids).
		WillReturnRows(pgxmock.NewRows(flashcardColumnNames).
			AddRow(flashcardRow(t, a)...).
			AddRow(flashcardRow(t, b)...))

	cards, err := NewPostgresFlashcardStore(mock, nil).GetByIDs(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, b.ID, cards[0].ID)
	assert.Equal(t, a.ID, cards[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFlashcardStore_GetByIDs_Missing(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	a := newTestFlashcard(t, uuid.New(), uuid.New(), "a")
	ids := []uuid.UUID{a.ID, uuid.New()}
	mock.ExpectQuery("ANY").
		WithArgs(ids).
		WillReturnRows(pgxmock.NewRows(flashcardColumnNames).AddRow(flashcardRow(t, a)...))

	_, err = NewPostgresFlashcardStore(mock, nil).GetByIDs(context.Background(), ids)
	assert.ErrorIs(t, err, store.ErrFlashcardNotFound)

	cards, err := NewPostgresFlashcardStore(mock, nil).GetByIDs(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, cards)
	assert.NoError(t, mock.ExpectationsWereMet())
}
