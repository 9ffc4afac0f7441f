// Package testdb provides a migrated PostgreSQL database for integration
// tests. Tests are skipped when no database URL is configured, except on CI
// where a missing database is a failure.
package testdb

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phrazzld/cardforge/internal/domain"
	"github.com/phrazzld/cardforge/internal/platform/postgres"
	"github.com/phrazzld/cardforge/internal/store"
	"github.com/stretchr/testify/require"
)

// Environment variables read by URL, in order of precedence.
const (
	EnvTestDatabaseURL = "CARDFORGE_TEST_DATABASE_URL"
	EnvDatabaseURL     = "DATABASE_URL"
)

// Timeout bounds the setup of the test database.
const Timeout = 30 * time.Second

var ciVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}

// URL returns the configured test database URL, or "".
func URL() string {
	if u := os.Getenv(EnvTestDatabaseURL); u != "" {
		return u
	}
	return os.Getenv(EnvDatabaseURL)
}

// IsCI reports whether the tests run on a CI provider.
func IsCI() bool {
	for _, name := range ciVars {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// Open connects to the test database and applies the migrations. The pool
// is closed when the test ends.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := URL()
	if url == "" {
		if IsCI() {
			t.Fatalf("%s or %s must be set on CI", EnvTestDatabaseURL, EnvDatabaseURL)
		}
		t.Skipf("integration test: %s not set", EnvTestDatabaseURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err, "failed to create pool")
	t.Cleanup(pool.Close)

	require.NoError(t, pool.Ping(ctx), "failed to reach test database")
	require.NoError(t, postgres.Migrate(ctx, pool, nil), "failed to migrate test database")
	return pool
}

// WithTx runs fn in a transaction that is always rolled back, isolating
// the test's writes.
func WithTx(t *testing.T, pool *pgxpool.Pool, fn func(ctx context.Context, tx pgx.Tx)) {
	t.Helper()

	ctx := context.Background()
	tx, err := pool.Begin(ctx)
	require.NoError(t, err, "failed to begin transaction")
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			t.Errorf("failed to roll back test transaction: %v", err)
		}
	}()

	fn(ctx, tx)
}

// CreateDeck inserts a deck owned by userID.
func CreateDeck(t *testing.T, ctx context.Context, q store.Querier, userID uuid.UUID, name string) *domain.Deck {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	deck := &domain.Deck{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := q.Exec(ctx,
		`INSERT INTO decks (id, user_id, name, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		deck.ID, deck.UserID, deck.Name, deck.CreatedAt, deck.UpdatedAt)
	require.NoError(t, err, "failed to insert deck")
	return deck
}
