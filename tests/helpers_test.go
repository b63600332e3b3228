// Package tests provides integration tests that exercise the repositories
// against a real PostgreSQL instance.
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// schema mirrors the production tables. item_views carries no foreign key to
// items: a view of a since-deleted item must still insert.
const schema = `
CREATE TABLE IF NOT EXISTS items (
	id uuid PRIMARY KEY,
	created_at timestamptz NOT NULL,
	updated_at timestamptz NOT NULL,
	title text NOT NULL,
	description text NOT NULL,
	category text,
	price double precision NOT NULL,
	seller_id uuid NOT NULL,
	embedding vector(3)
);

CREATE TABLE IF NOT EXISTS item_views (
	id uuid PRIMARY KEY,
	user_id uuid NOT NULL,
	item_id uuid NOT NULL,
	created_at timestamptz NOT NULL
);

CREATE TABLE IF NOT EXISTS user_category_preferences (
	user_id uuid NOT NULL,
	category text NOT NULL,
	score double precision NOT NULL,
	PRIMARY KEY (user_id, category)
);
`

// truncateAll resets the tables between tests. Trending ranks view counts
// globally, so leftover rows from another test would skew its ordering.
func truncateAll(t *testing.T) {
	t.Helper()

	_, err := testPool.Exec(context.Background(),
		"TRUNCATE items, item_views, user_category_preferences")
	require.NoError(t, err)
}

// insertItem inserts an item row directly so tests control created_at.
func insertItem(t *testing.T, category *string, price float64, sellerID uuid.UUID, createdAt time.Time) uuid.UUID {
	t.Helper()

	id := uuid.Must(uuid.NewV7())

	_, err := testPool.Exec(context.Background(), `
		INSERT INTO items (id, created_at, updated_at, title, description, category, price, seller_id, embedding)
		VALUES ($1, $2, $2, $3, $4, $5, $6, $7, NULL)`,
		id, createdAt, "Fixture item", "Fixture description", category, price, sellerID,
	)
	require.NoError(t, err)

	return id
}

func insertView(t *testing.T, userID, itemID uuid.UUID) {
	t.Helper()

	_, err := testPool.Exec(context.Background(),
		`INSERT INTO item_views (id, user_id, item_id, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.Must(uuid.NewV7()), userID, itemID, time.Now(),
	)
	require.NoError(t, err)
}

func countRows(t *testing.T, query string, args ...any) int {
	t.Helper()

	var n int

	require.NoError(t, testPool.QueryRow(context.Background(), query, args...).Scan(&n))

	return n
}

func strPtr(s string) *string {
	return &s
}
