package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusmarket/marketplace/internal/models"
)

// InteractionsRepository handles data access for item views and category preferences.
type InteractionsRepository struct {
	db *pgxpool.Pool
}

// NewInteractionsRepository creates a new interactions repository.
func NewInteractionsRepository(db *pgxpool.Pool) *InteractionsRepository {
	return &InteractionsRepository{db: db}
}

// TrackItemView records a view of itemID by userID and bumps the (user, category)
// affinity score when the item exists and has a category. Both writes happen in
// one transaction so a failure leaves no half-applied state. A missing item or a
// category-less item still gets its view recorded; the preference step is skipped.
func (r *InteractionsRepository) TrackItemView(ctx context.Context, userID, itemID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin track view transaction: %w", err)
	}

	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO item_views (id, user_id, item_id, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.Must(uuid.NewV7()), userID, itemID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert item view: %w", err)
	}

	var category *string

	err = tx.QueryRow(ctx, `SELECT category FROM items WHERE id = $1`, itemID).Scan(&category)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to look up item category: %w", err)
	}

	if category != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO user_category_preferences (user_id, category, score)
			VALUES ($1, $2, 1.0)
			ON CONFLICT (user_id, category)
			DO UPDATE SET score = user_category_preferences.score + 1.0`,
			userID, *category,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert category preference: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit track view transaction: %w", err)
	}

	return nil
}

// TopViewedCategories returns the user's most-viewed categories ranked by view
// count descending, capped at limit. Views of category-less items are excluded.
func (r *InteractionsRepository) TopViewedCategories(
	ctx context.Context, userID uuid.UUID, limit int,
) ([]models.CategoryViewCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT i.category, COUNT(v.id) AS cnt
		FROM item_views v
		INNER JOIN items i ON i.id = v.item_id
		WHERE v.user_id = $1 AND i.category IS NOT NULL
		GROUP BY i.category
		ORDER BY COUNT(v.id) DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top viewed categories: %w", err)
	}
	defer rows.Close()

	var counts []models.CategoryViewCount

	for rows.Next() {
		var c models.CategoryViewCount
		if err := rows.Scan(&c.Category, &c.Views); err != nil {
			return nil, fmt.Errorf("failed to scan category view count: %w", err)
		}

		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top viewed categories: %w", err)
	}

	return counts, nil
}

// GetPreferenceScore returns the affinity score for (user, category), or 0 when
// no preference row exists.
func (r *InteractionsRepository) GetPreferenceScore(ctx context.Context, userID uuid.UUID, category string) (float64, error) {
	var score float64

	err := r.db.QueryRow(ctx,
		`SELECT score FROM user_category_preferences WHERE user_id = $1 AND category = $2`,
		userID, category,
	).Scan(&score)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}

		return 0, fmt.Errorf("failed to get preference score: %w", err)
	}

	return score, nil
}
