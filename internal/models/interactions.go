package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemView records one view of an item by a user. Views are append-only and never
// deduplicated; repeat views accumulate.
type ItemView struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ItemID    uuid.UUID `json:"item_id"`
	CreatedAt time.Time `json:"created_at"`
}

// UserCategoryPreference is the per-user, per-category affinity score.
// At most one row exists per (user, category); the score starts at 1.0 on the
// first view of a category and grows by 1.0 per view. Scores never decay.
type UserCategoryPreference struct {
	UserID   uuid.UUID `json:"user_id"`
	Category string    `json:"category"`
	Score    float64   `json:"score"`
}

// CategoryViewCount pairs a category with how many times the user viewed items in it.
type CategoryViewCount struct {
	Category string `json:"category"`
	Views    int64  `json:"views"`
}

// TrackItemViewRequest represents the request to record an item view.
type TrackItemViewRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}
