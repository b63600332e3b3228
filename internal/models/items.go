package models

import (
	"time"

	"github.com/google/uuid"
)

// Item represents a marketplace listing.
// Category is a free-form optional tag; it is the only taxonomy signal.
// Embedding is produced from the title and description at create/edit time and
// is nil for listings that have not been embedded.
type Item struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    *string   `json:"category,omitempty"`
	Price       float64   `json:"price"`
	SellerID    uuid.UUID `json:"seller_id"`
	Embedding   []float32 `json:"-"`
}

// ItemWithScore is an item paired with its semantic similarity score (0..1)
// for search results. Keyword-only matches carry a zero score.
type ItemWithScore struct {
	Item  Item    `json:"item"`
	Score float64 `json:"score"`
}

// CreateItemRequest represents the request to create an item.
type CreateItemRequest struct {
	Title       string    `json:"title" validate:"required,min=1,max=255"`
	Description string    `json:"description" validate:"max=5000"`
	Category    *string   `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	Price       float64   `json:"price" validate:"gte=0"`
	SellerID    uuid.UUID `json:"seller_id" validate:"required"`
}

// UpdateItemRequest represents the request to update an item.
// Only provided fields are changed; a title or description change re-embeds the listing.
type UpdateItemRequest struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
}

// ListItemsFilters represents filters for browsing the catalog.
type ListItemsFilters struct {
	Category *string    `form:"category" validate:"omitempty,min=1,max=100"`
	SellerID *uuid.UUID `form:"seller_id"`
	Search   *string    `form:"search" validate:"omitempty,max=255"`
	SortBy   string     `form:"sort_by" validate:"omitempty,oneof=newest oldest price_low price_high"`
	Limit    int        `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset   int        `form:"offset" validate:"omitempty,min=0"`
}

// ListItemsResponse represents the response for listing items.
type ListItemsResponse struct {
	Data   []Item `json:"data"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}
