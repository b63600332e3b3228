// Package repository provides data access for marketplace entities.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/campusmarket/marketplace/internal/markerrors"
	"github.com/campusmarket/marketplace/internal/models"
)

// errEmbeddingScanInvalidType is returned when Scan receives a type other than []byte.
var errEmbeddingScanInvalidType = errors.New("embedding: expected []byte")

// nullableEmbedding scans a vector column that may be NULL without panicking
// (pgvector.Vector.Scan panics on empty/NULL).
type nullableEmbedding []float32

func (n *nullableEmbedding) Scan(src any) error {
	if src == nil {
		*n = nil

		return nil
	}

	buf, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("%w: got %T", errEmbeddingScanInvalidType, src)
	}

	if len(buf) == 0 {
		*n = nil

		return nil
	}

	var vec pgvector.Vector

	if err := vec.DecodeBinary(buf); err != nil {
		return fmt.Errorf("embedding decode: %w", err)
	}

	*n = vec.Slice()

	return nil
}

// embeddingParam converts an embedding slice into a query argument, mapping nil to NULL.
func embeddingParam(embedding []float32) any {
	if embedding == nil {
		return nil
	}

	return pgvector.NewVector(embedding)
}

const itemColumns = `id, created_at, updated_at, title, description, category, price, seller_id, embedding`

// ItemsRepository handles data access for items.
type ItemsRepository struct {
	db *pgxpool.Pool
}

// NewItemsRepository creates a new items repository.
func NewItemsRepository(db *pgxpool.Pool) *ItemsRepository {
	return &ItemsRepository{db: db}
}

func scanItem(row pgx.Row) (*models.Item, error) {
	var item models.Item

	var emb nullableEmbedding

	err := row.Scan(
		&item.ID, &item.CreatedAt, &item.UpdatedAt,
		&item.Title, &item.Description, &item.Category, &item.Price, &item.SellerID,
		&emb,
	)
	if err != nil {
		return nil, err
	}

	item.Embedding = emb

	return &item, nil
}

func collectItems(rows pgx.Rows) ([]models.Item, error) {
	defer rows.Close()

	items := []models.Item{} // JSON callers expect [], not null

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}

		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// Create inserts a new item. embedding may be nil when the listing text was blank.
func (r *ItemsRepository) Create(ctx context.Context, req *models.CreateItemRequest, embedding []float32) (*models.Item, error) {
	now := time.Now()
	id := uuid.Must(uuid.NewV7())

	query := `
		INSERT INTO items (id, created_at, updated_at, title, description, category, price, seller_id, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + itemColumns

	item, err := scanItem(r.db.QueryRow(ctx, query,
		id, now, now, req.Title, req.Description, req.Category, req.Price, req.SellerID,
		embeddingParam(embedding),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return item, nil
}

// GetByID retrieves a single item by ID.
func (r *ItemsRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, markerrors.NewNotFoundError("item", "item not found")
		}

		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

// buildUpdateQuery builds an UPDATE query with SET clause and arguments.
// Returns the query string, arguments, and whether any updates were provided.
// When reembed is true the embedding column is set (possibly to NULL).
func buildUpdateQuery(
	req *models.UpdateItemRequest, id uuid.UUID, embedding []float32, reembed bool, updatedAt time.Time,
) (query string, args []any, hasUpdates bool) {
	var updates []string

	argCount := 1

	if req.Title != nil {
		updates = append(updates, fmt.Sprintf("title = $%d", argCount))
		args = append(args, *req.Title)
		argCount++
	}

	if req.Description != nil {
		updates = append(updates, fmt.Sprintf("description = $%d", argCount))
		args = append(args, *req.Description)
		argCount++
	}

	if req.Category != nil {
		updates = append(updates, fmt.Sprintf("category = $%d", argCount))
		args = append(args, *req.Category)
		argCount++
	}

	if req.Price != nil {
		updates = append(updates, fmt.Sprintf("price = $%d", argCount))
		args = append(args, *req.Price)
		argCount++
	}

	if reembed {
		updates = append(updates, fmt.Sprintf("embedding = $%d", argCount))
		args = append(args, embeddingParam(embedding))
		argCount++
	}

	if len(updates) == 0 {
		return "", nil, false
	}

	updates = append(updates, fmt.Sprintf("updated_at = $%d", argCount))
	args = append(args, updatedAt)
	argCount++

	args = append(args, id)

	query = fmt.Sprintf(`
		UPDATE items
		SET %s
		WHERE id = $%d
		RETURNING `+itemColumns, strings.Join(updates, ", "), argCount)

	return query, args, true
}

// Update updates an existing item. When reembed is true the embedding column is
// replaced with the given vector (nil clears it).
func (r *ItemsRepository) Update(
	ctx context.Context, id uuid.UUID, req *models.UpdateItemRequest, embedding []float32, reembed bool,
) (*models.Item, error) {
	query, args, hasUpdates := buildUpdateQuery(req, id, embedding, reembed, time.Now())
	if !hasUpdates {
		return r.GetByID(ctx, id)
	}

	item, err := scanItem(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, markerrors.NewNotFoundError("item", "item not found")
		}

		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	return item, nil
}

// UpdateEmbedding sets the embedding vector for an item. Pass nil to clear it.
func (r *ItemsRepository) UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	result, err := r.db.Exec(ctx,
		`UPDATE items SET embedding = $1, updated_at = $2 WHERE id = $3`,
		embeddingParam(embedding), time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update item embedding: %w", err)
	}

	if result.RowsAffected() == 0 {
		return markerrors.NewNotFoundError("item", "item not found")
	}

	return nil
}

// Delete removes an item.
func (r *ItemsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	if result.RowsAffected() == 0 {
		return markerrors.NewNotFoundError("item", "item not found")
	}

	return nil
}

// sortClauses maps catalog sort keys to ORDER BY clauses. Newest first is the default.
var sortClauses = map[string]string{
	"newest":     "created_at DESC",
	"oldest":     "created_at ASC",
	"price_low":  "price ASC, created_at DESC",
	"price_high": "price DESC, created_at DESC",
}

// buildListConditions builds WHERE clause conditions and arguments from catalog filters.
func buildListConditions(filters *models.ListItemsFilters) (whereClause string, args []any) {
	var conditions []string

	argCount := 1

	if filters.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argCount))
		args = append(args, *filters.Category)
		argCount++
	}

	if filters.SellerID != nil {
		conditions = append(conditions, fmt.Sprintf("seller_id = $%d", argCount))
		args = append(args, *filters.SellerID)
		argCount++
	}

	if filters.Search != nil {
		// Every whitespace-separated term must match title or description.
		for _, term := range strings.Fields(*filters.Search) {
			conditions = append(conditions,
				fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", argCount, argCount))
			args = append(args, "%"+term+"%")
			argCount++
		}
	}

	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	return whereClause, args
}

// List retrieves items matching the catalog filters.
func (r *ItemsRepository) List(ctx context.Context, filters *models.ListItemsFilters) ([]models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`

	whereClause, args := buildListConditions(filters)
	query += whereClause
	argCount := len(args) + 1

	orderBy, ok := sortClauses[filters.SortBy]
	if !ok {
		orderBy = sortClauses["newest"]
	}

	query += " ORDER BY " + orderBy

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)

		args = append(args, filters.Limit)
		argCount++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argCount)

		args = append(args, filters.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	return collectItems(rows)
}

// ListByCategories returns the newest items in any of the given categories,
// excluding the requesting user's own listings. Duplicate categories in the
// input are harmless; the filter is set-membership.
func (r *ItemsRepository) ListByCategories(
	ctx context.Context, categories []string, excludeSellerID uuid.UUID, limit int,
) ([]models.Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE category = ANY($1) AND seller_id != $2
		ORDER BY created_at DESC
		LIMIT $3`, categories, excludeSellerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list items by categories: %w", err)
	}

	return collectItems(rows)
}

// ListTrending returns items ranked by all-time global view count (ties broken by
// newest first), excluding the given item IDs and the requesting user's own listings.
func (r *ItemsRepository) ListTrending(
	ctx context.Context, excludeSellerID uuid.UUID, excludeIDs []uuid.UUID, limit int,
) ([]models.Item, error) {
	if excludeIDs == nil {
		excludeIDs = []uuid.UUID{}
	}

	rows, err := r.db.Query(ctx, `
		SELECT i.id, i.created_at, i.updated_at, i.title, i.description, i.category, i.price, i.seller_id, i.embedding
		FROM items i
		LEFT JOIN item_views v ON v.item_id = i.id
		WHERE i.seller_id != $1 AND i.id != ALL($2)
		GROUP BY i.id
		ORDER BY COUNT(v.id) DESC, i.created_at DESC
		LIMIT $3`, excludeSellerID, excludeIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list trending items: %w", err)
	}

	return collectItems(rows)
}

// ListSimilar returns the newest items in the same category within the inclusive
// price band, listed by a different seller than the reference item.
func (r *ItemsRepository) ListSimilar(
	ctx context.Context, refID uuid.UUID, category string, priceLow, priceHigh float64, sellerID uuid.UUID, limit int,
) ([]models.Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE id != $1
		  AND category = $2
		  AND price BETWEEN $3 AND $4
		  AND seller_id != $5
		ORDER BY created_at DESC
		LIMIT $6`, refID, category, priceLow, priceHigh, sellerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list similar items: %w", err)
	}

	return collectItems(rows)
}

// ListEmbedded returns items that have a stored embedding, optionally scoped to a
// category. Used as the candidate set for semantic search ranking.
func (r *ItemsRepository) ListEmbedded(ctx context.Context, category *string, limit int) ([]models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE embedding IS NOT NULL`
	args := []any{}
	argCount := 1

	if category != nil {
		query += fmt.Sprintf(" AND category = $%d", argCount)

		args = append(args, *category)
		argCount++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argCount)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list embedded items: %w", err)
	}

	return collectItems(rows)
}

// ListIDsForEmbeddingBackfill returns IDs of items that have listing text but no stored embedding.
func (r *ItemsRepository) ListIDsForEmbeddingBackfill(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id FROM items
		WHERE embedding IS NULL
		  AND trim(title || ' ' || description) != ''
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ids for embedding backfill: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan item id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating embedding backfill ids: %w", err)
	}

	return ids, nil
}
