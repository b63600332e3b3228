package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusmarket/marketplace/internal/markerrors"
	"github.com/campusmarket/marketplace/internal/models"
)

const orderColumns = `id, buyer_id, item_id, status, location, notes, created_at, updated_at`

// OrdersRepository handles data access for orders.
type OrdersRepository struct {
	db *pgxpool.Pool
}

// NewOrdersRepository creates a new orders repository.
func NewOrdersRepository(db *pgxpool.Pool) *OrdersRepository {
	return &OrdersRepository{db: db}
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var order models.Order

	err := row.Scan(
		&order.ID, &order.BuyerID, &order.ItemID, &order.Status,
		&order.Location, &order.Notes, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// Create inserts a new pending order.
func (r *OrdersRepository) Create(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	now := time.Now()

	query := `
		INSERT INTO orders (id, buyer_id, item_id, status, location, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + orderColumns

	order, err := scanOrder(r.db.QueryRow(ctx, query,
		uuid.Must(uuid.NewV7()), req.BuyerID, req.ItemID, models.OrderStatusPending,
		req.Location, req.Notes, now, now,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return order, nil
}

// GetByID retrieves a single order by ID.
func (r *OrdersRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, markerrors.NewNotFoundError("order", "order not found")
		}

		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return order, nil
}

// UpdateStatus transitions an order to the given status.
func (r *OrdersRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3
		RETURNING ` + orderColumns

	order, err := scanOrder(r.db.QueryRow(ctx, query, status, time.Now(), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, markerrors.NewNotFoundError("order", "order not found")
		}

		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	return order, nil
}

// PurchasedCategories returns the distinct categories of items the buyer has
// completed orders for. Category-less items are excluded.
func (r *OrdersRepository) PurchasedCategories(ctx context.Context, buyerID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT i.category
		FROM orders o
		INNER JOIN items i ON i.id = o.item_id
		WHERE o.buyer_id = $1 AND o.status = $2 AND i.category IS NOT NULL`,
		buyerID, models.OrderStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchased categories: %w", err)
	}
	defer rows.Close()

	var categories []string

	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("failed to scan purchased category: %w", err)
		}

		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchased categories: %w", err)
	}

	return categories, nil
}
