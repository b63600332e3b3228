package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order. Only completed orders feed
// the recommendation engine's purchased-category signal.
type OrderStatus string

// Order statuses.
const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusApproved  OrderStatus = "approved"
	OrderStatusDeclined  OrderStatus = "declined"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid reports whether s is a known order status.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusApproved, OrderStatusDeclined,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// ParseOrderStatus parses a string into an OrderStatus.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid order status: %q", s)
	}

	return status, nil
}

// Order represents a purchase order for an item.
type Order struct {
	ID        uuid.UUID   `json:"id"`
	BuyerID   uuid.UUID   `json:"buyer_id"`
	ItemID    uuid.UUID   `json:"item_id"`
	Status    OrderStatus `json:"status"`
	Location  *string     `json:"location,omitempty"`
	Notes     *string     `json:"notes,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// CreateOrderRequest represents the request to place an order. Orders start pending.
type CreateOrderRequest struct {
	BuyerID  uuid.UUID `json:"buyer_id" validate:"required"`
	ItemID   uuid.UUID `json:"item_id" validate:"required"`
	Location *string   `json:"location,omitempty" validate:"omitempty,max=255"`
	Notes    *string   `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// UpdateOrderStatusRequest represents the request to transition an order's status.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required"`
}
