package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/campusmarket/marketplace/internal/markerrors"
	"github.com/campusmarket/marketplace/internal/models"
)

// OrdersRepository provides order data access for the order workflow.
type OrdersRepository interface {
	Create(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error)
}

// OrdersService manages the order lifecycle. Orders start pending; the seller
// approves (completing the sale) or declines. Only completed orders feed the
// recommendation engine's purchase history.
type OrdersService struct {
	ordersRepo OrdersRepository
	itemsRepo  ItemsRepositoryForRecommendations
	logger     *slog.Logger
}

// NewOrdersService creates an OrdersService.
func NewOrdersService(ordersRepo OrdersRepository, itemsRepo ItemsRepositoryForRecommendations, logger *slog.Logger) *OrdersService {
	if logger == nil {
		logger = slog.Default()
	}

	return &OrdersService{
		ordersRepo: ordersRepo,
		itemsRepo:  itemsRepo,
		logger:     logger,
	}
}

// CreateOrder places a pending order for an existing item. Buying your own
// listing is rejected.
func (s *OrdersService) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	item, err := s.itemsRepo.GetByID(ctx, req.ItemID)
	if err != nil {
		//nolint:wrapcheck // pass through so the handler can map not-found to 404
		return nil, err
	}

	if item.SellerID == req.BuyerID {
		return nil, markerrors.NewValidationError("item_id", "cannot order your own listing")
	}

	order, err := s.ordersRepo.Create(ctx, req)
	if err != nil {
		s.logger.Error("create order failed", "error", err, "itemId", req.ItemID.String())

		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order created", "orderId", order.ID.String(), "itemId", order.ItemID.String())

	return order, nil
}

// GetOrder retrieves one order.
func (s *OrdersService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.ordersRepo.GetByID(ctx, id)
	if err != nil {
		//nolint:wrapcheck // pass through so the handler can map not-found to 404
		return nil, err
	}

	return order, nil
}

// HandleOrder applies a seller decision to a pending order: "approve" completes
// the sale, "decline" rejects it. Any other action, or an order that is no
// longer pending, is a validation error.
func (s *OrdersService) HandleOrder(ctx context.Context, id uuid.UUID, action string) (*models.Order, error) {
	var status models.OrderStatus

	switch action {
	case "approve":
		status = models.OrderStatusCompleted
	case "decline":
		status = models.OrderStatusDeclined
	default:
		return nil, markerrors.NewValidationError("action", "action must be approve or decline")
	}

	order, err := s.ordersRepo.GetByID(ctx, id)
	if err != nil {
		//nolint:wrapcheck // pass through so the handler can map not-found to 404
		return nil, err
	}

	if order.Status != models.OrderStatusPending {
		return nil, markerrors.NewValidationError("status", "order has already been handled")
	}

	updated, err := s.ordersRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		s.logger.Error("update order status failed", "error", err, "orderId", id.String())

		return nil, fmt.Errorf("update order status: %w", err)
	}

	s.logger.Info("order handled", "orderId", id.String(), "status", string(status))

	return updated, nil
}
