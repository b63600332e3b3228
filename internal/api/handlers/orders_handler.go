package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/campusmarket/marketplace/internal/api/response"
	"github.com/campusmarket/marketplace/internal/api/validation"
	"github.com/campusmarket/marketplace/internal/models"
)

// OrdersService defines the interface for the order workflow.
type OrdersService interface {
	CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	HandleOrder(ctx context.Context, id uuid.UUID, action string) (*models.Order, error)
}

// OrdersHandler handles HTTP requests for orders.
type OrdersHandler struct {
	service OrdersService
}

// NewOrdersHandler creates a new orders handler.
func NewOrdersHandler(service OrdersService) *OrdersHandler {
	return &OrdersHandler{service: service}
}

// Create handles POST /v1/orders.
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := validation.ValidateAndDecodeJSONBody(r, &req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	order, err := h.service.CreateOrder(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err, "Error placing order")

		return
	}

	response.RespondJSON(w, http.StatusCreated, order)
}

// Get handles GET /v1/orders/{id}.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "Error fetching order")

		return
	}

	response.RespondJSON(w, http.StatusOK, order)
}

// Handle handles POST /v1/orders/{id}/{action} where action is approve or decline.
func (h *OrdersHandler) Handle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	action := r.PathValue("action")

	order, err := h.service.HandleOrder(r.Context(), id, action)
	if err != nil {
		respondServiceError(w, err, "Error handling order")

		return
	}

	response.RespondJSON(w, http.StatusOK, order)
}
