package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/campusmarket/marketplace/internal/api/response"
	"github.com/campusmarket/marketplace/internal/api/validation"
	"github.com/campusmarket/marketplace/internal/models"
)

// ItemsService defines the interface for item listing management.
type ItemsService interface {
	CreateItem(ctx context.Context, req *models.CreateItemRequest) (*models.Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error)
	UpdateItem(ctx context.Context, id uuid.UUID, req *models.UpdateItemRequest) (*models.Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	ListItems(ctx context.Context, filters *models.ListItemsFilters) ([]models.Item, error)
}

// ItemsHandler handles HTTP requests for item listings.
type ItemsHandler struct {
	service ItemsService
}

// NewItemsHandler creates a new items handler.
func NewItemsHandler(service ItemsService) *ItemsHandler {
	return &ItemsHandler{service: service}
}

// Create handles POST /v1/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateItemRequest
	if err := validation.ValidateAndDecodeJSONBody(r, &req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	item, err := h.service.CreateItem(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err, "Error posting item")

		return
	}

	response.RespondJSON(w, http.StatusCreated, item)
}

// Get handles GET /v1/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "Error fetching item")

		return
	}

	response.RespondJSON(w, http.StatusOK, item)
}

// Update handles PATCH /v1/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req models.UpdateItemRequest
	if err := validation.ValidateAndDecodeJSONBody(r, &req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	item, err := h.service.UpdateItem(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err, "Error updating item")

		return
	}

	response.RespondJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /v1/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		respondServiceError(w, err, "Error deleting item")

		return
	}

	response.RespondNoContent(w)
}

// List handles GET /v1/items. Used for catalog browsing and seller-scoped
// listings; blended search lives at /v1/items/search.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	var filters models.ListItemsFilters
	if err := validation.ValidateAndDecodeQueryParams(r, &filters); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	items, err := h.service.ListItems(r.Context(), &filters)
	if err != nil {
		respondServiceError(w, err, "Error listing items")

		return
	}

	response.RespondJSON(w, http.StatusOK, models.ListItemsResponse{
		Data:   items,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
}
