package handlers

import (
	"context"
	"net/http"

	"github.com/campusmarket/marketplace/internal/api/response"
	"github.com/campusmarket/marketplace/internal/api/validation"
	"github.com/campusmarket/marketplace/internal/models"
	"github.com/campusmarket/marketplace/internal/service"
)

// SearchService defines the interface for blended catalog search.
type SearchService interface {
	SearchItems(ctx context.Context, filters *models.ListItemsFilters) (service.SearchResult, error)
}

// SearchHandler handles HTTP requests for catalog search.
type SearchHandler struct {
	service SearchService
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(service SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

// SearchItemsResponse is the body for GET /v1/items/search. SemanticRan tells
// the client whether similarity ranking ran; Degraded flags a keyword-only
// fallback after an embedding failure. An empty Results with SemanticRan true
// should render as "no results", not as a generic catalog page.
type SearchItemsResponse struct {
	Results     []models.ItemWithScore `json:"results"`
	SemanticRan bool                   `json:"semantic_ran"`
	Degraded    bool                   `json:"degraded"`
}

// Search handles GET /v1/items/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var filters models.ListItemsFilters
	if err := validation.ValidateAndDecodeQueryParams(r, &filters); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	result, err := h.service.SearchItems(r.Context(), &filters)
	if err != nil {
		respondServiceError(w, err, "Search failed")

		return
	}

	response.RespondJSON(w, http.StatusOK, SearchItemsResponse{
		Results:     result.Items,
		SemanticRan: result.SemanticRan,
		Degraded:    result.Degraded,
	})
}
