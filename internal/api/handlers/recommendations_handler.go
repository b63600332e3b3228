package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/campusmarket/marketplace/internal/api/response"
	"github.com/campusmarket/marketplace/internal/api/validation"
	"github.com/campusmarket/marketplace/internal/models"
)

// RecommendationService defines the interface for personalized feeds and view tracking.
type RecommendationService interface {
	TrackItemView(ctx context.Context, userID, itemID uuid.UUID) error
	GetRecommendations(ctx context.Context, userID uuid.UUID, limit int) ([]models.Item, error)
	GetSimilarItems(ctx context.Context, itemID uuid.UUID, limit int) ([]models.Item, error)
}

// RecommendationsHandler handles HTTP requests for recommendations and view tracking.
type RecommendationsHandler struct {
	service RecommendationService
}

// NewRecommendationsHandler creates a new recommendations handler.
func NewRecommendationsHandler(service RecommendationService) *RecommendationsHandler {
	return &RecommendationsHandler{service: service}
}

// RecommendationsResponse is the body for recommendation and similar-items reads.
type RecommendationsResponse struct {
	Data []models.Item `json:"data"`
}

// maxFeedLimit caps how many items one recommendations or similar-items call returns.
const maxFeedLimit = 50

// parseLimit returns the "limit" query param clamped to (0, maxFeedLimit];
// 0 means "use the service default".
func parseLimit(s string) int {
	if s == "" {
		return 0
	}

	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}

	return min(n, maxFeedLimit)
}

// GetRecommendations handles GET /v1/users/{id}/recommendations.
func (h *RecommendationsHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))

	items, err := h.service.GetRecommendations(r.Context(), userID, limit)
	if err != nil {
		respondServiceError(w, err, "Error building recommendations")

		return
	}

	response.RespondJSON(w, http.StatusOK, RecommendationsResponse{Data: items})
}

// GetSimilarItems handles GET /v1/items/{id}/similar.
func (h *RecommendationsHandler) GetSimilarItems(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))

	items, err := h.service.GetSimilarItems(r.Context(), itemID, limit)
	if err != nil {
		respondServiceError(w, err, "Error finding similar items")

		return
	}

	response.RespondJSON(w, http.StatusOK, RecommendationsResponse{Data: items})
}

// TrackView handles POST /v1/items/{id}/views.
func (h *RecommendationsHandler) TrackView(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req models.TrackItemViewRequest
	if err := validation.ValidateAndDecodeJSONBody(r, &req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	if err := h.service.TrackItemView(r.Context(), req.UserID, itemID); err != nil {
		respondServiceError(w, err, "Error tracking view")

		return
	}

	response.RespondNoContent(w)
}
