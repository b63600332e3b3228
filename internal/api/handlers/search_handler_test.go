package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusmarket/marketplace/internal/models"
	"github.com/campusmarket/marketplace/internal/service"
)

type mockBlendedSearchService struct {
	searchFunc func(ctx context.Context, filters *models.ListItemsFilters) (service.SearchResult, error)
}

func (m *mockBlendedSearchService) SearchItems(
	ctx context.Context, filters *models.ListItemsFilters,
) (service.SearchResult, error) {
	return m.searchFunc(ctx, filters)
}

func TestSearchHandler_Search(t *testing.T) {
	t.Run("decodes filters and returns scored results", func(t *testing.T) {
		item := models.Item{ID: uuid.Must(uuid.NewV7()), Title: "Mini fridge"}
		mock := &mockBlendedSearchService{
			searchFunc: func(_ context.Context, filters *models.ListItemsFilters) (service.SearchResult, error) {
				require.NotNil(t, filters.Search)
				assert.Equal(t, "fridge", *filters.Search)
				require.NotNil(t, filters.Category)
				assert.Equal(t, "appliances", *filters.Category)

				return service.SearchResult{
					Items:       []models.ItemWithScore{{Item: item, Score: 0.87}},
					SemanticRan: true,
				}, nil
			},
		}
		handler := NewSearchHandler(mock)

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/items/search?search=fridge&category=appliances", nil)

		rec := httptest.NewRecorder()

		handler.Search(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp SearchItemsResponse

		err := json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.True(t, resp.SemanticRan)
		assert.False(t, resp.Degraded)
		require.Len(t, resp.Results, 1)
		assert.Equal(t, item.ID, resp.Results[0].Item.ID)
		assert.InDelta(t, 0.87, resp.Results[0].Score, 1e-9)
	})

	t.Run("invalid sort_by returns 400", func(t *testing.T) {
		handler := NewSearchHandler(&mockBlendedSearchService{})

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/items/search?sort_by=alphabetical", nil)

		rec := httptest.NewRecorder()

		handler.Search(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("degraded search reports the flag", func(t *testing.T) {
		mock := &mockBlendedSearchService{
			searchFunc: func(_ context.Context, _ *models.ListItemsFilters) (service.SearchResult, error) {
				return service.SearchResult{
					Items:    []models.ItemWithScore{},
					Degraded: true,
				}, nil
			},
		}
		handler := NewSearchHandler(mock)

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/items/search?search=lamp", nil)

		rec := httptest.NewRecorder()

		handler.Search(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp SearchItemsResponse

		err := json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.True(t, resp.Degraded)
		assert.False(t, resp.SemanticRan)
		assert.Empty(t, resp.Results)
	})
}
