package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusmarket/marketplace/internal/markerrors"
	"github.com/campusmarket/marketplace/internal/models"
)

type mockItemsRepo struct {
	getByIDFunc          func(ctx context.Context, id uuid.UUID) (*models.Item, error)
	listByCategoriesFunc func(ctx context.Context, categories []string, excludeSellerID uuid.UUID, limit int) ([]models.Item, error)
	listTrendingFunc     func(ctx context.Context, excludeSellerID uuid.UUID, excludeIDs []uuid.UUID, limit int) ([]models.Item, error)
	listSimilarFunc      func(ctx context.Context, refID uuid.UUID, category string, priceLow, priceHigh float64, sellerID uuid.UUID, limit int) ([]models.Item, error)
}

func (m *mockItemsRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockItemsRepo) ListByCategories(
	ctx context.Context, categories []string, excludeSellerID uuid.UUID, limit int,
) ([]models.Item, error) {
	return m.listByCategoriesFunc(ctx, categories, excludeSellerID, limit)
}

func (m *mockItemsRepo) ListTrending(
	ctx context.Context, excludeSellerID uuid.UUID, excludeIDs []uuid.UUID, limit int,
) ([]models.Item, error) {
	return m.listTrendingFunc(ctx, excludeSellerID, excludeIDs, limit)
}

func (m *mockItemsRepo) ListSimilar(
	ctx context.Context, refID uuid.UUID, category string, priceLow, priceHigh float64, sellerID uuid.UUID, limit int,
) ([]models.Item, error) {
	return m.listSimilarFunc(ctx, refID, category, priceLow, priceHigh, sellerID, limit)
}

type mockInteractionsRepo struct {
	trackItemViewFunc       func(ctx context.Context, userID, itemID uuid.UUID) error
	topViewedCategoriesFunc func(ctx context.Context, userID uuid.UUID, limit int) ([]models.CategoryViewCount, error)
}

func (m *mockInteractionsRepo) TrackItemView(ctx context.Context, userID, itemID uuid.UUID) error {
	return m.trackItemViewFunc(ctx, userID, itemID)
}

func (m *mockInteractionsRepo) TopViewedCategories(
	ctx context.Context, userID uuid.UUID, limit int,
) ([]models.CategoryViewCount, error) {
	return m.topViewedCategoriesFunc(ctx, userID, limit)
}

type mockOrdersRepo struct {
	purchasedCategoriesFunc func(ctx context.Context, buyerID uuid.UUID) ([]string, error)
}

func (m *mockOrdersRepo) PurchasedCategories(ctx context.Context, buyerID uuid.UUID) ([]string, error) {
	return m.purchasedCategoriesFunc(ctx, buyerID)
}

func strPtr(s string) *string { return &s }

func testItem(category string, price float64, sellerID uuid.UUID) models.Item {
	item := models.Item{
		ID:        uuid.Must(uuid.NewV7()),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Title:     "test item",
		Price:     price,
		SellerID:  sellerID,
	}
	if category != "" {
		item.Category = strPtr(category)
	}

	return item
}

func newTestRecommendationService(
	items *mockItemsRepo, interactions *mockInteractionsRepo, orders *mockOrdersRepo,
) *RecommendationService {
	return NewRecommendationService(RecommendationServiceParams{
		ItemsRepo:        items,
		InteractionsRepo: interactions,
		OrdersRepo:       orders,
	})
}

func TestRecommendationService_TrackItemView(t *testing.T) {
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())
	itemID := uuid.Must(uuid.NewV7())

	t.Run("delegates to repository", func(t *testing.T) {
		var gotUser, gotItem uuid.UUID

		interactions := &mockInteractionsRepo{
			trackItemViewFunc: func(_ context.Context, userID, itemID uuid.UUID) error {
				gotUser, gotItem = userID, itemID

				return nil
			},
		}
		svc := newTestRecommendationService(&mockItemsRepo{}, interactions, &mockOrdersRepo{})

		err := svc.TrackItemView(ctx, userID, itemID)

		require.NoError(t, err)
		assert.Equal(t, userID, gotUser)
		assert.Equal(t, itemID, gotItem)
	})

	t.Run("propagates repository error", func(t *testing.T) {
		repoErr := errors.New("connection reset")
		interactions := &mockInteractionsRepo{
			trackItemViewFunc: func(_ context.Context, _, _ uuid.UUID) error {
				return repoErr
			},
		}
		svc := newTestRecommendationService(&mockItemsRepo{}, interactions, &mockOrdersRepo{})

		err := svc.TrackItemView(ctx, userID, itemID)

		require.ErrorIs(t, err, repoErr)
	})
}

func TestRecommendationService_GetRecommendations(t *testing.T) {
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())
	otherSeller := uuid.Must(uuid.NewV7())

	t.Run("combines viewed and purchased categories without deduping", func(t *testing.T) {
		var gotCategories []string

		items := &mockItemsRepo{
			listByCategoriesFunc: func(_ context.Context, categories []string, _ uuid.UUID, limit int) ([]models.Item, error) {
				gotCategories = categories

				result := make([]models.Item, limit)
				for i := range result {
					result[i] = testItem("books", 10, otherSeller)
				}

				return result, nil
			},
		}
		interactions := &mockInteractionsRepo{
			topViewedCategoriesFunc: func(_ context.Context, _ uuid.UUID, limit int) ([]models.CategoryViewCount, error) {
				assert.Equal(t, 3, limit)

				return []models.CategoryViewCount{
					{Category: "books", Views: 9},
					{Category: "electronics", Views: 4},
				}, nil
			},
		}
		orders := &mockOrdersRepo{
			purchasedCategoriesFunc: func(_ context.Context, _ uuid.UUID) ([]string, error) {
				return []string{"books", "furniture"}, nil
			},
		}
		svc := newTestRecommendationService(items, interactions, orders)

		result, err := svc.GetRecommendations(ctx, userID, 6)

		require.NoError(t, err)
		assert.Len(t, result, 6)
		// "books" appears from both sources; the concatenation keeps both.
		assert.Equal(t, []string{"books", "electronics", "books", "furniture"}, gotCategories)
	})

	t.Run("fills remaining slots with trending excluding personalized ids", func(t *testing.T) {
		personalized := []models.Item{
			testItem("books", 10, otherSeller),
			testItem("books", 12, otherSeller),
		}
		trending := []models.Item{
			testItem("electronics", 99, otherSeller),
			testItem("sports", 20, otherSeller),
		}

		var gotExcludeIDs []uuid.UUID

		var gotFillLimit int

		items := &mockItemsRepo{
			listByCategoriesFunc: func(_ context.Context, _ []string, excludeSellerID uuid.UUID, _ int) ([]models.Item, error) {
				assert.Equal(t, userID, excludeSellerID)

				return personalized, nil
			},
			listTrendingFunc: func(_ context.Context, _ uuid.UUID, excludeIDs []uuid.UUID, limit int) ([]models.Item, error) {
				gotExcludeIDs = excludeIDs
				gotFillLimit = limit

				return trending, nil
			},
		}
		interactions := &mockInteractionsRepo{
			topViewedCategoriesFunc: func(_ context.Context, _ uuid.UUID, _ int) ([]models.CategoryViewCount, error) {
				return []models.CategoryViewCount{{Category: "books", Views: 2}}, nil
			},
		}
		orders := &mockOrdersRepo{
			purchasedCategoriesFunc: func(_ context.Context, _ uuid.UUID) ([]string, error) {
				return nil, nil
			},
		}
		svc := newTestRecommendationService(items, interactions, orders)

		result, err := svc.GetRecommendations(ctx, userID, 4)

		require.NoError(t, err)
		require.Len(t, result, 4)
		assert.Equal(t, personalized[0].ID, result[0].ID)
		assert.Equal(t, personalized[1].ID, result[1].ID)
		assert.Equal(t, trending[0].ID, result[2].ID)
		assert.Equal(t, trending[1].ID, result[3].ID)
		assert.Equal(t, []uuid.UUID{personalized[0].ID, personalized[1].ID}, gotExcludeIDs)
		assert.Equal(t, 2, gotFillLimit)
	})

	t.Run("no history yields pure trending", func(t *testing.T) {
		trending := []models.Item{testItem("books", 10, otherSeller)}

		listByCategoriesCalled := false
		items := &mockItemsRepo{
			listByCategoriesFunc: func(_ context.Context, _ []string, _ uuid.UUID, _ int) ([]models.Item, error) {
				listByCategoriesCalled = true

				return nil, nil
			},
			listTrendingFunc: func(_ context.Context, _ uuid.UUID, excludeIDs []uuid.UUID, limit int) ([]models.Item, error) {
				assert.Empty(t, excludeIDs)
				assert.Equal(t, DefaultRecommendationLimit, limit)

				return trending, nil
			},
		}
		interactions := &mockInteractionsRepo{
			topViewedCategoriesFunc: func(_ context.Context, _ uuid.UUID, _ int) ([]models.CategoryViewCount, error) {
				return nil, nil
			},
		}
		orders := &mockOrdersRepo{
			purchasedCategoriesFunc: func(_ context.Context, _ uuid.UUID) ([]string, error) {
				return nil, nil
			},
		}
		svc := newTestRecommendationService(items, interactions, orders)

		result, err := svc.GetRecommendations(ctx, userID, 0)

		require.NoError(t, err)
		assert.False(t, listByCategoriesCalled)
		require.Len(t, result, 1)
		assert.Equal(t, trending[0].ID, result[0].ID)
	})

	t.Run("empty marketplace yields empty list", func(t *testing.T) {
		items := &mockItemsRepo{
			listTrendingFunc: func(_ context.Context, _ uuid.UUID, _ []uuid.UUID, _ int) ([]models.Item, error) {
				return []models.Item{}, nil
			},
		}
		interactions := &mockInteractionsRepo{
			topViewedCategoriesFunc: func(_ context.Context, _ uuid.UUID, _ int) ([]models.CategoryViewCount, error) {
				return nil, nil
			},
		}
		orders := &mockOrdersRepo{
			purchasedCategoriesFunc: func(_ context.Context, _ uuid.UUID) ([]string, error) {
				return nil, nil
			},
		}
		svc := newTestRecommendationService(items, interactions, orders)

		result, err := svc.GetRecommendations(ctx, userID, 6)

		require.NoError(t, err)
		assert.NotNil(t, result)
		assert.Empty(t, result)
	})

	t.Run("dedupes repeated item ids and caps at limit", func(t *testing.T) {
		duplicate := testItem("books", 10, otherSeller)
		unique := testItem("books", 15, otherSeller)

		items := &mockItemsRepo{
			listByCategoriesFunc: func(_ context.Context, _ []string, _ uuid.UUID, _ int) ([]models.Item, error) {
				return []models.Item{duplicate, duplicate, unique}, nil
			},
		}
		interactions := &mockInteractionsRepo{
			topViewedCategoriesFunc: func(_ context.Context, _ uuid.UUID, _ int) ([]models.CategoryViewCount, error) {
				return []models.CategoryViewCount{{Category: "books", Views: 1}}, nil
			},
		}
		orders := &mockOrdersRepo{
			purchasedCategoriesFunc: func(_ context.Context, _ uuid.UUID) ([]string, error) {
				return nil, nil
			},
		}
		svc := newTestRecommendationService(items, interactions, orders)

		result, err := svc.GetRecommendations(ctx, userID, 2)

		require.NoError(t, err)
		require.Len(t, result, 2)
		assert.Equal(t, duplicate.ID, result[0].ID)
		assert.Equal(t, unique.ID, result[1].ID)
	})

	t.Run("propagates view history error", func(t *testing.T) {
		repoErr := errors.New("db down")
		interactions := &mockInteractionsRepo{
			topViewedCategoriesFunc: func(_ context.Context, _ uuid.UUID, _ int) ([]models.CategoryViewCount, error) {
				return nil, repoErr
			},
		}
		svc := newTestRecommendationService(&mockItemsRepo{}, interactions, &mockOrdersRepo{})

		_, err := svc.GetRecommendations(ctx, userID, 6)

		require.ErrorIs(t, err, repoErr)
	})
}

func TestRecommendationService_GetSimilarItems(t *testing.T) {
	ctx := context.Background()
	sellerID := uuid.Must(uuid.NewV7())

	t.Run("queries same category within inclusive price band", func(t *testing.T) {
		ref := testItem("electronics", 100, sellerID)
		match := testItem("electronics", 120, uuid.Must(uuid.NewV7()))

		items := &mockItemsRepo{
			getByIDFunc: func(_ context.Context, id uuid.UUID) (*models.Item, error) {
				assert.Equal(t, ref.ID, id)

				return &ref, nil
			},
			listSimilarFunc: func(
				_ context.Context, refID uuid.UUID, category string, priceLow, priceHigh float64, seller uuid.UUID, limit int,
			) ([]models.Item, error) {
				assert.Equal(t, ref.ID, refID)
				assert.Equal(t, "electronics", category)
				assert.InDelta(t, 50.0, priceLow, 1e-9)
				assert.InDelta(t, 150.0, priceHigh, 1e-9)
				assert.Equal(t, sellerID, seller)
				assert.Equal(t, 6, limit)

				return []models.Item{match}, nil
			},
		}
		svc := newTestRecommendationService(items, &mockInteractionsRepo{}, &mockOrdersRepo{})

		result, err := svc.GetSimilarItems(ctx, ref.ID, 6)

		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, match.ID, result[0].ID)
	})

	t.Run("missing item yields empty list", func(t *testing.T) {
		items := &mockItemsRepo{
			getByIDFunc: func(_ context.Context, _ uuid.UUID) (*models.Item, error) {
				return nil, markerrors.NewNotFoundError("item", "item not found")
			},
		}
		svc := newTestRecommendationService(items, &mockInteractionsRepo{}, &mockOrdersRepo{})

		result, err := svc.GetSimilarItems(ctx, uuid.Must(uuid.NewV7()), 6)

		require.NoError(t, err)
		assert.NotNil(t, result)
		assert.Empty(t, result)
	})

	t.Run("item without category yields empty list", func(t *testing.T) {
		ref := testItem("", 50, sellerID)

		listSimilarCalled := false
		items := &mockItemsRepo{
			getByIDFunc: func(_ context.Context, _ uuid.UUID) (*models.Item, error) {
				return &ref, nil
			},
			listSimilarFunc: func(
				_ context.Context, _ uuid.UUID, _ string, _, _ float64, _ uuid.UUID, _ int,
			) ([]models.Item, error) {
				listSimilarCalled = true

				return nil, nil
			},
		}
		svc := newTestRecommendationService(items, &mockInteractionsRepo{}, &mockOrdersRepo{})

		result, err := svc.GetSimilarItems(ctx, ref.ID, 6)

		require.NoError(t, err)
		assert.Empty(t, result)
		assert.False(t, listSimilarCalled)
	})

	t.Run("propagates unexpected lookup error", func(t *testing.T) {
		repoErr := errors.New("db down")
		items := &mockItemsRepo{
			getByIDFunc: func(_ context.Context, _ uuid.UUID) (*models.Item, error) {
				return nil, repoErr
			},
		}
		svc := newTestRecommendationService(items, &mockInteractionsRepo{}, &mockOrdersRepo{})

		_, err := svc.GetSimilarItems(ctx, uuid.Must(uuid.NewV7()), 6)

		require.ErrorIs(t, err, repoErr)
	})
}
