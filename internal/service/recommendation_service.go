package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/campusmarket/marketplace/internal/markerrors"
	"github.com/campusmarket/marketplace/internal/models"
	"github.com/campusmarket/marketplace/internal/observability"
)

const (
	// DefaultRecommendationLimit is the feed size when the caller does not ask for one.
	DefaultRecommendationLimit = 6

	// topViewedCategoryCount caps how many of the user's most-viewed categories
	// seed the personalized slice.
	topViewedCategoryCount = 3

	// similarPriceBand is the half-width of the similar-items price band:
	// [price*(1-band), price*(1+band)], bounds inclusive.
	similarPriceBand = 0.5
)

// ItemsRepositoryForRecommendations provides the item read operations needed by recommendations.
type ItemsRepositoryForRecommendations interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	ListByCategories(ctx context.Context, categories []string, excludeSellerID uuid.UUID, limit int) ([]models.Item, error)
	ListTrending(ctx context.Context, excludeSellerID uuid.UUID, excludeIDs []uuid.UUID, limit int) ([]models.Item, error)
	ListSimilar(
		ctx context.Context, refID uuid.UUID, category string, priceLow, priceHigh float64, sellerID uuid.UUID, limit int,
	) ([]models.Item, error)
}

// InteractionsRepositoryForRecommendations provides view tracking and view-history reads.
type InteractionsRepositoryForRecommendations interface {
	TrackItemView(ctx context.Context, userID, itemID uuid.UUID) error
	TopViewedCategories(ctx context.Context, userID uuid.UUID, limit int) ([]models.CategoryViewCount, error)
}

// OrdersRepositoryForRecommendations provides the purchase-history reads needed by recommendations.
type OrdersRepositoryForRecommendations interface {
	PurchasedCategories(ctx context.Context, buyerID uuid.UUID) ([]string, error)
}

// RecommendationService builds personalized item feeds from view and purchase history.
type RecommendationService struct {
	itemsRepo        ItemsRepositoryForRecommendations
	interactionsRepo InteractionsRepositoryForRecommendations
	ordersRepo       OrdersRepositoryForRecommendations
	metrics          observability.RecommendationMetrics
	logger           *slog.Logger
}

// RecommendationServiceParams configures RecommendationService. Metrics may be nil.
type RecommendationServiceParams struct {
	ItemsRepo        ItemsRepositoryForRecommendations
	InteractionsRepo InteractionsRepositoryForRecommendations
	OrdersRepo       OrdersRepositoryForRecommendations
	Metrics          observability.RecommendationMetrics
	Logger           *slog.Logger
}

// NewRecommendationService creates a RecommendationService.
func NewRecommendationService(p RecommendationServiceParams) *RecommendationService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &RecommendationService{
		itemsRepo:        p.ItemsRepo,
		interactionsRepo: p.InteractionsRepo,
		ordersRepo:       p.OrdersRepo,
		metrics:          p.Metrics,
		logger:           logger,
	}
}

// TrackItemView records that userID viewed itemID and bumps the viewer's
// category affinity. The view row and the preference upsert commit together or
// not at all; a view of an unknown or category-less item still counts as a view.
func (s *RecommendationService) TrackItemView(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := s.interactionsRepo.TrackItemView(ctx, userID, itemID); err != nil {
		s.logger.Error("track item view failed",
			"error", err, "userId", userID.String(), "itemId", itemID.String())

		return fmt.Errorf("track item view: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordViewTracked(ctx)
	}

	return nil
}

// GetRecommendations returns up to limit items for userID. Personalized picks
// come first: the newest items in the user's top viewed and purchased
// categories, never their own listings. Remaining slots fill with globally
// trending items. A user with no history gets a purely trending feed; a quiet
// marketplace yields an empty list, never an error.
func (s *RecommendationService) GetRecommendations(
	ctx context.Context, userID uuid.UUID, limit int,
) ([]models.Item, error) {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}

	categories, err := s.preferredCategories(ctx, userID)
	if err != nil {
		return nil, err
	}

	recommended := []models.Item{}
	seen := make(map[uuid.UUID]bool)

	if len(categories) > 0 {
		personalized, err := s.itemsRepo.ListByCategories(ctx, categories, userID, limit)
		if err != nil {
			s.logger.Error("list items by categories failed", "error", err, "userId", userID.String())

			return nil, fmt.Errorf("list items by categories: %w", err)
		}

		for _, item := range personalized {
			if seen[item.ID] {
				continue
			}

			seen[item.ID] = true

			recommended = append(recommended, item)
		}
	}

	personalizedCount := len(recommended)

	if len(recommended) < limit {
		excludeIDs := make([]uuid.UUID, 0, len(recommended))
		for _, item := range recommended {
			excludeIDs = append(excludeIDs, item.ID)
		}

		trending, err := s.itemsRepo.ListTrending(ctx, userID, excludeIDs, limit-len(recommended))
		if err != nil {
			s.logger.Error("list trending items failed", "error", err, "userId", userID.String())

			return nil, fmt.Errorf("list trending items: %w", err)
		}

		for _, item := range trending {
			if seen[item.ID] {
				continue
			}

			seen[item.ID] = true

			recommended = append(recommended, item)
		}
	}

	if len(recommended) > limit {
		recommended = recommended[:limit]
	}

	if s.metrics != nil {
		s.metrics.RecordServed(ctx, "personalized", int64(personalizedCount))
		s.metrics.RecordServed(ctx, "trending", int64(len(recommended)-personalizedCount))
	}

	return recommended, nil
}

// preferredCategories concatenates the user's top viewed categories with the
// distinct categories of completed purchases. The two sources are not deduped
// against each other; membership filtering downstream makes overlap harmless.
func (s *RecommendationService) preferredCategories(ctx context.Context, userID uuid.UUID) ([]string, error) {
	viewed, err := s.interactionsRepo.TopViewedCategories(ctx, userID, topViewedCategoryCount)
	if err != nil {
		s.logger.Error("top viewed categories failed", "error", err, "userId", userID.String())

		return nil, fmt.Errorf("top viewed categories: %w", err)
	}

	purchased, err := s.ordersRepo.PurchasedCategories(ctx, userID)
	if err != nil {
		s.logger.Error("purchased categories failed", "error", err, "userId", userID.String())

		return nil, fmt.Errorf("purchased categories: %w", err)
	}

	categories := make([]string, 0, len(viewed)+len(purchased))
	for _, v := range viewed {
		categories = append(categories, v.Category)
	}

	categories = append(categories, purchased...)

	return categories, nil
}

// GetSimilarItems returns up to limit items comparable to itemID: same
// category, price within ±50% inclusive, a different seller, newest first. An
// unknown item or one without a category yields an empty list, not an error.
func (s *RecommendationService) GetSimilarItems(
	ctx context.Context, itemID uuid.UUID, limit int,
) ([]models.Item, error) {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}

	item, err := s.itemsRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, markerrors.ErrNotFound) {
			return []models.Item{}, nil
		}

		s.logger.Error("get item for similar lookup failed", "error", err, "itemId", itemID.String())

		return nil, fmt.Errorf("get item: %w", err)
	}

	if item.Category == nil {
		return []models.Item{}, nil
	}

	priceLow := item.Price * (1 - similarPriceBand)
	priceHigh := item.Price * (1 + similarPriceBand)

	similar, err := s.itemsRepo.ListSimilar(ctx, itemID, *item.Category, priceLow, priceHigh, item.SellerID, limit)
	if err != nil {
		s.logger.Error("list similar items failed", "error", err, "itemId", itemID.String())

		return nil, fmt.Errorf("list similar items: %w", err)
	}

	return similar, nil
}
