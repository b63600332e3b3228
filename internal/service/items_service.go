package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/campusmarket/marketplace/internal/models"
)

// ItemsRepositoryForCatalog provides the item write and catalog read operations
// needed by the listing surface.
type ItemsRepositoryForCatalog interface {
	Create(ctx context.Context, req *models.CreateItemRequest, embedding []float32) (*models.Item, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdateItemRequest, embedding []float32, reembed bool) (*models.Item, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters *models.ListItemsFilters) ([]models.Item, error)
}

// ItemsService manages item listings. Listing text is embedded at create time
// and re-embedded whenever the title or description changes, so the stored
// vector always reflects the current text. An embedding failure aborts the
// write; a listing is never persisted with a stale vector.
type ItemsService struct {
	itemsRepo ItemsRepositoryForCatalog
	embedder  QueryEmbedder
	logger    *slog.Logger
}

// NewItemsService creates an ItemsService.
func NewItemsService(itemsRepo ItemsRepositoryForCatalog, embedder QueryEmbedder, logger *slog.Logger) *ItemsService {
	if logger == nil {
		logger = slog.Default()
	}

	return &ItemsService{
		itemsRepo: itemsRepo,
		embedder:  embedder,
		logger:    logger,
	}
}

// listingText joins the fields the embedding is computed from. Blank text
// yields no embedding (the provider skips the model call).
func listingText(title, description string) string {
	return strings.TrimSpace(title + " " + description)
}

// CreateItem embeds the listing text and persists the item. Embedding failures
// abort the create.
func (s *ItemsService) CreateItem(ctx context.Context, req *models.CreateItemRequest) (*models.Item, error) {
	embedding, err := s.embedder.GenerateEmbedding(ctx, listingText(req.Title, req.Description))
	if err != nil {
		s.logger.Error("embed listing failed on create", "error", err)

		return nil, fmt.Errorf("embed listing: %w", err)
	}

	item, err := s.itemsRepo.Create(ctx, req, embedding)
	if err != nil {
		s.logger.Error("create item failed", "error", err)

		return nil, fmt.Errorf("create item: %w", err)
	}

	s.logger.Info("item created", "itemId", item.ID.String(), "sellerId", item.SellerID.String())

	return item, nil
}

// GetItem retrieves one item. A missing item surfaces as a not-found error for
// the handler to map.
func (s *ItemsService) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	item, err := s.itemsRepo.GetByID(ctx, id)
	if err != nil {
		//nolint:wrapcheck // pass through so the handler can map not-found to 404
		return nil, err
	}

	return item, nil
}

// UpdateItem applies the provided fields. A title or description change
// recomputes the embedding from the merged text before the update is written;
// an embedding failure aborts the whole update.
func (s *ItemsService) UpdateItem(ctx context.Context, id uuid.UUID, req *models.UpdateItemRequest) (*models.Item, error) {
	reembed := req.Title != nil || req.Description != nil

	var embedding []float32

	if reembed {
		current, err := s.itemsRepo.GetByID(ctx, id)
		if err != nil {
			//nolint:wrapcheck // pass through so the handler can map not-found to 404
			return nil, err
		}

		title := current.Title
		if req.Title != nil {
			title = *req.Title
		}

		description := current.Description
		if req.Description != nil {
			description = *req.Description
		}

		embedding, err = s.embedder.GenerateEmbedding(ctx, listingText(title, description))
		if err != nil {
			s.logger.Error("embed listing failed on update", "error", err, "itemId", id.String())

			return nil, fmt.Errorf("embed listing: %w", err)
		}
	}

	item, err := s.itemsRepo.Update(ctx, id, req, embedding, reembed)
	if err != nil {
		//nolint:wrapcheck // pass through so the handler can map not-found to 404
		return nil, err
	}

	return item, nil
}

// DeleteItem removes an item.
func (s *ItemsService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if err := s.itemsRepo.Delete(ctx, id); err != nil {
		//nolint:wrapcheck // pass through so the handler can map not-found to 404
		return err
	}

	s.logger.Info("item deleted", "itemId", id.String())

	return nil
}

// ListItems browses the catalog with the given filters. Used for seller-scoped
// listings; general search goes through SearchService.
func (s *ItemsService) ListItems(ctx context.Context, filters *models.ListItemsFilters) ([]models.Item, error) {
	items, err := s.itemsRepo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	return items, nil
}
