package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/campusmarket/marketplace/internal/models"
	"github.com/campusmarket/marketplace/internal/observability"
	"github.com/campusmarket/marketplace/pkg/cache"
	"github.com/campusmarket/marketplace/pkg/vectormath"
)

const (
	searchQueryEmbeddingCacheName = "search_query_embedding"

	// DefaultSearchLimit bounds a search page when the caller does not ask for one.
	DefaultSearchLimit = 24

	// semanticCandidateLimit bounds how many embedded items are scored per query.
	// Candidates come back newest first, so the ranking covers the most recent
	// slice of the catalog.
	semanticCandidateLimit = 500

	// minSemanticScore is the similarity floor for a semantic match. Scores below
	// it are noise for short listing texts and would surface unrelated items.
	minSemanticScore = 0.3
)

// ItemsRepositoryForSearch provides the item read operations needed by search.
type ItemsRepositoryForSearch interface {
	List(ctx context.Context, filters *models.ListItemsFilters) ([]models.Item, error)
	ListEmbedded(ctx context.Context, category *string, limit int) ([]models.Item, error)
}

// QueryEmbedder converts query text to an embedding vector. Blank text yields (nil, nil).
type QueryEmbedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// SearchResult is the outcome of one search. SemanticRan reports whether
// embedding similarity contributed to the ranking; Degraded is set when a
// non-empty query fell back to keyword-only because the embedding step failed.
// An empty Items with SemanticRan true is a genuine "no results" state, not a
// fallback to unrelated listings.
type SearchResult struct {
	Items       []models.ItemWithScore
	SemanticRan bool
	Degraded    bool
}

// SearchService ranks catalog items by blending keyword matching with embedding
// similarity.
type SearchService struct {
	itemsRepo    ItemsRepositoryForSearch
	embedder     QueryEmbedder
	queryCache   *cache.LoaderCache[[]float32]
	cacheMetrics observability.CacheMetrics
	metrics      observability.RecommendationMetrics
	logger       *slog.Logger
}

// SearchServiceParams configures SearchService. QueryCache, CacheMetrics and
// Metrics may be nil (no caching / no metrics).
type SearchServiceParams struct {
	ItemsRepo    ItemsRepositoryForSearch
	Embedder     QueryEmbedder
	QueryCache   *cache.LoaderCache[[]float32]
	CacheMetrics observability.CacheMetrics
	Metrics      observability.RecommendationMetrics
	Logger       *slog.Logger
}

// NewSearchService creates a SearchService.
func NewSearchService(p SearchServiceParams) *SearchService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SearchService{
		itemsRepo:    p.ItemsRepo,
		embedder:     p.Embedder,
		queryCache:   p.QueryCache,
		cacheMetrics: p.CacheMetrics,
		metrics:      p.Metrics,
		logger:       logger,
	}
}

// SearchItems searches the catalog. An empty (or whitespace-only) query is
// plain browsing: catalog filters and sort only, no semantic component. A
// non-empty query is embedded and scored against items with stored embeddings,
// then merged with keyword matches; items without embeddings can still surface
// through the keyword path. If embedding the query fails, the search degrades
// to keyword-only instead of failing the request.
func (s *SearchService) SearchItems(ctx context.Context, filters *models.ListItemsFilters) (SearchResult, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	query := ""
	if filters.Search != nil {
		query = strings.TrimSpace(*filters.Search)
	}

	if query == "" {
		return s.browse(ctx, filters, limit)
	}

	queryEmbedding, err := s.queryEmbedding(ctx, query)
	if err != nil || queryEmbedding == nil {
		if err != nil {
			s.logger.Warn("search degrading to keyword-only: query embedding failed", "error", err)
		}

		return s.keywordOnly(ctx, filters, limit)
	}

	semantic, err := s.semanticMatches(ctx, filters, queryEmbedding)
	if err != nil {
		return SearchResult{}, err
	}

	scoped := *filters
	scoped.Limit = limit

	keyword, err := s.itemsRepo.List(ctx, &scoped)
	if err != nil {
		s.logger.Error("keyword search failed", "error", err)

		return SearchResult{}, fmt.Errorf("list items: %w", err)
	}

	merged := semantic
	seen := make(map[string]bool, len(semantic))

	for _, match := range semantic {
		seen[match.Item.ID.String()] = true
	}

	for _, item := range keyword {
		if seen[item.ID.String()] {
			continue
		}

		seen[item.ID.String()] = true

		merged = append(merged, models.ItemWithScore{Item: item})
	}

	if len(merged) > limit {
		merged = merged[:limit]
	}

	if s.metrics != nil {
		s.metrics.RecordSearch(ctx, "semantic")
	}

	return SearchResult{Items: merged, SemanticRan: true}, nil
}

// browse is the empty-query path: catalog filters and sort, zero scores.
func (s *SearchService) browse(ctx context.Context, filters *models.ListItemsFilters, limit int) (SearchResult, error) {
	scoped := *filters
	scoped.Search = nil
	scoped.Limit = limit

	items, err := s.itemsRepo.List(ctx, &scoped)
	if err != nil {
		s.logger.Error("catalog browse failed", "error", err)

		return SearchResult{}, fmt.Errorf("list items: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordSearch(ctx, "browse")
	}

	return SearchResult{Items: withZeroScores(items)}, nil
}

// keywordOnly is the degraded path for a non-empty query whose embedding failed.
func (s *SearchService) keywordOnly(ctx context.Context, filters *models.ListItemsFilters, limit int) (SearchResult, error) {
	scoped := *filters
	scoped.Limit = limit

	items, err := s.itemsRepo.List(ctx, &scoped)
	if err != nil {
		s.logger.Error("keyword search failed", "error", err)

		return SearchResult{}, fmt.Errorf("list items: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordSearch(ctx, "keyword_only")
	}

	return SearchResult{Items: withZeroScores(items), Degraded: true}, nil
}

// semanticMatches scores embedded catalog items against the query embedding and
// returns those above the similarity floor, best first. Candidates arrive
// newest first and the sort is stable, so equal scores keep recency order.
func (s *SearchService) semanticMatches(
	ctx context.Context, filters *models.ListItemsFilters, queryEmbedding []float32,
) ([]models.ItemWithScore, error) {
	candidates, err := s.itemsRepo.ListEmbedded(ctx, filters.Category, semanticCandidateLimit)
	if err != nil {
		s.logger.Error("list embedded items failed", "error", err)

		return nil, fmt.Errorf("list embedded items: %w", err)
	}

	matches := []models.ItemWithScore{}

	for _, item := range candidates {
		if filters.SellerID != nil && item.SellerID != *filters.SellerID {
			continue
		}

		score := vectormath.CosineSimilarity(queryEmbedding, item.Embedding)
		if score < minSemanticScore {
			continue
		}

		matches = append(matches, models.ItemWithScore{Item: item, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches, nil
}

func (s *SearchService) queryEmbedding(ctx context.Context, query string) ([]float32, error) {
	if s.queryCache == nil {
		return s.embedder.GenerateEmbedding(ctx, query)
	}

	embedding, hit, err := s.queryCache.Get(ctx, query, func(ctx context.Context, key string) ([]float32, error) {
		return s.embedder.GenerateEmbedding(ctx, key)
	})
	if err != nil {
		return nil, err
	}

	if s.cacheMetrics != nil {
		if hit {
			s.cacheMetrics.RecordHit(ctx, searchQueryEmbeddingCacheName)
		} else {
			s.cacheMetrics.RecordMiss(ctx, searchQueryEmbeddingCacheName)
		}
	}

	return embedding, nil
}

func withZeroScores(items []models.Item) []models.ItemWithScore {
	scored := make([]models.ItemWithScore, 0, len(items))
	for _, item := range items {
		scored = append(scored, models.ItemWithScore{Item: item})
	}

	return scored
}
