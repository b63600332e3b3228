// Package observability provides OpenTelemetry metrics and logging helpers for the marketplace API.
package observability

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameRecommendationsServed = "market_recommendations_served_total"
	MetricNameViewsTracked          = "market_item_views_tracked_total"
	MetricNameSearches              = "market_searches_total"
	MetricNameEmbeddingOutcomes     = "market_embedding_outcomes_total"
	MetricNameEmbeddingDuration     = "market_embedding_duration_seconds"
	MetricNameCacheHits             = "market_cache_hits_total"
	MetricNameCacheMisses           = "market_cache_misses_total"
)

// Attribute keys.
const (
	AttrSource = "source"
	AttrMode   = "mode"
	AttrStatus = "status"
	AttrCache  = "cache"
)

// AllowedRecommendationSources for market_recommendations_served_total.
var AllowedRecommendationSources = map[string]bool{
	"personalized": true,
	"trending":     true,
}

// AllowedSearchModes for market_searches_total.
var AllowedSearchModes = map[string]bool{
	"browse":       true,
	"semantic":     true,
	"keyword_only": true,
}

// AllowedEmbeddingStatuses for market_embedding_outcomes_total and market_embedding_duration_seconds.
var AllowedEmbeddingStatuses = map[string]bool{
	"success": true,
	"empty":   true,
	"error":   true,
}

// AllowedCacheNames for market_cache_hits_total / market_cache_misses_total.
var AllowedCacheNames = map[string]bool{
	"search_query_embedding": true,
}

// NormalizeAttr returns value if in allowed, otherwise "other". Keeps attribute
// cardinality bounded regardless of caller input.
func NormalizeAttr(value string, allowed map[string]bool) string {
	if allowed[value] {
		return value
	}

	return "other"
}
