package observability

import (
	"go.opentelemetry.io/otel/metric"
)

// Metrics bundles the marketplace metric groups built from one meter.
type Metrics struct {
	Recommendations RecommendationMetrics
	Embeddings      EmbeddingMetrics
	Cache           CacheMetrics
}

// NewMetrics creates all metric groups from the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	recommendations, err := NewRecommendationMetrics(meter)
	if err != nil {
		return nil, err
	}

	embeddings, err := NewEmbeddingMetrics(meter)
	if err != nil {
		return nil, err
	}

	cacheMetrics, err := NewCacheMetrics(meter)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		Recommendations: recommendations,
		Embeddings:      embeddings,
		Cache:           cacheMetrics,
	}, nil
}
