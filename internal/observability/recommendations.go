package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RecommendationMetrics records recommendation and interaction metrics.
type RecommendationMetrics interface {
	// RecordServed counts recommended items by source (personalized or trending).
	RecordServed(ctx context.Context, source string, count int64)
	// RecordViewTracked counts tracked item views.
	RecordViewTracked(ctx context.Context)
	// RecordSearch counts searches by mode (browse, semantic, keyword_only).
	RecordSearch(ctx context.Context, mode string)
}

type recommendationMetrics struct {
	served   metric.Int64Counter
	views    metric.Int64Counter
	searches metric.Int64Counter
}

// NewRecommendationMetrics creates RecommendationMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewRecommendationMetrics(meter metric.Meter) (RecommendationMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	served, err := meter.Int64Counter(
		MetricNameRecommendationsServed,
		metric.WithDescription("Total recommended items served, by source (personalized, trending)"),
	)
	if err != nil {
		return nil, fmt.Errorf("create recommendations served counter: %w", err)
	}

	views, err := meter.Int64Counter(
		MetricNameViewsTracked,
		metric.WithDescription("Total item views tracked"),
	)
	if err != nil {
		return nil, fmt.Errorf("create views tracked counter: %w", err)
	}

	searches, err := meter.Int64Counter(
		MetricNameSearches,
		metric.WithDescription("Total searches, by mode (browse, semantic, keyword_only)"),
	)
	if err != nil {
		return nil, fmt.Errorf("create searches counter: %w", err)
	}

	return &recommendationMetrics{served: served, views: views, searches: searches}, nil
}

func (m *recommendationMetrics) RecordServed(ctx context.Context, source string, count int64) {
	source = NormalizeAttr(source, AllowedRecommendationSources)
	m.served.Add(ctx, count, metric.WithAttributes(attribute.String(AttrSource, source)))
}

func (m *recommendationMetrics) RecordViewTracked(ctx context.Context) {
	m.views.Add(ctx, 1)
}

func (m *recommendationMetrics) RecordSearch(ctx context.Context, mode string) {
	mode = NormalizeAttr(mode, AllowedSearchModes)
	m.searches.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrMode, mode)))
}
