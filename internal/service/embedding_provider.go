// Package service implements the marketplace recommendation and search core.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/campusmarket/marketplace/internal/embeddings"
	"github.com/campusmarket/marketplace/internal/observability"
)

// EmbeddingProvider hands out the process-wide embedding client, constructing it
// lazily on first use. Construction is expensive and happens at most once per
// process regardless of call volume or concurrency; concurrent first callers
// block on the same construction. A construction failure is also cached: it
// signals a misconfigured environment, not a transient condition.
type EmbeddingProvider struct {
	construct func() (embeddings.Client, error)

	once         sync.Once
	client       embeddings.Client
	constructErr error

	metrics observability.EmbeddingMetrics
	logger  *slog.Logger
}

// NewEmbeddingProvider creates a provider that constructs its client via construct
// on first use. metrics may be nil when metrics are disabled; logger may be nil.
func NewEmbeddingProvider(
	construct func() (embeddings.Client, error),
	metrics observability.EmbeddingMetrics,
	logger *slog.Logger,
) *EmbeddingProvider {
	if logger == nil {
		logger = slog.Default()
	}

	return &EmbeddingProvider{
		construct: construct,
		metrics:   metrics,
		logger:    logger,
	}
}

func (p *EmbeddingProvider) sharedClient() (embeddings.Client, error) {
	p.once.Do(func() {
		p.client, p.constructErr = p.construct()
		if p.constructErr == nil {
			p.logger.Info("embedding client constructed")
		}
	})

	if p.constructErr != nil {
		return nil, fmt.Errorf("construct embedding client: %w", p.constructErr)
	}

	return p.client, nil
}

// GenerateEmbedding converts text to an embedding vector. Blank or
// whitespace-only text returns (nil, nil) without constructing or invoking the
// model. Construction and encode failures propagate to the caller; this
// provider never swallows them.
func (p *EmbeddingProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		if p.metrics != nil {
			p.metrics.RecordEmbeddingOutcome(ctx, "empty")
		}

		return nil, nil
	}

	client, err := p.sharedClient()
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordEmbeddingOutcome(ctx, "error")
		}

		return nil, err
	}

	start := time.Now()

	vector, err := client.CreateEmbedding(ctx, text)
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordEmbeddingOutcome(ctx, "error")
			p.metrics.RecordEmbeddingDuration(ctx, time.Since(start), "error")
		}

		return nil, fmt.Errorf("create embedding: %w", err)
	}

	if p.metrics != nil {
		p.metrics.RecordEmbeddingOutcome(ctx, "success")
		p.metrics.RecordEmbeddingDuration(ctx, time.Since(start), "success")
	}

	return vector, nil
}
