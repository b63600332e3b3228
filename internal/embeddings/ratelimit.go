package embeddings

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedClient wraps a Client with a token-bucket limiter so embedding
// calls stay under the provider's API rate limit. Callers block until a token
// is available or the context is cancelled.
type RateLimitedClient struct {
	inner   Client
	limiter *rate.Limiter
}

var _ Client = (*RateLimitedClient)(nil)

// NewRateLimitedClient wraps inner with a limiter of requestsPerSecond (burst of the same size).
func NewRateLimitedClient(inner Client, requestsPerSecond int) *RateLimitedClient {
	return &RateLimitedClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

// CreateEmbedding waits for limiter admission, then delegates to the wrapped client.
func (c *RateLimitedClient) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limiter: %w", err)
	}

	return c.inner.CreateEmbedding(ctx, input)
}
