// Package embeddings provides the text-to-vector encoding clients used for
// listing embeddings and semantic search.
package embeddings

import "context"

// Client generates embedding vectors for text.
// The marketplace depends on exactly one externally provided backend at a time.
type Client interface {
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)
}
