package embeddings

import (
	"context"
	"crypto/sha256"

	"github.com/campusmarket/marketplace/pkg/vectormath"
)

// MockClient implements Client for tests and local development.
// It generates deterministic unit-length embeddings from the input text hash,
// so equal texts always embed identically.
type MockClient struct {
	dimensions int
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates a mock embedding client with the default dimensions.
func NewMockClient() *MockClient {
	return &MockClient{dimensions: DefaultDimensions}
}

// NewMockClientWithDimensions creates a mock client with custom dimensions.
func NewMockClientWithDimensions(dimensions int) *MockClient {
	return &MockClient{dimensions: dimensions}
}

// CreateEmbedding generates a deterministic embedding from the text hash.
func (c *MockClient) CreateEmbedding(_ context.Context, input string) ([]float32, error) {
	if input == "" {
		return nil, ErrEmptyInput
	}

	hash := sha256.Sum256([]byte(input))
	embedding := make([]float32, c.dimensions)

	for i := range embedding {
		// Cycle hash bytes into [-1, 1]
		embedding[i] = (float32(hash[i%len(hash)]) / 127.5) - 1.0
	}

	vectormath.NormalizeL2(embedding)

	return embedding, nil
}
