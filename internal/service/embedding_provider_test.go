package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusmarket/marketplace/internal/embeddings"
)

type mockEmbeddingClient struct {
	createEmbeddingFunc func(ctx context.Context, input string) ([]float32, error)
	calls               atomic.Int64
}

func (m *mockEmbeddingClient) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	m.calls.Add(1)

	if m.createEmbeddingFunc != nil {
		return m.createEmbeddingFunc(ctx, input)
	}

	return []float32{0.1, 0.2, 0.3}, nil
}

func TestEmbeddingProvider_GenerateEmbedding(t *testing.T) {
	ctx := context.Background()

	t.Run("returns embedding from constructed client", func(t *testing.T) {
		client := &mockEmbeddingClient{}
		provider := NewEmbeddingProvider(func() (embeddings.Client, error) {
			return client, nil
		}, nil, nil)

		vector, err := provider.GenerateEmbedding(ctx, "winter jacket barely used")

		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
		assert.Equal(t, int64(1), client.calls.Load())
	})

	t.Run("constructs client exactly once across calls", func(t *testing.T) {
		var constructed atomic.Int64

		client := &mockEmbeddingClient{}
		provider := NewEmbeddingProvider(func() (embeddings.Client, error) {
			constructed.Add(1)

			return client, nil
		}, nil, nil)

		_, err := provider.GenerateEmbedding(ctx, "first")
		require.NoError(t, err)
		_, err = provider.GenerateEmbedding(ctx, "second")
		require.NoError(t, err)

		assert.Equal(t, int64(1), constructed.Load())
		assert.Equal(t, int64(2), client.calls.Load())
	})

	t.Run("constructs client exactly once under concurrency", func(t *testing.T) {
		var constructed atomic.Int64

		client := &mockEmbeddingClient{}
		provider := NewEmbeddingProvider(func() (embeddings.Client, error) {
			constructed.Add(1)

			return client, nil
		}, nil, nil)

		const callers = 16

		var wg sync.WaitGroup
		for range callers {
			wg.Add(1)

			go func() {
				defer wg.Done()

				_, err := provider.GenerateEmbedding(ctx, "concurrent text")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(1), constructed.Load())
		assert.Equal(t, int64(callers), client.calls.Load())
	})

	t.Run("blank text returns nil without constructing", func(t *testing.T) {
		var constructed atomic.Int64

		provider := NewEmbeddingProvider(func() (embeddings.Client, error) {
			constructed.Add(1)

			return &mockEmbeddingClient{}, nil
		}, nil, nil)

		for _, input := range []string{"", "   ", "\t\n"} {
			vector, err := provider.GenerateEmbedding(ctx, input)

			require.NoError(t, err)
			assert.Nil(t, vector)
		}

		assert.Equal(t, int64(0), constructed.Load())
	})

	t.Run("construction error propagates and is cached", func(t *testing.T) {
		var constructed atomic.Int64

		constructErr := errors.New("missing api key")
		provider := NewEmbeddingProvider(func() (embeddings.Client, error) {
			constructed.Add(1)

			return nil, constructErr
		}, nil, nil)

		_, err := provider.GenerateEmbedding(ctx, "text")
		require.ErrorIs(t, err, constructErr)

		_, err = provider.GenerateEmbedding(ctx, "text again")
		require.ErrorIs(t, err, constructErr)

		assert.Equal(t, int64(1), constructed.Load())
	})

	t.Run("encode error propagates", func(t *testing.T) {
		encodeErr := errors.New("model overloaded")
		client := &mockEmbeddingClient{
			createEmbeddingFunc: func(_ context.Context, _ string) ([]float32, error) {
				return nil, encodeErr
			},
		}
		provider := NewEmbeddingProvider(func() (embeddings.Client, error) {
			return client, nil
		}, nil, nil)

		_, err := provider.GenerateEmbedding(ctx, "text")

		require.ErrorIs(t, err, encodeErr)
	})
}
