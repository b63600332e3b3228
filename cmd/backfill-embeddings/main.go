// backfill-embeddings embeds items that have listing text but no stored
// embedding. Run it once after enabling the embedding backend, or after bulk
// imports; item create/edit keeps embeddings current afterwards.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/campusmarket/marketplace/internal/config"
	"github.com/campusmarket/marketplace/internal/embeddings"
	"github.com/campusmarket/marketplace/internal/repository"
	"github.com/campusmarket/marketplace/pkg/database"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)

		return exitFailure
	}

	if cfg.OpenAIAPIKey == "" {
		slog.Error("OPENAI_API_KEY is required for backfill")

		return exitFailure
	}

	ctx := context.Background()

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, database.WithPgvector())
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)

		return exitFailure
	}
	defer db.Close()

	client := embeddings.NewRateLimitedClient(
		embeddings.NewOpenAIClient(cfg.OpenAIAPIKey,
			embeddings.WithModel(cfg.EmbeddingModel),
			embeddings.WithDimensions(cfg.EmbeddingDimensions),
		),
		cfg.EmbeddingRateLimit,
	)

	itemsRepo := repository.NewItemsRepository(db)

	embedded, failed, err := backfill(ctx, itemsRepo, client)
	if err != nil {
		slog.Error("Backfill failed", "error", err)

		return exitFailure
	}

	slog.Info("Backfill complete", "embedded", embedded, "failed", failed)

	fmt.Printf("Embedded %d item(s), %d failure(s).\n", embedded, failed)

	if failed > 0 {
		return exitFailure
	}

	return exitSuccess
}

// backfill embeds each pending item one at a time, continuing past individual
// failures so one bad item does not abort the run.
func backfill(ctx context.Context, itemsRepo *repository.ItemsRepository, client embeddings.Client) (embedded, failed int, err error) {
	ids, err := itemsRepo.ListIDsForEmbeddingBackfill(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list items for backfill: %w", err)
	}

	slog.Info("Backfill starting", "pending", len(ids))

	for _, id := range ids {
		item, err := itemsRepo.GetByID(ctx, id)
		if err != nil {
			// Deleted since listing; skip.
			slog.Warn("Skipping item", "itemId", id.String(), "error", err)

			failed++

			continue
		}

		vector, err := client.CreateEmbedding(ctx, item.Title+" "+item.Description)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return embedded, failed, fmt.Errorf("embed item %s: %w", id, err)
			}

			slog.Warn("Embedding failed", "itemId", id.String(), "error", err)

			failed++

			continue
		}

		if err := itemsRepo.UpdateEmbedding(ctx, id, vector); err != nil {
			slog.Warn("Storing embedding failed", "itemId", id.String(), "error", err)

			failed++

			continue
		}

		embedded++
	}

	return embedded, failed, nil
}
