package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/campusmarket/marketplace/internal/api/handlers"
	"github.com/campusmarket/marketplace/internal/api/middleware"
	"github.com/campusmarket/marketplace/internal/config"
	"github.com/campusmarket/marketplace/internal/embeddings"
	"github.com/campusmarket/marketplace/internal/observability"
	"github.com/campusmarket/marketplace/internal/repository"
	"github.com/campusmarket/marketplace/internal/service"
	"github.com/campusmarket/marketplace/pkg/cache"
	"github.com/campusmarket/marketplace/pkg/database"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel)

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, database.WithPgvector())
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Metrics are disabled unless OTEL_METRICS_EXPORTER=otlp.
	meterProvider, err := observability.NewMeterProvider(cfg)
	if err != nil {
		slog.Error("Failed to initialize metrics", "error", err)
		os.Exit(1)
	}

	metrics := &observability.Metrics{}

	if meterProvider != nil {
		metrics, err = observability.NewMetrics(meterProvider.Meter("marketplace-api"))
		if err != nil {
			slog.Error("Failed to create metrics", "error", err)
			os.Exit(1)
		}

		slog.Info("Metrics enabled", "exporter", "otlp")
	}

	// The embedding client is constructed lazily on first use; a missing
	// OPENAI_API_KEY surfaces as an error on the first operation that embeds.
	embeddingProvider := service.NewEmbeddingProvider(func() (embeddings.Client, error) {
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is not set")
		}

		client := embeddings.NewOpenAIClient(cfg.OpenAIAPIKey,
			embeddings.WithModel(cfg.EmbeddingModel),
			embeddings.WithDimensions(cfg.EmbeddingDimensions),
		)

		return embeddings.NewRateLimitedClient(client, cfg.EmbeddingRateLimit), nil
	}, metrics.Embeddings, slog.Default())

	var queryCache *cache.LoaderCache[[]float32]

	if cfg.QueryEmbeddingCacheSize > 0 {
		queryCache, err = cache.NewLoaderCache[[]float32](cfg.QueryEmbeddingCacheSize)
		if err != nil {
			slog.Error("Failed to create query embedding cache", "error", err)
			os.Exit(1)
		}
	}

	itemsRepo := repository.NewItemsRepository(db)
	interactionsRepo := repository.NewInteractionsRepository(db)
	ordersRepo := repository.NewOrdersRepository(db)

	itemsService := service.NewItemsService(itemsRepo, embeddingProvider, slog.Default())
	ordersService := service.NewOrdersService(ordersRepo, itemsRepo, slog.Default())
	recommendationService := service.NewRecommendationService(service.RecommendationServiceParams{
		ItemsRepo:        itemsRepo,
		InteractionsRepo: interactionsRepo,
		OrdersRepo:       ordersRepo,
		Metrics:          metrics.Recommendations,
	})
	searchService := service.NewSearchService(service.SearchServiceParams{
		ItemsRepo:    itemsRepo,
		Embedder:     embeddingProvider,
		QueryCache:   queryCache,
		CacheMetrics: metrics.Cache,
		Metrics:      metrics.Recommendations,
	})

	itemsHandler := handlers.NewItemsHandler(itemsService)
	ordersHandler := handlers.NewOrdersHandler(ordersService)
	recommendationsHandler := handlers.NewRecommendationsHandler(recommendationService)
	searchHandler := handlers.NewSearchHandler(searchService)
	healthHandler := handlers.NewHealthHandler()

	// Public endpoints (no authentication required).
	publicMux := http.NewServeMux()
	publicMux.HandleFunc("GET /health", healthHandler.Check)

	// Protected endpoints (API key required).
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("POST /v1/items", itemsHandler.Create)
	protectedMux.HandleFunc("GET /v1/items", itemsHandler.List)
	protectedMux.HandleFunc("GET /v1/items/search", searchHandler.Search)
	protectedMux.HandleFunc("GET /v1/items/{id}", itemsHandler.Get)
	protectedMux.HandleFunc("PATCH /v1/items/{id}", itemsHandler.Update)
	protectedMux.HandleFunc("DELETE /v1/items/{id}", itemsHandler.Delete)
	protectedMux.HandleFunc("GET /v1/items/{id}/similar", recommendationsHandler.GetSimilarItems)
	protectedMux.HandleFunc("POST /v1/items/{id}/views", recommendationsHandler.TrackView)

	protectedMux.HandleFunc("GET /v1/users/{id}/recommendations", recommendationsHandler.GetRecommendations)

	protectedMux.HandleFunc("POST /v1/orders", ordersHandler.Create)
	protectedMux.HandleFunc("GET /v1/orders/{id}", ordersHandler.Get)
	protectedMux.HandleFunc("POST /v1/orders/{id}/{action}", ordersHandler.Handle)

	var protectedHandler http.Handler = protectedMux
	protectedHandler = middleware.Auth(cfg.APIKey)(protectedHandler)

	mainMux := http.NewServeMux()
	mainMux.Handle("/v1/", protectedHandler)
	mainMux.Handle("/", publicMux)

	handler := middleware.RequestID(middleware.Logging(slog.Default())(mainMux))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	if err := observability.ShutdownMeterProvider(shutdownCtx, meterProvider); err != nil {
		slog.Error("Metrics shutdown failed", "error", err)
	}

	slog.Info("Server exited")
}

// setupLogging configures slog: JSON output with the request id attached to
// every record that carries one in its context.
func setupLogging(level string) {
	var logLevel slog.Level

	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	inner := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(observability.NewRequestIDHandler(inner)))
}
