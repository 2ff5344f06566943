// Package main provides the Sales Engine API server entrypoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hennyi-ai/sales-engine/internal/assistant"
	"github.com/hennyi-ai/sales-engine/internal/cache"
	"github.com/hennyi-ai/sales-engine/internal/catalog"
	"github.com/hennyi-ai/sales-engine/internal/config"
	"github.com/hennyi-ai/sales-engine/internal/embedding"
	"github.com/hennyi-ai/sales-engine/internal/llm"
	"github.com/hennyi-ai/sales-engine/internal/observability"
	"github.com/hennyi-ai/sales-engine/internal/retrieval"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Driver).
		Str("cache", cfg.Cache.Driver).
		Msg("Starting Sales Engine API")

	repo, err := catalog.OpenRepository(catalog.RepositoryConfig{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.DatabaseDSN(),
		MaxOpenConns:    cfg.Database.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Database.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open inventory database")
	}
	defer repo.Close()

	if err := repo.Init(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize inventory schema")
	}

	a, err := buildAssistant(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build assistant")
	}

	loadStartupCatalog(cfg, logger, repo, a)

	router := NewRouter(logger, a, repo, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}

// buildAssistant wires the embedding client, query cache, and completion
// gateway into an assistant.
func buildAssistant(cfg *config.Config, logger *observability.Logger) (*assistant.Assistant, error) {
	embClient, err := embedding.NewClient(embedding.ClientConfig{
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
		BaseURL: cfg.Embedding.BaseURL,
		Timeout: cfg.Embedding.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding client: %w", err)
	}

	var cacheClient cache.Client
	if cfg.Cache.Driver == "redis" {
		cacheClient, err = cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
	} else {
		cacheClient = cache.NewMemoryClient(cfg.Cache.MaxEntries)
	}

	embedder := embedding.NewCachedEmbedder(embClient, cacheClient, cfg.Embedding.Model, cfg.Cache.TTL, logger)

	llmClient, err := llm.NewClient(llm.ClientConfig{
		APIKey:  cfg.Completion.APIKey,
		BaseURL: cfg.Completion.BaseURL,
		Model:   cfg.Completion.Model,
		Timeout: cfg.Completion.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("completion client: %w", err)
	}

	gateway := llm.NewGateway(llmClient, cfg.Completion.MaxTokens, cfg.Completion.Temperature, logger)

	return assistant.New(embedder, gateway, assistant.Options{
		TopK:            cfg.Retrieval.TopK,
		ScoreThreshold:  cfg.Retrieval.ScoreThreshold,
		Policy:          retrieval.Policy(cfg.Retrieval.Policy),
		MaxHistoryTurns: cfg.Chat.MaxHistoryTurns,
		BatchSize:       cfg.Embedding.BatchSize,
		Dimension:       cfg.Embedding.Dimension,
	}, logger), nil
}

// loadStartupCatalog embeds whatever inventory is already in the database.
// An empty database is fine; the server starts and answers with the
// no-data excerpt until a reload.
func loadStartupCatalog(cfg *config.Config, logger *observability.Logger, repo *catalog.Repository, a *assistant.Assistant) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	records, err := repo.ListRecords(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read inventory at startup")
		return
	}
	if len(records) == 0 {
		logger.Warn().Msg("Inventory database is empty, starting without a catalog")
		return
	}

	n, err := a.LoadCatalog(ctx, records, nil)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load catalog at startup")
		return
	}
	logger.Info().Int("vehicles", n).Msg("Catalog loaded")
}
