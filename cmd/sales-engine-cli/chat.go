package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hennyi-ai/sales-engine/internal/assistant"
	"github.com/hennyi-ai/sales-engine/internal/cache"
	"github.com/hennyi-ai/sales-engine/internal/catalog"
	"github.com/hennyi-ai/sales-engine/internal/config"
	"github.com/hennyi-ai/sales-engine/internal/embedding"
	"github.com/hennyi-ai/sales-engine/internal/llm"
	"github.com/hennyi-ai/sales-engine/internal/retrieval"
)

// newChatCmd creates the chat subcommand.
func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with Hennyi over the loaded inventory",
		Long: `Chat starts an interactive conversation with the sales assistant.

Type "exit" or "quit" to leave, "clear" to reset the conversation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			repo, err := openRepository(cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer repo.Close()

			a, err := buildAssistant()
			if err != nil {
				return fmt.Errorf("build assistant: %w", err)
			}

			records, err := repo.ListRecords(ctx)
			if err != nil {
				return fmt.Errorf("read inventory: %w", err)
			}
			if len(records) == 0 {
				Error("Inventory database is empty. Run 'sales-engine-cli ingest' first.")
			} else {
				bar := NewProgressBar(int64(len(records)), "embedding catalog")
				n, err := a.LoadCatalog(ctx, records, func(done, total int) {
					_ = bar.Set(done)
				})
				if err != nil {
					return fmt.Errorf("load catalog: %w", err)
				}
				Success("Loaded %d vehicles", n)
			}

			return runChatLoop(ctx, a)
		},
	}

	return cmd
}

// runChatLoop reads customer input and prints Hennyi's replies until the
// customer leaves.
func runChatLoop(ctx context.Context, a *assistant.Assistant) error {
	session := a.NewSession()
	Info("Hennyi is ready. Type 'exit' to leave, 'clear' to reset the conversation.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "exit", "quit":
			Info("Goodbye!")
			return nil
		case "clear":
			session.ClearHistory()
			Success("Conversation cleared")
			continue
		}

		s := NewSpinner("thinking...")
		s.Start()
		reply, err := a.Respond(ctx, session, input)
		s.Stop()
		if err != nil {
			Error("Assistant failed: %v", err)
			continue
		}

		Assistant(reply)
	}
}

// buildAssistant wires the embedding client, query cache, and completion
// gateway into an assistant from the loaded config.
func buildAssistant() (*assistant.Assistant, error) {
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

// openRepository opens and initializes the inventory database.
func openRepository(cfg *config.Config) (*catalog.Repository, error) {
	repo, err := catalog.OpenRepository(catalog.RepositoryConfig{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.DatabaseDSN(),
		MaxOpenConns:    cfg.Database.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Database.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := repo.Init(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}
