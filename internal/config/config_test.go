package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.InDelta(t, 0.2, cfg.Retrieval.ScoreThreshold, 1e-9)
	assert.Equal(t, "lenient", cfg.Retrieval.Policy)
	assert.Equal(t, 10, cfg.Chat.MaxHistoryTurns)
	assert.Equal(t, 300, cfg.Completion.MaxTokens)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
server:
  port: 9090
retrieval:
  top_k: 5
  score_threshold: 0.35
  policy: topk
chat:
  max_history_turns: 4
cache:
  driver: redis
  ttl: 1m
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.InDelta(t, 0.35, cfg.Retrieval.ScoreThreshold, 1e-9)
	assert.Equal(t, "topk", cfg.Retrieval.Policy)
	assert.Equal(t, 4, cfg.Chat.MaxHistoryTurns)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "8123")
	t.Setenv("DATABASE_URL", "sqlite:/tmp/test-inventory.db")
	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	t.Setenv("COMPLETION_MODEL", "openai/gpt-4o")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8123, cfg.Server.Port)
	assert.Equal(t, "/tmp/test-inventory.db", cfg.Database.SQLite.Path)
	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
	assert.Equal(t, "sk-test", cfg.Completion.APIKey)
	assert.Equal(t, "openai/gpt-4o", cfg.Completion.Model)
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"bad cache", func(c *Config) { c.Cache.Driver = "memcached" }},
		{"bad dimension", func(c *Config) { c.Embedding.Dimension = 0 }},
		{"bad top_k", func(c *Config) { c.Retrieval.TopK = 0 }},
		{"bad threshold", func(c *Config) { c.Retrieval.ScoreThreshold = 1.5 }},
		{"bad policy", func(c *Config) { c.Retrieval.Policy = "strictest" }},
		{"bad history", func(c *Config) { c.Chat.MaxHistoryTurns = 0 }},
		{"bad max sessions", func(c *Config) { c.Chat.MaxSessions = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cfg.Database.SQLite.Path, cfg.DatabaseDSN())

	cfg.Database.Driver = "postgres"
	cfg.Database.Postgres.DSN = "postgres://localhost/inventory"
	assert.Equal(t, "postgres://localhost/inventory", cfg.DatabaseDSN())
}
