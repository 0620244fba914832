package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "707172737475767778797a7b7c7d7e7f808182838485868788898a8b8c8d8e8f"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TOKEN_KEY", testKey)

	cfg, err := Load("brain")
	require.NoError(t, err)

	assert.Equal(t, "brain", cfg.Service.Name)
	assert.Equal(t, 3000, cfg.Service.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Service.CORSOrigins)
	assert.Equal(t, DefaultEmbeddingModel, cfg.Embedding.Model)
	assert.Equal(t, DefaultIndex, cfg.VectorStore.Index)
	assert.Equal(t, DefaultTopK, cfg.VectorStore.TopK)
	assert.Equal(t, 15*time.Second, cfg.Extractor.FetchTimeout)
	assert.Equal(t, 1024, cfg.Ingestion.QueueSize)
	assert.Equal(t, 2*time.Minute, cfg.Ingestion.JobTimeout)
	assert.False(t, cfg.Service.LossyTagLookup)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TOKEN_KEY", testKey)
	t.Setenv("PORT", "8081")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("VECTOR_STORE", "memory")
	t.Setenv("INGEST_POOL_SIZE", "2")
	t.Setenv("INGEST_JOB_TTL", "1h")
	t.Setenv("TAGS_LOSSY_LOOKUP", "true")

	cfg, err := Load("brain")
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Service.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Service.CORSOrigins)
	assert.Equal(t, "memory", cfg.VectorStore.Backend)
	assert.Equal(t, 2, cfg.Ingestion.PoolSize)
	assert.Equal(t, time.Hour, cfg.Ingestion.JobTTL)
	assert.True(t, cfg.Service.LossyTagLookup)
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		t.Setenv("TOKEN_KEY", testKey)
		cfg, err := Load("brain")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Service.Port = 0 }, "invalid port"},
		{"short key", func(c *Config) { c.Auth.TokenKey = "abc" }, "TOKEN_KEY"},
		{"non hex key", func(c *Config) { c.Auth.TokenKey = strings.Repeat("z", 64) }, "not valid hex"},
		{"provider", func(c *Config) { c.Embedding.Provider = "cohere" }, "embedding provider"},
		{"store", func(c *Config) { c.VectorStore.Backend = "qdrant" }, "vector store"},
		{"top k", func(c *Config) { c.VectorStore.TopK = 0 }, "top_k"},
		{"pool", func(c *Config) { c.Ingestion.PoolSize = 0 }, "pool size"},
		{"conns", func(c *Config) { c.Database.MinConns = 99 }, "max_conns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNeedsRedis(t *testing.T) {
	cfg := &Config{Ingestion: IngestionConfig{StatusStore: "memory"}}
	assert.False(t, cfg.NeedsRedis())

	cfg.RateLimit.Enabled = true
	assert.True(t, cfg.NeedsRedis())

	cfg.RateLimit.Enabled = false
	cfg.Ingestion.StatusStore = "redis"
	assert.True(t, cfg.NeedsRedis())
}
