package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service     ServiceConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Extractor   ExtractorConfig
	Embedding   EmbeddingConfig
	VectorStore VectorStoreConfig
	Ingestion   IngestionConfig
	RateLimit   RateLimitConfig
	Cache       CacheConfig
	Telemetry   TelemetryConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
	CORSOrigins []string

	// LossyTagLookup drops dangling tag ids from listings instead of failing them
	LossyTagLookup bool
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// RedisConfig holds redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig holds token and password hashing settings
type AuthConfig struct {
	TokenKey   string // 64 hex chars, PASETO v4 local key
	TokenTTL   time.Duration
	BcryptCost int
}

// ExtractorConfig holds credentials and limits for content extraction
type ExtractorConfig struct {
	YouTubeAPIKey      string
	YouTubeAPIURL      string
	TwitterBearerToken string
	TwitterAPIURL      string
	FetchTimeout       time.Duration
	FetchMaxBytes      int64
	AllowPrivateHosts  bool
	RequestsPerSecond  float64
}

// EmbeddingConfig selects and configures the embedding provider
type EmbeddingConfig struct {
	Provider string // "pinecone" or "openai"
	APIKey   string
	APIURL   string
	Model    string
	Timeout  time.Duration
}

// VectorStoreConfig selects and configures the vector index
type VectorStoreConfig struct {
	Backend   string // "pinecone" or "memory"
	APIKey    string
	Index     string
	IndexHost string
	TopK      int
	Timeout   time.Duration
}

// IngestionConfig holds worker pool and job status settings
type IngestionConfig struct {
	PoolSize    int
	QueueSize   int
	JobTimeout  time.Duration
	JobTTL      time.Duration
	StatusStore string // "redis" or "memory"
}

// RateLimitConfig holds API rate limit settings
type RateLimitConfig struct {
	Enabled               bool
	GlobalLimit           int64
	UserLimit             int64
	WindowSeconds         int
	InternalServiceSecret string
}

// CacheConfig holds cache settings
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof bool
	PprofPort   int
}

const (
	DefaultEmbeddingModel = "multilingual-e5-large"
	DefaultIndex          = "second-brain"
	DefaultTopK           = 10
)

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 3000),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
			CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:5173"}),

			LossyTagLookup: getEnvBool("TAGS_LOSSY_LOOKUP", false),
		},
		Database: DatabaseConfig{
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "secondbrain"),
			User:        getEnv("POSTGRES_USER", "secondbrain"),
			Password:    getEnv("POSTGRES_PASSWORD", "secondbrain"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 20),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 2),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			TokenKey:   getEnv("TOKEN_KEY", ""),
			TokenTTL:   getEnvDuration("TOKEN_TTL", 7*24*time.Hour),
			BcryptCost: getEnvInt("BCRYPT_COST", 10),
		},
		Extractor: ExtractorConfig{
			YouTubeAPIKey:      getEnv("YOUTUBE_API_KEY", ""),
			YouTubeAPIURL:      getEnv("YOUTUBE_API_URL", "https://www.googleapis.com/youtube/v3"),
			TwitterBearerToken: getEnv("TWITTER_BEARER_TOKEN", ""),
			TwitterAPIURL:      getEnv("TWITTER_API_URL", "https://api.twitter.com/2"),
			FetchTimeout:       getEnvDuration("FETCH_TIMEOUT", 15*time.Second),
			FetchMaxBytes:      int64(getEnvInt("FETCH_MAX_BYTES", 2<<20)),
			AllowPrivateHosts:  getEnvBool("ALLOW_PRIVATE_HOSTS", false),
			RequestsPerSecond:  getEnvFloat("FETCH_RPS", 5),
		},
		Embedding: EmbeddingConfig{
			Provider: getEnv("EMBEDDING_PROVIDER", "pinecone"),
			APIKey:   getEnv("PINECONE_API_KEY", ""),
			APIURL:   getEnv("EMBEDDING_API_URL", "https://api.pinecone.io"),
			Model:    getEnv("EMBEDDING_MODEL", DefaultEmbeddingModel),
			Timeout:  getEnvDuration("EMBEDDING_TIMEOUT", 30*time.Second),
		},
		VectorStore: VectorStoreConfig{
			Backend:   getEnv("VECTOR_STORE", "pinecone"),
			APIKey:    getEnv("PINECONE_API_KEY", ""),
			Index:     getEnv("PINECONE_INDEX", DefaultIndex),
			IndexHost: getEnv("PINECONE_INDEX_HOST", "https://second-brain-8zqiwqq.svc.aped-4627-b74a.pinecone.io"),
			TopK:      getEnvInt("VECTOR_TOP_K", DefaultTopK),
			Timeout:   getEnvDuration("VECTOR_TIMEOUT", 30*time.Second),
		},
		Ingestion: IngestionConfig{
			PoolSize:    getEnvInt("INGEST_POOL_SIZE", 8),
			QueueSize:   getEnvInt("INGEST_QUEUE_SIZE", 1024),
			JobTimeout:  getEnvDuration("INGEST_JOB_TIMEOUT", 2*time.Minute),
			JobTTL:      getEnvDuration("INGEST_JOB_TTL", 72*time.Hour),
			StatusStore: getEnv("INGEST_STATUS_STORE", "redis"),
		},
		RateLimit: RateLimitConfig{
			Enabled:               getEnvBool("RATE_LIMIT_ENABLED", true),
			GlobalLimit:           int64(getEnvInt("RATE_LIMIT_GLOBAL", 600)),
			UserLimit:             int64(getEnvInt("RATE_LIMIT_USER", 60)),
			WindowSeconds:         getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			InternalServiceSecret: getEnv("INTERNAL_SERVICE_SECRET", ""),
		},
		Cache: CacheConfig{
			Enabled:    getEnvBool("CACHE_ENABLED", true),
			DefaultTTL: getEnvDuration("CACHE_DEFAULT_TTL", 5*time.Minute),
		},
		Telemetry: TelemetryConfig{
			EnablePprof: getEnvBool("ENABLE_PPROF", false),
			PprofPort:   getEnvInt("PPROF_PORT", 6060),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	if len(c.Auth.TokenKey) != 64 {
		return fmt.Errorf("TOKEN_KEY must be 64 hex characters, got %d", len(c.Auth.TokenKey))
	}
	if _, err := hex.DecodeString(c.Auth.TokenKey); err != nil {
		return fmt.Errorf("TOKEN_KEY is not valid hex: %w", err)
	}

	switch c.Embedding.Provider {
	case "pinecone", "openai":
	default:
		return fmt.Errorf("unknown embedding provider: %s", c.Embedding.Provider)
	}

	switch c.VectorStore.Backend {
	case "pinecone", "memory":
	default:
		return fmt.Errorf("unknown vector store: %s", c.VectorStore.Backend)
	}

	if c.VectorStore.Backend == "pinecone" && c.VectorStore.IndexHost == "" {
		return fmt.Errorf("PINECONE_INDEX_HOST is required for the pinecone vector store")
	}

	if c.VectorStore.TopK < 1 {
		return fmt.Errorf("top_k must be >= 1")
	}

	switch c.Ingestion.StatusStore {
	case "redis", "memory":
	default:
		return fmt.Errorf("unknown ingestion status store: %s", c.Ingestion.StatusStore)
	}

	if c.Ingestion.PoolSize < 1 {
		return fmt.Errorf("ingestion pool size must be >= 1")
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns host:port for the redis client
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// NeedsRedis reports whether any enabled component is backed by redis
func (c *Config) NeedsRedis() bool {
	return c.Ingestion.StatusStore == "redis" || c.RateLimit.Enabled
}
