package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/lyzr/secondbrain/common/config"
	"github.com/lyzr/secondbrain/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Service:   config.ServiceConfig{Name: "test", Port: 3000},
		Ingestion: config.IngestionConfig{StatusStore: "memory", PoolSize: 1},
		Cache:     config.CacheConfig{Enabled: true},
	}
}

func TestSetup_WithoutExternalDeps(t *testing.T) {
	ctx := context.Background()

	components, err := Setup(ctx, "test",
		WithCustomConfig(testConfig()),
		WithCustomLogger(logger.Discard()),
		WithoutDB(),
		WithoutTelemetry(),
	)
	require.NoError(t, err)

	assert.Nil(t, components.DB)
	assert.Nil(t, components.Redis, "memory status store and disabled rate limits need no redis")
	assert.NotNil(t, components.Cache)
	assert.Empty(t, components.Health(ctx))

	require.NoError(t, components.Shutdown(ctx))
}

func TestShutdown_LIFOAndErrors(t *testing.T) {
	c := &Components{Logger: logger.Discard()}

	var order []int
	c.AddCleanup(func() error { order = append(order, 1); return nil })
	c.AddCleanup(func() error { order = append(order, 2); return errors.New("boom") })
	c.AddCleanup(func() error { order = append(order, 3); return nil })

	err := c.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestHealthy(t *testing.T) {
	assert.True(t, Healthy(map[string]string{"database": "ok"}))
	assert.False(t, Healthy(map[string]string{"database": "ok", "redis": "dial tcp: refused"}))
}
