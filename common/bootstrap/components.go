package bootstrap

import (
	"context"
	"fmt"

	"github.com/lyzr/secondbrain/common/cache"
	"github.com/lyzr/secondbrain/common/config"
	"github.com/lyzr/secondbrain/common/db"
	"github.com/lyzr/secondbrain/common/logger"
	rediscommon "github.com/lyzr/secondbrain/common/redis"
	"github.com/lyzr/secondbrain/common/telemetry"
)

// Components holds all initialized service dependencies
type Components struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        *db.DB
	Redis     *rediscommon.Client
	Cache     cache.Cache
	Telemetry *telemetry.Telemetry

	cleanupFuncs []func() error
}

// Shutdown performs graceful shutdown of all components
// Should be called with defer after Setup()
func (c *Components) Shutdown(ctx context.Context) error {
	c.Logger.Info("shutting down components")

	var errs []error

	// LIFO
	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](); err != nil {
			errs = append(errs, err)
			c.Logger.Error("cleanup error", "error", err)
		}
	}
	c.cleanupFuncs = nil

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	c.Logger.Info("shutdown complete")
	return nil
}

// Health checks health of all components
func (c *Components) Health(ctx context.Context) map[string]string {
	status := map[string]string{}

	if c.DB != nil {
		status["database"] = healthString(c.DB.Health(ctx))
	}
	if c.Redis != nil {
		status["redis"] = healthString(c.Redis.Ping(ctx))
	}

	return status
}

// Healthy reports whether every entry of a Health map is "ok"
func Healthy(status map[string]string) bool {
	for _, v := range status {
		if v != "ok" {
			return false
		}
	}
	return true
}

// AddCleanup registers a cleanup function run by Shutdown (LIFO)
func (c *Components) AddCleanup(fn func() error) {
	c.addCleanup(fn)
}

func (c *Components) addCleanup(fn func() error) {
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
}

func healthString(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}
