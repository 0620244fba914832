package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/secondbrain/cmd/brain/container"
	"github.com/lyzr/secondbrain/cmd/brain/middleware"
	commonmw "github.com/lyzr/secondbrain/common/middleware"
	"github.com/lyzr/secondbrain/common/ratelimit"
)

// authenticated returns the middleware chain for routes that need a user:
// token verification, then the per-user rate limit when enabled.
func authenticated(c *container.Container) []echo.MiddlewareFunc {
	chain := []echo.MiddlewareFunc{middleware.RequireAuth(c.Tokens)}

	if c.RateLimiter != nil {
		cfg := c.Components.Config.RateLimit
		policy := ratelimit.NewPolicy(cfg.UserLimit, cfg.WindowSeconds, ratelimit.DefaultUserPolicy)
		chain = append(chain, commonmw.UserRateLimitMiddleware(c.RateLimiter, policy, cfg.InternalServiceSecret, middleware.UserKey))
	}
	return chain
}

// GlobalRateLimit returns the service-wide limiter, or nil when disabled
func GlobalRateLimit(c *container.Container) echo.MiddlewareFunc {
	if c.RateLimiter == nil {
		return nil
	}
	cfg := c.Components.Config.RateLimit
	policy := ratelimit.NewPolicy(cfg.GlobalLimit, cfg.WindowSeconds, ratelimit.DefaultGlobalPolicy)
	return commonmw.GlobalRateLimitMiddleware(c.RateLimiter, policy, cfg.InternalServiceSecret)
}
