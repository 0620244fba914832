package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/secondbrain/common/ratelimit"
)

// UserFunc extracts the authenticated user id from the request, "" if none
type UserFunc func(c echo.Context) string

// isInternalRequest checks if the request is from an internal service.
// Internal callers (brainctl, jobs) set X-Internal-Service to the shared secret.
func isInternalRequest(c echo.Context, secret string) bool {
	if secret == "" {
		return false
	}
	header := c.Request().Header.Get("X-Internal-Service")
	if header == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(secret)) == 1
}

// GlobalRateLimitMiddleware checks the global service-wide rate limit
func GlobalRateLimitMiddleware(limiter ratelimit.Checker, policy ratelimit.Policy, internalSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isInternalRequest(c, internalSecret) {
				return next(c)
			}

			result, err := limiter.CheckGlobalLimit(c.Request().Context(), policy)
			if err != nil {
				// fail open
				return next(c)
			}

			if !result.Allowed {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":   "global_rate_limit_exceeded",
					"message": "Service is experiencing high load. Please try again later.",
					"details": map[string]interface{}{
						"limit":               result.Limit,
						"window":              policy.Window(),
						"retry_after_seconds": result.RetryAfterSeconds,
					},
				})
			}

			return next(c)
		}
	}
}

// UserRateLimitMiddleware checks per-user rate limits.
// Must run after the auth middleware so userFn can see the user id.
func UserRateLimitMiddleware(limiter ratelimit.Checker, policy ratelimit.Policy, internalSecret string, userFn UserFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isInternalRequest(c, internalSecret) {
				return next(c)
			}

			userID := userFn(c)
			if userID == "" {
				return next(c)
			}

			result, err := limiter.CheckUserLimit(c.Request().Context(), userID, policy)
			if err != nil {
				return next(c)
			}

			if !result.Allowed {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":   "user_rate_limit_exceeded",
					"message": "You have exceeded your request quota. Please wait before trying again.",
					"details": map[string]interface{}{
						"limit":               result.Limit,
						"window":              policy.Window(),
						"current_count":       result.CurrentCount,
						"retry_after_seconds": result.RetryAfterSeconds,
					},
				})
			}

			return next(c)
		}
	}
}
