package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/secondbrain/common/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	allow     bool
	err       error
	userCalls []string
	global    int
}

func (f *fakeChecker) CheckGlobalLimit(ctx context.Context, policy ratelimit.Policy) (*ratelimit.RateLimitResult, error) {
	f.global++
	if f.err != nil {
		return nil, f.err
	}
	return &ratelimit.RateLimitResult{Allowed: f.allow, Limit: policy.Limit, RetryAfterSeconds: 7}, nil
}

func (f *fakeChecker) CheckUserLimit(ctx context.Context, userID string, policy ratelimit.Policy) (*ratelimit.RateLimitResult, error) {
	f.userCalls = append(f.userCalls, userID)
	if f.err != nil {
		return nil, f.err
	}
	return &ratelimit.RateLimitResult{Allowed: f.allow, Limit: policy.Limit, CurrentCount: policy.Limit + 1}, nil
}

func run(t *testing.T, mw echo.MiddlewareFunc, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, h(c))
	return rec
}

func TestGlobalRateLimit(t *testing.T) {
	policy := ratelimit.Policy{Limit: 10, WindowSeconds: 60}

	t.Run("allowed", func(t *testing.T) {
		rec := run(t, GlobalRateLimitMiddleware(&fakeChecker{allow: true}, policy, ""), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("blocked", func(t *testing.T) {
		rec := run(t, GlobalRateLimitMiddleware(&fakeChecker{allow: false}, policy, ""), nil)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Contains(t, rec.Body.String(), "global_rate_limit_exceeded")
	})

	t.Run("fails open", func(t *testing.T) {
		rec := run(t, GlobalRateLimitMiddleware(&fakeChecker{err: errors.New("redis down")}, policy, ""), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("internal bypass", func(t *testing.T) {
		checker := &fakeChecker{allow: false}
		rec := run(t, GlobalRateLimitMiddleware(checker, policy, "s3cret"), map[string]string{"X-Internal-Service": "s3cret"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, checker.global)
	})

	t.Run("wrong secret is limited", func(t *testing.T) {
		rec := run(t, GlobalRateLimitMiddleware(&fakeChecker{allow: false}, policy, "s3cret"), map[string]string{"X-Internal-Service": "guess"})
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
}

func TestUserRateLimit(t *testing.T) {
	policy := ratelimit.Policy{Limit: 2, WindowSeconds: 60}

	t.Run("anonymous skipped", func(t *testing.T) {
		checker := &fakeChecker{allow: false}
		rec := run(t, UserRateLimitMiddleware(checker, policy, "", func(echo.Context) string { return "" }), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, checker.userCalls)
	})

	t.Run("blocked per user", func(t *testing.T) {
		checker := &fakeChecker{allow: false}
		rec := run(t, UserRateLimitMiddleware(checker, policy, "", func(echo.Context) string { return "u1" }), nil)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, []string{"u1"}, checker.userCalls)
		assert.Contains(t, rec.Body.String(), "user_rate_limit_exceeded")
	})
}
