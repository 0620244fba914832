package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/lyzr/secondbrain/common/auth"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// UserIDKey is the context key for the authenticated user id
	UserIDKey ContextKey = "user_id"
	// UsernameKey is the context key for the authenticated username
	UsernameKey ContextKey = "username"
)

// TokenVerifier checks an access token and returns its claims
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// RequireAuth verifies the Authorization header and stores the caller in
// the request context. Both a raw token and "Bearer <token>" are accepted.
//
// Usage:
//
//	g := e.Group("/api/v1/content")
//	g.Use(middleware.RequireAuth(tokens))
//
// Accessing in handlers:
//
//	userID := middleware.GetUserID(c)
func RequireAuth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := tokenFromHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"message": "You are not logged in! Authentication failed.",
				})
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"message": "Invalid or expired token! Authentication failed.",
				})
			}

			c.Set(string(UserIDKey), claims.UserID)
			c.Set(string(UsernameKey), claims.Username)
			return next(c)
		}
	}
}

func tokenFromHeader(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// GetUserID retrieves the user id from the request context.
// Returns uuid.Nil if not set.
func GetUserID(c echo.Context) uuid.UUID {
	id, ok := c.Get(string(UserIDKey)).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}

// GetUsername retrieves the username from the request context
func GetUsername(c echo.Context) string {
	username, _ := c.Get(string(UsernameKey)).(string)
	return username
}

// UserKey returns the user id as a string for per-user rate limiting, "" if anonymous
func UserKey(c echo.Context) string {
	id := GetUserID(c)
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

// RequireUser ensures a user id exists in context.
// Returns an error response if not found.
func RequireUser(c echo.Context) (uuid.UUID, error) {
	id := GetUserID(c)
	if id == uuid.Nil {
		err := c.JSON(http.StatusUnauthorized, map[string]interface{}{
			"message": "You are not logged in! Authentication failed.",
		})
		if err == nil {
			err = echo.ErrUnauthorized
		}
		return uuid.Nil, err
	}
	return id, nil
}
