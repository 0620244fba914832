package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/secondbrain/cmd/brain/container"
	"github.com/lyzr/secondbrain/cmd/brain/handlers"
)

// RegisterAuthRoutes registers signup and signin
func RegisterAuthRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewAuthHandler(c)

	api := e.Group("/api/v1")
	{
		api.POST("/signup", h.Signup) // POST /api/v1/signup
		api.POST("/signin", h.Signin) // POST /api/v1/signin
	}
}
