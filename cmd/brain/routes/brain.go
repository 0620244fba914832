package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/secondbrain/cmd/brain/container"
	"github.com/lyzr/secondbrain/cmd/brain/handlers"
)

// RegisterBrainRoutes registers sharing and semantic search routes
func RegisterBrainRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewBrainHandler(c)

	brain := e.Group("/api/v1/brain")
	{
		brain.POST("/share", h.Share, authenticated(c)...) // POST /api/v1/brain/share
		brain.POST("/ask", h.Ask, authenticated(c)...)     // POST /api/v1/brain/ask
		brain.GET("/:shareLink", h.GetSharedBrain)         // GET /api/v1/brain/{hash}
	}
}
