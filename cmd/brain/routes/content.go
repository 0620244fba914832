package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/secondbrain/cmd/brain/container"
	"github.com/lyzr/secondbrain/cmd/brain/handlers"
)

// RegisterContentRoutes registers all content routes
func RegisterContentRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewContentHandler(c)

	content := e.Group("/api/v1/content", authenticated(c)...)
	{
		content.POST("", h.CreateContent)                   // POST /api/v1/content
		content.GET("", h.ListContent)                      // GET /api/v1/content
		content.DELETE("", h.DeleteContent)                 // DELETE /api/v1/content
		content.PATCH("/:id", h.PatchContent)               // PATCH /api/v1/content/{id}
		content.GET("/:id/ingestion", h.GetIngestionStatus) // GET /api/v1/content/{id}/ingestion
	}
}
