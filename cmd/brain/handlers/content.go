package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/lyzr/secondbrain/cmd/brain/container"
	"github.com/lyzr/secondbrain/cmd/brain/middleware"
	"github.com/lyzr/secondbrain/cmd/brain/models"
	"github.com/lyzr/secondbrain/cmd/brain/service"
	"github.com/lyzr/secondbrain/common/logger"
	"github.com/lyzr/secondbrain/common/validation"
)

const maxPatchBytes = 64 << 10

// Contents is the content surface used by ContentHandler
type Contents interface {
	Create(ctx context.Context, userID uuid.UUID, in service.ContentInput) (*models.Content, *models.IngestionJob, error)
	List(ctx context.Context, userID uuid.UUID) ([]*models.ContentView, error)
	Update(ctx context.Context, userID, contentID uuid.UUID, patch []byte) (*models.Content, *models.IngestionJob, error)
	Delete(ctx context.Context, userID, contentID uuid.UUID) (bool, error)
	IngestionStatus(ctx context.Context, userID, contentID uuid.UUID) (*models.IngestionJob, error)
}

// ContentHandler handles a user's saved content
type ContentHandler struct {
	contents  Contents
	validator *validation.Validator
	log       *logger.Logger
}

// NewContentHandler creates a new content handler
func NewContentHandler(c *container.Container) *ContentHandler {
	return newContentHandler(c.ContentService, c.Validator, c.Components.Logger)
}

func newContentHandler(contents Contents, v *validation.Validator, log *logger.Logger) *ContentHandler {
	return &ContentHandler{
		contents:  contents,
		validator: v,
		log:       log.WithComponent("content_handler"),
	}
}

// CreateContent saves a link and queues it for embedding
// POST /api/v1/content
func (h *ContentHandler) CreateContent(c echo.Context) error {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		return err
	}

	var req service.ContentInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"message": "data input error format",
		})
	}
	if err := h.validator.Validate(req); err != nil {
		return respondError(c, h.log, "data input error format", err)
	}

	content, job, err := h.contents.Create(c.Request().Context(), userID, req)
	if err != nil {
		return respondError(c, h.log, "content upload failed try again", err)
	}

	resp := map[string]interface{}{
		"message":   "your content is added succesfully",
		"contentId": content.ID,
	}
	if job != nil {
		resp["jobId"] = job.ID
	}
	return c.JSON(http.StatusOK, resp)
}

// ListContent lists the caller's content, newest first
// GET /api/v1/content
func (h *ContentHandler) ListContent(c echo.Context) error {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		return err
	}

	views, err := h.contents.List(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, h.log, "Failed to fetch content", err)
	}
	if views == nil {
		views = []*models.ContentView{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"content": views,
	})
}

// DeleteContent deletes one of the caller's content items
// DELETE /api/v1/content
func (h *ContentHandler) DeleteContent(c echo.Context) error {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		return err
	}

	var req struct {
		ContentID string `json:"contentId" validate:"required,uuid"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"message": "data format wrong",
		})
	}
	if err := h.validator.Validate(req); err != nil {
		return respondError(c, h.log, "data format wrong", err)
	}
	contentID := uuid.MustParse(req.ContentID)

	deleted, err := h.contents.Delete(c.Request().Context(), userID, contentID)
	if err != nil {
		return respondError(c, h.log, "error deleting the content", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("content with content id: %s deleted", contentID),
		"deleted": deleted,
	})
}

// PatchContent applies a JSON merge patch to one of the caller's content items
// PATCH /api/v1/content/:id
func (h *ContentHandler) PatchContent(c echo.Context) error {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		return err
	}

	contentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"message": "invalid content id",
		})
	}

	patch, err := io.ReadAll(io.LimitReader(c.Request().Body, maxPatchBytes))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"message": "invalid request body",
		})
	}

	content, job, err := h.contents.Update(c.Request().Context(), userID, contentID, patch)
	if err != nil {
		return respondError(c, h.log, "failed to update content", err)
	}

	resp := map[string]interface{}{
		"message": "content updated",
		"content": content,
	}
	if job != nil {
		resp["jobId"] = job.ID
	}
	return c.JSON(http.StatusOK, resp)
}

// GetIngestionStatus returns the latest ingestion job for a content item
// GET /api/v1/content/:id/ingestion
func (h *ContentHandler) GetIngestionStatus(c echo.Context) error {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		return err
	}

	contentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"message": "invalid content id",
		})
	}

	job, err := h.contents.IngestionStatus(c.Request().Context(), userID, contentID)
	if err != nil {
		return respondError(c, h.log, "failed to get ingestion status", err)
	}

	return c.JSON(http.StatusOK, job)
}
