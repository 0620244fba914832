package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/lyzr/secondbrain/cmd/brain/container"
	"github.com/lyzr/secondbrain/cmd/brain/middleware"
	"github.com/lyzr/secondbrain/cmd/brain/models"
	"github.com/lyzr/secondbrain/cmd/brain/service"
	"github.com/lyzr/secondbrain/cmd/brain/vectorstore"
	"github.com/lyzr/secondbrain/common/logger"
	"github.com/lyzr/secondbrain/common/validation"
)

// Shares is the share-link surface used by BrainHandler
type Shares interface {
	Enable(ctx context.Context, userID uuid.UUID) (string, error)
	Disable(ctx context.Context, userID uuid.UUID) (int, error)
	Resolve(ctx context.Context, hash string) (uuid.UUID, error)
}

// Owners looks up the account behind a share link
type Owners interface {
	User(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Asker answers semantic queries
type Asker interface {
	Ask(ctx context.Context, userID uuid.UUID, query string, topK int, filter string) ([]vectorstore.Match, error)
}

// BrainHandler handles sharing and querying a user's brain
type BrainHandler struct {
	shares    Shares
	owners    Owners
	contents  Contents
	asker     Asker
	validator *validation.Validator
	log       *logger.Logger
}

// NewBrainHandler creates a new brain handler
func NewBrainHandler(c *container.Container) *BrainHandler {
	return newBrainHandler(
		c.ShareService,
		c.AuthService,
		c.ContentService,
		c.SearchService,
		c.Validator,
		c.Components.Logger,
	)
}

func newBrainHandler(shares Shares, owners Owners, contents Contents, asker Asker, v *validation.Validator, log *logger.Logger) *BrainHandler {
	return &BrainHandler{
		shares:    shares,
		owners:    owners,
		contents:  contents,
		asker:     asker,
		validator: v,
		log:       log.WithComponent("brain_handler"),
	}
}

// Share enables or disables public links to the caller's brain
// POST /api/v1/brain/share
func (h *BrainHandler) Share(c echo.Context) error {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		return err
	}

	var req struct {
		Status *bool `json:"status" validate:"required"`
	}
	if err := c.Bind(&req); err != nil || h.validator.Validate(req) != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"message": "wrong input format",
		})
	}

	ctx := c.Request().Context()
	if *req.Status {
		hash, err := h.shares.Enable(ctx, userID)
		if err != nil {
			return respondError(c, h.log, "error creating link", err)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"message": "Link Created successfully",
			"hash":    hash,
		})
	}

	n, err := h.shares.Disable(ctx, userID)
	if err != nil {
		return respondError(c, h.log, "error disabling links", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "all links to your brain is disabled",
		"deleted": n,
	})
}

// GetSharedBrain returns the content behind a share link
// GET /api/v1/brain/:shareLink
func (h *BrainHandler) GetSharedBrain(c echo.Context) error {
	ctx := c.Request().Context()

	ownerID, err := h.shares.Resolve(ctx, c.Param("shareLink"))
	if err != nil {
		if !errors.Is(err, service.ErrShareLinkNotFound) {
			h.log.WithContext(ctx).Error("failed to resolve share link", "error", err)
		}
		return c.JSON(http.StatusForbidden, map[string]interface{}{
			"message": "you dont have access to link",
		})
	}

	owner, err := h.owners.User(ctx, ownerID)
	if err != nil {
		return respondError(c, h.log, "failed to load shared brain", err)
	}

	views, err := h.contents.List(ctx, ownerID)
	if err != nil {
		return respondError(c, h.log, "failed to load shared brain", err)
	}
	if views == nil {
		views = []*models.ContentView{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"username": owner.Username,
		"content":  views,
	})
}

// Ask runs a semantic query over the caller's content
// POST /api/v1/brain/ask
func (h *BrainHandler) Ask(c echo.Context) error {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		return err
	}

	var req struct {
		Query  string `json:"query" validate:"required,max=2000"`
		Filter string `json:"filter" validate:"max=1000"`
		TopK   int    `json:"topK" validate:"omitempty,min=1,max=50"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"message": "input format wrong",
		})
	}
	if err := h.validator.Validate(req); err != nil {
		return respondError(c, h.log, "input format wrong", err)
	}

	matches, err := h.asker.Ask(c.Request().Context(), userID, req.Query, req.TopK, req.Filter)
	if err != nil {
		return respondError(c, h.log, "failed to query your brain", err)
	}
	if matches == nil {
		matches = []vectorstore.Match{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"topResults": matches,
	})
}
