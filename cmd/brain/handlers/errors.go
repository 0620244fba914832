package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/secondbrain/cmd/brain/ingestion"
	"github.com/lyzr/secondbrain/cmd/brain/search"
	"github.com/lyzr/secondbrain/cmd/brain/service"
	"github.com/lyzr/secondbrain/common/logger"
	"github.com/lyzr/secondbrain/common/validation"
)

// respondError maps service errors to status codes. Unexpected errors are
// logged and reported with msg only.
func respondError(c echo.Context, log *logger.Logger, msg string, err error) error {
	var fieldErrs validation.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"message": msg,
			"errors":  fieldErrs,
		})
	case errors.Is(err, search.ErrInvalidFilter), errors.Is(err, service.ErrInvalidTag):
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"message": msg,
			"error":   err.Error(),
		})
	case errors.Is(err, service.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, map[string]interface{}{
			"message": "You are not logged in! Authentication failed.",
		})
	case errors.Is(err, service.ErrContentNotFound), errors.Is(err, ingestion.ErrJobNotFound):
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"message": "not found",
		})
	case errors.Is(err, context.DeadlineExceeded):
		log.WithContext(c.Request().Context()).Error(msg, "error", err)
		return c.JSON(http.StatusGatewayTimeout, map[string]interface{}{
			"message": msg,
		})
	}

	log.WithContext(c.Request().Context()).Error(msg, "error", err)
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"message": msg,
	})
}
