package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/secondbrain/cmd/brain/container"
	"github.com/lyzr/secondbrain/cmd/brain/models"
	"github.com/lyzr/secondbrain/cmd/brain/service"
	"github.com/lyzr/secondbrain/common/logger"
	"github.com/lyzr/secondbrain/common/validation"
)

// Accounts is the account surface used by AuthHandler
type Accounts interface {
	Signup(ctx context.Context, username, password string) (*models.User, error)
	Signin(ctx context.Context, username, password string) (string, error)
}

// AuthHandler handles signup and signin
type AuthHandler struct {
	accounts  Accounts
	validator *validation.Validator
	log       *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(c *container.Container) *AuthHandler {
	return newAuthHandler(c.AuthService, c.Validator, c.Components.Logger)
}

func newAuthHandler(accounts Accounts, v *validation.Validator, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		accounts:  accounts,
		validator: v,
		log:       log.WithComponent("auth_handler"),
	}
}

type credentials struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Password string `json:"password" validate:"required,min=3,max=30"`
}

func (h *AuthHandler) bindCredentials(c echo.Context) (credentials, error) {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return req, err
	}
	return req, h.validator.Validate(req)
}

// Signup creates an account
// POST /api/v1/signup
func (h *AuthHandler) Signup(c echo.Context) error {
	req, err := h.bindCredentials(c)
	if err != nil {
		return c.JSON(http.StatusLengthRequired, map[string]interface{}{
			"message": "wrong format of input",
		})
	}

	if _, err := h.accounts.Signup(c.Request().Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			return c.JSON(http.StatusForbidden, map[string]interface{}{
				"message": "User Already Exists",
			})
		}
		return respondError(c, h.log, "failed to create user", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "you are signed in as a user",
	})
}

// Signin exchanges credentials for an access token
// POST /api/v1/signin
func (h *AuthHandler) Signin(c echo.Context) error {
	req, err := h.bindCredentials(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]interface{}{
			"message": "body format wrong",
		})
	}

	token, err := h.accounts.Signin(c.Request().Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, service.ErrUnknownUser):
		return c.JSON(http.StatusForbidden, map[string]interface{}{
			"message": "user does not exist try signup first",
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusForbidden, map[string]interface{}{
			"message": "wrong password",
		})
	case err != nil:
		return respondError(c, h.log, "failed to sign in", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"token": token,
	})
}
