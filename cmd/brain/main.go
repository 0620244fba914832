package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lyzr/secondbrain/cmd/brain/container"
	"github.com/lyzr/secondbrain/cmd/brain/routes"
	"github.com/lyzr/secondbrain/common/bootstrap"
	"github.com/lyzr/secondbrain/common/server"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	ctx := context.Background()

	// Bootstrap common components (config, logger, DB, redis, cache, telemetry)
	components, err := bootstrap.Setup(ctx, "brain", bootstrap.WithMigrations())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap brain: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		components.Logger.Error("Failed to initialize service container", "error", err)
		os.Exit(1)
	}

	e := setupEcho()
	setupMiddleware(e, components, serviceContainer)
	setupHealthCheck(e, components)
	registerRoutes(e, serviceContainer)

	srv := server.New("brain", components.Config.Service.Port, e, components.Logger)
	err = srv.Start(func(ctx context.Context) {
		if err := serviceContainer.Close(ctx); err != nil {
			components.Logger.Error("ingestion drain incomplete", "error", err)
		}
	})
	if err != nil {
		components.Logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo, components *bootstrap.Components, c *container.Container) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     components.Config.Service.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowCredentials: true,
	}))
	e.Use(middleware.RequestID())

	if limiter := routes.GlobalRateLimit(c); limiter != nil {
		e.Use(limiter)
	}
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, components *bootstrap.Components) {
	e.GET("/health", func(c echo.Context) error {
		status := components.Health(c.Request().Context())
		if !bootstrap.Healthy(status) {
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"status":     "degraded",
				"service":    "brain",
				"components": status,
			})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":     "ok",
			"service":    "brain",
			"components": status,
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	routes.RegisterAuthRoutes(e, serviceContainer)
	routes.RegisterContentRoutes(e, serviceContainer)
	routes.RegisterBrainRoutes(e, serviceContainer)
}
