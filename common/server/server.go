package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/secondbrain/common/logger"
)

// Server wraps an echo instance with graceful shutdown
type Server struct {
	echo            *echo.Echo
	log             *logger.Logger
	name            string
	addr            string
	shutdownTimeout time.Duration
}

// New creates a new server
func New(name string, port int, e *echo.Echo, log *logger.Logger) *Server {
	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 30 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	return &Server{
		echo:            e,
		log:             log,
		name:            name,
		addr:            fmt.Sprintf(":%d", port),
		shutdownTimeout: 30 * time.Second,
	}
}

// Start serves until the listener fails or SIGINT/SIGTERM arrives, then
// drains in-flight requests. onShutdown runs after the listener is closed.
func (s *Server) Start(onShutdown func(ctx context.Context)) error {
	serverErrors := make(chan error, 1)

	go func() {
		s.log.Info(fmt.Sprintf("%s starting", s.name), "addr", s.addr)
		serverErrors <- s.echo.Start(s.addr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		s.log.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.echo.Shutdown(ctx); err != nil {
			s.log.Error("graceful shutdown failed", "error", err)
			if err := s.echo.Close(); err != nil {
				return fmt.Errorf("could not stop server: %w", err)
			}
		}

		if onShutdown != nil {
			onShutdown(ctx)
		}

		s.log.Info("shutdown complete")
	}

	return nil
}
