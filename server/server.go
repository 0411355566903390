// Package server serves rendered pages over HTTP with Echo.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/pagebricks/config"
	"github.com/gaborage/pagebricks/logger"
)

const (
	healthPath = "/health"
	readyPath  = "/ready"
)

// Server owns the Echo instance and its lifecycle.
type Server struct {
	echo   *echo.Echo
	cfg    *config.Config
	logger logger.Logger
}

// New creates a server with middlewares, probes and the page route.
func New(cfg *config.Config, log logger.Logger, pages *Pages) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		errorHandler(err, c, cfg, log)
	}

	SetupMiddlewares(e, log, cfg)

	s := &Server{echo: e, cfg: cfg, logger: log}
	e.GET(healthPath, s.healthCheck)
	e.GET(readyPath, s.readyCheck)
	if pages != nil {
		e.GET("/*", pages.Handle)
		e.HEAD("/*", pages.Handle)
	}
	return s
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start blocks serving requests until Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	s.logger.Info().
		Str("service", s.cfg.App.Name).
		Str("version", s.cfg.App.Version).
		Str("env", s.cfg.App.Env).
		Str("address", addr).
		Msg("Starting server...")

	// Shutdown only reaches echo's own http.Server, so configure that one.
	s.echo.Server.ReadHeaderTimeout = 10 * time.Second
	return s.echo.Start(addr)
}

// Shutdown waits for in-flight requests within ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}
