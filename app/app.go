// Package app wires configuration, logging, telemetry, the cache, the content
// pipeline, the scheduler and the HTTP server into one runnable application.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/pagebricks/cache"
	"github.com/gaborage/pagebricks/cache/session"
	"github.com/gaborage/pagebricks/cache/setup"
	"github.com/gaborage/pagebricks/config"
	"github.com/gaborage/pagebricks/content"
	"github.com/gaborage/pagebricks/events"
	"github.com/gaborage/pagebricks/logger"
	"github.com/gaborage/pagebricks/markup"
	"github.com/gaborage/pagebricks/observability"
	"github.com/gaborage/pagebricks/scheduler"
	"github.com/gaborage/pagebricks/server"
	"github.com/gaborage/pagebricks/templating"
)

const defaultShutdownTimeout = 10 * time.Second

// SignalHandler allows injectable signal handling for testing.
type SignalHandler interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

type osSignalHandler struct{}

func (osSignalHandler) Notify(c chan<- os.Signal, sig ...os.Signal) { signal.Notify(c, sig...) }
func (osSignalHandler) Stop(c chan<- os.Signal)                     { signal.Stop(c) }

// Options customizes New. Zero values load everything from the environment.
type Options struct {
	Config        *config.Config
	Logger        logger.Logger
	SignalHandler SignalHandler
	// SessionStore backs the session cache driver when one is available.
	SessionStore session.Store
	// ShutdownTimeout bounds the graceful shutdown started by Run.
	ShutdownTimeout time.Duration
	Now             func() time.Time
}

// App holds every long-lived component.
type App struct {
	cfg       *config.Config
	logger    logger.Logger
	events    *events.Dispatcher
	telemetry observability.Provider
	cache     *cache.Cache
	templates *templating.Pongo
	pipeline  *content.Pipeline
	scheduler *scheduler.Scheduler
	server    *server.Server

	signalHandler   SignalHandler
	shutdownTimeout time.Duration
}

// New creates an application from the default configuration sources.
func New() (*App, error) {
	return NewWithOptions(Options{})
}

// NewWithOptions creates an application. Components are built but nothing is
// started until Run.
func NewWithOptions(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	log := opts.Logger
	if log == nil {
		log = logger.New(cfg.Log.Level, cfg.Log.Pretty)
	}

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Env).
		Str("version", cfg.App.Version).
		Msg("Starting application")

	telemetry, err := observability.NewProvider(observability.FromConfig(cfg), log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	bus := events.NewDispatcher()

	c, err := setup.New(setup.Options{
		Config:       cfg,
		Publisher:    bus,
		Logger:       log,
		SessionStore: opts.SessionStore,
		Now:          opts.Now,
	})
	if err != nil {
		_ = observability.Shutdown(telemetry, defaultShutdownTimeout)
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	templates := templating.New(templating.Options{
		Dir:        cfg.Paths.Templates,
		Autoescape: cfg.Pages.Template.Autoescape,
		Debug:      cfg.App.Env == config.EnvDevelopment,
		Globals: map[string]any{
			"site": map[string]any{
				"name":     cfg.App.Name,
				"base_url": cfg.App.BaseURL,
				"env":      cfg.App.Env,
			},
		},
	})
	c.AddResetter(templates)

	pipeline := content.NewPipeline(content.Options{
		Defaults:  content.DefaultsFromConfig(cfg),
		Cache:     c,
		Markup:    markup.New(),
		Templates: templates,
		Publisher: bus,
		Logger:    log,
		Now:       opts.Now,
	})

	sched := scheduler.New(scheduler.Options{
		Logger:          log,
		Publisher:       bus,
		ShutdownTimeout: cfg.Scheduler.ShutdownTimeout,
	})
	c.SubscribeScheduler(bus, setup.JobSettings(cfg))

	srv := server.New(cfg, log, &server.Pages{Root: cfg.Paths.Pages, Renderer: pipeline})

	a := &App{
		cfg:             cfg,
		logger:          log,
		events:          bus,
		telemetry:       telemetry,
		cache:           c,
		templates:       templates,
		pipeline:        pipeline,
		scheduler:       sched,
		server:          srv,
		signalHandler:   opts.SignalHandler,
		shutdownTimeout: opts.ShutdownTimeout,
	}
	if a.signalHandler == nil {
		a.signalHandler = osSignalHandler{}
	}
	if a.shutdownTimeout <= 0 {
		a.shutdownTimeout = defaultShutdownTimeout
	}

	srv.Echo().GET("/ready", a.readyCheck)

	return a, nil
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Logger returns the application logger.
func (a *App) Logger() logger.Logger { return a.logger }

// Events returns the dispatcher shared by every component.
func (a *App) Events() *events.Dispatcher { return a.events }

// Cache returns the page cache.
func (a *App) Cache() *cache.Cache { return a.cache }

// Pipeline returns the content processing pipeline.
func (a *App) Pipeline() *content.Pipeline { return a.pipeline }

// Scheduler returns the periodic job runner.
func (a *App) Scheduler() *scheduler.Scheduler { return a.scheduler }

// Server returns the HTTP server.
func (a *App) Server() *server.Server { return a.server }

// Shutdown stops the server, the scheduler, the cache driver and telemetry.
// Every step runs; their errors are joined.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to shutdown server")
		errs = append(errs, fmt.Errorf("server: %w", err))
	}

	if err := a.scheduler.Shutdown(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to shutdown scheduler")
		errs = append(errs, err)
	}

	if err := a.cache.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close cache driver")
		errs = append(errs, fmt.Errorf("cache: %w", err))
	}

	if err := observability.Shutdown(a.telemetry, a.shutdownTimeout); err != nil {
		a.logger.Error().Err(err).Msg("Failed to shutdown observability")
		errs = append(errs, err)
	}

	a.logger.Info().Msg("Application shutdown complete")
	return errors.Join(errs...)
}

// Close releases resources for short-lived uses that never called Run.
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	return a.Shutdown(ctx)
}

func (a *App) readyCheck(c echo.Context) error {
	jobs := a.scheduler.Jobs()
	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.JobID)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status": "ready",
		"time":   time.Now().Unix(),
		"cache": map[string]any{
			"enabled":   a.cache.Enabled(),
			"driver":    a.cache.DriverName(),
			"setting":   a.cache.DriverSetting(),
			"namespace": a.cache.Namespace(),
		},
		"scheduler": map[string]any{
			"enabled": a.cfg.Scheduler.Enabled,
			"jobs":    ids,
		},
		"telemetry": map[string]any{
			"enabled": a.telemetry.Enabled(),
		},
		"app": map[string]any{
			"name":        a.cfg.App.Name,
			"environment": a.cfg.App.Env,
			"version":     a.cfg.App.Version,
		},
	})
}
