package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"syscall"
	"time"
)

// Run starts the scheduler and the server, then blocks until ctx is done, a
// shutdown signal arrives or the server fails. It always shuts down before
// returning.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.Scheduler.Enabled {
		if err := a.scheduler.Start(ctx); err != nil {
			_ = a.Close()
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	} else {
		a.logger.Debug().Msg("Scheduler disabled, cache jobs will not run")
	}

	serverErrCh := a.serve()

	shutdownRequested, serverErr := a.waitForShutdownOrServerError(ctx, serverErrCh)
	if shutdownRequested {
		a.logger.Info().Msg("Shutdown requested")
	}
	if serverErr != nil && !errors.Is(serverErr, http.ErrServerClosed) {
		a.logger.Error().Err(serverErr).Msg("Server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	a.logger.Info().Msg("Shutting down application")
	shutdownErr := a.Shutdown(shutdownCtx)

	var errs []error
	if serverErr != nil && !errors.Is(serverErr, http.ErrServerClosed) {
		errs = append(errs, serverErr)
	}
	if err := a.drainServerError(serverErrCh); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errs = append(errs, err)
	}
	if shutdownErr != nil {
		errs = append(errs, shutdownErr)
	}
	return errors.Join(errs...)
}

// serve starts the HTTP server in a goroutine and returns its error channel.
func (a *App) serve() <-chan error {
	errCh := make(chan error, 1)

	go func() {
		err := a.server.Start()
		a.logger.Debug().Err(err).Msg("Server goroutine terminating")
		errCh <- err
		close(errCh)
	}()

	return errCh
}

func (a *App) waitForShutdownOrServerError(ctx context.Context, serverErrCh <-chan error) (bool, error) {
	quit := make(chan os.Signal, 1)
	a.signalHandler.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer a.signalHandler.Stop(quit)

	select {
	case sig := <-quit:
		a.logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		return true, nil
	case <-ctx.Done():
		return true, nil
	case err, ok := <-serverErrCh:
		if !ok {
			return false, nil
		}
		return false, err
	}
}

// drainServerError waits for the server goroutine to finish after shutdown.
func (a *App) drainServerError(ch <-chan error) error {
	select {
	case err, ok := <-ch:
		if !ok {
			return nil
		}
		return err
	case <-time.After(3 * time.Second):
		a.logger.Warn().Msg("Timeout waiting for server goroutine to complete")
		return fmt.Errorf("server goroutine failed to complete within timeout")
	}
}
