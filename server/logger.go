package server

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/pagebricks/logger"
	"github.com/gaborage/pagebricks/trace"
)

const defaultSlowRequestThreshold = time.Second

// LoggerConfig configures the request logging middleware.
type LoggerConfig struct {
	// SlowRequestThreshold marks slower successful requests with result_code WARN.
	// Zero disables slow request detection.
	SlowRequestThreshold time.Duration
}

// Logger emits one action log per request, skipping the probes.
func Logger(log logger.Logger, cfg LoggerConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isProbe(c) {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				// Resolve the final status before logging it.
				c.Error(err)
			}
			latency := time.Since(start)
			status := c.Response().Status

			level, resultCode := determineSeverity(status, latency, cfg.SlowRequestThreshold, err)
			event := createLogEvent(log, level)
			if err != nil {
				event = event.Err(err)
			}

			req := c.Request()
			correlationID, _ := trace.IDFromContext(req.Context())
			event.
				Str("log.type", "action").
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Str("correlation_id", correlationID).
				Str("http.request.method", req.Method).
				Int("http.response.status_code", status).
				Int64("http.server.request.duration", latency.Nanoseconds()).
				Str("url.path", req.URL.Path).
				Str("http.route", c.Path()).
				Str("client.address", c.RealIP()).
				Str("user_agent.original", req.UserAgent()).
				Str("result_code", resultCode).
				Msg(createActionMessage(req.Method, req.URL.Path, latency, status))
			return nil
		}
	}
}

// determineSeverity maps status, latency and error to a log level and result code.
func determineSeverity(status int, latency, threshold time.Duration, err error) (logLevel, resultCode string) {
	const (
		levelError = "error"
		levelWarn  = "warn"
		levelInfo  = "info"
		codeError  = "ERROR"
		codeWarn   = "WARN"
		codeInfo   = "INFO"
	)

	if status >= 500 || (err != nil && status == 0) {
		return levelError, codeError
	}
	if status >= 400 {
		return levelWarn, codeWarn
	}
	// Slow requests keep INFO but are flagged for filtering.
	if threshold > 0 && latency > threshold {
		return levelInfo, codeWarn
	}
	return levelInfo, codeInfo
}

func createLogEvent(log logger.Logger, level string) logger.LogEvent {
	switch level {
	case "error":
		return log.Error()
	case "warn":
		return log.Warn()
	default:
		return log.Info()
	}
}

// createActionMessage renders e.g. "GET /blog completed in 12ms with status 2xx".
func createActionMessage(method, path string, latency time.Duration, status int) string {
	return method + " " + path + " completed in " + latency.String() + " with status " + strconv.Itoa(status/100) + "xx"
}
