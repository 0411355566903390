package server

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/gaborage/pagebricks/config"
	"github.com/gaborage/pagebricks/logger"
	"github.com/gaborage/pagebricks/trace"
)

// SetupMiddlewares registers the middleware chain in order: request ID,
// tracing, correlation, logging, rate limiting, recovery, security headers
// and compression.
func SetupMiddlewares(e *echo.Echo, log logger.Logger, cfg *config.Config) {
	e.Use(middleware.RequestID())

	e.Use(otelecho.Middleware(cfg.Observability.Service, otelecho.WithSkipper(isProbe)))

	e.Use(TraceContext())

	e.Use(Logger(log, LoggerConfig{SlowRequestThreshold: defaultSlowRequestThreshold}))

	e.Use(RateLimit(cfg.Server.RateLimit))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Error().
				Err(err).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Str("stack", string(stack)).
				Msg("Panic recovered")
			return err
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
	}))

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{Level: 5}))
}

// TraceContext stores the request correlation ID in the request context so
// handlers and the content pipeline can log it.
func TraceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = c.Response().Header().Get(echo.HeaderXRequestID)
			}
			if id == "" {
				id = trace.EnsureTraceID(req.Context())
				c.Response().Header().Set(echo.HeaderXRequestID, id)
			}
			c.SetRequest(req.WithContext(trace.WithTraceID(req.Context(), id)))
			return next(c)
		}
	}
}

func isProbe(c echo.Context) bool {
	p := c.Request().URL.Path
	return p == healthPath || p == readyPath
}
