package server

import (
	"errors"
	"fmt"
	"html"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/pagebricks/config"
	"github.com/gaborage/pagebricks/content"
	"github.com/gaborage/pagebricks/logger"
)

// statusOf maps a handler error to the response status.
func statusOf(err error) int {
	var terr *content.TemplateError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &terr):
		return terr.Status
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorHandler renders a minimal HTML error page. Details are only shown in
// development.
func errorHandler(err error, c echo.Context, cfg *config.Config, log logger.Logger) {
	if c.Response().Committed {
		return
	}

	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("unhandled error")
	}

	body := fmt.Sprintf("<h1>%d %s</h1>\n", status, http.StatusText(status))
	if cfg.App.Env == config.EnvDevelopment {
		body += "<pre>" + html.EscapeString(err.Error()) + "</pre>\n"
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.HTML(status, body)
}
