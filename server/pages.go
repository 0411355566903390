package server

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/pagebricks/content"
)

const (
	pageExt   = ".md"
	indexPage = "index" + pageExt
)

// Renderer is what the page route needs from the content pipeline.
type Renderer interface {
	Load(path string) (*content.Page, error)
	Render(ctx context.Context, pg *content.Page) (string, error)
	Headers(ctx context.Context, pg *content.Page) (http.Header, error)
}

// Pages maps request paths onto page files under Root.
type Pages struct {
	Root     string
	Renderer Renderer
}

// Resolve finds the page file for a request path: <route>.md first, then
// <route>/index.md.
func (p *Pages) Resolve(urlPath string) (string, error) {
	clean := strings.Trim(path.Clean("/"+urlPath), "/")
	var candidates []string
	if clean == "" {
		candidates = []string{filepath.Join(p.Root, indexPage)}
	} else {
		rel := filepath.FromSlash(clean)
		candidates = []string{
			filepath.Join(p.Root, rel+pageExt),
			filepath.Join(p.Root, rel, indexPage),
		}
	}

	for _, c := range candidates {
		fi, err := os.Stat(c)
		if err == nil && !fi.IsDir() {
			return c, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", echo.ErrNotFound
}

// Handle renders the page for the request path.
func (p *Pages) Handle(c echo.Context) error {
	file, err := p.Resolve(c.Request().URL.Path)
	if err != nil {
		return err
	}

	pg, err := p.Renderer.Load(file)
	if err != nil {
		return err
	}
	if !pg.Published() {
		return echo.ErrNotFound
	}

	ctx := c.Request().Context()
	body, err := p.Renderer.Render(ctx, pg)
	if err != nil {
		return err
	}
	headers, err := p.Renderer.Headers(ctx, pg)
	if err != nil {
		return err
	}

	resp := c.Response()
	for k, vs := range headers {
		for _, v := range vs {
			resp.Header().Add(k, v)
		}
	}
	contentType := headers.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = echo.MIMETextHTMLCharsetUTF8
	}
	if c.Request().Method == http.MethodHead {
		resp.Header().Set(echo.HeaderContentType, contentType)
		return c.NoContent(pg.ResponseCode())
	}
	return c.Blob(pg.ResponseCode(), contentType, []byte(body))
}
