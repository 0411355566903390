package content

import (
	"context"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gaborage/pagebricks/events"
)

// Headers assembles the HTTP response headers for pg and lets page.headers
// listeners adjust them.
func (p *Pipeline) Headers(ctx context.Context, pg *Page) (http.Header, error) {
	h := make(http.Header)
	d := p.defaults

	contentType := mime.TypeByExtension("." + pg.TemplateFormat())
	if contentType == "" {
		contentType = "text/html"
	}
	h.Set("Content-Type", contentType)

	expires := d.Expires
	if pg.header.Expires != nil {
		expires = *pg.header.Expires
	}
	cacheControl := d.CacheControl
	if pg.header.CacheControl != "" {
		cacheControl = pg.header.CacheControl
	}

	if expires > 0 {
		h.Set("Expires", p.now().Add(time.Duration(expires)*time.Second).UTC().Format(http.TimeFormat))
		if cacheControl == "" {
			h.Set("Cache-Control", "max-age="+strconv.Itoa(expires))
		}
	}
	if cacheControl != "" {
		h.Set("Cache-Control", strings.ToLower(cacheControl))
	}
	if pick(pg.header.LastModified, d.LastModified) {
		h.Set("Last-Modified", pg.modified.UTC().Format(http.TimeFormat))
	}
	if pick(pg.header.ETag, d.ETag) {
		h.Set("ETag", strconv.Quote(pg.ID()))
	}
	if d.VaryAcceptEncoding {
		h.Set("Vary", "Accept-Encoding")
	}

	evt := &HeadersEvent{Page: pg, Headers: h}
	if _, err := p.publisher.Dispatch(ctx, events.PageHeaders, evt); err != nil {
		return nil, err
	}
	return evt.Headers, nil
}
