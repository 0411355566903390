package content

import "net/http"

// PageEvent is the payload of the page.content_raw, page.content_processed
// and page.content hooks. Listeners read and replace the working content
// with Page.RawContent and Page.SetRawContent.
type PageEvent struct {
	Page *Page
}

// HeadersEvent is the payload of page.headers. Listeners may edit Headers in
// place or replace it.
type HeadersEvent struct {
	Page    *Page
	Headers http.Header
}

// ErrorEvent is the payload of page.error. A listener that renders a
// substitute sets Output and Handled.
type ErrorEvent struct {
	Page    *Page
	Err     *TemplateError
	Output  string
	Handled bool
}
