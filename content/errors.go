package content

import (
	"fmt"
	"net/http"
)

// TemplateError is a template-expansion failure. Status is an HTTP status:
// 404 when a referenced template does not exist, 400 otherwise.
type TemplateError struct {
	Status   int
	Template string
	Err      error
}

func (e *TemplateError) Error() string {
	if e.Template != "" {
		return fmt.Sprintf("template %s: %d %s: %v", e.Template, e.Status, http.StatusText(e.Status), e.Err)
	}
	return fmt.Sprintf("template: %d %s: %v", e.Status, http.StatusText(e.Status), e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// FrontmatterError is a header that could not be parsed or validated. It is
// never returned from rendering; the page shows a diagnostic instead.
type FrontmatterError struct {
	Path string
	Err  error
}

func (e *FrontmatterError) Error() string {
	return fmt.Sprintf("invalid frontmatter in %s: %v", e.Path, e.Err)
}

func (e *FrontmatterError) Unwrap() error { return e.Err }
