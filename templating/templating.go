// Package templating expands template directives in page content and renders
// named templates from the templates directory.
//
// The engine understands three delimiter forms: {# comment #}, {{ expression }}
// and {% statement %}.
package templating

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/flosch/pongo2/v6"
)

var (
	// ErrNotFound marks a named template that could not be resolved.
	ErrNotFound = errors.New("templating: template not found")
	// ErrRender marks a syntax or execution failure.
	ErrRender = errors.New("templating: render failed")
)

// Expander is the template-expansion capability used by the content pipeline.
type Expander interface {
	// ExpandString evaluates src as an inline template.
	ExpandString(src string, vars map[string]any) (string, error)
	// Render evaluates the named template file.
	Render(name string, vars map[string]any) (string, error)
}

// Options configures the engine.
type Options struct {
	// Dir holds named templates. It may not exist yet.
	Dir string
	// Autoescape HTML-escapes expression output.
	Autoescape bool
	// Globals are visible to every template.
	Globals map[string]any
	// Debug recompiles named templates on every render.
	Debug bool
}

// Pongo implements Expander with pongo2.
type Pongo struct {
	set *pongo2.TemplateSet
	mu  sync.Mutex
}

var _ Expander = (*Pongo)(nil)

// New creates the engine. Autoescaping is a process-wide pongo2 setting, so
// the last engine created decides it.
func New(opts Options) *Pongo {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	pongo2.SetAutoescape(opts.Autoescape)

	set := pongo2.NewSet("pagebricks", pongo2.NewFSLoader(os.DirFS(dir)))
	set.Debug = opts.Debug
	for k, v := range opts.Globals {
		set.Globals[k] = v
	}
	return &Pongo{set: set}
}

// ExpandString implements Expander.
func (p *Pongo) ExpandString(src string, vars map[string]any) (string, error) {
	p.mu.Lock()
	tpl, err := p.set.FromString(src)
	p.mu.Unlock()
	if err != nil {
		return "", classify(err)
	}
	out, err := tpl.Execute(pongo2.Context(vars))
	if err != nil {
		return "", classify(err)
	}
	return out, nil
}

// Render implements Expander. Compiled templates are kept until Reset.
func (p *Pongo) Render(name string, vars map[string]any) (string, error) {
	tpl, err := p.set.FromCache(name)
	if err != nil {
		return "", classify(err)
	}
	out, err := tpl.Execute(pongo2.Context(vars))
	if err != nil {
		return "", classify(err)
	}
	return out, nil
}

// Exists reports whether a named template can be loaded.
func (p *Pongo) Exists(name string) bool {
	_, err := p.set.FromCache(name)
	return err == nil
}

// Reset drops every compiled template.
func (p *Pongo) Reset() {
	p.set.CleanCache()
}

func classify(err error) error {
	var perr *pongo2.Error
	if errors.As(err, &perr) && perr.Sender == "fromfile" {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return fmt.Errorf("%w: %w", ErrRender, err)
}
