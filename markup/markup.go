// Package markup converts page source written in Markdown to HTML.
package markup

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Options selects the grammar for a single conversion.
type Options struct {
	// Extra enables tables, strikethrough, autolinks, task lists, footnotes
	// and definition lists on top of CommonMark.
	Extra bool
}

// Transformer is the markup transform used by the content pipeline.
type Transformer interface {
	Transform(src []byte, opts Options) ([]byte, error)
}

// Goldmark implements Transformer with two prebuilt converters.
type Goldmark struct {
	standard goldmark.Markdown
	extra    goldmark.Markdown
}

var _ Transformer = (*Goldmark)(nil)

// New builds both grammars up front. Raw HTML in the source is kept.
func New() *Goldmark {
	return &Goldmark{
		standard: goldmark.New(
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		extra: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote, extension.DefinitionList),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Transform converts src to HTML.
func (g *Goldmark) Transform(src []byte, opts Options) ([]byte, error) {
	md := g.standard
	if opts.Extra {
		md = g.extra
	}

	var buf bytes.Buffer
	buf.Grow(len(src) + len(src)/2)
	if err := md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("markup: convert: %w", err)
	}
	return buf.Bytes(), nil
}
