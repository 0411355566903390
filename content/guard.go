package content

import (
	"crypto/rand"
	"encoding/base64"
	"regexp"
	"strings"
)

// templateSpan matches the comment, expression and statement delimiter forms.
// A span never crosses a line break, so a stray opener cannot hide the
// paragraphs after it from markup.
var templateSpan = regexp.MustCompile(`\{#.*?#\}|\{\{.*?\}\}|\{%.*?%\}`)

const markerAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// tokenGuard hides template spans from the markup transform. Each span is
// replaced by open + base64url(span) + close, where the markers are random
// alphanumerics that are inert markup and absent from the source.
type tokenGuard struct {
	open, close string
	decode      *regexp.Regexp
}

func newTokenGuard(src string) *tokenGuard {
	for {
		g := &tokenGuard{open: "PB" + randomMarker(8), close: randomMarker(8) + "PB"}
		if strings.Contains(src, g.open) || strings.Contains(src, g.close) {
			continue
		}
		g.decode = regexp.MustCompile(regexp.QuoteMeta(g.open) + `([A-Za-z0-9_-]*?)` + regexp.QuoteMeta(g.close))
		return g
	}
}

func randomMarker(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	for i := range b {
		b[i] = markerAlphabet[int(b[i])%len(markerAlphabet)]
	}
	return string(b)
}

// encode replaces every template span with an opaque token.
func (g *tokenGuard) encode(src string) string {
	return templateSpan.ReplaceAllStringFunc(src, func(span string) string {
		return g.open + base64.RawURLEncoding.EncodeToString([]byte(span)) + g.close
	})
}

// restore turns tokens back into the original spans.
func (g *tokenGuard) restore(s string) string {
	return g.decode.ReplaceAllStringFunc(s, func(tok string) string {
		payload := tok[len(g.open) : len(tok)-len(g.close)]
		span, err := base64.RawURLEncoding.DecodeString(payload)
		if err != nil {
			return tok
		}
		return string(span)
	})
}
