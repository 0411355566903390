package templating

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplate(t *testing.T, dir, name, body string) {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func TestExpandStringDelimiterForms(t *testing.T) {
	p := New(Options{Dir: t.TempDir()})

	out, err := p.ExpandString("{# note #}Hello {{ name }}{% if show %}!{% endif %}", map[string]any{
		"name": "World",
		"show": true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello World!", out)
}

func TestExpandStringAutoescape(t *testing.T) {
	vars := map[string]any{"v": "<b>x</b>"}

	out, err := New(Options{Autoescape: true}).ExpandString("{{ v }}", vars)
	require.NoError(t, err)
	assert.Equal(t, "&lt;b&gt;x&lt;/b&gt;", out)

	out, err = New(Options{Autoescape: false}).ExpandString("{{ v }}", vars)
	require.NoError(t, err)
	assert.Equal(t, "<b>x</b>", out)
}

func TestExpandStringGlobals(t *testing.T) {
	p := New(Options{Globals: map[string]any{"site": map[string]any{"name": "Docs"}}})

	out, err := p.ExpandString("{{ site.name }}", nil)
	require.NoError(t, err)
	assert.Equal(t, "Docs", out)
}

func TestExpandStringSyntaxError(t *testing.T) {
	_, err := New(Options{}).ExpandString("{% if %}", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRender)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestExpandStringMissingInclude(t *testing.T) {
	_, err := New(Options{Dir: t.TempDir()}).ExpandString(`{% include "partials/missing.html" %}`, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExpandStringInclude(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "partials/greet.html", "hi {{ who }}")

	out, err := New(Options{Dir: dir}).ExpandString(`[{% include "partials/greet.html" %}]`, map[string]any{"who": "ann"})
	require.NoError(t, err)
	assert.Equal(t, "[hi ann]", out)
}

func TestRenderNamedTemplate(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "default.html", "<h1>{{ title }}</h1>")
	p := New(Options{Dir: dir})

	out, err := p.Render("default.html", map[string]any{"title": "Home"})
	require.NoError(t, err)
	assert.Equal(t, "<h1>Home</h1>", out)
	assert.True(t, p.Exists("default.html"))
	assert.False(t, p.Exists("nope.html"))

	_, err = p.Render("nope.html", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResetDropsCompiledTemplates(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "page.html", "v1")
	p := New(Options{Dir: dir})

	out, err := p.Render("page.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "v1", out)

	writeTemplate(t, dir, "page.html", "v2")
	out, err = p.Render("page.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "v1", out, "compiled template is reused")

	p.Reset()
	out, err = p.Render("page.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "v2", out)
}

func TestDebugRecompiles(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "page.html", "a")
	p := New(Options{Dir: dir, Debug: true})

	_, err := p.Render("page.html", nil)
	require.NoError(t, err)
	writeTemplate(t, dir, "page.html", "b")

	out, err := p.Render("page.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "b", out)
}
