package content

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/pagebricks/cache"
	cachetesting "github.com/gaborage/pagebricks/cache/testing"
	"github.com/gaborage/pagebricks/events"
	"github.com/gaborage/pagebricks/templating"
)

const postPath = "pages/blog/post.md"

func TestCachedRenderIsReusedForSameIdentity(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, func(d *Defaults) { d.Template = true })
	src := "# Hi\n\n{{ page.title }}"

	first := h.p.NewPage(postPath, src, fixedNow)
	out1, err := h.p.Content(ctx, first)
	require.NoError(t, err)

	second := h.p.NewPage(postPath, src, fixedNow)
	require.Equal(t, first.ID(), second.ID())
	out2, err := h.p.Content(ctx, second)
	require.NoError(t, err)

	assert.Equal(t, out1, out2)
	assert.Equal(t, "<h1>Hi</h1>\n<p>[T]</p>\n", out2)
	assert.Equal(t, int32(1), h.md.calls.Load())
	assert.Equal(t, int32(1), h.tpl.calls.Load())
	cachetesting.AssertOperationCount(t, h.driver, cachetesting.OpGet, 2)
	cachetesting.AssertOperationCount(t, h.driver, cachetesting.OpSet, 1)
}

func TestContentIsMemoizedOnPage(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	pg := h.p.NewPage(postPath, "text", fixedNow)

	_, err := h.p.Content(ctx, pg)
	require.NoError(t, err)
	_, err = h.p.Content(ctx, pg)
	require.NoError(t, err)

	assert.True(t, pg.Processed())
	cachetesting.AssertOperationCount(t, h.driver, cachetesting.OpGet, 1)
}

func TestMutationRegeneratesIdentity(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	pg := h.p.NewPage(postPath, "Hello", fixedNow)

	_, err := h.p.Content(ctx, pg)
	require.NoError(t, err)
	before := pg.ID()
	require.True(t, h.cache.Contains(ctx, CacheKey(before)))

	pg.SetContent("Changed")
	after := pg.ID()
	assert.NotEqual(t, before, after)
	assert.False(t, pg.Processed())
	assert.False(t, h.cache.Contains(ctx, CacheKey(after)))
	assert.True(t, h.cache.Contains(ctx, CacheKey(before)), "stale entry is left in place")

	out, err := h.p.Content(ctx, pg)
	require.NoError(t, err)
	assert.Equal(t, "<p>Changed</p>\n", out)
}

func TestEveryMutationYieldsFreshIdentity(t *testing.T) {
	h := newHarness(t, nil)
	pg := h.p.NewPage(postPath, "---\ntitle: A\n---\nbody", fixedNow)

	seen := map[string]bool{pg.ID(): true}
	mutations := []func(){
		func() { pg.SetContent("other") },
		func() { require.NoError(t, pg.SetFrontmatter("title: B")) },
		func() { pg.SetHeader(Header{Title: "C"}) },
		func() { pg.Move("pages/news/post.md") },
	}
	for i, m := range mutations {
		m()
		assert.False(t, seen[pg.ID()], "mutation %d reused an identity", i)
		seen[pg.ID()] = true
	}
	assert.Equal(t, "C", pg.Title())
	assert.Equal(t, "pages/news/post.md", pg.Path())
}

func TestCopyLeavesOriginalUntouched(t *testing.T) {
	h := newHarness(t, nil)
	pg := h.p.NewPage(postPath, "body", fixedNow)
	pg.AddContentMeta("k", "v")
	id := pg.ID()

	dup := pg.Copy("pages/copy/post.md")
	dup.AddContentMeta("k", "changed")

	assert.Equal(t, id, pg.ID())
	assert.Equal(t, postPath, pg.Path())
	assert.Equal(t, "v", pg.ContentMeta("k"))
	assert.NotEqual(t, id, dup.ID())
	assert.Equal(t, "pages/copy/post.md", dup.Path())
	assert.Equal(t, "body", dup.Body())
}

func TestProcessingOrder(t *testing.T) {
	tests := []struct {
		name       string
		first      bool
		neverCache bool
		want       []string
	}{
		{name: "markup first", want: []string{"markup", "template"}},
		{name: "template first", first: true, want: []string{"template", "markup"}},
		{name: "never cache template", neverCache: true, want: []string{"markup", "template"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(d *Defaults) {
				d.Template = true
				d.TemplateFirst = tt.first
				d.NeverCacheTemplate = tt.neverCache
			})
			_, err := h.p.Content(context.Background(), h.p.NewPage(postPath, "x {{ a }}", fixedNow))
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.log.list())
		})
	}
}

func TestTemplateFirstSkipsGuard(t *testing.T) {
	h := newHarness(t, func(d *Defaults) {
		d.Template = true
		d.TemplateFirst = true
	})
	_, err := h.p.Content(context.Background(), h.p.NewPage(postPath, "x {{ a }}", fixedNow))
	require.NoError(t, err)

	require.Len(t, h.md.inputs, 1)
	assert.Equal(t, "x [T]", h.md.inputs[0])
}

func TestMarkupBeforeTemplateGuardsSpans(t *testing.T) {
	h := newHarness(t, func(d *Defaults) { d.Template = true })
	src := "# Title\n{{ page.title }}\n{% if true %}x{% endif %}"

	_, err := h.p.Content(context.Background(), h.p.NewPage(postPath, src, fixedNow))
	require.NoError(t, err)

	require.Len(t, h.md.inputs, 1)
	assert.NotContains(t, h.md.inputs[0], "{{")
	assert.NotContains(t, h.md.inputs[0], "{%")

	require.Len(t, h.tpl.inputs, 1)
	assert.Equal(t, "<h1>Title</h1>\n<p>{{ page.title }}\n{% if true %}x{% endif %}</p>\n", h.tpl.inputs[0])
}

func TestNeverCacheTemplateExpandsOnEveryAccess(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, func(d *Defaults) {
		d.Template = true
		d.NeverCacheTemplate = true
	})
	src := "Hello {{ page.title }}"

	first := h.p.NewPage(postPath, src, fixedNow)
	out, err := h.p.Content(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello [T]</p>\n", out)

	art, ok := cache.Get[RenderedArtifact](ctx, h.cache, CacheKey(first.ID()))
	require.True(t, ok)
	assert.Equal(t, "<p>Hello {{ page.title }}</p>\n", art.Content, "cached artifact holds markup output only")

	second := h.p.NewPage(postPath, src, fixedNow)
	out, err = h.p.Content(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello [T]</p>\n", out)

	assert.Equal(t, int32(1), h.md.calls.Load())
	assert.Equal(t, int32(2), h.tpl.calls.Load())
}

func TestFragmentAlwaysExpandsTemplates(t *testing.T) {
	h := newHarness(t, nil)
	pg := h.p.NewPage("pages/home/_hero/hero.md", "{{ x }}", fixedNow)
	require.True(t, pg.Fragment())

	out, err := h.p.Content(context.Background(), pg)
	require.NoError(t, err)
	assert.Equal(t, "<p>[T]</p>\n", out)
}

func TestHeaderOverridesDefaults(t *testing.T) {
	h := newHarness(t, func(d *Defaults) { d.Template = true })
	src := "---\nprocess:\n  markdown: false\n  template: false\n---\n*raw* {{ x }}"

	out, err := h.p.Content(context.Background(), h.p.NewPage(postPath, src, fixedNow))
	require.NoError(t, err)
	assert.Equal(t, "*raw* {{ x }}", out)
	assert.Zero(t, h.md.calls.Load())
	assert.Zero(t, h.tpl.calls.Load())
}

func TestCacheDisabledByHeader(t *testing.T) {
	h := newHarness(t, nil)
	pg := h.p.NewPage(postPath, "---\ncache_enable: false\n---\nbody", fixedNow)

	_, err := h.p.Content(context.Background(), pg)
	require.NoError(t, err)
	cachetesting.AssertNoDriverCalls(t, h.driver)
}

func TestGlobalCacheOffIsTransparent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.cache.SetEnabled(false)

	for range 2 {
		_, err := h.p.Content(ctx, h.p.NewPage(postPath, "body", fixedNow))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), h.md.calls.Load())
	cachetesting.AssertNoDriverCalls(t, h.driver)
}

func TestBackendFailureDegradesToMiss(t *testing.T) {
	h := newHarness(t, nil)
	h.driver.WithGetFailure(errBoom).WithSetFailure(errBoom)

	out, err := h.p.Content(context.Background(), h.p.NewPage(postPath, "body", fixedNow))
	require.NoError(t, err)
	assert.Equal(t, "<p>body</p>\n", out)
}

func TestSummaryDelimiter(t *testing.T) {
	h := newHarness(t, nil)
	pg := h.p.NewPage(postPath, "Intro\n\n===\n\nRest", fixedNow)

	out, err := h.p.Content(context.Background(), pg)
	require.NoError(t, err)
	assert.Equal(t, "<p>Intro</p>\n\n<p>Rest</p>\n", out)
	assert.Equal(t, len("<p>Intro</p>\n"), pg.SummarySize())
	assert.Equal(t, "<p>Intro</p>\n", pg.Summary())
}

func TestNoSummaryDelimiter(t *testing.T) {
	h := newHarness(t, nil)
	pg := h.p.NewPage(postPath, "just text", fixedNow)

	out, err := h.p.Content(context.Background(), pg)
	require.NoError(t, err)
	assert.Equal(t, -1, pg.SummarySize())
	assert.Equal(t, out, pg.Summary())
}

func TestLifecycleHooksAndMetaReplay(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)

	var mu sync.Mutex
	fired := map[string]int{}
	count := func(name string) events.Listener {
		return func(_ context.Context, e *events.Event) error {
			mu.Lock()
			fired[name]++
			mu.Unlock()
			return nil
		}
	}
	h.bus.AddListener(events.PageContentRaw, count("raw"), 0)
	h.bus.AddListener(events.PageContentProcessed, count("processed"), 0)
	h.bus.AddListener(events.PageContent, count("content"), 0)

	h.bus.AddListener(events.PageContentRaw, func(_ context.Context, e *events.Event) error {
		pg := e.Payload.(*PageEvent).Page
		pg.SetRawContent(pg.RawContent() + "\n\nappended")
		return nil
	}, 0)
	h.bus.AddListener(events.PageContentProcessed, func(_ context.Context, e *events.Event) error {
		e.Payload.(*PageEvent).Page.AddContentMeta("assets", "style.css")
		return nil
	}, 0)

	first := h.p.NewPage(postPath, "body", fixedNow)
	out, err := h.p.Content(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "<p>body</p>\n<p>appended</p>\n", out)
	assert.Equal(t, "style.css", first.ContentMeta("assets"))

	second := h.p.NewPage(postPath, "body", fixedNow)
	out, err = h.p.Content(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "<p>body</p>\n<p>appended</p>\n", out)
	assert.Equal(t, map[string]any{"assets": "style.css"}, second.AllContentMeta())

	assert.Equal(t, map[string]int{"raw": 1, "processed": 1, "content": 2}, fired)
}

func TestContentHookCanReplaceOutput(t *testing.T) {
	h := newHarness(t, nil)
	h.bus.AddListener(events.PageContent, func(_ context.Context, e *events.Event) error {
		e.Payload.(*PageEvent).Page.SetRawContent("replaced")
		return nil
	}, 0)

	out, err := h.p.Content(context.Background(), h.p.NewPage(postPath, "body", fixedNow))
	require.NoError(t, err)
	assert.Equal(t, "replaced", out)
}

func TestHookErrorAbortsRender(t *testing.T) {
	h := newHarness(t, nil)
	h.bus.AddListener(events.PageContentRaw, func(context.Context, *events.Event) error { return errBoom }, 0)
	pg := h.p.NewPage(postPath, "body", fixedNow)

	_, err := h.p.Content(context.Background(), pg)
	require.ErrorIs(t, err, errBoom)
	assert.False(t, pg.Processed())
	cachetesting.AssertOperationCount(t, h.driver, cachetesting.OpSet, 0)
}

func TestTemplateErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "missing include", err: fmt.Errorf("%w: x", templating.ErrNotFound), status: 404},
		{name: "syntax", err: fmt.Errorf("%w: x", templating.ErrRender), status: 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(d *Defaults) { d.Template = true })
			h.tpl.err = tt.err

			_, err := h.p.Content(context.Background(), h.p.NewPage(postPath, "{{ x }}", fixedNow))
			var terr *TemplateError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, tt.status, terr.Status)
			assert.Equal(t, postPath, terr.Template)
			assert.ErrorIs(t, err, tt.err)
			cachetesting.AssertOperationCount(t, h.driver, cachetesting.OpSet, 0)
		})
	}
}

func TestErrorHookSubstitutesOutput(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, func(d *Defaults) { d.Template = true })
	h.tpl.err = fmt.Errorf("%w: x", templating.ErrNotFound)

	var got *TemplateError
	h.bus.AddListener(events.PageError, func(_ context.Context, e *events.Event) error {
		evt := e.Payload.(*ErrorEvent)
		got = evt.Err
		evt.Output = "<h1>Not found</h1>"
		evt.Handled = true
		return nil
	}, 0)

	pg := h.p.NewPage(postPath, "{{ x }}", fixedNow)
	out, err := h.p.Content(ctx, pg)
	require.NoError(t, err)
	assert.Equal(t, "<h1>Not found</h1>", out)
	require.NotNil(t, got)
	assert.Equal(t, 404, got.Status)
	assert.False(t, h.cache.Contains(ctx, CacheKey(pg.ID())), "substituted output is not cached")
}

func TestTemplateFirstErrorPageSkipsMarkup(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, func(d *Defaults) {
		d.Template = true
		d.TemplateFirst = true
	})
	h.tpl.err = fmt.Errorf("%w: x", templating.ErrNotFound)
	h.bus.AddListener(events.PageError, func(_ context.Context, e *events.Event) error {
		evt := e.Payload.(*ErrorEvent)
		evt.Output = "Error page\n# Not Found"
		evt.Handled = true
		return nil
	}, 0)

	pg := h.p.NewPage(postPath, "{{ x }}", fixedNow)
	out, err := h.p.Content(ctx, pg)
	require.NoError(t, err)
	assert.Equal(t, "Error page\n# Not Found", out)
	assert.Equal(t, []string{"template"}, h.log.list())
	assert.False(t, h.cache.Contains(ctx, CacheKey(pg.ID())))
}

func TestFreshRenderDropsStaleContentMeta(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.bus.AddListener(events.PageContentRaw, func(_ context.Context, e *events.Event) error {
		pg := e.Payload.(*PageEvent).Page
		if strings.Contains(pg.RawContent(), "gallery") {
			pg.AddContentMeta("script", "gallery.js")
		}
		return nil
	}, 0)

	pg := h.p.NewPage(postPath, "gallery", fixedNow)
	_, err := h.p.Content(ctx, pg)
	require.NoError(t, err)
	assert.Equal(t, "gallery.js", pg.ContentMeta("script"))

	pg.SetContent("plain text")
	_, err = h.p.Content(ctx, pg)
	require.NoError(t, err)
	assert.Nil(t, pg.ContentMeta("script"))

	var art RenderedArtifact
	require.True(t, h.cache.Fetch(ctx, CacheKey(pg.ID()), &art))
	assert.Empty(t, art.ContentMeta)
}

func TestSetHeaderRelocalizesIdentity(t *testing.T) {
	h := newHarness(t, func(d *Defaults) { d.Language = "en" })
	pg := h.p.NewPage(postPath, "body", fixedNow)
	require.True(t, strings.HasPrefix(pg.ID(), "en"))

	pg.SetHeader(Header{Language: "de"})
	assert.Equal(t, "de", pg.Language())
	assert.True(t, strings.HasPrefix(pg.ID(), "de"), pg.ID())

	require.NoError(t, pg.SetFrontmatter("language: fr\n"))
	assert.True(t, strings.HasPrefix(pg.ID(), "fr"), pg.ID())
}

func TestRenderWrapsWithNamedTemplate(t *testing.T) {
	h := newHarness(t, nil)
	pg := h.p.NewPage("pages/blog/item.fr.md", "body", fixedNow)

	out, err := h.p.Render(context.Background(), pg)
	require.NoError(t, err)
	assert.Equal(t, "<main data-template=\"item.html\"><p>body</p>\n</main>", out)
}

func TestRenderMissingLayout(t *testing.T) {
	h := newHarness(t, nil)
	h.tpl.layout = fmt.Errorf("%w: x", templating.ErrNotFound)
	pg := h.p.NewPage(postPath, "---\ntemplate: blog\n---\nbody", fixedNow)

	_, err := h.p.Render(context.Background(), pg)
	var terr *TemplateError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 404, terr.Status)
	assert.Equal(t, "blog.html", terr.Template)

	content, err := h.p.Content(context.Background(), pg)
	require.NoError(t, err)
	assert.Equal(t, "<p>body</p>\n", content, "page content survives a layout failure")
}

func TestSingleFlightSharesConcurrentMiss(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, func(d *Defaults) { d.SingleFlight = true })
	h.md.block = make(chan struct{})

	const followers = 4
	var wg sync.WaitGroup
	results := make([]string, followers+1)
	errs := make([]error, followers+1)
	render := func(i int) {
		defer wg.Done()
		results[i], errs[i] = h.p.Content(ctx, h.p.NewPage(postPath, "shared", fixedNow))
	}

	wg.Add(1)
	go render(0)
	require.Eventually(t, func() bool { return h.md.calls.Load() == 1 }, time.Second, time.Millisecond)

	wg.Add(followers)
	for i := 1; i <= followers; i++ {
		go render(i)
	}
	time.Sleep(100 * time.Millisecond)
	close(h.md.block)
	wg.Wait()

	assert.Equal(t, int32(1), h.md.calls.Load())
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, "<p>shared</p>\n", results[i])
	}
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blog", "post.de.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("---\ntitle: Hallo\n---\nText"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blog", "frontmatter.yaml"), []byte("title: Default\nauthor: ann\n"), 0o644))

	h := newHarness(t, func(d *Defaults) { d.FrontmatterMerge = true })
	pg, err := h.p.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Hallo", pg.Title())
	assert.Equal(t, "de", pg.Language())
	assert.Equal(t, "ann", pg.Header().Extra["author"])
	assert.Regexp(t, "^de[0-9a-f]{32}$", pg.ID())

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, ComputeID(path, fi.ModTime().UnixNano(), "de"), pg.ID())

	_, err = h.p.Load(dir)
	assert.Error(t, err)
	_, err = h.p.Load(filepath.Join(dir, "missing.md"))
	assert.Error(t, err)
}

func TestFrontmatterMergeDisabled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frontmatter.yaml"), []byte("author: ann\n"), 0o644))
	h := newHarness(t, nil)

	pg := h.p.NewPage(filepath.Join(dir, "post.md"), "body", fixedNow)
	assert.NotContains(t, pg.Header().Extra, "author")
}

func TestInvalidFrontmatterShowsDiagnostic(t *testing.T) {
	h := newHarness(t, nil)
	pg := h.p.NewPage(postPath, "---\ntitle: [oops\n---\nbody", fixedNow)

	require.NotNil(t, pg.FrontmatterError())
	assert.Equal(t, postPath, pg.FrontmatterError().Path)

	out, err := h.p.Content(context.Background(), pg)
	require.NoError(t, err)
	assert.Contains(t, out, "Error: Invalid Frontmatter")
	assert.Contains(t, out, postPath)
	assert.Equal(t, "blog", pg.Title())
}

func TestInvalidResponseCodeIsFrontmatterError(t *testing.T) {
	h := newHarness(t, nil)

	bad := h.p.NewPage(postPath, "---\nhttp_response_code: 700\n---\nbody", fixedNow)
	require.NotNil(t, bad.FrontmatterError())
	assert.Equal(t, 200, bad.ResponseCode())

	ok := h.p.NewPage(postPath, "---\nhttp_response_code: 404\n---\nbody", fixedNow)
	assert.Nil(t, ok.FrontmatterError())
	assert.Equal(t, 404, ok.ResponseCode())
}

func TestLocaleFallsBackToSiteLanguage(t *testing.T) {
	h := newHarness(t, func(d *Defaults) { d.Language = "en" })

	pg := h.p.NewPage(postPath, "body", fixedNow)
	assert.Equal(t, ComputeID(postPath, fixedNow.UnixNano(), "en"), pg.ID())

	fr := h.p.NewPage(postPath, "---\nlanguage: fr\n---\nbody", fixedNow)
	assert.Equal(t, "fr", fr.Language())
	assert.Equal(t, ComputeID(postPath, fixedNow.UnixNano(), "fr"), fr.ID())
}

func TestPublishDates(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		published bool
		lifetime  time.Duration
	}{
		{name: "no dates", header: "title: x", published: true, lifetime: cache.DefaultLifetime},
		{name: "past unpublish", header: "unpublish_date: 2030-05-01", published: false, lifetime: cache.DefaultLifetime},
		{name: "future unpublish", header: "unpublish_date: 2030-06-02 12:00", published: true, lifetime: 24 * time.Hour},
		{name: "future publish", header: "publish_date: 2030-06-01 18:00", published: false, lifetime: 6 * time.Hour},
		{name: "explicit published wins", header: "published: true\npublish_date: 2030-06-01 18:00", published: true, lifetime: cache.DefaultLifetime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			pg := h.p.NewPage(postPath, "---\n"+tt.header+"\n---\nbody", fixedNow)
			require.Nil(t, pg.FrontmatterError())
			assert.Equal(t, tt.published, pg.Published())
			assert.Equal(t, tt.lifetime, h.cache.Lifetime())
		})
	}
}

func TestPublishDatesDisabled(t *testing.T) {
	h := newHarness(t, func(d *Defaults) { d.PublishDates = false })
	pg := h.p.NewPage(postPath, "---\npublish_date: 2031-01-01\n---\nbody", fixedNow)

	assert.True(t, pg.Published())
	assert.Equal(t, cache.DefaultLifetime, h.cache.Lifetime())
}

func TestPipelineWithoutCollaborators(t *testing.T) {
	p := NewPipeline(Options{Defaults: Defaults{Markup: true, Template: true, CacheEnabled: true}})
	pg := p.NewPage(postPath, "*x* {{ y }}", fixedNow)

	out, err := p.Content(context.Background(), pg)
	require.NoError(t, err)
	assert.Equal(t, "*x* {{ y }}", out)

	rendered, err := p.Render(context.Background(), pg)
	require.NoError(t, err)
	assert.Equal(t, out, rendered)
}
