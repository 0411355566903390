// Package content models pages and renders them. The Pipeline decides, per
// access, whether a page's rendered form comes from the cache or from running
// the markup transform and template expansion in the configured order.
package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/gaborage/pagebricks/cache"
	"github.com/gaborage/pagebricks/config"
	"github.com/gaborage/pagebricks/events"
	"github.com/gaborage/pagebricks/logger"
	"github.com/gaborage/pagebricks/markup"
	"github.com/gaborage/pagebricks/templating"
)

const (
	tracerName = "pagebricks/content"

	// DefaultSummaryDelimiter marks the manual "read more" boundary.
	DefaultSummaryDelimiter = "==="

	frontmatterDefaultsFile = "frontmatter.yaml"
)

// Defaults are the site-wide processing settings. Page headers override the
// per-page ones.
type Defaults struct {
	Markup             bool
	Template           bool
	CacheEnabled       bool
	TemplateFirst      bool
	NeverCacheTemplate bool
	MarkupExtra        bool

	SummaryDelimiter string
	FrontmatterMerge bool
	PublishDates     bool
	SingleFlight     bool
	Language         string

	ETag               bool
	LastModified       bool
	VaryAcceptEncoding bool
	Expires            int // seconds
	CacheControl       string
}

// DefaultsFromConfig maps the pages and cache sections of cfg.
func DefaultsFromConfig(cfg *config.Config) Defaults {
	p := cfg.Pages
	return Defaults{
		Markup:             p.Process.Markup,
		Template:           p.Process.Template,
		CacheEnabled:       cfg.Cache.Enabled,
		TemplateFirst:      p.TemplateFirst,
		NeverCacheTemplate: p.NeverCacheTemplate,
		MarkupExtra:        p.Markup.Extra,
		SummaryDelimiter:   p.Summary.Delimiter,
		FrontmatterMerge:   p.Frontmatter.Merge,
		PublishDates:       p.PublishDates,
		SingleFlight:       p.SingleFlight,
		Language:           p.Language,
		ETag:               p.ETag,
		LastModified:       p.LastModified,
		VaryAcceptEncoding: p.VaryAcceptEncoding,
		Expires:            p.Expires,
		CacheControl:       p.CacheControl,
	}
}

// Options wires a Pipeline.
type Options struct {
	Defaults  Defaults
	Cache     *cache.Cache
	Markup    markup.Transformer
	Templates templating.Expander
	Publisher events.Publisher
	Logger    logger.Logger
	// Now overrides the clock used for publish dates and headers.
	Now func() time.Time
}

// Pipeline renders pages. It is safe for concurrent use; pages are not.
//
// A page's rendered content is cached under CacheKey(page.ID()). The ID
// changes whenever the page is mutated, so stale renders are never served
// and never need deleting. Processing flags come from the site Defaults,
// and the page header overrides them per page.
type Pipeline struct {
	defaults  Defaults
	cache     *cache.Cache
	markup    markup.Transformer
	templates templating.Expander
	publisher events.Publisher
	log       logger.Logger
	now       func() time.Time
	tracer    trace.Tracer
	group     singleflight.Group
}

// NewPipeline builds a Pipeline. A nil Cache disables caching; a nil Markup
// or Templates disables that pass.
func NewPipeline(opts Options) *Pipeline {
	p := &Pipeline{
		defaults:  opts.Defaults,
		cache:     opts.Cache,
		markup:    opts.Markup,
		templates: opts.Templates,
		publisher: opts.Publisher,
		log:       opts.Logger,
		now:       opts.Now,
		tracer:    otel.Tracer(tracerName),
	}
	if p.publisher == nil {
		p.publisher = events.Nop{}
	}
	if p.log == nil {
		p.log = logger.Nop()
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.defaults.SummaryDelimiter == "" {
		p.defaults.SummaryDelimiter = DefaultSummaryDelimiter
	}
	return p
}

// Load reads a page from disk.
func (p *Pipeline) Load(path string) (*Page, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("content: stat %s: %w", path, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("content: %s is a directory", path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", path, err)
	}
	return p.NewPage(path, string(src), fi.ModTime()), nil
}

// NewPage builds a page from source text. Header problems never fail: the
// page body is replaced by a diagnostic instead.
func (p *Pipeline) NewPage(path, source string, modified time.Time) *Page {
	pg := &Page{
		path:        path,
		modified:    modified,
		source:      source,
		language:    languageFromName(path),
		summarySize: -1,
		fragment:    strings.HasPrefix(filepath.Base(filepath.Dir(path)), "_"),
	}
	p.parse(pg)
	pg.siteLanguage = p.defaults.Language
	pg.localize()
	p.applyPublishState(pg)
	return pg
}

func (p *Pipeline) parse(pg *Page) {
	fm, body := splitFrontmatter(pg.source)

	var defaults []byte
	if p.defaults.FrontmatterMerge {
		b, err := os.ReadFile(filepath.Join(filepath.Dir(pg.path), frontmatterDefaultsFile))
		switch {
		case err == nil:
			defaults = b
		case !errors.Is(err, fs.ErrNotExist):
			p.log.Warn().Err(err).Str("path", pg.path).Msg("frontmatter defaults unreadable")
		}
	}

	h, err := ParseHeader([]byte(fm), defaults)
	if err != nil {
		pg.headerErr = &FrontmatterError{Path: pg.path, Err: err}
		p.log.Warn().Err(err).Str("path", pg.path).Msg("invalid frontmatter")

		pg.source = frontmatterDiagnostic(pg.path, pg.Slug(), pg.source, err)
		fm, body = splitFrontmatter(pg.source)
		h, _ = ParseHeader([]byte(fm), nil)
	}

	pg.frontmatter = fm
	pg.body = body
	pg.header = h
	if h.Language != "" {
		pg.language = h.Language
	}
}

// applyPublishState derives the publish flag from publish dates and caps the
// cache lifetime at the next date the flag will flip.
func (p *Pipeline) applyPublishState(pg *Page) {
	h := pg.header
	pg.published = true
	if h.Published != nil {
		pg.published = *h.Published
		return
	}
	if !p.defaults.PublishDates {
		return
	}

	now := p.now()
	if !h.UnpublishDate.IsZero() {
		if h.UnpublishDate.Before(now) {
			pg.published = false
		} else if p.cache != nil {
			p.cache.SetLifetime(h.UnpublishDate)
		}
	}
	if !h.PublishDate.IsZero() && h.PublishDate.After(now) {
		pg.published = false
		if p.cache != nil {
			p.cache.SetLifetime(h.PublishDate)
		}
	}
}

type flags struct {
	markup             bool
	template           bool
	cache              bool
	templateFirst      bool
	neverCacheTemplate bool
	extra              bool
}

func pick(v *bool, fallback bool) bool {
	if v != nil {
		return *v
	}
	return fallback
}

func (p *Pipeline) flags(pg *Page) flags {
	h := pg.header
	d := p.defaults
	return flags{
		markup:             p.markup != nil && pick(h.Process.Markdown, d.Markup),
		template:           p.templates != nil && (pick(h.Process.Template, d.Template) || pg.fragment),
		cache:              p.cache != nil && pick(h.CacheEnable, d.CacheEnabled),
		templateFirst:      pick(h.TemplateFirst, d.TemplateFirst),
		neverCacheTemplate: pick(h.NeverCacheTemplate, d.NeverCacheTemplate),
		extra:              pick(h.Markdown.Extra, d.MarkupExtra),
	}
}

// Content returns the rendered content of pg, running the pipeline on first
// access after construction or mutation.
//
// On a cache hit the stored artifact and its content meta are replayed and
// only the page.content hook runs. On a miss the raw and processed hooks run
// around the markup and template passes, and the result is saved unless an
// error page was substituted. Templates marked never-cache are expanded on
// every access, after the cached markup output is loaded.
func (p *Pipeline) Content(ctx context.Context, pg *Page) (string, error) {
	if pg.content != nil {
		return *pg.content, nil
	}

	ctx, span := p.tracer.Start(ctx, "page.content",
		trace.WithAttributes(attribute.String("page.path", pg.path), attribute.String("page.id", pg.ID())))
	defer span.End()

	if err := p.process(ctx, pg, span); err != nil {
		pg.content = nil
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return *pg.content, nil
}

func (p *Pipeline) process(ctx context.Context, pg *Page, span trace.Span) error {
	f := p.flags(pg)
	key := CacheKey(pg.ID())

	var art RenderedArtifact
	hit := f.cache && p.cache.Fetch(ctx, key, &art)
	span.SetAttributes(attribute.Bool("cache.hit", hit))

	if hit {
		pg.SetRawContent(art.Content)
		pg.contentMeta = art.ContentMeta
	} else if err := p.produce(ctx, pg, key, f); err != nil {
		return err
	}

	if f.neverCacheTemplate && f.template {
		if _, err := p.expand(ctx, pg); err != nil {
			return err
		}
	}

	out, cutoff := splitSummary(pg.RawContent(), p.defaults.SummaryDelimiter)
	pg.SetRawContent(out)
	pg.summarySize = cutoff

	if _, err := p.publisher.Dispatch(ctx, events.PageContent, &PageEvent{Page: pg}); err != nil {
		return err
	}
	return nil
}

// produce runs the transforms for a cache miss. With single-flight on,
// concurrent misses on one key share the first caller's result.
func (p *Pipeline) produce(ctx context.Context, pg *Page, key string, f flags) error {
	if !p.defaults.SingleFlight {
		_, err := p.compute(ctx, pg, key, f)
		return err
	}

	ran := false
	v, err, _ := p.group.Do(key, func() (any, error) {
		ran = true
		return p.compute(ctx, pg, key, f)
	})
	if err != nil {
		return err
	}
	if !ran {
		art := v.(RenderedArtifact)
		pg.SetRawContent(art.Content)
		pg.contentMeta = maps.Clone(art.ContentMeta)
	}
	return nil
}

func (p *Pipeline) compute(ctx context.Context, pg *Page, key string, f flags) (RenderedArtifact, error) {
	pg.SetRawContent(pg.body)
	pg.contentMeta = nil
	if _, err := p.publisher.Dispatch(ctx, events.PageContentRaw, &PageEvent{Page: pg}); err != nil {
		return RenderedArtifact{}, err
	}

	substituted := false
	var err error
	switch {
	case f.neverCacheTemplate:
		if f.markup {
			err = p.transform(pg, f.template, f.extra)
		}
	case f.templateFirst:
		if f.template {
			substituted, err = p.expand(ctx, pg)
		}
		// A substituted error page is final output, not markup source.
		if err == nil && f.markup && !substituted {
			err = p.transform(pg, false, f.extra)
		}
	default:
		if f.markup {
			err = p.transform(pg, f.template, f.extra)
		}
		if err == nil && f.template {
			substituted, err = p.expand(ctx, pg)
		}
	}
	if err != nil {
		return RenderedArtifact{}, err
	}

	if _, err := p.publisher.Dispatch(ctx, events.PageContentProcessed, &PageEvent{Page: pg}); err != nil {
		return RenderedArtifact{}, err
	}

	art := RenderedArtifact{Content: pg.RawContent(), ContentMeta: pg.contentMeta}
	if f.cache && !substituted {
		p.cache.Save(ctx, key, art, 0)
	}
	return art, nil
}

// transform runs the markup pass. With guard set, template spans are hidden
// from it and restored afterwards.
func (p *Pipeline) transform(pg *Page, guard, extra bool) error {
	src := pg.RawContent()
	var g *tokenGuard
	if guard {
		g = newTokenGuard(src)
		src = g.encode(src)
	}

	out, err := p.markup.Transform([]byte(src), markup.Options{Extra: extra})
	if err != nil {
		return fmt.Errorf("content: %s: %w", pg.path, err)
	}

	html := string(out)
	if g != nil {
		html = g.restore(html)
	}
	pg.SetRawContent(html)
	return nil
}

// expand runs template expansion over the working content. It reports
// whether an error-page listener substituted the output.
func (p *Pipeline) expand(ctx context.Context, pg *Page) (bool, error) {
	out, err := p.templates.ExpandString(pg.RawContent(), p.Vars(pg))
	if err == nil {
		pg.SetRawContent(out)
		return false, nil
	}
	return p.templateFailure(ctx, pg, newTemplateError(pg.path, err))
}

func newTemplateError(name string, err error) *TemplateError {
	status := 400
	if errors.Is(err, templating.ErrNotFound) {
		status = 404
	}
	return &TemplateError{Status: status, Template: name, Err: err}
}

func (p *Pipeline) templateFailure(ctx context.Context, pg *Page, terr *TemplateError) (bool, error) {
	evt := &ErrorEvent{Page: pg, Err: terr}
	if _, err := p.publisher.Dispatch(ctx, events.PageError, evt); err != nil {
		return false, errors.Join(terr, err)
	}
	if !evt.Handled {
		return false, terr
	}
	p.log.Debug().Str("path", pg.path).Int("status", terr.Status).Msg("template error substituted")
	pg.SetRawContent(evt.Output)
	return true, nil
}

// Vars are the variables a page's templates see.
func (p *Pipeline) Vars(pg *Page) map[string]any {
	return map[string]any{
		"page": map[string]any{
			"id":        pg.ID(),
			"path":      pg.path,
			"title":     pg.Title(),
			"slug":      pg.Slug(),
			"language":  pg.language,
			"modified":  pg.modified,
			"published": pg.published,
			"header":    pg.header.Map(),
			"meta":      pg.contentMeta,
		},
		"header": pg.header.Map(),
	}
}

// Render renders pg's content and wraps it with its named template.
func (p *Pipeline) Render(ctx context.Context, pg *Page) (string, error) {
	body, err := p.Content(ctx, pg)
	if err != nil {
		return "", err
	}
	if p.templates == nil {
		return body, nil
	}

	vars := p.Vars(pg)
	vars["content"] = body
	name := pg.TemplateName()
	out, err := p.templates.Render(name, vars)
	if err == nil {
		return out, nil
	}

	ctx, span := p.tracer.Start(ctx, "page.template")
	defer span.End()
	span.RecordError(err)

	pg.SetRawContent(body)
	if _, ferr := p.templateFailure(ctx, pg, newTemplateError(name, err)); ferr != nil {
		return "", ferr
	}
	substitute := pg.RawContent()
	pg.SetRawContent(body)
	return substitute, nil
}
