package content

import (
	"fmt"
	"maps"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var localeExt = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z]{2,4})?$`)

// Page is one content unit: source text, typed header, processing flags and
// the working state of the pipeline. A Page is not safe for concurrent use.
type Page struct {
	path     string
	modified time.Time
	language string
	locale   string
	// siteLanguage is the locale used when the page has no language.
	siteLanguage string

	source      string
	frontmatter string
	body        string
	header      Header
	headerErr   *FrontmatterError

	id string

	content     *string
	contentMeta map[string]any
	summarySize int

	published bool
	fragment  bool
}

// Path is the storage path.
func (p *Page) Path() string { return p.path }

// Modified is the last modification time.
func (p *Page) Modified() time.Time { return p.modified }

// Language is the page language, from the header or the file name.
func (p *Page) Language() string { return p.language }

// Header returns the parsed header.
func (p *Page) Header() Header { return p.header }

// FrontmatterError is the header parse failure, if any.
func (p *Page) FrontmatterError() *FrontmatterError { return p.headerErr }

// Frontmatter is the raw YAML header text.
func (p *Page) Frontmatter() string { return p.frontmatter }

// Body is the source text after the header.
func (p *Page) Body() string { return p.body }

// Published reports the publish state after publish dates were applied.
func (p *Page) Published() bool { return p.published }

// Fragment reports whether the page is a fragment of a larger page. Fragments
// always get template expansion.
func (p *Page) Fragment() bool { return p.fragment }

// Title is the header title or the file name.
func (p *Page) Title() string {
	if p.header.Title != "" {
		return p.header.Title
	}
	return p.Slug()
}

// Slug is the header slug or the cleaned directory name.
func (p *Page) Slug() string {
	if p.header.Slug != "" {
		return p.header.Slug
	}
	base := filepath.Base(filepath.Dir(p.path))
	if i := strings.IndexByte(base, '.'); i > 0 && strings.Trim(base[:i], "0123456789") == "" {
		base = base[i+1:]
	}
	return strings.TrimPrefix(base, "_")
}

// TemplateName is the named template used to wrap the page.
func (p *Page) TemplateName() string {
	name := p.header.Template
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(p.path), filepath.Ext(p.path))
		if ext := filepath.Ext(name); ext != "" && localeExt.MatchString(ext[1:]) {
			name = strings.TrimSuffix(name, ext)
		}
	}
	return name + "." + p.TemplateFormat()
}

// TemplateFormat is the output format, "html" unless the header says otherwise.
func (p *Page) TemplateFormat() string {
	if p.header.TemplateFormat != "" {
		return p.header.TemplateFormat
	}
	return "html"
}

// ResponseCode is the HTTP status the page is served with.
func (p *Page) ResponseCode() int {
	if p.header.HTTPResponseCode == 0 {
		return 200
	}
	return p.header.HTTPResponseCode
}

// ID returns the identity fingerprint, computing it on first use.
func (p *Page) ID() string {
	if p.id == "" {
		p.id = ComputeID(p.path, p.modified.UnixNano(), p.locale)
	}
	return p.id
}

// regenerate assigns a fresh identity so the next render misses the cache.
func (p *Page) regenerate() {
	p.id = ComputeID(p.path, nextStamp(time.Now()), p.locale)
	p.content = nil
	p.summarySize = -1
}

// SetContent replaces the body text and invalidates the rendered output.
func (p *Page) SetContent(body string) {
	p.body = body
	p.regenerate()
}

// SetHeader replaces the header and invalidates the rendered output.
func (p *Page) SetHeader(h Header) {
	p.header = h
	p.headerErr = nil
	if h.Language != "" {
		p.language = h.Language
	}
	p.localize()
	p.regenerate()
}

// localize picks the locale that prefixes the identity.
func (p *Page) localize() {
	p.locale = p.language
	if p.locale == "" {
		p.locale = p.siteLanguage
	}
}

// SetFrontmatter reparses the header from YAML text and invalidates the
// rendered output.
func (p *Page) SetFrontmatter(frontmatter string) error {
	h, err := ParseHeader([]byte(frontmatter), nil)
	if err != nil {
		return &FrontmatterError{Path: p.path, Err: err}
	}
	p.frontmatter = frontmatter
	p.SetHeader(h)
	return nil
}

// Move relocates the page and invalidates the rendered output.
func (p *Page) Move(path string) {
	p.path = path
	p.regenerate()
}

// Copy returns a duplicate relocated to path. The receiver is unchanged.
func (p *Page) Copy(path string) *Page {
	dup := *p
	dup.contentMeta = maps.Clone(p.contentMeta)
	dup.header.Extra = maps.Clone(p.header.Extra)
	dup.Move(path)
	return &dup
}

// RawContent is the working content. Listeners of the raw and processed
// hooks read it mid-pipeline.
func (p *Page) RawContent() string {
	if p.content == nil {
		return ""
	}
	return *p.content
}

// SetRawContent replaces the working content without changing identity.
func (p *Page) SetRawContent(s string) {
	p.content = &s
}

// AddContentMeta records a side-channel annotation replayed on cache hits.
func (p *Page) AddContentMeta(name string, value any) {
	if p.contentMeta == nil {
		p.contentMeta = make(map[string]any)
	}
	p.contentMeta[name] = value
}

// ContentMeta returns one annotation, or nil.
func (p *Page) ContentMeta(name string) any {
	return p.contentMeta[name]
}

// AllContentMeta returns every annotation.
func (p *Page) AllContentMeta() map[string]any {
	return p.contentMeta
}

// SetContentMeta replaces every annotation.
func (p *Page) SetContentMeta(meta map[string]any) {
	p.contentMeta = meta
}

// Processed reports whether rendered content is available.
func (p *Page) Processed() bool { return p.content != nil }

// SummarySize is the byte offset of the manual summary cutoff, or -1.
func (p *Page) SummarySize() int { return p.summarySize }

// Summary is the content up to the manual cutoff, or all of it.
func (p *Page) Summary() string {
	c := p.RawContent()
	if p.summarySize >= 0 && p.summarySize <= len(c) {
		return c[:p.summarySize]
	}
	return c
}

// languageFromName extracts "fr" from "post.fr.md".
func languageFromName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	ext := filepath.Ext(name)
	if ext == "" {
		return ""
	}
	if lang := ext[1:]; localeExt.MatchString(lang) {
		return lang
	}
	return ""
}

// frontmatterDiagnostic is the source substituted for a page whose header
// could not be parsed, so the error shows up in the rendered page.
func frontmatterDiagnostic(path, slug, source string, err error) string {
	return fmt.Sprintf("---\ntitle: %q\n---\n\n# Error: Invalid Frontmatter\n\nPath: `%s`\n\n**%s**\n\n```\n%s\n```\n",
		slug, path, err.Error(), source)
}
