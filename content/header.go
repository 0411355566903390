package content

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Header is the typed page front-matter. Pointer fields are unset unless the
// page or the directory defaults name them; unset fields fall back to the
// site configuration. Keys without a field land in Extra.
type Header struct {
	Title          string `koanf:"title"`
	Slug           string `koanf:"slug"`
	Template       string `koanf:"template"`
	TemplateFormat string `koanf:"template_format"`
	Language       string `koanf:"language"`
	Published      *bool  `koanf:"published"`

	Process            Process        `koanf:"process"`
	Markdown           MarkdownHeader `koanf:"markdown"`
	CacheEnable        *bool          `koanf:"cache_enable"`
	TemplateFirst      *bool          `koanf:"template_first"`
	NeverCacheTemplate *bool          `koanf:"never_cache_template"`

	HTTPResponseCode int    `koanf:"http_response_code" validate:"omitempty,min=100,max=599"`
	Expires          *int   `koanf:"expires" validate:"omitempty,gte=0"`
	CacheControl     string `koanf:"cache_control"`
	ETag             *bool  `koanf:"etag"`
	LastModified     *bool  `koanf:"last_modified"`

	Date          time.Time `koanf:"-"`
	PublishDate   time.Time `koanf:"-"`
	UnpublishDate time.Time `koanf:"-"`

	Extra map[string]any `koanf:"-"`

	raw map[string]any
}

// Process toggles the two transform passes for one page.
type Process struct {
	Markdown *bool `koanf:"markdown"`
	Template *bool `koanf:"template"`
}

// MarkdownHeader overrides markup options for one page.
type MarkdownHeader struct {
	Extra *bool `koanf:"extra"`
}

// Map returns the merged header as parsed, for template variables.
func (h Header) Map() map[string]any {
	if h.raw == nil {
		return map[string]any{}
	}
	return h.raw
}

var knownKeys = map[string]struct{}{
	"title": {}, "slug": {}, "template": {}, "template_format": {}, "language": {},
	"published": {}, "process": {}, "markdown": {}, "cache_enable": {},
	"template_first": {}, "never_cache_template": {}, "http_response_code": {},
	"expires": {}, "cache_control": {}, "etag": {}, "last_modified": {},
	"date": {}, "publish_date": {}, "unpublish_date": {},
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02-01-2006 15:04",
	"01/02/2006",
	"2006-01-02 15:04:05 -0700 MST",
}

var (
	headerValidateOnce sync.Once
	headerValidate     *validator.Validate
)

func headerValidator() *validator.Validate {
	headerValidateOnce.Do(func() {
		headerValidate = validator.New()
		headerValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return headerValidate
}

// ParseHeader parses YAML front-matter. defaults, when not empty, is merged
// underneath so that keys set by the page win.
func ParseHeader(frontmatter, defaults []byte) (Header, error) {
	k := koanf.New(".")
	for _, src := range [][]byte{defaults, frontmatter} {
		if len(bytes.TrimSpace(src)) == 0 {
			continue
		}
		if err := k.Load(rawbytes.Provider(src), yaml.Parser()); err != nil {
			return Header{}, err
		}
	}

	var h Header
	if err := k.UnmarshalWithConf("", &h, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Header{}, fmt.Errorf("decode header: %w", err)
	}

	var err error
	if h.Date, err = parseDate(k, "date"); err != nil {
		return Header{}, err
	}
	if h.PublishDate, err = parseDate(k, "publish_date"); err != nil {
		return Header{}, err
	}
	if h.UnpublishDate, err = parseDate(k, "unpublish_date"); err != nil {
		return Header{}, err
	}

	if err := headerValidator().Struct(h); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return Header{}, fmt.Errorf("%s: failed %q rule (value %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return Header{}, err
	}

	h.raw = k.Raw()
	h.Extra = make(map[string]any)
	for key, v := range h.raw {
		if _, ok := knownKeys[key]; !ok {
			h.Extra[key] = v
		}
	}
	h.Title = strings.TrimSpace(h.Title)
	h.Language = strings.TrimSpace(h.Language)
	return h, nil
}

func parseDate(k *koanf.Koanf, key string) (time.Time, error) {
	if !k.Exists(key) {
		return time.Time{}, nil
	}
	if t, ok := k.Get(key).(time.Time); ok {
		return t, nil
	}
	s := strings.TrimSpace(k.String(key))
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%s: unrecognized date %q", key, s)
}

// splitFrontmatter separates a leading "---" delimited YAML block from the
// body. Sources without one have an empty front-matter.
func splitFrontmatter(src string) (frontmatter, body string) {
	src = strings.TrimPrefix(src, "\ufeff")
	first, rest, ok := strings.Cut(src, "\n")
	if !ok || strings.TrimRight(first, " \t\r") != "---" {
		return "", src
	}

	var fm strings.Builder
	for {
		line, next, more := strings.Cut(rest, "\n")
		if strings.TrimRight(line, " \t\r") == "---" {
			return fm.String(), next
		}
		fm.WriteString(line)
		fm.WriteByte('\n')
		if !more {
			// Unterminated block: treat everything as body.
			return "", src
		}
		rest = next
	}
}
