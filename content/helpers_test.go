package content

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gaborage/pagebricks/cache"
	cachetesting "github.com/gaborage/pagebricks/cache/testing"
	"github.com/gaborage/pagebricks/events"
	"github.com/gaborage/pagebricks/markup"
)

var fixedNow = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// callLog records the order of transform passes across fakes.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, s)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type recordingMarkup struct {
	inner  markup.Transformer
	log    *callLog
	calls  atomic.Int32
	inputs []string
	mu     sync.Mutex
	// block, when set, is waited on inside Transform.
	block chan struct{}
}

func (m *recordingMarkup) Transform(src []byte, opts markup.Options) ([]byte, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.inputs = append(m.inputs, string(src))
	m.mu.Unlock()
	if m.log != nil {
		m.log.add("markup")
	}
	if m.block != nil {
		<-m.block
	}
	return m.inner.Transform(src, opts)
}

// fakeExpander replaces every template span with "[T]".
type fakeExpander struct {
	log    *callLog
	calls  atomic.Int32
	inputs []string
	mu     sync.Mutex
	err    error
	layout error
}

func (f *fakeExpander) ExpandString(src string, _ map[string]any) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.inputs = append(f.inputs, src)
	f.mu.Unlock()
	if f.log != nil {
		f.log.add("template")
	}
	if f.err != nil {
		return "", f.err
	}
	return templateSpan.ReplaceAllString(src, "[T]"), nil
}

func (f *fakeExpander) Render(name string, vars map[string]any) (string, error) {
	if f.layout != nil {
		return "", f.layout
	}
	return "<main data-template=\"" + name + "\">" + vars["content"].(string) + "</main>", nil
}

type harness struct {
	p      *Pipeline
	cache  *cache.Cache
	driver *cachetesting.MockDriver
	md     *recordingMarkup
	tpl    *fakeExpander
	bus    *events.Dispatcher
	log    *callLog
}

func newHarness(t *testing.T, mutate func(*Defaults)) *harness {
	t.Helper()
	d := Defaults{
		Markup:           true,
		CacheEnabled:     true,
		SummaryDelimiter: DefaultSummaryDelimiter,
		PublishDates:     true,
	}
	if mutate != nil {
		mutate(&d)
	}

	log := &callLog{}
	h := &harness{
		driver: cachetesting.NewMockDriver(),
		md:     &recordingMarkup{inner: markup.New(), log: log},
		tpl:    &fakeExpander{log: log},
		bus:    events.NewDispatcher(),
		log:    log,
	}
	h.cache = cache.New(h.driver, cache.Options{
		Enabled:   true,
		Namespace: cache.Namespace{Prefix: "g", Generation: "00c0ffee"},
		Now:       clock,
	})
	h.p = NewPipeline(Options{
		Defaults:  d,
		Cache:     h.cache,
		Markup:    h.md,
		Templates: h.tpl,
		Publisher: h.bus,
		Now:       clock,
	})
	return h
}

var errBoom = errors.New("boom")
