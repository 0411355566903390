// Package memory is the in-process cache driver. It is volatile, bounded by
// an entry count, and evicts the least recently used entry when full.
package memory

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gaborage/pagebricks/cache"
)

// Options configures the driver.
type Options struct {
	// MaxEntries bounds the driver across all namespaces. Zero means unbounded.
	MaxEntries int
	Now        func() time.Time
}

type entry struct {
	key     string
	value   []byte
	expires time.Time
}

// Driver stores entries in a map with an LRU list for eviction.
type Driver struct {
	mu         sync.Mutex
	items      map[string]*list.Element
	lru        *list.List
	namespace  string
	maxEntries int
	now        func() time.Time
	closed     bool
}

var _ cache.Driver = (*Driver)(nil)

// New creates an empty driver.
func New(opts Options) *Driver {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Driver{
		items:      make(map[string]*list.Element),
		lru:        list.New(),
		maxEntries: opts.MaxEntries,
		now:        now,
	}
}

// Name implements cache.Driver.
func (d *Driver) Name() string { return cache.DriverMemory }

// SetNamespace implements cache.Driver.
func (d *Driver) SetNamespace(namespace string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.namespace = namespace
}

func (d *Driver) fullKey(key string) string {
	return d.namespace + "\x00" + key
}

// Get implements cache.Driver.
func (d *Driver) Get(_ context.Context, key string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, cache.ErrClosed
	}

	el, ok := d.items[d.fullKey(key)]
	if !ok {
		return nil, cache.ErrNotFound
	}
	e := el.Value.(*entry)
	if d.expired(e) {
		d.removeElement(el)
		return nil, cache.ErrNotFound
	}
	d.lru.MoveToFront(el)

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set implements cache.Driver.
func (d *Driver) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		return cache.ErrInvalidTTL
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return cache.ErrClosed
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	var expires time.Time
	if ttl > 0 {
		expires = d.now().Add(ttl)
	}

	fk := d.fullKey(key)
	if el, ok := d.items[fk]; ok {
		e := el.Value.(*entry)
		e.value, e.expires = stored, expires
		d.lru.MoveToFront(el)
		return nil
	}

	d.items[fk] = d.lru.PushFront(&entry{key: fk, value: stored, expires: expires})
	d.evict()
	return nil
}

// Delete implements cache.Driver.
func (d *Driver) Delete(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return cache.ErrClosed
	}
	if el, ok := d.items[d.fullKey(key)]; ok {
		d.removeElement(el)
	}
	return nil
}

// Contains implements cache.Driver.
func (d *Driver) Contains(ctx context.Context, key string) (bool, error) {
	_, err := d.Get(ctx, key)
	switch err {
	case nil:
		return true, nil
	case cache.ErrNotFound:
		return false, nil
	default:
		return false, err
	}
}

// Clear implements cache.Driver. Only the active namespace is dropped.
func (d *Driver) Clear(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return cache.ErrClosed
	}
	prefix := d.namespace + "\x00"
	for k, el := range d.items {
		if strings.HasPrefix(k, prefix) {
			d.removeElement(el)
		}
	}
	return nil
}

// Len returns the number of stored entries across namespaces, expired ones included.
func (d *Driver) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// Close implements cache.Driver.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.items = make(map[string]*list.Element)
	d.lru.Init()
	return nil
}

func (d *Driver) expired(e *entry) bool {
	return !e.expires.IsZero() && !d.now().Before(e.expires)
}

func (d *Driver) removeElement(el *list.Element) {
	d.lru.Remove(el)
	delete(d.items, el.Value.(*entry).key)
}

// evict must be called with d.mu held.
func (d *Driver) evict() {
	if d.maxEntries <= 0 || len(d.items) <= d.maxEntries {
		return
	}
	for el := d.lru.Back(); el != nil && len(d.items) > d.maxEntries; {
		prev := el.Prev()
		if d.expired(el.Value.(*entry)) {
			d.removeElement(el)
		}
		el = prev
	}
	for len(d.items) > d.maxEntries {
		d.removeElement(d.lru.Back())
	}
}
