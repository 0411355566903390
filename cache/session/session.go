// Package session is a cache driver scoped to one user session. All entries
// of a namespace live in a single session slot named "cache-<namespace>".
package session

import (
	"context"
	"sync"
	"time"

	"github.com/gaborage/pagebricks/cache"
)

// Store is the session bag the driver writes into.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Delete(key string)
}

type record struct {
	Value   []byte
	Expires time.Time
}

type bucket map[string]record

// Driver implements cache.Driver on top of a Store.
type Driver struct {
	mu        sync.Mutex
	store     Store
	namespace string
	now       func() time.Time
}

var _ cache.Driver = (*Driver)(nil)

// New wraps store. now may be nil.
func New(store Store, now func() time.Time) *Driver {
	if now == nil {
		now = time.Now
	}
	return &Driver{store: store, now: now}
}

// Name implements cache.Driver.
func (d *Driver) Name() string { return cache.DriverSession }

// SetNamespace implements cache.Driver.
func (d *Driver) SetNamespace(namespace string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.namespace = namespace
}

// SlotKey is the session key holding the active namespace's entries.
func (d *Driver) SlotKey() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.slotKey()
}

func (d *Driver) slotKey() string { return "cache-" + d.namespace }

// bucket must be called with d.mu held.
func (d *Driver) bucket() bucket {
	if v, ok := d.store.Get(d.slotKey()); ok {
		if b, ok := v.(bucket); ok {
			return b
		}
	}
	return bucket{}
}

// Get implements cache.Driver.
func (d *Driver) Get(_ context.Context, key string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := d.bucket()
	rec, ok := b[key]
	if !ok {
		return nil, cache.ErrNotFound
	}
	if !rec.Expires.IsZero() && !d.now().Before(rec.Expires) {
		delete(b, key)
		d.store.Set(d.slotKey(), b)
		return nil, cache.ErrNotFound
	}
	return rec.Value, nil
}

// Set implements cache.Driver.
func (d *Driver) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		return cache.ErrInvalidTTL
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	rec := record{Value: append([]byte(nil), value...)}
	if ttl > 0 {
		rec.Expires = d.now().Add(ttl)
	}
	b := d.bucket()
	b[key] = rec
	d.store.Set(d.slotKey(), b)
	return nil
}

// Delete implements cache.Driver.
func (d *Driver) Delete(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := d.bucket()
	if _, ok := b[key]; ok {
		delete(b, key)
		d.store.Set(d.slotKey(), b)
	}
	return nil
}

// Contains implements cache.Driver.
func (d *Driver) Contains(ctx context.Context, key string) (bool, error) {
	_, err := d.Get(ctx, key)
	if err != nil {
		return false, nil
	}
	return true, nil
}

// Clear implements cache.Driver.
func (d *Driver) Clear(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.store.Delete(d.slotKey())
	return nil
}

// Close implements cache.Driver.
func (d *Driver) Close() error { return nil }
