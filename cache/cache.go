// Package cache is the pagebricks cache abstraction. A Cache wraps one Driver
// with a namespace and a default lifetime, degrades backend failures to misses,
// and owns bulk clearing and purging of cache storage.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gaborage/pagebricks/cache/internal/tracking"
	"github.com/gaborage/pagebricks/events"
	"github.com/gaborage/pagebricks/logger"
)

// Options configures a Cache.
type Options struct {
	Enabled bool
	// Lifetime is the default TTL. Zero means DefaultLifetime.
	Lifetime time.Duration
	// DriverSetting is the configured driver value, e.g. "auto".
	DriverSetting string
	Namespace     Namespace

	// Storage describes the on-disk locations used by Clear and PurgeOldCache.
	Storage Storage
	// ConfigFile is touched by invalidation so the next boot rotates the namespace.
	ConfigFile string
	// ClearImagesByDefault adds the image cache to the standard clear category.
	ClearImagesByDefault bool

	Publisher events.Publisher
	Logger    logger.Logger
	// Now overrides the clock. Used by tests.
	Now func() time.Time
}

// Resetter drops an in-process compiled artifact cache, for example compiled templates.
type Resetter interface {
	Reset()
}

// Cache is the process-wide cache handle. It is safe for concurrent use.
//
// Values are CBOR-encoded before they reach the driver, so any Go value with
// exported fields can be saved. Driver failures never surface to callers:
// Fetch degrades to a miss and Save to false, and each failure is logged
// and counted in the degraded-operation metric.
//
// Every key lives in the namespace derived from the site URL, the
// configuration fingerprint and the build version. Changing any of these
// moves the cache to a fresh generation without deleting anything.
type Cache struct {
	driver        Driver
	driverSetting string

	enabled  atomic.Bool
	lifetime atomic.Int64 // seconds

	nsMu      sync.RWMutex
	namespace string
	ns        Namespace

	storage              Storage
	configFile           string
	clearImagesByDefault bool

	resetMu   sync.Mutex
	resetters []Resetter

	publisher events.Publisher
	log       logger.Logger
	now       func() time.Time
}

// New wraps driver and scopes it to opts.Namespace.
func New(driver Driver, opts Options) *Cache {
	c := &Cache{
		driver:               driver,
		driverSetting:        opts.DriverSetting,
		ns:                   opts.Namespace,
		storage:              opts.Storage,
		configFile:           opts.ConfigFile,
		clearImagesByDefault: opts.ClearImagesByDefault,
		publisher:            opts.Publisher,
		log:                  opts.Logger,
		now:                  opts.Now,
	}
	if c.publisher == nil {
		c.publisher = events.Nop{}
	}
	if c.log == nil {
		c.log = logger.Nop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.driverSetting == "" {
		c.driverSetting = DriverAuto
	}

	lifetime := opts.Lifetime
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	c.lifetime.Store(int64(lifetime / time.Second))
	c.enabled.Store(opts.Enabled)

	if opts.Namespace.Generation != "" {
		c.SetNamespace(opts.Namespace.String())
	}
	return c
}

// Fetch decodes the entry under key into dest and reports whether it was a hit.
// Disabled caches, misses, backend failures and undecodable entries all report false.
func (c *Cache) Fetch(ctx context.Context, key string, dest any) bool {
	if !c.Enabled() {
		return false
	}

	start := time.Now()
	data, err := c.driver.Get(ctx, key)
	hit := err == nil
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	tracking.RecordOperation(ctx, c.driver.Name(), tracking.OpGet, time.Since(start), hit, err, c.Namespace())

	if err != nil {
		c.degraded(tracking.OpGet, key, err)
		return false
	}
	if !hit {
		return false
	}
	if err := decodeInto(data, dest); err != nil {
		c.degraded("decode", key, err)
		return false
	}
	return true
}

// Get is the typed form of Fetch.
func Get[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var v T
	ok := c.Fetch(ctx, key, &v)
	return v, ok
}

// Save stores value under key. A ttl of zero uses the current default lifetime.
// It reports false when disabled or when the backend fails.
func (c *Cache) Save(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if !c.Enabled() {
		return false
	}
	if ttl < 0 {
		c.degraded(tracking.OpSet, key, ErrInvalidTTL)
		return false
	}
	if ttl == 0 {
		ttl = c.Lifetime()
	}

	data, err := Marshal(value)
	if err != nil {
		c.degraded("encode", key, err)
		return false
	}

	start := time.Now()
	err = c.driver.Set(ctx, key, data, ttl)
	tracking.RecordOperation(ctx, c.driver.Name(), tracking.OpSet, time.Since(start), false, err, c.Namespace())
	if err != nil {
		c.degraded(tracking.OpSet, key, err)
		return false
	}
	return true
}

// Delete removes key. It reports false when disabled or on backend failure.
func (c *Cache) Delete(ctx context.Context, key string) bool {
	if !c.Enabled() {
		return false
	}
	start := time.Now()
	err := c.driver.Delete(ctx, key)
	tracking.RecordOperation(ctx, c.driver.Name(), tracking.OpDelete, time.Since(start), false, err, c.Namespace())
	if err != nil {
		c.degraded(tracking.OpDelete, key, err)
		return false
	}
	return true
}

// Contains reports whether a live entry exists under key.
func (c *Cache) Contains(ctx context.Context, key string) bool {
	if !c.Enabled() {
		return false
	}
	start := time.Now()
	ok, err := c.driver.Contains(ctx, key)
	tracking.RecordOperation(ctx, c.driver.Name(), tracking.OpContains, time.Since(start), false, err, c.Namespace())
	if err != nil {
		c.degraded(tracking.OpContains, key, err)
		return false
	}
	return ok
}

// DeleteAll removes every entry of the active namespace.
func (c *Cache) DeleteAll(ctx context.Context) bool {
	if !c.Enabled() {
		return false
	}
	return c.clearDriver(ctx)
}

func (c *Cache) clearDriver(ctx context.Context) bool {
	start := time.Now()
	err := c.driver.Clear(ctx)
	tracking.RecordOperation(ctx, c.driver.Name(), tracking.OpClear, time.Since(start), false, err, c.Namespace())
	if err != nil {
		c.degraded(tracking.OpClear, "*", err)
		return false
	}
	return true
}

func (c *Cache) degraded(op, key string, err error) {
	c.log.Warn().
		Err(err).
		Str("driver", c.driver.Name()).
		Str("op", op).
		Str("key", key).
		Msg("cache operation degraded")
}

// SetLifetime shortens the default lifetime so that nothing saved from now on
// outlives future. It never lengthens it; concurrent callers converge on the
// smallest requested lifetime.
func (c *Cache) SetLifetime(future time.Time) {
	if future.IsZero() {
		return
	}
	interval := future.Unix() - c.now().Unix()
	if interval <= 0 {
		return
	}
	for {
		current := c.lifetime.Load()
		if interval >= current {
			return
		}
		if c.lifetime.CompareAndSwap(current, interval) {
			c.log.Debug().Int64("lifetime", interval).Msg("cache lifetime shortened")
			return
		}
	}
}

// Lifetime is the current default TTL.
func (c *Cache) Lifetime() time.Duration {
	return time.Duration(c.lifetime.Load()) * time.Second
}

// SetNamespace re-scopes all subsequent operations. Entries of the previous
// namespace are left in place and become unreachable.
func (c *Cache) SetNamespace(namespace string) {
	c.nsMu.Lock()
	c.namespace = namespace
	c.nsMu.Unlock()
	c.driver.SetNamespace(namespace)
}

// Namespace returns the active namespace.
func (c *Cache) Namespace() string {
	c.nsMu.RLock()
	defer c.nsMu.RUnlock()
	return c.namespace
}

// Generation returns the configuration generation the cache was built for.
func (c *Cache) Generation() string { return c.ns.Generation }

// Enabled reports whether caching is on.
func (c *Cache) Enabled() bool { return c.enabled.Load() }

// SetEnabled turns caching on or off at runtime.
func (c *Cache) SetEnabled(enabled bool) { c.enabled.Store(enabled) }

// DriverName is the name of the driver actually in use.
func (c *Cache) DriverName() string { return c.driver.Name() }

// DriverSetting is the configured driver value that led to DriverName.
func (c *Cache) DriverSetting() string { return c.driverSetting }

// Status summarizes the cache for diagnostics.
func (c *Cache) Status() string {
	return fmt.Sprintf("Cache: [%t] Setting: [%s] Driver: [%s]", c.Enabled(), c.driverSetting, c.DriverName())
}

// AddResetter registers an in-process cache dropped on every clear.
func (c *Cache) AddResetter(r Resetter) {
	if r == nil {
		return
	}
	c.resetMu.Lock()
	defer c.resetMu.Unlock()
	c.resetters = append(c.resetters, r)
}

func (c *Cache) runResetters() {
	c.resetMu.Lock()
	rs := make([]Resetter, len(c.resetters))
	copy(rs, c.resetters)
	c.resetMu.Unlock()

	for _, r := range rs {
		r.Reset()
	}
}

// Close releases the driver.
func (c *Cache) Close() error {
	return c.driver.Close()
}
