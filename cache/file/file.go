// Package file is the durable cache driver. Each entry is one file under
// <dir>/<namespace>/<hh>/<hash>.cache, written through a temp file and rename.
package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gaborage/pagebricks/cache"
)

const fileExt = ".cache"

// record is the on-disk envelope. Key guards against hash collisions.
type record struct {
	Key     string `cbor:"1,keyasint"`
	Expires int64  `cbor:"2,keyasint"` // unix nanoseconds, 0 = never
	Value   []byte `cbor:"3,keyasint"`
}

// Options configures the driver.
type Options struct {
	// Dir is the generation directory, e.g. cache/file/<generation>.
	Dir string
	Now func() time.Time
}

// Driver implements cache.Driver on the local filesystem.
type Driver struct {
	dir string
	now func() time.Time

	nsMu      sync.RWMutex
	namespace string

	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

var _ cache.Driver = (*Driver)(nil)

// New creates the storage directory and the driver.
func New(opts Options) (*Driver, error) {
	if opts.Dir == "" {
		return nil, cache.NewConfigError("cache.file.dir", "storage directory required", nil)
	}
	abs, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, cache.NewConfigError("cache.file.dir", "resolve storage directory", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, cache.NewConfigError("cache.file.dir", "create storage directory", err)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Driver{dir: abs, now: now, locks: make(map[string]*entryLock)}, nil
}

// Name implements cache.Driver.
func (d *Driver) Name() string { return cache.DriverFile }

// Dir is the generation directory.
func (d *Driver) Dir() string { return d.dir }

// SetNamespace implements cache.Driver.
func (d *Driver) SetNamespace(namespace string) {
	d.nsMu.Lock()
	defer d.nsMu.Unlock()
	d.namespace = namespace
}

func (d *Driver) namespaceDir() string {
	d.nsMu.RLock()
	ns := d.namespace
	d.nsMu.RUnlock()
	if ns == "" {
		ns = "default"
	}
	return filepath.Join(d.dir, sanitize(ns))
}

func (d *Driver) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	h := hex.EncodeToString(sum[:])
	return filepath.Join(d.namespaceDir(), h[:2], h+fileExt)
}

// Get implements cache.Driver.
func (d *Driver) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := d.path(key)

	rec, err := d.read(p, key)
	if err != nil {
		return nil, err
	}
	if !d.expired(rec) {
		return rec.Value, nil
	}

	// A writer may have replaced the entry since it was read.
	unlock := d.lockEntry(p)
	defer unlock()
	rec, err = d.read(p, key)
	if err != nil {
		return nil, err
	}
	if d.expired(rec) {
		_ = os.Remove(p)
		return nil, cache.ErrNotFound
	}
	return rec.Value, nil
}

func (d *Driver) read(p, key string) (record, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return record{}, cache.ErrNotFound
		}
		return record{}, cache.NewOperationError("get", key, err)
	}
	rec, err := cache.Unmarshal[record](data)
	if err != nil || rec.Key != key {
		return record{}, cache.ErrNotFound
	}
	return rec, nil
}

func (d *Driver) expired(rec record) bool {
	return rec.Expires != 0 && d.now().UnixNano() >= rec.Expires
}

// Set implements cache.Driver.
func (d *Driver) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		return cache.ErrInvalidTTL
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rec := record{Key: key, Value: value}
	if ttl > 0 {
		rec.Expires = d.now().Add(ttl).UnixNano()
	}
	data, err := cache.Marshal(rec)
	if err != nil {
		return cache.NewOperationError("set", key, err)
	}

	p := d.path(key)
	unlock := d.lockEntry(p)
	defer unlock()

	if err := writeAtomic(p, data); err != nil {
		return cache.NewOperationError("set", key, err)
	}
	return nil
}

func writeAtomic(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, p); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}

// Delete implements cache.Driver.
func (d *Driver) Delete(_ context.Context, key string) error {
	p := d.path(key)
	unlock := d.lockEntry(p)
	defer unlock()

	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cache.NewOperationError("delete", key, err)
	}
	return nil
}

// Contains implements cache.Driver.
func (d *Driver) Contains(ctx context.Context, key string) (bool, error) {
	_, err := d.Get(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, cache.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Clear implements cache.Driver.
func (d *Driver) Clear(_ context.Context) error {
	if err := os.RemoveAll(d.namespaceDir()); err != nil {
		return cache.NewOperationError("clear", "*", err)
	}
	return nil
}

// Close implements cache.Driver.
func (d *Driver) Close() error { return nil }

func (d *Driver) lockEntry(p string) func() {
	d.mu.Lock()
	l := d.locks[p]
	if l == nil {
		l = &entryLock{}
		d.locks[p] = l
	}
	l.refs++
	d.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		d.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(d.locks, p)
		}
		d.mu.Unlock()
	}
}

// sanitize keeps namespace directory names portable.
func sanitize(ns string) string {
	var b strings.Builder
	for _, r := range ns {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, "%%%02x", r)
		}
	}
	out := b.String()
	if out == "." || out == ".." {
		return "_" + out
	}
	return out
}
