package testing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gaborage/pagebricks/cache"
)

// Operation names accepted by OperationCount.
const (
	OpGet      = "get"
	OpSet      = "set"
	OpDelete   = "delete"
	OpContains = "contains"
	OpClear    = "clear"
	OpClose    = "close"
)

type entry struct {
	value      []byte
	expiration time.Time
	ttl        time.Duration
}

// MockDriver is a thread-safe cache.Driver for tests.
type MockDriver struct {
	name string

	mu        sync.Mutex
	data      map[string]entry // namespace + "\x00" + key
	namespace string
	closed    atomic.Bool

	getError      error
	setError      error
	deleteError   error
	containsError error
	clearError    error

	calls sync.Map // op -> *atomic.Int64
}

var _ cache.Driver = (*MockDriver)(nil)

// NewMockDriver creates a mock reporting itself as "mock".
func NewMockDriver() *MockDriver {
	return &MockDriver{name: "mock", data: make(map[string]entry)}
}

// WithName changes the reported driver name.
func (m *MockDriver) WithName(name string) *MockDriver {
	m.name = name
	return m
}

// WithGetFailure makes Get return err.
func (m *MockDriver) WithGetFailure(err error) *MockDriver {
	m.getError = err
	return m
}

// WithSetFailure makes Set return err.
func (m *MockDriver) WithSetFailure(err error) *MockDriver {
	m.setError = err
	return m
}

// WithDeleteFailure makes Delete return err.
func (m *MockDriver) WithDeleteFailure(err error) *MockDriver {
	m.deleteError = err
	return m
}

// WithContainsFailure makes Contains return err.
func (m *MockDriver) WithContainsFailure(err error) *MockDriver {
	m.containsError = err
	return m
}

// WithClearFailure makes Clear return err.
func (m *MockDriver) WithClearFailure(err error) *MockDriver {
	m.clearError = err
	return m
}

func (m *MockDriver) count(op string) {
	c, _ := m.calls.LoadOrStore(op, new(atomic.Int64))
	c.(*atomic.Int64).Add(1)
}

func (m *MockDriver) fullKey(key string) string { return m.namespace + "\x00" + key }

// Name implements cache.Driver.
func (m *MockDriver) Name() string { return m.name }

// SetNamespace implements cache.Driver.
func (m *MockDriver) SetNamespace(namespace string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.namespace = namespace
}

// Get implements cache.Driver.
func (m *MockDriver) Get(_ context.Context, key string) ([]byte, error) {
	m.count(OpGet)
	if m.closed.Load() {
		return nil, cache.ErrClosed
	}
	if m.getError != nil {
		return nil, m.getError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[m.fullKey(key)]
	if !ok || (!e.expiration.IsZero() && !time.Now().Before(e.expiration)) {
		return nil, cache.ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

// Set implements cache.Driver.
func (m *MockDriver) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.count(OpSet)
	if m.closed.Load() {
		return cache.ErrClosed
	}
	if m.setError != nil {
		return m.setError
	}
	if ttl < 0 {
		return cache.ErrInvalidTTL
	}

	e := entry{value: append([]byte(nil), value...), ttl: ttl}
	if ttl > 0 {
		e.expiration = time.Now().Add(ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[m.fullKey(key)] = e
	return nil
}

// Delete implements cache.Driver.
func (m *MockDriver) Delete(_ context.Context, key string) error {
	m.count(OpDelete)
	if m.closed.Load() {
		return cache.ErrClosed
	}
	if m.deleteError != nil {
		return m.deleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, m.fullKey(key))
	return nil
}

// Contains implements cache.Driver.
func (m *MockDriver) Contains(_ context.Context, key string) (bool, error) {
	m.count(OpContains)
	if m.closed.Load() {
		return false, cache.ErrClosed
	}
	if m.containsError != nil {
		return false, m.containsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[m.fullKey(key)]
	return ok && (e.expiration.IsZero() || time.Now().Before(e.expiration)), nil
}

// Clear implements cache.Driver.
func (m *MockDriver) Clear(_ context.Context) error {
	m.count(OpClear)
	if m.closed.Load() {
		return cache.ErrClosed
	}
	if m.clearError != nil {
		return m.clearError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := m.namespace + "\x00"
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

// Close implements cache.Driver.
func (m *MockDriver) Close() error {
	m.count(OpClose)
	m.closed.Store(true)
	return nil
}

// OperationCount returns how often op was called.
func (m *MockDriver) OperationCount(op string) int64 {
	if c, ok := m.calls.Load(op); ok {
		return c.(*atomic.Int64).Load()
	}
	return 0
}

// ResetCounters zeroes every call counter.
func (m *MockDriver) ResetCounters() {
	m.calls.Range(func(k, _ any) bool {
		m.calls.Delete(k)
		return true
	})
}

// IsClosed reports whether Close was called.
func (m *MockDriver) IsClosed() bool { return m.closed.Load() }

// TTL returns the ttl the key was stored with in the active namespace.
func (m *MockDriver) TTL(key string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[m.fullKey(key)]
	return e.ttl, ok
}

// Keys lists the keys of the active namespace.
func (m *MockDriver) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := m.namespace + "\x00"
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, strings.TrimPrefix(k, prefix))
		}
	}
	sort.Strings(keys)
	return keys
}

// Len counts entries across all namespaces.
func (m *MockDriver) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// Dump renders the store for failure messages.
func (m *MockDriver) Dump() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%q: %d bytes\n", strings.ReplaceAll(k, "\x00", "/"), len(m.data[k].value))
	}
	return b.String()
}
