package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/pagebricks/cache"
)

func newDriver(t *testing.T, now func() time.Time) *Driver {
	t.Helper()
	d, err := New(Options{Dir: filepath.Join(t.TempDir(), "file", "1234abcd"), Now: now})
	require.NoError(t, err)
	d.SetNamespace("g-1234abcd")
	return d
}

func TestNewRequiresDir(t *testing.T) {
	_, err := New(Options{})
	var cfgErr *cache.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "cache.file.dir", cfgErr.Field)

	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	_, err = New(Options{Dir: filepath.Join(blocker, "sub")})
	require.ErrorAs(t, err, &cfgErr)
}

func TestGetSetDelete(t *testing.T) {
	ctx := context.Background()
	d := newDriver(t, nil)

	_, err := d.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrNotFound)

	require.NoError(t, d.Set(ctx, "k", []byte("value"), 0))
	got, err := d.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)

	ok, err := d.Contains(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, d.Delete(ctx, "k"))
	require.NoError(t, d.Delete(ctx, "k"))
	ok, _ = d.Contains(ctx, "k")
	assert.False(t, ok)
}

func TestLayout(t *testing.T) {
	d := newDriver(t, nil)
	require.NoError(t, d.Set(context.Background(), "k", []byte("v"), 0))

	p := d.path("k")
	rel, err := filepath.Rel(d.Dir(), p)
	require.NoError(t, err)
	parts := strings.Split(rel, string(filepath.Separator))
	require.Len(t, parts, 3)
	assert.Equal(t, "g-1234abcd", parts[0])
	assert.Equal(t, parts[2][:2], parts[1])
	assert.True(t, strings.HasSuffix(parts[2], ".cache"))

	entries, err := os.ReadDir(filepath.Dir(p))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".tmp-"), "temp file left behind")
	}
}

func TestExpiryRemovesFile(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d := newDriver(t, func() time.Time { return now })

	require.NoError(t, d.Set(ctx, "k", []byte("v"), time.Second))
	now = now.Add(time.Second)

	_, err := d.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrNotFound)
	_, statErr := os.Stat(d.path("k"))
	assert.True(t, os.IsNotExist(statErr))

	assert.ErrorIs(t, d.Set(ctx, "k", nil, -time.Second), cache.ErrInvalidTTL)
}

func TestExpiryKeepsEntryRewrittenMeanwhile(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d := newDriver(t, func() time.Time { return now })

	require.NoError(t, d.Set(ctx, "k", []byte("old"), time.Second))
	now = now.Add(time.Second)
	p := d.path("k")

	// Hold the entry lock the way Set does, so Get parks after seeing the
	// expired record.
	unlock := d.lockEntry(p)
	type result struct {
		value []byte
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := d.Get(ctx, "k")
		done <- result{v, err}
	}()

	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.locks[p] != nil && d.locks[p].refs == 2
	}, time.Second, time.Millisecond)

	fresh, err := cache.Marshal(record{Key: "k", Value: []byte("new")})
	require.NoError(t, err)
	require.NoError(t, writeAtomic(p, fresh))
	unlock()

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, []byte("new"), res.value)
	assert.FileExists(t, p)
}

func TestCorruptFileIsMiss(t *testing.T) {
	d := newDriver(t, nil)
	p := d.path("k")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("not cbor"), 0o600))

	_, err := d.Get(context.Background(), "k")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestClearOnlyActiveNamespace(t *testing.T) {
	ctx := context.Background()
	d := newDriver(t, nil)
	require.NoError(t, d.Set(ctx, "k", []byte("1"), 0))

	d.SetNamespace("g-other")
	require.NoError(t, d.Set(ctx, "k", []byte("2"), 0))
	require.NoError(t, d.Clear(ctx))
	_, err := d.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrNotFound)

	d.SetNamespace("g-1234abcd")
	got, err := d.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := newDriver(t, nil)

	_, err := d.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, d.Set(ctx, "k", nil, 0), context.Canceled)
}

func TestConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	d := newDriver(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, d.Set(ctx, "shared", []byte("same"), 0))
		}()
	}
	wg.Wait()

	got, err := d.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, []byte("same"), got)
	assert.Empty(t, d.locks)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "g-1234abcd", sanitize("g-1234abcd"))
	assert.Equal(t, "a%2fb", sanitize("a/b"))
	assert.Equal(t, "_..", sanitize(".."))
}
