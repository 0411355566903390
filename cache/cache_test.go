package cache_test

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/pagebricks/cache"
	cachetesting "github.com/gaborage/pagebricks/cache/testing"
)

var fixedNow = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

func newCache(t *testing.T, opts cache.Options) (*cache.Cache, *cachetesting.MockDriver) {
	t.Helper()
	mock := cachetesting.NewMockDriver()
	if opts.Namespace.Generation == "" {
		opts.Namespace = cache.Namespace{Prefix: "g", Generation: "1234abcd"}
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	return cache.New(mock, opts), mock
}

type page struct {
	Title string
	Body  string
}

func TestSaveFetchRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t, cache.Options{Enabled: true})

	require.True(t, c.Save(ctx, "content:1", page{Title: "t", Body: "b"}, 0))

	got, ok := cache.Get[page](ctx, c, "content:1")
	require.True(t, ok)
	assert.Equal(t, page{Title: "t", Body: "b"}, got)

	assert.True(t, c.Contains(ctx, "content:1"))
	assert.True(t, c.Delete(ctx, "content:1"))
	assert.False(t, c.Contains(ctx, "content:1"))

	_, ok = cache.Get[page](ctx, c, "content:1")
	assert.False(t, ok)
}

func TestDefaultLifetimeAndNegativeTTL(t *testing.T) {
	ctx := context.Background()
	c, mock := newCache(t, cache.Options{Enabled: true})

	assert.Equal(t, cache.DefaultLifetime, c.Lifetime())
	require.True(t, c.Save(ctx, "k", 1, 0))
	ttl, _ := mock.TTL("k")
	assert.Equal(t, cache.DefaultLifetime, ttl)

	assert.False(t, c.Save(ctx, "neg", 1, -time.Second))
	cachetesting.AssertOperationCount(t, mock, cachetesting.OpSet, 1)
}

func TestDisabledCacheIsTransparent(t *testing.T) {
	ctx := context.Background()
	c, mock := newCache(t, cache.Options{Enabled: false})

	assert.False(t, c.Save(ctx, "k", "v", 0))
	var v string
	assert.False(t, c.Fetch(ctx, "k", &v))
	assert.False(t, c.Contains(ctx, "k"))
	assert.False(t, c.Delete(ctx, "k"))
	assert.False(t, c.DeleteAll(ctx))
	cachetesting.AssertNoDriverCalls(t, mock)

	c.SetEnabled(true)
	assert.True(t, c.Save(ctx, "k", "v", 0))
}

func TestBackendFailuresDegrade(t *testing.T) {
	ctx := context.Background()
	boom := cache.NewConnectionError("get", "localhost:6379", io.EOF)
	mock := cachetesting.NewMockDriver().
		WithGetFailure(boom).
		WithSetFailure(boom).
		WithDeleteFailure(boom).
		WithContainsFailure(boom).
		WithClearFailure(boom)
	c := cache.New(mock, cache.Options{Enabled: true})

	var v string
	assert.False(t, c.Fetch(ctx, "k", &v))
	assert.False(t, c.Save(ctx, "k", "v", 0))
	assert.False(t, c.Delete(ctx, "k"))
	assert.False(t, c.Contains(ctx, "k"))
	assert.False(t, c.DeleteAll(ctx))
}

func TestUndecodableEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c, mock := newCache(t, cache.Options{Enabled: true})
	require.NoError(t, mock.Set(ctx, "k", []byte{0xFF, 0xFF}, 0))

	var v page
	assert.False(t, c.Fetch(ctx, "k", &v))
}

func TestNamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t, cache.Options{Enabled: true})
	first := c.Namespace()
	assert.Equal(t, "g-1234abcd", first)

	require.True(t, c.Save(ctx, "k", "old", 0))

	c.SetNamespace("g-ffffffff")
	var v string
	assert.False(t, c.Fetch(ctx, "k", &v))
	require.True(t, c.Save(ctx, "k", "new", 0))

	c.SetNamespace(first)
	require.True(t, c.Fetch(ctx, "k", &v))
	assert.Equal(t, "old", v)
}

func TestDeleteAllOnlyClearsActiveNamespace(t *testing.T) {
	ctx := context.Background()
	c, mock := newCache(t, cache.Options{Enabled: true})
	require.True(t, c.Save(ctx, "a", 1, 0))

	c.SetNamespace("g-other")
	require.True(t, c.Save(ctx, "b", 2, 0))
	require.True(t, c.DeleteAll(ctx))

	assert.Equal(t, 1, mock.Len())
	assert.False(t, c.Contains(ctx, "b"))
}

func TestSetLifetimeOnlyShortens(t *testing.T) {
	ctx := context.Background()
	c, mock := newCache(t, cache.Options{Enabled: true, Lifetime: 2 * time.Hour})

	c.SetLifetime(fixedNow.Add(3 * time.Hour))
	assert.Equal(t, 2*time.Hour, c.Lifetime())

	c.SetLifetime(fixedNow.Add(time.Hour))
	assert.Equal(t, time.Hour, c.Lifetime())

	c.SetLifetime(fixedNow.Add(-time.Hour))
	c.SetLifetime(time.Time{})
	assert.Equal(t, time.Hour, c.Lifetime())

	require.True(t, c.Save(ctx, "k", "v", 0))
	ttl, _ := mock.TTL("k")
	assert.Equal(t, time.Hour, ttl)

	require.True(t, c.Save(ctx, "explicit", "v", 5*time.Minute))
	ttl, _ = mock.TTL("explicit")
	assert.Equal(t, 5*time.Minute, ttl)
}

func TestSetLifetimeConcurrentMinimumWins(t *testing.T) {
	c, _ := newCache(t, cache.Options{Enabled: true})

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(minutes int) {
			defer wg.Done()
			c.SetLifetime(fixedNow.Add(time.Duration(minutes) * time.Minute))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, time.Minute, c.Lifetime())
}

func TestStatus(t *testing.T) {
	c, _ := newCache(t, cache.Options{Enabled: true})
	assert.Equal(t, "Cache: [true] Setting: [auto] Driver: [mock]", c.Status())
	assert.Equal(t, "1234abcd", c.Generation())

	c.SetEnabled(false)
	assert.Equal(t, "Cache: [false] Setting: [auto] Driver: [mock]", c.Status())
}

func TestBuildNamespace(t *testing.T) {
	a := cache.BuildNamespace("site", "https://example.com", "fp", "1.0.0")
	b := cache.BuildNamespace("site", "https://example.com", "fp", "1.0.0")
	assert.Equal(t, a, b)
	assert.Len(t, a.Generation, 8)
	assert.Equal(t, "site-"+a.Generation, a.String())

	for _, other := range []cache.Namespace{
		cache.BuildNamespace("site", "https://example.org", "fp", "1.0.0"),
		cache.BuildNamespace("site", "https://example.com", "fp2", "1.0.0"),
		cache.BuildNamespace("site", "https://example.com", "fp", "1.0.1"),
	} {
		assert.NotEqual(t, a.Generation, other.Generation)
	}

	assert.Equal(t, cache.DefaultPrefix, cache.BuildNamespace("", "", "", "").Prefix)
}

func TestStorageResolve(t *testing.T) {
	s := cache.Storage{Cache: "/c", Driver: "/d", Assets: "/a"}

	tests := []struct {
		location string
		want     string
		wantErr  bool
	}{
		{location: "cache://", want: "/c"},
		{location: "cache://images", want: filepath.Join("/c", "images")},
		{location: "driver://", want: "/d"},
		{location: "asset://css/", want: filepath.Join("/a", "css")},
		{location: "tmp://", wantErr: true},
		{location: "ftp://x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			got, err := s.Resolve(tt.location)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseClearCategory(t *testing.T) {
	c, err := cache.ParseClearCategory("")
	require.NoError(t, err)
	assert.Equal(t, cache.ClearStandard, c)

	c, err = cache.ParseClearCategory("tmp-only")
	require.NoError(t, err)
	assert.Equal(t, cache.ClearTmpOnly, c)

	_, err = cache.ParseClearCategory("everything")
	assert.Error(t, err)
}
