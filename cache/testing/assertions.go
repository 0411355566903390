package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gaborage/pagebricks/cache"
)

// AssertHit fails the test unless key decodes into dest.
func AssertHit(t *testing.T, c *cache.Cache, key string, dest any) {
	t.Helper()
	assert.True(t, c.Fetch(context.Background(), key, dest), "expected cache hit for key %q", key)
}

// AssertMiss fails the test if key is present.
func AssertMiss(t *testing.T, c *cache.Cache, key string) {
	t.Helper()
	var discard any
	assert.False(t, c.Fetch(context.Background(), key, &discard), "expected cache miss for key %q", key)
}

// AssertOperationCount checks how often op reached the driver.
func AssertOperationCount(t *testing.T, mock *MockDriver, op string, expected int64) {
	t.Helper()
	assert.Equal(t, expected, mock.OperationCount(op), "unexpected %s count\n%s", op, mock.Dump())
}

// AssertNoDriverCalls fails if any data operation reached the driver.
func AssertNoDriverCalls(t *testing.T, mock *MockDriver) {
	t.Helper()
	for _, op := range []string{OpGet, OpSet, OpDelete, OpContains, OpClear} {
		assert.Zero(t, mock.OperationCount(op), "expected no %s calls", op)
	}
}

// AssertKeys compares the active namespace's keys.
func AssertKeys(t *testing.T, mock *MockDriver, expected ...string) {
	t.Helper()
	if len(expected) == 0 {
		assert.Empty(t, mock.Keys())
		return
	}
	assert.Equal(t, expected, mock.Keys())
}
