package cache

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelErrors(t *testing.T) {
	for _, err := range []error{ErrNotFound, ErrClosed, ErrInvalidTTL, ErrUnavailable} {
		assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", err), err))
	}
	assert.False(t, errors.Is(ErrNotFound, ErrClosed))
}

func TestConfigError(t *testing.T) {
	t.Run("WithoutUnderlyingError", func(t *testing.T) {
		err := NewConfigError("cache.redis.host", "host is required", nil)

		assert.Equal(t, "cache.redis.host", err.Field)
		assert.Nil(t, err.Err)
		assert.Equal(t, "cache configuration error: cache.redis.host: host is required", err.Error())
	})

	t.Run("WithUnderlyingError", func(t *testing.T) {
		underlying := errors.New("no such directory")
		err := NewConfigError("cache.file.dir", "cannot create cache directory", underlying)

		assert.True(t, errors.Is(err, underlying))
		assert.Contains(t, err.Error(), "no such directory")
	})
}

func TestConnectionError(t *testing.T) {
	underlying := errors.New("connection refused")
	err := NewConnectionError("dial", "localhost:6379", underlying)

	assert.Equal(t, "cache connection error: dial failed for localhost:6379: connection refused", err.Error())
	assert.True(t, errors.Is(err, underlying))
	assert.Equal(t, "connection_error", err.ErrorType())
}

func TestOperationError(t *testing.T) {
	err := NewOperationError("get", "content:abc", ErrNotFound)

	assert.Equal(t, `cache operation error: get failed for key "content:abc": cache: key not found`, err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "operation_error", err.ErrorType())
}

func TestErrorWrapping(t *testing.T) {
	base := errors.New("network error")
	connErr := NewConnectionError("dial", "localhost:6379", base)
	opErr := NewOperationError("get", "key:abc", connErr)

	assert.True(t, errors.Is(opErr, base))

	var target *ConnectionError
	assert.True(t, errors.As(opErr, &target))
	assert.Equal(t, "localhost:6379", target.Address)
}
