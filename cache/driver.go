package cache

import (
	"context"
	"time"
)

// Driver is one concrete cache backend. Every method operates inside the
// namespace most recently passed to SetNamespace.
//
// Get returns ErrNotFound for absent or expired keys and must never serve a
// logically expired entry. A ttl of zero on Set means no expiry. Delete of an
// absent key is not an error. Clear removes every entry of the current
// namespace and nothing else.
type Driver interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Contains(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
	SetNamespace(namespace string)
	Close() error
}
