// Package redis is the shared network cache driver backed by go-redis.
package redis

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gaborage/pagebricks/cache"
)

const (
	pingTimeout = 5 * time.Second
	scanCount   = 500
)

// Client implements cache.Driver on Redis. Keys are stored as "<namespace>:<key>".
type Client struct {
	client *redis.Client
	config *Config
	closed atomic.Bool

	nsMu      sync.RWMutex
	namespace string
}

var _ cache.Driver = (*Client)(nil)

// NewClient validates cfg, connects and pings the server.
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Network:      cfg.Network(),
		Addr:         cfg.Address(),
		Password:     cfg.Password,
		DB:           cfg.Database,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, cache.NewConnectionError("ping", cfg.Address(), err)
	}

	return &Client{client: client, config: cfg}, nil
}

// Name implements cache.Driver.
func (c *Client) Name() string { return cache.DriverRedis }

// SetNamespace implements cache.Driver.
func (c *Client) SetNamespace(namespace string) {
	c.nsMu.Lock()
	defer c.nsMu.Unlock()
	c.namespace = namespace
}

func (c *Client) prefix() string {
	c.nsMu.RLock()
	defer c.nsMu.RUnlock()
	return c.namespace + ":"
}

func (c *Client) key(key string) string { return c.prefix() + key }

// Get implements cache.Driver. redis.Nil maps to cache.ErrNotFound.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, cache.ErrClosed
	}
	result, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cache.ErrNotFound
		}
		return nil, c.wrap("get", key, err)
	}
	return result, nil
}

// Set implements cache.Driver. A zero ttl stores without expiry.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return cache.ErrClosed
	}
	if ttl < 0 {
		return cache.ErrInvalidTTL
	}
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return c.wrap("set", key, err)
	}
	return nil
}

// Delete implements cache.Driver.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c.closed.Load() {
		return cache.ErrClosed
	}
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return c.wrap("delete", key, err)
	}
	return nil
}

// Contains implements cache.Driver.
func (c *Client) Contains(ctx context.Context, key string) (bool, error) {
	if c.closed.Load() {
		return false, cache.ErrClosed
	}
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, c.wrap("contains", key, err)
	}
	return n > 0, nil
}

// Clear implements cache.Driver. It scans the namespace prefix and deletes in
// batches; other namespaces sharing the database are untouched.
func (c *Client) Clear(ctx context.Context) error {
	if c.closed.Load() {
		return cache.ErrClosed
	}
	pattern := escapeGlob(c.prefix()) + "*"

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			return c.wrap("clear", pattern, err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return c.wrap("clear", pattern, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Health pings the server.
func (c *Client) Health(ctx context.Context) error {
	if c.closed.Load() {
		return cache.ErrClosed
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		return cache.NewConnectionError("ping", c.config.Address(), err)
	}
	return nil
}

// Close implements cache.Driver. Closing twice is a no-op.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.client.Close()
}

func (c *Client) wrap(op, key string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.EOF) || errors.Is(err, redis.ErrClosed) {
		return cache.NewConnectionError(op, c.config.Address(), err)
	}
	return cache.NewOperationError(op, key, err)
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string { return globReplacer.Replace(s) }
