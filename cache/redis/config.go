package redis

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gaborage/pagebricks/cache"
)

// Config holds connection settings for the shared network driver.
type Config struct {
	// Host and Port are used unless Socket is set.
	Host string
	Port int
	// Socket is a unix socket path; it takes precedence over Host/Port.
	Socket string

	Password string //nolint:gosec // loaded from config/env, never logged
	Database int
	PoolSize int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Validate performs fail-fast validation of the connection settings.
func (c *Config) Validate() error {
	if c.Socket == "" {
		if c.Host == "" {
			return cache.NewConfigError("cache.redis.host", "host or socket is required", nil)
		}
		if c.Port <= 0 || c.Port > 65535 {
			return cache.NewConfigError("cache.redis.port", fmt.Sprintf("invalid port: %d", c.Port), nil)
		}
	}
	if c.Database < 0 || c.Database > 15 {
		return cache.NewConfigError("cache.redis.database", fmt.Sprintf("invalid database number: %d (must be 0-15)", c.Database), nil)
	}
	if c.PoolSize < 0 {
		return cache.NewConfigError("cache.redis.pool_size", fmt.Sprintf("invalid pool size: %d", c.PoolSize), nil)
	}
	if c.DialTimeout < 0 {
		return cache.NewConfigError("cache.redis.dial_timeout", "dial timeout cannot be negative", nil)
	}
	if c.ReadTimeout < -1 {
		return cache.NewConfigError("cache.redis.read_timeout", "read timeout cannot be less than -1", nil)
	}
	if c.WriteTimeout < -1 {
		return cache.NewConfigError("cache.redis.write_timeout", "write timeout cannot be less than -1", nil)
	}
	return nil
}

// Network is "unix" when a socket is configured, else "tcp".
func (c *Config) Network() string {
	if c.Socket != "" {
		return "unix"
	}
	return "tcp"
}

// Address returns the socket path or "host:port".
func (c *Config) Address() string {
	if c.Socket != "" {
		return c.Socket
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
