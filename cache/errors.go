package cache

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by drivers. Use errors.Is to check for them.
var (
	// ErrNotFound is returned when a key is absent or logically expired.
	ErrNotFound = errors.New("cache: key not found")

	// ErrClosed is returned when a driver is used after Close.
	ErrClosed = errors.New("cache: driver closed")

	// ErrInvalidTTL is returned for negative TTLs.
	ErrInvalidTTL = errors.New("cache: invalid TTL")

	// ErrUnavailable is returned by a driver probe when its runtime capability is missing.
	ErrUnavailable = errors.New("cache: driver unavailable")
)

// ConfigError represents a driver configuration error found while building
// the cache. These errors are fatal at startup and never retried.
type ConfigError struct {
	Field   string // Configuration field that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cache configuration error: %s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("cache configuration error: %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a new configuration error.
func NewConfigError(field, message string, err error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Err: err}
}

// ConnectionError is a backend connectivity failure (dial, ping, timeout).
type ConnectionError struct {
	Op      string // e.g. "dial", "ping"
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cache connection error: %s failed for %s: %v", e.Op, e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// NewConnectionError creates a new connection error.
func NewConnectionError(op, address string, err error) *ConnectionError {
	return &ConnectionError{Op: op, Address: address, Err: err}
}

// OperationError is a failed get/set/delete/clear against a live driver.
// The Cache service degrades these to a miss or no-op.
type OperationError struct {
	Op  string
	Key string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("cache operation error: %s failed for key %q: %v", e.Op, e.Key, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// NewOperationError creates a new operation error.
func NewOperationError(op, key string, err error) *OperationError {
	return &OperationError{Op: op, Key: key, Err: err}
}

// ErrorType classifies the error for metrics.
func (e *ConnectionError) ErrorType() string { return "connection_error" }

// ErrorType classifies the error for metrics.
func (e *OperationError) ErrorType() string { return "operation_error" }
