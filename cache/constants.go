package cache

import (
	"reflect"
	"time"
)

const (
	// DefaultLifetime applies when no lifetime is configured: one week.
	DefaultLifetime = 604800 * time.Second

	// DefaultPrefix starts every namespace when none is configured.
	DefaultPrefix = "g"

	// DriverAuto asks the registry to probe for the best available driver.
	DriverAuto = "auto"
)

// Built-in driver names.
const (
	DriverFile    = "file"
	DriverMemory  = "memory"
	DriverSession = "session"
	DriverRedis   = "redis"
)

var mapStringAnyType = reflect.TypeOf(map[string]any(nil))
