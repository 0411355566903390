package cache

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// DriverSpec describes one selectable driver.
type DriverSpec struct {
	Name string
	// Volatile drivers live in process memory and do not survive between
	// separate invocations.
	Volatile bool
	// Probe reports whether the driver's runtime capability is present.
	// A nil Probe means always available.
	Probe func() error
	// Open constructs the driver. Failures are configuration errors.
	Open func() (Driver, error)
}

func (s DriverSpec) available() error {
	if s.Probe == nil {
		return nil
	}
	return s.Probe()
}

// Registry picks a driver from a configuration setting.
//
// "auto" walks the preference order and takes the first available driver,
// falling back to the durable one. An explicit driver that is unavailable
// is a ConfigError; there is no silent fallback. With CLI compatibility on,
// a volatile choice is replaced by the fallback, since it would not outlive
// the command.
type Registry struct {
	mu        sync.RWMutex
	specs     map[string]DriverSpec
	autoOrder []string
	fallback  string
}

// NewRegistry creates a registry whose auto setting probes autoOrder in turn
// and falls back to the durable fallback driver.
func NewRegistry(fallback string, autoOrder ...string) *Registry {
	return &Registry{
		specs:     make(map[string]DriverSpec),
		autoOrder: autoOrder,
		fallback:  fallback,
	}
}

// Register adds or replaces a driver spec.
func (r *Registry) Register(spec DriverSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[spec.Name] = spec
}

// Names lists the registered drivers.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.specs))
	for n := range r.specs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve maps a setting to a driver spec.
//
// With cliCompatibility set, auto and volatile settings resolve to the
// fallback driver. Auto picks the first available driver of the auto order,
// else the fallback. An explicit setting whose capability is missing is a
// *ConfigError; there is no silent fallback.
func (r *Registry) Resolve(setting string, cliCompatibility bool) (DriverSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if setting == "" {
		setting = DriverAuto
	}

	if setting != DriverAuto {
		spec, ok := r.specs[setting]
		if !ok {
			return DriverSpec{}, NewConfigError("cache.driver", fmt.Sprintf("unknown driver %q", setting), nil)
		}
		if cliCompatibility && spec.Volatile {
			return r.fallbackSpec()
		}
		if err := spec.available(); err != nil {
			return DriverSpec{}, NewConfigError("cache.driver", fmt.Sprintf("driver %q is not available", setting), err)
		}
		return spec, nil
	}

	if !cliCompatibility {
		for _, name := range r.autoOrder {
			spec, ok := r.specs[name]
			if ok && spec.available() == nil {
				return spec, nil
			}
		}
	}
	return r.fallbackSpec()
}

func (r *Registry) fallbackSpec() (DriverSpec, error) {
	spec, ok := r.specs[r.fallback]
	if !ok {
		return DriverSpec{}, NewConfigError("cache.driver", fmt.Sprintf("fallback driver %q is not registered", r.fallback), nil)
	}
	return spec, nil
}

// Open resolves setting and constructs the driver.
func (r *Registry) Open(setting string, cliCompatibility bool) (Driver, error) {
	spec, err := r.Resolve(setting, cliCompatibility)
	if err != nil {
		return nil, err
	}
	d, err := spec.Open()
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			return nil, err
		}
		return nil, NewConfigError("cache.driver", fmt.Sprintf("failed to open driver %q", spec.Name), err)
	}
	return d, nil
}
