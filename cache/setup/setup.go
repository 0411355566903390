// Package setup builds the process cache from configuration: it derives the
// namespace, registers the built-in drivers and opens the selected one.
package setup

import (
	"path/filepath"
	"time"

	"github.com/gaborage/pagebricks/cache"
	"github.com/gaborage/pagebricks/cache/file"
	"github.com/gaborage/pagebricks/cache/memory"
	"github.com/gaborage/pagebricks/cache/redis"
	"github.com/gaborage/pagebricks/cache/session"
	"github.com/gaborage/pagebricks/config"
	"github.com/gaborage/pagebricks/events"
	"github.com/gaborage/pagebricks/logger"
)

// Options carries the collaborators of the cache.
type Options struct {
	Config    *config.Config
	Publisher events.Publisher
	Logger    logger.Logger
	// SessionStore backs the session driver. Without one the driver is unavailable.
	SessionStore session.Store
	Now          func() time.Time
}

// Namespace derives the cache namespace of cfg.
func Namespace(cfg *config.Config) cache.Namespace {
	return cache.BuildNamespace(cfg.Cache.Prefix, cfg.App.BaseURL, cfg.Fingerprint(), cfg.App.Version)
}

// Storage maps the configured paths to clear locations.
func Storage(cfg *config.Config) cache.Storage {
	return cache.Storage{
		Cache:  cfg.Paths.Cache,
		Driver: cfg.Cache.File.Dir,
		Assets: cfg.Paths.Assets,
		Tmp:    cfg.Paths.Tmp,
	}
}

// Registry registers the built-in drivers. Auto prefers the in-process
// memory driver and falls back to the file driver.
func Registry(opts Options, ns cache.Namespace) *cache.Registry {
	cfg := opts.Config
	r := cache.NewRegistry(cache.DriverFile, cache.DriverMemory)

	r.Register(cache.DriverSpec{
		Name: cache.DriverFile,
		Open: func() (cache.Driver, error) {
			return file.New(file.Options{
				Dir: filepath.Join(cfg.Cache.File.Dir, ns.Generation),
				Now: opts.Now,
			})
		},
	})

	r.Register(cache.DriverSpec{
		Name:     cache.DriverMemory,
		Volatile: true,
		Open: func() (cache.Driver, error) {
			return memory.New(memory.Options{MaxEntries: cfg.Cache.Memory.MaxEntries, Now: opts.Now}), nil
		},
	})

	r.Register(cache.DriverSpec{
		Name:     cache.DriverSession,
		Volatile: true,
		Probe: func() error {
			if opts.SessionStore == nil {
				return cache.ErrUnavailable
			}
			return nil
		},
		Open: func() (cache.Driver, error) {
			return session.New(opts.SessionStore, opts.Now), nil
		},
	})

	r.Register(cache.DriverSpec{
		Name: cache.DriverRedis,
		Open: func() (cache.Driver, error) {
			rc := cfg.Cache.Redis
			return redis.NewClient(&redis.Config{
				Host:         rc.Host,
				Port:         rc.Port,
				Socket:       rc.Socket,
				Password:     rc.Password,
				Database:     rc.Database,
				PoolSize:     rc.PoolSize,
				DialTimeout:  rc.DialTimeout,
				ReadTimeout:  rc.ReadTimeout,
				WriteTimeout: rc.WriteTimeout,
			})
		},
	})

	return r
}

// New opens the configured driver and wraps it in a Cache. A driver that
// cannot be selected or opened is a *cache.ConfigError.
func New(opts Options) (*cache.Cache, error) {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	ns := Namespace(cfg)
	driver, err := Registry(opts, ns).Open(cfg.Cache.Driver, cfg.Cache.CLICompatibility)
	if err != nil {
		return nil, err
	}

	c := cache.New(driver, cache.Options{
		Enabled:              cfg.Cache.Enabled,
		Lifetime:             time.Duration(cfg.Cache.Lifetime) * time.Second,
		DriverSetting:        cfg.Cache.Driver,
		Namespace:            ns,
		Storage:              Storage(cfg),
		ConfigFile:           cfg.PrimaryFile(),
		ClearImagesByDefault: cfg.Cache.ClearImagesByDefault,
		Publisher:            opts.Publisher,
		Logger:               log,
		Now:                  opts.Now,
	})

	log.Info().
		Str("driver", c.DriverName()).
		Str("setting", c.DriverSetting()).
		Str("namespace", c.Namespace()).
		Bool("enabled", c.Enabled()).
		Msg("cache initialized")
	return c, nil
}

// JobSettings maps the scheduled job configuration.
func JobSettings(cfg *config.Config) cache.JobSettings {
	category, err := cache.ParseClearCategory(cfg.Cache.ClearJobType)
	if err != nil {
		category = cache.ClearStandard
	}
	return cache.JobSettings{
		PurgeAt:   cfg.Cache.PurgeAt,
		ClearAt:   cfg.Cache.ClearAt,
		ClearType: category,
		LogsDir:   cfg.Paths.Logs,
	}
}
