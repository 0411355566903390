// Package config loads pagebricks configuration with koanf and exposes the
// fingerprint that participates in cache namespacing.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables read into the configuration.
// PAGEBRICKS_CACHE__REDIS__HOST maps to cache.redis.host.
const EnvPrefix = "PAGEBRICKS_"

// LoadOptions customizes Load.
type LoadOptions struct {
	// Files are loaded in order and must exist. When empty, config.yaml and
	// config.<env>.yaml are loaded from the working directory if present.
	Files []string
	// Overrides are applied after every other source.
	Overrides map[string]any
}

// Load loads configuration from defaults, config.yaml, config.<env>.yaml and
// the environment, in increasing priority.
func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

// LoadWithOptions loads configuration with explicit files and overrides.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	var loaded []string
	if len(opts.Files) > 0 {
		for _, f := range opts.Files {
			if err := k.Load(file.Provider(f), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", f, err)
			}
			loaded = append(loaded, f)
		}
	} else {
		candidates := []string{"config.yaml"}
		if env := envValue("APP__ENV", k.String("app.env")); env != "" {
			candidates = append(candidates, fmt.Sprintf("config.%s.yaml", env))
		}
		for _, f := range candidates {
			ok, err := loadOptionalFile(k, f)
			if err != nil {
				return nil, err
			}
			if ok {
				loaded = append(loaded, f)
			}
		}
	}

	if err := k.Load(envprovider.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to apply overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k
	cfg.files = loaded
	applyDerived(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadOptionalFile(k *koanf.Koanf, path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return false, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return true, nil
}

// envKey converts PAGEBRICKS_CACHE__CLEAR_AT into cache.clear_at.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

func envValue(suffix, fallback string) string {
	if v, ok := os.LookupEnv(EnvPrefix + suffix); ok {
		return v
	}
	return fallback
}

func applyDerived(cfg *Config) {
	if cfg.Cache.File.Dir == "" {
		cfg.Cache.File.Dir = filepath.Join(cfg.Paths.Cache, "file")
	}
	if cfg.Observability.Service == "" {
		cfg.Observability.Service = cfg.App.Name
	}
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":     "pagebricks",
		"app.version":  "v1.0.0",
		"app.env":      EnvDevelopment,
		"app.base_url": "http://localhost:8080",

		"log.level":  "info",
		"log.pretty": false,

		"cache.enabled":                 true,
		"cache.driver":                  "auto",
		"cache.prefix":                  "g",
		"cache.lifetime":                604800,
		"cache.cli_compatibility":       false,
		"cache.clear_images_by_default": true,
		"cache.purge_at":                "* 4 * * *",
		"cache.clear_at":                "* 3 * * *",
		"cache.clear_job_type":          "standard",
		"cache.memory.max_entries":      10000,
		"cache.file.dir":                "",
		"cache.redis.host":              "localhost",
		"cache.redis.port":              6379,
		"cache.redis.socket":            "",
		"cache.redis.password":          "",
		"cache.redis.database":          0,
		"cache.redis.pool_size":         10,
		"cache.redis.dial_timeout":      "5s",
		"cache.redis.read_timeout":      "3s",
		"cache.redis.write_timeout":     "3s",

		"paths.cache":     "cache",
		"paths.assets":    "assets",
		"paths.tmp":       "tmp",
		"paths.logs":      "logs",
		"paths.pages":     "pages",
		"paths.templates": "templates",

		"pages.process.markup":       true,
		"pages.process.template":     false,
		"pages.template_first":       false,
		"pages.never_cache_template": true,
		"pages.markup.extra":         false,
		"pages.template.autoescape":  false,
		"pages.summary.delimiter":    "===",
		"pages.frontmatter.merge":    true,
		"pages.language":             "",
		"pages.publish_dates":        true,
		"pages.single_flight":        false,
		"pages.etag":                 false,
		"pages.last_modified":        false,
		"pages.vary_accept_encoding": false,
		"pages.expires":              604800,
		"pages.cache_control":        "",

		"scheduler.enabled":          true,
		"scheduler.shutdown_timeout": "30s",

		"server.host":       "0.0.0.0",
		"server.port":       8080,
		"server.rate_limit": 0,

		"observability.enabled":  false,
		"observability.endpoint": "stdout",
		"observability.protocol": "http",
		"observability.insecure": false,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
