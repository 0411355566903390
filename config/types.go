package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config is the complete pagebricks configuration. Values come from defaults,
// then YAML files, then PAGEBRICKS_* environment variables, then explicit overrides.
type Config struct {
	App           AppConfig           `koanf:"app" json:"app" yaml:"app" mapstructure:"app"`
	Log           LogConfig           `koanf:"log" json:"log" yaml:"log" mapstructure:"log"`
	Cache         CacheConfig         `koanf:"cache" json:"cache" yaml:"cache" mapstructure:"cache"`
	Paths         PathsConfig         `koanf:"paths" json:"paths" yaml:"paths" mapstructure:"paths"`
	Pages         PagesConfig         `koanf:"pages" json:"pages" yaml:"pages" mapstructure:"pages"`
	Scheduler     SchedulerConfig     `koanf:"scheduler" json:"scheduler" yaml:"scheduler" mapstructure:"scheduler"`
	Server        ServerConfig        `koanf:"server" json:"server" yaml:"server" mapstructure:"server"`
	Observability ObservabilityConfig `koanf:"observability" json:"observability" yaml:"observability" mapstructure:"observability"`

	k     *koanf.Koanf
	files []string
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name    string `koanf:"name" json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	Version string `koanf:"version" json:"version" yaml:"version" mapstructure:"version" validate:"required"`
	Env     string `koanf:"env" json:"env" yaml:"env" mapstructure:"env" validate:"oneof=development staging production"`
	BaseURL string `koanf:"base_url" json:"base_url" yaml:"base_url" mapstructure:"base_url"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn error fatal"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty" mapstructure:"pretty"`
}

// CacheConfig drives driver selection, namespacing and the scheduled cache jobs.
type CacheConfig struct {
	Enabled  bool   `koanf:"enabled" json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Driver   string `koanf:"driver" json:"driver" yaml:"driver" mapstructure:"driver" validate:"oneof=auto file memory session redis"`
	Prefix   string `koanf:"prefix" json:"prefix" yaml:"prefix" mapstructure:"prefix"`
	Lifetime int    `koanf:"lifetime" json:"lifetime" yaml:"lifetime" mapstructure:"lifetime" validate:"gte=0"` // seconds

	// CLICompatibility forces the file driver whenever a volatile driver would be picked.
	CLICompatibility     bool `koanf:"cli_compatibility" json:"cli_compatibility" yaml:"cli_compatibility" mapstructure:"cli_compatibility"`
	ClearImagesByDefault bool `koanf:"clear_images_by_default" json:"clear_images_by_default" yaml:"clear_images_by_default" mapstructure:"clear_images_by_default"`

	PurgeAt      string `koanf:"purge_at" json:"purge_at" yaml:"purge_at" mapstructure:"purge_at"`
	ClearAt      string `koanf:"clear_at" json:"clear_at" yaml:"clear_at" mapstructure:"clear_at"`
	ClearJobType string `koanf:"clear_job_type" json:"clear_job_type" yaml:"clear_job_type" mapstructure:"clear_job_type" validate:"oneof=standard all assets-only images-only cache-only tmp-only invalidate"`

	Memory MemoryCacheConfig `koanf:"memory" json:"memory" yaml:"memory" mapstructure:"memory"`
	File   FileCacheConfig   `koanf:"file" json:"file" yaml:"file" mapstructure:"file"`
	Redis  RedisCacheConfig  `koanf:"redis" json:"redis" yaml:"redis" mapstructure:"redis"`
}

// MemoryCacheConfig bounds the in-process driver.
type MemoryCacheConfig struct {
	MaxEntries int `koanf:"max_entries" json:"max_entries" yaml:"max_entries" mapstructure:"max_entries" validate:"gte=0"`
}

// FileCacheConfig locates the durable driver's storage root.
type FileCacheConfig struct {
	Dir string `koanf:"dir" json:"dir" yaml:"dir" mapstructure:"dir"`
}

// RedisCacheConfig holds connection parameters for the shared network driver.
type RedisCacheConfig struct {
	Host         string        `koanf:"host" json:"host" yaml:"host" mapstructure:"host"`
	Port         int           `koanf:"port" json:"port" yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	Socket       string        `koanf:"socket" json:"socket" yaml:"socket" mapstructure:"socket"`
	Password     string        `koanf:"password" json:"-" yaml:"password" mapstructure:"password"`
	Database     int           `koanf:"database" json:"database" yaml:"database" mapstructure:"database" validate:"gte=0"`
	PoolSize     int           `koanf:"pool_size" json:"pool_size" yaml:"pool_size" mapstructure:"pool_size" validate:"gte=0"`
	DialTimeout  time.Duration `koanf:"dial_timeout" json:"dial_timeout" yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout" json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout" json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
}

// PathsConfig maps logical storage locations to directories.
type PathsConfig struct {
	Cache     string `koanf:"cache" json:"cache" yaml:"cache" mapstructure:"cache" validate:"required"`
	Assets    string `koanf:"assets" json:"assets" yaml:"assets" mapstructure:"assets" validate:"required"`
	Tmp       string `koanf:"tmp" json:"tmp" yaml:"tmp" mapstructure:"tmp" validate:"required"`
	Logs      string `koanf:"logs" json:"logs" yaml:"logs" mapstructure:"logs" validate:"required"`
	Pages     string `koanf:"pages" json:"pages" yaml:"pages" mapstructure:"pages" validate:"required"`
	Templates string `koanf:"templates" json:"templates" yaml:"templates" mapstructure:"templates" validate:"required"`
}

// PagesConfig holds the site-wide content processing defaults. Per-page
// headers override most of them.
type PagesConfig struct {
	Process            ProcessConfig     `koanf:"process" json:"process" yaml:"process" mapstructure:"process"`
	TemplateFirst      bool              `koanf:"template_first" json:"template_first" yaml:"template_first" mapstructure:"template_first"`
	NeverCacheTemplate bool              `koanf:"never_cache_template" json:"never_cache_template" yaml:"never_cache_template" mapstructure:"never_cache_template"`
	Markup             MarkupConfig      `koanf:"markup" json:"markup" yaml:"markup" mapstructure:"markup"`
	Template           TemplateConfig    `koanf:"template" json:"template" yaml:"template" mapstructure:"template"`
	Summary            SummaryConfig     `koanf:"summary" json:"summary" yaml:"summary" mapstructure:"summary"`
	Frontmatter        FrontmatterConfig `koanf:"frontmatter" json:"frontmatter" yaml:"frontmatter" mapstructure:"frontmatter"`
	Language           string            `koanf:"language" json:"language" yaml:"language" mapstructure:"language"`
	PublishDates       bool              `koanf:"publish_dates" json:"publish_dates" yaml:"publish_dates" mapstructure:"publish_dates"`
	SingleFlight       bool              `koanf:"single_flight" json:"single_flight" yaml:"single_flight" mapstructure:"single_flight"`
	ETag               bool              `koanf:"etag" json:"etag" yaml:"etag" mapstructure:"etag"`
	LastModified       bool              `koanf:"last_modified" json:"last_modified" yaml:"last_modified" mapstructure:"last_modified"`
	VaryAcceptEncoding bool              `koanf:"vary_accept_encoding" json:"vary_accept_encoding" yaml:"vary_accept_encoding" mapstructure:"vary_accept_encoding"`
	Expires            int               `koanf:"expires" json:"expires" yaml:"expires" mapstructure:"expires" validate:"gte=0"` // seconds
	CacheControl       string            `koanf:"cache_control" json:"cache_control" yaml:"cache_control" mapstructure:"cache_control"`
}

// ProcessConfig toggles the two transform passes.
type ProcessConfig struct {
	Markup   bool `koanf:"markup" json:"markup" yaml:"markup" mapstructure:"markup"`
	Template bool `koanf:"template" json:"template" yaml:"template" mapstructure:"template"`
}

// MarkupConfig configures the markup transform.
type MarkupConfig struct {
	Extra bool `koanf:"extra" json:"extra" yaml:"extra" mapstructure:"extra"`
}

// TemplateConfig configures template expansion.
type TemplateConfig struct {
	Autoescape bool `koanf:"autoescape" json:"autoescape" yaml:"autoescape" mapstructure:"autoescape"`
}

// SummaryConfig configures the manual "read more" marker.
type SummaryConfig struct {
	Delimiter string `koanf:"delimiter" json:"delimiter" yaml:"delimiter" mapstructure:"delimiter"`
}

// FrontmatterConfig toggles merging of a directory-level frontmatter.yaml.
type FrontmatterConfig struct {
	Merge bool `koanf:"merge" json:"merge" yaml:"merge" mapstructure:"merge"`
}

// SchedulerConfig configures the periodic job runner.
type SchedulerConfig struct {
	Enabled         bool          `koanf:"enabled" json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Host string `koanf:"host" json:"host" yaml:"host" mapstructure:"host"`
	Port int    `koanf:"port" json:"port" yaml:"port" mapstructure:"port" validate:"gte=1,lte=65535"`
	// RateLimit is requests per second per client IP; 0 disables it.
	RateLimit int `koanf:"rate_limit" json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit" validate:"gte=0"`
}

// ObservabilityConfig configures OpenTelemetry export.
type ObservabilityConfig struct {
	Enabled  bool   `koanf:"enabled" json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Service  string `koanf:"service" json:"service" yaml:"service" mapstructure:"service"`
	Endpoint string `koanf:"endpoint" json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	Protocol string `koanf:"protocol" json:"protocol" yaml:"protocol" mapstructure:"protocol" validate:"omitempty,oneof=http grpc"`
	Insecure bool   `koanf:"insecure" json:"insecure" yaml:"insecure" mapstructure:"insecure"`
}
