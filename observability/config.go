package observability

import (
	"fmt"
	"strings"
	"time"

	"github.com/gaborage/pagebricks/config"
)

const (
	// EndpointStdout prints telemetry to stdout instead of exporting it.
	EndpointStdout = "stdout"

	// ProtocolHTTP specifies OTLP over HTTP/protobuf.
	ProtocolHTTP = "http"

	// ProtocolGRPC specifies OTLP over gRPC.
	ProtocolGRPC = "grpc"

	defaultSampleRate     = 1.0
	defaultBatchTimeout   = 5 * time.Second
	defaultMetricInterval = 30 * time.Second
)

// Config configures the provider.
type Config struct {
	Enabled     bool
	Service     string
	Version     string
	Environment string

	// Endpoint is an OTLP collector address or EndpointStdout.
	Endpoint string
	Protocol string
	Insecure bool
	Headers  map[string]string

	SampleRate     float64
	BatchTimeout   time.Duration
	MetricInterval time.Duration
}

// FromConfig maps the application configuration.
func FromConfig(cfg *config.Config) Config {
	return Config{
		Enabled:     cfg.Observability.Enabled,
		Service:     cfg.Observability.Service,
		Version:     cfg.App.Version,
		Environment: cfg.App.Env,
		Endpoint:    cfg.Observability.Endpoint,
		Protocol:    cfg.Observability.Protocol,
		Insecure:    cfg.Observability.Insecure,
	}
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = EndpointStdout
	}
	if c.Protocol == "" {
		c.Protocol = ProtocolHTTP
	}
	if c.SampleRate == 0 {
		c.SampleRate = defaultSampleRate
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = defaultBatchTimeout
	}
	if c.MetricInterval <= 0 {
		c.MetricInterval = defaultMetricInterval
	}
}

// Validate checks an enabled configuration. Disabled configurations are
// always valid.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if !c.Enabled {
		return nil
	}
	if c.Service == "" {
		return ErrMissingServiceName
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return ErrInvalidSampleRate
	}
	if c.Endpoint == EndpointStdout {
		return nil
	}

	hasScheme := strings.HasPrefix(c.Endpoint, "http://") || strings.HasPrefix(c.Endpoint, "https://")
	switch c.Protocol {
	case ProtocolHTTP, ProtocolGRPC:
		if hasScheme {
			return fmt.Errorf("%w: %s endpoint %q must be host:port", ErrInvalidEndpointFormat, c.Protocol, c.Endpoint)
		}
	default:
		return fmt.Errorf("protocol %q: %w", c.Protocol, ErrInvalidProtocol)
	}
	return nil
}
