// Package config defines the application configuration: loader limits,
// telemetry settings, and the history store location. Configuration is
// read from a YAML file layered over built-in defaults, then validated.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/meshview/meshview/pkg/mesh/loader"
	"github.com/meshview/meshview/pkg/telemetry"
)

// Config is the root application configuration.
type Config struct {
	// Loader holds validation and fallback settings.
	Loader LoaderConfig `yaml:"loader"`

	// Telemetry holds logging, metrics, tracing, and event settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Store holds the load history database settings.
	Store StoreConfig `yaml:"store"`
}

// LoaderConfig configures the mesh loading pipeline.
type LoaderConfig struct {
	// MaxFileBytes rejects files larger than this before decoding.
	MaxFileBytes int64 `yaml:"max_file_bytes" validate:"gt=0"`

	// MaxTriangleCount rejects meshes with more triangles after decoding.
	MaxTriangleCount int `yaml:"max_triangle_count" validate:"gt=0"`

	// EnableFallback allows one exact-tier retry after a fast failure.
	EnableFallback bool `yaml:"enable_fallback"`

	// WatchdogTimeout is the lock monitor interval for foreign decodes.
	WatchdogTimeout time.Duration `yaml:"watchdog_timeout" validate:"gt=0"`

	// ModulePath is the path to the compiled foreign decoder module.
	// Empty disables the foreign decoder; binary formats then rely on
	// the host decoders alone.
	ModulePath string `yaml:"module_path"`
}

// TelemetryConfig configures logging, metrics, tracing, and events.
type TelemetryConfig struct {
	// LogLevel is the minimum log level.
	LogLevel string `yaml:"log_level" validate:"oneof=trace debug info warn error fatal"`

	// LogFormat selects console or json log output.
	LogFormat string `yaml:"log_format" validate:"oneof=console json"`

	// MetricsEnabled starts the Prometheus listener when set.
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// MetricsListen is the metrics HTTP listen address.
	MetricsListen string `yaml:"metrics_listen"`

	// TracingEnabled turns on OpenTelemetry tracing.
	TracingEnabled bool `yaml:"tracing_enabled"`

	// TracingExporter selects the trace exporter (otlp, stdout, none).
	TracingExporter string `yaml:"tracing_exporter" validate:"oneof=otlp stdout none"`

	// TracingEndpoint is the OTLP endpoint.
	TracingEndpoint string `yaml:"tracing_endpoint"`

	// EventRingCapacity is the number of events retained for replay.
	EventRingCapacity int `yaml:"event_ring_capacity" validate:"gt=0"`
}

// StoreConfig configures the load history database.
type StoreConfig struct {
	// Path is the SQLite database file. Empty disables history.
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Loader: LoaderConfig{
			MaxFileBytes:     loader.DefaultMaxFileBytes,
			MaxTriangleCount: loader.DefaultMaxTriangleCount,
			EnableFallback:   true,
			WatchdogTimeout:  loader.DefaultWatchdogTimeout,
		},
		Telemetry: TelemetryConfig{
			LogLevel:          "info",
			LogFormat:         "console",
			MetricsEnabled:    false,
			MetricsListen:     ":9090",
			TracingEnabled:    false,
			TracingExporter:   "stdout",
			EventRingCapacity: telemetry.DefaultEventRingCapacity,
		},
		Store: StoreConfig{},
	}
}

// LoadFromFile reads a YAML file layered over the defaults. Fields
// absent from the file keep their default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration against its field constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// LoaderConfig maps the file settings onto the loader's configuration.
func (c *Config) LoaderConfig() *loader.Config {
	return &loader.Config{
		MaxFileBytes:     c.Loader.MaxFileBytes,
		MaxTriangleCount: c.Loader.MaxTriangleCount,
		EnableFallback:   c.Loader.EnableFallback,
		WatchdogTimeout:  c.Loader.WatchdogTimeout,
	}
}

// TelemetryConfig maps the file settings onto the telemetry stack's
// configuration.
func (c *Config) TelemetryConfig(serviceVersion string) *telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.ServiceVersion = serviceVersion
	tc.Logging.Level = c.Telemetry.LogLevel
	tc.Logging.Format = c.Telemetry.LogFormat
	tc.Metrics.Enabled = c.Telemetry.MetricsEnabled
	tc.Metrics.ListenAddress = c.Telemetry.MetricsListen
	tc.Tracing.Enabled = c.Telemetry.TracingEnabled
	tc.Tracing.Exporter = c.Telemetry.TracingExporter
	tc.Tracing.Endpoint = c.Telemetry.TracingEndpoint
	tc.Events.RingCapacity = c.Telemetry.EventRingCapacity
	return tc
}
