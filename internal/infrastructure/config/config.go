// Package config provides configuration structs and utilities for the mcpnotes servers.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Config represents the root configuration for the mcpnotes application.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Transport     TransportConfig     `yaml:"transport"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
	Operations    OperationsConfig    `yaml:"operations"`
}

// ServerConfig holds identity settings reported to clients.
type ServerConfig struct {
	Version string `yaml:"version"`
}

// StorageConfig selects and configures the note store.
type StorageConfig struct {
	Backend string `yaml:"backend"` // json, sqlite, memory
	Path    string `yaml:"path"`    // Empty uses the backend default
}

// TransportConfig holds settings for the network transport.
type TransportConfig struct {
	HTTPAddr  string          `yaml:"http_addr"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig holds per-client limits for the HTTP transport.
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled"`
	RPS     float64       `yaml:"rps"`
	Burst   int           `yaml:"burst"`
	IdleTTL time.Duration `yaml:"idle_ttl"`
}

// LoggingConfig holds configuration for application logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// ObservabilityConfig holds configuration for observability features.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig holds configuration for Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Runtime bool `yaml:"runtime"` // Also export Go runtime and process collectors
}

// TracingConfig holds configuration for distributed tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`       // Whether tracing is enabled
	ExporterType string  `yaml:"exporter_type"` // none, stdout, otlp
	OTLPEndpoint string  `yaml:"otlp_endpoint"` // OTLP collector host:port
	SampleRate   float64 `yaml:"sample_rate"`   // Sampling rate (0.0 to 1.0)
	ServiceName  string  `yaml:"service_name"`  // Service name for traces
}

// OperationsConfig restricts which operations are exposed.
type OperationsConfig struct {
	Allow []string `yaml:"allow"` // Glob patterns; empty allows everything
}

// Default configuration values.
const (
	DefaultVersion        = "1.0.0"
	DefaultStorageBackend = "json"
	DefaultHTTPAddr       = "127.0.0.1:8787"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"

	// Rate limit defaults
	DefaultRateLimitEnabled = true
	DefaultRateLimitRPS     = 30
	DefaultRateLimitBurst   = 60
	DefaultRateLimitIdleTTL = 10 * time.Minute

	// Observability defaults
	DefaultMetricsEnabled      = true
	DefaultTracingEnabled      = false
	DefaultTracingExporterType = "none"
	DefaultTracingSampleRate   = 1.0
	DefaultTracingServiceName  = "mcpnotes"
)

// Storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Valid log levels.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Valid log formats.
var validLogFormats = map[string]bool{
	"json": true,
	"text": true,
}

// Valid tracing exporter types.
var validTracingExporterTypes = map[string]bool{
	"none":   true,
	"stdout": true,
	"otlp":   true,
}

var validBackends = map[string]bool{
	BackendJSON:   true,
	BackendSQLite: true,
	BackendMemory: true,
}

// NewDefaultConfig creates a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Version: DefaultVersion,
		},
		Storage: StorageConfig{
			Backend: DefaultStorageBackend,
		},
		Transport: TransportConfig{
			HTTPAddr: DefaultHTTPAddr,
			RateLimit: RateLimitConfig{
				Enabled: DefaultRateLimitEnabled,
				RPS:     DefaultRateLimitRPS,
				Burst:   DefaultRateLimitBurst,
				IdleTTL: DefaultRateLimitIdleTTL,
			},
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: DefaultMetricsEnabled,
			},
			Tracing: TracingConfig{
				Enabled:      DefaultTracingEnabled,
				ExporterType: DefaultTracingExporterType,
				SampleRate:   DefaultTracingSampleRate,
				ServiceName:  DefaultTracingServiceName,
			},
		},
	}
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}

	if err := c.Transport.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("transport: %w", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Observability.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("observability: %w", err))
	}

	if err := c.Operations.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("operations: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the StorageConfig is valid.
func (s *StorageConfig) Validate() error {
	if !validBackends[s.Backend] {
		return fmt.Errorf("invalid backend %q: must be one of json, sqlite, memory", s.Backend)
	}
	return nil
}

// Validate checks if the TransportConfig is valid.
func (t *TransportConfig) Validate() error {
	var errs []error

	if t.HTTPAddr != "" {
		if err := validateHostPort(t.HTTPAddr); err != nil {
			errs = append(errs, fmt.Errorf("invalid http_addr %q: %w", t.HTTPAddr, err))
		}
	}

	if t.RateLimit.Enabled {
		if t.RateLimit.RPS <= 0 {
			errs = append(errs, errors.New("rate_limit.rps must be positive when rate limiting is enabled"))
		}
		if t.RateLimit.Burst <= 0 {
			errs = append(errs, errors.New("rate_limit.burst must be positive when rate limiting is enabled"))
		}
		if t.RateLimit.IdleTTL < 0 {
			errs = append(errs, errors.New("rate_limit.idle_ttl must be non-negative"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the LoggingConfig is valid.
func (l *LoggingConfig) Validate() error {
	var errs []error

	if l.Level != "" && !validLogLevels[l.Level] {
		errs = append(errs, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", l.Level))
	}

	if l.Format != "" && !validLogFormats[l.Format] {
		errs = append(errs, fmt.Errorf("invalid log format %q: must be one of json, text", l.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the ObservabilityConfig is valid.
func (o *ObservabilityConfig) Validate() error {
	if err := o.Tracing.Validate(); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	return nil
}

// Validate checks if the TracingConfig is valid.
func (t *TracingConfig) Validate() error {
	var errs []error

	if t.Enabled {
		if t.ExporterType != "" && !validTracingExporterTypes[t.ExporterType] {
			errs = append(errs, fmt.Errorf("invalid exporter_type %q: must be one of none, stdout, otlp", t.ExporterType))
		}
		if t.ExporterType == "otlp" {
			if t.OTLPEndpoint == "" {
				errs = append(errs, errors.New("otlp_endpoint is required when exporter_type is 'otlp'"))
			} else if err := validateHostPort(t.OTLPEndpoint); err != nil {
				errs = append(errs, fmt.Errorf("invalid otlp_endpoint %q: %w", t.OTLPEndpoint, err))
			}
		}
		if t.SampleRate < 0 || t.SampleRate > 1 {
			errs = append(errs, errors.New("sample_rate must be between 0.0 and 1.0"))
		}
		if t.ServiceName == "" {
			errs = append(errs, errors.New("service_name is required when tracing is enabled"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that every allow pattern is a well-formed glob.
func (o *OperationsConfig) Validate() error {
	var errs []error
	for _, p := range o.Allow {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("invalid allow pattern %q", p))
		}
	}
	return errors.Join(errs...)
}

// validateHostPort accepts a bare host:port with a numeric port. The host may
// be empty (":8080") but a URL scheme is rejected.
func validateHostPort(addr string) error {
	if strings.Contains(addr, "://") {
		return errors.New("expected host:port without a scheme")
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("port %q must be a number between 0 and 65535", port)
	}
	return nil
}
