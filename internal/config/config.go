// Package config defines all configuration structures for pairwatch.  No I/O
// or parsing logic lives here, only plain data types and validation.  The
// fully-populated Config is passed into constructors at startup; nothing reads
// settings from ambient global state.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds tunables for the local HTTP API consumed by the
// presentation layer.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds parameters for the embedded SQLite store.
type DatabaseConfig struct {
	// Path is the SQLite database file.  The directory is created if absent.
	Path string `mapstructure:"path"`
	// BusyTimeout is how long a writer waits on a locked database before
	// failing.  The store has a single writer; this only papers over short
	// overlaps between the poller and API reads.
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

// USPTOConfig holds parameters for the Open Data Portal client.
type USPTOConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// Timeout bounds a single resource fetch.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxResponseBytes caps a response body; the upstream documents a 6MB
	// limit and anything larger is treated as malformed.
	MaxResponseBytes int64 `mapstructure:"max_response_bytes"`
	// ProbeApplication is the known application number used by API-key
	// validation probes.
	ProbeApplication string `mapstructure:"probe_application"`
}

// PollerConfig holds scheduler pacing and backoff parameters.
type PollerConfig struct {
	// Interval between scheduled cycles.  Valid range 1h–168h.
	Interval time.Duration `mapstructure:"interval"`
	// Pacing is the fixed floor delay between consecutive patents within a
	// cycle, respecting upstream rate limits.
	Pacing time.Duration `mapstructure:"pacing"`
	// BackoffBase is the initial pause after an upstream rate-limit
	// rejection; doubled per consecutive rejection up to BackoffMax.
	BackoffBase time.Duration `mapstructure:"backoff_base"`
	BackoffMax  time.Duration `mapstructure:"backoff_max"`
	// Enabled controls whether the background loop starts with the process.
	// Manual refreshes work either way.
	Enabled bool `mapstructure:"enabled"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string   `mapstructure:"format"` // "json" | "console"
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// MetricsConfig controls the Prometheus endpoint on the local API server.
type MetricsConfig struct {
	// Enabled mounts /metrics; instrumentation itself is always collected.
	Enabled bool `mapstructure:"enabled"`
}

// SecretsConfig holds credential-store parameters.
type SecretsConfig struct {
	// Backend selects "keyring" (OS credential manager) or "env"
	// (PAIRWATCH_USPTO_API_KEY, for headless deployments).
	Backend string `mapstructure:"backend"`
	// Service is the keyring service name under which the API key is filed.
	Service string `mapstructure:"service"`
}

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	USPTO    USPTOConfig    `mapstructure:"uspto"`
	Poller   PollerConfig   `mapstructure:"poller"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Secrets  SecretsConfig  `mapstructure:"secrets"`
}

// Poll interval bounds, per the upstream fair-use guidance: no more than one
// cycle an hour, and at least one a week so tracked data cannot go stale
// unnoticed.
const (
	MinPollInterval = time.Hour
	MaxPollInterval = 168 * time.Hour
)

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("config: database.path is required")
	}

	if c.USPTO.BaseURL == "" {
		return fmt.Errorf("config: uspto.base_url is required")
	}
	if c.USPTO.Timeout <= 0 {
		return fmt.Errorf("config: uspto.timeout must be positive, got %s", c.USPTO.Timeout)
	}
	if c.USPTO.MaxResponseBytes < 1 {
		return fmt.Errorf("config: uspto.max_response_bytes must be ≥ 1, got %d", c.USPTO.MaxResponseBytes)
	}

	if c.Poller.Interval < MinPollInterval || c.Poller.Interval > MaxPollInterval {
		return fmt.Errorf("config: poller.interval %s is out of range [%s, %s]",
			c.Poller.Interval, MinPollInterval, MaxPollInterval)
	}
	if c.Poller.Pacing < 0 {
		return fmt.Errorf("config: poller.pacing must not be negative, got %s", c.Poller.Pacing)
	}
	if c.Poller.BackoffBase <= 0 {
		return fmt.Errorf("config: poller.backoff_base must be positive, got %s", c.Poller.BackoffBase)
	}
	if c.Poller.BackoffMax < c.Poller.BackoffBase {
		return fmt.Errorf("config: poller.backoff_max %s is below poller.backoff_base %s",
			c.Poller.BackoffMax, c.Poller.BackoffBase)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	switch c.Secrets.Backend {
	case "keyring", "env":
	default:
		return fmt.Errorf("config: secrets.backend %q is invalid; expected keyring|env", c.Secrets.Backend)
	}

	return nil
}
