package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultServerPort = 8750
	DefaultServerMode = "release"

	DefaultUSPTOBaseURL     = "https://api.uspto.gov/api/v1/patent/applications"
	DefaultUSPTOTimeout     = 30 * time.Second
	DefaultMaxResponseBytes = 6 << 20 // upstream-documented response cap

	// DefaultProbeApplication is a long-lived published application used for
	// API-key validation probes.
	DefaultProbeApplication = "17940142"

	DefaultPollInterval = 24 * time.Hour
	DefaultPacing       = 500 * time.Millisecond
	DefaultBackoffBase  = 2 * time.Second
	DefaultBackoffMax   = time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultSecretsBackend = "keyring"
	DefaultSecretsService = "pairwatch"

	defaultDatabaseFile = "patents.db"
)

// DefaultDatabasePath returns the per-user database location,
// ~/.local/share/pairwatch/patents.db (or the OS equivalent of the user home).
// Falls back to the working directory when the home cannot be resolved.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultDatabaseFile
	}
	return filepath.Join(home, ".local", "share", "pairwatch", defaultDatabaseFile)
}

// ApplyDefaults fills every zero-value field in cfg with the application
// default.  Fields already set by the caller are left unchanged so explicit
// configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultDatabasePath()
	}
	if cfg.Database.BusyTimeout == 0 {
		cfg.Database.BusyTimeout = 5 * time.Second
	}

	if cfg.USPTO.BaseURL == "" {
		cfg.USPTO.BaseURL = DefaultUSPTOBaseURL
	}
	if cfg.USPTO.Timeout == 0 {
		cfg.USPTO.Timeout = DefaultUSPTOTimeout
	}
	if cfg.USPTO.MaxResponseBytes == 0 {
		cfg.USPTO.MaxResponseBytes = DefaultMaxResponseBytes
	}
	if cfg.USPTO.ProbeApplication == "" {
		cfg.USPTO.ProbeApplication = DefaultProbeApplication
	}

	if cfg.Poller.Interval == 0 {
		cfg.Poller.Interval = DefaultPollInterval
	}
	if cfg.Poller.Pacing == 0 {
		cfg.Poller.Pacing = DefaultPacing
	}
	if cfg.Poller.BackoffBase == 0 {
		cfg.Poller.BackoffBase = DefaultBackoffBase
	}
	if cfg.Poller.BackoffMax == 0 {
		cfg.Poller.BackoffMax = DefaultBackoffMax
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	if cfg.Secrets.Backend == "" {
		cfg.Secrets.Backend = DefaultSecretsBackend
	}
	if cfg.Secrets.Service == "" {
		cfg.Secrets.Service = DefaultSecretsService
	}
}
