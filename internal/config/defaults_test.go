package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultUSPTOBaseURL, cfg.USPTO.BaseURL)
	assert.Equal(t, int64(DefaultMaxResponseBytes), cfg.USPTO.MaxResponseBytes)
	assert.Equal(t, DefaultPollInterval, cfg.Poller.Interval)
	assert.Equal(t, DefaultPacing, cfg.Poller.Pacing)
	assert.Equal(t, DefaultSecretsService, cfg.Secrets.Service)
	assert.NotEmpty(t, cfg.Database.Path)
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Poller.Interval = 3 * time.Hour
	cfg.Database.Path = "/data/p.db"

	ApplyDefaults(cfg)

	assert.Equal(t, 3*time.Hour, cfg.Poller.Interval)
	assert.Equal(t, "/data/p.db", cfg.Database.Path)
}

func TestApplyDefaultsNil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}
