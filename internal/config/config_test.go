package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TRAQ_CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "stdio", cfg.Transport.Mode)
	require.Equal(t, 3, cfg.Capture.DuplicateThreshold)
	require.Equal(t, 180*time.Second, cfg.AFKTimeout())
	require.Equal(t, 5*time.Minute, cfg.MinSession())
	require.Equal(t, 30*time.Minute, cfg.RealBreak())
	require.Equal(t, 3.0, cfg.Assignment.Ceiling)
	require.True(t, cfg.Assignment.Learning)
	require.False(t, cfg.Assignment.AutoDiscover)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
transport:
  mode: http
ingest:
  tokens:
    secret: laptop
  queue_size: 50
session:
  afk_timeout_seconds: 300
timeline:
  time_zone: Europe/Berlin
  pixels_per_hour: 120
`), 0o644))

	t.Setenv("TRAQ_CONFIG_PATH", path)
	t.Setenv("TRAQ_AFK_TIMEOUT_SECONDS", "240")
	t.Setenv("TRAQ_INGEST_TOKEN", "other")
	t.Setenv("TRAQ_AUTO_DISCOVER", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http", cfg.Transport.Mode)
	require.Equal(t, 50, cfg.Ingest.QueueSize)
	require.Equal(t, map[string]string{"secret": "laptop", "other": "default"}, cfg.Ingest.Tokens)
	require.Equal(t, 240*time.Second, cfg.AFKTimeout())
	require.Equal(t, 120.0, cfg.Timeline.PixelsPerHour)
	require.True(t, cfg.Assignment.AutoDiscover)

	// untouched sections keep their defaults
	require.Equal(t, 5*time.Second, cfg.TickInterval())

	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("TRAQ_CONFIG_PATH", "")
	t.Setenv("TRAQ_SERVER_PORT", "eighty")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "TRAQ_SERVER_PORT")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("TRAQ_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "read config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"transport", func(c *Config) { c.Transport.Mode = "grpc" }, "transport.mode"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"threshold", func(c *Config) { c.Capture.DuplicateThreshold = 65 }, "duplicate_threshold"},
		{"timeout", func(c *Config) { c.Session.AFKTimeoutSeconds = 0 }, "afk_timeout_seconds"},
		{"confidence", func(c *Config) { c.Assignment.MinConfidence = 1.5 }, "min_confidence"},
		{"ceiling", func(c *Config) { c.Assignment.Ceiling = 0 }, "ceiling"},
		{"pixels", func(c *Config) { c.Timeline.PixelsPerHour = -1 }, "pixels_per_hour"},
		{"zone", func(c *Config) { c.Timeline.TimeZone = "Mars/Olympus" }, "time_zone"},
		{"auth without tokens", func(c *Config) { c.Auth.Enabled = true }, "ingest token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}

	require.NoError(t, Default().Validate())
}
