package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines daemon configuration. It is read once at startup and immutable per run.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Transport  TransportConfig  `yaml:"transport"`
	Auth       AuthConfig       `yaml:"auth"`
	DB         DBConfig         `yaml:"db"`
	Log        LogConfig        `yaml:"log"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Capture    CaptureConfig    `yaml:"capture"`
	Session    SessionConfig    `yaml:"session"`
	Assignment AssignmentConfig `yaml:"assignment"`
	Timeline   TimelineConfig   `yaml:"timeline"`
	Storage    StorageConfig    `yaml:"storage"`
}

// ServerConfig is where the MCP HTTP transport listens.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // "stdio" or "http"
}

// AuthConfig guards the MCP HTTP transport with the ingest tokens.
type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// IngestConfig controls the collector endpoint and the ingest ticker.
type IngestConfig struct {
	Addr string `yaml:"addr"`
	// Tokens maps bearer tokens to collector names.
	Tokens              map[string]string `yaml:"tokens"`
	TickIntervalSeconds int               `yaml:"tick_interval_seconds"`
	QueueSize           int               `yaml:"queue_size"`
}

type CaptureConfig struct {
	DuplicateThreshold int `yaml:"duplicate_threshold"`
	WindowSeconds      int `yaml:"window_seconds"`
}

type SessionConfig struct {
	AFKTimeoutSeconds int `yaml:"afk_timeout_seconds"`
	MinSessionMinutes int `yaml:"min_session_minutes"`
	RealBreakMinutes  int `yaml:"real_break_minutes"`
}

type AssignmentConfig struct {
	MinConfidence      float64 `yaml:"min_confidence"`
	Ceiling            float64 `yaml:"ceiling"`
	Learning           bool    `yaml:"learning"`
	AutoDiscover       bool    `yaml:"auto_discover"`
	DiscoverMinCommits int     `yaml:"discover_min_commits"`
}

type TimelineConfig struct {
	PixelsPerHour float64 `yaml:"pixels_per_hour"`
	TimeZone      string  `yaml:"time_zone"` // IANA name; empty means the host zone
	CacheSize     int     `yaml:"cache_size"`
	Workers       int     `yaml:"workers"`
}

type StorageConfig struct {
	Retries       int `yaml:"retries"`
	BackoffMillis int `yaml:"backoff_millis"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Server:    ServerConfig{Host: "127.0.0.1", Port: 8080},
		Transport: TransportConfig{Mode: "stdio"},
		DB:        DBConfig{Path: "traq.db"},
		Log:       LogConfig{Level: "info"},
		Ingest: IngestConfig{
			Addr:                "127.0.0.1:8765",
			Tokens:              map[string]string{},
			TickIntervalSeconds: 5,
			QueueSize:           1000,
		},
		Capture: CaptureConfig{DuplicateThreshold: 3, WindowSeconds: 600},
		Session: SessionConfig{AFKTimeoutSeconds: 180, MinSessionMinutes: 5, RealBreakMinutes: 30},
		Assignment: AssignmentConfig{
			MinConfidence:      0.1,
			Ceiling:            3.0,
			Learning:           true,
			DiscoverMinCommits: 5,
		},
		Timeline: TimelineConfig{PixelsPerHour: 60, CacheSize: 128, Workers: 4},
		Storage:  StorageConfig{Retries: 3, BackoffMillis: 50},
	}
}

// Load reads defaults, then an optional YAML file (TRAQ_CONFIG_PATH), then TRAQ_* environment overrides.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("TRAQ_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	env := envReader{lookup: lookup}

	env.str("TRAQ_SERVER_HOST", &cfg.Server.Host)
	env.integer("TRAQ_SERVER_PORT", &cfg.Server.Port)
	env.str("TRAQ_TRANSPORT", &cfg.Transport.Mode)
	env.boolean("TRAQ_AUTH_ENABLED", &cfg.Auth.Enabled)
	env.str("TRAQ_DB_PATH", &cfg.DB.Path)
	env.str("TRAQ_LOG_LEVEL", &cfg.Log.Level)
	env.str("TRAQ_LOG_PATH", &cfg.Log.Path)

	env.str("TRAQ_INGEST_ADDR", &cfg.Ingest.Addr)
	if token, ok := lookup("TRAQ_INGEST_TOKEN"); ok && token != "" {
		if cfg.Ingest.Tokens == nil {
			cfg.Ingest.Tokens = map[string]string{}
		}
		cfg.Ingest.Tokens[token] = "default"
	}
	env.integer("TRAQ_INGEST_TICK_SECONDS", &cfg.Ingest.TickIntervalSeconds)
	env.integer("TRAQ_INGEST_QUEUE_SIZE", &cfg.Ingest.QueueSize)

	env.integer("TRAQ_DUPLICATE_THRESHOLD", &cfg.Capture.DuplicateThreshold)
	env.integer("TRAQ_DUPLICATE_WINDOW_SECONDS", &cfg.Capture.WindowSeconds)

	env.integer("TRAQ_AFK_TIMEOUT_SECONDS", &cfg.Session.AFKTimeoutSeconds)
	env.integer("TRAQ_MIN_SESSION_MINUTES", &cfg.Session.MinSessionMinutes)
	env.integer("TRAQ_REAL_BREAK_MINUTES", &cfg.Session.RealBreakMinutes)

	env.float("TRAQ_MIN_CONFIDENCE", &cfg.Assignment.MinConfidence)
	env.float("TRAQ_CONFIDENCE_CEILING", &cfg.Assignment.Ceiling)
	env.boolean("TRAQ_LEARNING", &cfg.Assignment.Learning)
	env.boolean("TRAQ_AUTO_DISCOVER", &cfg.Assignment.AutoDiscover)
	env.integer("TRAQ_DISCOVER_MIN_COMMITS", &cfg.Assignment.DiscoverMinCommits)

	env.float("TRAQ_PIXELS_PER_HOUR", &cfg.Timeline.PixelsPerHour)
	env.str("TRAQ_TIMEZONE", &cfg.Timeline.TimeZone)
	env.integer("TRAQ_CACHE_SIZE", &cfg.Timeline.CacheSize)

	env.integer("TRAQ_STORAGE_RETRIES", &cfg.Storage.Retries)
	env.integer("TRAQ_STORAGE_BACKOFF_MILLIS", &cfg.Storage.BackoffMillis)

	return errors.Join(env.errs...)
}

type envReader struct {
	lookup lookupFunc
	errs   []error
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.lookup(key); ok && v != "" {
		*dst = v
	}
}

func (e *envReader) integer(key string, dst *int) {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s: %w", key, err))
		return
	}
	*dst = n
}

func (e *envReader) float(key string, dst *float64) {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s: %w", key, err))
		return
	}
	*dst = f
}

func (e *envReader) boolean(key string, dst *bool) {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s: %w", key, err))
		return
	}
	*dst = b
}

// Validate rejects impossible values.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Transport.Mode == "stdio" || c.Transport.Mode == "http", "transport.mode must be stdio or http, got %q", c.Transport.Mode)
	check(c.Server.Port > 0 && c.Server.Port < 65536, "server.port out of range: %d", c.Server.Port)
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		check(false, "log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	check(c.DB.Path != "", "db.path is required")
	check(c.Ingest.TickIntervalSeconds > 0, "ingest.tick_interval_seconds must be positive")
	check(c.Ingest.QueueSize > 0, "ingest.queue_size must be positive")
	check(c.Capture.DuplicateThreshold >= 0 && c.Capture.DuplicateThreshold <= 64, "capture.duplicate_threshold must be 0..64")
	check(c.Capture.WindowSeconds > 0, "capture.window_seconds must be positive")
	check(c.Session.AFKTimeoutSeconds > 0, "session.afk_timeout_seconds must be positive")
	check(c.Session.MinSessionMinutes >= 0, "session.min_session_minutes must not be negative")
	check(c.Session.RealBreakMinutes >= 0, "session.real_break_minutes must not be negative")
	check(c.Assignment.MinConfidence >= 0 && c.Assignment.MinConfidence <= 1, "assignment.min_confidence must be 0..1")
	check(c.Assignment.Ceiling > 0, "assignment.ceiling must be positive")
	check(c.Assignment.DiscoverMinCommits > 0, "assignment.discover_min_commits must be positive")
	check(c.Timeline.PixelsPerHour > 0, "timeline.pixels_per_hour must be positive")
	check(c.Timeline.CacheSize >= 0, "timeline.cache_size must not be negative")
	check(c.Timeline.Workers >= 0, "timeline.workers must not be negative")
	check(c.Storage.Retries >= 0, "storage.retries must not be negative")
	check(c.Storage.BackoffMillis >= 0, "storage.backoff_millis must not be negative")
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Auth.Enabled {
		check(len(c.Ingest.Tokens) > 0, "auth.enabled needs at least one ingest token")
	}
	return errors.Join(errs...)
}

// Location resolves the configured time zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timeline.TimeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timeline.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("timeline.time_zone: %w", err)
	}
	return loc, nil
}

func (c Config) TickInterval() time.Duration {
	return time.Duration(c.Ingest.TickIntervalSeconds) * time.Second
}

func (c Config) DuplicateWindow() time.Duration {
	return time.Duration(c.Capture.WindowSeconds) * time.Second
}

func (c Config) AFKTimeout() time.Duration {
	return time.Duration(c.Session.AFKTimeoutSeconds) * time.Second
}

func (c Config) MinSession() time.Duration {
	return time.Duration(c.Session.MinSessionMinutes) * time.Minute
}

func (c Config) RealBreak() time.Duration {
	return time.Duration(c.Session.RealBreakMinutes) * time.Minute
}

func (c Config) StorageBackoff() time.Duration {
	return time.Duration(c.Storage.BackoffMillis) * time.Millisecond
}
