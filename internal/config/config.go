// Package config holds the validated runtime configuration of the bookingcache command.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	snapshotcache "github.com/karupanerura/snapshot-cache"
	"github.com/karupanerura/snapshot-cache/storage"
	"github.com/karupanerura/snapshot-cache/storage/sqlstorage"
)

// Source kinds.
const (
	SourceMock = "mock" // default
	SourceHTTP = "http"
)

// Cache backends.
const (
	BackendMemory     = "memory"
	BackendSQLite     = string(sqlstorage.SQLite) // default
	BackendPostgreSQL = string(sqlstorage.PostgreSQL)
	BackendMySQL      = string(sqlstorage.MySQL)
	BackendRedis      = "redis"
)

// Default values for configuration.
const (
	DefaultCacheDSN     = "bookingcache.db"
	DefaultMockDelay    = time.Second
	DefaultRetries      = 2
	DefaultFetchTimeout = 15 * time.Second
	DefaultListen       = ":8080"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
)

var (
	sourceKinds = []string{SourceMock, SourceHTTP}
	backends    = []string{BackendMemory, BackendSQLite, BackendPostgreSQL, BackendMySQL, BackendRedis}
	logFormats  = []string{"text", "json"}
)

// Config is the runtime configuration. Keys are shared by the config file, the environment and the flags.
type Config struct {
	Source      string        `mapstructure:"source"`
	SourceURL   string        `mapstructure:"source-url"`
	SourceToken string        `mapstructure:"source-token"`
	UserAgent   string        `mapstructure:"user-agent"`
	MockDelay   time.Duration `mapstructure:"mock-delay"`
	Retries     int           `mapstructure:"retries"`

	CacheBackend  string        `mapstructure:"cache-backend"`
	CacheDSN      string        `mapstructure:"cache-dsn"`
	CacheKey      string        `mapstructure:"cache-key"`
	CacheTable    string        `mapstructure:"cache-table"`
	CacheDuration time.Duration `mapstructure:"cache-duration"`
	CacheJitter   time.Duration `mapstructure:"cache-jitter"`

	FetchTimeout    time.Duration `mapstructure:"fetch-timeout"`
	SingleFlight    bool          `mapstructure:"single-flight"`
	RefreshInterval time.Duration `mapstructure:"refresh-interval"`

	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`
	Listen    string `mapstructure:"listen"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source", SourceMock)
	v.SetDefault("source-url", "")
	v.SetDefault("source-token", "")
	v.SetDefault("user-agent", "bookingcache")
	v.SetDefault("mock-delay", DefaultMockDelay)
	v.SetDefault("retries", DefaultRetries)
	v.SetDefault("cache-backend", BackendSQLite)
	v.SetDefault("cache-dsn", DefaultCacheDSN)
	v.SetDefault("cache-key", storage.DefaultKey)
	v.SetDefault("cache-table", sqlstorage.DefaultTableName)
	v.SetDefault("cache-duration", snapshotcache.DefaultCacheDuration)
	v.SetDefault("cache-jitter", time.Duration(0))
	v.SetDefault("fetch-timeout", DefaultFetchTimeout)
	v.SetDefault("single-flight", false)
	v.SetDefault("refresh-interval", time.Duration(0))
	v.SetDefault("log-level", DefaultLogLevel)
	v.SetDefault("log-format", DefaultLogFormat)
	v.SetDefault("listen", DefaultListen)
}

// Load unmarshals the resolved values of v and validates them.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(sourceKinds, c.Source) {
		errs = append(errs, fmt.Errorf("invalid source %q: must be one of %s", c.Source, strings.Join(sourceKinds, ", ")))
	}
	if c.Source == SourceHTTP {
		if u, err := url.Parse(c.SourceURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid source-url %q: an absolute http(s) URL is required for the http source", c.SourceURL))
		}
	}
	if c.MockDelay < 0 {
		errs = append(errs, fmt.Errorf("invalid mock-delay %s: must not be negative", c.MockDelay))
	}
	if c.Retries < 0 {
		errs = append(errs, fmt.Errorf("invalid retries %d: must not be negative", c.Retries))
	}

	if !slices.Contains(backends, c.CacheBackend) {
		errs = append(errs, fmt.Errorf("invalid cache-backend %q: must be one of %s", c.CacheBackend, strings.Join(backends, ", ")))
	} else if c.CacheBackend != BackendMemory && c.CacheDSN == "" {
		errs = append(errs, fmt.Errorf("cache-dsn is required for the %s backend", c.CacheBackend))
	}
	if c.CacheKey == "" {
		errs = append(errs, errors.New("cache-key must not be empty"))
	}
	if c.CacheDuration <= 0 {
		errs = append(errs, fmt.Errorf("invalid cache-duration %s: must be positive", c.CacheDuration))
	}
	if c.CacheJitter < 0 || (c.CacheDuration > 0 && c.CacheJitter >= c.CacheDuration) {
		errs = append(errs, fmt.Errorf("invalid cache-jitter %s: must be at least 0 and shorter than cache-duration", c.CacheJitter))
	}
	if c.FetchTimeout < 0 {
		errs = append(errs, fmt.Errorf("invalid fetch-timeout %s: must not be negative", c.FetchTimeout))
	}
	if c.RefreshInterval < 0 {
		errs = append(errs, fmt.Errorf("invalid refresh-interval %s: must not be negative", c.RefreshInterval))
	}

	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if !slices.Contains(logFormats, c.LogFormat) {
		errs = append(errs, fmt.Errorf("invalid log-format %q: must be one of %s", c.LogFormat, strings.Join(logFormats, ", ")))
	}
	return errors.Join(errs...)
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log-level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// NewLogger returns a logger writing to w in the configured format and level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
