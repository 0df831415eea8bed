// Package config loads the calendar configuration from a YAML file, a .env
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StorageConfig selects the server's event store.
type StorageConfig struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string `yaml:"driver"`
	// Path is the SQLite database file.
	Path string `yaml:"path"`
	// DatabaseURI is the PostgreSQL connection string.
	DatabaseURI string `yaml:"database_uri,omitempty"`
}

// GatewayConfig configures the CLI's connection to the events API.
type GatewayConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-request timeout.
func (g GatewayConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// AuthConfig enables bearer JWT authentication when Secret is set.
type AuthConfig struct {
	Secret        string `yaml:"secret,omitempty"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

// TokenTTL returns the lifetime of issued tokens.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the server's HTTP listen address.
	Listen string `yaml:"listen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Storage StorageConfig `yaml:"storage"`
	Gateway GatewayConfig `yaml:"gateway"`
	Auth    AuthConfig    `yaml:"auth"`

	// HorizonDays bounds how far ahead a recurring series without an end date
	// is materialized.
	HorizonDays int `yaml:"horizon_days"`

	// AlarmCron is the schedule of the alarm watcher (standard 5-field cron).
	AlarmCron string `yaml:"alarm_cron"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:   "127.0.0.1:8080",
		LogLevel: "info",
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Path:   "./data/calendar.db",
		},
		Gateway: GatewayConfig{
			URL:            "http://127.0.0.1:8080/api",
			TimeoutSeconds: 10,
		},
		Auth:        AuthConfig{TokenTTLHours: 24},
		HorizonDays: 365,
		AlarmCron:   "* * * * *",
	}
}

// Normalize fills in missing or invalid values with defaults so that
// partially-filled files still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = def.LogLevel
	}
	switch c.Storage.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		c.Storage.Driver = DriverSQLite
	}
	if c.Storage.Path == "" {
		c.Storage.Path = def.Storage.Path
	}
	if c.Gateway.URL == "" {
		c.Gateway.URL = def.Gateway.URL
	}
	if c.Gateway.TimeoutSeconds <= 0 {
		c.Gateway.TimeoutSeconds = def.Gateway.TimeoutSeconds
	}
	if c.Auth.TokenTTLHours <= 0 {
		c.Auth.TokenTTLHours = def.Auth.TokenTTLHours
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = def.HorizonDays
	}
	if c.AlarmCron == "" {
		c.AlarmCron = def.AlarmCron
	}
}

// Load reads the YAML file at path, then applies .env and environment
// overrides.
//
// If the file does not exist, a default config is written there first. An
// empty path skips the file entirely.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)
	cfg.Normalize()
	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to write default config: %w", err)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &cfg, nil
}

func applyEnv(c *Config) {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Storage.Path = v
	}
	// A database URI implies the postgres driver.
	if v := os.Getenv("DATABASE_URI"); v != "" {
		c.Storage.DatabaseURI = v
		c.Storage.Driver = DriverPostgres
	}
	if v := os.Getenv("GATEWAY_URL"); v != "" {
		c.Gateway.URL = v
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("HORIZON_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HorizonDays = n
		}
	}
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".calendar-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
