// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Collections CollectionsConfig `yaml:"collections"`
	Realtime    RealtimeConfig    `yaml:"realtime"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// ServerConfig configures the HTTP server hosting the websocket endpoint.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig configures the database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" (postgres later)
	DSN    string `yaml:"dsn"`
}

// CollectionsConfig configures collection definition loading.
type CollectionsConfig struct {
	// Dir is the directory containing collection YAML files.
	Dir string `yaml:"dir"`
}

// RealtimeConfig configures the websocket channel.
type RealtimeConfig struct {
	Path           string        `yaml:"path"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxMessageSize int64         `yaml:"max_message_size"`
}

// AuthConfig configures connection authentication.
type AuthConfig struct {
	// JWTSecret verifies connection tokens.
	JWTSecret string `yaml:"jwt_secret,omitempty"`

	// Required rejects connections without a valid token.
	Required bool `yaml:"required"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load loads configuration from a YAML file, applies environment overrides,
// defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// This is useful for Docker deployments where no config file is needed.
//
// Environment variables:
//
//	SOCKETGATE_SERVER_HOST      - Server host (default: 0.0.0.0)
//	SOCKETGATE_SERVER_PORT      - Server port (default: 8080)
//	SOCKETGATE_DATABASE_DSN     - Database path (default: socketgate.db)
//	SOCKETGATE_COLLECTIONS_DIR  - Collection definitions dir (default: collections)
//	SOCKETGATE_REALTIME_PATH    - Websocket path (default: /ws)
//	SOCKETGATE_AUTH_SECRET      - JWT secret for connection tokens
//	SOCKETGATE_AUTH_REQUIRED    - Require authentication (default: false)
//	SOCKETGATE_LOG_LEVEL        - Log level: debug, info, warn, error (default: info)
//	SOCKETGATE_LOG_FORMAT       - Log format: json or console (default: json)
//	SOCKETGATE_METRICS_ENABLED  - Enable /metrics endpoint (default: false)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment
// variables.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	if HasEnvConfig() {
		return LoadFromEnv()
	}

	return nil, fmt.Errorf("no configuration found: provide config file or set SOCKETGATE_COLLECTIONS_DIR")
}

// HasEnvConfig returns true if essential environment variables are set.
func HasEnvConfig() bool {
	return os.Getenv("SOCKETGATE_COLLECTIONS_DIR") != ""
}

// applyEnvOverrides applies SOCKETGATE_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SOCKETGATE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SOCKETGATE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SOCKETGATE_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("SOCKETGATE_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	if v := os.Getenv("SOCKETGATE_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("SOCKETGATE_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	if v := os.Getenv("SOCKETGATE_COLLECTIONS_DIR"); v != "" {
		cfg.Collections.Dir = v
	}

	if v := os.Getenv("SOCKETGATE_REALTIME_PATH"); v != "" {
		cfg.Realtime.Path = v
	}
	if v := os.Getenv("SOCKETGATE_REALTIME_PING_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Realtime.PingInterval = d
		}
	}
	if v := os.Getenv("SOCKETGATE_REALTIME_MAX_MESSAGE_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Realtime.MaxMessageSize = n
		}
	}

	if v := os.Getenv("SOCKETGATE_AUTH_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("SOCKETGATE_AUTH_REQUIRED"); v != "" {
		cfg.Auth.Required = parseBool(v)
	}

	if v := os.Getenv("SOCKETGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SOCKETGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("SOCKETGATE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
}

// parseBool parses truthy strings.
func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	}
	return false
}

// setDefaults fills in default values for unset fields.
func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "socketgate.db"
	}

	if cfg.Collections.Dir == "" {
		cfg.Collections.Dir = "collections"
	}

	if cfg.Realtime.Path == "" {
		cfg.Realtime.Path = "/ws"
	}
	if cfg.Realtime.PingInterval == 0 {
		cfg.Realtime.PingInterval = 30 * time.Second
	}
	if cfg.Realtime.WriteTimeout == 0 {
		cfg.Realtime.WriteTimeout = 10 * time.Second
	}
	if cfg.Realtime.MaxMessageSize == 0 {
		cfg.Realtime.MaxMessageSize = 1 << 20
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// validate checks configuration consistency.
func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}

	if cfg.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	if !strings.HasPrefix(cfg.Realtime.Path, "/") {
		return fmt.Errorf("realtime path must start with /")
	}

	if cfg.Auth.Required && cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.required needs auth.jwt_secret")
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", cfg.Logging.Level)
	}

	switch cfg.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format %q", cfg.Logging.Format)
	}

	return nil
}
