package server

import (
	"fmt"
	"time"

	"github.com/randalmurphal/miniflow/pkg/miniflow/config"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config is the server configuration.
type Config struct {
	Addr            string        `mapstructure:"addr"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	Store  StoreConfig  `mapstructure:"store"`
	Engine EngineConfig `mapstructure:"engine"`
}

// StoreConfig selects and sizes the run store.
type StoreConfig struct {
	Backend       string        `mapstructure:"backend"`
	MaxRuns       int           `mapstructure:"max_runs"`
	SQLitePath    string        `mapstructure:"sqlite_path"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	RedisPrefix   string        `mapstructure:"redis_prefix"`
	RedisTTL      time.Duration `mapstructure:"redis_ttl"`
}

// EngineConfig bounds graph execution.
type EngineConfig struct {
	MaxSteps      int  `mapstructure:"max_steps"`
	MaxGraphs     int  `mapstructure:"max_graphs"`
	MaxBackground int  `mapstructure:"max_background"`
	Tracing       bool `mapstructure:"tracing"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() map[string]any {
	return map[string]any{
		"addr":             ":8000",
		"log_level":        "info",
		"log_format":       "text",
		"read_timeout":     "10s",
		"write_timeout":    "60s",
		"shutdown_timeout": "5s",
		"store": map[string]any{
			"backend":      BackendMemory,
			"max_runs":     10000,
			"sqlite_path":  "miniflow.db",
			"redis_addr":   "localhost:6379",
			"redis_prefix": "miniflow:",
			"redis_ttl":    "24h",
		},
		"engine": map[string]any{
			"max_steps":      1000,
			"max_graphs":     1000,
			"max_background": 64,
			"tracing":        false,
		},
	}
}

// LoadConfig layers Defaults, the file at path (if non-empty) and
// overrides, then decodes and validates the result. Override keys may
// be dotted, as in "store.backend".
func LoadConfig(path string, overrides map[string]any) (Config, error) {
	layered, err := config.Load(Defaults(), path, overrides)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := layered.Decode(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend)
	}
	if c.Store.Backend == BackendSQLite && c.Store.SQLitePath == "" {
		return fmt.Errorf("store.sqlite_path: required for the sqlite backend")
	}
	if c.Store.Backend == BackendRedis && c.Store.RedisAddr == "" {
		return fmt.Errorf("store.redis_addr: required for the redis backend")
	}
	if c.Addr == "" {
		return fmt.Errorf("addr: must not be empty")
	}
	return nil
}
