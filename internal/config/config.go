// Package config loads polydb settings from a YAML file and the environment.
//
// Loading order is file, then environment overrides, then defaults for
// anything still unset, then validation. Environment variables always win
// over the file:
//
//	POLYDB_DB_PATH            database.path
//	POLYDB_DB_DRIVER          database.driver (sqlite3 | sqlite)
//	POLYDB_DB_BUSY_TIMEOUT    database.busy_timeout (Go duration)
//	POLYDB_DB_MAX_OPEN_CONNS  database.max_open_conns
//	POLYDB_LOG_LEVEL          log.level (debug | info | warn | error)
//	POLYDB_LOG_FORMAT         log.format (text | json)
//	POLYDB_LOG_FILE           log.file
//	POLYDB_METRICS_FILE       metrics_file
package config

import (
	"fmt"
	"slices"
	"time"
)

// Default values applied by ApplyDefaults.
const (
	DefaultDBPath       = "polygoners.sqlite"
	DefaultDriver       = "sqlite3"
	DefaultBusyTimeout  = 5 * time.Second
	DefaultMaxOpenConns = 4
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultLogMaxSizeMB = 10
	DefaultLogMaxFiles  = 5
)

var (
	validDrivers    = []string{"sqlite3", "sqlite"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

// Config is the full polydb configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`

	// MetricsFile, when set, receives a Prometheus text-format snapshot
	// of store metrics after each CLI command.
	MetricsFile string `yaml:"metrics_file" env:"POLYDB_METRICS_FILE"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path         string        `yaml:"path" env:"POLYDB_DB_PATH"`
	Driver       string        `yaml:"driver" env:"POLYDB_DB_DRIVER"`
	BusyTimeout  time.Duration `yaml:"busy_timeout" env:"POLYDB_DB_BUSY_TIMEOUT"`
	MaxOpenConns int           `yaml:"max_open_conns" env:"POLYDB_DB_MAX_OPEN_CONNS"`
}

// LogConfig configures the slog logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"POLYDB_LOG_LEVEL"`
	Format string `yaml:"format" env:"POLYDB_LOG_FORMAT"`

	// File switches output from stderr to a rotating file.
	File      string `yaml:"file" env:"POLYDB_LOG_FILE"`
	MaxSizeMB int    `yaml:"max_size_mb" env:"POLYDB_LOG_MAX_SIZE_MB"`
	MaxFiles  int    `yaml:"max_files" env:"POLYDB_LOG_MAX_FILES"`
}

// ApplyDefaults fills every unset field with its default.
func ApplyDefaults(cfg *Config) {
	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultDBPath
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DefaultDriver
	}
	if cfg.Database.BusyTimeout == 0 {
		cfg.Database.BusyTimeout = DefaultBusyTimeout
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = DefaultMaxOpenConns
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if cfg.Log.MaxFiles == 0 {
		cfg.Log.MaxFiles = DefaultLogMaxFiles
	}
}

// Validate reports the first invalid field.
func Validate(cfg *Config) error {
	if !slices.Contains(validDrivers, cfg.Database.Driver) {
		return fmt.Errorf("database.driver %q: must be one of %v", cfg.Database.Driver, validDrivers)
	}
	if cfg.Database.BusyTimeout < 0 {
		return fmt.Errorf("database.busy_timeout must not be negative")
	}
	if cfg.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}
	if !slices.Contains(validLogLevels, cfg.Log.Level) {
		return fmt.Errorf("log.level %q: must be one of %v", cfg.Log.Level, validLogLevels)
	}
	if !slices.Contains(validLogFormats, cfg.Log.Format) {
		return fmt.Errorf("log.format %q: must be one of %v", cfg.Log.Format, validLogFormats)
	}
	return nil
}
