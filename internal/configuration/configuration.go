package configuration

import (
	"cadence/internal/score"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageDriverMemory = "memory"
	StorageDriverSQLite = "sqlite"
)

// EnvPrefix prefixes environment overrides, e.g. CADENCE_SERVER_ADDRESS.
const EnvPrefix = "CADENCE"

// AppConfig represents the complete application configuration.
type AppConfig struct {
	// Logger: logger component configuration
	Logger LoggerConfig `mapstructure:"logger"`
	// Server: HTTP server configuration
	Server ServerConfig `mapstructure:"server"`
	// Scoring: scoring defaults and admission rules
	Scoring ScoringConfig `mapstructure:"scoring"`
	// Storage: session repository configuration
	Storage StorageConfig `mapstructure:"storage"`
	// Dataset: score log configuration
	Dataset DatasetConfig `mapstructure:"dataset"`
}

// LoggerConfig defines logging settings.
type LoggerConfig struct {
	// Level: debug, info, warn, warning, error (case-insensitive).
	Level string `mapstructure:"level"`
}

// ServerConfig contains HTTP server parameters.
type ServerConfig struct {
	// Address to listen on, e.g. ":8080".
	Address      string          `mapstructure:"address"`
	ReadTimeout  time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout time.Duration   `mapstructure:"write_timeout"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig is a per-client token bucket. Zero RequestsPerMinute disables limiting.
type RateLimitConfig struct {
	RequestsPerMinute float64 `mapstructure:"requests_per_minute"`
	Burst             int     `mapstructure:"burst"`
}

// ScoringConfig holds the scoring defaults.
type ScoringConfig struct {
	// DefaultTimezone is used when a request names no zone. Empty means UTC.
	DefaultTimezone string `mapstructure:"default_timezone"`
	// Rules is an optional path to a YAML file with session admission rules.
	Rules string `mapstructure:"rules"`
	// BatchConcurrency bounds parallel session fetches of a batch.
	BatchConcurrency int `mapstructure:"batch_concurrency"`
}

// StorageConfig selects and tunes the session repository.
type StorageConfig struct {
	// Driver is "memory" or "sqlite".
	Driver string `mapstructure:"driver"`
	// Path of the SQLite database file.
	Path string `mapstructure:"path"`
	// MaxSessions caps the sessions returned per fetch, 0 means unlimited.
	MaxSessions int `mapstructure:"max_sessions"`
	// SessionsLength is the per-user ring buffer size of the memory driver.
	SessionsLength int `mapstructure:"sessions_length"`
	// SessionsTtl evicts memory users idle for longer, e.g. "72h". 0 keeps them forever.
	SessionsTtl time.Duration `mapstructure:"sessions_ttl"`
}

// DatasetConfig defines the score log parameters
type DatasetConfig struct {
	// Score log file path (optional)
	File string `mapstructure:"file"`
	// Maximal file size in MB (default 100)
	Size int `mapstructure:"size"`
	// Number of rotated files (default 20)
	Amount int `mapstructure:"amount"`
}

// Validate checks the whole configuration and returns the first error found.
func (c *AppConfig) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}

	if err := c.Server.Validate(); err != nil {
		return err
	}

	if err := c.Scoring.Validate(); err != nil {
		return err
	}

	if err := c.Storage.Validate(); err != nil {
		return err
	}

	return c.Dataset.Validate()
}

// Validate checks that the log level is one of the supported values.
func (l *LoggerConfig) Validate() error {
	if l.Level == "" {
		return errors.New("logger.level: must be specified")
	}

	valid := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !valid[strings.ToLower(l.Level)] {
		return fmt.Errorf("logger.level: unsupported level '%s'", l.Level)
	}

	return nil
}

// Validate checks the server address, timeouts and rate limit.
func (s *ServerConfig) Validate() error {
	if s.Address == "" {
		return errors.New("server.address: must be specified")
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 {
		return errors.New("server: timeouts must not be negative")
	}
	if s.RateLimit.RequestsPerMinute < 0 {
		return errors.New("server.rate_limit.requests_per_minute: must not be negative")
	}
	if s.RateLimit.Burst < 0 {
		return errors.New("server.rate_limit.burst: must not be negative")
	}

	return nil
}

// Validate checks that the default zone resolves.
func (s *ScoringConfig) Validate() error {
	if _, err := score.LoadLocation(s.DefaultTimezone); err != nil {
		return fmt.Errorf("scoring.default_timezone: %w", err)
	}
	if s.BatchConcurrency < 0 {
		return errors.New("scoring.batch_concurrency: must not be negative")
	}

	return nil
}

// Validate checks the driver and its parameters.
func (s *StorageConfig) Validate() error {
	switch s.Driver {
	case StorageDriverMemory:
		if s.SessionsLength <= 0 {
			return errors.New("storage.sessions_length: must be positive")
		}
	case StorageDriverSQLite:
		if s.Path == "" {
			return errors.New("storage.path: must be specified for sqlite")
		}
	default:
		return fmt.Errorf("storage.driver: unsupported driver '%s'", s.Driver)
	}

	if s.MaxSessions < 0 {
		return errors.New("storage.max_sessions: must not be negative")
	}

	return nil
}

// Validate fills the dataset defaults.
func (d *DatasetConfig) Validate() error {
	if d.Amount == 0 {
		d.Amount = 20
	}

	if d.Size == 0 {
		d.Size = 100
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", "3s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.rate_limit.requests_per_minute", 0)
	v.SetDefault("server.rate_limit.burst", 0)
	v.SetDefault("scoring.default_timezone", "UTC")
	v.SetDefault("scoring.rules", "")
	v.SetDefault("scoring.batch_concurrency", 8)
	v.SetDefault("storage.driver", StorageDriverMemory)
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.max_sessions", 1000)
	v.SetDefault("storage.sessions_length", 512)
	v.SetDefault("storage.sessions_ttl", "0s")
	v.SetDefault("dataset.file", "")
	v.SetDefault("dataset.size", 100)
	v.SetDefault("dataset.amount", 20)
}

// LoadConfig loads configuration from a YAML file using Viper.
// Variables from a .env file in the working directory are exported first and, like the
// rest of the environment, override file values (CADENCE_ prefix, "." replaced by "_").
// An empty configPath loads only defaults and environment.
//
// Returns an error if the file is not readable, has invalid format, or a section fails
// validation.
func LoadConfig(configPath string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}
