// Package config loads artsel configuration from a YAML file and ARTSEL_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ARTSEL_API_BASE_URL.
const EnvPrefix = "ARTSEL"

// Backend names a selection store implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
	BackendBolt   Backend = "bolt"
)

// Config holds all application configuration
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Pagination PaginationConfig `mapstructure:"pagination"`
	Selection  SelectionConfig  `mapstructure:"selection"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Server     ServerConfig     `mapstructure:"server"`

	// File is the config file that was read, empty when none was found
	File string `mapstructure:"-"`
}

// APIConfig holds collection API configuration
type APIConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Collection    string        `mapstructure:"collection"`
	UserAgent     string        `mapstructure:"user_agent"`
	Timeout       time.Duration `mapstructure:"timeout"`
	ThrottleDelay time.Duration `mapstructure:"throttle_delay"`
	MaxWait       time.Duration `mapstructure:"max_wait"`
}

// PaginationConfig holds the initial view position and bulk settings
type PaginationConfig struct {
	Rows        int           `mapstructure:"rows"`
	Page        int           `mapstructure:"page"`
	PageTimeout time.Duration `mapstructure:"page_timeout"`
}

// SelectionConfig holds selection store configuration
type SelectionConfig struct {
	Backend   Backend `mapstructure:"backend"`
	RedisAddr string  `mapstructure:"redis_addr"`
	RedisDB   int     `mapstructure:"redis_db"`
	RedisKey  string  `mapstructure:"redis_key"`
	BoltPath  string  `mapstructure:"bolt_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
	File   string `mapstructure:"file"` // used by the terminal browser
}

// ServerConfig holds HTTP API configuration
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:       "https://api.artic.edu/api/v1",
			Collection:    "artworks",
			UserAgent:     "artsel/0.1.0",
			Timeout:       15 * time.Second,
			ThrottleDelay: time.Second,
			MaxWait:       30 * time.Second,
		},
		Pagination: PaginationConfig{
			Rows:        12,
			Page:        1,
			PageTimeout: 15 * time.Second,
		},
		Selection: SelectionConfig{
			Backend:   BackendMemory,
			RedisAddr: "localhost:6379",
			RedisKey:  "artsel:selection",
			BoltPath:  filepath.Join(dataDir(), "selection.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(dataDir(), "artsel.log"),
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// dataDir returns the per-user data directory for the current OS
func dataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "artsel")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "artsel")
	}
}

// configDir returns the default config directory for the current OS
func configDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "artsel")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "artsel")
	}
}

// SearchPaths lists the config files tried when no path is given, in order.
func SearchPaths() []string {
	return []string{
		"artsel.yaml",
		filepath.Join(configDir(), "config.yaml"),
	}
}

// Load reads configuration from path (or the first existing SearchPaths
// entry when path is empty) and applies environment overrides.
// A missing default file is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file := path
	if file == "" {
		for _, candidate := range SearchPaths() {
			if _, err := os.Stat(candidate); err == nil {
				file = candidate
				break
			}
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.File = file

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides reach Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.collection", d.API.Collection)
	v.SetDefault("api.user_agent", d.API.UserAgent)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("api.throttle_delay", d.API.ThrottleDelay)
	v.SetDefault("api.max_wait", d.API.MaxWait)

	v.SetDefault("pagination.rows", d.Pagination.Rows)
	v.SetDefault("pagination.page", d.Pagination.Page)
	v.SetDefault("pagination.page_timeout", d.Pagination.PageTimeout)

	v.SetDefault("selection.backend", string(d.Selection.Backend))
	v.SetDefault("selection.redis_addr", d.Selection.RedisAddr)
	v.SetDefault("selection.redis_db", d.Selection.RedisDB)
	v.SetDefault("selection.redis_key", d.Selection.RedisKey)
	v.SetDefault("selection.bolt_path", d.Selection.BoltPath)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.pretty", d.Logging.Pretty)
	v.SetDefault("logging.file", d.Logging.File)

	v.SetDefault("server.addr", d.Server.Addr)
}

// Validate checks values that would otherwise fail deep inside a component.
func (c *Config) Validate() error {
	var errs []error

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	if c.API.UserAgent == "" {
		errs = append(errs, errors.New("api.user_agent is required"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be > 0 (got %s)", c.API.Timeout))
	}
	if c.Pagination.Rows < 1 {
		errs = append(errs, fmt.Errorf("pagination.rows must be >= 1 (got %d)", c.Pagination.Rows))
	}
	if c.Pagination.Page < 1 {
		errs = append(errs, fmt.Errorf("pagination.page must be >= 1 (got %d)", c.Pagination.Page))
	}

	switch c.Selection.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Selection.RedisAddr == "" {
			errs = append(errs, errors.New("selection.redis_addr is required for the redis backend"))
		}
	case BackendBolt:
		if c.Selection.BoltPath == "" {
			errs = append(errs, errors.New("selection.bolt_path is required for the bolt backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("selection.backend %q is not one of memory, redis, bolt", c.Selection.Backend))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
