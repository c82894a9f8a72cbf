// Package logging builds the process logger for artsel commands.
//
// Packages never log through the global logger: each constructor
// (client.New, controller.New, httpapi.New) takes the zerolog.Logger returned
// by Setup and adds its own component field.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel is a minimum level name as written in the config file.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level written; unknown names mean info
	Level LogLevel

	// Pretty switches from JSON lines to console output
	Pretty bool

	// Output receives the log (nil means os.Stderr)
	Output io.Writer
}

// DefaultConfig logs JSON at info level to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// Setup applies cfg to zerolog's global level and global logger and returns
// the logger for injection into artsel's components.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, NoColor: out != os.Stderr}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

// OpenFile opens path for appending, creating parent directories.
// The terminal browser logs here because stderr belongs to the screen.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Levels used across artsel:
//
// Debug: page fetched or loaded, superseded responses dropped, bulk progress
// per page, rate limit header updates.
//
// Info: bulk selection started or finished, server start and stop, selection
// backend opened.
//
// Warn: page reload or fetch failed, bulk selection stopped by an error,
// rate limit throttling, selection reconcile failed.
//
// Error: rate limit refusal, server failures.
//
// Common fields: component, page, rows, task_id, status_code, error_class,
// remaining, duration.
