// Package logging provides structured logging with file and console output.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents logging levels
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Config holds logger configuration
type Config struct {
	LogDir  string   // Directory for log files; empty disables file output
	Level   LogLevel // Minimum log level (default: info)
	Console bool     // Also log to stderr (default: true)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Level:   LevelInfo,
		Console: true,
	}
}

// New creates a zerolog logger writing to stderr and, when configured, a
// date-based log file. Stdout is never written to: it is reserved for the
// structured JSON results the CLI commands emit.
func New(cfg *Config) (zerolog.Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var writers []io.Writer

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
			return zerolog.Nop(), fmt.Errorf("create log directory: %w", err)
		}
		logPath := filepath.Join(cfg.LogDir, fmt.Sprintf("egoavatar_%s.log", time.Now().Format("2006-01-02")))
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, file)
	}

	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
		})
	}

	if len(writers) == 0 {
		return zerolog.Nop(), nil
	}

	level := zerolog.InfoLevel
	switch cfg.Level {
	case LevelDebug:
		level = zerolog.DebugLevel
	case LevelWarn:
		level = zerolog.WarnLevel
	case LevelError:
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(io.MultiWriter(writers...)).With().
		Timestamp().
		Str("app", "egoavatar").
		Logger()

	return logger, nil
}
