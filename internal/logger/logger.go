// Package logger provides leveled logging for the sync pipeline.
// It is backed by zerolog. Debug messages only appear in verbose mode
// (the --verbose flag) or when the level is set to debug.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	format            = "json"
	level             = zerolog.InfoLevel
	log               = build()
)

func build() zerolog.Logger {
	w := output
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}
	lvl := level
	if verbose && lvl > zerolog.DebugLevel {
		lvl = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Init sets the level ("debug", "info", "warn", "error") and the
// format ("json" or "console").
func Init(lvl, f string) error {
	mu.Lock()
	defer mu.Unlock()

	if lvl != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(lvl))
		if err != nil {
			return fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}
	switch f {
	case "", "json":
		format = "json"
	case "console":
		format = "console"
	default:
		return fmt.Errorf("unknown log format %q", f)
	}
	log = build()
	return nil
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	log = build()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	log = build()
}

// Get returns the underlying logger for structured fields.
func Get() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := log
	return &l
}

// Debug logs a message at debug level.
func Debug(msg string, args ...any) {
	Get().Debug().Msgf(msg, args...)
}

// Section logs a section header at debug level.
func Section(name string) {
	Get().Debug().Str("section", name).Msg("=== " + name + " ===")
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	Get().Info().Msgf(msg, args...)
}

// Warn logs a warning.
func Warn(msg string, args ...any) {
	Get().Warn().Msgf(msg, args...)
}

// Error logs err with a message.
func Error(err error, msg string, args ...any) {
	Get().Error().Err(err).Msgf(msg, args...)
}

// Fatal logs err and exits the process.
func Fatal(err error, msg string, args ...any) {
	Get().Fatal().Err(err).Msgf(msg, args...)
}
