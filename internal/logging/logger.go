// Package logging provides structured logging for the nx584 MQTT bridge,
// wrapping log/slog with JSON output and optional rotated file output.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/nx584bridge/nx584-mqtt-bridge/internal/config"
)

// Logger wraps slog.Logger with bridge-specific defaults.
//
// Thread Safety: all methods are safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New creates a Logger from cfg. When cfg.File is set, log lines are
// written to both stdout and a rotated file (10MB x 5 backups, no age
// limit or compression) via lumberjack.
func New(cfg config.LoggingConfig) *Logger {
	output := io.Writer(os.Stdout)
	if cfg.File != "" {
		output = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10,
			MaxBackups: 5,
		})
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})
	handler2 := handler.WithAttrs([]slog.Attr{
		slog.String("service", "nx584-mqtt-bridge"),
	})

	return &Logger{Logger: slog.New(handler2)}
}

// parseLevel converts the spec's LOG_LEVEL values (DEBUG/INFO/WARN/ERROR,
// case-insensitive) to slog.Level, defaulting to info if unrecognised.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a new Logger carrying additional default attributes,
// typically a "component" field scoping a sub-logger to one package.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default creates a bootstrap logger for use before config is parsed.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "INFO"})
}
