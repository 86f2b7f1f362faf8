package logging

import (
	"log/slog"
	"os"
)

// Logger bundles the root slog.Logger with its reloadable level. All
// diagnostics go to stderr; stdout carries rendered message lines only.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
}

// New creates and configures the root logger.
func New(level, format string) *Logger {
	lv := new(slog.LevelVar)
	lv.Set(ParseLevel(level))

	opts := &slog.HandlerOptions{
		Level: lv,
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		handler = NewConsoleHandler(os.Stderr, lv)
	}

	return &Logger{Logger: slog.New(handler), level: lv}
}

// SetLevel applies a new minimum level to the running logger. Serves the
// logging.level config reload.
func (l *Logger) SetLevel(level string) {
	l.level.Set(ParseLevel(level))
}

// Level returns the current minimum level.
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

// ParseLevel maps a config level string onto a slog level. Unknown
// strings fall back to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
