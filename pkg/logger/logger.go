package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// Options tunes the process logger. Zero values fall back to the
// environment defaults picked by Init.
type Options struct {
	Env    string
	Level  string
	Format string
	Output io.Writer
}

func Init(env string) {
	InitWith(Options{Env: env})
}

// InitWith builds the process-wide logger and installs it as slog's default.
func InitWith(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	level := slog.LevelDebug
	format := "text"
	if opts.Env == "production" {
		level = slog.LevelInfo
		format = "json"
	}
	if opts.Level != "" {
		level = parseLevel(opts.Level)
	}
	if opts.Format != "" {
		format = opts.Format
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
	return defaultLogger
}

func LoggerWrapper() *slog.Logger {
	if defaultLogger == nil {
		// lazy initialize a development logger to avoid nil pointer panics
		Init("development")
	}
	return defaultLogger
}

// Discard returns a logger that drops everything; used by tests and dry runs.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
