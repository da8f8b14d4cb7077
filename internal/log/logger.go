// Package log wraps log/slog with a component-scoped logger and the field
// names used across the service.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog.Logger that stamps every record with its component.
type Logger struct {
	*slog.Logger
	base      *slog.Logger
	component string
}

func newLogger(base *slog.Logger, component string) *Logger {
	return &Logger{Logger: base.With(FieldComponent, component), base: base, component: component}
}

type Config struct {
	Level     slog.Level
	Component string
	Format    string // "text" or "json"
	Output    io.Writer
}

// DefaultConfig is info-level text output to stdout.
func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo, Component: ComponentApp, Format: "text", Output: os.Stdout}
}

func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	component := cfg.Component
	if component == "" {
		component = ComponentApp
	}
	return newLogger(slog.New(handler), component)
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *Logger {
	return newLogger(slog.New(slog.NewTextHandler(io.Discard, nil)), ComponentApp)
}

// ParseLevel maps LOG_LEVEL values to slog levels. Unknown values mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func (l *Logger) With(args ...any) *Logger {
	return newLogger(l.base.With(args...), l.component)
}

// WithComponent returns a child logger for another component, keeping any
// attributes added with With.
func (l *Logger) WithComponent(component string) *Logger {
	return newLogger(l.base, component)
}

func (l *Logger) Component() string { return l.component }

// Event logs msg at level with the given field set.
func (l *Logger) Event(ctx context.Context, level slog.Level, msg string, fields Fields) {
	l.Logger.Log(ctx, level, msg, fields.Args()...)
}

// SetDefault installs logger as the process-wide slog default.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
