// Package logging provides the structured logging facade used across the
// library, backed by rs/zerolog. Output is human-readable console format by
// default and JSON when LOG_FORMAT=json or LOG_JSON is set.
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the logging interface components hold and accept.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, fields map[string]interface{})
}

// Option configures a Logger. Options can also be applied to an existing
// logger by calling them directly.
type Option func(Logger)

// WithLevel sets the minimum level: "debug", "info", "warn" or "error".
func WithLevel(level string) Option {
	return func(l Logger) {
		if zl, ok := l.(*ZerologLogger); ok {
			zl.logger = zl.logger.Level(parseLevel(level))
		}
	}
}

var jsonEnabled bool

// SetZeroLogJsonEnabled forces JSON output for loggers created afterwards,
// overriding the LOG_FORMAT and LOG_JSON environment variables.
func SetZeroLogJsonEnabled() {
	jsonEnabled = true
}

// ZerologLogger implements Logger on top of rs/zerolog.
type ZerologLogger struct {
	logger zerolog.Logger
}

// New creates a logger. The level defaults to info and can be overridden
// with the LOG_LEVEL environment variable or the WithLevel option.
func New(options ...Option) Logger {
	var zl zerolog.Logger
	if jsonOutput() {
		zl = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		zl = zerolog.New(writer).With().Timestamp().Logger()
	}
	zl = zl.Level(parseLevel(os.Getenv("LOG_LEVEL")))

	logger := &ZerologLogger{logger: zl}
	for _, option := range options {
		option(logger)
	}
	return logger
}

func jsonOutput() bool {
	if jsonEnabled {
		return true
	}
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		return true
	}
	switch strings.ToLower(os.Getenv("LOG_JSON")) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Debug logs a message at debug level
func (l *ZerologLogger) Debug(ctx context.Context, msg string, fields map[string]interface{}) {
	l.logger.Debug().Ctx(ctx).Fields(fields).Msg(msg)
}

// Info logs a message at info level
func (l *ZerologLogger) Info(ctx context.Context, msg string, fields map[string]interface{}) {
	l.logger.Info().Ctx(ctx).Fields(fields).Msg(msg)
}

// Warn logs a message at warn level
func (l *ZerologLogger) Warn(ctx context.Context, msg string, fields map[string]interface{}) {
	l.logger.Warn().Ctx(ctx).Fields(fields).Msg(msg)
}

// Error logs a message at error level
func (l *ZerologLogger) Error(ctx context.Context, msg string, fields map[string]interface{}) {
	l.logger.Error().Ctx(ctx).Fields(fields).Msg(msg)
}
