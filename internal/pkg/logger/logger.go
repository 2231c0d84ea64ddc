// Package logger configures the process-wide zerolog logger and carries
// request-scoped loggers through contexts.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey struct{}

// Config represents logger configuration
type Config struct {
	Level       string // debug, info, warn, error; empty means info
	Environment string // development gets console output, anything else JSON
	Service     string // stamped on every entry
	Output      io.Writer
}

// New builds a logger for cfg without touching the global one.
func New(cfg Config) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	lctx := zerolog.New(out).Level(level).With().Timestamp().Caller()
	if isDevelopment(cfg.Environment) {
		lctx = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}).
			Level(level).With().Timestamp().Caller()
	}
	if cfg.Service != "" {
		lctx = lctx.Str("service", cfg.Service)
	}
	return lctx.Logger(), nil
}

// Init replaces the global logger. An unknown level is an error.
func Init(cfg Config) error {
	zerolog.TimeFieldFormat = time.RFC3339
	l, err := New(cfg)
	if err != nil {
		return err
	}
	log.Logger = l
	return nil
}

func isDevelopment(env string) bool {
	return env == "development" || env == "dev"
}

// FromContext returns the request logger attached by the HTTP middleware,
// or the global logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(contextKey{}).(*zerolog.Logger); ok && l != nil {
		return l
	}
	return &log.Logger
}

// WithContext returns a context with the logger attached
func WithContext(ctx context.Context, l *zerolog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}
