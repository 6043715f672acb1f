// Package logging defines the structured-logging interface used across
// profilekeeper, with slog and zap implementations.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "profile fetched", "identity", id, "cached", true)
type Logger interface {
	// Debug logs diagnostic detail that is off by default.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// LevelSetter is implemented by loggers whose level can change at runtime.
type LevelSetter interface {
	SetLevel(level string) error
	Level() string
}

// ErrFixedLevel is returned by SetLevel on a logger wrapped around a
// caller-built handler or core.
var ErrFixedLevel = errors.New("log level is fixed by the handler")

// Backend names accepted by New.
const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// ParseLevel parses a level name the way zap does: debug, info, warn,
// error, dpanic, panic or fatal, in any case. Both backends use it.
func ParseLevel(level string) (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// New builds a Logger for the given backend ("slog" or "zap") writing JSON
// records at level to out. The result implements LevelSetter.
func New(backend, level string, out io.Writer) (Logger, error) {
	switch strings.ToLower(backend) {
	case "", BackendSlog:
		return NewSlogJSON(out, level)

	case BackendZap:
		lvl, err := ParseLevel(level)
		if err != nil {
			return nil, err
		}
		atom := zap.NewAtomicLevelAt(lvl)
		enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		core := zapcore.NewCore(enc, zapcore.AddSync(out), atom)
		return &ZapLogger{l: zap.New(core).Sugar(), level: &atom}, nil

	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
