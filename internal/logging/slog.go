package logging

import (
	"context"
	"io"
	"log/slog"

	"go.uber.org/zap/zapcore"
)

var (
	_ Logger      = (*SlogLogger)(nil)
	_ LevelSetter = (*SlogLogger)(nil)
)

// SlogLogger adapts *slog.Logger to Logger. Loggers built by NewSlogJSON
// share one level across With children, which SetLevel changes.
type SlogLogger struct {
	l     *slog.Logger
	level *slog.LevelVar
}

// NewSlogLogger wraps l. Its level is fixed by l's handler, and SetLevel
// returns ErrFixedLevel.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

// NewSlogJSON writes JSON records to out at the zap-style level name.
func NewSlogJSON(out io.Writer, level string) (*SlogLogger, error) {
	zl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	lv := new(slog.LevelVar)
	lv.Set(slogLevel(zl))
	h := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lv})
	return &SlogLogger{l: slog.New(h), level: lv}, nil
}

// slogLevel maps a zap level onto slog. slog has nothing above Error, so
// dpanic, panic and fatal log as errors.
func slogLevel(l zapcore.Level) slog.Level {
	switch {
	case l <= zapcore.DebugLevel:
		return slog.LevelDebug
	case l == zapcore.InfoLevel:
		return slog.LevelInfo
	case l == zapcore.WarnLevel:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.l.DebugContext(ctx, msg, args...)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.l.InfoContext(ctx, msg, args...)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.l.WarnContext(ctx, msg, args...)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.l.ErrorContext(ctx, msg, args...)
}

func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...), level: s.level}
}

// SetLevel changes the level of s and of every logger derived from it.
func (s *SlogLogger) SetLevel(level string) error {
	if s.level == nil {
		return ErrFixedLevel
	}
	zl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	s.level.Set(slogLevel(zl))
	return nil
}

// Level reports the current level name.
func (s *SlogLogger) Level() string {
	if s.level == nil {
		return "fixed"
	}
	switch l := s.level.Level(); {
	case l <= slog.LevelDebug:
		return zapcore.DebugLevel.String()
	case l <= slog.LevelInfo:
		return zapcore.InfoLevel.String()
	case l <= slog.LevelWarn:
		return zapcore.WarnLevel.String()
	default:
		return zapcore.ErrorLevel.String()
	}
}
