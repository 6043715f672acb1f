package logging

import (
	"context"

	"go.uber.org/zap"
)

var (
	_ Logger      = (*ZapLogger)(nil)
	_ LevelSetter = (*ZapLogger)(nil)
)

// ZapLogger adapts *zap.Logger to Logger. Key-value args are passed through
// zap's SugaredLogger so both backends accept the same call sites.
type ZapLogger struct {
	l     *zap.SugaredLogger
	level *zap.AtomicLevel
}

// NewZapLogger wraps l. Its level is fixed by l's core, and SetLevel
// returns ErrFixedLevel.
func NewZapLogger(l *zap.Logger) *ZapLogger {
	return &ZapLogger{l: l.Sugar()}
}

func (z *ZapLogger) Debug(ctx context.Context, msg string, args ...any) {
	z.l.Debugw(msg, args...)
}

func (z *ZapLogger) Info(ctx context.Context, msg string, args ...any) {
	z.l.Infow(msg, args...)
}

func (z *ZapLogger) Warn(ctx context.Context, msg string, args ...any) {
	z.l.Warnw(msg, args...)
}

func (z *ZapLogger) Error(ctx context.Context, msg string, args ...any) {
	z.l.Errorw(msg, args...)
}

func (z *ZapLogger) With(args ...any) Logger {
	return &ZapLogger{l: z.l.With(args...), level: z.level}
}

// SetLevel changes the level of z and of every logger derived from it.
func (z *ZapLogger) SetLevel(level string) error {
	if z.level == nil {
		return ErrFixedLevel
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	z.level.SetLevel(lvl)
	return nil
}

// Level reports the current level name.
func (z *ZapLogger) Level() string {
	if z.level == nil {
		return "fixed"
	}
	return z.level.Level().String()
}

// Sync flushes buffered entries.
func (z *ZapLogger) Sync() error {
	return z.l.Sync()
}
