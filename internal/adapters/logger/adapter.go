// Package logger provides the zap-backed adapter for the application's
// logging interface.
package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the logging interface used throughout the application.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]any)
	Debug(ctx context.Context, msg string, fields map[string]any)
	Warn(ctx context.Context, msg string, fields map[string]any)
	Error(ctx context.Context, msg string, err error, fields map[string]any)
}

// ZapAdapter adapts a zap logger to the application's logging interface.
type ZapAdapter struct {
	log *zap.Logger
}

// NewZapAdapter creates a ZapAdapter wrapping the given zap logger.
func NewZapAdapter(log *zap.Logger) *ZapAdapter {
	return &ZapAdapter{log: log}
}

// New builds a production zap logger at the given level ("debug", "info",
// "warn", "error") and wraps it. Output goes to standard error so that
// hook subprocesses and dry-run output own standard out.
func New(level string) (*ZapAdapter, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	cfg.OutputPaths = []string{"stderr"}

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &ZapAdapter{log: log}, nil
}

// Info logs an info message.
func (a *ZapAdapter) Info(_ context.Context, msg string, fields map[string]any) {
	a.log.Info(msg, zapFields(fields)...)
}

// Debug logs a debug message.
func (a *ZapAdapter) Debug(_ context.Context, msg string, fields map[string]any) {
	a.log.Debug(msg, zapFields(fields)...)
}

// Warn logs a warning message.
func (a *ZapAdapter) Warn(_ context.Context, msg string, fields map[string]any) {
	a.log.Warn(msg, zapFields(fields)...)
}

// Error logs an error message.
func (a *ZapAdapter) Error(_ context.Context, msg string, err error, fields map[string]any) {
	zfields := zapFields(fields)
	if err != nil {
		zfields = append(zfields, zap.Error(err))
	}
	a.log.Error(msg, zfields...)
}

// Sync flushes any buffered log entries.
func (a *ZapAdapter) Sync() error {
	return a.log.Sync()
}

func zapFields(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	zfields := make([]zap.Field, 0, len(fields))
	for key, value := range fields {
		zfields = append(zfields, zap.Any(key, value))
	}
	return zfields
}
