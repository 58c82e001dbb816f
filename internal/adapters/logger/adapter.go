// Package logger provides adapters for the logging interface.
package logger

import (
	"context"
	"maps"
)

// Logger defines the logging interface used throughout the application.
// External loggers that implement these methods can be wrapped with ZapAdapter.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]any)
	Debug(ctx context.Context, msg string, fields map[string]any)
	Warn(ctx context.Context, msg string, fields map[string]any)
	Error(ctx context.Context, msg string, err error, fields map[string]any)
}

// ZapAdapter adapts a Logger to the application's logging interface and
// stamps every entry with a fixed set of base fields.
type ZapAdapter struct {
	log  Logger
	base map[string]any
}

// NewZapAdapter creates a new ZapAdapter wrapping the given logger.
// base may be nil.
func NewZapAdapter(log Logger, base map[string]any) *ZapAdapter {
	return &ZapAdapter{log: log, base: maps.Clone(base)}
}

// With returns an adapter whose base fields also include fields.
// Call-site fields win over base fields with the same key.
func (a *ZapAdapter) With(fields map[string]any) *ZapAdapter {
	return &ZapAdapter{log: a.log, base: a.merge(fields)}
}

// Info logs an info message.
func (a *ZapAdapter) Info(ctx context.Context, msg string, fields map[string]any) {
	a.log.Info(ctx, msg, a.merge(fields))
}

// Debug logs a debug message.
func (a *ZapAdapter) Debug(ctx context.Context, msg string, fields map[string]any) {
	a.log.Debug(ctx, msg, a.merge(fields))
}

// Warn logs a warning message.
func (a *ZapAdapter) Warn(ctx context.Context, msg string, fields map[string]any) {
	a.log.Warn(ctx, msg, a.merge(fields))
}

// Error logs an error message.
func (a *ZapAdapter) Error(ctx context.Context, msg string, err error, fields map[string]any) {
	a.log.Error(ctx, msg, err, a.merge(fields))
}

// merge combines base and call-site fields without mutating either.
// Returns fields unchanged when there are no base fields.
func (a *ZapAdapter) merge(fields map[string]any) map[string]any {
	if len(a.base) == 0 {
		return fields
	}
	out := make(map[string]any, len(a.base)+len(fields))
	maps.Copy(out, a.base)
	maps.Copy(out, fields)
	return out
}
