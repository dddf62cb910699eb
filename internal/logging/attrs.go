package logging

import (
	"context"
	"log/slog"
	"time"
)

// Shared structured field names. Using the constants keeps log output
// greppable across components.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldKind      = "kind"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
)

// String builds a string attribute.
func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Int builds an int attribute.
func Int(key string, value int) slog.Attr {
	return slog.Int(key, value)
}

// Int64 builds an int64 attribute.
func Int64(key string, value int64) slog.Attr {
	return slog.Int64(key, value)
}

// Float64 builds a float64 attribute.
func Float64(key string, value float64) slog.Attr {
	return slog.Float64(key, value)
}

// Bool builds a bool attribute.
func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

// Duration builds a duration attribute.
func Duration(key string, value time.Duration) slog.Attr {
	return slog.Duration(key, value)
}

// Error builds the conventional error attribute. A nil error renders as
// an empty string rather than "<nil>".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// WithComponent returns a logger scoped to a component name.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// NewNop returns a logger that discards everything. Useful default for
// tests and optional dependencies.
func NewNop() *slog.Logger {
	return slog.New(nopHandler{})
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }
