package logging

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

const (
	FieldComponent  = "component"
	FieldRunID      = "run_id"
	FieldTask       = "task"
	FieldCollection = "collection"
	FieldItemURL    = "item_url"
	FieldEventType  = "event_type"
	FieldErrorHint  = "error_hint"
	FieldImpact     = "impact"
)

// Attribute helpers mirror the field types used across components.

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func Int64(key string, value int64) slog.Attr { return slog.Int64(key, value) }

func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

func Time(key string, value time.Time) slog.Attr { return slog.Time(key, value) }

func Any(key string, value any) slog.Attr { return slog.Any(key, value) }

// Error records err under the "error" key. A nil error yields an empty attr
// which handlers drop.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// NewComponentLogger returns a child logger tagged with the component name.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if strings.TrimSpace(component) == "" {
		return logger
	}
	return logger.With(String(FieldComponent, component))
}

// WarnWithContext logs a warning that always carries event_type, error_hint
// and impact so operators can triage it without reading code.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...any) {
	if logger == nil {
		return
	}
	logger.Warn(msg, withTriageFields(eventType, attrs)...)
}

// ErrorWithContext is the error-level counterpart of WarnWithContext.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...any) {
	if logger == nil {
		return
	}
	logger.Error(msg, withTriageFields(eventType, attrs)...)
}

func withTriageFields(eventType string, attrs []any) []any {
	hasHint, hasImpact := false, false
	for _, a := range attrs {
		attr, ok := a.(slog.Attr)
		if !ok {
			continue
		}
		switch attr.Key {
		case FieldErrorHint:
			hasHint = true
		case FieldImpact:
			hasImpact = true
		}
	}
	out := make([]any, 0, len(attrs)+3)
	if eventType = strings.TrimSpace(eventType); eventType == "" {
		eventType = "unspecified"
	}
	out = append(out, String(FieldEventType, eventType))
	out = append(out, attrs...)
	if !hasHint {
		out = append(out, String(FieldErrorHint, "see logs for details"))
	}
	if !hasImpact {
		out = append(out, String(FieldImpact, "unknown"))
	}
	return out
}

// NewNop returns a logger that discards every record.
func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NoopHandler drops all records.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h NoopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h NoopHandler) WithGroup(string) slog.Handler           { return h }
