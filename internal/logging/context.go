package logging

import (
	"context"
	"log/slog"

	"podcaster/internal/services"
)

// ContextFields extracts the run, task, collection and item identifiers
// stored on ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	attrs := make([]slog.Attr, 0, 4)
	if v, ok := services.RunIDFromContext(ctx); ok {
		attrs = append(attrs, String(FieldRunID, v))
	}
	if v, ok := services.TaskFromContext(ctx); ok {
		attrs = append(attrs, String(FieldTask, v))
	}
	if v, ok := services.CollectionFromContext(ctx); ok {
		attrs = append(attrs, String(FieldCollection, v))
	}
	if v, ok := services.ItemURLFromContext(ctx); ok {
		attrs = append(attrs, String(FieldItemURL, v))
	}
	return attrs
}

// WithContext returns a logger enriched with the identifiers found on ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, len(fields))
	for i, attr := range fields {
		args[i] = attr
	}
	return logger.With(args...)
}
