package services

import "context"

type contextKey string

const (
	runIDKey      contextKey = "run_id"
	taskKey       contextKey = "task"
	collectionKey contextKey = "collection"
	itemURLKey    contextKey = "item_url"
)

// WithRunID annotates context with the identifier of the current run.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, runIDKey)
}

// WithTask annotates context with the task (root URL) being processed.
func WithTask(ctx context.Context, task string) context.Context {
	if task == "" {
		return ctx
	}
	return context.WithValue(ctx, taskKey, task)
}

// TaskFromContext returns the task name if present.
func TaskFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, taskKey)
}

// WithCollection annotates context with the enclosing collection title.
func WithCollection(ctx context.Context, title string) context.Context {
	if title == "" {
		return ctx
	}
	return context.WithValue(ctx, collectionKey, title)
}

// CollectionFromContext returns the enclosing collection title if present.
func CollectionFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, collectionKey)
}

// WithItemURL annotates context with the media item being processed.
func WithItemURL(ctx context.Context, url string) context.Context {
	if url == "" {
		return ctx
	}
	return context.WithValue(ctx, itemURLKey, url)
}

// ItemURLFromContext returns the media item URL if present.
func ItemURLFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, itemURLKey)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
