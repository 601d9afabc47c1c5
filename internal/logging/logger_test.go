package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"podcaster/internal/services"
)

func newBufferLogger(t *testing.T, format string, level slog.Level) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(level)
	var handler slog.Handler
	if format == "json" {
		handler = newJSONHandler(&buf, lvl, false)
	} else {
		handler = newPrettyHandler(&buf, lvl, false)
	}
	return slog.New(handler), &buf
}

func TestConsoleHandlerFormatsHeaderAndFields(t *testing.T) {
	logger, buf := newBufferLogger(t, "console", slog.LevelInfo)
	logger = NewComponentLogger(logger, "upload")
	logger.Info("delivered item",
		String(FieldTask, "channel"),
		String(FieldCollection, "Uploads"),
		Int64("size_bytes", 2048),
		Bool("notified", true),
	)

	out := buf.String()
	if !strings.Contains(out, "INFO [upload] channel · Uploads – delivered item") {
		t.Fatalf("unexpected header: %q", out)
	}
	if !strings.Contains(out, "    - Size Bytes: 2.0 KiB") {
		t.Fatalf("expected humanized size, got %q", out)
	}
	if !strings.Contains(out, "    - Notified: yes") {
		t.Fatalf("expected bool label, got %q", out)
	}
	if strings.Contains(out, "Task:") {
		t.Fatalf("task should be folded into subject at info level: %q", out)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	logger, buf := newBufferLogger(t, "console", slog.LevelWarn)
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
	logger.Warn("shown")
	if !strings.Contains(buf.String(), "WARN – shown") {
		t.Fatalf("expected warning, got %q", buf.String())
	}
}

func TestJSONHandlerRenamesKeys(t *testing.T) {
	logger, buf := newBufferLogger(t, "json", slog.LevelInfo)
	logger.Info("hello", String("key", "value"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"ts", "level", "msg", "key"} {
		if _, ok := record[key]; !ok {
			t.Fatalf("missing %q in %v", key, record)
		}
	}
	if record["level"] != "info" {
		t.Fatalf("level = %v", record["level"])
	}
}

func TestWarnWithContextAddsTriageFields(t *testing.T) {
	logger, buf := newBufferLogger(t, "json", slog.LevelInfo)
	WarnWithContext(logger, "retrying", "retry_scheduled", Error(errors.New("boom")), String(FieldImpact, "item delayed"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[FieldEventType] != "retry_scheduled" {
		t.Fatalf("event_type = %v", record[FieldEventType])
	}
	if record[FieldErrorHint] == nil {
		t.Fatal("expected default error_hint")
	}
	if record[FieldImpact] != "item delayed" {
		t.Fatalf("impact = %v", record[FieldImpact])
	}
}

func TestWithContextAddsIdentifiers(t *testing.T) {
	logger, buf := newBufferLogger(t, "json", slog.LevelInfo)
	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithItemURL(ctx, "https://example.com/a")
	WithContext(ctx, logger).Info("x")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[FieldRunID] != "run-1" || record[FieldItemURL] != "https://example.com/a" {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "podcaster.log")
	logger, err := New(Options{Level: "debug", Format: "console", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("debug line", String("answer", "42"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "DEBUG – debug line") || !strings.Contains(string(data), "answer: 42") {
		t.Fatalf("unexpected log contents %q", data)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNopDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should not be enabled")
	}
}
