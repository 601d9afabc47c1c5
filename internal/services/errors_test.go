package services_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"testing"

	"podcaster/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "encoding", "transcode", "ffmpeg failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"encoding", "transcode", "ffmpeg failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected default detail, got %q", err.Error())
	}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o deadline" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

func TestIsRetriable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient marker", services.Wrap(services.ErrTransient, "ytdlp", "download", "", nil), true},
		{"timeout marker", services.Wrap(services.ErrTimeout, "telegram", "send", "", nil), true},
		{"net timeout", fmt.Errorf("post: %w", timeoutError{}), true},
		{"connection reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"rate limited", errors.New("telegram returned 429: Too Many Requests"), true},
		{"gateway", errors.New("unexpected status 502"), true},
		{"cancelled", fmt.Errorf("wrapped: %w", context.Canceled), false},
		{"validation", services.Wrap(services.ErrValidation, "ytdlp", "parse", "bad json", nil), false},
		{"plain", errors.New("age restricted"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.IsRetriable(tc.err); got != tc.want {
				t.Fatalf("IsRetriable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsTimeoutIsNarrowerThanRetriable(t *testing.T) {
	if services.IsTimeout(errors.New("connection reset by peer")) {
		t.Fatal("connection reset is not a timeout")
	}
	if !services.IsTimeout(fmt.Errorf("post: %w", timeoutError{})) {
		t.Fatal("expected net timeout to be a timeout")
	}
	if !services.IsTimeout(context.DeadlineExceeded) {
		t.Fatal("expected deadline exceeded to be a timeout")
	}
}

func TestIsServiceError(t *testing.T) {
	if !services.IsServiceError(fmt.Errorf("outer: %w", services.Wrap(services.ErrUnavailable, "ytdlp", "fetch", "private", nil))) {
		t.Fatal("wrapped marker not recognised")
	}
	if services.IsServiceError(errors.New("sync cache: disk full")) {
		t.Fatal("plain error reported as service error")
	}
}
