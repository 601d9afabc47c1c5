package services

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
)

// IsRetriable reports whether err represents a transient condition that the
// retry scheduler should absorb: explicit transient/timeout markers, network
// timeouts, dropped connections, and rate limit or gateway responses.
// Cancellation of the caller's context is never retriable.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, ErrTimeout) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	message := strings.ToLower(err.Error())
	if strings.Contains(message, "429") || strings.Contains(message, "too many requests") {
		return true
	}
	for _, code := range []string{"502", "503", "504"} {
		if strings.Contains(message, code) {
			return true
		}
	}
	for _, token := range []string{
		"timeout",
		"timed out",
		"connection reset",
		"connection refused",
		"temporary failure",
		"incomplete read",
		"remote end closed",
	} {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}

// IsTimeout reports whether err is a timeout-class failure. The sink uses the
// narrower class: a rejected upload is not retried by resending the same
// request unless the failure was a timeout.
func IsTimeout(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "timeout") || strings.Contains(message, "timed out")
}
