// Package metrics collects per-run upload counters and exports them in the
// Prometheus textfile format for node_exporter.
package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder owns a private registry so every run exports a clean snapshot.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	delivered *prometheus.CounterVec
	parts     *prometheus.CounterVec
	skipped   *prometheus.CounterVec
	failed    *prometheus.CounterVec
	retries   *prometheus.CounterVec
	bytes     *prometheus.CounterVec
	duration  *prometheus.GaugeVec
	lastRun   prometheus.Gauge
}

// New builds a Recorder with every collector registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "podcaster_items_delivered_total",
			Help: "Items fully delivered and cached",
		}, []string{"task"}),
		parts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "podcaster_parts_delivered_total",
			Help: "Messages accepted by the sink, one per split part",
		}, []string{"task"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "podcaster_items_skipped_total",
			Help: "Items skipped without delivery",
		}, []string{"task", "reason"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "podcaster_items_failed_total",
			Help: "Items abandoned after a non-retriable failure",
		}, []string{"task"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "podcaster_retries_total",
			Help: "Retried operations",
		}, []string{"operation"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "podcaster_bytes_delivered_total",
			Help: "Audio bytes accepted by the sink",
		}, []string{"task"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "podcaster_task_duration_seconds",
			Help: "Wall time of the last pass over a task",
		}, []string{"task"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "podcaster_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}
	r.registry.MustRegister(r.delivered, r.parts, r.skipped, r.failed, r.retries, r.bytes, r.duration, r.lastRun)
	return r
}

// Delivered counts a fully delivered item.
func (r *Recorder) Delivered(task string) {
	if r == nil {
		return
	}
	r.delivered.WithLabelValues(task).Inc()
}

// Part counts one accepted message of size bytes.
func (r *Recorder) Part(task string, size int64) {
	if r == nil {
		return
	}
	r.parts.WithLabelValues(task).Inc()
	if size > 0 {
		r.bytes.WithLabelValues(task).Add(float64(size))
	}
}

// Skipped counts an item passed over for reason.
func (r *Recorder) Skipped(task, reason string) {
	if r == nil {
		return
	}
	r.skipped.WithLabelValues(task, reason).Inc()
}

// Failed counts an item abandoned after an error.
func (r *Recorder) Failed(task string) {
	if r == nil {
		return
	}
	r.failed.WithLabelValues(task).Inc()
}

// Retry counts a retried operation. Its signature matches retry.WithRetryHook.
func (r *Recorder) Retry(operation string, _ error) {
	if r == nil {
		return
	}
	r.retries.WithLabelValues(retryLabel(operation)).Inc()
}

// TaskDuration records how long a task pass took.
func (r *Recorder) TaskDuration(task string, d time.Duration) {
	if r == nil {
		return
	}
	r.duration.WithLabelValues(task).Set(d.Seconds())
}

// Finished stamps the end of a run.
func (r *Recorder) Finished(at time.Time) {
	if r == nil {
		return
	}
	r.lastRun.Set(float64(at.Unix()))
}

// WriteTextfile atomically writes the registry to path. An empty path is a
// no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || strings.TrimSpace(path) == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// retryLabel keeps label cardinality bounded: operations are named
// "<kind> <detail>", only the kind is used.
func retryLabel(operation string) string {
	operation = strings.TrimSpace(operation)
	if i := strings.IndexByte(operation, ' '); i > 0 {
		operation = operation[:i]
	}
	if operation == "" {
		return "unknown"
	}
	return operation
}
