// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio stream properties
//   - Format: container-level metadata (duration, size, bitrate)
//
// Inspect probes a file on disk; InspectBytes probes in-memory audio by
// piping it to ffprobe's stdin.
package ffprobe
