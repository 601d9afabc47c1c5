// Package split partitions audio that exceeds the sink's per-message limit
// into numbered, independently deliverable parts of equal duration.
package split

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"podcaster/internal/logging"
)

// Part is one slice of a split artifact. Index is 1-based.
type Part struct {
	Index  int
	Total  int
	Start  time.Duration
	Length time.Duration
}

// Artifact is a deliverable piece of audio. Part is nil when the audio was not
// split.
type Artifact struct {
	Data []byte
	Part *Part
}

// Slicer cuts a time range out of encoded audio.
type Slicer interface {
	Slice(ctx context.Context, audio []byte, start, length time.Duration) ([]byte, error)
}

// Plan returns the parts needed to bring size under limit, or nil when the
// artifact already fits. Part boundaries are computed from the total duration
// so the part lengths always sum to it.
func Plan(size, limit int64, duration time.Duration) ([]Part, error) {
	if limit <= 0 {
		return nil, errors.New("split limit must be positive")
	}
	if size <= limit {
		return nil, nil
	}
	if duration <= 0 {
		return nil, errors.New("cannot split audio of unknown duration")
	}
	total := int((size + limit - 1) / limit)
	parts := make([]Part, total)
	for i := range total {
		start := duration * time.Duration(i) / time.Duration(total)
		end := duration * time.Duration(i+1) / time.Duration(total)
		parts[i] = Part{Index: i + 1, Total: total, Start: start, Length: end - start}
	}
	return parts, nil
}

// Splitter turns oversized audio into artifacts via a Slicer.
type Splitter struct {
	slicer Slicer
	limit  int64
	logger *slog.Logger
}

// New constructs a Splitter enforcing limit bytes per artifact.
func New(slicer Slicer, limit int64, logger *slog.Logger) *Splitter {
	return &Splitter{
		slicer: slicer,
		limit:  limit,
		logger: logging.NewComponentLogger(logger, "split"),
	}
}

// Limit returns the per-artifact size limit in bytes.
func (s *Splitter) Limit() int64 { return s.limit }

// Split returns audio unchanged when it fits, otherwise one artifact per
// planned part. Parts are not split again even if one still exceeds the
// limit.
func (s *Splitter) Split(ctx context.Context, audio []byte, duration time.Duration) ([]Artifact, error) {
	parts, err := Plan(int64(len(audio)), s.limit, duration)
	if err != nil {
		return nil, err
	}
	if parts == nil {
		return []Artifact{{Data: audio}}, nil
	}

	s.logger.Info("splitting oversized audio",
		logging.Int64("size_bytes", int64(len(audio))),
		logging.Int64("limit_bytes", s.limit),
		logging.Int("parts", len(parts)),
	)
	artifacts := make([]Artifact, 0, len(parts))
	for i := range parts {
		part := parts[i]
		data, err := s.slicer.Slice(ctx, audio, part.Start, part.Length)
		if err != nil {
			return nil, fmt.Errorf("slice part %d/%d: %w", part.Index, part.Total, err)
		}
		if int64(len(data)) > s.limit {
			logging.WarnWithContext(s.logger, "split part still exceeds limit", "split_part_oversized",
				logging.Int("part", part.Index),
				logging.Int64("size_bytes", int64(len(data))),
				logging.String(logging.FieldErrorHint, "lower encoding.bitrate or size_limit_mib"),
				logging.String(logging.FieldImpact, "the sink may reject this part"),
			)
		}
		artifacts = append(artifacts, Artifact{Data: data, Part: &part})
	}
	return artifacts, nil
}
