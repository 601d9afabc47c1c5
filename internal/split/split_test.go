package split

import (
	"context"
	"errors"
	"testing"
	"time"

	"podcaster/internal/logging"
)

const mb = 1_000_000

func TestPlanThreeParts(t *testing.T) {
	duration := 100*time.Minute + 7*time.Second
	parts, err := Plan(120*mb, 50*mb, duration)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}
	var sum time.Duration
	for i, p := range parts {
		if p.Index != i+1 || p.Total != 3 {
			t.Fatalf("part %d tagged (%d,%d)", i, p.Index, p.Total)
		}
		if p.Start != sum {
			t.Fatalf("part %d starts at %v, want %v", p.Index, p.Start, sum)
		}
		sum += p.Length
	}
	if sum != duration {
		t.Fatalf("durations sum to %v, want %v", sum, duration)
	}
}

func TestPlanFits(t *testing.T) {
	parts, err := Plan(50*mb, 50*mb, time.Minute)
	if err != nil || parts != nil {
		t.Fatalf("expected no split, got %v %v", parts, err)
	}
}

func TestPlanErrors(t *testing.T) {
	if _, err := Plan(10, 0, time.Minute); err == nil {
		t.Fatal("expected limit error")
	}
	if _, err := Plan(10, 5, 0); err == nil {
		t.Fatal("expected duration error")
	}
}

type fakeSlicer struct {
	calls []Part
	err   error
}

func (f *fakeSlicer) Slice(_ context.Context, audio []byte, start, length time.Duration) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, Part{Start: start, Length: length})
	return audio[:len(audio)/3], nil
}

func TestSplitterSlicesEachPart(t *testing.T) {
	slicer := &fakeSlicer{}
	s := New(slicer, 10, logging.NewNop())
	artifacts, err := s.Split(context.Background(), make([]byte, 25), 90*time.Second)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(artifacts) != 3 || len(slicer.calls) != 3 {
		t.Fatalf("artifacts=%d calls=%d", len(artifacts), len(slicer.calls))
	}
	for i, a := range artifacts {
		if a.Part == nil || a.Part.Index != i+1 || a.Part.Total != 3 {
			t.Fatalf("artifact %d part = %+v", i, a.Part)
		}
		if a.Part.Length != 30*time.Second {
			t.Fatalf("artifact %d length = %v", i, a.Part.Length)
		}
	}
}

func TestSplitterPassesThroughSmallAudio(t *testing.T) {
	slicer := &fakeSlicer{}
	s := New(slicer, 10, logging.NewNop())
	artifacts, err := s.Split(context.Background(), make([]byte, 10), time.Minute)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(artifacts) != 1 || artifacts[0].Part != nil || len(slicer.calls) != 0 {
		t.Fatalf("unexpected artifacts %+v", artifacts)
	}
}

func TestSplitterPropagatesSliceError(t *testing.T) {
	boom := errors.New("boom")
	s := New(&fakeSlicer{err: boom}, 10, logging.NewNop())
	if _, err := s.Split(context.Background(), make([]byte, 25), time.Minute); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
