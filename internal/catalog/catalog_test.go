package catalog

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNativeID(t *testing.T) {
	tests := []struct {
		url  string
		want string
		ok   bool
	}{
		{"https://www.youtube.com/watch?v=abc123&t=10", "abc123", true},
		{"https://youtube.com/shorts/xyz", "xyz", true},
		{"https://youtu.be/short1", "short1", true},
		{"https://www.youtube.com/playlist?list=PL1", "PL1", true},
		{"https://www.youtube.com/@chan/videos/", "videos", true},
		{"https://artist.bandcamp.com/track/song", "", false},
		{"https://example.com/a", "", false},
	}
	for _, tt := range tests {
		got, ok := NativeID(tt.url)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("NativeID(%q) = %q,%v want %q,%v", tt.url, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSourceOf(t *testing.T) {
	if SourceOf("https://m.youtube.com/watch?v=a") != SourceYouTube {
		t.Fatal("expected youtube")
	}
	if SourceOf("https://artist.bandcamp.com/album/x") != SourceBandcamp {
		t.Fatal("expected bandcamp")
	}
	if SourceOf("https://notyoutube.com/x") != SourceOther {
		t.Fatal("expected other")
	}
}

func TestNewItemNormalizes(t *testing.T) {
	uploaded := time.Date(2024, 3, 1, 12, 0, 0, 500, time.FixedZone("x", 3600))
	item := NewItem(Item{
		Meta:       Meta{URL: "u", Title: "Hello, World!", Available: true},
		UploadedAt: uploaded,
		Duration:   90*time.Second + 300*time.Millisecond,
	})
	if item.SimplifiedTitle != "hello world" {
		t.Fatalf("simplified = %q", item.SimplifiedTitle)
	}
	if item.UploadedAt.Location() != time.UTC || item.UploadedAt.Nanosecond() != 0 {
		t.Fatalf("uploaded = %v", item.UploadedAt)
	}
	if item.Duration != 90*time.Second {
		t.Fatalf("duration = %v", item.Duration)
	}
	if !item.Eligible() {
		t.Fatal("expected eligible")
	}
	if Unavailable("u").Eligible() {
		t.Fatal("unavailable item must not be eligible")
	}
}

func TestLivenessEligibility(t *testing.T) {
	for status, eligible := range map[string]bool{
		"not_live":    true,
		"was_live":    true,
		"post_live":   true,
		"is_live":     false,
		"is_upcoming": false,
		"":            true,
	} {
		if got := ParseLiveness(status).Eligible(); got != eligible {
			t.Fatalf("ParseLiveness(%q).Eligible() = %v", status, got)
		}
	}
}

func TestLazyCollectionRetriesFailedLoad(t *testing.T) {
	calls := 0
	c := NewLazyCollection(Meta{URL: "c", Available: true}, func(context.Context) ([]Node, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("flaky")
		}
		return []Node{Unavailable("a"), Unavailable("b")}, nil
	})
	if _, err := c.Children(context.Background()); err == nil {
		t.Fatal("expected first load to fail")
	}
	for range 2 {
		children, err := c.Children(context.Background())
		if err != nil || len(children) != 2 {
			t.Fatalf("children=%v err=%v", children, err)
		}
	}
	if calls != 2 {
		t.Fatalf("loader calls = %d", calls)
	}
}

func TestReversed(t *testing.T) {
	a, b, c := Unavailable("a"), Unavailable("b"), Unavailable("c")
	got := Reversed([]Node{a, b, c})
	if got[0] != Node(c) || got[2] != Node(a) {
		t.Fatalf("unexpected order %v", got)
	}
}
