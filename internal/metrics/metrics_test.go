package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.Delivered("news")
	r.Part("news", 1024)
	r.Part("news", 2048)
	r.Skipped("news", "ineligible")
	r.Failed("music")
	r.Retry("download https://example.com/a", nil)
	r.Retry("download https://example.com/b", nil)
	r.TaskDuration("news", 1500*time.Millisecond)
	r.Finished(time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "podcaster.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`podcaster_items_delivered_total{task="news"} 1`,
		`podcaster_parts_delivered_total{task="news"} 2`,
		`podcaster_bytes_delivered_total{task="news"} 3072`,
		`podcaster_items_skipped_total{reason="ineligible",task="news"} 1`,
		`podcaster_items_failed_total{task="music"} 1`,
		`podcaster_retries_total{operation="download"} 2`,
		`podcaster_task_duration_seconds{task="news"} 1.5`,
		`podcaster_last_run_timestamp_seconds 1.7e+09`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("textfile missing %q\n%s", want, text)
		}
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.Delivered("x")
	r.Part("x", 1)
	r.Retry("op", nil)
	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "m.prom")); err != nil {
		t.Fatalf("nil WriteTextfile: %v", err)
	}
}

func TestEmptyPathSkipsWrite(t *testing.T) {
	if err := New().WriteTextfile(" "); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
}
