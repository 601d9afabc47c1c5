package cache

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"
)

const (
	uploadedAtWidth = 6
	durationWidth   = 3
	maxDuration     = 1<<(8*durationWidth) - 1
)

// Entry is a single dedup record. A zero UploadedAt or Duration means the
// value is unknown and is stored as an empty field.
type Entry struct {
	Key        string
	UploadedAt time.Time
	Duration   time.Duration
}

func (e Entry) normalized() Entry {
	if !e.UploadedAt.IsZero() {
		e.UploadedAt = e.UploadedAt.UTC().Truncate(time.Second)
	}
	if e.Duration < 0 {
		e.Duration = 0
	}
	e.Duration = e.Duration.Truncate(time.Second)
	return e
}

func (e Entry) equal(other Entry) bool {
	return e.Key == other.Key && e.UploadedAt.Equal(other.UploadedAt) && e.Duration == other.Duration
}

// content is the identity used for deduplication across keys.
type content struct {
	uploadedAt int64
	duration   int64
}

// fingerprint returns the content identity. Entries without an upload time
// are never content-deduplicated.
func (e Entry) fingerprint() (content, bool) {
	if e.UploadedAt.IsZero() {
		return content{}, false
	}
	return content{uploadedAt: e.UploadedAt.Unix(), duration: int64(e.Duration / time.Second)}, true
}

// SameContent reports whether two entries describe the same upload. Keys are
// not compared.
func (e Entry) SameContent(other Entry) bool {
	a, okA := e.fingerprint()
	b, okB := other.fingerprint()
	if !okA || !okB {
		return false
	}
	return a == b
}

func (e Entry) fields() ([]string, error) {
	uploaded := ""
	if !e.UploadedAt.IsZero() {
		secs := e.UploadedAt.Unix()
		if secs < 0 || secs >= 1<<(8*uploadedAtWidth) {
			return nil, fmt.Errorf("uploaded_at %s out of range", e.UploadedAt)
		}
		uploaded = encodeUint(uint64(secs), uploadedAtWidth)
	}
	duration := ""
	if e.Duration > 0 {
		secs := int64(e.Duration / time.Second)
		if secs > maxDuration {
			return nil, fmt.Errorf("duration %s out of range", e.Duration)
		}
		duration = encodeUint(uint64(secs), durationWidth)
	}
	return []string{e.Key, uploaded, duration}, nil
}

func parseEntry(fields []string) (Entry, error) {
	if len(fields) != 3 {
		return Entry{}, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}
	if fields[0] == "" {
		return Entry{}, fmt.Errorf("empty key")
	}
	entry := Entry{Key: fields[0]}
	if fields[1] != "" {
		secs, err := decodeUint(fields[1], uploadedAtWidth)
		if err != nil {
			return Entry{}, fmt.Errorf("uploaded_at: %w", err)
		}
		entry.UploadedAt = time.Unix(int64(secs), 0).UTC()
	}
	if fields[2] != "" {
		secs, err := decodeUint(fields[2], durationWidth)
		if err != nil {
			return Entry{}, fmt.Errorf("duration: %w", err)
		}
		entry.Duration = time.Duration(secs) * time.Second
	}
	return entry, nil
}

func encodeUint(v uint64, width int) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return base64.StdEncoding.EncodeToString(buf[8-width:])
}

func decodeUint(s string, width int) (uint64, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return 0, err
	}
	if len(raw) != width {
		return 0, fmt.Errorf("expected %d bytes, got %d", width, len(raw))
	}
	var buf [8]byte
	copy(buf[8-width:], raw)
	return binary.BigEndian.Uint64(buf[:]), nil
}
