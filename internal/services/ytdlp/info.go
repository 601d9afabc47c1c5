package ytdlp

import (
	"strings"
	"time"

	"podcaster/internal/catalog"
)

// info mirrors the subset of yt-dlp's JSON info dict podcaster reads.
type info struct {
	Type             string   `json:"_type"`
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	URL              string   `json:"url"`
	WebpageURL       string   `json:"webpage_url"`
	IEKey            string   `json:"ie_key"`
	Extractor        string   `json:"extractor_key"`
	Uploader         string   `json:"uploader"`
	Channel          string   `json:"channel"`
	Artist           string   `json:"artist"`
	Timestamp        *float64 `json:"timestamp"`
	ReleaseTimestamp *float64 `json:"release_timestamp"`
	UploadDate       string   `json:"upload_date"`
	Duration         *float64 `json:"duration"`
	LiveStatus       string   `json:"live_status"`
	Availability     string   `json:"availability"`
	Thumbnail        string   `json:"thumbnail"`
	Thumbnails       []struct {
		URL        string `json:"url"`
		Preference int    `json:"preference"`
		Width      int    `json:"width"`
	} `json:"thumbnails"`
	Entries []info `json:"entries"`
}

func (i info) pageURL() string {
	if i.WebpageURL != "" {
		return i.WebpageURL
	}
	return i.URL
}

func (i info) uploader() string {
	for _, v := range []string{i.Uploader, i.Channel, i.Artist} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func (i info) uploadedAt() time.Time {
	for _, ts := range []*float64{i.Timestamp, i.ReleaseTimestamp} {
		if ts != nil && *ts > 0 {
			return time.Unix(int64(*ts), 0).UTC()
		}
	}
	if i.UploadDate != "" {
		if t, err := time.Parse("20060102", i.UploadDate); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func (i info) duration() time.Duration {
	if i.Duration == nil || *i.Duration <= 0 {
		return 0
	}
	return time.Duration(*i.Duration * float64(time.Second))
}

func (i info) thumbnail() string {
	if i.Thumbnail != "" {
		return i.Thumbnail
	}
	best := ""
	bestPref := 0
	for _, t := range i.Thumbnails {
		if t.URL == "" {
			continue
		}
		if best == "" || t.Preference >= bestPref {
			best, bestPref = t.URL, t.Preference
		}
	}
	return best
}

// available reports whether the entry can be downloaded without credentials.
func (i info) available() bool {
	switch strings.ToLower(i.Availability) {
	case "private", "premium_only", "subscriber_only", "needs_auth":
		return false
	}
	switch strings.TrimSpace(i.Title) {
	case "[Private video]", "[Deleted video]":
		return false
	}
	return true
}

// isCollection reports whether a flat entry points at another listing.
func (i info) isCollection() bool {
	if i.Type == "playlist" || len(i.Entries) > 0 {
		return true
	}
	key := strings.ToLower(i.IEKey)
	for _, marker := range []string{"tab", "playlist", "album", "user", "channel"} {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}

func (i info) item() *catalog.Item {
	return catalog.NewItem(catalog.Item{
		Meta: catalog.Meta{
			URL:       i.pageURL(),
			Title:     i.Title,
			Available: i.available(),
		},
		Uploader:   i.uploader(),
		UploadedAt: i.uploadedAt(),
		Duration:   i.duration(),
		Liveness:   catalog.ParseLiveness(i.LiveStatus),
		Thumbnail:  i.thumbnail(),
	})
}
