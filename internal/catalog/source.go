package catalog

import (
	"net/url"
	"path"
	"strings"
)

// Source identifies the site a URL belongs to.
type Source int

const (
	SourceOther Source = iota
	SourceYouTube
	SourceBandcamp
)

// SourceOf classifies rawURL by host.
func SourceOf(rawURL string) Source {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return SourceOther
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case host == "youtu.be" || host == "youtube.com" || strings.HasSuffix(host, ".youtube.com"):
		return SourceYouTube
	case host == "bandcamp.com" || strings.HasSuffix(host, ".bandcamp.com"):
		return SourceBandcamp
	default:
		return SourceOther
	}
}

// NativeID returns the stable identifier embedded in a YouTube URL: the v
// query parameter of watch URLs, otherwise the last path segment. Other
// sources have no native id.
func NativeID(rawURL string) (string, bool) {
	if SourceOf(rawURL) != SourceYouTube {
		return "", false
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	if v := u.Query().Get("v"); v != "" {
		return v, true
	}
	if list := u.Query().Get("list"); list != "" && strings.Trim(u.Path, "/") == "playlist" {
		return list, true
	}
	last := path.Base(strings.TrimRight(u.Path, "/"))
	if last == "" || last == "." || last == "/" {
		return "", false
	}
	return last, true
}
