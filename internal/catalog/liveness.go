package catalog

import "strings"

// Liveness describes the broadcast state of an item.
type Liveness int

const (
	Recorded Liveness = iota
	WasLive
	Live
	Upcoming
)

// Eligible reports whether the recording is complete.
func (l Liveness) Eligible() bool {
	return l == Recorded || l == WasLive
}

func (l Liveness) String() string {
	switch l {
	case WasLive:
		return "was_live"
	case Live:
		return "live"
	case Upcoming:
		return "upcoming"
	default:
		return "recorded"
	}
}

// ParseLiveness maps yt-dlp live_status values. Unknown or empty values are
// treated as recorded.
func ParseLiveness(status string) Liveness {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "is_live":
		return Live
	case "is_upcoming":
		return Upcoming
	case "was_live", "post_live":
		return WasLive
	default:
		return Recorded
	}
}
