package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"podcaster/internal/textutil"
)

// maxCaptionRunes is the Bot API limit for media captions.
const maxCaptionRunes = 1024

// Tags describe a delivered track. Part is 1-based and zero when the audio
// was not split.
type Tags struct {
	Artist string
	Album  string
	Title  string
	Date   time.Time
	Cover  []byte
	Part   int
}

// WithPart returns a copy tagged as part n.
func (t Tags) WithPart(n int) Tags {
	t.Part = n
	return t
}

// TitleWithPart appends " - N" for split parts.
func (t Tags) TitleWithPart() string {
	if t.Part <= 0 {
		return t.Title
	}
	return t.Title + " - " + strconv.Itoa(t.Part)
}

// Caption renders the hashtag caption: artist, album, title, release time
// and, for split audio, the part number.
func (t Tags) Caption() string {
	date := t.Date.UTC()
	lines := []string{
		textutil.Hashtag(t.Artist),
		textutil.Hashtag(t.Album),
		textutil.Hashtag(t.Title),
		textutil.Hashtag(fmt.Sprintf("Released_%d_%d_%d", date.Year(), int(date.Month()), date.Day())) +
			fmt.Sprintf(" %02d:%02d:%02d", date.Hour(), date.Minute(), date.Second()),
	}
	if t.Part > 0 {
		lines = append(lines, textutil.Hashtag("part"+strconv.Itoa(t.Part)))
	}
	return truncateRunes(strings.Join(lines, "\n"), maxCaptionRunes)
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
