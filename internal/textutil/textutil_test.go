package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestHashtag(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "words", in: "the dark side", want: "#TheDarkSide"},
		{name: "punctuation", in: "Rock 'n' Roll!", want: "#RockNRoll"},
		{name: "mixed case", in: "mIxEd CASE", want: "#MixedCase"},
		{name: "digits", in: "part1", want: "#Part1"},
		{name: "cyrillic", in: "привет мир", want: "#ПриветМир"},
		{name: "extra spaces", in: "  a   b ", want: "#AB"},
		{name: "empty", in: "", want: "#"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Hashtag(tt.in); got != tt.want {
				t.Fatalf("Hashtag(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSimplifyTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Episode #12: The Return", "episode 12 the return"},
		{"EPISODE 12 — the   return!", "episode 12 the return"},
		{"Ｆｕｌｌｗｉｄｔｈ", "fullwidth"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SimplifyTitle(tt.in); got != tt.want {
			t.Fatalf("SimplifyTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := map[string]string{
		"Some Channel":             "some_channel",
		"youtube.com/@show/videos": "youtube_com_show_videos",
		"My__Show!!":               "my_show",
		"  ":                       "unknown",
		"--":                       "unknown",
		"Ärger & Co":               "rger_co",
	}
	for in, want := range tests {
		if got := SanitizeToken(in); got != want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAudioFileName(t *testing.T) {
	if got := AudioFileName(" a/b:c? "); got != "a-b-c.mp3" {
		t.Fatalf("AudioFileName = %q", got)
	}
	if got := AudioFileName("line\nbreak\t"); got != "linebreak.mp3" {
		t.Fatalf("AudioFileName(control) = %q", got)
	}
	if got := AudioFileName(""); got != "audio.mp3" {
		t.Fatalf("AudioFileName(empty) = %q", got)
	}
	long := AudioFileName(strings.Repeat("é", 100))
	if len(long) > 124 || !utf8.ValidString(long) {
		t.Fatalf("long name not cut on a rune boundary: %d bytes", len(long))
	}
}
