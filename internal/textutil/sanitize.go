package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxFileNameBytes keeps upload names well inside common filesystem limits.
const maxFileNameBytes = 120

var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// AudioFileName turns a display title into the file name an audio upload is
// sent under. Unsafe characters are replaced, control characters dropped and
// long titles cut on a rune boundary. Empty titles become "audio".
func AudioFileName(title string) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, fileNameReplacer.Replace(title))
	name = strings.TrimSpace(name)
	for len(name) > maxFileNameBytes {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "audio"
	}
	return name + ".mp3"
}

// SanitizeToken lowercases value into a name safe for cache files and task
// ids. ASCII letters, digits and hyphens are kept; every other run of
// characters becomes one underscore. Blank input yields "unknown".
func SanitizeToken(value string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.TrimSpace(value) {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "unknown"
	}
	return out
}
