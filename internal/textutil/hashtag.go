package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Hashtag turns free-form text into a single caption hashtag: punctuation is
// dropped, each space-separated word is title-cased and the words are joined.
func Hashtag(text string) string {
	stripped := strings.Map(func(r rune) rune {
		if isWordRune(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, text)

	caser := cases.Title(language.Und)
	var b strings.Builder
	b.WriteByte('#')
	for _, word := range strings.Fields(stripped) {
		b.WriteString(caser.String(word))
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
