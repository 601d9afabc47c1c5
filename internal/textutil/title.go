package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// SimplifyTitle reduces a title to a comparison form: compatibility-normalized,
// case-folded, punctuation replaced by spaces and whitespace collapsed.
func SimplifyTitle(title string) string {
	normalized := norm.NFKC.String(title)
	folded := folder.String(normalized)
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(mapped), " ")
}
