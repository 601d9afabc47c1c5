package cache

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Dialect describes how records are delimited and quoted on disk.
type Dialect struct {
	Delimiter rune
	Quote     rune
	Escape    rune
}

// DefaultDialect is comma-delimited with double quotes and backslash escapes.
var DefaultDialect = Dialect{Delimiter: ',', Quote: '"', Escape: '\\'}

// ParseDialect builds a Dialect from single-character strings.
func ParseDialect(delimiter, quote, escape string) (Dialect, error) {
	d := Dialect{}
	for _, field := range []struct {
		name  string
		value string
		dst   *rune
	}{
		{"delimiter", delimiter, &d.Delimiter},
		{"quote", quote, &d.Quote},
		{"escape", escape, &d.Escape},
	} {
		if utf8.RuneCountInString(field.value) != 1 {
			return Dialect{}, fmt.Errorf("cache %s must be a single character", field.name)
		}
		r, _ := utf8.DecodeRuneInString(field.value)
		*field.dst = r
	}
	return d, d.validate()
}

func (d Dialect) validate() error {
	if d.Delimiter == d.Quote || d.Delimiter == d.Escape || d.Quote == d.Escape {
		return errors.New("cache delimiter, quote and escape must differ")
	}
	for _, r := range []rune{d.Delimiter, d.Quote, d.Escape} {
		if r == '\n' || r == '\r' {
			return errors.New("cache dialect characters must not be line breaks")
		}
	}
	return nil
}

// encode renders fields as a single line without the trailing newline.
// Fields containing a special character are quoted, and quote or escape
// characters inside them are escaped.
func (d Dialect) encode(fields []string) (string, error) {
	var b strings.Builder
	for i, field := range fields {
		if strings.ContainsAny(field, "\r\n") {
			return "", errors.New("field contains a line break")
		}
		if i > 0 {
			b.WriteRune(d.Delimiter)
		}
		if !d.needsQuote(field) {
			b.WriteString(field)
			continue
		}
		b.WriteRune(d.Quote)
		for _, r := range field {
			if r == d.Quote || r == d.Escape {
				b.WriteRune(d.Escape)
			}
			b.WriteRune(r)
		}
		b.WriteRune(d.Quote)
	}
	return b.String(), nil
}

func (d Dialect) needsQuote(field string) bool {
	for _, r := range field {
		if r == d.Delimiter || r == d.Quote || r == d.Escape || r == ' ' {
			return true
		}
	}
	return false
}

// decode splits one line into fields. Quoted fields may contain delimiters;
// the escape character makes the following character literal both inside and
// outside quotes. A quote that opens mid-field is literal.
func (d Dialect) decode(line string) ([]string, error) {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
		escaped  bool
		atStart  = true
		closed   bool
	)
	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
			atStart = false
		case r == d.Escape:
			escaped = true
		case inQuotes && r == d.Quote:
			inQuotes = false
			closed = true
		case inQuotes:
			current.WriteRune(r)
		case r == d.Delimiter:
			fields = append(fields, current.String())
			current.Reset()
			atStart = true
			closed = false
		case closed:
			return nil, fmt.Errorf("unexpected %q after closing quote", r)
		case r == d.Quote && atStart:
			inQuotes = true
			atStart = false
		default:
			current.WriteRune(r)
			atStart = false
		}
	}
	if escaped {
		return nil, errors.New("dangling escape character")
	}
	if inQuotes {
		return nil, errors.New("unterminated quoted field")
	}
	fields = append(fields, current.String())
	return fields, nil
}
