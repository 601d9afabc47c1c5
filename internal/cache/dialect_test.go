package cache

import (
	"reflect"
	"testing"
)

func TestDialectRoundTripsSpecialCharacters(t *testing.T) {
	dialects := []Dialect{
		DefaultDialect,
		{Delimiter: ';', Quote: '\'', Escape: '~'},
		{Delimiter: '\t', Quote: '|', Escape: '\\'},
	}
	records := [][]string{
		{"abc", "AAAAAAAA", "AAAA"},
		{"with,comma", "", ""},
		{`with "quote"`, "x", ""},
		{`back\slash;semi'~`, "", "y"},
		{"", "", ""},
	}
	for _, d := range dialects {
		for _, record := range records {
			line, err := d.encode(record)
			if err != nil {
				t.Fatalf("encode %v: %v", record, err)
			}
			got, err := d.decode(line)
			if err != nil {
				t.Fatalf("decode %q: %v", line, err)
			}
			if !reflect.DeepEqual(got, record) {
				t.Fatalf("dialect %q: round trip %v -> %q -> %v", d.Delimiter, record, line, got)
			}
		}
	}
}

func TestDialectDecodeErrors(t *testing.T) {
	for _, line := range []string{`"open`, `abc\`, `"a"b,c`} {
		if _, err := DefaultDialect.decode(line); err == nil {
			t.Fatalf("expected error for %q", line)
		}
	}
}

func TestDialectEncodeRejectsNewlines(t *testing.T) {
	if _, err := DefaultDialect.encode([]string{"a\nb"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect(";", "'", "\\")
	if err != nil {
		t.Fatalf("ParseDialect: %v", err)
	}
	if d.Delimiter != ';' || d.Quote != '\'' || d.Escape != '\\' {
		t.Fatalf("unexpected dialect %+v", d)
	}
	if _, err := ParseDialect(",", ",", "\\"); err == nil {
		t.Fatal("expected duplicate character error")
	}
	if _, err := ParseDialect(",,", "\"", "\\"); err == nil {
		t.Fatal("expected length error")
	}
}
