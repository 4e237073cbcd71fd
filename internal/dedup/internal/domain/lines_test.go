package domain

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func bufferOf(t *testing.T, s string) *Buffer {
	t.Helper()
	buf := NewBuffer(DefaultSizeLimit)
	if err := buf.Append([]byte(s)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	return buf
}

func TestDeduplicate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "order preserved",
			input: "line1\nline2\nline1\nline3",
			want:  []string{"line1", "line2", "line3"},
		},
		{
			name:  "empty lines filtered",
			input: "line1\n\nline2\n\nline1\nline3",
			want:  []string{"line1", "line2", "line3"},
		},
		{
			name:  "whitespace trimmed",
			input: "  line1  \nline2\n  line1\nline3  ",
			want:  []string{"line1", "line2", "line3"},
		},
		{
			name:  "whitespace only",
			input: "   \n  \t  ",
			want:  []string{},
		},
		{
			name:  "special characters",
			input: "line1\nline2\nline1\nline3\n!@#$%^&*()",
			want:  []string{"line1", "line2", "line3", "!@#$%^&*()"},
		},
		{
			name:  "crlf terminators",
			input: "alpha\r\nbeta\r\nalpha\r\n",
			want:  []string{"alpha", "beta"},
		},
		{
			name:  "trailing newline adds no line",
			input: "a\nb\n",
			want:  []string{"a", "b"},
		},
		{
			name:  "case sensitive",
			input: "Line\nline\nLINE\nline",
			want:  []string{"Line", "line", "LINE"},
		},
		{
			name:  "inner whitespace kept",
			input: "a  b\na b\n a  b ",
			want:  []string{"a  b", "a b"},
		},
		{
			name:  "unicode whitespace trimmed",
			input: " word　\nword",
			want:  []string{"word"},
		},
		{
			name:  "lone carriage return is not a terminator",
			input: "a\rb\na\rb",
			want:  []string{"a\rb"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Deduplicate(bufferOf(t, tt.input))
			if !reflect.DeepEqual(got.Lines, tt.want) {
				t.Errorf("Lines = %q, want %q", got.Lines, tt.want)
			}
			if got.Count != len(tt.want) {
				t.Errorf("Count = %d, want %d", got.Count, len(tt.want))
			}
		})
	}
}

func TestDeduplicate_NilAndEmpty(t *testing.T) {
	for _, buf := range []*Buffer{nil, NewBuffer(DefaultSizeLimit)} {
		got := Deduplicate(buf)
		if got.Lines == nil {
			t.Error("Lines = nil, want empty slice")
		}
		if got.Count != 0 {
			t.Errorf("Count = %d, want 0", got.Count)
		}
	}
}

func TestDeduplicate_Idempotent(t *testing.T) {
	buf := bufferOf(t, "b\na\n\nb\n  c\t\na\n\xff")

	first := Deduplicate(buf)
	second := Deduplicate(buf)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("second run = %+v, first run = %+v", second, first)
	}
	if first.Text() != second.Text() {
		t.Errorf("Text() differs between runs")
	}
}

func TestDeduplicate_InvalidByte(t *testing.T) {
	src := source("line1\nline2\n", "line1\nbad\xff\n")

	buf, err := Ingest(context.Background(), src, DefaultSizeLimit)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	got := Deduplicate(buf)
	want := []string{"line1", "line2", "bad" + ReplacementMarker}
	if !reflect.DeepEqual(got.Lines, want) {
		t.Errorf("Lines = %q, want %q", got.Lines, want)
	}
}

func TestDeduplicateWithStats(t *testing.T) {
	out, stats := DeduplicateWithStats(bufferOf(t, "a\n\nb\na\n  \nb\nc"))

	if out.Count != 3 {
		t.Errorf("Count = %d, want 3", out.Count)
	}
	want := Stats{Scanned: 7, Blank: 2, Duplicates: 2}
	if stats != want {
		t.Errorf("Stats = %+v, want %+v", stats, want)
	}
}

func TestOutcome_Text(t *testing.T) {
	tests := []struct {
		lines []string
		want  string
	}{
		{nil, ""},
		{[]string{"one"}, "one"},
		{[]string{"line1", "line2", "line3"}, "line1\nline2\nline3"},
	}

	for _, tt := range tests {
		got := NewOutcome(tt.lines).Text()
		if got != tt.want {
			t.Errorf("Text() = %q, want %q", got, tt.want)
		}
		if strings.HasSuffix(got, "\n") {
			t.Errorf("Text() = %q has a trailing separator", got)
		}
	}
}

func TestDecodeLossy_MarkerCount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		markers int
	}{
		{"valid ascii", "abc", "abc", 0},
		{"valid multibyte", "héllo €", "héllo €", 0},
		{"literal replacement char", "a�b", "a�b", 1},
		{"single 0xFF", "ok\xff", "ok�", 1},
		{"two invalid bytes", "\xff\xfe", "��", 2},
		{"stray continuation bytes", "\x80\x80\x80", "���", 3},
		{"truncated 3-byte sequence", "a\xe2\x82b", "a�b", 1},
		{"truncated 4-byte sequence", "\xf0\x9f\x98", "�", 1},
		{"truncated 4-byte then ascii", "\xf0\x9f\x98A", "�A", 1},
		{"surrogate encoding", "\xed\xa0\x80", "���", 3},
		{"overlong 2-byte", "\xc0\xaf", "��", 2},
		{"overlong 3-byte", "\xe0\x80\xaf", "���", 3},
		{"above U+10FFFF", "\xf4\x90\x80\x80", "����", 4},
		{"lead byte at end", "x\xc3", "x�", 1},
		{"two truncated sequences", "\xe2\x82\xe2\x82", "��", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeLossy([]byte(tt.input))
			if got != tt.want {
				t.Errorf("DecodeLossy(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if n := strings.Count(got, ReplacementMarker); n != tt.markers {
				t.Errorf("DecodeLossy(%q) has %d markers, want %d", tt.input, n, tt.markers)
			}
		})
	}
}
