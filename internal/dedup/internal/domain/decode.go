package domain

import (
	"strings"
	"unicode/utf8"
)

// ReplacementMarker is written in place of each ill-formed byte sequence.
const ReplacementMarker = "\uFFFD"

// DecodeLossy converts p to a valid UTF-8 string. Each maximal ill-formed
// subsequence is replaced by a single ReplacementMarker, so a truncated
// multi-byte sequence costs one marker while stray continuation bytes cost
// one marker each.
func DecodeLossy(p []byte) string {
	if utf8.Valid(p) {
		return string(p)
	}

	var sb strings.Builder
	sb.Grow(len(p) + len(ReplacementMarker))

	for i := 0; i < len(p); {
		if p[i] < utf8.RuneSelf {
			sb.WriteByte(p[i])
			i++
			continue
		}

		r, size := utf8.DecodeRune(p[i:])
		if r == utf8.RuneError && size == 1 {
			sb.WriteString(ReplacementMarker)
			i += maximalSubpart(p[i:])
			continue
		}

		sb.Write(p[i : i+size])
		i += size
	}

	return sb.String()
}

// maximalSubpart returns the length of the longest prefix of p that could
// begin a well-formed UTF-8 sequence, and at least 1. The accepted ranges for
// the second byte follow Table 3-7 of the Unicode standard.
func maximalSubpart(p []byte) int {
	lo, hi := byte(0x80), byte(0xBF)

	var trailing int
	switch b := p[0]; {
	case b >= 0xC2 && b <= 0xDF:
		trailing = 1
	case b == 0xE0:
		trailing, lo = 2, 0xA0
	case b == 0xED:
		trailing, hi = 2, 0x9F
	case b >= 0xE1 && b <= 0xEF:
		trailing = 2
	case b == 0xF0:
		trailing, lo = 3, 0x90
	case b == 0xF4:
		trailing, hi = 3, 0x8F
	case b >= 0xF1 && b <= 0xF3:
		trailing = 3
	default:
		return 1
	}

	n := 1
	for n <= trailing && n < len(p) {
		if c := p[n]; c < lo || c > hi {
			break
		}
		lo, hi = 0x80, 0xBF
		n++
	}
	return n
}
