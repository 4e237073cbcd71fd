package domain

import "strings"

// Stats describes what Deduplicate discarded.
type Stats struct {
	// Scanned is the number of lines found in the decoded text.
	Scanned int
	// Blank is the number of lines that were empty after trimming.
	Blank int
	// Duplicates is the number of non-blank lines already emitted earlier.
	Duplicates int
}

// Deduplicate decodes buf lossily, splits it into lines and keeps the first
// occurrence of every trimmed, non-empty line. It never fails and does not
// modify buf.
func Deduplicate(buf *Buffer) Outcome {
	outcome, _ := DeduplicateWithStats(buf)
	return outcome
}

// DeduplicateWithStats is Deduplicate plus counts of what was dropped.
func DeduplicateWithStats(buf *Buffer) (Outcome, Stats) {
	var stats Stats
	if buf == nil || buf.Len() == 0 {
		return NewOutcome(nil), stats
	}

	text := DecodeLossy(buf.Bytes())
	seen := make(map[string]struct{})
	lines := make([]string, 0, 64)

	// strings.Lines only breaks on '\n'; a preceding '\r' is whitespace and
	// goes away with the trim.
	for raw := range strings.Lines(text) {
		stats.Scanned++

		line := strings.TrimSpace(raw)
		if line == "" {
			stats.Blank++
			continue
		}
		if _, dup := seen[line]; dup {
			stats.Duplicates++
			continue
		}

		seen[line] = struct{}{}
		lines = append(lines, line)
	}

	return NewOutcome(lines), stats
}
