package domain

import (
	"errors"
	"strings"
)

// Outcome is the result of a successful deduplication run.
type Outcome struct {
	// Lines holds unique trimmed lines in first-occurrence order.
	Lines []string `json:"lines"`
	// Count is always len(Lines).
	Count int `json:"count"`
}

// NewOutcome builds an Outcome whose Count matches lines. A nil slice is
// normalized to an empty one.
func NewOutcome(lines []string) Outcome {
	if lines == nil {
		lines = []string{}
	}
	return Outcome{Lines: lines, Count: len(lines)}
}

// Text joins the lines with a single newline and no trailing separator.
func (o Outcome) Text() string {
	return strings.Join(o.Lines, "\n")
}

// Result is an Outcome annotated with request-level details.
type Result struct {
	Outcome

	// BytesIngested is the size of the accepted payload.
	BytesIngested int `json:"bytes_ingested"`

	// Fingerprint identifies the cleaned text; empty when no lines remain.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Repeat reports that identical cleaned text was produced within the
	// repeat window. Approximate and informational only.
	Repeat bool `json:"repeat"`
}

// State is the terminal state of one ingestion run.
type State string

// Terminal states.
const (
	StateAccepted      State = "accepted"
	StateTooLarge      State = "rejected_too_large"
	StateReadFailure   State = "rejected_read_failure"
	StateInvalidConfig State = "rejected_invalid_config"
)

// StateOf maps the error returned by Ingest to a terminal state.
func StateOf(err error) State {
	switch {
	case err == nil:
		return StateAccepted
	case errors.Is(err, ErrTooLarge):
		return StateTooLarge
	case errors.Is(err, ErrInvalidLimit):
		return StateInvalidConfig
	default:
		return StateReadFailure
	}
}
