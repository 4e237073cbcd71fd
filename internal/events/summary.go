// Package events defines the run summary published after every
// deduplication request and how it maps onto NATS subjects.
package events

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SebastienMelki/linededup/internal/dedup"
)

// Request sources.
const (
	SourceUpload = "upload"
	SourceAPI    = "api"
)

// SubjectPrefix is the root of every run summary subject.
const SubjectPrefix = "dedup.runs"

// RunSummary describes one finished run. It carries counts and the
// fingerprint, never the content itself.
type RunSummary struct {
	ID            string      `json:"id"`
	RequestID     string      `json:"request_id,omitempty"`
	Source        string      `json:"source"`
	Filename      string      `json:"filename,omitempty"`
	State         dedup.State `json:"state"`
	BytesIngested int         `json:"bytes_ingested"`
	LinesEmitted  int         `json:"lines_emitted"`
	Fingerprint   string      `json:"fingerprint,omitempty"`
	Repeat        bool        `json:"repeat"`
	DurationMS    int64       `json:"duration_ms"`
	Timestamp     time.Time   `json:"timestamp"`
}

// NewRunSummary builds the summary of a run that ended with res and err.
// A nil res with a nil err is treated as an accepted empty run.
func NewRunSummary(source, requestID string, res *dedup.Result, err error, elapsed time.Duration) *RunSummary {
	s := &RunSummary{
		ID:         newID(),
		RequestID:  requestID,
		Source:     source,
		State:      dedup.StateOf(err),
		DurationMS: elapsed.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}
	if err == nil && res != nil {
		s.BytesIngested = res.BytesIngested
		s.LinesEmitted = res.Count
		s.Fingerprint = res.Fingerprint
		s.Repeat = res.Repeat
	}
	return s
}

// Subject returns the NATS subject for s.
// Format: dedup.runs.{state}.
func (s *RunSummary) Subject() string {
	return SubjectPrefix + "." + SanitizeSubjectName(string(s.State))
}

// SanitizeSubjectName sanitizes a name for use as a single NATS subject
// token.
func SanitizeSubjectName(name string) string {
	if name == "" {
		return "unknown"
	}
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, ".", "_")
	name = strings.ReplaceAll(name, "*", "_")
	name = strings.ReplaceAll(name, ">", "_")
	return name
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
