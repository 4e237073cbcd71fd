package gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/SebastienMelki/linededup/internal/dedup"
	"github.com/SebastienMelki/linededup/internal/events"
)

// mockPublisher records published summaries.
type mockPublisher struct {
	mu        sync.Mutex
	summaries []*events.RunSummary
	err       error
}

func (m *mockPublisher) PublishSummary(_ context.Context, s *events.RunSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, s)
	return m.err
}

func (m *mockPublisher) published() []*events.RunSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*events.RunSummary(nil), m.summaries...)
}

// mockArchiver records archived content.
type mockArchiver struct {
	mu       sync.Mutex
	runIDs   []string
	contents []string
	err      error
}

func (m *mockArchiver) Archive(_ context.Context, runID, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runIDs = append(m.runIDs, runID)
	m.contents = append(m.contents, text)
	if m.err != nil {
		return "", m.err
	}
	return "key/" + runID, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestModule(t *testing.T, limit int64) *dedup.Module {
	t.Helper()
	cfg := dedup.DefaultConfig()
	cfg.MaxUploadBytes = limit
	cfg.ChunkSize = 4
	m, err := dedup.New(cfg, nil, discardLogger())
	if err != nil {
		t.Fatalf("dedup.New() error = %v", err)
	}
	return m
}

func TestDedupService_Clean(t *testing.T) {
	pub := &mockPublisher{}
	arc := &mockArchiver{}
	svc := NewDedupService(newTestModule(t, 1024), pub, arc, discardLogger())

	ctx := context.WithValue(context.Background(), requestIDKey, "req-42")
	resp, err := svc.Clean(ctx, CleanRequest{
		Source:   events.SourceUpload,
		Filename: "list.txt",
		Body:     strings.NewReader("b\na\nb\n\n"),
	})
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	if got := resp.Result.Text(); got != "b\na" {
		t.Errorf("Text() = %q, want %q", got, "b\na")
	}
	if resp.RunID == "" {
		t.Error("RunID is empty")
	}

	summaries := pub.published()
	if len(summaries) != 1 {
		t.Fatalf("published = %d, want 1", len(summaries))
	}
	s := summaries[0]
	if s.ID != resp.RunID {
		t.Errorf("summary ID = %q, want run id %q", s.ID, resp.RunID)
	}
	if s.State != dedup.StateAccepted || s.LinesEmitted != 2 {
		t.Errorf("summary = %+v", s)
	}
	if s.RequestID != "req-42" || s.Filename != "list.txt" || s.Source != events.SourceUpload {
		t.Errorf("summary metadata = %+v", s)
	}

	if len(arc.contents) != 1 || arc.contents[0] != "b\na" {
		t.Errorf("archived = %v, want [\"b\\na\"]", arc.contents)
	}
	if arc.runIDs[0] != resp.RunID {
		t.Errorf("archived run id = %q, want %q", arc.runIDs[0], resp.RunID)
	}
}

func TestDedupService_Clean_TooLarge(t *testing.T) {
	pub := &mockPublisher{}
	arc := &mockArchiver{}
	svc := NewDedupService(newTestModule(t, 8), pub, arc, discardLogger())

	resp, err := svc.Clean(context.Background(), CleanRequest{
		Source: events.SourceAPI,
		Body:   strings.NewReader("0123456789"),
	})
	if !errors.Is(err, dedup.ErrTooLarge) {
		t.Fatalf("Clean() error = %v, want ErrTooLarge", err)
	}
	if resp != nil {
		t.Errorf("Clean() response = %+v, want nil", resp)
	}

	summaries := pub.published()
	if len(summaries) != 1 || summaries[0].State != dedup.StateTooLarge {
		t.Errorf("summaries = %+v, want one rejected_too_large", summaries)
	}
	if len(arc.contents) != 0 {
		t.Error("rejected run was archived")
	}
}

func TestDedupService_Clean_BodyLimitIsTooLarge(t *testing.T) {
	pub := &mockPublisher{}
	svc := NewDedupService(newTestModule(t, 1024), pub, nil, discardLogger())

	rec := httptest.NewRecorder()
	body := http.MaxBytesReader(rec, io.NopCloser(bytes.NewReader(bytes.Repeat([]byte("x"), 100))), 10)

	_, err := svc.Clean(context.Background(), CleanRequest{Source: events.SourceAPI, Body: body})
	if !errors.Is(err, dedup.ErrTooLarge) {
		t.Fatalf("Clean() error = %v, want ErrTooLarge", err)
	}
	if got := classify(err).status; got != http.StatusRequestEntityTooLarge {
		t.Errorf("classify status = %d, want 413", got)
	}
	if s := pub.published(); len(s) != 1 || s[0].State != dedup.StateTooLarge {
		t.Errorf("summaries = %+v, want one rejected_too_large", s)
	}
}

func TestDedupService_Clean_ReadFailure(t *testing.T) {
	pub := &mockPublisher{}
	svc := NewDedupService(newTestModule(t, 1024), pub, nil, discardLogger())

	_, err := svc.Clean(context.Background(), CleanRequest{
		Source: events.SourceAPI,
		Body:   io.MultiReader(strings.NewReader("abc"), errReader{errors.New("reset")}),
	})
	if !errors.Is(err, dedup.ErrReadFailed) {
		t.Fatalf("Clean() error = %v, want ErrReadFailed", err)
	}
	if s := pub.published(); len(s) != 1 || s[0].State != dedup.StateReadFailure {
		t.Errorf("summaries = %+v, want one rejected_read_failure", s)
	}
}

func TestDedupService_Clean_EmptyOutcomeNotArchived(t *testing.T) {
	arc := &mockArchiver{}
	svc := NewDedupService(newTestModule(t, 1024), nil, arc, discardLogger())

	resp, err := svc.Clean(context.Background(), CleanRequest{Body: strings.NewReader("\n \n")})
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if resp.Result.Count != 0 {
		t.Errorf("Count = %d, want 0", resp.Result.Count)
	}
	if len(arc.contents) != 0 {
		t.Error("empty outcome was archived")
	}
}

func TestDedupService_Clean_SinkFailuresIgnored(t *testing.T) {
	pub := &mockPublisher{err: errors.New("nats down")}
	arc := &mockArchiver{err: errors.New("s3 down")}
	svc := NewDedupService(newTestModule(t, 1024), pub, arc, discardLogger())

	resp, err := svc.Clean(context.Background(), CleanRequest{Body: strings.NewReader("x\n")})
	if err != nil {
		t.Fatalf("Clean() error = %v, want sink failures ignored", err)
	}
	if resp.Result.Count != 1 {
		t.Errorf("Count = %d, want 1", resp.Result.Count)
	}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"too large", dedup.ErrTooLarge, http.StatusRequestEntityTooLarge, msgTooLarge},
		{"max bytes in read failure", errors.Join(dedup.ErrReadFailed, &http.MaxBytesError{Limit: 1}), http.StatusRequestEntityTooLarge, msgTooLarge},
		{"read failure", dedup.ErrReadFailed, http.StatusBadRequest, msgReadFailed},
		{"no payload", dedup.ErrNoPayload, http.StatusBadRequest, msgNoFile},
		{"not txt", ErrNotTxtFile, http.StatusBadRequest, msgNotTxt},
		{"unknown", errors.New("?"), http.StatusInternalServerError, msgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rej := classify(tt.err)
			if rej.status != tt.status || rej.message != tt.message {
				t.Errorf("classify() = (%d, %q), want (%d, %q)", rej.status, rej.message, tt.status, tt.message)
			}
		})
	}
}
