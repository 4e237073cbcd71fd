package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/SebastienMelki/linededup/internal/dedup"
	"github.com/SebastienMelki/linededup/internal/events"
	"github.com/SebastienMelki/linededup/internal/observability"
)

type publishCall struct {
	subject  string
	data     []byte
	deadline bool
}

type mockStream struct {
	calls []publishCall
	err   error
}

func (m *mockStream) Publish(ctx context.Context, subject string, data []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	_, hasDeadline := ctx.Deadline()
	m.calls = append(m.calls, publishCall{subject: subject, data: data, deadline: hasDeadline})
	if m.err != nil {
		return nil, m.err
	}
	return &jetstream.PubAck{Stream: "DEDUP_RUNS", Sequence: uint64(len(m.calls))}, nil
}

func testMetrics(t *testing.T) *observability.Metrics {
	t.Helper()
	m, err := observability.NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	return m
}

func TestPublisher_PublishSummary(t *testing.T) {
	stream := &mockStream{}
	p := NewPublisher(stream, time.Second, testMetrics(t), nil)

	summary := &events.RunSummary{
		ID:           "0192f5d0-0000-7000-8000-000000000001",
		Source:       events.SourceAPI,
		State:        dedup.StateAccepted,
		LinesEmitted: 4,
	}

	if err := p.PublishSummary(context.Background(), summary); err != nil {
		t.Fatalf("PublishSummary() error = %v", err)
	}

	if len(stream.calls) != 1 {
		t.Fatalf("publish calls = %d, want 1", len(stream.calls))
	}
	call := stream.calls[0]
	if call.subject != "dedup.runs.accepted" {
		t.Errorf("subject = %q, want %q", call.subject, "dedup.runs.accepted")
	}
	if !call.deadline {
		t.Error("publish context has no deadline")
	}

	var got events.RunSummary
	if err := json.Unmarshal(call.data, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got.ID != summary.ID || got.LinesEmitted != 4 {
		t.Errorf("payload = %+v, want %+v", got, summary)
	}
}

func TestPublisher_RejectedSubject(t *testing.T) {
	stream := &mockStream{}
	p := NewPublisher(stream, 0, nil, nil)

	summary := events.NewRunSummary(events.SourceUpload, "", nil, dedup.ErrTooLarge, 0)
	if err := p.PublishSummary(context.Background(), summary); err != nil {
		t.Fatalf("PublishSummary() error = %v", err)
	}
	if stream.calls[0].subject != "dedup.runs.rejected_too_large" {
		t.Errorf("subject = %q", stream.calls[0].subject)
	}
	if stream.calls[0].deadline {
		t.Error("zero timeout should not add a deadline")
	}
}

func TestPublisher_PublishError(t *testing.T) {
	boom := errors.New("no responders")
	p := NewPublisher(&mockStream{err: boom}, time.Second, testMetrics(t), nil)

	err := p.PublishSummary(context.Background(), &events.RunSummary{ID: "x", State: dedup.StateAccepted})
	if !errors.Is(err, boom) {
		t.Errorf("PublishSummary() error = %v, want %v", err, boom)
	}
}

func TestPublisher_NilSummary(t *testing.T) {
	stream := &mockStream{}
	p := NewPublisher(stream, time.Second, nil, nil)

	if err := p.PublishSummary(context.Background(), nil); !errors.Is(err, ErrNilSummary) {
		t.Errorf("PublishSummary(nil) error = %v, want ErrNilSummary", err)
	}
	if len(stream.calls) != 0 {
		t.Error("nil summary was published")
	}
}

func TestStreamConfig(t *testing.T) {
	tests := []struct {
		name        string
		storage     string
		wantStorage jetstream.StorageType
	}{
		{"file", "file", jetstream.FileStorage},
		{"memory", "memory", jetstream.MemoryStorage},
		{"memory upper", "MEMORY", jetstream.MemoryStorage},
		{"unknown falls back to file", "tape", jetstream.FileStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig().Stream
			cfg.Storage = tt.storage

			got := streamConfig(cfg)
			if got.Storage != tt.wantStorage {
				t.Errorf("Storage = %v, want %v", got.Storage, tt.wantStorage)
			}
			if got.Name != "DEDUP_RUNS" {
				t.Errorf("Name = %q, want DEDUP_RUNS", got.Name)
			}
			if len(got.Subjects) != 1 || got.Subjects[0] != "dedup.runs.>" {
				t.Errorf("Subjects = %v, want [dedup.runs.>]", got.Subjects)
			}
			if got.Discard != jetstream.DiscardOld {
				t.Errorf("Discard = %v, want DiscardOld", got.Discard)
			}
		})
	}
}
