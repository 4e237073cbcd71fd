package domain

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

// chunks is a ChunkSource over in-memory chunks that records how often it
// was read and can fail after a given number of chunks.
type chunks struct {
	data   [][]byte
	pos    int
	calls  int
	failAt int
	err    error
}

func (c *chunks) Next(_ context.Context) ([]byte, error) {
	c.calls++
	if c.err != nil && c.pos == c.failAt {
		return nil, c.err
	}
	if c.pos >= len(c.data) {
		return nil, io.EOF
	}
	chunk := c.data[c.pos]
	c.pos++
	return chunk, nil
}

func source(parts ...string) *chunks {
	c := &chunks{}
	for _, p := range parts {
		c.data = append(c.data, []byte(p))
	}
	return c
}

func TestBuffer_AppendWithinLimit(t *testing.T) {
	buf := NewBuffer(10)

	if err := buf.Append([]byte("hello")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := buf.Append([]byte("world")); err != nil {
		t.Fatalf("Append() at exact limit error = %v", err)
	}
	if got := string(buf.Bytes()); got != "helloworld" {
		t.Errorf("Bytes() = %q, want %q", got, "helloworld")
	}
	if buf.Rejected() {
		t.Error("Rejected() = true, want false")
	}
}

func TestBuffer_AppendOverLimit(t *testing.T) {
	buf := NewBuffer(8)

	if err := buf.Append([]byte("12345")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	err := buf.Append([]byte("6789"))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Append() error = %v, want ErrTooLarge", err)
	}
	if !buf.Rejected() {
		t.Error("Rejected() = false after overflow")
	}
	if buf.Len() != 0 || buf.Bytes() != nil {
		t.Errorf("rejected buffer still holds %d bytes", buf.Len())
	}

	// A rejected buffer refuses even chunks that would fit.
	if err := buf.Append([]byte("x")); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Append() after rejection error = %v, want ErrTooLarge", err)
	}
}

func TestSizeLimit_Validate(t *testing.T) {
	tests := []struct {
		limit   SizeLimit
		wantErr bool
	}{
		{DefaultSizeLimit, false},
		{1, false},
		{0, true},
		{-5, true},
	}

	for _, tt := range tests {
		err := tt.limit.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("SizeLimit(%d).Validate() error = %v, wantErr %v", tt.limit, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("SizeLimit(%d).Validate() error = %v, want ErrInvalidLimit", tt.limit, err)
		}
	}
}

func TestDefaultSizeLimit(t *testing.T) {
	if DefaultSizeLimit != 2_097_152 {
		t.Errorf("DefaultSizeLimit = %d, want 2097152", DefaultSizeLimit)
	}
}

func TestIngest_ConcatenatesChunksInOrder(t *testing.T) {
	src := source("line1\nli", "ne2\n", "line1")

	buf, err := Ingest(context.Background(), src, DefaultSizeLimit)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if got, want := string(buf.Bytes()), "line1\nline2\nline1"; got != want {
		t.Errorf("Bytes() = %q, want %q", got, want)
	}
}

func TestIngest_NoChunks(t *testing.T) {
	buf, err := Ingest(context.Background(), source(), DefaultSizeLimit)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Len() = %d, want 0", buf.Len())
	}
	if out := Deduplicate(buf); out.Count != 0 || len(out.Lines) != 0 {
		t.Errorf("Deduplicate(empty) = %+v, want zero lines", out)
	}
}

func TestIngest_EmptyChunks(t *testing.T) {
	buf, err := Ingest(context.Background(), source("", "a", ""), 1)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if string(buf.Bytes()) != "a" {
		t.Errorf("Bytes() = %q, want %q", buf.Bytes(), "a")
	}
}

func TestIngest_ExactlyAtLimit(t *testing.T) {
	src := source("abcd", "efgh")

	buf, err := Ingest(context.Background(), src, 8)
	if err != nil {
		t.Fatalf("Ingest() at exact limit error = %v", err)
	}
	if buf.Len() != 8 {
		t.Errorf("Len() = %d, want 8", buf.Len())
	}
}

func TestIngest_StopsAtFirstOversizedChunk(t *testing.T) {
	src := source("aaaa", "bbbb", "cccc", "dddd")

	buf, err := Ingest(context.Background(), src, 10)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Ingest() error = %v, want ErrTooLarge", err)
	}
	if buf != nil {
		t.Errorf("Ingest() returned a buffer with %d bytes on overflow", buf.Len())
	}
	// Chunk 3 overflows; chunk 4 must never be requested.
	if src.calls != 3 {
		t.Errorf("source read %d times, want 3", src.calls)
	}
}

func TestIngest_SingleChunkOverLimit(t *testing.T) {
	src := source(string(bytes.Repeat([]byte("x"), 11)))

	_, err := Ingest(context.Background(), src, 10)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Ingest() error = %v, want ErrTooLarge", err)
	}
}

func TestIngest_ReadFailure(t *testing.T) {
	boom := errors.New("connection reset")
	src := source("line1\n", "line2\n", "line3\n")
	src.failAt = 1
	src.err = boom

	buf, err := Ingest(context.Background(), src, DefaultSizeLimit)
	if !errors.Is(err, ErrReadFailed) {
		t.Fatalf("Ingest() error = %v, want ErrReadFailed", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Ingest() error = %v, want it to wrap the source error", err)
	}
	if buf != nil {
		t.Error("Ingest() returned a partial buffer on read failure")
	}
	if src.calls != 2 {
		t.Errorf("source read %d times, want 2 (no retry)", src.calls)
	}
}

func TestIngest_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := source("line1\n")
	_, err := Ingest(ctx, src, DefaultSizeLimit)
	if !errors.Is(err, ErrReadFailed) || !errors.Is(err, context.Canceled) {
		t.Fatalf("Ingest() error = %v, want ErrReadFailed wrapping context.Canceled", err)
	}
	if src.calls != 0 {
		t.Errorf("source read %d times after cancellation, want 0", src.calls)
	}
}

func TestIngest_InvalidLimit(t *testing.T) {
	src := source("x")

	_, err := Ingest(context.Background(), src, 0)
	if !errors.Is(err, ErrInvalidLimit) {
		t.Fatalf("Ingest() error = %v, want ErrInvalidLimit", err)
	}
	if src.calls != 0 {
		t.Errorf("source read %d times with invalid limit, want 0", src.calls)
	}
}

func TestStateOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want State
	}{
		{"nil", nil, StateAccepted},
		{"too large", ErrTooLarge, StateTooLarge},
		{"wrapped too large", errors.Join(errors.New("ctx"), ErrTooLarge), StateTooLarge},
		{"read failed", ErrReadFailed, StateReadFailure},
		{"invalid limit", ErrInvalidLimit, StateInvalidConfig},
		{"unknown", errors.New("other"), StateReadFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StateOf(tt.err); got != tt.want {
				t.Errorf("StateOf(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
