package dedup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxEmptyReads bounds consecutive (0, nil) reads, as bufio does.
const maxEmptyReads = 100

// ReaderSource adapts an io.Reader into a ChunkSource that yields reads of
// at most chunkSize bytes.
//
// A read that returns data together with an error yields the data first and
// reports the error on the following call, so no accepted bytes are lost.
// An http.MaxBytesError from a body ceiling further out is reported as
// ErrTooLarge.
type ReaderSource struct {
	r       io.Reader
	size    int
	pending error
}

// NewReaderSource wraps r. A non-positive chunkSize falls back to 32 KiB.
func NewReaderSource(r io.Reader, chunkSize int) *ReaderSource {
	if chunkSize <= 0 {
		chunkSize = 32 * 1024
	}
	return &ReaderSource{r: r, size: chunkSize}
}

// Next returns the next chunk, or io.EOF at end of stream.
func (s *ReaderSource) Next(ctx context.Context) ([]byte, error) {
	if s.pending != nil {
		return nil, s.pending
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf := make([]byte, s.size)
	for range maxEmptyReads {
		n, err := s.r.Read(buf)
		err = sizeError(err)
		if n > 0 {
			if err != nil {
				s.pending = err
			}
			return buf[:n], nil
		}
		if err != nil {
			s.pending = err
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	s.pending = io.ErrNoProgress
	return nil, s.pending
}

// sizeError marks a transport body ceiling as a size rejection.
func sizeError(err error) error {
	var mbe *http.MaxBytesError
	if err != nil && errors.As(err, &mbe) {
		return fmt.Errorf("%w: %w", ErrTooLarge, err)
	}
	return err
}

// SliceSource yields a fixed sequence of chunks. Useful for tests and for
// callers that already hold the payload in memory.
type SliceSource struct {
	chunks [][]byte
	pos    int
}

// NewSliceSource returns a source over chunks in order.
func NewSliceSource(chunks ...[]byte) *SliceSource {
	return &SliceSource{chunks: chunks}
}

// Next returns the next chunk, or io.EOF when exhausted.
func (s *SliceSource) Next(_ context.Context) ([]byte, error) {
	if s.pos >= len(s.chunks) {
		return nil, io.EOF
	}
	c := s.chunks[s.pos]
	s.pos++
	return c, nil
}
