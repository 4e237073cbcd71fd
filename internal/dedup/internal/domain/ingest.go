package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ChunkSource produces the chunks of one payload in delivery order.
//
// Next returns the next chunk, or io.EOF once the payload is complete. Any
// other error is a read failure. A chunk may be empty.
type ChunkSource interface {
	Next(ctx context.Context) ([]byte, error)
}

// Ingest drains src into a new Buffer bounded by limit.
//
// Ingestion stops at the first chunk that would exceed the limit: that chunk
// is not appended, src is not read again, and the partial buffer is dropped.
// A source that yields no chunks produces an empty buffer.
func Ingest(ctx context.Context, src ChunkSource, limit SizeLimit) (*Buffer, error) {
	if err := limit.Validate(); err != nil {
		return nil, err
	}

	buf := NewBuffer(limit)
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
		}

		chunk, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return buf, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
		}

		if err := buf.Append(chunk); err != nil {
			return nil, err
		}
	}
}
