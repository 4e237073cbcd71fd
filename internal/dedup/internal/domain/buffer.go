// Package domain holds the line deduplication core: a size-capped byte buffer,
// the chunk ingestor that fills it, and the deduplicator that turns it into an
// ordered set of unique lines. Nothing here performs I/O or keeps state across
// requests.
package domain

import "fmt"

// SizeLimit is the maximum number of bytes a single Buffer may hold.
type SizeLimit int64

// DefaultSizeLimit is 2 MiB.
const DefaultSizeLimit SizeLimit = 2 * 1024 * 1024

// Validate reports ErrInvalidLimit for non-positive limits.
func (l SizeLimit) Validate() error {
	if l <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidLimit, int64(l))
	}
	return nil
}

// Buffer accumulates ingested bytes up to a fixed limit. It is owned by a
// single request and must not be reused.
//
// Once an append is refused the buffer is marked rejected and its contents
// are released; every later append is refused as well.
type Buffer struct {
	data     []byte
	limit    SizeLimit
	rejected bool
}

// NewBuffer returns an empty buffer bounded by limit.
func NewBuffer(limit SizeLimit) *Buffer {
	return &Buffer{limit: limit}
}

// Append adds chunk to the buffer if the result stays within the limit.
// Otherwise nothing is appended, the buffer is rejected and ErrTooLarge is
// returned.
func (b *Buffer) Append(chunk []byte) error {
	if b.rejected {
		return ErrTooLarge
	}
	if int64(len(b.data))+int64(len(chunk)) > int64(b.limit) {
		attempted := int64(len(b.data)) + int64(len(chunk))
		b.rejected = true
		b.data = nil
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrTooLarge, attempted, int64(b.limit))
	}
	b.data = append(b.data, chunk...)
	return nil
}

// Bytes returns the accumulated bytes. The slice aliases the buffer and must
// not be modified. A rejected buffer returns nil.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the number of bytes held.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Limit returns the configured ceiling.
func (b *Buffer) Limit() SizeLimit {
	return b.limit
}

// Rejected reports whether an append was refused.
func (b *Buffer) Rejected() bool {
	return b.rejected
}
