// Package dedup turns an uploaded byte stream into its list of unique,
// trimmed, non-blank lines. Ingestion is bounded by a fixed size limit and
// stops at the first chunk that would exceed it; deduplication is a pure
// function of the accepted bytes.
package dedup

import (
	"context"
	"io"
)

// Processor runs one payload through ingestion and deduplication.
// Implementations must be safe for concurrent use.
type Processor interface {
	// Process drains src under the size limit. On rejection it returns a nil
	// Result and an error matching ErrTooLarge or ErrReadFailed.
	Process(ctx context.Context, src ChunkSource) (*Result, error)

	// ProcessReader is Process over an io.Reader.
	ProcessReader(ctx context.Context, r io.Reader) (*Result, error)

	// Limit returns the ingestion ceiling.
	Limit() SizeLimit
}

var _ Processor = (*Module)(nil)
