package domain

import "errors"

// Sentinel errors for ingestion. Malformed text is never an error.
var (
	// ErrTooLarge means the next chunk would push the buffer past its limit.
	ErrTooLarge = errors.New("payload exceeds maximum size")

	// ErrReadFailed means the chunk source failed before end-of-stream.
	ErrReadFailed = errors.New("failed to read payload")

	// ErrInvalidLimit means a size limit was zero or negative.
	ErrInvalidLimit = errors.New("size limit must be positive")
)
