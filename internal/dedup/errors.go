package dedup

import (
	"errors"

	"github.com/SebastienMelki/linededup/internal/dedup/internal/domain"
)

// Sentinel errors. Malformed text is never an error.
var (
	ErrTooLarge     = domain.ErrTooLarge
	ErrReadFailed   = domain.ErrReadFailed
	ErrInvalidLimit = domain.ErrInvalidLimit

	// ErrNoPayload means a request carried no file at all. It is raised by
	// transports before ingestion starts.
	ErrNoPayload = errors.New("no payload received")
)
