package nats

import "errors"

// Sentinel errors for the nats package.
var (
	ErrNotConnected = errors.New("NATS is not connected")
	ErrNilSummary   = errors.New("run summary is nil")
)
