package linededup

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrTooLarge is matched by errors.Is when the server rejected the payload
// for exceeding its size ceiling.
var ErrTooLarge = errors.New("linededup: payload too large")

// APIError is a non-2xx response from the server.
type APIError struct {
	// StatusCode is the HTTP status of the final attempt.
	StatusCode int

	// Code is the machine-readable rejection code, when the server sent one.
	Code string

	// Message is the human-readable rejection message.
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("linededup: status %d", e.StatusCode)
	}
	return fmt.Sprintf("linededup: status %d: %s", e.StatusCode, e.Message)
}

// Is reports 413 responses as ErrTooLarge.
func (e *APIError) Is(target error) bool {
	return target == ErrTooLarge && e.StatusCode == http.StatusRequestEntityTooLarge
}

// Temporary reports whether the request may succeed on retry.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500
}
