package gateway

import (
	"errors"
	"net/http"

	"github.com/SebastienMelki/linededup/internal/dedup"
)

// Sentinel errors for the gateway package.
var (
	ErrNotTxtFile     = errors.New("only .txt files are allowed")
	ErrMissingContent = errors.New("content field is required")
)

// User-facing messages.
const (
	msgTooLarge   = "File too large"
	msgReadFailed = "Error reading file"
	msgNoFile     = "No file received"
	msgNotTxt     = "Only .txt files are allowed"
	msgDownload   = "Download failed"
	msgInternal   = "Internal server error"
)

// Error codes used in JSON error bodies and the upload.rejected metric.
const (
	codeTooLarge   = "too_large"
	codeReadFailed = "read_failed"
	codeNoFile     = "no_file"
	codeNotTxt     = "not_txt"
	codeInternal   = "internal"
)

// rejection is how a failed request is reported to the client.
type rejection struct {
	status  int
	message string
	code    string
}

// isTooLarge reports whether err is a size rejection, whether raised by the
// ingestor or by an http.MaxBytesReader further out.
func isTooLarge(err error) bool {
	if errors.Is(err, dedup.ErrTooLarge) {
		return true
	}
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// classify maps a processing error to its response. Size is checked first
// because a body limit error surfaces wrapped in a read failure.
func classify(err error) rejection {
	switch {
	case isTooLarge(err):
		return rejection{http.StatusRequestEntityTooLarge, msgTooLarge, codeTooLarge}
	case errors.Is(err, dedup.ErrNoPayload):
		return rejection{http.StatusBadRequest, msgNoFile, codeNoFile}
	case errors.Is(err, ErrNotTxtFile):
		return rejection{http.StatusBadRequest, msgNotTxt, codeNotTxt}
	case errors.Is(err, dedup.ErrReadFailed):
		return rejection{http.StatusBadRequest, msgReadFailed, codeReadFailed}
	default:
		return rejection{http.StatusInternalServerError, msgInternal, codeInternal}
	}
}
