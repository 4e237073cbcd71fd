package archive

import "errors"

// Sentinel errors for the archive package.
var (
	ErrEmptyContent = errors.New("nothing to archive")
	ErrMissingRunID = errors.New("run id is required")
)
