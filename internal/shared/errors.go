package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique key collision.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidStatus indicates a forbidden workflow transition.
	ErrInvalidStatus = errors.New("invalid status transition")
	// ErrValidation indicates rejected input.
	ErrValidation = errors.New("validation failed")
	// ErrInUse indicates the record is still referenced elsewhere.
	ErrInUse = errors.New("record in use")
	// ErrUnavailable indicates a downstream service could not serve the request.
	ErrUnavailable = errors.New("dependency unavailable")
)
