package activity

import "errors"

var (
	// ErrEventNotFound indicates no row exists for the reference.
	ErrEventNotFound = errors.New("activity event not found")
	// ErrInvalidInput indicates a malformed reference or filter.
	ErrInvalidInput = errors.New("invalid activity input")
)
