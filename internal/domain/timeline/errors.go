package timeline

import "errors"

var (
	// ErrInvalidDate indicates a date that is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date: expected YYYY-MM-DD")
	// ErrInvalidRange indicates an empty or inverted range.
	ErrInvalidRange = errors.New("invalid time range")
	// ErrInvalidCategory indicates an unknown category name.
	ErrInvalidCategory = errors.New("invalid category: must be focus, meetings, comms, or other")
)
