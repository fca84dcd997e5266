package capture

import "errors"

var (
	// ErrInvalidObservation indicates a malformed collector event.
	ErrInvalidObservation = errors.New("invalid observation")
	// ErrQueueFull indicates the ingest queue is at capacity.
	ErrQueueFull = errors.New("ingest queue is full")
)
