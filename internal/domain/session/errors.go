package session

import "errors"

var (
	// ErrSessionNotFound indicates the session doesn't exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStaleEvent indicates an observation older than the segmenter clock.
	ErrStaleEvent = errors.New("stale event: timestamp precedes last committed activity")
	// ErrSessionOpen indicates an operation that needs a closed session.
	ErrSessionOpen = errors.New("session is still open")
	// ErrInvalidInput indicates invalid session input.
	ErrInvalidInput = errors.New("invalid session input")
)
