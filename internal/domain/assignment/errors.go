package assignment

import "errors"

var (
	// ErrInvalidInput indicates an invalid assignment request.
	ErrInvalidInput = errors.New("invalid assignment input")
	// ErrDiscoveryDisabled indicates auto-discovery is turned off by policy.
	ErrDiscoveryDisabled = errors.New("project auto-discovery is disabled")
)
