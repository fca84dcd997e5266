package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrPatternNotFound indicates the pattern doesn't exist.
	ErrPatternNotFound = errors.New("pattern not found")
	// ErrDuplicateName indicates another project already uses the name.
	ErrDuplicateName = errors.New("project name already exists")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
	// ErrInvalidPattern indicates a pattern that cannot be compiled.
	ErrInvalidPattern = errors.New("invalid pattern")
)
