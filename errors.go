package dtbench

import "errors"

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrLengthMismatch indicates label vectors (or features and labels) of different lengths.
	ErrLengthMismatch = errors.New("dtbench: length mismatch")

	// ErrInvalidDepth indicates a depth list that is not positive and strictly increasing.
	ErrInvalidDepth = errors.New("dtbench: invalid depth")

	// ErrInvalidSet indicates an empty or non-rectangular feature matrix.
	ErrInvalidSet = errors.New("dtbench: invalid data set")
)
