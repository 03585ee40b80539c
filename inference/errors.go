package inference

import "errors"

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrModelNotFound indicates the model file does not exist.
	ErrModelNotFound = errors.New("inference: model file not found")

	// ErrInvalidModel indicates the model file exists but is not a usable classifier.
	ErrInvalidModel = errors.New("inference: invalid model")

	// ErrPoolClosed indicates use of a closed session pool.
	ErrPoolClosed = errors.New("inference: pool closed")
)
