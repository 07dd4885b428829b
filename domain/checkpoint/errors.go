package checkpoint

import "errors"

// Domain errors for checkpoint store operations.
var (
	// ErrCheckpointNotFound is returned when no checkpoint matches.
	ErrCheckpointNotFound = errors.New("checkpoint not found")

	// ErrInvalidRunID is returned when a run ID is invalid (e.g., empty).
	ErrInvalidRunID = errors.New("invalid run ID")

	// ErrInvalidCheckpoint is returned for checkpoints that cannot be restored.
	ErrInvalidCheckpoint = errors.New("invalid checkpoint")

	// ErrConnectionFailed is returned when connection to the store backend fails.
	ErrConnectionFailed = errors.New("store connection failed")
)
