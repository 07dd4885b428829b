package trigger

import "errors"

// Domain errors for triggers.
var (
	// ErrUnknownKind indicates a trigger kind without an entry point.
	ErrUnknownKind = errors.New("unknown trigger kind")

	// ErrInvalidTrigger indicates missing or out-of-range trigger parameters.
	ErrInvalidTrigger = errors.New("invalid trigger")
)
