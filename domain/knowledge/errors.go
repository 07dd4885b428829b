package knowledge

import "errors"

// Domain errors for knowledge.
var (
	// ErrInvalidExposure indicates an exposure outside [0,1].
	ErrInvalidExposure = errors.New("invalid exposure")

	// ErrDuplicateSystem indicates a persisted base that lists a type twice.
	ErrDuplicateSystem = errors.New("duplicate system in knowledge base")
)
