package scenario

import "errors"

// Domain errors for scenario definitions.
var (
	// ErrUnknownImpact indicates an impact kind the scheduler cannot apply.
	ErrUnknownImpact = errors.New("unknown impact kind")

	// ErrInvalidImpact indicates an impact with missing or malformed parameters.
	ErrInvalidImpact = errors.New("invalid impact")
)
