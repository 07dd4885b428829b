package milieu

import "errors"

// Domain errors for milieus.
var (
	// ErrUnknownMilieu indicates a milieu with no registered criterion.
	ErrUnknownMilieu = errors.New("unknown milieu")

	// ErrInvalidProfile indicates an incomplete or out-of-range profile.
	ErrInvalidProfile = errors.New("invalid milieu profile")

	// ErrMissingProfile indicates a population milieu without a profile.
	ErrMissingProfile = errors.New("missing milieu profile")
)
