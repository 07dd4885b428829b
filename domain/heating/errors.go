package heating

import "errors"

// Domain errors for heating systems.
var (
	// ErrNegativeUncertainty indicates an estimate with uncertainty below zero.
	ErrNegativeUncertainty = errors.New("negative uncertainty")

	// ErrInvalidEstimate indicates a NaN or infinite estimate value.
	ErrInvalidEstimate = errors.New("invalid estimate")

	// ErrNegativePrice indicates a system priced below zero.
	ErrNegativePrice = errors.New("negative price")

	// ErrUnknownType indicates a heating type missing from the catalog.
	ErrUnknownType = errors.New("unknown heating type")

	// ErrInvalidSpec indicates a malformed catalog entry.
	ErrInvalidSpec = errors.New("invalid heating spec")
)
