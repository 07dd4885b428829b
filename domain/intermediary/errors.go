package intermediary

import "errors"

var (
	// ErrInvalidConfig is returned for an unusable intermediary setup.
	ErrInvalidConfig = errors.New("invalid intermediary config")

	// ErrUnknownCustomer is returned when a job names a houseowner that is
	// not in the population.
	ErrUnknownCustomer = errors.New("unknown customer")

	// ErrInvalidSnapshot is returned when restored state is inconsistent.
	ErrInvalidSnapshot = errors.New("invalid intermediary snapshot")
)
