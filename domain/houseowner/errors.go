package houseowner

import "errors"

var (
	// ErrInvalidConfig is returned when a houseowner cannot be built.
	ErrInvalidConfig = errors.New("invalid houseowner config")

	// ErrInvariant is returned when an agent's state breaks a model invariant.
	ErrInvariant = errors.New("houseowner invariant violated")

	// ErrNothingOrdered is returned when a plumber installs a system the
	// agent did not order.
	ErrNothingOrdered = errors.New("no matching installation ordered")

	// ErrOverBudget is returned when an installation costs more than the
	// agent's savings and loan.
	ErrOverBudget = errors.New("installation exceeds budget")

	// ErrStalled is returned when a decision step keeps looping without
	// spending resource or moving.
	ErrStalled = errors.New("decision process stalled")
)
