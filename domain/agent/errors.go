package agent

import "errors"

// Domain errors for decision positions.
var (
	// ErrInvalidStage indicates the stage is not a recognized stage.
	ErrInvalidStage = errors.New("invalid stage")

	// ErrInvalidBreakpoint indicates the breakpoint is not recognized.
	ErrInvalidBreakpoint = errors.New("invalid breakpoint")

	// ErrInconsistentPosition indicates a breakpoint that does not belong to its stage.
	ErrInconsistentPosition = errors.New("inconsistent stage and breakpoint")

	// ErrInvalidTransition indicates an attempted stage transition is not allowed.
	ErrInvalidTransition = errors.New("invalid stage transition")
)
