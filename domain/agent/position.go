package agent

import "fmt"

// Position is the persisted (stage, breakpoint) pair of a decision process.
type Position struct {
	Stage      Stage      `json:"stage"`
	Breakpoint Breakpoint `json:"breakpoint"`
}

// Canonical positions.
var (
	Inactive      = Position{Stage: StageNone, Breakpoint: BreakpointNone}
	Predecisional = Position{Stage: StagePredecisional, Breakpoint: BreakpointNone}
	Preactional   = Position{Stage: StagePreactional, Breakpoint: BreakpointGoal}
	Actional      = Position{Stage: StageActional, Breakpoint: BreakpointBehaviour}
	Postactional  = Position{Stage: StagePostactional, Breakpoint: BreakpointImplementation}
)

// IsInactive returns true if the position is in the inactive pool.
func (p Position) IsInactive() bool {
	return !p.Stage.IsActive()
}

// Validate checks that the breakpoint agrees with the stage.
func (p Position) Validate() error {
	if !p.Stage.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStage, p.Stage)
	}
	if !p.Breakpoint.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidBreakpoint, p.Breakpoint)
	}
	if expected, ok := breakpointFor[p.Stage]; !ok || expected != p.Breakpoint {
		return fmt.Errorf("%w: stage %s with breakpoint %s", ErrInconsistentPosition, p.Stage, p.Breakpoint)
	}
	return nil
}

// String returns "stage/breakpoint".
func (p Position) String() string {
	return fmt.Sprintf("%s/%s", p.Stage, p.Breakpoint)
}

var breakpointFor = map[Stage]Breakpoint{
	StageNone:          BreakpointNone,
	StagePredecisional: BreakpointNone,
	StagePreactional:   BreakpointGoal,
	StageActional:      BreakpointBehaviour,
	StagePostactional:  BreakpointImplementation,
}

// PositionOf returns the canonical position for a stage.
func PositionOf(s Stage) Position {
	return Position{Stage: s, Breakpoint: breakpointFor[s]}
}
