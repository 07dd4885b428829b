// Package agent provides the decision-process position of a houseowner.
package agent

// Stage is a phase of the heating-replacement decision process.
// Stages are identified by stable strings, not behavioral definitions.
type Stage string

// Decision stages. StageNone is the inactive pool.
const (
	StageNone          Stage = "none"          // Not deciding
	StagePredecisional Stage = "predecisional" // Evaluating the current system
	StagePreactional   Stage = "preactional"   // Searching, filtering, comparing
	StageActional      Stage = "actional"      // Ordering and installing
	StagePostactional  Stage = "postactional"  // Assessing the installed system
)

// Number returns the ordinal of the stage (0 for inactive).
func (s Stage) Number() int {
	switch s {
	case StagePredecisional:
		return 1
	case StagePreactional:
		return 2
	case StageActional:
		return 3
	case StagePostactional:
		return 4
	default:
		return 0
	}
}

// IsActive returns true if the stage is part of a running decision.
func (s Stage) IsActive() bool {
	return s != StageNone && s != ""
}

// IsValid returns true if the stage is recognized.
func (s Stage) IsValid() bool {
	switch s {
	case StageNone, StagePredecisional, StagePreactional, StageActional, StagePostactional:
		return true
	default:
		return false
	}
}

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// AllStages returns all stages in process order.
func AllStages() []Stage {
	return []Stage{
		StageNone,
		StagePredecisional,
		StagePreactional,
		StageActional,
		StagePostactional,
	}
}

// Breakpoint marks where a suspended decision resumes.
type Breakpoint string

// Breakpoints.
const (
	BreakpointNone           Breakpoint = "none"
	BreakpointGoal           Breakpoint = "goal"
	BreakpointBehaviour      Breakpoint = "behaviour"
	BreakpointImplementation Breakpoint = "implementation"
)

// IsValid returns true if the breakpoint is recognized.
func (b Breakpoint) IsValid() bool {
	switch b {
	case BreakpointNone, BreakpointGoal, BreakpointBehaviour, BreakpointImplementation:
		return true
	default:
		return false
	}
}

// String returns the string representation of the breakpoint.
func (b Breakpoint) String() string {
	return string(b)
}

// Satisfaction is a houseowner's verdict on the installed system.
type Satisfaction string

// Satisfaction values.
const (
	SatisfactionNone Satisfaction = "none"
	Satisfied        Satisfaction = "satisfied"
	Dissatisfied     Satisfaction = "dissatisfied"
)
