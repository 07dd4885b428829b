// Package statemachine checks houseowner stage transitions against a
// statekit statechart of the decision process.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/heatshift/domain/agent"
)

// Context carries the move being checked through the machine.
type Context struct {
	AgentID string
	To      agent.Position
	Moves   map[statekit.EventType]int
}

// NewContext creates an empty machine context.
func NewContext() *Context {
	return &Context{Moves: make(map[statekit.EventType]int)}
}

const (
	stateInactive      = statekit.StateID(agent.StageNone)
	statePredecisional = statekit.StateID(agent.StagePredecisional)
	statePreactional   = statekit.StateID(agent.StagePreactional)
	stateActional      = statekit.StateID(agent.StageActional)
	statePostactional  = statekit.StateID(agent.StagePostactional)
)

// Events of the decision process.
const (
	EventTrigger      statekit.EventType = "TRIGGER"
	EventBreakdown    statekit.EventType = "BREAKDOWN"
	EventSatisfied    statekit.EventType = "SATISFIED"
	EventDissatisfied statekit.EventType = "DISSATISFIED"
	EventDecide       statekit.EventType = "DECIDE"
	EventReconsider   statekit.EventType = "RECONSIDER"
	EventInstall      statekit.EventType = "INSTALL"
	EventAbandon      statekit.EventType = "ABANDON"
	EventSettle       statekit.EventType = "SETTLE"
)

// NewStageMachine creates the houseowner decision statechart. Every stage
// can be left towards inactive; otherwise the process only moves forward,
// except that a failed order sends the agent back to choosing.
func NewStageMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("houseowner").
		WithInitial(stateInactive).
		WithContext(NewContext()).
		WithAction("countMove", countMove).
		WithGuard("consistent", guardConsistent).
		State(stateInactive).
			On(EventTrigger).Target(statePredecisional).Guard("consistent").Do("countMove").
			On(EventBreakdown).Target(statePreactional).Guard("consistent").Do("countMove").
			Done().
		State(statePredecisional).
			On(EventSatisfied).Target(stateInactive).Guard("consistent").Do("countMove").
			On(EventDissatisfied).Target(statePreactional).Guard("consistent").Do("countMove").
			Done().
		State(statePreactional).
			On(EventDecide).Target(stateActional).Guard("consistent").Do("countMove").
			On(EventAbandon).Target(stateInactive).Guard("consistent").Do("countMove").
			Done().
		State(stateActional).
			On(EventReconsider).Target(statePreactional).Guard("consistent").Do("countMove").
			On(EventInstall).Target(statePostactional).Guard("consistent").Do("countMove").
			On(EventAbandon).Target(stateInactive).Guard("consistent").Do("countMove").
			Done().
		State(statePostactional).
			On(EventSettle).Target(stateInactive).Guard("consistent").Do("countMove").
			Done().
		Build()
}

// EventFor returns the event that moves a houseowner from one stage to
// another, and false when no such move exists.
func EventFor(from, to agent.Stage) (statekit.EventType, bool) {
	switch from {
	case agent.StageNone:
		switch to {
		case agent.StagePredecisional:
			return EventTrigger, true
		case agent.StagePreactional:
			return EventBreakdown, true
		}
	case agent.StagePredecisional:
		switch to {
		case agent.StageNone:
			return EventSatisfied, true
		case agent.StagePreactional:
			return EventDissatisfied, true
		}
	case agent.StagePreactional:
		switch to {
		case agent.StageActional:
			return EventDecide, true
		case agent.StageNone:
			return EventAbandon, true
		}
	case agent.StageActional:
		switch to {
		case agent.StagePreactional:
			return EventReconsider, true
		case agent.StagePostactional:
			return EventInstall, true
		case agent.StageNone:
			return EventAbandon, true
		}
	case agent.StagePostactional:
		if to == agent.StageNone {
			return EventSettle, true
		}
	}
	return "", false
}

// countMove tallies accepted moves per event. Actions receive a pointer to
// the machine context, so a *Context arrives as **Context.
func countMove(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	(*ctx).Moves[event.Type]++
}

// guardConsistent accepts a move only when the target position is a valid
// stage and breakpoint pair.
func guardConsistent(ctx *Context, _ statekit.Event) bool {
	return ctx != nil && ctx.To.Validate() == nil
}
