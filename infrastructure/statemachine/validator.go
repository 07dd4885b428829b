package statemachine

import (
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/heatshift/domain/agent"
	"github.com/felixgeelhaar/heatshift/domain/houseowner"
)

// ErrIllegalTransition is returned for moves the statechart does not allow.
var ErrIllegalTransition = errors.New("illegal stage transition")

// Validator replays each houseowner move on a statekit interpreter. It is
// safe for concurrent use.
type Validator struct {
	mu     sync.Mutex
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

var _ houseowner.TransitionValidator = (*Validator)(nil)

// NewValidator builds the stage machine and starts an interpreter on it.
func NewValidator() (*Validator, error) {
	machine, err := NewStageMachine()
	if err != nil {
		return nil, fmt.Errorf("build stage machine: %w", err)
	}
	ctx := NewContext()
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	interp.Start()
	return &Validator{interp: interp, ctx: ctx}, nil
}

// Validate checks that an agent may move from one position to another.
// Staying put is always allowed.
func (v *Validator) Validate(agentID string, from, to agent.Position) (err error) {
	if from == to {
		return nil
	}
	if err := to.Validate(); err != nil {
		return fmt.Errorf("%w: %s to %s: %w", ErrIllegalTransition, from, to, err)
	}
	event, ok := EventFor(from.Stage, to.Stage)
	if !ok {
		return fmt.Errorf("%w: %s cannot move from %s to %s", ErrIllegalTransition, agentID, from, to)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.interp.Restore(statekit.Snapshot[*Context]{
		MachineID:    "houseowner",
		CurrentState: statekit.StateID(from.Stage),
		Context:      v.ctx,
		CreatedAt:    time.Now(),
	}); err != nil {
		return fmt.Errorf("restore %s at %s: %w", agentID, from, err)
	}

	v.ctx.AgentID = agentID
	v.ctx.To = to
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s on %s: %v", ErrIllegalTransition, agentID, event, r)
		}
	}()
	v.interp.Send(statekit.Event{Type: event, Payload: to})

	if got := agent.Stage(v.interp.State().Value); got != to.Stage {
		return fmt.Errorf("%w: %s from %s to %s ended in %s", ErrIllegalTransition, agentID, from, to, got)
	}
	return nil
}

// Moves returns how many accepted moves each event accounted for.
func (v *Validator) Moves() map[statekit.EventType]int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return maps.Clone(v.ctx.Moves)
}

// Stop halts the interpreter.
func (v *Validator) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.interp.Stop()
}
