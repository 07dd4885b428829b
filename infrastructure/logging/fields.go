package logging

import (
	"strconv"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/felixgeelhaar/heatshift/domain/agent"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for simulation logging.

// RunID adds a run ID field.
func RunID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("run_id", id)
	}
}

// Step adds the simulated week.
func Step(step int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("step", step)
	}
}

// AgentID adds a houseowner id field.
func AgentID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("agent_id", id)
	}
}

// Stage adds a decision stage field.
func Stage(s agent.Stage) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("stage", string(s))
	}
}

// Transition adds from and to positions.
func Transition(from, to agent.Position) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("from", from.String()).Str("to", to.String())
	}
}

// Milieu adds a milieu field.
func Milieu(m string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("milieu", m)
	}
}

// System adds a heating technology field.
func System(t string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("system", t)
	}
}

// Obstacle adds the reason a decision was abandoned.
func Obstacle(o string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("obstacle", o)
	}
}

// Intermediary adds a plumber or advisor id.
func Intermediary(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("intermediary", id)
	}
}

// Trigger adds a trigger kind field.
func Trigger(kind string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("trigger", kind)
	}
}

// Seed adds the run seed.
func Seed(seed uint64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("seed", strconv.FormatUint(seed, 10))
	}
}

// Count adds a named count.
func Count(key string, n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int(key, n)
	}
}

// Ratio adds a named fraction.
func Ratio(key string, v float64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, strconv.FormatFloat(v, 'f', 4, 64))
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Reason adds a reason field.
func Reason(reason string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("reason", reason)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
