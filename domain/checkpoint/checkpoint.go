// Package checkpoint provides the persisted state of a simulation run and
// the domain interface for storing it.
package checkpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/heatshift/domain/houseowner"
	"github.com/felixgeelhaar/heatshift/domain/intermediary"
	"github.com/felixgeelhaar/heatshift/domain/ledger"
	"github.com/felixgeelhaar/heatshift/domain/scenario"
)

// Checkpoint is everything needed to continue a run after Step: the agents,
// the random stream and the ledger so far.
type Checkpoint struct {
	RunID string `json:"run_id"`
	// Step is the number of completed steps.
	Step int    `json:"step"`
	Seed uint64 `json:"seed"`
	// RNG is the marshalled state of the run's PCG source.
	RNG []byte `json:"rng"`

	Houseowners []houseowner.Snapshot          `json:"houseowners"`
	Plumbers    []intermediary.PlumberSnapshot `json:"plumbers"`
	Advisors    []intermediary.AdvisorSnapshot `json:"advisors"`
	// Network is the outgoing adjacency of the social graph.
	Network map[string][]string `json:"network"`
	// Impacts are the scenario impacts already applied.
	Impacts []scenario.Impact `json:"impacts,omitempty"`
	Ledger  []ledger.Entry    `json:"ledger,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the checkpoint can be restored.
func (c *Checkpoint) Validate() error {
	switch {
	case c.RunID == "":
		return ErrInvalidRunID
	case c.Step < 0:
		return fmt.Errorf("%w: negative step %d", ErrInvalidCheckpoint, c.Step)
	case len(c.RNG) == 0:
		return fmt.Errorf("%w: %s at step %d has no random state", ErrInvalidCheckpoint, c.RunID, c.Step)
	case len(c.Houseowners) == 0:
		return fmt.Errorf("%w: %s at step %d has no houseowners", ErrInvalidCheckpoint, c.RunID, c.Step)
	}
	return nil
}

// Info describes a stored checkpoint without its payload.
type Info struct {
	RunID     string    `json:"run_id"`
	Step      int       `json:"step"`
	CreatedAt time.Time `json:"created_at"`
}

// Store defines the interface for checkpoint persistence.
// Implementations may be in-memory, SQLite, Badger, PostgreSQL or Redis.
type Store interface {
	// Save persists a checkpoint, replacing one of the same run and step.
	Save(ctx context.Context, c *Checkpoint) error

	// Load retrieves the checkpoint of a run at step.
	Load(ctx context.Context, runID string, step int) (*Checkpoint, error)

	// Latest retrieves the checkpoint with the highest step of a run.
	Latest(ctx context.Context, runID string) (*Checkpoint, error)

	// List describes the checkpoints of a run in step order.
	List(ctx context.Context, runID string) ([]Info, error)

	// Delete removes every checkpoint of a run.
	Delete(ctx context.Context, runID string) error
}
