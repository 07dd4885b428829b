// Package memory provides an in-memory checkpoint store for tests and
// single-process runs.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/felixgeelhaar/heatshift/domain/checkpoint"
)

type record struct {
	data      []byte
	createdAt time.Time
}

// CheckpointStore is an in-memory implementation of checkpoint.Store.
// Checkpoints are kept encoded so callers never share state with the store.
type CheckpointStore struct {
	mu   sync.RWMutex
	runs map[string]map[int]record
}

// NewCheckpointStore creates an empty store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{runs: make(map[string]map[int]record)}
}

// Save persists a checkpoint, replacing one of the same run and step.
func (s *CheckpointStore) Save(ctx context.Context, c *checkpoint.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}

	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	cp := *c
	cp.CreatedAt = created
	data, err := json.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	steps, ok := s.runs[c.RunID]
	if !ok {
		steps = make(map[int]record)
		s.runs[c.RunID] = steps
	}
	steps[c.Step] = record{data: data, createdAt: created}
	return nil
}

// Load retrieves the checkpoint of a run at step.
func (s *CheckpointStore) Load(ctx context.Context, runID string, step int) (*checkpoint.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, checkpoint.ErrInvalidRunID
	}

	s.mu.RLock()
	rec, ok := s.runs[runID][step]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s at step %d", checkpoint.ErrCheckpointNotFound, runID, step)
	}
	return decode(rec.data)
}

// Latest retrieves the checkpoint with the highest step of a run.
func (s *CheckpointStore) Latest(ctx context.Context, runID string) (*checkpoint.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, checkpoint.ErrInvalidRunID
	}

	s.mu.RLock()
	steps := s.runs[runID]
	if len(steps) == 0 {
		s.mu.RUnlock()
		return nil, fmt.Errorf("%w: %s", checkpoint.ErrCheckpointNotFound, runID)
	}
	last := slices.Max(slices.Collect(maps.Keys(steps)))
	data := steps[last].data
	s.mu.RUnlock()

	return decode(data)
}

// List describes the checkpoints of a run in step order.
func (s *CheckpointStore) List(ctx context.Context, runID string) ([]checkpoint.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, checkpoint.ErrInvalidRunID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	steps := s.runs[runID]
	infos := make([]checkpoint.Info, 0, len(steps))
	for _, step := range slices.Sorted(maps.Keys(steps)) {
		infos = append(infos, checkpoint.Info{RunID: runID, Step: step, CreatedAt: steps[step].createdAt})
	}
	return infos, nil
}

// Delete removes every checkpoint of a run.
func (s *CheckpointStore) Delete(ctx context.Context, runID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if runID == "" {
		return checkpoint.ErrInvalidRunID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[runID]; !ok {
		return fmt.Errorf("%w: %s", checkpoint.ErrCheckpointNotFound, runID)
	}
	delete(s.runs, runID)
	return nil
}

// Runs returns the IDs of runs with checkpoints, sorted.
func (s *CheckpointStore) Runs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.runs))
}

// Clear removes all checkpoints.
func (s *CheckpointStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = make(map[string]map[int]record)
}

func decode(data []byte) (*checkpoint.Checkpoint, error) {
	var c checkpoint.Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", checkpoint.ErrInvalidCheckpoint, err)
	}
	return &c, nil
}

var _ checkpoint.Store = (*CheckpointStore)(nil)
