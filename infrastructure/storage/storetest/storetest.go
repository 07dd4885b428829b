// Package storetest holds the behaviour every checkpoint.Store must show.
// Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/felixgeelhaar/heatshift/domain/agent"
	"github.com/felixgeelhaar/heatshift/domain/checkpoint"
	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/houseowner"
	"github.com/felixgeelhaar/heatshift/domain/knowledge"
	"github.com/felixgeelhaar/heatshift/domain/milieu"
)

// NewCheckpoint returns a small valid checkpoint of run at step.
func NewCheckpoint(run string, step int) *checkpoint.Checkpoint {
	return &checkpoint.Checkpoint{
		RunID: run,
		Step:  step,
		Seed:  42,
		RNG:   []byte{byte(step), 1, 2, 3},
		Houseowners: []houseowner.Snapshot{{
			ID:       "h1",
			Milieu:   milieu.Mainstream,
			House:    heating.House{ID: "house-1", Area: 120, EnergyDemand: 150, HeatLoad: 22},
			Position: agent.Predecisional,
			Known:    knowledge.NewBase(),
			Budget:   9000,
		}},
		Network:   map[string][]string{"h1": {}},
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).Add(time.Duration(step) * time.Minute),
	}
}

// Run exercises store against the checkpoint.Store contract. newStore must
// return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) checkpoint.Store) {
	t.Helper()

	ctx := context.Background()
	opts := cmp.Options{
		cmpopts.EquateEmpty(),
		cmpopts.IgnoreUnexported(knowledge.Base{}),
		cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) }),
	}

	t.Run("save and load", func(t *testing.T) {
		s := newStore(t)
		want := NewCheckpoint("run-1", 3)
		if err := s.Save(ctx, want); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		got, err := s.Load(ctx, "run-1", 3)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if diff := cmp.Diff(want, got, opts); diff != "" {
			t.Errorf("Load() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("save replaces same step", func(t *testing.T) {
		s := newStore(t)
		first := NewCheckpoint("run-1", 2)
		second := NewCheckpoint("run-1", 2)
		second.Seed = 7
		for _, c := range []*checkpoint.Checkpoint{first, second} {
			if err := s.Save(ctx, c); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
		}
		got, err := s.Load(ctx, "run-1", 2)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Seed != 7 {
			t.Errorf("Seed = %d, want 7", got.Seed)
		}
		infos, err := s.List(ctx, "run-1")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(infos) != 1 {
			t.Errorf("List() len = %d, want 1", len(infos))
		}
	})

	t.Run("latest and list", func(t *testing.T) {
		s := newStore(t)
		for _, step := range []int{10, 2, 4} {
			if err := s.Save(ctx, NewCheckpoint("run-1", step)); err != nil {
				t.Fatalf("Save(%d) error = %v", step, err)
			}
		}
		if err := s.Save(ctx, NewCheckpoint("run-2", 50)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		latest, err := s.Latest(ctx, "run-1")
		if err != nil {
			t.Fatalf("Latest() error = %v", err)
		}
		if latest.Step != 10 {
			t.Errorf("Latest().Step = %d, want 10", latest.Step)
		}

		infos, err := s.List(ctx, "run-1")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		var steps []int
		for _, info := range infos {
			if info.RunID != "run-1" {
				t.Errorf("List() returned run %q", info.RunID)
			}
			steps = append(steps, info.Step)
		}
		if diff := cmp.Diff([]int{2, 4, 10}, steps); diff != "" {
			t.Errorf("List() steps mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("not found", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Load(ctx, "missing", 0); !errors.Is(err, checkpoint.ErrCheckpointNotFound) {
			t.Errorf("Load() error = %v, want ErrCheckpointNotFound", err)
		}
		if _, err := s.Latest(ctx, "missing"); !errors.Is(err, checkpoint.ErrCheckpointNotFound) {
			t.Errorf("Latest() error = %v, want ErrCheckpointNotFound", err)
		}
		infos, err := s.List(ctx, "missing")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(infos) != 0 {
			t.Errorf("List() len = %d, want 0", len(infos))
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		for _, step := range []int{1, 2} {
			if err := s.Save(ctx, NewCheckpoint("run-1", step)); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
		}
		if err := s.Save(ctx, NewCheckpoint("run-2", 1)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := s.Delete(ctx, "run-1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := s.Latest(ctx, "run-1"); !errors.Is(err, checkpoint.ErrCheckpointNotFound) {
			t.Errorf("Latest() after Delete error = %v, want ErrCheckpointNotFound", err)
		}
		if _, err := s.Load(ctx, "run-2", 1); err != nil {
			t.Errorf("Delete() removed another run: %v", err)
		}
		if err := s.Delete(ctx, "run-1"); !errors.Is(err, checkpoint.ErrCheckpointNotFound) {
			t.Errorf("second Delete() error = %v, want ErrCheckpointNotFound", err)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		s := newStore(t)
		if err := s.Save(ctx, NewCheckpoint("", 1)); !errors.Is(err, checkpoint.ErrInvalidRunID) {
			t.Errorf("Save() error = %v, want ErrInvalidRunID", err)
		}
		bad := NewCheckpoint("run-1", 1)
		bad.Houseowners = nil
		if err := s.Save(ctx, bad); !errors.Is(err, checkpoint.ErrInvalidCheckpoint) {
			t.Errorf("Save() error = %v, want ErrInvalidCheckpoint", err)
		}
		if _, err := s.Load(ctx, "", 1); !errors.Is(err, checkpoint.ErrInvalidRunID) {
			t.Errorf("Load() error = %v, want ErrInvalidRunID", err)
		}
		if _, err := s.Latest(ctx, ""); !errors.Is(err, checkpoint.ErrInvalidRunID) {
			t.Errorf("Latest() error = %v, want ErrInvalidRunID", err)
		}
		if err := s.Delete(ctx, ""); !errors.Is(err, checkpoint.ErrInvalidRunID) {
			t.Errorf("Delete() error = %v, want ErrInvalidRunID", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := newStore(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if err := s.Save(cctx, NewCheckpoint("run-1", 1)); !errors.Is(err, context.Canceled) {
			t.Errorf("Save() error = %v, want context.Canceled", err)
		}
	})
}
