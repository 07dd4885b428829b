package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/heatshift/domain/checkpoint"
	"github.com/felixgeelhaar/heatshift/infrastructure/storage/memory"
	"github.com/felixgeelhaar/heatshift/infrastructure/storage/storetest"
)

func TestCheckpointStore(t *testing.T) {
	storetest.Run(t, func(*testing.T) checkpoint.Store {
		return memory.NewCheckpointStore()
	})
}

func TestCheckpointStore_IsolatesCallers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memory.NewCheckpointStore()
	c := storetest.NewCheckpoint("run-1", 1)
	if err := s.Save(ctx, c); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	c.Houseowners[0].Budget = -1

	got, err := s.Load(ctx, "run-1", 1)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Houseowners[0].Budget != 9000 {
		t.Errorf("Budget = %v, want the saved 9000", got.Houseowners[0].Budget)
	}
	got.Houseowners[0].Budget = -2

	again, err := s.Load(ctx, "run-1", 1)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if again.Houseowners[0].Budget != 9000 {
		t.Errorf("Budget = %v after mutating a loaded copy", again.Houseowners[0].Budget)
	}
}

func TestCheckpointStore_RunsAndClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memory.NewCheckpointStore()
	for _, run := range []string{"b", "a"} {
		if err := s.Save(ctx, storetest.NewCheckpoint(run, 0)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	if got := s.Runs(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Runs() = %v, want [a b]", got)
	}
	s.Clear()
	if got := s.Runs(); len(got) != 0 {
		t.Errorf("Runs() after Clear = %v", got)
	}
}

func TestCheckpointStore_StampsCreatedAt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memory.NewCheckpointStore()
	c := storetest.NewCheckpoint("run-1", 1)
	c.CreatedAt = time.Time{}
	if err := s.Save(ctx, c); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !c.CreatedAt.IsZero() {
		t.Error("Save() modified the caller's checkpoint")
	}

	infos, err := s.List(ctx, "run-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(infos) != 1 || infos[0].CreatedAt.IsZero() {
		t.Errorf("List() = %+v, want a stamped creation time", infos)
	}
}
