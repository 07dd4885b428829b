package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/heatshift/domain/checkpoint"
)

func TestCheckpointStore_Keys(t *testing.T) {
	t.Parallel()

	s := NewCheckpointStoreFromClient(nil, "sim:", time.Hour)

	tests := []struct {
		got  string
		want string
	}{
		{s.dataKey("run-1", 12), "sim:checkpoint:run-1:12"},
		{s.stepsKey("run-1"), "sim:steps:run-1"},
		{s.createdKey("run-1"), "sim:created:run-1"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("key = %s, want %s", tt.got, tt.want)
		}
	}
	if s.ttl != time.Hour {
		t.Errorf("ttl = %v, want 1h", s.ttl)
	}
}

// Argument checks run before the client is touched.
func TestCheckpointStore_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewCheckpointStoreFromClient(nil, "", 0)

	if err := s.Save(ctx, &checkpoint.Checkpoint{}); !errors.Is(err, checkpoint.ErrInvalidRunID) {
		t.Errorf("Save() error = %v, want ErrInvalidRunID", err)
	}
	if err := s.Save(ctx, &checkpoint.Checkpoint{RunID: "r", Step: -1}); !errors.Is(err, checkpoint.ErrInvalidCheckpoint) {
		t.Errorf("Save() error = %v, want ErrInvalidCheckpoint", err)
	}
	if _, err := s.Load(ctx, "", 1); !errors.Is(err, checkpoint.ErrInvalidRunID) {
		t.Errorf("Load() error = %v, want ErrInvalidRunID", err)
	}
	if _, err := s.Latest(ctx, ""); !errors.Is(err, checkpoint.ErrInvalidRunID) {
		t.Errorf("Latest() error = %v, want ErrInvalidRunID", err)
	}
	if _, err := s.List(ctx, ""); !errors.Is(err, checkpoint.ErrInvalidRunID) {
		t.Errorf("List() error = %v, want ErrInvalidRunID", err)
	}
	if err := s.Delete(ctx, ""); !errors.Is(err, checkpoint.ErrInvalidRunID) {
		t.Errorf("Delete() error = %v, want ErrInvalidRunID", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := s.Latest(cancelled, "r"); !errors.Is(err, context.Canceled) {
		t.Errorf("Latest() error = %v, want context.Canceled", err)
	}
}

func TestCheckpointStore_wrapError(t *testing.T) {
	t.Parallel()

	s := NewCheckpointStoreFromClient(nil, "", 0)
	if err := s.wrapError(context.Canceled); errors.Is(err, checkpoint.ErrConnectionFailed) {
		t.Errorf("wrapError(canceled) = %v, want it unwrapped", err)
	}
	if err := s.wrapError(errors.New("i/o timeout")); !errors.Is(err, checkpoint.ErrConnectionFailed) {
		t.Errorf("wrapError() = %v, want ErrConnectionFailed", err)
	}
}
