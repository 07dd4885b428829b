package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/heatshift/domain/config"
	"github.com/felixgeelhaar/heatshift/infrastructure/storage"
	"github.com/felixgeelhaar/heatshift/infrastructure/storage/storetest"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  func(dir string) config.StorageConfig
		want string
	}{
		{"default", func(string) config.StorageConfig { return config.StorageConfig{} }, config.BackendMemory},
		{"memory", func(string) config.StorageConfig {
			return config.StorageConfig{Backend: config.BackendMemory}
		}, config.BackendMemory},
		{"sqlite", func(dir string) config.StorageConfig {
			return config.StorageConfig{Backend: config.BackendSQLite, Path: filepath.Join(dir, "cp.db")}
		}, config.BackendSQLite},
		{"badger", func(dir string) config.StorageConfig {
			return config.StorageConfig{Backend: config.BackendBadger, Path: filepath.Join(dir, "badger")}
		}, config.BackendBadger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			h, err := storage.Open(ctx, tt.cfg(t.TempDir()))
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer h.Close()

			if h.Backend != tt.want {
				t.Errorf("Backend = %s, want %s", h.Backend, tt.want)
			}
			if err := h.Save(ctx, storetest.NewCheckpoint("run-1", 1)); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if _, err := h.Latest(ctx, "run-1"); err != nil {
				t.Errorf("Latest() error = %v", err)
			}
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	t.Parallel()

	_, err := storage.Open(context.Background(), config.StorageConfig{Backend: "tape"})
	if !errors.Is(err, storage.ErrUnknownBackend) {
		t.Errorf("Open() error = %v, want ErrUnknownBackend", err)
	}
}
