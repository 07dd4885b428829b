package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/heatshift/domain/checkpoint"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Host != "localhost" || cfg.Port != 5432 || cfg.Database != "heatshift" {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
	if cfg.MaxConnLifetime != time.Hour {
		t.Errorf("MaxConnLifetime = %v, want %v", cfg.MaxConnLifetime, time.Hour)
	}
	if cfg.Schema != "public" {
		t.Errorf("Schema = %s, want public", cfg.Schema)
	}
}

func TestConfig_ConnectionString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		opts     []ConfigOption
		expected string
	}{
		{
			name:     "default config",
			expected: "host=localhost port=5432 dbname=heatshift user=postgres password= sslmode=disable",
		},
		{
			name: "custom config",
			opts: []ConfigOption{
				WithHost("db.example.com"),
				WithPort(5433),
				WithDatabase("scenarios"),
				WithCredentials("sim", "p@ss=word"),
				WithSSLMode("require"),
			},
			expected: "host=db.example.com port=5433 dbname=scenarios user=sim password=p@ss=word sslmode=require",
		},
		{
			name:     "dsn wins",
			opts:     []ConfigOption{WithHost("ignored"), WithDSN("postgres://u@h/db")},
			expected: "postgres://u@h/db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			for _, opt := range tt.opts {
				opt(&cfg)
			}
			if got := cfg.ConnectionString(); got != tt.expected {
				t.Errorf("ConnectionString() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestConfigOptions_Pool(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	WithPoolSize(5, 20)(&cfg)
	WithSchema("runs")(&cfg)
	if cfg.MinConns != 5 || cfg.MaxConns != 20 {
		t.Errorf("pool = %d..%d, want 5..20", cfg.MinConns, cfg.MaxConns)
	}
	if cfg.Schema != "runs" {
		t.Errorf("Schema = %s, want runs", cfg.Schema)
	}
}

func TestNewPool_BadConnectionString(t *testing.T) {
	t.Parallel()

	_, err := NewPool(context.Background(), Config{DSN: "postgres://%zz"})
	if !errors.Is(err, checkpoint.ErrConnectionFailed) {
		t.Errorf("NewPool() error = %v, want ErrConnectionFailed", err)
	}
}

func TestCheckpointStore_tableName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		schema   string
		expected string
	}{
		{"public", `"public"."checkpoints"`},
		{"", `"public"."checkpoints"`},
		{"sim", `"sim"."checkpoints"`},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			if got := NewCheckpointStore(nil, tt.schema).tableName(); got != tt.expected {
				t.Errorf("tableName() = %s, want %s", got, tt.expected)
			}
		})
	}
}

// Argument checks run before the pool is touched.
func TestCheckpointStore_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewCheckpointStore(nil, "")

	if err := store.Save(ctx, &checkpoint.Checkpoint{}); !errors.Is(err, checkpoint.ErrInvalidRunID) {
		t.Errorf("Save() error = %v, want ErrInvalidRunID", err)
	}
	if err := store.Save(ctx, &checkpoint.Checkpoint{RunID: "r", RNG: []byte{1}}); !errors.Is(err, checkpoint.ErrInvalidCheckpoint) {
		t.Errorf("Save() error = %v, want ErrInvalidCheckpoint", err)
	}
	if _, err := store.Load(ctx, "", 0); !errors.Is(err, checkpoint.ErrInvalidRunID) {
		t.Errorf("Load() error = %v, want ErrInvalidRunID", err)
	}
	if _, err := store.Latest(ctx, ""); !errors.Is(err, checkpoint.ErrInvalidRunID) {
		t.Errorf("Latest() error = %v, want ErrInvalidRunID", err)
	}
	if _, err := store.List(ctx, ""); !errors.Is(err, checkpoint.ErrInvalidRunID) {
		t.Errorf("List() error = %v, want ErrInvalidRunID", err)
	}
	if err := store.Delete(ctx, ""); !errors.Is(err, checkpoint.ErrInvalidRunID) {
		t.Errorf("Delete() error = %v, want ErrInvalidRunID", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := store.Load(cancelled, "r", 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestCheckpointStore_wrapError(t *testing.T) {
	t.Parallel()

	store := NewCheckpointStore(nil, "")
	if store.wrapError(nil) != nil {
		t.Error("wrapError(nil) != nil")
	}
	if err := store.wrapError(context.DeadlineExceeded); !errors.Is(err, context.DeadlineExceeded) || errors.Is(err, checkpoint.ErrConnectionFailed) {
		t.Errorf("wrapError(deadline) = %v", err)
	}
	if err := store.wrapError(errors.New("refused")); !errors.Is(err, checkpoint.ErrConnectionFailed) {
		t.Errorf("wrapError() = %v, want ErrConnectionFailed", err)
	}
}
