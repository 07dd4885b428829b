package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/felixgeelhaar/heatshift/domain/config"
)

type reload struct {
	cfg *config.SimulationConfig
	err error
}

func startWatcher(t *testing.T, path string) (*Watcher, <-chan reload) {
	t.Helper()
	ch := make(chan reload, 8)
	w, err := NewWatcher(path, nil, func(cfg *config.SimulationConfig, err error) {
		ch <- reload{cfg, err}
	})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.SetDebounce(20 * time.Millisecond)
	w.Start(context.Background())
	return w, ch
}

func await(t *testing.T, ch <-chan reload) reload {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
		return reload{}
	}
}

func TestWatcher_Reloads(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := writeFile(t, "sim.yaml", "name: first\nversion: \"1\"\n")
	w, ch := startWatcher(t, path)

	if err := os.WriteFile(path, []byte("name: second\nversion: \"1\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := await(t, ch); r.err != nil || r.cfg.Name != "second" {
		t.Errorf("reload = %+v", r)
	}

	if err := os.WriteFile(path, []byte("name: third\nversion: \"1\"\nrun:\n  steps: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := await(t, ch); !errors.Is(r.err, config.ErrValidationFailed) {
		t.Errorf("reload error = %v, want ErrValidationFailed", r.err)
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := writeFile(t, "sim.yaml", "name: first\nversion: \"1\"\n")
	w, ch := startWatcher(t, path)
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case r := <-ch:
		t.Errorf("unexpected reload %+v", r)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_ContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := writeFile(t, "sim.yaml", "name: first\nversion: \"1\"\n")
	w, err := NewWatcher(path, nil, func(*config.SimulationConfig, error) {})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	cancel()
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestNewWatcher_NilCallback(t *testing.T) {
	if _, err := NewWatcher("sim.yaml", nil, nil); err == nil {
		t.Error("NewWatcher() with nil callback should fail")
	}
}
