package application_test

import (
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/felixgeelhaar/heatshift/application"
	"github.com/felixgeelhaar/heatshift/infrastructure/storage/memory"
	"github.com/felixgeelhaar/heatshift/infrastructure/telemetry"
)

func TestWithStore(t *testing.T) {
	t.Parallel()

	store := memory.NewCheckpointStore()
	opts := &application.Options{}

	application.WithStore(store, "memory")(opts)

	if opts.Store != store {
		t.Error("WithStore should set the store")
	}
	if opts.Backend != "memory" {
		t.Errorf("Backend = %q, want memory", opts.Backend)
	}
}

func TestWithTracer(t *testing.T) {
	t.Parallel()

	tracer := noop.NewTracerProvider().Tracer("test")
	opts := &application.Options{}

	application.WithTracer(tracer)(opts)

	if opts.Tracer != tracer {
		t.Error("WithTracer should set the tracer")
	}
}

func TestWithMetrics(t *testing.T) {
	t.Parallel()

	opts := &application.Options{}
	application.WithMetrics(telemetry.NoopMetricsProvider{})(opts)

	if _, ok := opts.Metrics.(telemetry.NoopMetricsProvider); !ok {
		t.Errorf("Metrics = %T, want NoopMetricsProvider", opts.Metrics)
	}
}

func TestWithClock(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	opts := &application.Options{}
	application.WithClock(func() time.Time { return fixed })(opts)

	if got := opts.Clock(); !got.Equal(fixed) {
		t.Errorf("Clock() = %v, want %v", got, fixed)
	}
}

func TestWithRunID(t *testing.T) {
	t.Parallel()

	opts := &application.Options{}
	application.WithRunID("run-1")(opts)

	if opts.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", opts.RunID)
	}
}
