package application

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/heatshift/domain/checkpoint"
	"github.com/felixgeelhaar/heatshift/domain/houseowner"
	"github.com/felixgeelhaar/heatshift/infrastructure/telemetry"
)

// Options configures a simulation beyond its SimulationConfig.
type Options struct {
	// Store receives checkpoints. Defaults to an in-memory store.
	Store checkpoint.Store
	// Backend names the store in logs and metrics.
	Backend string
	// Observer is notified of houseowner events next to the ledger.
	Observer houseowner.Observer
	Tracer   trace.Tracer
	Metrics  telemetry.Metrics
	// Clock stamps checkpoints and times steps.
	Clock func() time.Time
	// RunID overrides the generated run id.
	RunID string
}

// Option configures the simulation.
type Option func(*Options)

// WithStore sets the checkpoint store.
func WithStore(s checkpoint.Store, backend string) Option {
	return func(o *Options) {
		o.Store = s
		o.Backend = backend
	}
}

// WithObserver adds an observer of houseowner events.
func WithObserver(obs houseowner.Observer) Option {
	return func(o *Options) {
		o.Observer = obs
	}
}

// WithTracer sets the tracer for run, step and group spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *Options) {
		o.Tracer = t
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m telemetry.Metrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Clock = now
	}
}

// WithRunID fixes the run id.
func WithRunID(id string) Option {
	return func(o *Options) {
		o.RunID = id
	}
}
