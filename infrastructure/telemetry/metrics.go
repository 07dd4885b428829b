// Package telemetry records OpenTelemetry metrics for simulation runs.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/felixgeelhaar/heatshift/domain/agent"
	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/houseowner"
	"github.com/felixgeelhaar/heatshift/domain/trigger"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	transitions   metric.Int64Counter
	installations metric.Int64Counter
	abandonments  metric.Int64Counter
	triggers      metric.Int64Counter
	checkpoints   metric.Int64Counter
	errors        metric.Int64Counter

	// Histograms
	stepDuration metric.Float64Histogram
	runDuration  metric.Float64Histogram

	// Gauges
	activeRuns  metric.Int64UpDownCounter
	stagePeople metric.Int64Gauge
	queueLength metric.Int64Gauge

	initOnce sync.Once
	initErr  error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter (default: "github.com/felixgeelhaar/heatshift").
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/felixgeelhaar/heatshift",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a metrics provider on the global meter provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config = DefaultMetricsConfig()
	}

	meter := otel.GetMeterProvider().Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	mp := &MetricsProvider{meter: meter}
	mp.initOnce.Do(func() {
		mp.initErr = mp.initInstruments()
	})
	return mp
}

func (mp *MetricsProvider) initInstruments() error {
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&mp.transitions, "heatshift.houseowner.transitions", "Stage transitions of houseowners", "{transition}"},
		{&mp.installations, "heatshift.installations", "Heating systems installed", "{installation}"},
		{&mp.abandonments, "heatshift.abandonments", "Decisions ended without an installation", "{decision}"},
		{&mp.triggers, "heatshift.triggers", "Scenario triggers fired", "{trigger}"},
		{&mp.checkpoints, "heatshift.checkpoints", "Checkpoints saved", "{checkpoint}"},
		{&mp.errors, "heatshift.errors", "Number of errors", "{error}"},
	}
	for _, c := range counters {
		*c.dst, err = mp.meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return err
		}
	}

	mp.stepDuration, err = mp.meter.Float64Histogram(
		"heatshift.step.duration",
		metric.WithDescription("Wall time of one simulated week"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.runDuration, err = mp.meter.Float64Histogram(
		"heatshift.run.duration",
		metric.WithDescription("Wall time of a simulation run"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.activeRuns, err = mp.meter.Int64UpDownCounter(
		"heatshift.runs.active",
		metric.WithDescription("Number of running simulations"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return err
	}

	mp.stagePeople, err = mp.meter.Int64Gauge(
		"heatshift.houseowners",
		metric.WithDescription("Houseowners per decision stage"),
		metric.WithUnit("{houseowner}"),
	)
	if err != nil {
		return err
	}

	mp.queueLength, err = mp.meter.Int64Gauge(
		"heatshift.intermediary.queue",
		metric.WithDescription("Jobs waiting at an intermediary"),
		metric.WithUnit("{job}"),
	)
	return err
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordTransition records a houseowner moving between positions.
func (mp *MetricsProvider) RecordTransition(ctx context.Context, from, to agent.Position, reason string) {
	mp.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage.from", string(from.Stage)),
		attribute.String("stage.to", string(to.Stage)),
		attribute.String("reason", reason),
	))
}

// RecordInstallation records a new heating system.
func (mp *MetricsProvider) RecordInstallation(ctx context.Context, t heating.Type) {
	mp.installations.Add(ctx, 1, metric.WithAttributes(attribute.String("system", string(t))))
}

// RecordAbandonment records a decision that ended without an installation.
func (mp *MetricsProvider) RecordAbandonment(ctx context.Context, t heating.Type, stage agent.Stage, o houseowner.Obstacle) {
	mp.abandonments.Add(ctx, 1, metric.WithAttributes(
		attribute.String("system", string(t)),
		attribute.String("stage", string(stage)),
		attribute.String("obstacle", string(o)),
	))
}

// RecordTriggers records n houseowners hit by a scenario trigger.
func (mp *MetricsProvider) RecordTriggers(ctx context.Context, k trigger.Kind, n int) {
	mp.triggers.Add(ctx, int64(n), metric.WithAttributes(attribute.String("trigger", string(k))))
}

// RecordCheckpoint records a saved checkpoint.
func (mp *MetricsProvider) RecordCheckpoint(ctx context.Context, backend string) {
	mp.checkpoints.Add(ctx, 1, metric.WithAttributes(attribute.String("backend", backend)))
}

// RecordError records an error.
func (mp *MetricsProvider) RecordError(ctx context.Context, errorType string) {
	mp.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("error.type", errorType)))
}

// RecordStep records the duration of one step and the stage populations
// after it.
func (mp *MetricsProvider) RecordStep(ctx context.Context, duration time.Duration, stages map[agent.Stage]int) {
	mp.stepDuration.Record(ctx, float64(duration.Milliseconds()))
	for _, s := range agent.AllStages() {
		mp.stagePeople.Record(ctx, int64(stages[s]), metric.WithAttributes(attribute.String("stage", string(s))))
	}
}

// RecordQueue records the queue length of an intermediary.
func (mp *MetricsProvider) RecordQueue(ctx context.Context, intermediary string, length int) {
	mp.queueLength.Record(ctx, int64(length), metric.WithAttributes(attribute.String("intermediary", intermediary)))
}

// RecordRunDuration records the duration of a simulation run.
func (mp *MetricsProvider) RecordRunDuration(ctx context.Context, duration time.Duration, success bool) {
	mp.runDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attribute.Bool("success", success)))
}

// IncrementActiveRuns increments the active runs counter.
func (mp *MetricsProvider) IncrementActiveRuns(ctx context.Context) {
	mp.activeRuns.Add(ctx, 1)
}

// DecrementActiveRuns decrements the active runs counter.
func (mp *MetricsProvider) DecrementActiveRuns(ctx context.Context) {
	mp.activeRuns.Add(ctx, -1)
}

// Observer adapts the provider to houseowner events, recording under ctx.
func (mp *MetricsProvider) Observer(ctx context.Context) houseowner.Observer {
	return observer{ctx: ctx, m: mp}
}

type observer struct {
	ctx context.Context
	m   Metrics
}

func (o observer) Transitioned(_ string, from, to agent.Position, reason string) {
	o.m.RecordTransition(o.ctx, from, to, reason)
}

func (o observer) Installed(_ string, t heating.Type, _ int) {
	o.m.RecordInstallation(o.ctx, t)
}

func (o observer) Abandoned(_ string, t heating.Type, stage agent.Stage, ob houseowner.Obstacle) {
	o.m.RecordAbandonment(o.ctx, t, stage, ob)
}

// NoopMetricsProvider is a no-op metrics provider for when metrics are disabled.
type NoopMetricsProvider struct{}

// RecordTransition is a no-op.
func (NoopMetricsProvider) RecordTransition(context.Context, agent.Position, agent.Position, string) {}

// RecordInstallation is a no-op.
func (NoopMetricsProvider) RecordInstallation(context.Context, heating.Type) {}

// RecordAbandonment is a no-op.
func (NoopMetricsProvider) RecordAbandonment(context.Context, heating.Type, agent.Stage, houseowner.Obstacle) {
}

// RecordTriggers is a no-op.
func (NoopMetricsProvider) RecordTriggers(context.Context, trigger.Kind, int) {}

// RecordCheckpoint is a no-op.
func (NoopMetricsProvider) RecordCheckpoint(context.Context, string) {}

// RecordError is a no-op.
func (NoopMetricsProvider) RecordError(context.Context, string) {}

// RecordStep is a no-op.
func (NoopMetricsProvider) RecordStep(context.Context, time.Duration, map[agent.Stage]int) {}

// RecordQueue is a no-op.
func (NoopMetricsProvider) RecordQueue(context.Context, string, int) {}

// RecordRunDuration is a no-op.
func (NoopMetricsProvider) RecordRunDuration(context.Context, time.Duration, bool) {}

// IncrementActiveRuns is a no-op.
func (NoopMetricsProvider) IncrementActiveRuns(context.Context) {}

// DecrementActiveRuns is a no-op.
func (NoopMetricsProvider) DecrementActiveRuns(context.Context) {}

// Observer returns an observer that records nothing.
func (n NoopMetricsProvider) Observer(ctx context.Context) houseowner.Observer {
	return observer{ctx: ctx, m: n}
}

// Metrics defines the interface for metrics recording.
type Metrics interface {
	RecordTransition(ctx context.Context, from, to agent.Position, reason string)
	RecordInstallation(ctx context.Context, t heating.Type)
	RecordAbandonment(ctx context.Context, t heating.Type, stage agent.Stage, o houseowner.Obstacle)
	RecordTriggers(ctx context.Context, k trigger.Kind, n int)
	RecordCheckpoint(ctx context.Context, backend string)
	RecordError(ctx context.Context, errorType string)
	RecordStep(ctx context.Context, duration time.Duration, stages map[agent.Stage]int)
	RecordQueue(ctx context.Context, intermediary string, length int)
	RecordRunDuration(ctx context.Context, duration time.Duration, success bool)
	IncrementActiveRuns(ctx context.Context)
	DecrementActiveRuns(ctx context.Context)
	Observer(ctx context.Context) houseowner.Observer
}

// Ensure implementations satisfy the interface.
var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = NoopMetricsProvider{}
)
