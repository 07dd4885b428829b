package telemetry

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/felixgeelhaar/heatshift/domain/agent"
	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/houseowner"
	"github.com/felixgeelhaar/heatshift/domain/trigger"
)

// setupTestMetrics installs a meter provider backed by a manual reader.
func setupTestMetrics(t *testing.T) (*metric.ManualReader, *MetricsProvider) {
	t.Helper()
	reader := metric.NewManualReader()
	otel.SetMeterProvider(metric.NewMeterProvider(metric.WithReader(reader)))
	t.Cleanup(func() { reader.Shutdown(context.Background()) })

	mp := NewMetricsProvider(DefaultMetricsConfig())
	if mp.Error() != nil {
		t.Fatalf("failed to create metrics provider: %v", mp.Error())
	}
	return reader, mp
}

func collect(t *testing.T, reader *metric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) (total int64, points []metricdata.DataPoint[int64]) {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected Sum[int64], got %T", m.Name, m.Data)
	}
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total, sum.DataPoints
}

func TestMetricsProvider_Observer(t *testing.T) {
	reader, mp := setupTestMetrics(t)
	obs := mp.Observer(context.Background())

	obs.Transitioned("h1", agent.Inactive, agent.Predecisional, "lifetime")
	obs.Transitioned("h1", agent.Predecisional, agent.Preactional, "evaluate")
	obs.Installed("h1", heating.HeatPump, 9)
	obs.Abandoned("h2", heating.Gas, agent.StageActional, houseowner.ObstacleWaitingTime)
	obs.Abandoned("h3", heating.Gas, agent.StageActional, houseowner.ObstacleWaitingTime)

	metrics := collect(t, reader)

	if total, _ := sumOf(t, metrics["heatshift.houseowner.transitions"]); total != 2 {
		t.Errorf("transitions = %d, want 2", total)
	}
	if total, points := sumOf(t, metrics["heatshift.installations"]); total != 1 {
		t.Errorf("installations = %d, want 1", total)
	} else if v, _ := points[0].Attributes.Value("system"); v.AsString() != "heat_pump" {
		t.Errorf("installation system = %q", v.AsString())
	}
	total, points := sumOf(t, metrics["heatshift.abandonments"])
	if total != 2 || len(points) != 1 {
		t.Fatalf("abandonments = %d over %d series, want 2 over 1", total, len(points))
	}
	if v, _ := points[0].Attributes.Value(attribute.Key("obstacle")); v.AsString() != "waiting_time" {
		t.Errorf("obstacle = %q", v.AsString())
	}
}

func TestMetricsProvider_RecordStep(t *testing.T) {
	reader, mp := setupTestMetrics(t)
	ctx := context.Background()

	mp.RecordStep(ctx, 12*time.Millisecond, map[agent.Stage]int{agent.StageNone: 7, agent.StageActional: 3})
	mp.RecordQueue(ctx, "plumber-1", 4)

	metrics := collect(t, reader)

	gauge, ok := metrics["heatshift.houseowners"].Data.(metricdata.Gauge[int64])
	if !ok {
		t.Fatalf("houseowners: expected Gauge[int64], got %T", metrics["heatshift.houseowners"].Data)
	}
	if len(gauge.DataPoints) != len(agent.AllStages()) {
		t.Errorf("stage series = %d, want one per stage", len(gauge.DataPoints))
	}
	for _, dp := range gauge.DataPoints {
		v, _ := dp.Attributes.Value("stage")
		want := map[string]int64{"none": 7, "actional": 3}[v.AsString()]
		if dp.Value != want {
			t.Errorf("stage %s = %d, want %d", v.AsString(), dp.Value, want)
		}
	}

	hist, ok := metrics["heatshift.step.duration"].Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 {
		t.Errorf("step duration = %+v", metrics["heatshift.step.duration"].Data)
	}
	if _, ok := metrics["heatshift.intermediary.queue"]; !ok {
		t.Error("heatshift.intermediary.queue metric not found")
	}
}

func TestMetricsProvider_Counters(t *testing.T) {
	reader, mp := setupTestMetrics(t)
	ctx := context.Background()

	mp.RecordTriggers(ctx, trigger.InformationCampaign, 12)
	mp.RecordCheckpoint(ctx, "badger")
	mp.RecordError(ctx, "checkpoint")
	mp.IncrementActiveRuns(ctx)
	mp.IncrementActiveRuns(ctx)
	mp.DecrementActiveRuns(ctx)
	mp.RecordRunDuration(ctx, time.Second, true)

	metrics := collect(t, reader)

	tests := map[string]int64{
		"heatshift.triggers":    12,
		"heatshift.checkpoints": 1,
		"heatshift.errors":      1,
		"heatshift.runs.active": 1,
	}
	for name, want := range tests {
		if got, _ := sumOf(t, metrics[name]); got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}
	if _, ok := metrics["heatshift.run.duration"]; !ok {
		t.Error("heatshift.run.duration metric not found")
	}
}

func TestNoopMetricsProvider(t *testing.T) {
	t.Parallel()

	var m Metrics = NoopMetricsProvider{}
	ctx := context.Background()
	m.RecordStep(ctx, time.Millisecond, nil)
	m.RecordTriggers(ctx, trigger.Breakdown, 1)
	m.Observer(ctx).Installed("h1", heating.Oil, 1)
}
