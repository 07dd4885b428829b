package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/felixgeelhaar/heatshift/application"
	"github.com/felixgeelhaar/heatshift/domain/checkpoint"
	"github.com/felixgeelhaar/heatshift/domain/config"
	cfgloader "github.com/felixgeelhaar/heatshift/infrastructure/config"
	"github.com/felixgeelhaar/heatshift/infrastructure/logging"
	"github.com/felixgeelhaar/heatshift/infrastructure/observability"
	"github.com/felixgeelhaar/heatshift/infrastructure/resilience"
	"github.com/felixgeelhaar/heatshift/infrastructure/storage"
	"github.com/felixgeelhaar/heatshift/infrastructure/telemetry"
)

// runtime holds the infrastructure a command builds from a configuration.
type runtime struct {
	store    checkpoint.Store
	backend  string
	handle   *storage.Handle
	provider *observability.Provider
	metrics  telemetry.Metrics
	reader   *sdkmetric.ManualReader
	meters   *sdkmetric.MeterProvider
}

// loadConfig reads and validates the configuration at path.
func loadConfig(path string, strict bool) (*config.SimulationConfig, error) {
	opts := []cfgloader.LoaderOption{cfgloader.WithValidation(true)}
	if strict {
		opts = append(opts, cfgloader.WithStrictEnv(true))
	}
	cfg, err := cfgloader.NewLoaderWithOptions(opts...).LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// initLogging points the default logger at stderr. verbose lowers the level
// to debug.
func (a *App) initLogging(cfg *config.SimulationConfig, verbose bool) {
	logging.Init(logging.ForRun(cfg.Logging, verbose, a.stderr))
}

// openRuntime opens the checkpoint store behind the configured resilience
// policy and sets up tracing and metrics.
func openRuntime(ctx context.Context, cfg *config.SimulationConfig) (*runtime, error) {
	handle, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Storage.Backend, err)
	}
	rt := &runtime{
		store:   resilience.NewStoreWithOptions(handle, resilience.FromConfig(cfg.Resilience)...),
		backend: handle.Backend,
		handle:  handle,
		metrics: telemetry.NoopMetricsProvider{},
	}

	opts := append([]observability.Option{observability.WithServiceVersion(Version)}, observability.FromTelemetry(cfg.Telemetry)...)
	rt.provider, err = observability.New(opts...)
	if err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	if cfg.Telemetry.Metrics {
		rt.reader = sdkmetric.NewManualReader()
		rt.meters = sdkmetric.NewMeterProvider(sdkmetric.WithReader(rt.reader))
		otel.SetMeterProvider(rt.meters)
		rt.metrics = telemetry.NewMetricsProvider(telemetry.DefaultMetricsConfig())
	}
	return rt, nil
}

// options returns the simulation options for this runtime.
func (rt *runtime) options() []application.Option {
	return []application.Option{
		application.WithStore(rt.store, rt.backend),
		application.WithTracer(rt.provider.Tracer()),
		application.WithMetrics(rt.metrics),
	}
}

// collectMetrics reduces the recorded metrics to one number per instrument:
// the sum of counters, the last gauge values and the observation count of
// histograms.
func (rt *runtime) collectMetrics(ctx context.Context) (map[string]float64, error) {
	if rt.reader == nil {
		return nil, nil
	}
	var rm metricdata.ResourceMetrics
	if err := rt.reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch d := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, p := range d.DataPoints {
					out[m.Name] += float64(p.Value)
				}
			case metricdata.Gauge[int64]:
				for _, p := range d.DataPoints {
					out[m.Name] += float64(p.Value)
				}
			case metricdata.Histogram[float64]:
				for _, p := range d.DataPoints {
					out[m.Name] += float64(p.Count)
				}
			}
		}
	}
	return out, nil
}

func (rt *runtime) close(ctx context.Context) error {
	var errs []error
	if rt.meters != nil {
		errs = append(errs, rt.meters.Shutdown(ctx))
	}
	errs = append(errs, rt.provider.Shutdown(ctx), rt.handle.Close())
	return errors.Join(errs...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
