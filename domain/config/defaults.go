package config

import (
	"time"

	"github.com/felixgeelhaar/heatshift/domain/heating"
)

// Defaults returns a runnable configuration: a small population over the
// built-in catalogue and milieus, kept in memory.
func Defaults() *SimulationConfig {
	return &SimulationConfig{
		Name:    "heatshift",
		Version: "1",
		Run: RunConfig{
			Seed:               1,
			Steps:              520,
			CheckpointInterval: 52,
		},
		Population: PopulationConfig{
			Size:          200,
			NetworkDegree: 4,
			InitialSystems: map[heating.Type]float64{
				heating.Oil:         0.25,
				heating.Gas:         0.55,
				heating.HeatPump:    0.1,
				heating.Electricity: 0.05,
				heating.Pellet:      0.05,
			},
			AreaMin:       70,
			AreaMax:       180,
			DemandMin:     60,
			DemandMax:     240,
			FullLoadHours: 820,
		},
		Plumbers: PlumberPoolConfig{
			Count:                5,
			Known:                []heating.Type{heating.Oil, heating.Gas, heating.HeatPump, heating.Electricity, heating.Pellet},
			ConsultationDuration: 1,
			InstallationDuration: 2,
			MaxConcurrentJobs:    2,
		},
		Advisors: AdvisorPoolConfig{
			Count:                1,
			ConsultationDuration: 2,
			MaxConcurrentJobs:    2,
		},
		Storage: StorageConfig{Backend: BackendMemory},
		Resilience: ResilienceConfig{
			Retry: RetryConfig{
				Enabled:      true,
				MaxAttempts:  3,
				InitialDelay: Duration(100 * time.Millisecond),
				Multiplier:   2,
			},
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:   true,
				Threshold: 5,
				Timeout:   Duration(30 * time.Second),
			},
		},
		Telemetry: TelemetryConfig{
			Tracing: TracingConfig{Exporter: ExporterStdout, SampleRate: 1},
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}
