// Package config provides the schema of a simulation configuration.
package config

import (
	"maps"
	"time"

	"github.com/felixgeelhaar/heatshift/domain/finance"
	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/houseowner"
	"github.com/felixgeelhaar/heatshift/domain/milieu"
	"github.com/felixgeelhaar/heatshift/domain/scenario"
)

// SimulationConfig represents the complete configuration of a run.
type SimulationConfig struct {
	// Name is a human-readable name for this configuration.
	Name string `json:"name" yaml:"name"`
	// Version is the configuration schema version.
	Version string `json:"version" yaml:"version"`
	// Description describes the experiment.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Run contains seed, length and checkpointing.
	Run RunConfig `json:"run" yaml:"run"`
	// Population describes the houseowners, their houses and network.
	Population PopulationConfig `json:"population" yaml:"population"`
	// Behaviour holds the population-wide decision constants.
	Behaviour BehaviourConfig `json:"behaviour,omitempty" yaml:"behaviour,omitempty"`
	// Milieus replaces built-in milieu profiles by type.
	Milieus map[milieu.Type]milieu.Profile `json:"milieus,omitempty" yaml:"milieus,omitempty"`
	// Catalog replaces built-in technology specs by type.
	Catalog []heating.Spec `json:"catalog,omitempty" yaml:"catalog,omitempty"`
	// Subsidies are the rules in force at the start of the run.
	Subsidies []finance.Subsidy `json:"subsidies,omitempty" yaml:"subsidies,omitempty"`
	// Plumbers configures the plumber pool.
	Plumbers PlumberPoolConfig `json:"plumbers" yaml:"plumbers"`
	// Advisors configures the energy-advisor pool.
	Advisors AdvisorPoolConfig `json:"advisors" yaml:"advisors"`
	// Scenario lists timed interventions.
	Scenario scenario.Scenario `json:"scenario,omitempty" yaml:"scenario,omitempty"`

	// Storage selects the checkpoint store.
	Storage StorageConfig `json:"storage,omitempty" yaml:"storage,omitempty"`
	// Resilience wraps checkpoint persistence.
	Resilience ResilienceConfig `json:"resilience,omitempty" yaml:"resilience,omitempty"`
	// Telemetry configures metrics and tracing.
	Telemetry TelemetryConfig `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`
	// Logging configures the logger.
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// RunConfig controls a run.
type RunConfig struct {
	// Seed seeds every random draw of the run.
	Seed uint64 `json:"seed" yaml:"seed"`
	// Steps is the number of simulated weeks.
	Steps int `json:"steps" yaml:"steps"`
	// CheckpointInterval saves a checkpoint every n steps; 0 disables.
	CheckpointInterval int `json:"checkpoint_interval,omitempty" yaml:"checkpoint_interval,omitempty"`
	// RecordTransitions keeps every stage transition in the ledger.
	RecordTransitions bool `json:"record_transitions,omitempty" yaml:"record_transitions,omitempty"`
}

// PopulationConfig describes the houseowners.
type PopulationConfig struct {
	// Size is the number of houseowners.
	Size int `json:"size" yaml:"size"`
	// NetworkDegree is the number of outgoing links per houseowner.
	NetworkDegree int `json:"network_degree" yaml:"network_degree"`
	// InitialSystems is the installed-base share per technology.
	InitialSystems map[heating.Type]float64 `json:"initial_systems" yaml:"initial_systems"`
	// AreaMin and AreaMax bound the living area in m².
	AreaMin float64 `json:"area_min" yaml:"area_min"`
	AreaMax float64 `json:"area_max" yaml:"area_max"`
	// DemandMin and DemandMax bound the specific demand in kWh/m²a.
	DemandMin float64 `json:"demand_min" yaml:"demand_min"`
	DemandMax float64 `json:"demand_max" yaml:"demand_max"`
	// FullLoadHours converts annual demand into heat load.
	FullLoadHours float64 `json:"full_load_hours" yaml:"full_load_hours"`
	// OwnershipChange is the weekly chance a house is sold to a new owner.
	OwnershipChange float64 `json:"ownership_change,omitempty" yaml:"ownership_change,omitempty"`
}

// BehaviourConfig overrides decision constants. Zero values keep the
// built-in defaults.
type BehaviourConfig struct {
	Costs                     *houseowner.Costs `json:"costs,omitempty" yaml:"costs,omitempty"`
	MeetingProbability        float64           `json:"meeting_probability,omitempty" yaml:"meeting_probability,omitempty"`
	TieThreshold              float64           `json:"tie_threshold,omitempty" yaml:"tie_threshold,omitempty"`
	MaxWaitWeeks              int               `json:"max_wait_weeks,omitempty" yaml:"max_wait_weeks,omitempty"`
	PhaseOutWeeks             int               `json:"phase_out_weeks,omitempty" yaml:"phase_out_weeks,omitempty"`
	JealousyAge               int               `json:"jealousy_age,omitempty" yaml:"jealousy_age,omitempty"`
	LoanRate                  float64           `json:"loan_rate,omitempty" yaml:"loan_rate,omitempty"`
	UncertaintyLower          float64           `json:"uncertainty_lower,omitempty" yaml:"uncertainty_lower,omitempty"`
	UncertaintyUpper          float64           `json:"uncertainty_upper,omitempty" yaml:"uncertainty_upper,omitempty"`
	SubsidyFindingProbability float64           `json:"subsidy_finding_probability,omitempty" yaml:"subsidy_finding_probability,omitempty"`
	InsulationThreshold       float64           `json:"insulation_threshold,omitempty" yaml:"insulation_threshold,omitempty"`
	DefaultInfeasible         []heating.Type    `json:"default_infeasible,omitempty" yaml:"default_infeasible,omitempty"`
	AdoptiveType              heating.Type      `json:"adoptive_type,omitempty" yaml:"adoptive_type,omitempty"`
	// MagazineContent lists what the magazine source writes about.
	MagazineContent []heating.Type `json:"magazine_content,omitempty" yaml:"magazine_content,omitempty"`
	// Distortion is the maximum misperception of impersonal sources.
	Distortion float64 `json:"distortion,omitempty" yaml:"distortion,omitempty"`
}

// Settings overlays the configured constants on the defaults.
func (b BehaviourConfig) Settings() houseowner.Settings {
	s := houseowner.DefaultSettings()
	if b.Costs != nil {
		s.Costs = *b.Costs
	}
	setIf(&s.MeetingProbability, b.MeetingProbability)
	setIf(&s.TieThreshold, b.TieThreshold)
	setIf(&s.MaxWaitWeeks, b.MaxWaitWeeks)
	setIf(&s.PhaseOutWeeks, b.PhaseOutWeeks)
	setIf(&s.JealousyAge, b.JealousyAge)
	setIf(&s.LoanRate, b.LoanRate)
	setIf(&s.UncertaintyLower, b.UncertaintyLower)
	setIf(&s.UncertaintyUpper, b.UncertaintyUpper)
	setIf(&s.SubsidyFindingProbability, b.SubsidyFindingProbability)
	setIf(&s.InsulationThreshold, b.InsulationThreshold)
	if len(b.DefaultInfeasible) > 0 {
		s.DefaultInfeasible = b.DefaultInfeasible
	}
	s.AdoptiveType = b.AdoptiveType
	return s
}

func setIf[T int | float64](dst *T, v T) {
	if v != 0 {
		*dst = v
	}
}

// PlumberPoolConfig configures identical plumbers.
type PlumberPoolConfig struct {
	Count                int            `json:"count" yaml:"count"`
	Known                []heating.Type `json:"known" yaml:"known"`
	ConsultationDuration int            `json:"consultation_duration" yaml:"consultation_duration"`
	InstallationDuration int            `json:"installation_duration" yaml:"installation_duration"`
	MaxConcurrentJobs    int            `json:"max_concurrent_jobs" yaml:"max_concurrent_jobs"`
	ShareClientSystems   bool           `json:"share_client_systems,omitempty" yaml:"share_client_systems,omitempty"`
}

// AdvisorPoolConfig configures identical energy advisors.
type AdvisorPoolConfig struct {
	Count                int `json:"count" yaml:"count"`
	ConsultationDuration int `json:"consultation_duration" yaml:"consultation_duration"`
	MaxConcurrentJobs    int `json:"max_concurrent_jobs" yaml:"max_concurrent_jobs"`
}

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// StorageConfig selects where checkpoints go.
type StorageConfig struct {
	// Backend is one of memory, sqlite, badger, postgres, redis.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	// Path is the sqlite file or badger directory.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// DSN is the postgres connection string or a redis:// URL.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	// Address is the redis address.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
	// KeyPrefix namespaces redis and badger keys.
	KeyPrefix string `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
	// TTL expires redis checkpoints; zero keeps them.
	TTL Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

// ResilienceConfig contains resilience settings.
type ResilienceConfig struct {
	// Retry configures retry behavior.
	Retry RetryConfig `json:"retry,omitempty" yaml:"retry,omitempty"`
	// CircuitBreaker configures circuit breaker behavior.
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker,omitempty" yaml:"circuit_breaker,omitempty"`
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// Enabled enables retry.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// MaxAttempts is the maximum retry attempts.
	MaxAttempts int `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	// InitialDelay is the first retry delay.
	InitialDelay Duration `json:"initial_delay,omitempty" yaml:"initial_delay,omitempty"`
	// Multiplier is the backoff multiplier.
	Multiplier float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
}

// CircuitBreakerConfig configures circuit breaker behavior.
type CircuitBreakerConfig struct {
	// Enabled enables circuit breaker.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Threshold is failures before opening.
	Threshold int `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	// Timeout is how long the circuit stays open.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// TelemetryConfig configures metrics and tracing.
type TelemetryConfig struct {
	// Metrics enables the otel metric instruments.
	Metrics bool `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	// Tracing configures span export.
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`
}

// Trace exporters.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled  bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Exporter string `json:"exporter,omitempty" yaml:"exporter,omitempty"`
	// Endpoint is the OTLP collector address.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Insecure bool   `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	// SampleRate is the fraction of traces kept.
	SampleRate float64 `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is json or console.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Profiles returns the built-in milieu profiles with the configured ones
// replacing them by type.
func (c *SimulationConfig) Profiles() map[milieu.Type]milieu.Profile {
	profiles := milieu.DefaultProfiles()
	maps.Copy(profiles, c.Milieus)
	return profiles
}

// Specs returns the built-in technology specs with the configured ones
// replacing or extending them by type.
func (c *SimulationConfig) Specs() []heating.Spec {
	specs := heating.DefaultSpecs()
	for _, override := range c.Catalog {
		replaced := false
		for i := range specs {
			if specs[i].Type == override.Type {
				specs[i] = override
				replaced = true
			}
		}
		if !replaced {
			specs = append(specs, override)
		}
	}
	return specs
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
