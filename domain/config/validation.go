package config

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/milieu"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the JSON path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates simulation configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *SimulationConfig) ValidationErrors {
	v.errors = nil

	v.validateRequired(config)
	v.validateRun(config)
	v.validatePopulation(config)
	v.validateBehaviour(config)
	v.validateMilieus(config)
	catalog := v.validateCatalog(config)
	v.validateSubsidies(config)
	v.validateIntermediaries(config, catalog)
	v.validateScenario(config)
	v.validateStorage(config)
	v.validateResilience(config)
	v.validateTelemetry(config)
	v.validateLogging(config)

	return v.errors
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) validateRequired(config *SimulationConfig) {
	if config.Name == "" {
		v.addError("name", "name is required")
	}
	if config.Version == "" {
		v.addError("version", "version is required")
	}
}

func (v *Validator) validateRun(config *SimulationConfig) {
	if config.Run.Steps < 0 {
		v.addError("run.steps", "steps must be non-negative")
	}
	if config.Run.CheckpointInterval < 0 {
		v.addError("run.checkpoint_interval", "checkpoint_interval must be non-negative")
	}
}

func (v *Validator) validatePopulation(config *SimulationConfig) {
	p := config.Population
	if p.Size <= 0 {
		v.addError("population.size", "size must be positive")
	}
	if p.NetworkDegree < 0 {
		v.addError("population.network_degree", "network_degree must be non-negative")
	} else if p.Size > 0 && p.NetworkDegree >= p.Size {
		v.addError("population.network_degree", "network_degree must be smaller than size")
	}
	if len(p.InitialSystems) == 0 {
		v.addError("population.initial_systems", "at least one initial system is required")
	}
	var sum float64
	for t, share := range p.InitialSystems {
		if share < 0 {
			v.addError(fmt.Sprintf("population.initial_systems.%s", t), "share must be non-negative")
		}
		sum += share
	}
	if len(p.InitialSystems) > 0 && math.Abs(sum-1) > 1e-6 {
		v.addError("population.initial_systems", fmt.Sprintf("shares must sum to 1, got %.4f", sum))
	}
	if p.AreaMin <= 0 || p.AreaMax < p.AreaMin {
		v.addError("population.area_min", "area range must be positive and ordered")
	}
	if p.DemandMin <= 0 || p.DemandMax < p.DemandMin {
		v.addError("population.demand_min", "demand range must be positive and ordered")
	}
	if p.FullLoadHours <= 0 {
		v.addError("population.full_load_hours", "full_load_hours must be positive")
	}
	if p.OwnershipChange < 0 || p.OwnershipChange > 1 {
		v.addError("population.ownership_change", "ownership_change must be in [0,1]")
	}
}

func (v *Validator) validateBehaviour(config *SimulationConfig) {
	b := config.Behaviour
	if b.Costs != nil {
		c := b.Costs
		if c.Evaluate < 0 || c.GetData < 0 || c.DefineChoice < 0 || c.Compare < 0 || c.Install < 0 || c.Satisfaction < 0 {
			v.addError("behaviour.costs", "costs must be non-negative")
		}
	}
	if b.MeetingProbability < 0 || b.MeetingProbability > 1 {
		v.addError("behaviour.meeting_probability", "meeting_probability must be in [0,1]")
	}
	if b.SubsidyFindingProbability < 0 || b.SubsidyFindingProbability > 1 {
		v.addError("behaviour.subsidy_finding_probability", "subsidy_finding_probability must be in [0,1]")
	}
	if b.TieThreshold != 0 && b.TieThreshold < 1 {
		v.addError("behaviour.tie_threshold", "tie_threshold must be >= 1")
	}
	s := b.Settings()
	if s.UncertaintyLower <= 0 || s.UncertaintyUpper < s.UncertaintyLower {
		v.addError("behaviour.uncertainty_lower", "uncertainty bounds must be positive and ordered")
	}
	if b.LoanRate < 0 {
		v.addError("behaviour.loan_rate", "loan_rate must be non-negative")
	}
	if b.Distortion < 0 {
		v.addError("behaviour.distortion", "distortion must be non-negative")
	}
}

func (v *Validator) validateMilieus(config *SimulationConfig) {
	for t, p := range config.Milieus {
		path := fmt.Sprintf("milieus.%s", t)
		if p.Type != t {
			v.addError(path+".type", fmt.Sprintf("profile type %q does not match key", p.Type))
			continue
		}
		if err := p.Validate(); err != nil {
			v.addError(path, err.Error())
		}
	}
	var share float64
	for _, p := range config.Profiles() {
		if p.Share < 0 {
			v.addError(fmt.Sprintf("milieus.%s.share", p.Type), "share must be non-negative")
		}
		share += p.Share
	}
	if share <= 0 {
		v.addError("milieus", "at least one milieu needs a positive share")
	}
	for _, t := range milieu.AllTypes() {
		if _, ok := config.Profiles()[t]; !ok {
			v.addError(fmt.Sprintf("milieus.%s", t), "profile is missing")
		}
	}
}

// validateCatalog returns the technology types the run will know.
func (v *Validator) validateCatalog(config *SimulationConfig) []heating.Type {
	for i, spec := range config.Catalog {
		if err := spec.Validate(); err != nil {
			v.addError(fmt.Sprintf("catalog[%d]", i), err.Error())
		}
	}
	var types []heating.Type
	for _, spec := range config.Specs() {
		types = append(types, spec.Type)
	}
	for t := range config.Population.InitialSystems {
		if !slices.Contains(types, t) {
			v.addError(fmt.Sprintf("population.initial_systems.%s", t), "unknown technology")
		}
	}
	return types
}

func (v *Validator) validateSubsidies(config *SimulationConfig) {
	for i, s := range config.Subsidies {
		if err := s.Validate(); err != nil {
			v.addError(fmt.Sprintf("subsidies[%d]", i), err.Error())
		}
	}
}

func (v *Validator) validateIntermediaries(config *SimulationConfig, catalog []heating.Type) {
	p := config.Plumbers
	if p.Count <= 0 {
		v.addError("plumbers.count", "at least one plumber is required")
	}
	if p.ConsultationDuration < 0 || p.InstallationDuration < 0 {
		v.addError("plumbers", "durations must be non-negative")
	}
	if p.MaxConcurrentJobs <= 0 {
		v.addError("plumbers.max_concurrent_jobs", "max_concurrent_jobs must be positive")
	}
	for i, t := range p.Known {
		if !slices.Contains(catalog, t) {
			v.addError(fmt.Sprintf("plumbers.known[%d]", i), fmt.Sprintf("unknown technology: %s", t))
		}
	}

	a := config.Advisors
	if a.Count < 0 {
		v.addError("advisors.count", "count must be non-negative")
	}
	if a.ConsultationDuration < 0 {
		v.addError("advisors.consultation_duration", "consultation_duration must be non-negative")
	}
	if a.Count > 0 && a.MaxConcurrentJobs <= 0 {
		v.addError("advisors.max_concurrent_jobs", "max_concurrent_jobs must be positive")
	}
}

func (v *Validator) validateScenario(config *SimulationConfig) {
	for i, impact := range config.Scenario.Impacts {
		if err := impact.Validate(); err != nil {
			v.addError(fmt.Sprintf("scenario.impacts[%d]", i), err.Error())
		}
	}
}

func (v *Validator) validateStorage(config *SimulationConfig) {
	s := config.Storage
	switch s.Backend {
	case "", BackendMemory:
	case BackendSQLite, BackendBadger:
		if s.Path == "" {
			v.addError("storage.path", fmt.Sprintf("path is required for %s", s.Backend))
		}
	case BackendPostgres:
		if s.DSN == "" {
			v.addError("storage.dsn", "dsn is required for postgres")
		}
	case BackendRedis:
		if s.Address == "" && s.DSN == "" {
			v.addError("storage.address", "address or dsn is required for redis")
		}
		if s.TTL < 0 {
			v.addError("storage.ttl", "ttl must be non-negative")
		}
	default:
		v.addError("storage.backend", fmt.Sprintf("unknown backend: %s", s.Backend))
	}
}

func (v *Validator) validateResilience(config *SimulationConfig) {
	if config.Resilience.Retry.Enabled {
		if config.Resilience.Retry.MaxAttempts <= 0 {
			v.addError("resilience.retry.max_attempts", "max_attempts must be positive when enabled")
		}
		if config.Resilience.Retry.Multiplier < 1 {
			v.addError("resilience.retry.multiplier", "multiplier must be >= 1")
		}
	}

	if config.Resilience.CircuitBreaker.Enabled {
		if config.Resilience.CircuitBreaker.Threshold <= 0 {
			v.addError("resilience.circuit_breaker.threshold", "threshold must be positive when enabled")
		}
	}
}

func (v *Validator) validateTelemetry(config *SimulationConfig) {
	t := config.Telemetry.Tracing
	if !t.Enabled {
		return
	}
	switch t.Exporter {
	case ExporterStdout:
	case ExporterOTLP:
		if t.Endpoint == "" {
			v.addError("telemetry.tracing.endpoint", "endpoint is required for otlp")
		}
	default:
		v.addError("telemetry.tracing.exporter", fmt.Sprintf("unknown exporter: %s", t.Exporter))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		v.addError("telemetry.tracing.sample_rate", "sample_rate must be in [0,1]")
	}
}

func (v *Validator) validateLogging(config *SimulationConfig) {
	switch strings.ToLower(config.Logging.Level) {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		v.addError("logging.level", fmt.Sprintf("invalid level: %s", config.Logging.Level))
	}
	switch config.Logging.Format {
	case "", "json", "console":
	default:
		v.addError("logging.format", fmt.Sprintf("invalid format: %s", config.Logging.Format))
	}
}
