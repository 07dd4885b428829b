package config

import (
	"encoding/json"

	"github.com/felixgeelhaar/heatshift/domain/config"
	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/scenario"
)

// JSONSchema represents a JSON Schema document.
type JSONSchema struct {
	Schema               string                 `json:"$schema,omitempty"`
	ID                   string                 `json:"$id,omitempty"`
	Title                string                 `json:"title,omitempty"`
	Description          string                 `json:"description,omitempty"`
	Type                 string                 `json:"type,omitempty"`
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Items                *JSONSchema            `json:"items,omitempty"`
	AdditionalProperties *JSONSchema            `json:"additionalProperties,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	Default              any                    `json:"default,omitempty"`
	Minimum              *float64               `json:"minimum,omitempty"`
	Maximum              *float64               `json:"maximum,omitempty"`
	Pattern              string                 `json:"pattern,omitempty"`
}

var heatingTypes = []string{
	string(heating.Oil),
	string(heating.Gas),
	string(heating.HeatPump),
	string(heating.HeatPumpBrine),
	string(heating.Electricity),
	string(heating.Pellet),
	string(heating.DistrictHeating),
	string(heating.LocalNetwork),
}

// durationPattern matches the strings accepted by time.ParseDuration.
const durationPattern = `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`

// GenerateSchema generates a JSON Schema for SimulationConfig.
func GenerateSchema() *JSONSchema {
	d := config.Defaults()
	return &JSONSchema{
		Schema:      "https://json-schema.org/draft/2020-12/schema",
		ID:          "https://github.com/felixgeelhaar/heatshift/simulation.schema.json",
		Title:       "Heatshift Simulation",
		Description: "Configuration of a heating-system adoption simulation",
		Type:        "object",
		Required:    []string{"name", "version"},
		Properties: map[string]*JSONSchema{
			"name":        {Type: "string", Description: "Human-readable name of the run", Default: d.Name},
			"version":     {Type: "string", Description: "Configuration schema version", Default: d.Version},
			"description": {Type: "string"},
			"run":         runSchema(d),
			"population":  populationSchema(d),
			"behaviour":   behaviourSchema(),
			"milieus": {
				Type:                 "object",
				Description:          "Complete milieu profiles replacing the built-in ones, keyed by milieu",
				AdditionalProperties: &JSONSchema{Type: "object"},
			},
			"catalog": {
				Type:        "array",
				Description: "Heating system specs replacing or extending the built-in catalogue",
				Items: &JSONSchema{
					Type:     "object",
					Required: []string{"type", "pricing"},
					Properties: map[string]*JSONSchema{
						"type":    {Type: "string"},
						"pricing": {Type: "string", Enum: []string{string(heating.PricingHeatLoad), string(heating.PricingArea)}},
					},
				},
			},
			"subsidies":  {Type: "array", Items: subsidySchema()},
			"plumbers":   plumbersSchema(d),
			"advisors":   advisorsSchema(d),
			"scenario":   scenarioSchema(),
			"storage":    storageSchema(),
			"resilience": resilienceSchema(d),
			"telemetry":  telemetrySchema(),
			"logging": {
				Type: "object",
				Properties: map[string]*JSONSchema{
					"level":  {Type: "string", Enum: []string{"trace", "debug", "info", "warn", "error"}, Default: d.Logging.Level},
					"format": {Type: "string", Enum: []string{"json", "console"}, Default: d.Logging.Format},
				},
			},
		},
	}
}

func runSchema(d *config.SimulationConfig) *JSONSchema {
	return &JSONSchema{
		Type:     "object",
		Required: []string{"steps"},
		Properties: map[string]*JSONSchema{
			"seed":                {Type: "integer", Description: "Seed of the run's random stream", Default: d.Run.Seed, Minimum: floatPtr(0)},
			"steps":               {Type: "integer", Description: "Number of weekly steps", Default: d.Run.Steps, Minimum: floatPtr(0)},
			"checkpoint_interval": {Type: "integer", Description: "Steps between checkpoints, 0 disables them", Default: d.Run.CheckpointInterval, Minimum: floatPtr(0)},
			"record_transitions":  {Type: "boolean", Description: "Write every stage transition to the ledger"},
		},
	}
}

func populationSchema(d *config.SimulationConfig) *JSONSchema {
	return &JSONSchema{
		Type:     "object",
		Required: []string{"size"},
		Properties: map[string]*JSONSchema{
			"size":           {Type: "integer", Default: d.Population.Size, Minimum: floatPtr(1)},
			"network_degree": {Type: "integer", Description: "Neighbours each houseowner listens to", Default: d.Population.NetworkDegree, Minimum: floatPtr(0)},
			"initial_systems": {
				Type:                 "object",
				Description:          "Relative share of each installed system at start",
				AdditionalProperties: &JSONSchema{Type: "number", Minimum: floatPtr(0)},
			},
			"area_min":         {Type: "number", Default: d.Population.AreaMin, Minimum: floatPtr(0)},
			"area_max":         {Type: "number", Default: d.Population.AreaMax},
			"demand_min":       {Type: "number", Default: d.Population.DemandMin, Minimum: floatPtr(0)},
			"demand_max":       {Type: "number", Default: d.Population.DemandMax},
			"full_load_hours":  {Type: "number", Default: d.Population.FullLoadHours, Minimum: floatPtr(1)},
			"ownership_change": {Type: "number", Description: "Weekly probability a house changes hands", Minimum: floatPtr(0), Maximum: floatPtr(1)},
		},
	}
}

func behaviourSchema() *JSONSchema {
	probability := func(desc string) *JSONSchema {
		return &JSONSchema{Type: "number", Description: desc, Minimum: floatPtr(0), Maximum: floatPtr(1)}
	}
	return &JSONSchema{
		Type:        "object",
		Description: "Overrides of the decision model's constants; zero keeps the default",
		Properties: map[string]*JSONSchema{
			"costs":                       {Type: "object", Description: "Cognitive cost of each decision activity"},
			"meeting_probability":         probability("Chance two neighbours talk in a week"),
			"tie_threshold":               {Type: "number", Minimum: floatPtr(1)},
			"max_wait_weeks":              {Type: "integer", Minimum: floatPtr(0)},
			"phase_out_weeks":             {Type: "integer", Minimum: floatPtr(0)},
			"jealousy_age":                {Type: "integer", Minimum: floatPtr(0)},
			"loan_rate":                   {Type: "number", Minimum: floatPtr(0)},
			"uncertainty_lower":           probability(""),
			"uncertainty_upper":           probability(""),
			"subsidy_finding_probability": probability(""),
			"insulation_threshold":        {Type: "number", Minimum: floatPtr(0)},
			"default_infeasible":          {Type: "array", Items: &JSONSchema{Type: "string", Enum: heatingTypes}},
			"adoptive_type":               {Type: "string", Enum: heatingTypes},
			"magazine_content":            {Type: "array", Items: &JSONSchema{Type: "string", Enum: heatingTypes}},
			"distortion":                  probability("Relative error of magazine figures"),
		},
	}
}

func subsidySchema() *JSONSchema {
	return &JSONSchema{
		Type:     "object",
		Required: []string{"technology", "share"},
		Properties: map[string]*JSONSchema{
			"name":       {Type: "string"},
			"technology": {Type: "string", Description: "Heating type, or * for any"},
			"share":      {Type: "number", Minimum: floatPtr(0), Maximum: floatPtr(1)},
			"condition":  {Type: "object"},
		},
	}
}

func plumbersSchema(d *config.SimulationConfig) *JSONSchema {
	return &JSONSchema{
		Type: "object",
		Properties: map[string]*JSONSchema{
			"count":                 {Type: "integer", Default: d.Plumbers.Count, Minimum: floatPtr(0)},
			"known":                 {Type: "array", Items: &JSONSchema{Type: "string", Enum: heatingTypes}},
			"consultation_duration": {Type: "integer", Default: d.Plumbers.ConsultationDuration, Minimum: floatPtr(0)},
			"installation_duration": {Type: "integer", Default: d.Plumbers.InstallationDuration, Minimum: floatPtr(0)},
			"max_concurrent_jobs":   {Type: "integer", Default: d.Plumbers.MaxConcurrentJobs, Minimum: floatPtr(1)},
			"share_client_systems":  {Type: "boolean"},
		},
	}
}

func advisorsSchema(d *config.SimulationConfig) *JSONSchema {
	return &JSONSchema{
		Type: "object",
		Properties: map[string]*JSONSchema{
			"count":                 {Type: "integer", Default: d.Advisors.Count, Minimum: floatPtr(0)},
			"consultation_duration": {Type: "integer", Default: d.Advisors.ConsultationDuration, Minimum: floatPtr(0)},
			"max_concurrent_jobs":   {Type: "integer", Default: d.Advisors.MaxConcurrentJobs, Minimum: floatPtr(1)},
		},
	}
}

func scenarioSchema() *JSONSchema {
	return &JSONSchema{
		Type: "object",
		Properties: map[string]*JSONSchema{
			"name": {Type: "string"},
			"impacts": {
				Type: "array",
				Items: &JSONSchema{
					Type:     "object",
					Required: []string{"step", "kind"},
					Properties: map[string]*JSONSchema{
						"step": {Type: "integer", Minimum: floatPtr(0)},
						"kind": {Type: "string", Enum: []string{
							string(scenario.KindTrigger),
							string(scenario.KindSubsidyAdd),
							string(scenario.KindSubsidyRemove),
							string(scenario.KindFuelPrice),
							string(scenario.KindBan),
						}},
						"trigger":    {Type: "object"},
						"share":      {Type: "number", Description: "Share of inactive houseowners hit by a trigger", Minimum: floatPtr(0), Maximum: floatPtr(1)},
						"subsidy":    subsidySchema(),
						"name":       {Type: "string", Description: "Subsidy to remove"},
						"technology": {Type: "string", Enum: heatingTypes},
						"factor":     {Type: "number", Minimum: floatPtr(0)},
						"from":       {Type: "integer", Description: "Step a ban takes effect"},
					},
				},
			},
		},
	}
}

func storageSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Where checkpoints and the ledger are kept",
		Properties: map[string]*JSONSchema{
			"backend": {Type: "string", Default: config.BackendMemory, Enum: []string{
				config.BackendMemory, config.BackendSQLite, config.BackendBadger, config.BackendPostgres, config.BackendRedis,
			}},
			"path":       {Type: "string", Description: "File or directory for sqlite and badger"},
			"dsn":        {Type: "string", Description: "Postgres connection string or redis:// URL"},
			"address":    {Type: "string", Description: "Redis address"},
			"key_prefix": {Type: "string", Description: "Key namespace for redis and badger"},
			"ttl":        {Type: "string", Pattern: durationPattern},
		},
	}
}

func resilienceSchema(d *config.SimulationConfig) *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Retry and circuit breaking around checkpoint storage",
		Properties: map[string]*JSONSchema{
			"retry": {
				Type: "object",
				Properties: map[string]*JSONSchema{
					"enabled":       {Type: "boolean"},
					"max_attempts":  {Type: "integer", Default: d.Resilience.Retry.MaxAttempts, Minimum: floatPtr(1)},
					"initial_delay": {Type: "string", Pattern: durationPattern},
					"multiplier":    {Type: "number", Default: d.Resilience.Retry.Multiplier, Minimum: floatPtr(1)},
				},
			},
			"circuit_breaker": {
				Type: "object",
				Properties: map[string]*JSONSchema{
					"enabled":   {Type: "boolean"},
					"threshold": {Type: "integer", Default: d.Resilience.CircuitBreaker.Threshold, Minimum: floatPtr(1)},
					"timeout":   {Type: "string", Pattern: durationPattern},
				},
			},
		},
	}
}

func telemetrySchema() *JSONSchema {
	return &JSONSchema{
		Type: "object",
		Properties: map[string]*JSONSchema{
			"metrics": {Type: "boolean"},
			"tracing": {
				Type: "object",
				Properties: map[string]*JSONSchema{
					"enabled":     {Type: "boolean"},
					"exporter":    {Type: "string", Enum: []string{config.ExporterStdout, config.ExporterOTLP}},
					"endpoint":    {Type: "string"},
					"insecure":    {Type: "boolean"},
					"sample_rate": {Type: "number", Minimum: floatPtr(0), Maximum: floatPtr(1)},
				},
			},
		},
	}
}

func floatPtr(f float64) *float64 {
	return &f
}

// SchemaJSON returns the schema as indented JSON.
func SchemaJSON() (string, error) {
	data, err := json.MarshalIndent(GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
