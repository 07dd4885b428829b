package config

import (
	"encoding/json"
	"slices"
	"testing"
)

func TestGenerateSchema(t *testing.T) {
	s := GenerateSchema()

	if s.Type != "object" || !slices.Equal(s.Required, []string{"name", "version"}) {
		t.Errorf("root = %s %v", s.Type, s.Required)
	}
	for _, key := range []string{"run", "population", "behaviour", "catalog", "subsidies", "plumbers", "advisors", "scenario", "storage", "resilience", "telemetry", "logging"} {
		if s.Properties[key] == nil {
			t.Errorf("missing property %q", key)
		}
	}

	backends := s.Properties["storage"].Properties["backend"].Enum
	if !slices.Contains(backends, "badger") || !slices.Contains(backends, "postgres") {
		t.Errorf("storage backends = %v", backends)
	}
	kinds := s.Properties["scenario"].Properties["impacts"].Items.Properties["kind"].Enum
	if len(kinds) != 5 {
		t.Errorf("impact kinds = %v", kinds)
	}
}

func TestSchemaJSON(t *testing.T) {
	out, err := SchemaJSON()
	if err != nil {
		t.Fatalf("SchemaJSON() error = %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	if doc["$schema"] != "https://json-schema.org/draft/2020-12/schema" {
		t.Errorf("$schema = %v", doc["$schema"])
	}
}
