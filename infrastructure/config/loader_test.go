package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/heatshift/domain/config"
	"github.com/felixgeelhaar/heatshift/domain/heating"
)

const sampleYAML = `
name: rural-north
version: "1"
run:
  seed: 42
  steps: 104
population:
  size: 50
  network_degree: 3
  initial_systems:
    oil: 0.6
    gas: 0.4
subsidies:
  - name: heat-pump-bonus
    technology: heat_pump
    share: 0.3
storage:
  backend: sqlite
  path: ${HEATSHIFT_TEST_DIR:-/tmp}/runs.db
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoader_LoadFile(t *testing.T) {
	t.Setenv("HEATSHIFT_TEST_DIR", "/data")

	cfg, err := NewLoader().LoadFile(writeFile(t, "sim.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Name != "rural-north" || cfg.Run.Seed != 42 || cfg.Run.Steps != 104 {
		t.Errorf("run = %q %+v", cfg.Name, cfg.Run)
	}
	if cfg.Population.Size != 50 || cfg.Population.InitialSystems[heating.Oil] != 0.6 {
		t.Errorf("population = %+v", cfg.Population)
	}
	if len(cfg.Subsidies) != 1 || cfg.Subsidies[0].Technology != string(heating.HeatPump) {
		t.Errorf("subsidies = %+v", cfg.Subsidies)
	}
	if cfg.Storage.Path != "/data/runs.db" {
		t.Errorf("storage path = %q, want expanded", cfg.Storage.Path)
	}

	// Fields the file leaves out keep their defaults.
	d := config.Defaults()
	if cfg.Population.AreaMin != d.Population.AreaMin || cfg.Plumbers.Count != d.Plumbers.Count {
		t.Errorf("defaults not kept: area_min %v plumbers %d", cfg.Population.AreaMin, cfg.Plumbers.Count)
	}
}

func TestLoader_LoadFile_JSON(t *testing.T) {
	path := writeFile(t, "sim.json", `{"name": "json-run", "version": "1", "run": {"seed": 3, "steps": 10}}`)

	cfg, err := NewLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Name != "json-run" || cfg.Run.Steps != 10 {
		t.Errorf("cfg = %q %+v", cfg.Name, cfg.Run)
	}
}

func TestLoader_LoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing", filepath.Join(dir, "absent.yaml"), config.ErrConfigNotFound},
		{"directory", dir, config.ErrInvalidFormat},
		{"extension", writeFile(t, "sim.toml", "name = 1"), config.ErrUnsupportedFormat},
		{"bad yaml", writeFile(t, "bad.yaml", "run: [unterminated"), config.ErrInvalidFormat},
		{"bad json", writeFile(t, "bad.json", "{"), config.ErrInvalidFormat},
		{"invalid", writeFile(t, "invalid.yaml", "name: x\nversion: \"1\"\nrun:\n  steps: -1\n"), config.ErrValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLoader().LoadFile(tt.path); !errors.Is(err, tt.want) {
				t.Errorf("LoadFile() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoader_ValidationErrorsUnwrap(t *testing.T) {
	_, err := NewLoader().LoadString("name: x\nversion: \"1\"\npopulation:\n  size: -1\n", FormatYAML)

	var errs config.ValidationErrors
	if !errors.As(err, &errs) {
		t.Fatalf("error = %v, want ValidationErrors", err)
	}
	found := false
	for _, e := range errs {
		if e.Path == "population.size" {
			found = true
		}
	}
	if !found {
		t.Errorf("errors = %v, want population.size", errs)
	}
}

func TestLoader_Options(t *testing.T) {
	doc := "name: ${HEATSHIFT_UNSET_NAME}\nversion: \"1\"\n"

	t.Run("strict", func(t *testing.T) {
		l := NewLoaderWithOptions(WithStrictEnv(true))
		if _, err := l.LoadString(doc, FormatYAML); !errors.Is(err, config.ErrMissingEnvVar) {
			t.Errorf("error = %v, want ErrMissingEnvVar", err)
		}
	})

	t.Run("expansion disabled", func(t *testing.T) {
		l := NewLoaderWithOptions(WithEnvExpansion(false))
		cfg, err := l.LoadString(doc, FormatYAML)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Name != "${HEATSHIFT_UNSET_NAME}" {
			t.Errorf("name = %q, want literal", cfg.Name)
		}
	})

	t.Run("validation disabled", func(t *testing.T) {
		l := NewLoaderWithOptions(WithValidation(false))
		cfg, err := l.LoadString("name: x\nversion: \"1\"\nrun:\n  steps: -1\n", FormatYAML)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Run.Steps != -1 {
			t.Errorf("steps = %d", cfg.Run.Steps)
		}
	})
}

func TestFormatOf(t *testing.T) {
	for path, want := range map[string]Format{"a.yaml": FormatYAML, "b.YML": FormatYAML, "c.json": FormatJSON} {
		if got, err := FormatOf(path); err != nil || got != want {
			t.Errorf("FormatOf(%q) = %q, %v", path, got, err)
		}
	}
	if _, err := FormatOf("d.ini"); !errors.Is(err, config.ErrUnsupportedFormat) {
		t.Errorf("FormatOf(d.ini) error = %v", err)
	}
}
