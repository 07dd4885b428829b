package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testConfig = `
name: test-scenario
version: "1"
run:
  seed: 3
  steps: 6
  checkpoint_interval: 3
population:
  size: 20
  network_degree: 2
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

// badgerConfig stores checkpoints in a temporary badger directory so they
// outlive a single command.
func badgerConfig(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "checkpoints")
	return writeConfig(t, testConfig+`
storage:
  backend: badger
  path: `+dir+`
`)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)
	err := app.ExecuteWithArgs(context.Background(), args)
	return stdout.String(), err
}

func TestApp_Version(t *testing.T) {
	output, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	for _, want := range []string{"heatshift version", "Technologies:", "Milieus:"} {
		if !strings.Contains(output, want) {
			t.Errorf("version output missing %q, got: %s", want, output)
		}
	}
}

func TestApp_Help(t *testing.T) {
	output, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("help command failed: %v", err)
	}
	for _, want := range []string{"heating systems", "run", "validate", "inspect", "catalog"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q, got: %s", want, output)
		}
	}
}

func TestApp_Validate(t *testing.T) {
	output, err := execute(t, "validate", "-c", writeConfig(t, testConfig))
	if err != nil {
		t.Fatalf("validate command failed: %v", err)
	}
	for _, want := range []string{"valid", "test-scenario", "Houseowners: 20"} {
		if !strings.Contains(output, want) {
			t.Errorf("validate output missing %q, got: %s", want, output)
		}
	}
}

func TestApp_ValidateInvalid(t *testing.T) {
	path := writeConfig(t, `
name: broken
population:
  size: 0
`)
	if _, err := execute(t, "validate", "-c", path); err == nil {
		t.Error("expected validation error for empty population")
	}
}

func TestApp_ValidateRequiresConfig(t *testing.T) {
	if _, err := execute(t, "validate"); err == nil {
		t.Error("expected error without -c")
	}
}

func TestApp_ValidateShowSchema(t *testing.T) {
	output, err := execute(t, "validate", "--schema")
	if err != nil {
		t.Fatalf("validate --schema failed: %v", err)
	}
	if !strings.Contains(output, `"$schema"`) {
		t.Errorf("schema output missing $schema, got: %s", output)
	}
}

func TestApp_ExportSchemaToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "schema.json")
	if _, err := execute(t, "export-schema", "-o", out); err != nil {
		t.Fatalf("export-schema failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read schema: %v", err)
	}
	if !json.Valid(data) {
		t.Error("exported schema is not valid JSON")
	}
}

func TestApp_Catalog(t *testing.T) {
	output, err := execute(t, "catalog", "-c", writeConfig(t, testConfig), "--json")
	if err != nil {
		t.Fatalf("catalog command failed: %v", err)
	}
	var infos []technologyInfo
	if err := json.Unmarshal([]byte(output), &infos); err != nil {
		t.Fatalf("catalog output is not JSON: %v\n%s", err, output)
	}
	if len(infos) == 0 {
		t.Fatal("catalog lists no technologies")
	}
	for _, info := range infos {
		if info.Attributes.Value("price") <= 0 {
			t.Errorf("%s has no price", info.Type)
		}
	}
}

func TestApp_RunDryRun(t *testing.T) {
	output, err := execute(t, "run", "-c", writeConfig(t, testConfig), "--dry-run")
	if err != nil {
		t.Fatalf("run --dry-run failed: %v", err)
	}
	if !strings.Contains(output, "built successfully") {
		t.Errorf("dry-run output unexpected: %s", output)
	}
}

func TestApp_RunJSON(t *testing.T) {
	output, err := execute(t, "run", "-c", writeConfig(t, testConfig), "--json", "--run-id", "cli-json")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	var got struct {
		RunID   string `json:"run_id"`
		Steps   int    `json:"steps"`
		Summary struct {
			Completed bool `json:"completed"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(output), &got); err != nil {
		t.Fatalf("run output is not JSON: %v\n%s", err, output)
	}
	if got.RunID != "cli-json" || got.Steps != 6 || !got.Summary.Completed {
		t.Errorf("run result = %+v", got)
	}
}

func TestApp_RunText(t *testing.T) {
	output, err := execute(t, "run", "-c", writeConfig(t, testConfig), "--steps", "2")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, want := range []string{"Run completed", "Steps: 2", "Installed base"} {
		if !strings.Contains(output, want) {
			t.Errorf("run output missing %q, got: %s", want, output)
		}
	}
}

func TestApp_RunInspectResume(t *testing.T) {
	path := badgerConfig(t)

	if _, err := execute(t, "run", "-c", path, "--run-id", "cli-resume", "--steps", "3"); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	output, err := execute(t, "inspect", "-c", path, "--run", "cli-resume", "--json")
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	var report runReport
	if err := json.Unmarshal([]byte(output), &report); err != nil {
		t.Fatalf("inspect output is not JSON: %v\n%s", err, output)
	}
	if report.Step != 3 || report.Population == nil || report.Population.Houseowners != 20 {
		t.Errorf("inspect report = step %d, population %+v", report.Step, report.Population)
	}

	output, err = execute(t, "run", "-c", path, "--resume", "cli-resume", "--json")
	if err != nil {
		t.Fatalf("resumed run failed: %v", err)
	}
	if !strings.Contains(output, `"steps": 6`) {
		t.Errorf("resumed run did not reach step 6: %s", output)
	}

	output, err = execute(t, "inspect", "-c", path, "--run", "cli-resume", "--agent", "h00001")
	if err != nil {
		t.Fatalf("inspect --agent failed: %v", err)
	}
	if !strings.Contains(output, `"id": "h00001"`) {
		t.Errorf("agent dump missing id: %s", output)
	}
}

func TestApp_InspectUnknownSection(t *testing.T) {
	_, err := execute(t, "inspect", "-c", writeConfig(t, testConfig), "--run", "x", "--section", "nope")
	if err == nil || !strings.Contains(err.Error(), "unknown section") {
		t.Errorf("expected unknown section error, got %v", err)
	}
}
