package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgloader "github.com/felixgeelhaar/heatshift/infrastructure/config"
)

type exportSchemaOptions struct {
	outputPath string
}

// newExportSchemaCmd writes the JSON Schema of scenario files, so editors
// can check populations, impacts and intermediaries while they are written.
func (a *App) newExportSchemaCmd() *cobra.Command {
	opts := &exportSchemaOptions{}

	cmd := &cobra.Command{
		Use:   "export-schema",
		Short: "Export the JSON Schema of scenario files",
		Long: `Export the JSON Schema (draft 2020-12) that scenario files are checked
against: run length and seed, population and network, milieus, plumbers and
advisors, scheduled impacts, storage and telemetry.

Examples:
  # Print the schema
  heatshift export-schema

  # Write it next to the scenarios
  heatshift export-schema -o scenarios/heatshift.schema.json

  # Let VS Code check scenario files, in .vscode/settings.json:
  # "yaml.schemas": {
  #   "./scenarios/heatshift.schema.json": ["scenarios/*.yaml"]
  # }`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.exportSchema(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "schema file to write (default: stdout)")

	return cmd
}

func (a *App) exportSchema(opts *exportSchemaOptions) error {
	schemaJSON, err := cfgloader.SchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate scenario schema: %w", err)
	}

	if opts.outputPath == "" {
		_, _ = fmt.Fprintln(a.stdout, schemaJSON)
		return nil
	}

	if err := os.WriteFile(opts.outputPath, []byte(schemaJSON), 0o600); err != nil {
		return fmt.Errorf("failed to write scenario schema: %w", err)
	}

	_, _ = fmt.Fprintf(a.stdout, "Scenario schema written to %s\n", opts.outputPath)
	return nil
}
