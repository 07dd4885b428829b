package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/heatshift/domain/config"
	cfgloader "github.com/felixgeelhaar/heatshift/infrastructure/config"
	"github.com/felixgeelhaar/heatshift/infrastructure/logging"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	configPath string
	strict     bool
	showSchema bool
	watch      bool
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate a simulation configuration file for correctness.

This command checks:
  - File format (YAML or JSON)
  - Population, pool and catalogue constraints
  - Milieu profiles and subsidy rules
  - Scenario impacts
  - Environment variable references (in strict mode)

With --watch the file is validated again every time it is saved, until the
command is interrupted.

Examples:
  # Validate a configuration file
  heatshift validate -c scenario.yaml

  # Keep validating while editing
  heatshift validate -c scenario.yaml --watch

  # Show the JSON schema for configuration
  heatshift validate --schema`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showSchema {
				return a.showConfigSchema()
			}
			if err := a.validateConfig(opts); err != nil && !opts.watch {
				return err
			}
			if opts.watch {
				return a.watchConfig(cmd.Context(), opts)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Enable strict validation (fail on missing env vars)")
	cmd.Flags().BoolVar(&opts.showSchema, "schema", false, "Show JSON schema for configuration")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Validate again whenever the file changes")

	return cmd
}

// validateConfig validates the configuration file.
func (a *App) validateConfig(opts *validateOptions) error {
	if opts.configPath == "" {
		return fmt.Errorf("configuration file path is required (-c flag)")
	}

	cfg, err := loadConfig(opts.configPath, opts.strict)
	if err != nil {
		fmt.Fprintf(a.stderr, "✗ %v\n", err)
		return fmt.Errorf("validation failed: %w", err)
	}
	a.printValid(cfg)
	return nil
}

func (a *App) printValid(cfg *config.SimulationConfig) {
	fmt.Fprintf(a.stdout, "✓ Configuration is valid\n")
	fmt.Fprintf(a.stdout, "  Name: %s\n", cfg.Name)
	fmt.Fprintf(a.stdout, "  Version: %s\n", cfg.Version)
	if cfg.Description != "" {
		fmt.Fprintf(a.stdout, "  Description: %s\n", cfg.Description)
	}

	fmt.Fprintf(a.stdout, "\nConfiguration summary:\n")
	fmt.Fprintf(a.stdout, "  Seed: %d\n", cfg.Run.Seed)
	fmt.Fprintf(a.stdout, "  Steps: %d\n", cfg.Run.Steps)
	fmt.Fprintf(a.stdout, "  Houseowners: %d (network degree %d)\n", cfg.Population.Size, cfg.Population.NetworkDegree)
	fmt.Fprintf(a.stdout, "  Plumbers: %d\n", cfg.Plumbers.Count)
	fmt.Fprintf(a.stdout, "  Energy advisors: %d\n", cfg.Advisors.Count)
	fmt.Fprintf(a.stdout, "  Technologies: %d\n", len(cfg.Specs()))
	fmt.Fprintf(a.stdout, "  Milieus: %d\n", len(cfg.Profiles()))

	if len(cfg.Subsidies) > 0 {
		fmt.Fprintf(a.stdout, "  Subsidies: %d\n", len(cfg.Subsidies))
		for _, s := range cfg.Subsidies {
			fmt.Fprintf(a.stdout, "    - %s (%s, %.0f%%)\n", s.Name, s.Technology, s.Share*100)
		}
	}
	if len(cfg.Scenario.Impacts) > 0 {
		fmt.Fprintf(a.stdout, "  Scenario impacts: %d\n", len(cfg.Scenario.Impacts))
		for _, i := range cfg.Scenario.Impacts {
			fmt.Fprintf(a.stdout, "    - step %d: %s\n", i.Step, i.Describe())
		}
	}
	backend := cfg.Storage.Backend
	if backend == "" {
		backend = config.BackendMemory
	}
	fmt.Fprintf(a.stdout, "  Checkpoints: every %d steps to %s\n", cfg.Run.CheckpointInterval, backend)
}

// watchConfig validates the file on every change until ctx ends.
func (a *App) watchConfig(ctx context.Context, opts *validateOptions) error {
	loaderOpts := []cfgloader.LoaderOption{cfgloader.WithValidation(true)}
	if opts.strict {
		loaderOpts = append(loaderOpts, cfgloader.WithStrictEnv(true))
	}

	w, err := cfgloader.NewWatcher(opts.configPath, cfgloader.NewLoaderWithOptions(loaderOpts...),
		func(cfg *config.SimulationConfig, err error) {
			if err != nil {
				fmt.Fprintf(a.stderr, "✗ %v\n", err)
				return
			}
			a.printValid(cfg)
		})
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: "info", Format: "console", Output: a.stderr})
	logging.Info().
		Add(logging.Str("path", opts.configPath)).
		Msg("watching configuration")

	w.Start(ctx)
	<-ctx.Done()
	return w.Stop()
}

// showConfigSchema displays the JSON schema for configuration.
func (a *App) showConfigSchema() error {
	schemaJSON, err := cfgloader.SchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	fmt.Fprintln(a.stdout, schemaJSON)
	return nil
}
