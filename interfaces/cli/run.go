package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/heatshift/application"
)

// runOptions holds options for the run command.
type runOptions struct {
	configPath string
	steps      int
	seed       uint64
	resume     string
	runID      string
	verbose    bool
	jsonOutput bool
	dryRun     bool
}

// newRunCmd creates the run command.
func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation",
		Long: `Run a simulation from a configuration file.

The population is drawn from the configured seed. Checkpoints are written to
the configured store every checkpoint_interval steps and when the run is
interrupted, so an interrupted run can be continued with --resume.

Examples:
  # Run with a config file
  heatshift run -c scenario.yaml

  # Run a shorter horizon with a different seed
  heatshift run -c scenario.yaml --steps 104 --seed 7

  # Continue an interrupted run
  heatshift run -c scenario.yaml --resume 5f0c...

  # Validate and build the population without stepping
  heatshift run -c scenario.yaml --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSimulation(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (required)")
	cmd.Flags().IntVar(&opts.steps, "steps", 0, "Number of simulated weeks (overrides config)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Random seed (overrides config)")
	cmd.Flags().StringVar(&opts.resume, "resume", "", "Continue the run with this id from its latest checkpoint")
	cmd.Flags().StringVar(&opts.runID, "run-id", "", "Id for a new run (default: random)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Build the population without running it")

	_ = cmd.MarkFlagRequired("config")
	cmd.MarkFlagsMutuallyExclusive("resume", "run-id")
	cmd.MarkFlagsMutuallyExclusive("resume", "seed")

	return cmd
}

// runOutput is the JSON document the run command prints.
type runOutput struct {
	application.Result
	Duration    string             `json:"duration"`
	Interrupted bool               `json:"interrupted,omitempty"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
}

// runSimulation builds or resumes a simulation and runs it to the end.
func (a *App) runSimulation(ctx context.Context, cmd *cobra.Command, opts *runOptions) (err error) {
	cfg, err := loadConfig(opts.configPath, false)
	if err != nil {
		return err
	}
	if opts.steps > 0 {
		cfg.Run.Steps = opts.steps
	}
	if cmd.Flags().Changed("seed") {
		cfg.Run.Seed = opts.seed
	}
	a.initLogging(cfg, opts.verbose)

	rt, err := openRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, rt.close(context.WithoutCancel(ctx)))
	}()

	simOpts := rt.options()
	var sim *application.Simulation
	if opts.resume != "" {
		sim, err = application.Resume(ctx, cfg, rt.store, opts.resume, simOpts...)
	} else {
		if opts.runID != "" {
			simOpts = append(simOpts, application.WithRunID(opts.runID))
		}
		sim, err = application.NewSimulation(cfg, simOpts...)
	}
	if err != nil {
		return fmt.Errorf("failed to build simulation: %w", err)
	}
	defer sim.Close()

	if opts.verbose {
		_, _ = fmt.Fprintf(a.stdout, "Configuration loaded: %s v%s\n", cfg.Name, cfg.Version)
		if cfg.Description != "" {
			_, _ = fmt.Fprintf(a.stdout, "Description: %s\n", cfg.Description)
		}
		_, _ = fmt.Fprintf(a.stdout, "Run ID: %s\n", sim.RunID())
		_, _ = fmt.Fprintf(a.stdout, "Seed: %d\n", sim.Seed())
		_, _ = fmt.Fprintf(a.stdout, "Houseowners: %d, plumbers: %d, advisors: %d\n",
			len(sim.Houseowners()), len(sim.Plumbers()), len(sim.Advisors()))
		_, _ = fmt.Fprintf(a.stdout, "Steps: %d to %d\n", sim.Steps(), cfg.Run.Steps)
		_, _ = fmt.Fprintf(a.stdout, "Store: %s\n\n", rt.backend)
	}

	if opts.dryRun {
		_, _ = fmt.Fprintf(a.stdout, "Simulation built successfully.\n")
		return nil
	}

	start := time.Now()
	res, runErr := sim.Run(ctx)
	duration := time.Since(start)

	interrupted := errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)
	if runErr != nil && !interrupted {
		return fmt.Errorf("simulation failed at step %d: %w", res.Steps, runErr)
	}

	metrics, err := rt.collectMetrics(context.WithoutCancel(ctx))
	if err != nil {
		return fmt.Errorf("failed to collect metrics: %w", err)
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runOutput{
			Result:      res,
			Duration:    duration.String(),
			Interrupted: interrupted,
			Metrics:     metrics,
		})
	}

	a.printResult(res, duration)
	for _, name := range sortedKeys(metrics) {
		_, _ = fmt.Fprintf(a.stdout, "  %s: %g\n", name, metrics[name])
	}
	if interrupted {
		_, _ = fmt.Fprintf(a.stdout, "\nInterrupted at step %d. Continue with:\n  heatshift run -c %s --resume %s\n",
			res.Steps, opts.configPath, res.RunID)
	}
	return nil
}

// printResult writes the text summary of a run.
func (a *App) printResult(res application.Result, duration time.Duration) {
	_, _ = fmt.Fprintf(a.stdout, "Run completed\n")
	_, _ = fmt.Fprintf(a.stdout, "  Run ID: %s\n", res.RunID)
	_, _ = fmt.Fprintf(a.stdout, "  Steps: %d\n", res.Steps)
	_, _ = fmt.Fprintf(a.stdout, "  Duration: %s\n", duration)

	if len(res.Summary.Installations) > 0 {
		_, _ = fmt.Fprintf(a.stdout, "  Installations:\n")
		for _, t := range sortedKeys(res.Summary.Installations) {
			_, _ = fmt.Fprintf(a.stdout, "    - %s: %d\n", t, res.Summary.Installations[t])
		}
	}
	if len(res.Summary.Abandonments) > 0 {
		_, _ = fmt.Fprintf(a.stdout, "  Abandoned decisions:\n")
		for _, o := range sortedKeys(res.Summary.Abandonments) {
			_, _ = fmt.Fprintf(a.stdout, "    - %s: %d\n", o, res.Summary.Abandonments[o])
		}
	}

	last := res.Last
	if len(last.Shares) > 0 {
		_, _ = fmt.Fprintf(a.stdout, "  Installed base:\n")
		shares := make(map[string]float64, len(last.Shares))
		for t, s := range last.Shares {
			shares[string(t)] = s
		}
		for _, t := range sortedKeys(shares) {
			_, _ = fmt.Fprintf(a.stdout, "    - %s: %.1f%%\n", t, shares[t]*100)
		}
	}
	total := 0
	for _, n := range last.Stages {
		total += n
	}
	if total > 0 {
		_, _ = fmt.Fprintf(a.stdout, "  Deciding: %d of %d\n", last.Active(), total)
	}
}
