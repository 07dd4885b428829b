// Package cli provides the heatshift command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/heatshift"
	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/milieu"
)

// Version information, overridable at build time.
var (
	Version   = heatshift.Version
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// App is the heatshift command tree. Simulation results go to stdout and the
// run log to stderr.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer
}

// New builds the command tree.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "heatshift",
		Short: "Agent-based simulation of heating-system replacement",
		Long: `heatshift simulates how a population of houseowners decides to replace
their heating systems, advised by plumbers and energy advisors and nudged by
subsidies, fuel prices, bans and information campaigns.

Runs are reproducible from their seed and can be checkpointed and resumed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newValidateCmd(),
		app.newRunCmd(),
		app.newCatalogCmd(),
		app.newInspectCmd(),
		app.newExportSchemaCmd(),
	)

	return app
}

// WithOutput redirects results and the run log.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the command line. SIGINT and SIGTERM cancel a running
// simulation; with checkpointing on it saves its state before exiting.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the command line with args instead of os.Args.
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

// newVersionCmd prints the build and the size of the built-in model.
func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and built-in model information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "heatshift version %s\n", Version)
			fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
			fmt.Fprintf(a.stdout, "  Technologies: %d\n", len(heating.DefaultCatalog().Types()))
			fmt.Fprintf(a.stdout, "  Milieus: %d\n", len(milieu.DefaultProfiles()))
		},
	}
}
