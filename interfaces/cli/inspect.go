package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/heatshift/domain/checkpoint"
	"github.com/felixgeelhaar/heatshift/domain/houseowner"
	"github.com/felixgeelhaar/heatshift/domain/intermediary"
	"github.com/felixgeelhaar/heatshift/domain/ledger"
)

// inspectOptions holds options for the inspect command.
type inspectOptions struct {
	configPath string
	runID      string
	step       int
	agentID    string
	outputJSON bool
	section    string
}

// newInspectCmd creates the inspect command.
func (a *App) newInspectCmd() *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect the checkpoints of a run",
		Long: `Inspect the checkpoints a run left in the configured store.

Sections:
  all          Show everything below (default)
  checkpoints  List the stored checkpoints
  population   Show houseowners by stage and installed system
  pools        Show plumber and advisor workload
  ledger       Summarize the ledger

Examples:
  # Inspect the latest checkpoint of a run
  heatshift inspect -c scenario.yaml --run 5f0c...

  # Inspect the checkpoint after step 52
  heatshift inspect -c scenario.yaml --run 5f0c... --step 52

  # Dump one houseowner's state
  heatshift inspect -c scenario.yaml --run 5f0c... --agent h00017

  # Output as JSON
  heatshift inspect -c scenario.yaml --run 5f0c... --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.inspectRun(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (required)")
	cmd.Flags().StringVar(&opts.runID, "run", "", "Run id (required)")
	cmd.Flags().IntVar(&opts.step, "step", 0, "Checkpoint step (default: latest)")
	cmd.Flags().StringVar(&opts.agentID, "agent", "", "Show the state of one houseowner")
	cmd.Flags().BoolVar(&opts.outputJSON, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&opts.section, "section", "all", "Section to inspect (all, checkpoints, population, pools, ledger)")

	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("run")

	return cmd
}

// runReport is what inspect shows about a checkpoint.
type runReport struct {
	RunID       string              `json:"run_id"`
	Step        int                 `json:"step"`
	Seed        uint64              `json:"seed"`
	CreatedAt   time.Time           `json:"created_at"`
	Checkpoints []checkpoint.Info   `json:"checkpoints,omitempty"`
	Population  *populationReport   `json:"population,omitempty"`
	Pools       map[string]poolLoad `json:"pools,omitempty"`
	Ledger      *ledger.Summary     `json:"ledger,omitempty"`
}

type populationReport struct {
	Houseowners int            `json:"houseowners"`
	Stages      map[string]int `json:"stages"`
	Systems     map[string]int `json:"systems"`
	Milieus     map[string]int `json:"milieus"`
}

type poolLoad struct {
	Queued    int `json:"queued"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

// inspectRun loads a checkpoint and reports on it.
func (a *App) inspectRun(ctx context.Context, cmd *cobra.Command, opts *inspectOptions) (err error) {
	if !validSection(opts.section) {
		return fmt.Errorf("unknown section: %s", opts.section)
	}
	cfg, err := loadConfig(opts.configPath, false)
	if err != nil {
		return err
	}
	a.initLogging(cfg, false)

	rt, err := openRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, rt.close(context.WithoutCancel(ctx)))
	}()

	infos, err := rt.store.List(ctx, opts.runID)
	if err != nil {
		return fmt.Errorf("failed to list checkpoints: %w", err)
	}
	if len(infos) == 0 {
		return fmt.Errorf("%w: %s", checkpoint.ErrCheckpointNotFound, opts.runID)
	}

	var cp *checkpoint.Checkpoint
	if cmd.Flags().Changed("step") {
		cp, err = rt.store.Load(ctx, opts.runID, opts.step)
	} else {
		cp, err = rt.store.Latest(ctx, opts.runID)
	}
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	if opts.agentID != "" {
		return a.inspectAgent(cp, opts.agentID)
	}

	report := buildReport(cp, infos, opts.section)
	if opts.outputJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	a.printReport(report)
	return nil
}

func validSection(s string) bool {
	switch s {
	case "all", "checkpoints", "population", "pools", "ledger":
		return true
	}
	return false
}

func buildReport(cp *checkpoint.Checkpoint, infos []checkpoint.Info, section string) runReport {
	r := runReport{RunID: cp.RunID, Step: cp.Step, Seed: cp.Seed, CreatedAt: cp.CreatedAt}
	all := section == "all"

	if all || section == "checkpoints" {
		r.Checkpoints = infos
	}
	if all || section == "population" {
		p := &populationReport{
			Houseowners: len(cp.Houseowners),
			Stages:      make(map[string]int),
			Systems:     make(map[string]int),
			Milieus:     make(map[string]int),
		}
		for _, h := range cp.Houseowners {
			p.Stages[h.Position.Stage.String()]++
			if h.Current != nil {
				p.Systems[string(h.Current.Type)]++
			}
			p.Milieus[string(h.Milieu)]++
		}
		r.Population = p
	}
	if all || section == "pools" {
		r.Pools = make(map[string]poolLoad, len(cp.Plumbers)+len(cp.Advisors))
		for _, p := range cp.Plumbers {
			r.Pools[p.ID] = workload(p.Jobs)
		}
		for _, a := range cp.Advisors {
			r.Pools[a.ID] = workload(a.Jobs)
		}
	}
	if all || section == "ledger" {
		s := ledger.Restore(cp.RunID, cp.Ledger).Summarize()
		r.Ledger = &s
	}
	return r
}

func workload(w intermediary.WorkerSnapshot) poolLoad {
	l := poolLoad{Completed: w.Completed}
	for _, s := range w.Services {
		l.Queued += len(s.Queue)
	}
	for _, jobs := range w.Active {
		l.Active += len(jobs)
	}
	return l
}

func (a *App) inspectAgent(cp *checkpoint.Checkpoint, id string) error {
	var found *houseowner.Snapshot
	for i := range cp.Houseowners {
		if cp.Houseowners[i].ID == id {
			found = &cp.Houseowners[i]
			break
		}
	}
	if found == nil {
		return fmt.Errorf("no houseowner %q in %s at step %d", id, cp.RunID, cp.Step)
	}
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(found)
}

func (a *App) printReport(r runReport) {
	_, _ = fmt.Fprintf(a.stdout, "Run: %s\n", r.RunID)
	_, _ = fmt.Fprintf(a.stdout, "═══════════════════════════════════════\n")
	_, _ = fmt.Fprintf(a.stdout, "Step: %d\n", r.Step)
	_, _ = fmt.Fprintf(a.stdout, "Seed: %d\n", r.Seed)
	_, _ = fmt.Fprintf(a.stdout, "Saved: %s\n\n", r.CreatedAt.Format(time.RFC3339))

	if r.Checkpoints != nil {
		_, _ = fmt.Fprintf(a.stdout, "Checkpoints\n")
		_, _ = fmt.Fprintf(a.stdout, "───────────────────────────────────────\n")
		for _, info := range r.Checkpoints {
			_, _ = fmt.Fprintf(a.stdout, "  • step %d at %s\n", info.Step, info.CreatedAt.Format(time.RFC3339))
		}
		_, _ = fmt.Fprintln(a.stdout)
	}

	if p := r.Population; p != nil {
		_, _ = fmt.Fprintf(a.stdout, "Population (%d houseowners)\n", p.Houseowners)
		_, _ = fmt.Fprintf(a.stdout, "───────────────────────────────────────\n")
		a.printCounts("Stages", p.Stages)
		a.printCounts("Systems", p.Systems)
		a.printCounts("Milieus", p.Milieus)
		_, _ = fmt.Fprintln(a.stdout)
	}

	if r.Pools != nil {
		_, _ = fmt.Fprintf(a.stdout, "Intermediaries\n")
		_, _ = fmt.Fprintf(a.stdout, "───────────────────────────────────────\n")
		for _, id := range sortedKeys(r.Pools) {
			l := r.Pools[id]
			_, _ = fmt.Fprintf(a.stdout, "  %s: %d queued, %d in progress, %d done\n", id, l.Queued, l.Active, l.Completed)
		}
		_, _ = fmt.Fprintln(a.stdout)
	}

	if s := r.Ledger; s != nil {
		_, _ = fmt.Fprintf(a.stdout, "Ledger\n")
		_, _ = fmt.Fprintf(a.stdout, "───────────────────────────────────────\n")
		_, _ = fmt.Fprintf(a.stdout, "  Entries: %d\n", s.Entries)
		_, _ = fmt.Fprintf(a.stdout, "  Transitions: %d\n", s.Transitions)
		_, _ = fmt.Fprintf(a.stdout, "  Impacts: %d\n", s.Impacts)
		_, _ = fmt.Fprintf(a.stdout, "  Completed: %t\n", s.Completed)
		if s.Failure != "" {
			_, _ = fmt.Fprintf(a.stdout, "  Failure: %s\n", s.Failure)
		}
		a.printCounts("Installations", s.Installations)
		a.printCounts("Abandonments", s.Abandonments)
	}
}

func (a *App) printCounts(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	_, _ = fmt.Fprintf(a.stdout, "  %s:\n", title)
	for _, k := range sortedKeys(counts) {
		_, _ = fmt.Fprintf(a.stdout, "    %s: %d\n", k, counts[k])
	}
}
