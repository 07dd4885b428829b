package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/felixgeelhaar/heatshift/domain/checkpoint"
	"github.com/felixgeelhaar/heatshift/domain/config"
	"github.com/felixgeelhaar/heatshift/domain/houseowner"
	"github.com/felixgeelhaar/heatshift/domain/intermediary"
	"github.com/felixgeelhaar/heatshift/domain/ledger"
	"github.com/felixgeelhaar/heatshift/domain/network"
	"github.com/felixgeelhaar/heatshift/infrastructure/logging"
	"github.com/felixgeelhaar/heatshift/infrastructure/observability"
)

// Result describes a finished or interrupted run.
type Result struct {
	RunID string `json:"run_id"`
	// Steps is the number of completed steps.
	Steps   int            `json:"steps"`
	Last    Stats          `json:"last"`
	Summary ledger.Summary `json:"summary"`
}

// Run steps the simulation until the configured number of steps is done,
// saving a checkpoint every checkpoint interval and at the end. A cancelled
// run saves where it stopped and returns the context error.
func (s *Simulation) Run(ctx context.Context) (res Result, err error) {
	target := s.cfg.Run.Steps
	ctx, span := observability.StartRun(ctx, s.tracer, s.runID, s.seed, target)
	defer func() { observability.End(span, err) }()

	s.metrics.IncrementActiveRuns(ctx)
	defer s.metrics.DecrementActiveRuns(ctx)
	start := s.clock()

	if s.step == 0 && s.ledger.Count() == 0 {
		s.ledger.RecordRunStarted(s.seed, len(s.owners))
	}
	logging.Info().
		Add(logging.RunID(s.runID)).
		Add(logging.Seed(s.seed)).
		Add(logging.Step(s.step)).
		Add(logging.Count("houseowners", len(s.owners))).
		Add(logging.Count("steps", target)).
		Msg("run started")

	interval := s.cfg.Run.CheckpointInterval
	saved := -1
	for s.step < target {
		if err := ctx.Err(); err != nil {
			return s.interrupt(ctx, err, interval > 0 && saved != s.step)
		}
		if _, err := s.Step(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return s.interrupt(ctx, err, interval > 0 && saved != s.step)
			}
			s.ledger.RecordRunFailed(s.step, err.Error())
			s.metrics.RecordRunDuration(ctx, s.clock().Sub(start), false)
			logging.Error().
				Add(logging.RunID(s.runID)).
				Add(logging.Step(s.step)).
				Add(logging.ErrorField(err)).
				Msg("run failed")
			return s.result(), err
		}
		if interval > 0 && s.step%interval == 0 {
			if err := s.Checkpoint(ctx); err != nil {
				return s.result(), err
			}
			saved = s.step
		}
	}

	s.ledger.RecordRunCompleted(s.step)
	if interval > 0 && saved != s.step {
		if err := s.Checkpoint(ctx); err != nil {
			return s.result(), err
		}
	}
	s.metrics.RecordRunDuration(ctx, s.clock().Sub(start), true)
	logging.Info().
		Add(logging.RunID(s.runID)).
		Add(logging.Step(s.step)).
		Add(logging.Duration(s.clock().Sub(start))).
		Msg("run completed")
	return s.result(), nil
}

// interrupt stops a cancelled run, saving its state when save is set. The
// save outlives the cancelled context.
func (s *Simulation) interrupt(ctx context.Context, cause error, save bool) (Result, error) {
	logging.Warn().
		Add(logging.RunID(s.runID)).
		Add(logging.Step(s.step)).
		Add(logging.ErrorField(cause)).
		Msg("run interrupted")
	if save {
		if err := s.Checkpoint(context.WithoutCancel(ctx)); err != nil {
			return s.result(), errors.Join(cause, err)
		}
	}
	return s.result(), cause
}

func (s *Simulation) result() Result {
	r := Result{RunID: s.runID, Steps: s.step, Summary: s.ledger.Summarize()}
	if n := len(s.history); n > 0 {
		r.Last = s.history[n-1]
	}
	return r
}

// Checkpoint saves the state after the last completed step.
func (s *Simulation) Checkpoint(ctx context.Context) error {
	rng, err := s.pcg.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal random state: %w", err)
	}
	s.ledger.RecordCheckpoint(s.step)

	cp := &checkpoint.Checkpoint{
		RunID:       s.runID,
		Step:        s.step,
		Seed:        s.seed,
		RNG:         rng,
		Houseowners: make([]houseowner.Snapshot, len(s.owners)),
		Plumbers:    make([]intermediary.PlumberSnapshot, len(s.plumbers)),
		Advisors:    make([]intermediary.AdvisorSnapshot, len(s.advisors)),
		Network:     s.net.Adjacency(),
		Impacts:     s.applied,
		Ledger:      s.ledger.Entries(),
		CreatedAt:   s.clock().UTC(),
	}
	for i, h := range s.owners {
		cp.Houseowners[i] = h.Snapshot()
	}
	for i, p := range s.plumbers {
		cp.Plumbers[i] = p.Snapshot()
	}
	for i, a := range s.advisors {
		cp.Advisors[i] = a.Snapshot()
	}

	if err := s.store.Save(ctx, cp); err != nil {
		s.metrics.RecordError(ctx, "checkpoint")
		return fmt.Errorf("save checkpoint at step %d: %w", s.step, err)
	}
	s.metrics.RecordCheckpoint(ctx, s.backend)
	logging.Debug().
		Add(logging.RunID(s.runID)).
		Add(logging.Step(s.step)).
		Add(logging.Str("backend", s.backend)).
		Msg("checkpoint saved")
	return nil
}

// Resume continues runID from its latest checkpoint in store. The catalogue
// and subsidy rules are rebuilt from cfg with the already applied impacts
// replayed; agents, network and random stream come from the checkpoint.
func Resume(ctx context.Context, cfg *config.SimulationConfig, store checkpoint.Store, runID string, opts ...Option) (*Simulation, error) {
	cp, err := store.Latest(ctx, runID)
	if err != nil {
		return nil, err
	}
	if err := cp.Validate(); err != nil {
		return nil, err
	}

	opts = append(opts, WithRunID(cp.RunID), func(o *Options) {
		o.Store = store
		if o.Backend == "" {
			o.Backend = "unknown"
		}
	})
	s, err := newBase(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.restore(cp); err != nil {
		s.Close()
		return nil, err
	}

	s.ledger.RecordRunResumed(s.step)
	logging.Info().
		Add(logging.RunID(s.runID)).
		Add(logging.Step(s.step)).
		Add(logging.Seed(s.seed)).
		Msg("run resumed")
	return s, nil
}

func (s *Simulation) restore(cp *checkpoint.Checkpoint) error {
	if cp.Seed != s.cfg.Run.Seed {
		logging.Warn().
			Add(logging.RunID(cp.RunID)).
			Add(logging.Seed(cp.Seed)).
			Msg("config seed differs from checkpoint; continuing the checkpoint's stream")
	}
	if len(cp.Plumbers) != s.cfg.Plumbers.Count || len(cp.Advisors) != s.cfg.Advisors.Count {
		return fmt.Errorf("%w: %d plumbers and %d advisors, config has %d and %d",
			ErrCheckpointMismatch, len(cp.Plumbers), len(cp.Advisors), s.cfg.Plumbers.Count, s.cfg.Advisors.Count)
	}

	s.seed = cp.Seed
	s.step = cp.Step
	// Intermediaries draw while being built; the stream is restored last.
	s.pcg = rand.NewPCG(cp.Seed, cp.Seed)
	s.rng = rand.New(s.pcg)
	s.env.Rand = s.rng

	if err := s.replayImpacts(cp.Impacts); err != nil {
		return fmt.Errorf("%w: %w", ErrCheckpointMismatch, err)
	}

	for _, snap := range cp.Houseowners {
		profile, ok := s.profiles[snap.Milieu]
		if !ok {
			return fmt.Errorf("%w: %s belongs to unknown milieu %q", ErrCheckpointMismatch, snap.ID, snap.Milieu)
		}
		h, err := houseowner.Restore(snap, profile)
		if err != nil {
			return err
		}
		s.owners = append(s.owners, h)
		s.byID[h.ID()] = h
	}

	net, err := network.FromAdjacency(cp.Network)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCheckpointMismatch, err)
	}
	s.setNetwork(net)

	if err := s.staff(); err != nil {
		return err
	}
	for i, p := range s.plumbers {
		if err := p.Restore(cp.Plumbers[i]); err != nil {
			return err
		}
	}
	for i, a := range s.advisors {
		if err := a.Restore(cp.Advisors[i]); err != nil {
			return err
		}
	}
	s.publishSubsidies()

	s.ledger = ledger.Restore(cp.RunID, cp.Ledger)
	if err := s.pcg.UnmarshalBinary(cp.RNG); err != nil {
		return fmt.Errorf("%w: random state: %w", ErrCheckpointMismatch, err)
	}
	return nil
}
