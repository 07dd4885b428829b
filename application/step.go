package application

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/heatshift/domain/agent"
	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/houseowner"
	"github.com/felixgeelhaar/heatshift/domain/intermediary"
	"github.com/felixgeelhaar/heatshift/domain/trigger"
	"github.com/felixgeelhaar/heatshift/infrastructure/logging"
	"github.com/felixgeelhaar/heatshift/infrastructure/observability"
)

// Stats is the data collected at the end of a step.
type Stats struct {
	Step int `json:"step"`
	// Stages counts houseowners per decision stage.
	Stages map[agent.Stage]int `json:"stages"`
	// Systems counts installed systems per technology.
	Systems map[heating.Type]int `json:"systems"`
	// Shares is Systems relative to the population.
	Shares       map[heating.Type]float64   `json:"shares"`
	Satisfaction map[agent.Satisfaction]int `json:"satisfaction"`

	// Installations and Abandonments happened during the step.
	Installations map[heating.Type]int        `json:"installations"`
	Abandonments  map[houseowner.Obstacle]int `json:"abandonments"`
	Transitions   int                         `json:"transitions"`
	Triggers      map[trigger.Kind]int        `json:"triggers,omitempty"`
	OwnerChanges  int                         `json:"owner_changes,omitempty"`
	Queues        map[intermediary.Kind]int   `json:"queues"`
}

func newStats(step int) *Stats {
	return &Stats{
		Step:          step,
		Stages:        make(map[agent.Stage]int),
		Systems:       make(map[heating.Type]int),
		Shares:        make(map[heating.Type]float64),
		Satisfaction:  make(map[agent.Satisfaction]int),
		Installations: make(map[heating.Type]int),
		Abandonments:  make(map[houseowner.Obstacle]int),
		Triggers:      make(map[trigger.Kind]int),
		Queues:        make(map[intermediary.Kind]int),
	}
}

// Active returns the number of houseowners in a decision.
func (st Stats) Active() int {
	n := 0
	for stage, c := range st.Stages {
		if stage.IsActive() {
			n += c
		}
	}
	return n
}

// Step runs one simulated week:
//  1. market-wide updates: scenario impacts, bans in force, house sales;
//  2. every houseowner, then every plumber, then every advisor, each group
//     in a fresh random order;
//  3. data collection.
func (s *Simulation) Step(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	start := s.clock()
	ctx, span := observability.StartStep(ctx, s.tracer, s.step)

	st, err := s.advance(ctx)
	observability.End(span, err)
	if err != nil {
		s.metrics.RecordError(ctx, "step")
		return Stats{}, err
	}

	s.metrics.RecordStep(ctx, s.clock().Sub(start), st.Stages)
	s.history = append(s.history, st)
	s.step++

	logging.Debug().
		Add(logging.RunID(s.runID)).
		Add(logging.Step(st.Step)).
		Add(logging.Count("active", st.Active())).
		Add(logging.Count("installations", sum(st.Installations))).
		Add(logging.Duration(s.clock().Sub(start))).
		Msg("step completed")
	return st, nil
}

func (s *Simulation) advance(ctx context.Context) (Stats, error) {
	s.collect = newStats(s.step)
	s.env.Step = s.step

	if err := s.applyImpacts(ctx, s.cfg.Scenario.Due(s.step)); err != nil {
		return Stats{}, err
	}
	s.enforceBans()
	if err := s.changeOwnership(); err != nil {
		return Stats{}, err
	}
	s.market.update(s.owners)

	owners := shuffled(s, s.owners)
	if err := runGroup(ctx, s, "houseowners", owners, func(h *houseowner.Houseowner) error { return h.Step(s.env) }); err != nil {
		return Stats{}, err
	}
	plumbers := shuffled(s, s.plumbers)
	if err := runGroup(ctx, s, "plumbers", plumbers, func(p *intermediary.Plumber) error { return p.Step(s.env) }); err != nil {
		return Stats{}, err
	}
	advisors := shuffled(s, s.advisors)
	if err := runGroup(ctx, s, "advisors", advisors, func(a *intermediary.EnergyAdvisor) error { return a.Step(s.env) }); err != nil {
		return Stats{}, err
	}

	s.collectStats(ctx)
	st := *s.collect
	s.collect = nil
	return st, nil
}

func shuffled[T any](s *Simulation, in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	s.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// runGroup activates one agent group under its own span.
func runGroup[T any](ctx context.Context, s *Simulation, name string, agents []T, step func(T) error) (err error) {
	_, span := observability.StartGroup(ctx, s.tracer, name, len(agents))
	defer func() { observability.End(span, err) }()

	for _, a := range agents {
		if err := step(a); err != nil {
			return fmt.Errorf("step %d %s: %w", s.step, name, err)
		}
	}
	return nil
}

func (s *Simulation) collectStats(ctx context.Context) {
	st := s.collect
	for _, h := range s.owners {
		st.Stages[h.Position().Stage]++
		st.Systems[h.CurrentType()]++
		st.Satisfaction[h.Satisfaction()]++
	}
	if n := len(s.owners); n > 0 {
		for t, c := range st.Systems {
			st.Shares[t] = float64(c) / float64(n)
		}
	}
	for _, p := range s.plumbers {
		c, i := p.QueueLength(intermediary.Consultation), p.QueueLength(intermediary.Installation)
		st.Queues[intermediary.Consultation] += c
		st.Queues[intermediary.Installation] += i
		s.metrics.RecordQueue(ctx, p.ID(), c+i)
	}
	for _, a := range s.advisors {
		c := a.QueueLength(intermediary.Consultation)
		st.Queues[intermediary.Consultation] += c
		s.metrics.RecordQueue(ctx, a.ID(), c)
	}
}

func sum[K comparable](m map[K]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}

// recorder keeps the ledger and the step statistics from houseowner events.
type recorder struct {
	sim *Simulation
}

func (r *recorder) Transitioned(id string, from, to agent.Position, reason string) {
	s := r.sim
	if s.collect != nil {
		s.collect.Transitions++
	}
	if s.cfg.Run.RecordTransitions {
		s.ledger.RecordTransition(s.step, id, from, to, reason)
	}
	logging.Trace().
		Add(logging.Step(s.step)).
		Add(logging.AgentID(id)).
		Add(logging.Transition(from, to)).
		Add(logging.Reason(reason)).
		Msg("transition")
}

func (r *recorder) Installed(id string, t heating.Type, step int) {
	s := r.sim
	if s.collect != nil {
		s.collect.Installations[t]++
	}
	s.ledger.RecordInstallation(step, id, string(t))
	logging.Debug().
		Add(logging.Step(step)).
		Add(logging.AgentID(id)).
		Add(logging.System(string(t))).
		Msg("system installed")
}

func (r *recorder) Abandoned(id string, t heating.Type, stage agent.Stage, o houseowner.Obstacle) {
	s := r.sim
	if s.collect != nil {
		s.collect.Abandonments[o]++
	}
	s.ledger.RecordAbandonment(s.step, id, stage, string(t), string(o))
	logging.Debug().
		Add(logging.Step(s.step)).
		Add(logging.AgentID(id)).
		Add(logging.Stage(stage)).
		Add(logging.System(string(t))).
		Add(logging.Obstacle(string(o))).
		Msg("decision abandoned")
}
