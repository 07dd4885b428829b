// Package houseowner implements the heating-replacement decision process of
// a single household: a resumable staged state machine paid for with a
// weekly cognitive-resource budget.
package houseowner

import (
	"fmt"
	"maps"
	"slices"

	"github.com/felixgeelhaar/heatshift/domain/agent"
	"github.com/felixgeelhaar/heatshift/domain/finance"
	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/knowledge"
	"github.com/felixgeelhaar/heatshift/domain/milieu"
	"github.com/felixgeelhaar/heatshift/domain/trigger"
)

// Config describes a new houseowner.
type Config struct {
	ID      string
	Profile milieu.Profile
	Traits  milieu.Traits
	House   heating.House
	Current *heating.System
	Budget  float64

	// Infeasible lists the technologies the agent starts out ruling out.
	// The set is restored to this default after every completed decision.
	Infeasible []heating.Type
}

// Houseowner is one decision-making household. It is not safe for
// concurrent use; the scheduler activates agents one at a time.
type Houseowner struct {
	id      string
	profile milieu.Profile
	traits  milieu.Traits
	house   heating.House
	current *heating.System

	resource     int
	position     agent.Position
	committed    agent.Position
	satisfaction agent.Satisfaction
	pending      trigger.Trigger
	lastTrigger  trigger.Kind

	known       *knowledge.Base
	suitable    []*heating.System
	desired     *heating.System
	recommended *heating.System
	infeasible  map[heating.Type]bool
	defaults    []heating.Type

	budget     float64
	income     float64
	aspiration int
	overload   int

	consultationOrdered bool
	installationOrdered bool
	consulted           bool
	subsidyCurious      bool
	installedOnce       bool
	fitted              bool
	waiting             int

	plumber     string
	advisor     string
	visited     map[string]bool
	unqualified map[string]bool
	subsidies   map[heating.Type][]finance.Subsidy

	neighbourSystems      map[string]heating.Type
	neighbourSatisfaction map[string]map[heating.Type]agent.Satisfaction
}

// New builds an inactive houseowner that knows only its installed system.
func New(cfg Config) (*Houseowner, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("%w: empty id", ErrInvalidConfig)
	}
	if err := cfg.Profile.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, cfg.ID, err)
	}
	if cfg.Current == nil {
		return nil, fmt.Errorf("%w: %s has no installed system", ErrInvalidConfig, cfg.ID)
	}
	if err := cfg.Current.Params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, cfg.ID, err)
	}

	current := cfg.Current.Clone()
	current.Source = heating.SourceInstalled
	h := &Houseowner{
		id:                    cfg.ID,
		profile:               cfg.Profile,
		traits:                cfg.Traits,
		house:                 cfg.House,
		current:               current,
		position:              agent.Inactive,
		committed:             agent.Inactive,
		satisfaction:          agent.SatisfactionNone,
		known:                 knowledge.NewBase(current.Clone()),
		defaults:              slices.Clone(cfg.Infeasible),
		budget:                cfg.Budget,
		income:                cfg.Traits.Income,
		aspiration:            cfg.Profile.Aspiration,
		overload:              cfg.Profile.Overload,
		visited:               make(map[string]bool),
		unqualified:           make(map[string]bool),
		subsidies:             make(map[heating.Type][]finance.Subsidy),
		neighbourSystems:      make(map[string]heating.Type),
		neighbourSatisfaction: make(map[string]map[heating.Type]agent.Satisfaction),
	}
	h.resetInfeasible()
	return h, nil
}

// ID returns the agent id.
func (h *Houseowner) ID() string { return h.id }

// Milieu returns the agent's milieu.
func (h *Houseowner) Milieu() milieu.Type { return h.profile.Type }

// House returns the dwelling.
func (h *Houseowner) House() heating.House { return h.house }

// Position returns the current stage and breakpoint.
func (h *Houseowner) Position() agent.Position { return h.position }

// Satisfaction returns the outcome of the last evaluation or assessment.
func (h *Houseowner) Satisfaction() agent.Satisfaction { return h.satisfaction }

// Current returns a copy of the installed system.
func (h *Houseowner) Current() *heating.System { return h.current.Clone() }

// CurrentType returns the technology of the installed system.
func (h *Houseowner) CurrentType() heating.Type { return h.current.Type }

// Desired returns a copy of the chosen candidate, or nil.
func (h *Houseowner) Desired() *heating.System { return h.desired.Clone() }

// Recommended returns a copy of the recommendation received, or nil.
func (h *Houseowner) Recommended() *heating.System { return h.recommended.Clone() }

// Suitable returns copies of the current choice set.
func (h *Houseowner) Suitable() []*heating.System {
	out := make([]*heating.System, len(h.suitable))
	for i, s := range h.suitable {
		out[i] = s.Clone()
	}
	return out
}

// Known returns a copy of the knowledge base.
func (h *Houseowner) Known() *knowledge.Base { return h.known.Clone() }

// Budget returns the savings available for a replacement.
func (h *Houseowner) Budget() float64 { return h.budget }

// Income returns the weekly net income.
func (h *Houseowner) Income() float64 { return h.income }

// Resource returns the cognitive resource left this week.
func (h *Houseowner) Resource() int { return h.resource }

// InstalledOnce reports whether the agent has completed an installation.
func (h *Houseowner) InstalledOnce() bool { return h.installedOnce }

// LastTrigger returns the kind of the last trigger that started a decision.
func (h *Houseowner) LastTrigger() trigger.Kind { return h.lastTrigger }

// IsInfeasible reports whether the agent rules t out.
func (h *Houseowner) IsInfeasible(t heating.Type) bool { return h.infeasible[t] }

// PendingTrigger returns the trigger to be dispatched next step.
func (h *Houseowner) PendingTrigger() trigger.Trigger { return h.pending }

// SetTrigger queues a trigger to be dispatched at the start of the next
// step. A later trigger replaces an earlier one.
func (h *Houseowner) SetTrigger(t trigger.Trigger) { h.pending = t }

// Enter implements trigger.Subject.
func (h *Houseowner) Enter(p agent.Position, k trigger.Kind) {
	h.position = p
	h.lastTrigger = k
}

func (h *Houseowner) resetInfeasible() {
	h.infeasible = make(map[heating.Type]bool, len(h.defaults))
	for _, t := range h.defaults {
		h.infeasible[t] = true
	}
}

func (h *Houseowner) resetCounters() {
	h.aspiration = h.profile.Aspiration
	h.overload = h.profile.Overload
}

// abandon ends the current decision without an installation.
func (h *Houseowner) abandon(env *Env, t heating.Type, o Obstacle) {
	stage := h.position.Stage
	h.position = agent.Inactive
	h.resetCounters()
	h.resource = 0
	env.observer().Abandoned(h.id, t, stage, o)
}

// dropCandidate removes t from the choice set and steps back to the goal
// breakpoint when alternatives remain, or abandons otherwise.
func (h *Houseowner) dropCandidate(env *Env, t heating.Type, o Obstacle) {
	h.suitable = slices.DeleteFunc(h.suitable, func(s *heating.System) bool { return s.Type == t })
	h.desired = nil
	h.waiting = 0
	if len(h.suitable) > 0 {
		h.position = agent.Preactional
		h.aspiration = 0
		h.overload = h.profile.Overload
		return
	}
	h.abandon(env, t, o)
}

func (h *Houseowner) weeklyBurden() float64 {
	return h.current.Loan.WeeklyPayment()
}

// Applicant is what subsidy conditions are checked against.
func (h *Houseowner) Applicant() finance.Applicant {
	return finance.Applicant{
		CurrentHeating: string(h.current.Type),
		AnnualIncome:   h.income * 52,
	}
}

func (h *Houseowner) knownSubsidies(t heating.Type) []finance.Subsidy {
	return h.subsidies[t]
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
