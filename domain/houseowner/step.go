package houseowner

import (
	"fmt"
	"math"

	"github.com/felixgeelhaar/heatshift/domain/agent"
	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/milieu"
	"github.com/felixgeelhaar/heatshift/domain/trigger"
)

// Step runs one simulated week for the agent: refill the cognitive
// resource, settle the budget, inspect the house, dispatch a pending trigger
// and advance the decision process until the resource runs out or the agent
// is inactive again. Inactive agents may meet a neighbour instead.
func (h *Houseowner) Step(env *Env) error {
	// Intermediaries move agents between steps.
	if err := h.commit(env, "intermediary"); err != nil {
		return err
	}

	h.resource = h.traits.CognitiveResource
	h.manageBudget()
	h.investigateHouse()
	h.checkTriggers(env)

	pending := h.pending
	h.pending = trigger.Trigger{}
	if _, err := trigger.Dispatch(subject{h, env}, pending); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvariant, h.id, err)
	}
	if err := h.commit(env, string(pending.Kind)); err != nil {
		return err
	}

	if h.position.IsInactive() {
		h.waiting = 0
		h.resetCounters()
		if env.Rand.Float64() < env.Settings.MeetingProbability {
			if err := h.meetAgent(env); err != nil {
				return err
			}
		}
	} else if err := h.decide(env); err != nil {
		return err
	}

	h.current.Age++
	return nil
}

func (h *Houseowner) decide(env *Env) error {
	// Every round spends resource or moves the agent.
	limit := 4*h.resource + 8
	for round := 0; h.resource > 0 && !h.position.IsInactive(); round++ {
		if round == limit {
			return fmt.Errorf("%w: %s at %s", ErrStalled, h.id, h.position)
		}

		var (
			reason string
			err    error
		)
		switch h.position.Breakpoint {
		case agent.BreakpointNone:
			reason = "evaluate"
			h.evaluate(env)
		case agent.BreakpointGoal:
			reason = "choose"
			err = h.choose(env)
		case agent.BreakpointBehaviour:
			reason = "install"
			err = h.install(env)
		case agent.BreakpointImplementation:
			reason = "assess"
			err = h.assess(env)
		}
		if err != nil {
			return err
		}
		if err := h.commit(env, reason); err != nil {
			return err
		}
	}
	return nil
}

// choose runs the three preactional sub-steps. It stops between them when
// the resource is gone or the agent left the goal breakpoint.
func (h *Houseowner) choose(env *Env) error {
	stillChoosing := func() bool {
		return h.resource > 0 && h.position == agent.Preactional
	}
	if err := h.getData(env); err != nil {
		return err
	}
	if !stillChoosing() {
		return nil
	}
	if err := h.defineChoice(env); err != nil {
		return err
	}
	if !stillChoosing() {
		return nil
	}
	return h.compare(env)
}

// commit validates the move from the last committed position and reports it.
func (h *Houseowner) commit(env *Env, reason string) error {
	if h.position == h.committed {
		return nil
	}
	if err := h.position.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvariant, h.id, err)
	}
	if env.Transitions != nil {
		if err := env.Transitions.Validate(h.id, h.committed, h.position); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvariant, h.id, err)
		}
	}
	env.observer().Transitioned(h.id, h.committed, h.position, reason)
	h.committed = h.position
	return nil
}

// evaluate checks the installed system against the personal standard.
func (h *Houseowner) evaluate(env *Env) {
	cost := env.Settings.Costs.Evaluate
	if h.resource < cost {
		h.resource = 0
		return
	}
	h.resource -= cost
	if h.meetsStandard(env) {
		h.position = agent.Inactive
		h.satisfaction = agent.Satisfied
		return
	}
	h.position = agent.Preactional
	h.satisfaction = agent.Dissatisfied
}

func (h *Houseowner) meetsStandard(env *Env) bool {
	if !milieu.MeetsLifetime(h.current.RemainingLifetime(), h.profile.LifetimeTolerance) {
		return false
	}
	criterion, ok := milieu.CriterionFor(h.profile.Type)
	if !ok {
		return true
	}
	return criterion(h.situation(env))
}

func (h *Houseowner) situation(env *Env) milieu.Situation {
	s := milieu.Situation{
		CanAfford:         h.budget >= h.income*h.profile.BudgetLimit,
		Emissions:         h.current.Params.Value(heating.AttrEmissions),
		RemainingLifetime: h.current.RemainingLifetime(),
	}
	s.WeeksUntilBan, s.BanScheduled = h.current.WeeksUntilBan(env.Step)

	s.LowestKnownEmissions = s.Emissions
	for _, k := range h.known.All() {
		s.LowestKnownEmissions = math.Min(s.LowestKnownEmissions, k.Params.Value(heating.AttrEmissions))
	}

	counts := make(map[string]int)
	for _, t := range h.neighbourSystems {
		counts[string(t)]++
	}
	for _, n := range counts {
		s.DominantAdoption = max(s.DominantAdoption, n)
	}
	s.Adoption = counts[string(h.current.Type)]
	return s
}

// manageBudget pays the weekly loan instalment and saves the income, up to
// the milieu's budget limit.
func (h *Houseowner) manageBudget() {
	if loan := h.current.Loan; loan != nil {
		payment := math.Floor(loan.MonthlyPayment / 4)
		loan.TotalRepayment -= payment
		h.budget -= payment
		if loan.TotalRepayment <= 0 {
			h.current.Loan = nil
		}
	}
	if h.income > 0 {
		h.budget += h.income
	}
	h.budget = math.Ceil(math.Min(h.budget, h.income*h.profile.BudgetLimit))
}

// investigateHouse keeps the installed system in the knowledge base and
// advances its lifecycle by one week.
func (h *Houseowner) investigateHouse() {
	if !h.known.Has(h.current.Type) {
		k := h.current.Clone()
		k.Breakdown = false
		h.known.Put(k)
	}
	h.current.CheckPayback()
	h.current.CheckBreakdown()
}

// checkTriggers raises the agent's own triggers while it is inactive.
func (h *Houseowner) checkTriggers(env *Env) {
	if !h.position.IsInactive() {
		return
	}
	remaining := h.current.RemainingLifetime()
	weeks, banned := h.current.WeeksUntilBan(env.Step)
	switch {
	case h.current.Breakdown:
		h.pending = trigger.Of(trigger.Breakdown)
	case banned && weeks > 0 && weeks < env.Settings.PhaseOutWeeks && remaining < 2*env.Settings.PhaseOutWeeks:
		h.pending = trigger.Of(trigger.Availability)
	case remaining == h.profile.LifetimeTolerance:
		h.pending = trigger.Of(trigger.Lifetime)
	}
}
