package houseowner

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/felixgeelhaar/heatshift/domain/agent"
	"github.com/felixgeelhaar/heatshift/domain/heating"
)

// assess judges the new system against the alternatives once it runs, and
// closes the decision cycle.
func (h *Houseowner) assess(env *Env) error {
	cost := env.Settings.Costs.Satisfaction
	if h.resource < cost {
		h.resource = 0
		return nil
	}
	h.resource -= cost

	installed := h.current.Clone()
	installed.Breakdown = false
	h.known.Put(installed)
	h.rateKnown()
	h.subsidyCurious = false

	h.satisfaction = agent.Satisfied
	if len(h.suitable) > 1 && h.runnerUp() > h.known.Get(h.current.Type).Rating {
		h.satisfaction = agent.Dissatisfied
	}
	if h.satisfaction == agent.Satisfied {
		adoptive := env.Settings.AdoptiveType
		if adoptive != "" && adoptive == h.current.Type {
			if err := h.shareDecision(env, h.resource); err != nil {
				return err
			}
		}
	}

	h.suitable = nil
	h.desired = nil
	h.recommended = nil
	h.plumber = ""
	h.advisor = ""
	h.consulted = false
	clear(h.visited)
	clear(h.unqualified)
	h.resetInfeasible()
	h.resetCounters()
	h.position = agent.Inactive
	h.resource = 0
	return nil
}

// runnerUp returns the second highest rating the candidates had when the
// decision was made. When the installed system led, that is the best
// alternative.
func (h *Houseowner) runnerUp() float64 {
	ratings := make([]float64, 0, len(h.suitable))
	for _, s := range h.suitable {
		ratings = append(ratings, s.Rating)
	}
	if len(ratings) < 2 {
		return 0
	}
	slices.SortFunc(ratings, func(a, b float64) int { return cmp.Compare(b, a) })
	return ratings[1]
}

// Install replaces the heating with s, which a plumber has just fitted.
// The price leaves the budget, any loan comes with the system and the
// weekly income absorbs the change in running costs.
func (h *Houseowner) Install(s *heating.System) error {
	if s == nil || h.desired == nil || s.Type != h.desired.Type {
		return fmt.Errorf("%w: %s", ErrNothingOrdered, h.id)
	}
	if err := s.Params.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvariant, h.id, err)
	}

	fitted := s.Clone()
	fitted.Params.SetValue(heating.AttrPrice, h.desired.Price())
	fitted.Lifetime = h.desired.Lifetime
	fitted.Subsidised = h.desired.Subsidised
	fitted.Loan = h.desired.Loan.Clone()
	fitted.Rating = h.desired.Rating
	fitted.SocialNorm = h.desired.SocialNorm
	fitted.Control = h.desired.Control
	fitted.NeighbourOpinions = h.desired.Clone().NeighbourOpinions
	fitted.Commission()

	budget := h.budget
	if fitted.Loan != nil {
		budget += fitted.Loan.Amount
	}
	if budget < fitted.Price() {
		return fmt.Errorf("%w: %s needs %.0f, has %.0f", ErrOverBudget, h.id, fitted.Price(), budget)
	}

	diff := fitted.WeeklyRunningCost() - h.current.WeeklyRunningCost()
	h.income = max(0, h.income-math.Floor(diff))
	h.budget = budget - fitted.Price()
	h.current = fitted
	h.installationOrdered = false
	h.installedOnce = true
	h.fitted = true
	return nil
}
