package houseowner

import (
	"fmt"
	"math"

	"github.com/felixgeelhaar/heatshift/domain/agent"
	"github.com/felixgeelhaar/heatshift/domain/finance"
	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/trigger"
)

// The methods below are called by plumbers and energy advisors while they
// work through their queues.

// Learn integrates an expert's view of a system.
func (h *Houseowner) Learn(s *heating.System, exposure float64, src heating.Source) error {
	if _, err := h.known.Learn(s, exposure, src); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvariant, h.id, err)
	}
	h.rateKnown()
	return nil
}

// Overwrite replaces what the agent believes about s.Type with s.
func (h *Houseowner) Overwrite(s *heating.System, src heating.Source) error {
	if err := s.Params.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvariant, h.id, err)
	}
	c := s.Clone()
	c.Source = src
	c.Loan = nil
	c.Subsidised = false
	c.Breakdown = false
	if k := h.known.Get(s.Type); k != nil {
		c.NeighbourOpinions = k.Clone().NeighbourOpinions
	} else {
		c.NeighbourOpinions = nil
	}
	h.known.Put(c)
	h.rateKnown()
	return nil
}

// RecordOpinion stores an outside rating of a known system.
func (h *Houseowner) RecordOpinion(t heating.Type, from string, rating float64) {
	if k := h.known.Get(t); k != nil {
		k.RecordOpinion(from, rating)
	}
}

// LearnSubsidies replaces the subsidies the agent knows for t.
func (h *Houseowner) LearnSubsidies(t heating.Type, rules []finance.Subsidy) {
	h.subsidies[t] = finance.CloneSubsidies(rules)
}

// LearnNeighbourSystem records what a neighbour heats with.
func (h *Houseowner) LearnNeighbourSystem(neighbour string, t heating.Type) {
	h.neighbourSystems[neighbour] = t
}

// EndConsultation closes a plumber's information visit: the agent has a
// recommendation and stops searching.
func (h *Houseowner) EndConsultation(recommended *heating.System) {
	if recommended != nil {
		h.recommended = recommended.Clone()
	}
	h.aspiration = 0
	h.consultationOrdered = false
}

// CompleteAdvice closes an energy-advisor visit. The advisor's shortlist
// replaces the agent's choice set. An inactive agent is prompted to
// reconsider its heating.
func (h *Houseowner) CompleteAdvice(suitable []*heating.System, recommended *heating.System) {
	h.suitable = make([]*heating.System, len(suitable))
	for i, s := range suitable {
		h.suitable[i] = s.Clone()
	}
	h.recommended = recommended.Clone()
	h.aspiration = 0
	h.consultationOrdered = false
	h.subsidyCurious = false
	if h.position.IsInactive() {
		h.SetTrigger(trigger.Of(trigger.Consultation))
	}
}

// RejectPlumber records that plumber cannot install the desired system.
func (h *Houseowner) RejectPlumber(plumber string) {
	h.unqualified[plumber] = true
	if h.plumber == plumber {
		h.plumber = ""
	}
	h.consultationOrdered = false
}

// MarkInfeasible rules t out for the rest of the decision.
func (h *Houseowner) MarkInfeasible(t heating.Type) {
	h.infeasible[t] = true
	h.consultationOrdered = false
}

// Quote is a plumber's binding offer for the desired system.
type Quote struct {
	Price     float64
	Opex      float64
	Subsidies []finance.Subsidy
}

// AcceptQuote fixes the desired system's price and running costs from a
// plumber's survey, applies the plumber's subsidies (or the agent's own
// when the plumber knows none) and refinances. It
// reports whether the agent can still pay for and sustain the system.
func (h *Houseowner) AcceptQuote(env *Env, q Quote) (bool, error) {
	if h.desired == nil {
		return false, fmt.Errorf("%w: %s", ErrNothingOrdered, h.id)
	}
	if q.Price < 0 || q.Opex < 0 || math.IsNaN(q.Price) || math.IsNaN(q.Opex) {
		return false, fmt.Errorf("%w: %s quoted price %v opex %v", ErrInvariant, h.id, q.Price, q.Opex)
	}

	d := h.desired
	hadLoan := d.Loan != nil
	d.Params[heating.AttrPrice] = heating.Estimate{Value: q.Price, Uncertainty: heating.MinUncertainty}
	d.Params[heating.AttrOpex] = heating.Estimate{Value: q.Opex, Uncertainty: heating.MinUncertainty}
	d.Subsidised = false
	rules := q.Subsidies
	if len(rules) == 0 {
		rules = h.knownSubsidies(d.Type)
	}
	if len(rules) > 0 {
		total := finance.Total(q.Price, rules, h.Applicant())
		if total > 0 {
			d.Params.SetValue(heating.AttrPrice, math.Max(0, q.Price-math.Ceil(total)))
			d.Subsidised = true
		}
	}
	if hadLoan || !h.fitsBudget(d) {
		d.Loan = nil
		if err := h.arrangeLoan(env, d, true); err != nil {
			return false, err
		}
	}
	return h.fitsBudget(d) && h.sustainable(d), nil
}

// OfferLoan attaches the loan the agent would take to pay for s, if it
// needs and accepts one.
func (h *Houseowner) OfferLoan(env *Env, s *heating.System) error {
	return h.arrangeLoan(env, s, false)
}

// InstallationScheduled records that the plumber queued the installation.
func (h *Houseowner) InstallationScheduled() {
	h.consultationOrdered = false
	h.installationOrdered = true
}

// DeclineQuote drops the desired system after an unaffordable quote. The
// agent goes back to choosing if it had alternatives, else gives up.
func (h *Houseowner) DeclineQuote(env *Env) {
	t := h.current.Type
	if h.desired != nil {
		t = h.desired.Type
	}
	h.consultationOrdered = false
	h.desired = nil
	hadAlternatives := len(h.suitable) > 0
	h.suitable = nil
	h.resetCounters()
	if hadAlternatives {
		h.position = agent.Preactional
		return
	}
	stage := h.position.Stage
	h.position = agent.Inactive
	env.observer().Abandoned(h.id, t, stage, ObstacleAffordability)
}
