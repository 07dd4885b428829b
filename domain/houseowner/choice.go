package houseowner

import (
	"cmp"
	"math"
	"slices"

	"github.com/felixgeelhaar/heatshift/domain/agent"
	"github.com/felixgeelhaar/heatshift/domain/finance"
	"github.com/felixgeelhaar/heatshift/domain/heating"
)

// defineChoice filters the known systems down to the feasible, affordable
// and acceptably risky ones.
func (h *Houseowner) defineChoice(env *Env) error {
	if h.consulted && len(h.suitable) > 0 {
		return nil
	}
	cost := env.Settings.Costs.DefineChoice
	if h.resource < cost {
		h.resource = 0
		return nil
	}
	h.resource -= cost

	h.rateKnown()
	var (
		suitable             []*heating.System
		feasible, affordable int
	)
	for _, k := range h.known.All() {
		if h.infeasible[k.Type] {
			continue
		}
		feasible++
		c := h.priced(k)
		if err := h.arrangeLoan(env, c, false); err != nil {
			return err
		}
		if !h.fitsBudget(c) || !h.sustainable(c) {
			continue
		}
		affordable++
		suitable = append(suitable, c)
	}

	for _, c := range suitable {
		c.Riskiness = h.risk(env, c)
	}
	slices.SortStableFunc(suitable, func(a, b *heating.System) int {
		return cmp.Compare(b.Riskiness, a.Riskiness)
	})
	h.suitable = slices.DeleteFunc(suitable, func(c *heating.System) bool {
		return c.Riskiness > h.profile.RiskTolerance
	})
	if len(h.suitable) > 0 {
		return nil
	}

	if h.current.Breakdown {
		return h.fallback(env)
	}

	var o Obstacle
	switch {
	case h.known.Len() <= 1:
		o = ObstacleKnowledge
	case feasible == 0:
		o = ObstacleFeasibility
	case affordable == 0:
		o = ObstacleAffordability
	default:
		o = ObstacleRiskiness
	}
	h.abandon(env, h.current.Type, o)
	return nil
}

// priced returns a candidate copy of a known system with any subsidies the
// agent knows of applied.
func (h *Houseowner) priced(k *heating.System) *heating.System {
	c := k.Clone()
	c.Loan = nil
	if !c.Subsidised && c.Source != heating.SourceInternet {
		h.applySubsidies(c)
	}
	c.Rating = h.attitude(c)
	return c
}

// applySubsidies lowers the price of s by every known eligible subsidy.
func (h *Houseowner) applySubsidies(s *heating.System) {
	rules := h.knownSubsidies(s.Type)
	if len(rules) == 0 || s.Subsidised {
		return
	}
	total := finance.Total(s.Price(), rules, h.Applicant())
	if total <= 0 {
		return
	}
	s.Params.SetValue(heating.AttrPrice, math.Max(0, s.Price()-math.Ceil(total)))
	s.Subsidised = true
}

// arrangeLoan attaches a loan to s when the budget alone does not cover it.
func (h *Houseowner) arrangeLoan(env *Env, s *heating.System, bypass bool) error {
	if s.Price() <= h.budget {
		s.Loan = nil
		return nil
	}
	search, err := finance.FindLoan(finance.LoanRequest{
		Price:              s.Price(),
		Funds:              h.budget,
		WeeklyIncome:       h.income,
		WeeklyCostIncrease: s.WeeklyRunningCost() - h.current.WeeklyRunningCost(),
		LifetimeWeeks:      s.Lifetime,
		Rate:               env.Settings.LoanRate,
		LoanTaking:         h.profile.LoanTaking,
		BypassAversion:     bypass,
	})
	if err != nil {
		return err
	}
	s.Loan = search.Loan
	return nil
}

// fitsBudget reports whether savings plus any attached loan pay for s.
func (h *Houseowner) fitsBudget(s *heating.System) bool {
	var loan float64
	if s.Loan != nil {
		loan = s.Loan.Amount
	}
	return s.Price() <= h.budget+loan
}

// sustainable reports whether the income carries the running-cost change,
// the new loan and any loan still running on the current system.
func (h *Houseowner) sustainable(s *heating.System) bool {
	diff := s.WeeklyRunningCost() - h.current.WeeklyRunningCost() + s.Loan.WeeklyPayment()
	return h.income-diff-h.weeklyBurden() >= 0
}

// fallback handles an empty choice set while the heating is broken. The
// agent either goes looking for subsidies, or settles on the best feasible
// system it can finance with any loan at all.
func (h *Houseowner) fallback(env *Env) error {
	if h.recommended != nil {
		h.applySubsidies(h.recommended)
		if h.fitsBudget(h.recommended) {
			return nil
		}
		if !h.recommended.Subsidised && len(h.knownSubsidies(h.recommended.Type)) == 0 && !h.consulted {
			h.subsidyCurious = true
			h.resource = 0
			h.aspiration = h.profile.Aspiration
			return nil
		}
	}

	var best *heating.System
	for _, k := range h.known.All() {
		if h.infeasible[k.Type] {
			continue
		}
		c := h.priced(k)
		if err := h.arrangeLoan(env, c, true); err != nil {
			return err
		}
		if !h.fitsBudget(c) {
			continue
		}
		if best == nil || c.Rating > best.Rating || (c.Rating == best.Rating && c.Price() < best.Price()) {
			best = c
		}
	}
	if best == nil {
		h.recommended = nil
		h.abandon(env, h.current.Type, ObstacleNoAffordable)
		return nil
	}
	h.recommended = best
	return nil
}

// compare picks the desired system by integral rating.
func (h *Houseowner) compare(env *Env) error {
	cost := env.Settings.Costs.Compare
	if h.resource < cost {
		h.resource = 0
		return nil
	}
	h.resource -= cost

	if len(h.suitable) == 0 {
		if h.recommended == nil {
			h.abandon(env, h.current.Type, ObstacleEvaluation)
			return nil
		}
		h.desired = h.recommended.Clone()
		h.position = agent.Actional
		h.aspiration = h.profile.Aspiration
		return nil
	}

	scores, err := h.integralRatings(env, h.suitable)
	if err != nil {
		return err
	}
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(scores[b], scores[a]) })

	pick := order[0]
	if len(order) > 1 && scores[order[1]]*env.Settings.TieThreshold > scores[order[0]] {
		// Near tie: deciding costs extra and ends in a coin flip.
		h.resource = max(0, h.resource-cost)
		pick = order[env.Rand.IntN(2)]
	}
	h.desired = h.suitable[pick].Clone()

	if h.desired.Type == h.current.Type && !h.current.Breakdown && !h.phasingOut(env) {
		h.desired = nil
		h.suitable = nil
		h.abandon(env, h.current.Type, ObstacleCurrentBest)
		return nil
	}
	h.position = agent.Actional
	h.resetCounters()
	return nil
}

// phasingOut reports whether the installed type is banned soon.
func (h *Houseowner) phasingOut(env *Env) bool {
	weeks, banned := h.current.WeeksUntilBan(env.Step)
	return banned && weeks >= 0 && weeks <= env.Settings.PhaseOutWeeks
}
