package houseowner

import (
	"fmt"
	"math"

	"github.com/felixgeelhaar/heatshift/domain/agent"
	"github.com/felixgeelhaar/heatshift/domain/heating"
)

// normTolerance absorbs rounding in the social-norm bound check.
const normTolerance = 1e-6

// attitude rates s on the agent's attribute preferences, in [0,1]. Attributes
// are scaled by their maximum over every feasible known system, so the
// comparison group is the whole knowledge base rather than the candidates.
func (h *Houseowner) attitude(s *heating.System) float64 {
	group := make([]*heating.System, 0, h.known.Len()+1)
	for _, k := range h.known.All() {
		if !h.infeasible[k.Type] && k.Type != s.Type {
			group = append(group, k)
		}
	}
	group = append(group, s)

	var rating, weights float64
	for _, a := range heating.Attributes() {
		var top float64
		for _, g := range group {
			top = math.Max(top, g.Params.Value(a))
		}
		if top == 0 {
			top = 1
		}
		pref := h.traits.Preferences[a]
		rating += (1 - s.Params.Value(a)/top) * pref
		weights += pref
	}
	if weights <= 0 {
		return 0
	}
	return rating / weights
}

// rateKnown refreshes the attitude of every known system.
func (h *Houseowner) rateKnown() {
	for _, k := range h.known.All() {
		k.Rating = h.attitude(k)
	}
}

// socialNorm averages what neighbours think of s with how many of them
// heat with it. Without information an agent falls back on its milieu's
// uncertainty factor.
func (h *Houseowner) socialNorm(env *Env, s *heating.System) (float64, error) {
	fallback := 1 - h.profile.UncertaintyFactor
	if len(env.Network.Predecessors(h.id)) == 0 {
		return fallback, nil
	}

	adoption := fallback
	if n := len(h.neighbourSystems); n > 0 {
		var users int
		for _, t := range h.neighbourSystems {
			if t == s.Type {
				users++
			}
		}
		adoption = float64(users) / float64(n)
	}

	opinion := fallback
	if k := h.known.Get(s.Type); k != nil && len(k.NeighbourOpinions) > 0 {
		var sum float64
		for _, id := range sortedKeys(k.NeighbourOpinions) {
			sum += k.NeighbourOpinions[id]
		}
		opinion = sum / float64(len(k.NeighbourOpinions))
	}

	norm := (adoption + opinion) / 2
	if norm < 0 || norm > 1+normTolerance {
		return 0, fmt.Errorf("%w: %s social norm %v for %s", ErrInvariant, h.id, norm, s.Type)
	}
	return norm, nil
}

// control is the perceived ease of paying for s: the share of the price the
// budget covers and the income headroom left after the running-cost change.
func (h *Houseowner) control(s *heating.System) float64 {
	affordability := 1.0
	if price := s.Price(); price > 0 {
		affordability = math.Min(1, h.budget/price)
	}

	diff := s.WeeklyRunningCost() - h.current.WeeklyRunningCost() + s.Loan.WeeklyPayment()
	var headroom float64
	switch {
	case diff < 0:
		headroom = 1
	case h.income > 0:
		headroom = math.Max(0, 1-diff/h.income)
	}
	return (math.Max(0, affordability) + headroom) / 2
}

// risk combines the financial exposure of a loan with the uncertainty of
// how neighbours fare with the technology.
func (h *Houseowner) risk(env *Env, s *heating.System) float64 {
	var loanRisk float64
	if price := s.Price(); s.Loan != nil && price > 0 {
		loanRisk = math.Min(1, s.Loan.Amount/price)
	}

	successors := env.Network.Successors(h.id)
	uncertaintyRisk := h.profile.UncertaintyFactor
	if len(successors) > 0 {
		var dissatisfied, known int
		for _, id := range successors {
			sat, ok := h.neighbourSatisfaction[id][s.Type]
			if !ok {
				continue
			}
			known++
			if sat == agent.Dissatisfied {
				dissatisfied++
			}
		}
		unknown := len(successors) - known
		uncertaintyRisk = (float64(dissatisfied) + h.profile.UncertaintyFactor*float64(unknown)) / float64(len(successors))
	}
	return (loanRisk + uncertaintyRisk) / 2
}

// integralRatings scores candidates on attitude, social norm and control,
// each scaled by its maximum over the candidates and weighted by the
// milieu's TPB weights.
func (h *Houseowner) integralRatings(env *Env, candidates []*heating.System) ([]float64, error) {
	n := len(candidates)
	att := make([]float64, n)
	norm := make([]float64, n)
	pbc := make([]float64, n)
	for i, c := range candidates {
		att[i] = h.attitude(c)
		sn, err := h.socialNorm(env, c)
		if err != nil {
			return nil, err
		}
		norm[i] = sn
		pbc[i] = h.control(c)

		c.Rating = att[i]
		c.SocialNorm = sn
		c.Control = pbc[i]
	}
	scaleByMax(att)
	scaleByMax(norm)
	scaleByMax(pbc)

	w := h.profile.TPB.Normalized()
	out := make([]float64, n)
	for i := range candidates {
		out[i] = w.Attitude*att[i] + w.SocialNorm*norm[i] + w.Control*pbc[i]
	}
	return out, nil
}

func scaleByMax(xs []float64) {
	var top float64
	for _, x := range xs {
		top = math.Max(top, x)
	}
	if top <= 0 {
		return
	}
	for i := range xs {
		xs[i] /= top
	}
}
