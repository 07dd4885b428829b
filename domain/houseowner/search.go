package houseowner

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/felixgeelhaar/heatshift/domain/finance"
	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/knowledge"
	"github.com/felixgeelhaar/heatshift/domain/milieu"
)

// Impersonal sources trust what they publish fully.
const impersonalExposure = 1.0

// getData gathers information from one source chosen by the agent's
// source weights.
func (h *Houseowner) getData(env *Env) error {
	switch {
	case h.aspiration == 0:
		return nil
	case h.consultationOrdered:
		h.resource = 0
		return nil
	}

	src := h.chooseSource(env.Rand)
	cost := env.Settings.Costs.GetData
	if h.resource < cost {
		err := h.askNeighbours(env, h.resource)
		h.resource = 0
		return err
	}

	switch src {
	case heating.SourcePlumber:
		h.consultPlumber(env)
	case heating.SourceEnergyAdvisor:
		h.consultAdvisor(env)
	case heating.SourceNeighbour:
		err := h.askNeighbours(env, len(env.Network.Predecessors(h.id)))
		h.resource = 0
		return err
	default:
		return h.searchImpersonal(env, src)
	}
	return nil
}

// chooseSource draws an information source. A broken system leaves only
// the personal experts; a subsidy-curious agent goes to the advisor.
func (h *Houseowner) chooseSource(rng *rand.Rand) heating.Source {
	if h.subsidyCurious {
		return heating.SourceEnergyAdvisor
	}
	sources := milieu.InformationSources()
	if h.current.Breakdown {
		sources = []heating.Source{heating.SourcePlumber, heating.SourceEnergyAdvisor}
	}
	weights := make([]float64, len(sources))
	for i, s := range sources {
		weights[i] = h.traits.Sources[s]
	}
	return sources[pickWeighted(rng, weights)]
}

// pickWeighted returns an index with probability proportional to its
// weight. Non-positive totals fall back to a uniform draw.
func pickWeighted(rng *rand.Rand, weights []float64) int {
	var total float64
	for _, w := range weights {
		total += max(w, 0)
	}
	if total <= 0 {
		return rng.IntN(len(weights))
	}
	r := rng.Float64() * total
	for i, w := range weights {
		r -= max(w, 0)
		if r < 0 {
			return i
		}
	}
	return len(weights) - 1
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// searchImpersonal queries an internet or magazine source until the agent
// is satisfied with what it knows, gives up, or runs out of resource.
func (h *Houseowner) searchImpersonal(env *Env, kind heating.Source) error {
	cost := env.Settings.Costs.GetData
	src := env.Sources[kind]
	if src == nil || len(src.Content) == 0 {
		h.resource -= cost
		return nil
	}

	for h.resource >= cost {
		if h.knowsAll(src.Content) || (h.known.Len() > 1 && h.aspiration == 0) {
			break
		}

		t := src.Content[env.Rand.IntN(len(src.Content))]
		found, err := h.perceive(env, src, t)
		if err != nil {
			return err
		}
		if h.infeasible[t] {
			break
		}
		h.resource -= cost

		if existing := h.known.Get(t); existing != nil {
			if err := h.agree(existing, found, impersonalExposure); err != nil {
				return err
			}
		} else {
			h.known.Put(found)
			h.rateKnown()
			if h.known.Get(t).Rating > h.known.Get(h.current.Type).Rating {
				h.aspiration--
			} else {
				h.overload--
			}
		}

		if rules := src.Subsidies[t]; len(rules) > 0 && env.Rand.Float64() < env.Settings.SubsidyFindingProbability {
			h.subsidies[t] = finance.CloneSubsidies(rules)
		}

		if h.aspiration <= 0 {
			h.aspiration = 0
			break
		}
		if h.overload <= 0 {
			h.abandon(env, t, ObstacleOverload)
			break
		}
	}
	return nil
}

func (h *Houseowner) knowsAll(types []heating.Type) bool {
	return !slices.ContainsFunc(types, func(t heating.Type) bool { return !h.known.Has(t) })
}

// perceive builds t for the agent's house as a source presents it. The
// less widespread a technology, the more its attributes are distorted.
func (h *Houseowner) perceive(env *Env, src *InformationSource, t heating.Type) (*heating.System, error) {
	s, err := env.Catalog.Build(t, h.house, env.Rand)
	if err != nil {
		return nil, err
	}
	share := 0.0
	if env.Market != nil {
		share = env.Market.Share(t)
	}
	top := 0.1 + (1-share)*(src.Distortion-0.1)
	for _, a := range heating.Attributes() {
		factor := math.Max(0.5, 1+uniform(env.Rand, -top, top))
		value := s.Params.Value(a) * factor
		u := value * uniform(env.Rand, env.Settings.UncertaintyLower, env.Settings.UncertaintyUpper)
		e, err := heating.NewEstimate(value, math.Abs(u))
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", t, a, err)
		}
		s.Params[a] = e
	}
	s.Source = src.Kind
	return s, nil
}

// consultPlumber books a consultation with a random plumber.
func (h *Houseowner) consultPlumber(env *Env) {
	defer func() { h.resource = 0 }()
	if len(env.Plumbers) == 0 {
		return
	}
	h.resource -= env.Settings.Costs.GetData
	p := env.Plumbers[env.Rand.IntN(len(env.Plumbers))]
	h.plumber = p.ID()
	if p.OrderConsultation(h.id) {
		h.consultationOrdered = true
	}
}

// consultAdvisor books a consultation with a random energy advisor.
func (h *Houseowner) consultAdvisor(env *Env) {
	defer func() { h.resource = 0 }()
	if len(env.Advisors) == 0 {
		h.subsidyCurious = false
		return
	}
	a := env.Advisors[env.Rand.IntN(len(env.Advisors))]
	h.advisor = a.ID()
	if a.OrderConsultation(h.id) {
		h.consulted = true
		h.consultationOrdered = true
	}
}

// agree merges a source's view of a system the agent already knows and
// re-rates everything.
func (h *Houseowner) agree(target, source *heating.System, exposure float64) error {
	if err := knowledge.Agree(target, source, exposure); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvariant, h.id, err)
	}
	h.rateKnown()
	return nil
}
