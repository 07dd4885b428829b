package houseowner

import (
	"fmt"
	"slices"

	"github.com/felixgeelhaar/heatshift/domain/agent"
	"github.com/felixgeelhaar/heatshift/domain/finance"
	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/trigger"
)

// meetAgent is the weekly chat of an inactive agent with one random
// neighbour. Influence follows the direction of the link: a successor hears
// about this agent, a predecessor tells this agent about itself.
func (h *Houseowner) meetAgent(env *Env) error {
	preds := env.Network.Predecessors(h.id)
	succs := env.Network.Successors(h.id)
	candidates := slices.Clone(preds)
	for _, id := range succs {
		if !slices.Contains(candidates, id) {
			candidates = append(candidates, id)
		}
	}
	candidates = slices.DeleteFunc(candidates, func(id string) bool { return id == h.id })
	if len(candidates) == 0 {
		return nil
	}

	id := candidates[env.Rand.IntN(len(candidates))]
	partner, ok := env.Directory.Houseowner(id)
	if !ok {
		return fmt.Errorf("%w: %s meets unknown neighbour %s", ErrInvariant, h.id, id)
	}
	if slices.Contains(succs, id) {
		h.impress(env, partner)
	}
	if slices.Contains(preds, id) {
		partner.impress(env, h)
	}
	return nil
}

// impress tells other about this agent's heating and makes it jealous of a
// new system it is happy with.
func (h *Houseowner) impress(env *Env, other *Houseowner) {
	h.shareSystem(other)
	h.shareSatisfaction(other)
	if h.satisfaction == agent.Satisfied &&
		h.current.Type != other.current.Type &&
		h.current.Age <= env.Settings.JealousyAge &&
		other.position.IsInactive() {
		other.SetTrigger(trigger.Of(trigger.NeighbourJealousy))
	}
}

// askNeighbours visits up to coverage predecessors not visited yet in this
// decision cycle. Running out of people to ask ends the search.
func (h *Houseowner) askNeighbours(env *Env, coverage int) error {
	preds := slices.Clone(env.Network.Predecessors(h.id))
	env.Rand.Shuffle(len(preds), func(i, j int) { preds[i], preds[j] = preds[j], preds[i] })
	preds = slices.DeleteFunc(preds, func(id string) bool { return h.visited[id] })
	if len(preds) == 0 {
		h.aspiration = 0
		return nil
	}

	for _, id := range preds[:min(coverage, len(preds))] {
		n, ok := env.Directory.Houseowner(id)
		if !ok {
			return fmt.Errorf("%w: %s asks unknown neighbour %s", ErrInvariant, h.id, id)
		}
		if err := n.shareKnowledge(h); err != nil {
			return err
		}
		n.shareRating(h)
		n.shareSystem(h)
		n.shareSatisfaction(h)
		h.visited[id] = true
	}
	h.rateKnown()
	return nil
}

// shareKnowledge passes this agent's beliefs and subsidy knowledge to
// other, weighted by how much other trusts this agent's milieu.
func (h *Houseowner) shareKnowledge(other *Houseowner) error {
	exposure := other.profile.Exposure[h.profile.Type]
	for _, s := range h.known.All() {
		if _, err := other.known.Learn(s, exposure, heating.SourceNeighbour); err != nil {
			return fmt.Errorf("%w: %s from %s: %w", ErrInvariant, other.id, h.id, err)
		}
	}
	for _, t := range sortedTypes(h.subsidies) {
		other.subsidies[t] = finance.CloneSubsidies(h.subsidies[t])
	}
	return nil
}

// shareRating records this agent's ratings as opinions in other's matching
// knowledge entries.
func (h *Houseowner) shareRating(other *Houseowner) {
	for _, s := range h.known.All() {
		if k := other.known.Get(s.Type); k != nil {
			k.RecordOpinion(h.id, s.Rating)
		}
	}
}

func (h *Houseowner) shareSystem(other *Houseowner) {
	other.neighbourSystems[h.id] = h.current.Type
}

// shareSatisfaction tells other how this agent likes its heating and
// refreshes other's satisfied ratio for that technology.
func (h *Houseowner) shareSatisfaction(other *Houseowner) {
	t := h.current.Type
	other.neighbourSatisfaction[h.id] = map[heating.Type]agent.Satisfaction{t: h.satisfaction}

	var satisfied, total int
	for _, opinion := range other.neighbourSatisfaction {
		sat, ok := opinion[t]
		if !ok {
			continue
		}
		total++
		if sat == agent.Satisfied {
			satisfied++
		}
	}
	if k := other.known.Get(t); k != nil && total > 0 {
		k.SatisfiedRatio = float64(satisfied) / float64(total)
	}
}

// shareDecision advertises a freshly installed system to random successors
// heating with something else, prompting them to compare.
func (h *Houseowner) shareDecision(env *Env, iterations int) error {
	succs := env.Network.Successors(h.id)
	if len(succs) == 0 || iterations <= 0 {
		return nil
	}

	proposal := h.current.Clone()
	proposal.Loan = nil
	proposal.NeighbourOpinions = nil
	for _, a := range heating.Attributes() {
		e := proposal.Params[a]
		u := e.Value * uniform(env.Rand, env.Settings.UncertaintyLower, env.Settings.UncertaintyUpper)
		est, err := heating.NewEstimate(e.Value, max(u, 0))
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvariant, h.id, err)
		}
		proposal.Params[a] = est
	}

	for range iterations {
		id := succs[env.Rand.IntN(len(succs))]
		other, ok := env.Directory.Houseowner(id)
		if !ok {
			return fmt.Errorf("%w: %s shares with unknown neighbour %s", ErrInvariant, h.id, id)
		}
		if other.current.Type == proposal.Type {
			continue
		}
		if _, err := other.known.Learn(proposal, 1, heating.SourceNeighbour); err != nil {
			return fmt.Errorf("%w: %s from %s: %w", ErrInvariant, other.id, h.id, err)
		}
		other.rateKnown()
		h.shareSystem(other)
		h.shareSatisfaction(other)
		h.shareRating(other)
		other.SetTrigger(trigger.Of(trigger.AdoptiveComparison))
	}
	return nil
}

func sortedTypes[V any](m map[heating.Type]V) []heating.Type {
	out := make([]heating.Type, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}
