package houseowner

import (
	"fmt"

	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/trigger"
)

// subject lets triggers reach the step environment.
type subject struct {
	*Houseowner
	env *Env
}

var _ trigger.Subject = subject{}

// ReceiveCampaign adds the campaign's systems as the campaign presents
// them: true values with the widest uncertainty band. Known systems are
// merged by relative agreement.
func (s subject) ReceiveCampaign(systems []heating.Type) error {
	h, env := s.Houseowner, s.env
	for _, t := range systems {
		sys, err := env.Catalog.Build(t, h.house, env.Rand)
		if err != nil {
			return err
		}
		for _, a := range heating.Attributes() {
			e := sys.Params[a]
			est, err := heating.NewEstimate(e.Value, max(0, e.Value*env.Settings.UncertaintyUpper))
			if err != nil {
				return fmt.Errorf("%s %s: %w", t, a, err)
			}
			sys.Params[a] = est
		}
		if _, err := h.known.Learn(sys, 1, heating.SourceCampaign); err != nil {
			return err
		}
	}
	h.rateKnown()
	return nil
}

// ScaleFuelCost multiplies the perceived fuel cost of every known system.
func (h *Houseowner) ScaleFuelCost(factor float64) error {
	for _, s := range h.known.All() {
		e := s.Params[heating.AttrFuelCost]
		scaled, err := heating.NewEstimate(e.Value*factor, e.Uncertainty*factor)
		if err != nil {
			return fmt.Errorf("%s: %w", s.Type, err)
		}
		s.Params[heating.AttrFuelCost] = scaled
	}
	return nil
}

// ReducePerceivedRisk scales the perceived uncertainty of the named systems.
func (h *Houseowner) ReducePerceivedRisk(systems []heating.Type, factor float64) error {
	for _, t := range systems {
		s := h.known.Get(t)
		if s == nil {
			continue
		}
		for _, a := range heating.Attributes() {
			e := s.Params[a]
			scaled, err := heating.NewEstimate(e.Value, e.Uncertainty*factor)
			if err != nil {
				return fmt.Errorf("%s %s: %w", t, a, err)
			}
			s.Params[a] = scaled
		}
	}
	return nil
}
