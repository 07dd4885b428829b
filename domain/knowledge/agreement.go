package knowledge

import (
	"fmt"
	"math"

	"github.com/felixgeelhaar/heatshift/domain/heating"
)

// Update moves target towards source by one relative-agreement step.
//
// The overlap of the two opinion segments is
// v = min(oi+ui, oj+uj) - max(oi-ui, oj-uj). Without overlap nothing changes.
// Otherwise h = v/(2uj) and both the opinion and the uncertainty move by
// exposure*h of their distance to the source, floored at MinUncertainty.
// The second result reports whether an update happened.
func Update(target, source heating.Estimate, exposure float64) (heating.Estimate, bool, error) {
	if err := target.Validate(); err != nil {
		return target, false, fmt.Errorf("target: %w", err)
	}
	if err := source.Validate(); err != nil {
		return target, false, fmt.Errorf("source: %w", err)
	}
	if exposure < 0 || exposure > 1 || math.IsNaN(exposure) {
		return target, false, fmt.Errorf("%w: %v", ErrInvalidExposure, exposure)
	}

	oi, ui := target.Value, target.Uncertainty
	oj, uj := source.Value, source.Uncertainty

	v := math.Min(oi+ui, oj+uj) - math.Max(oi-ui, oj-uj)
	if v <= 0 || uj <= 0 {
		return target, false, nil
	}
	h := v / (2 * uj)

	return heating.Estimate{
		Value:       math.Max(heating.MinUncertainty, oi+exposure*h*(oj-oi)),
		Uncertainty: math.Max(heating.MinUncertainty, ui+exposure*h*(uj-ui)),
	}, true, nil
}

// Agree applies Update to every attribute both systems carry.
func Agree(target, source *heating.System, exposure float64) error {
	for _, a := range heating.Attributes() {
		te, ok := target.Params[a]
		if !ok {
			continue
		}
		se, ok := source.Params[a]
		if !ok {
			continue
		}
		updated, changed, err := Update(te, se, exposure)
		if err != nil {
			return fmt.Errorf("%s/%s: %w", target.Type, a, err)
		}
		if changed {
			target.Params[a] = updated
		}
	}
	return nil
}

// Learn integrates a system from another holder into b. A known type is
// influenced by relative agreement. An unknown type is copied as is,
// stripped of the holder's opinions and tagged with src.
// It reports whether the system was new.
func (b *Base) Learn(incoming *heating.System, exposure float64, src heating.Source) (bool, error) {
	if known := b.Get(incoming.Type); known != nil {
		return false, Agree(known, incoming, exposure)
	}
	if err := incoming.Params.Validate(); err != nil {
		return false, fmt.Errorf("%s: %w", incoming.Type, err)
	}
	c := incoming.Clone()
	c.NeighbourOpinions = nil
	c.Subsidised = false
	c.Loan = nil
	c.Breakdown = false
	c.Source = src
	b.Put(c)
	return true, nil
}
