package houseowner

import (
	"fmt"
	"slices"

	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/trigger"
)

// The methods below apply market-wide changes the scheduler makes before
// agents are activated.

// RepriceFuel scales the fuel cost of the installed system, and of the
// agent's belief about that type, when it is of type t. An inactive agent whose
// relative cost rise exceeds its indifference to fuel cost (one minus its
// fuel-cost preference) is prompted to reconsider. It reports whether the
// agent heats with t.
func (h *Houseowner) RepriceFuel(t heating.Type, factor float64) (bool, error) {
	if h.current.Type != t {
		return false, nil
	}
	if factor < 0 {
		return false, fmt.Errorf("%w: %s fuel price factor %v", ErrInvariant, h.id, factor)
	}

	old := h.current.Params.Value(heating.AttrFuelCost)
	h.current.Params.SetValue(heating.AttrFuelCost, old*factor)
	if k := h.known.Get(t); k != nil {
		k.Params.SetValue(heating.AttrFuelCost, k.Params.Value(heating.AttrFuelCost)*factor)
	}
	h.rateKnown()

	if old > 0 && h.position.IsInactive() && h.pending.IsNone() {
		rise := max(factor-1, 0)
		if rise > 1-h.traits.Preferences[heating.AttrFuelCost] {
			h.pending = trigger.Of(trigger.FuelPrice)
		}
	}
	return true, nil
}

// ScheduleBan records that t can no longer be installed from step from.
// An installed system of that type starts counting down to the ban.
func (h *Houseowner) ScheduleBan(t heating.Type, from int) {
	if h.current.Type == t {
		h.current.Availability = from
	}
	if k := h.known.Get(t); k != nil {
		k.Availability = from
	}
}

// Forbid rules t out for good, surviving the reset after each decision.
func (h *Houseowner) Forbid(t heating.Type) {
	if !slices.Contains(h.defaults, t) {
		h.defaults = append(h.defaults, t)
	}
	h.infeasible[t] = true
}

// Successor builds the new owner of h's house. The house, installed system
// and id carry over; the new owner brings its own traits, budget and a
// single known system, and starts with an ownership-change trigger.
func (h *Houseowner) Successor(cfg Config) (*Houseowner, error) {
	cfg.ID = h.id
	cfg.House = h.house
	cfg.Current = h.current
	n, err := New(cfg)
	if err != nil {
		return nil, err
	}
	n.current.Loan = nil
	n.current.Investment = 0
	n.installedOnce = false
	n.pending = trigger.Of(trigger.OwnerChange)
	return n, nil
}
