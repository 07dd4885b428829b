// Package trigger maps decision-starting events to entry points of the
// houseowner decision process.
package trigger

import (
	"fmt"

	"github.com/felixgeelhaar/heatshift/domain/agent"
	"github.com/felixgeelhaar/heatshift/domain/heating"
)

// Kind identifies a trigger.
type Kind string

// Trigger kinds. None is the null marker.
const (
	None                  Kind = "none"
	Breakdown             Kind = "breakdown"
	Lifetime              Kind = "lifetime"
	Availability          Kind = "availability"
	PriceShock            Kind = "price_shock"
	FuelPrice             Kind = "fuel_price"
	OwnerChange           Kind = "owner_change"
	NeighbourJealousy     Kind = "neighbour_jealousy"
	AdoptiveComparison    Kind = "adoptive_comparison"
	AskedByNeighbour      Kind = "asked_by_neighbour"
	InformationCampaign   Kind = "information_campaign"
	RiskTargetingCampaign Kind = "risk_targeting_campaign"
	Consultation          Kind = "consultation"
)

// Trigger is an event that may start a decision.
type Trigger struct {
	Kind Kind `json:"kind" yaml:"kind"`
	// Factor scales fuel costs for price shocks and perceived uncertainty
	// for risk-targeting campaigns.
	Factor float64 `json:"factor,omitempty" yaml:"factor,omitempty"`
	// Systems are the technologies a campaign is about.
	Systems []heating.Type `json:"systems,omitempty" yaml:"systems,omitempty"`
}

// Of returns a trigger of a kind without parameters.
func Of(k Kind) Trigger {
	return Trigger{Kind: k}
}

// IsNone reports whether t is the null marker.
func (t Trigger) IsNone() bool {
	return t.Kind == None || t.Kind == ""
}

// Validate checks kind and parameters.
func (t Trigger) Validate() error {
	if t.IsNone() {
		return nil
	}
	if _, ok := entries[t.Kind]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, t.Kind)
	}
	switch t.Kind {
	case PriceShock, RiskTargetingCampaign:
		if t.Factor <= 0 {
			return fmt.Errorf("%w: %s needs a positive factor", ErrInvalidTrigger, t.Kind)
		}
		if t.Kind == RiskTargetingCampaign && len(t.Systems) == 0 {
			return fmt.Errorf("%w: %s needs systems", ErrInvalidTrigger, t.Kind)
		}
	case InformationCampaign:
		if len(t.Systems) == 0 {
			return fmt.Errorf("%w: %s needs systems", ErrInvalidTrigger, t.Kind)
		}
	}
	return nil
}

var entries = map[Kind]agent.Position{
	Breakdown:             agent.Preactional,
	Lifetime:              agent.Predecisional,
	Availability:          agent.Predecisional,
	PriceShock:            agent.Predecisional,
	FuelPrice:             agent.Predecisional,
	OwnerChange:           agent.Predecisional,
	NeighbourJealousy:     agent.Predecisional,
	AdoptiveComparison:    agent.Predecisional,
	AskedByNeighbour:      agent.Predecisional,
	InformationCampaign:   agent.Predecisional,
	RiskTargetingCampaign: agent.Predecisional,
	Consultation:          agent.Predecisional,
}

// Entry returns the position a trigger kind starts the decision at.
func Entry(k Kind) (agent.Position, bool) {
	p, ok := entries[k]
	return p, ok
}

// Subject is an agent triggers act on.
type Subject interface {
	Position() agent.Position
	Enter(p agent.Position, k Kind)
	ScaleFuelCost(factor float64) error
	ReceiveCampaign(systems []heating.Type) error
	ReducePerceivedRisk(systems []heating.Type, factor float64) error
}

// Dispatch applies t to an inactive subject: kind-specific side effects
// first, then entry into the decision process. Active subjects and the
// null trigger are left untouched. It reports whether t was applied.
func Dispatch(s Subject, t Trigger) (bool, error) {
	if t.IsNone() || !s.Position().IsInactive() {
		return false, nil
	}
	if err := t.Validate(); err != nil {
		return false, err
	}

	var err error
	switch t.Kind {
	case PriceShock:
		err = s.ScaleFuelCost(t.Factor)
	case InformationCampaign:
		err = s.ReceiveCampaign(t.Systems)
	case RiskTargetingCampaign:
		err = s.ReducePerceivedRisk(t.Systems, t.Factor)
	}
	if err != nil {
		return false, fmt.Errorf("%s trigger: %w", t.Kind, err)
	}

	s.Enter(entries[t.Kind], t.Kind)
	return true, nil
}
