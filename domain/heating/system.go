// Package heating models heating systems, their per-house attributes and the
// catalog they are built from.
package heating

import (
	"maps"
	"math"

	"github.com/felixgeelhaar/heatshift/domain/finance"
)

// Type identifies a heating technology.
type Type string

// Heating technologies.
const (
	Oil             Type = "oil"
	Gas             Type = "gas"
	HeatPump        Type = "heat_pump"
	HeatPumpBrine   Type = "heat_pump_brine"
	Electricity     Type = "electricity"
	Pellet          Type = "pellet"
	DistrictHeating Type = "district_heating"
	LocalNetwork    Type = "local_network"
)

// Source is where a piece of knowledge about a system came from.
type Source string

// Knowledge sources.
const (
	SourceInstalled     Source = "installed"
	SourceInternet      Source = "internet"
	SourceMagazine      Source = "magazine"
	SourcePlumber       Source = "plumber"
	SourceNeighbour     Source = "neighbour"
	SourceEnergyAdvisor Source = "energy_advisor"
	SourceCampaign      Source = "campaign"
)

// System is a heating system priced for one house, either installed or
// believed in by an agent. Durations are in weeks.
type System struct {
	Type             Type   `json:"type"`
	Params           Params `json:"params"`
	Age              int    `json:"age"`
	Lifetime         int    `json:"lifetime"`
	InstallationTime int    `json:"installation_time"`

	// Availability is the step from which the type can no longer be
	// installed. Zero means no ban is scheduled.
	Availability int  `json:"availability,omitempty"`
	HeatDelivery bool `json:"heat_delivery,omitempty"`

	Investment float64       `json:"investment"`
	Payback    float64       `json:"payback"`
	Breakdown  bool          `json:"breakdown"`
	Subsidised bool          `json:"subsidised"`
	Loan       *finance.Loan `json:"loan,omitempty"`
	Source     Source        `json:"source"`

	Rating            float64            `json:"rating"`
	SocialNorm        float64            `json:"social_norm"`
	Control           float64            `json:"control"`
	Riskiness         float64            `json:"riskiness"`
	SatisfiedRatio    float64            `json:"satisfied_ratio"`
	NeighbourOpinions map[string]float64 `json:"neighbour_opinions,omitempty"`
}

// Clone returns a deep copy.
func (s *System) Clone() *System {
	if s == nil {
		return nil
	}
	c := *s
	c.Params = s.Params.Clone()
	c.Loan = s.Loan.Clone()
	if s.NeighbourOpinions != nil {
		c.NeighbourOpinions = maps.Clone(s.NeighbourOpinions)
	}
	return &c
}

// Price returns the believed price.
func (s *System) Price() float64 {
	return s.Params.Value(AttrPrice)
}

// RemainingLifetime returns the weeks left before expected breakdown.
func (s *System) RemainingLifetime() int {
	return s.Lifetime - s.Age
}

// WeeklyRunningCost returns fuel cost plus opex per week.
func (s *System) WeeklyRunningCost() float64 {
	return (s.Params.Value(AttrFuelCost) + s.Params.Value(AttrOpex)) / 52
}

// WeeksUntilBan returns the weeks left before the type is banned at step.
// The second result is false when no ban is scheduled.
func (s *System) WeeksUntilBan(step int) (int, bool) {
	if s.Availability == 0 {
		return 0, false
	}
	return s.Availability - step, true
}

// CheckBreakdown flags the system broken once it outlives its lifetime.
func (s *System) CheckBreakdown() bool {
	if s.Lifetime < s.Age {
		s.Breakdown = true
	}
	return s.Breakdown
}

// CheckPayback writes off one week of the remaining investment.
func (s *System) CheckPayback() {
	s.Investment = math.Max(0, s.Investment-s.Payback)
}

// Commission marks a freshly installed system: age zero, investment booked
// at price and paid back linearly over the lifetime.
func (s *System) Commission() {
	s.Age = 0
	s.Breakdown = false
	s.Source = SourceInstalled
	s.Investment = s.Price()
	if s.Lifetime > 0 {
		s.Payback = s.Investment / float64(s.Lifetime)
	}
}

// RecordOpinion stores a neighbour's rating of this system.
func (s *System) RecordOpinion(neighbour string, rating float64) {
	if s.NeighbourOpinions == nil {
		s.NeighbourOpinions = make(map[string]float64)
	}
	s.NeighbourOpinions[neighbour] = rating
}
