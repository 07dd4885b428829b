package heating

import "math"

// House is the read-only building a system is priced for.
type House struct {
	ID string `json:"id"`
	// Area is the living area in m².
	Area float64 `json:"area"`
	// EnergyDemand is the specific heat demand in kWh/m²a.
	EnergyDemand float64 `json:"energy_demand"`
	// HeatLoad is the design heat load in kW.
	HeatLoad float64 `json:"heat_load"`
}

// DemandClasses are the specific-demand classes efficiency factors refer to.
var DemandClasses = []float64{50, 100, 150, 200, 250}

// DemandClass returns the index of the class nearest to the house demand.
// Ties go to the lower class.
func (h House) DemandClass() int {
	best := 0
	for i, c := range DemandClasses {
		if math.Abs(h.EnergyDemand-c) < math.Abs(h.EnergyDemand-DemandClasses[best]) {
			best = i
		}
	}
	return best
}

// ProcessedArea converts the living area into the heated reference area.
func (h House) ProcessedArea() float64 {
	return h.Area * (2.3*1.5 + 0.75) * 0.32
}
