package heating

import (
	"fmt"
	"math"
)

// MinUncertainty is the floor for every perceived uncertainty.
const MinUncertainty = 1e-6

// Attribute names a rated property of a heating system.
// All attributes are lower-is-better.
type Attribute string

// Rated attributes.
const (
	AttrPrice              Attribute = "price"
	AttrOpex               Attribute = "opex"
	AttrFuelCost           Attribute = "fuel_cost"
	AttrEmissions          Attribute = "emissions"
	AttrOperationEffort    Attribute = "operation_effort"
	AttrInstallationEffort Attribute = "installation_effort"
)

// Attributes returns every attribute in a fixed order.
// Anything that draws random numbers per attribute must iterate this slice.
func Attributes() []Attribute {
	return []Attribute{
		AttrPrice,
		AttrOpex,
		AttrFuelCost,
		AttrEmissions,
		AttrOperationEffort,
		AttrInstallationEffort,
	}
}

// Estimate is a believed attribute value with its uncertainty half-width.
type Estimate struct {
	Value       float64 `json:"value"`
	Uncertainty float64 `json:"uncertainty"`
}

// NewEstimate builds an estimate, raising the uncertainty to MinUncertainty.
func NewEstimate(value, uncertainty float64) (Estimate, error) {
	e := Estimate{Value: value, Uncertainty: uncertainty}
	if err := e.Validate(); err != nil {
		return Estimate{}, err
	}
	if e.Uncertainty < MinUncertainty {
		e.Uncertainty = MinUncertainty
	}
	return e, nil
}

// Validate fails on NaN values and negative uncertainty.
func (e Estimate) Validate() error {
	if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
		return fmt.Errorf("%w: value %v", ErrInvalidEstimate, e.Value)
	}
	if math.IsNaN(e.Uncertainty) || e.Uncertainty < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeUncertainty, e.Uncertainty)
	}
	return nil
}

// Params holds one estimate per attribute.
type Params map[Attribute]Estimate

// Clone returns an independent copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Value returns the believed value of an attribute.
func (p Params) Value(a Attribute) float64 {
	return p[a].Value
}

// SetValue replaces the value of an attribute and keeps its uncertainty.
func (p Params) SetValue(a Attribute, v float64) {
	e := p[a]
	e.Value = v
	p[a] = e
}

// Validate checks every estimate and rejects a negative price.
func (p Params) Validate() error {
	for _, a := range Attributes() {
		e, ok := p[a]
		if !ok {
			continue
		}
		if err := e.Validate(); err != nil {
			return fmt.Errorf("%s: %w", a, err)
		}
	}
	if p[AttrPrice].Value < 0 {
		return fmt.Errorf("%w: %v", ErrNegativePrice, p[AttrPrice].Value)
	}
	return nil
}
