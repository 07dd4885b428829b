package heating

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
)

// Pricing selects the quantity a system's price scales with.
type Pricing string

// Pricing bases.
const (
	PricingHeatLoad Pricing = "heat_load"
	PricingArea     Pricing = "area"
)

// Spec is the house-independent description of a heating technology.
type Spec struct {
	Type               Type      `json:"type" yaml:"type"`
	Pricing            Pricing   `json:"pricing" yaml:"pricing"`
	BasePrice          float64   `json:"base_price" yaml:"base_price"`
	PriceExponent      float64   `json:"price_exponent" yaml:"price_exponent"`
	PriceCorrection    float64   `json:"price_correction" yaml:"price_correction"`
	OpexFactor         float64   `json:"opex_factor" yaml:"opex_factor"`
	FuelPrice          float64   `json:"fuel_price" yaml:"fuel_price"`
	EmissionFactor     float64   `json:"emission_factor" yaml:"emission_factor"`
	Efficiency         []float64 `json:"efficiency" yaml:"efficiency"`
	OperationEffort    float64   `json:"operation_effort" yaml:"operation_effort"`
	InstallationEffort float64   `json:"installation_effort" yaml:"installation_effort"`
	LifetimeMin        int       `json:"lifetime_min" yaml:"lifetime_min"`
	LifetimeMax        int       `json:"lifetime_max" yaml:"lifetime_max"`
	InstallationTime   int       `json:"installation_time" yaml:"installation_time"`
	HeatDelivery       bool      `json:"heat_delivery,omitempty" yaml:"heat_delivery,omitempty"`
	NeedsInsulation    bool      `json:"needs_insulation,omitempty" yaml:"needs_insulation,omitempty"`
	Availability       int       `json:"availability,omitempty" yaml:"availability,omitempty"`
}

// Validate checks the spec can price a house.
func (s Spec) Validate() error {
	switch {
	case s.Type == "":
		return fmt.Errorf("%w: missing type", ErrInvalidSpec)
	case s.Pricing != PricingHeatLoad && s.Pricing != PricingArea:
		return fmt.Errorf("%w: %s pricing %q", ErrInvalidSpec, s.Type, s.Pricing)
	case s.BasePrice < 0 || s.FuelPrice < 0 || s.EmissionFactor < 0 || s.OpexFactor < 0:
		return fmt.Errorf("%w: %s has negative cost factors", ErrInvalidSpec, s.Type)
	case len(s.Efficiency) != len(DemandClasses):
		return fmt.Errorf("%w: %s needs %d efficiency factors", ErrInvalidSpec, s.Type, len(DemandClasses))
	case s.LifetimeMin <= 0 || s.LifetimeMax < s.LifetimeMin:
		return fmt.Errorf("%w: %s lifetime range [%d, %d]", ErrInvalidSpec, s.Type, s.LifetimeMin, s.LifetimeMax)
	}
	return nil
}

// Catalog holds the installable technologies.
// It is safe for concurrent use.
type Catalog struct {
	mu    sync.RWMutex
	specs map[Type]Spec
	order []Type
}

// NewCatalog creates a catalog from validated specs.
func NewCatalog(specs ...Spec) (*Catalog, error) {
	c := &Catalog{specs: make(map[Type]Spec, len(specs))}
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.specs[s.Type]; !dup {
			c.order = append(c.order, s.Type)
		}
		s.Efficiency = slices.Clone(s.Efficiency)
		c.specs[s.Type] = s
	}
	return c, nil
}

// Types returns the catalog's technologies in insertion order.
func (c *Catalog) Types() []Type {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.order)
}

// Spec returns the spec of a technology.
func (c *Catalog) Spec(t Type) (Spec, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.specs[t]
	return s, ok
}

// NeedsInsulation reports whether the technology requires a well-insulated house.
func (c *Catalog) NeedsInsulation(t Type) bool {
	s, ok := c.Spec(t)
	return ok && s.NeedsInsulation
}

// ScaleFuelPrice multiplies the fuel price of a technology.
func (c *Catalog) ScaleFuelPrice(t Type, factor float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.specs[t]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	if factor < 0 {
		return fmt.Errorf("%w: negative fuel price factor %v", ErrInvalidSpec, factor)
	}
	s.FuelPrice *= factor
	c.specs[t] = s
	return nil
}

// Ban schedules the technology to become uninstallable from step.
func (c *Catalog) Ban(t Type, step int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.specs[t]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	s.Availability = step
	c.specs[t] = s
	return nil
}

// EnergyDemand returns the annual final energy demand in kWh of a house
// heated by the technology.
func (s Spec) EnergyDemand(h House) float64 {
	return h.ProcessedArea() * h.EnergyDemand * s.Efficiency[h.DemandClass()]
}

// Price returns the installation price for a house.
func (s Spec) Price(h House) float64 {
	if s.HeatDelivery {
		return 0
	}
	return s.grossPrice(h)
}

func (s Spec) grossPrice(h House) float64 {
	basis := h.HeatLoad
	if s.Pricing == PricingArea {
		basis = h.Area
	}
	if basis <= 0 {
		return 0
	}
	correction := s.PriceCorrection
	if correction == 0 {
		correction = 1
	}
	return s.BasePrice * math.Pow(basis, s.PriceExponent) * basis * correction
}

// Attributes computes the true attribute values of the technology in a house.
// Uncertainties are set to MinUncertainty.
func (c *Catalog) Attributes(t Type, h House) (Params, error) {
	s, ok := c.Spec(t)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	demand := s.EnergyDemand(h)
	price := s.Price(h)
	opex := price * s.OpexFactor
	if s.HeatDelivery {
		// The contract fee covers the plant, spread over its mean lifetime.
		years := float64(s.LifetimeMin+s.LifetimeMax) / 2 / 52
		gross := s.grossPrice(h)
		opex = gross*s.OpexFactor + gross/years
	}
	p := Params{
		AttrPrice:              {Value: price, Uncertainty: MinUncertainty},
		AttrOpex:               {Value: opex, Uncertainty: MinUncertainty},
		AttrFuelCost:           {Value: s.FuelPrice * demand, Uncertainty: MinUncertainty},
		AttrEmissions:          {Value: s.EmissionFactor * demand, Uncertainty: MinUncertainty},
		AttrOperationEffort:    {Value: s.OperationEffort, Uncertainty: MinUncertainty},
		AttrInstallationEffort: {Value: s.InstallationEffort, Uncertainty: MinUncertainty},
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s in house %s: %w", t, h.ID, err)
	}
	return p, nil
}

// Build creates a fresh system of the technology for a house, drawing its
// lifetime uniformly from the spec's range.
func (c *Catalog) Build(t Type, h House, rng *rand.Rand) (*System, error) {
	params, err := c.Attributes(t, h)
	if err != nil {
		return nil, err
	}
	s, _ := c.Spec(t)
	lifetime := s.LifetimeMin
	if span := s.LifetimeMax - s.LifetimeMin; span > 0 {
		lifetime += rng.IntN(span + 1)
	}
	return &System{
		Type:             t,
		Params:           params,
		Lifetime:         lifetime,
		InstallationTime: s.InstallationTime,
		Availability:     s.Availability,
		HeatDelivery:     s.HeatDelivery,
	}, nil
}
