package heating

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

var testHouse = House{ID: "h1", Area: 120, EnergyDemand: 140, HeatLoad: 10}

func TestEstimate_Validate(t *testing.T) {
	t.Parallel()

	if _, err := NewEstimate(5, -0.1); !errors.Is(err, ErrNegativeUncertainty) {
		t.Errorf("NewEstimate(5, -0.1) error = %v, want ErrNegativeUncertainty", err)
	}
	if _, err := NewEstimate(math.NaN(), 1); !errors.Is(err, ErrInvalidEstimate) {
		t.Errorf("NewEstimate(NaN) error = %v, want ErrInvalidEstimate", err)
	}
	e, err := NewEstimate(5, 0)
	if err != nil {
		t.Fatalf("NewEstimate(5, 0) error = %v", err)
	}
	if e.Uncertainty != MinUncertainty {
		t.Errorf("Uncertainty = %v, want floor %v", e.Uncertainty, MinUncertainty)
	}
}

func TestParams_ValidateNegativePrice(t *testing.T) {
	t.Parallel()

	p := Params{AttrPrice: {Value: -1, Uncertainty: 1}}
	if err := p.Validate(); !errors.Is(err, ErrNegativePrice) {
		t.Errorf("Validate() error = %v, want ErrNegativePrice", err)
	}
}

func TestHouse_DemandClass(t *testing.T) {
	t.Parallel()

	tests := []struct {
		demand float64
		want   int
	}{
		{20, 0},
		{74, 0},
		{75, 0},
		{76, 1},
		{140, 2},
		{400, 4},
	}
	for _, tt := range tests {
		if got := (House{EnergyDemand: tt.demand}).DemandClass(); got != tt.want {
			t.Errorf("DemandClass(%v) = %d, want %d", tt.demand, got, tt.want)
		}
	}
}

func TestCatalog_Attributes(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	spec, _ := c.Spec(Gas)
	p, err := c.Attributes(Gas, testHouse)
	if err != nil {
		t.Fatalf("Attributes() error = %v", err)
	}

	demand := 120 * (2.3*1.5 + 0.75) * 0.32 * 140 * spec.Efficiency[2]
	price := spec.BasePrice * math.Pow(10, spec.PriceExponent) * 10
	checks := map[Attribute]float64{
		AttrPrice:     price,
		AttrOpex:      price * spec.OpexFactor,
		AttrFuelCost:  spec.FuelPrice * demand,
		AttrEmissions: spec.EmissionFactor * demand,
	}
	for a, want := range checks {
		if got := p.Value(a); math.Abs(got-want) > 1e-6 {
			t.Errorf("%s = %v, want %v", a, got, want)
		}
	}
}

func TestCatalog_HeatDeliveryIsFreeToInstall(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	p, err := c.Attributes(LocalNetwork, testHouse)
	if err != nil {
		t.Fatalf("Attributes() error = %v", err)
	}
	if p.Value(AttrPrice) != 0 {
		t.Errorf("price = %v, want 0", p.Value(AttrPrice))
	}
	if p.Value(AttrOpex) <= 0 {
		t.Errorf("opex = %v, want contract fee", p.Value(AttrOpex))
	}
}

func TestCatalog_BuildLifetimeInRange(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	rng := rand.New(rand.NewPCG(1, 2))
	spec, _ := c.Spec(HeatPump)
	for range 100 {
		s, err := c.Build(HeatPump, testHouse, rng)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if s.Lifetime < spec.LifetimeMin || s.Lifetime > spec.LifetimeMax {
			t.Fatalf("lifetime %d outside [%d, %d]", s.Lifetime, spec.LifetimeMin, spec.LifetimeMax)
		}
	}
}

func TestCatalog_UnknownType(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	if _, err := c.Attributes("coal", testHouse); !errors.Is(err, ErrUnknownType) {
		t.Errorf("error = %v, want ErrUnknownType", err)
	}
	if err := c.ScaleFuelPrice("coal", 2); !errors.Is(err, ErrUnknownType) {
		t.Errorf("error = %v, want ErrUnknownType", err)
	}
}

func TestCatalog_ScaleFuelPriceAndBan(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	before, _ := c.Spec(Oil)
	if err := c.ScaleFuelPrice(Oil, 1.5); err != nil {
		t.Fatal(err)
	}
	if err := c.Ban(Oil, 300); err != nil {
		t.Fatal(err)
	}
	after, _ := c.Spec(Oil)
	if math.Abs(after.FuelPrice-before.FuelPrice*1.5) > 1e-12 {
		t.Errorf("FuelPrice = %v, want %v", after.FuelPrice, before.FuelPrice*1.5)
	}
	s, err := c.Build(Oil, testHouse, rand.New(rand.NewPCG(3, 4)))
	if err != nil {
		t.Fatal(err)
	}
	if weeks, banned := s.WeeksUntilBan(200); !banned || weeks != 100 {
		t.Errorf("WeeksUntilBan(200) = %d, %v", weeks, banned)
	}
}

func TestNewCatalog_RejectsInvalidSpec(t *testing.T) {
	t.Parallel()

	_, err := NewCatalog(Spec{Type: "x", Pricing: PricingArea, Efficiency: []float64{1}})
	if !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("error = %v, want ErrInvalidSpec", err)
	}
}

func TestSystem_Lifecycle(t *testing.T) {
	t.Parallel()

	s := &System{
		Type:     Gas,
		Params:   Params{AttrPrice: {Value: 10400, Uncertainty: 1}},
		Lifetime: 2,
	}
	s.Commission()
	if s.Investment != 10400 || s.Payback != 5200 {
		t.Fatalf("Commission() investment=%v payback=%v", s.Investment, s.Payback)
	}

	for range 3 {
		s.CheckPayback()
		s.Age++
	}
	if s.Investment != 0 {
		t.Errorf("Investment = %v, want 0", s.Investment)
	}
	if !s.CheckBreakdown() {
		t.Error("system older than lifetime should break down")
	}
	if s.RemainingLifetime() != -1 {
		t.Errorf("RemainingLifetime() = %d, want -1", s.RemainingLifetime())
	}
}

func TestSystem_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	s := &System{Type: Pellet, Params: Params{AttrPrice: {Value: 1, Uncertainty: 1}}}
	s.RecordOpinion("n1", 0.4)
	c := s.Clone()
	c.Params.SetValue(AttrPrice, 9)
	c.RecordOpinion("n1", 0.9)
	if s.Price() != 1 || s.NeighbourOpinions["n1"] != 0.4 {
		t.Error("clone shares state with original")
	}
}
