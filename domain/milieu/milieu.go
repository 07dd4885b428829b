// Package milieu provides the socio-cognitive parameter bundles and
// satisfaction criteria of the houseowner milieus.
package milieu

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/felixgeelhaar/heatshift/domain/heating"
)

// Type identifies a milieu.
type Type string

// Milieus.
const (
	Leading     Type = "leading"
	Mainstream  Type = "mainstream"
	Traditional Type = "traditional"
	Hedonist    Type = "hedonist"
)

// AllTypes returns every milieu.
func AllTypes() []Type {
	return []Type{Leading, Mainstream, Traditional, Hedonist}
}

// InformationSources lists the sources an agent picks from, in draw order.
func InformationSources() []heating.Source {
	return []heating.Source{
		heating.SourceInternet,
		heating.SourceMagazine,
		heating.SourcePlumber,
		heating.SourceNeighbour,
		heating.SourceEnergyAdvisor,
	}
}

// BetaParams are the shape parameters of a Beta distribution.
type BetaParams struct {
	Alpha float64 `json:"alpha" yaml:"alpha"`
	Beta  float64 `json:"beta" yaml:"beta"`
}

// TPBWeights weight attitude, social norm and behavioural control.
type TPBWeights struct {
	Attitude   float64 `json:"attitude" yaml:"attitude"`
	SocialNorm float64 `json:"social_norm" yaml:"social_norm"`
	Control    float64 `json:"control" yaml:"control"`
}

// Normalized scales the weights to sum to one.
func (w TPBWeights) Normalized() TPBWeights {
	sum := w.Attitude + w.SocialNorm + w.Control
	if sum <= 0 {
		return TPBWeights{Attitude: 1.0 / 3, SocialNorm: 1.0 / 3, Control: 1.0 / 3}
	}
	return TPBWeights{Attitude: w.Attitude / sum, SocialNorm: w.SocialNorm / sum, Control: w.Control / sum}
}

// Profile is the parameter bundle of a milieu. Durations are in weeks,
// money in currency units per week.
type Profile struct {
	Type              Type                             `json:"type" yaml:"type"`
	Share             float64                          `json:"share" yaml:"share"`
	Preferences       map[heating.Attribute]BetaParams `json:"preferences" yaml:"preferences"`
	Sources           map[heating.Source]float64       `json:"sources" yaml:"sources"`
	LifetimeTolerance int                              `json:"lifetime_tolerance" yaml:"lifetime_tolerance"`
	TPB               TPBWeights                       `json:"tpb" yaml:"tpb"`
	Exposure          map[Type]float64                 `json:"exposure" yaml:"exposure"`
	UncertaintyFactor float64                          `json:"uncertainty_factor" yaml:"uncertainty_factor"`
	ResourceMin       int                              `json:"resource_min" yaml:"resource_min"`
	ResourceMax       int                              `json:"resource_max" yaml:"resource_max"`
	Aspiration        int                              `json:"aspiration" yaml:"aspiration"`
	Overload          int                              `json:"overload" yaml:"overload"`
	RiskTolerance     float64                          `json:"risk_tolerance" yaml:"risk_tolerance"`
	LoanTaking        bool                             `json:"loan_taking" yaml:"loan_taking"`
	BudgetLimit       float64                          `json:"budget_limit" yaml:"budget_limit"`
	IncomeMin         float64                          `json:"income_min" yaml:"income_min"`
	IncomeMax         float64                          `json:"income_max" yaml:"income_max"`
}

// Validate checks the bundle is complete.
func (p Profile) Validate() error {
	if _, ok := criteria[p.Type]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMilieu, p.Type)
	}
	for _, a := range heating.Attributes() {
		bp, ok := p.Preferences[a]
		if !ok {
			return fmt.Errorf("%w: %s has no preference for %s", ErrInvalidProfile, p.Type, a)
		}
		if bp.Alpha <= 0 || bp.Beta <= 0 {
			return fmt.Errorf("%w: %s preference %s needs positive shape", ErrInvalidProfile, p.Type, a)
		}
	}
	for _, s := range InformationSources() {
		if p.Sources[s] <= 0 {
			return fmt.Errorf("%w: %s source weight %s must be positive", ErrInvalidProfile, p.Type, s)
		}
	}
	for _, other := range AllTypes() {
		mu, ok := p.Exposure[other]
		if !ok || mu < 0 || mu > 1 {
			return fmt.Errorf("%w: %s exposure to %s must be in [0,1]", ErrInvalidProfile, p.Type, other)
		}
	}
	switch {
	case p.ResourceMin < 0 || p.ResourceMax < p.ResourceMin:
		return fmt.Errorf("%w: %s resource range [%d, %d]", ErrInvalidProfile, p.Type, p.ResourceMin, p.ResourceMax)
	case p.Aspiration <= 0 || p.Overload <= 0:
		return fmt.Errorf("%w: %s aspiration and overload must be positive", ErrInvalidProfile, p.Type)
	case p.UncertaintyFactor < 0 || p.UncertaintyFactor > 1:
		return fmt.Errorf("%w: %s uncertainty factor outside [0,1]", ErrInvalidProfile, p.Type)
	case p.RiskTolerance < 0:
		return fmt.Errorf("%w: %s negative risk tolerance", ErrInvalidProfile, p.Type)
	case p.BudgetLimit <= 0:
		return fmt.Errorf("%w: %s budget limit must be positive", ErrInvalidProfile, p.Type)
	case p.IncomeMin < 0 || p.IncomeMax < p.IncomeMin:
		return fmt.Errorf("%w: %s income range", ErrInvalidProfile, p.Type)
	}
	return nil
}

// Traits are the individual values drawn for one agent from a profile.
type Traits struct {
	Preferences       map[heating.Attribute]float64 `json:"preferences"`
	Sources           map[heating.Source]float64    `json:"sources"`
	CognitiveResource int                           `json:"cognitive_resource"`
	Income            float64                       `json:"income"`
}

// Draw samples individual traits. Attribute preferences come from their
// Beta distributions and are normalized to sum to one. Source weights come
// from a Dirichlet over the profile's concentrations.
func (p Profile) Draw(rng *rand.Rand) Traits {
	t := Traits{
		Preferences: make(map[heating.Attribute]float64, len(p.Preferences)),
		Sources:     make(map[heating.Source]float64, len(p.Sources)),
	}

	var sum float64
	for _, a := range heating.Attributes() {
		bp := p.Preferences[a]
		v := distuv.Beta{Alpha: bp.Alpha, Beta: bp.Beta, Src: rng}.Rand()
		t.Preferences[a] = v
		sum += v
	}
	for a, v := range t.Preferences {
		if sum > 0 {
			t.Preferences[a] = v / sum
		} else {
			t.Preferences[a] = 1 / float64(len(t.Preferences))
		}
	}

	sources := InformationSources()
	alpha := make([]float64, len(sources))
	for i, s := range sources {
		alpha[i] = p.Sources[s]
	}
	weights := distmv.NewDirichlet(alpha, rng).Rand(nil)
	for i, s := range sources {
		t.Sources[s] = weights[i]
	}

	t.CognitiveResource = p.ResourceMin
	if span := p.ResourceMax - p.ResourceMin; span > 0 {
		t.CognitiveResource += rng.IntN(span + 1)
	}
	t.Income = math.Round(p.IncomeMin + rng.Float64()*(p.IncomeMax-p.IncomeMin))
	return t
}
