package finance

import (
	"fmt"
	"math"
	"slices"
)

// Subsidy caps and the flat bonus paid on top of eligible subsidies.
const (
	ShareCap     = 0.7
	AmountCap    = 21000.0
	PremiumShare = 0.05
)

// Target is who a subsidy condition is evaluated against.
type Target string

// Condition targets.
const (
	TargetHouseowner Target = "houseowner"
	TargetSystem     Target = "heating_system"
)

// ConditionKind selects the eligibility test of a condition.
type ConditionKind string

// Condition kinds.
const (
	// ConditionReplacesFossil requires the current heating to burn a fossil fuel.
	ConditionReplacesFossil ConditionKind = "replaces_fossil"
	// ConditionIncomeBelow requires an annual income at or below the threshold.
	ConditionIncomeBelow ConditionKind = "income_below"
)

// DefaultFossilTypes are the heating types counted as fossil when a
// condition does not list its own.
var DefaultFossilTypes = []string{"oil", "gas"}

// Condition restricts a subsidy to some applicants.
type Condition struct {
	Target    Target        `json:"target" yaml:"target"`
	Kind      ConditionKind `json:"kind" yaml:"kind"`
	Threshold float64       `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Fossil    []string      `json:"fossil,omitempty" yaml:"fossil,omitempty"`
}

// Applicant is what subsidy conditions are checked against.
type Applicant struct {
	CurrentHeating string
	AnnualIncome   float64
}

// Subsidy grants a share of the pre-subsidy price for one technology.
type Subsidy struct {
	Name       string     `json:"name" yaml:"name"`
	Technology string     `json:"technology" yaml:"technology"`
	Share      float64    `json:"share" yaml:"share"`
	Condition  *Condition `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// Validate checks the rule is well formed.
func (s Subsidy) Validate() error {
	if s.Technology == "" {
		return fmt.Errorf("%w: %q has no technology", ErrInvalidSubsidy, s.Name)
	}
	if s.Share <= 0 || s.Share > 1 || math.IsNaN(s.Share) {
		return fmt.Errorf("%w: %q share %v outside (0,1]", ErrInvalidSubsidy, s.Name, s.Share)
	}
	if s.Condition == nil {
		return nil
	}
	switch s.Condition.Kind {
	case ConditionReplacesFossil:
		if s.Condition.Target != TargetSystem {
			return fmt.Errorf("%w: %q fossil condition must target %s", ErrInvalidSubsidy, s.Name, TargetSystem)
		}
	case ConditionIncomeBelow:
		if s.Condition.Target != TargetHouseowner {
			return fmt.Errorf("%w: %q income condition must target %s", ErrInvalidSubsidy, s.Name, TargetHouseowner)
		}
		if s.Condition.Threshold <= 0 {
			return fmt.Errorf("%w: %q income threshold must be positive", ErrInvalidSubsidy, s.Name)
		}
	default:
		return fmt.Errorf("%w: %q unknown condition %q", ErrInvalidSubsidy, s.Name, s.Condition.Kind)
	}
	return nil
}

// Eligible reports whether the applicant satisfies the rule's condition.
// Unconditional rules are always eligible.
func (s Subsidy) Eligible(a Applicant) bool {
	c := s.Condition
	if c == nil {
		return true
	}
	switch c.Kind {
	case ConditionReplacesFossil:
		fossil := c.Fossil
		if len(fossil) == 0 {
			fossil = DefaultFossilTypes
		}
		return slices.Contains(fossil, a.CurrentHeating)
	case ConditionIncomeBelow:
		return a.AnnualIncome <= c.Threshold
	default:
		return false
	}
}

// Cap returns the maximum regular subsidy for a price.
func Cap(price float64) float64 {
	return math.Min(ShareCap*price, AmountCap)
}

// Total sums the eligible shares of price, caps the sum, and adds the
// premium. It returns 0 when no rule is known or the price is not positive.
func Total(price float64, rules []Subsidy, a Applicant) float64 {
	if len(rules) == 0 || price <= 0 {
		return 0
	}
	var sum float64
	for _, r := range rules {
		if r.Eligible(a) {
			sum += r.Share * price
		}
	}
	return math.Min(sum, Cap(price)) + PremiumShare*price
}

// CloneSubsidies returns a deep copy of a rule list.
func CloneSubsidies(rules []Subsidy) []Subsidy {
	if rules == nil {
		return nil
	}
	out := make([]Subsidy, len(rules))
	for i, r := range rules {
		out[i] = r
		if r.Condition != nil {
			c := *r.Condition
			c.Fossil = slices.Clone(r.Condition.Fossil)
			out[i].Condition = &c
		}
	}
	return out
}
