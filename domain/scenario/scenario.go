// Package scenario describes the timed policy and market interventions a
// simulation run is subjected to.
package scenario

import (
	"fmt"
	"slices"

	"github.com/felixgeelhaar/heatshift/domain/finance"
	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/trigger"
)

// Kind classifies an impact.
type Kind string

// Impact kinds.
const (
	// KindTrigger fires a trigger on a share of the inactive agents.
	KindTrigger Kind = "trigger"
	// KindSubsidyAdd makes a subsidy known to sources and intermediaries.
	KindSubsidyAdd Kind = "subsidy_add"
	// KindSubsidyRemove withdraws a subsidy by name.
	KindSubsidyRemove Kind = "subsidy_remove"
	// KindFuelPrice scales the fuel price of a technology.
	KindFuelPrice Kind = "fuel_price"
	// KindBan schedules a technology to become uninstallable.
	KindBan Kind = "ban"
)

// Impact is one intervention applied at the start of a step.
type Impact struct {
	Step int  `json:"step" yaml:"step"`
	Kind Kind `json:"kind" yaml:"kind"`

	Trigger *trigger.Trigger `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	// Share is the fraction of inactive agents a trigger reaches.
	Share float64 `json:"share,omitempty" yaml:"share,omitempty"`

	Subsidy *finance.Subsidy `json:"subsidy,omitempty" yaml:"subsidy,omitempty"`
	// Name identifies the subsidy to withdraw.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	Technology heating.Type `json:"technology,omitempty" yaml:"technology,omitempty"`
	Factor     float64      `json:"factor,omitempty" yaml:"factor,omitempty"`
	// From is the step a ban takes effect.
	From int `json:"from,omitempty" yaml:"from,omitempty"`
}

// Validate checks the impact carries what its kind needs.
func (i Impact) Validate() error {
	if i.Step < 0 {
		return fmt.Errorf("%w: negative step %d", ErrInvalidImpact, i.Step)
	}
	switch i.Kind {
	case KindTrigger:
		if i.Trigger == nil || i.Trigger.IsNone() {
			return fmt.Errorf("%w: trigger impact at step %d has no trigger", ErrInvalidImpact, i.Step)
		}
		if err := i.Trigger.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidImpact, err)
		}
		if i.Share <= 0 || i.Share > 1 {
			return fmt.Errorf("%w: trigger share %v outside (0,1]", ErrInvalidImpact, i.Share)
		}
	case KindSubsidyAdd:
		if i.Subsidy == nil {
			return fmt.Errorf("%w: subsidy impact at step %d has no subsidy", ErrInvalidImpact, i.Step)
		}
		if err := i.Subsidy.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidImpact, err)
		}
	case KindSubsidyRemove:
		if i.Name == "" {
			return fmt.Errorf("%w: subsidy removal at step %d has no name", ErrInvalidImpact, i.Step)
		}
	case KindFuelPrice:
		if i.Technology == "" || i.Factor <= 0 {
			return fmt.Errorf("%w: fuel price impact needs a technology and a positive factor", ErrInvalidImpact)
		}
	case KindBan:
		if i.Technology == "" || i.From <= 0 {
			return fmt.Errorf("%w: ban needs a technology and a positive start step", ErrInvalidImpact)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownImpact, i.Kind)
	}
	return nil
}

// Describe returns a one-line human summary.
func (i Impact) Describe() string {
	switch i.Kind {
	case KindTrigger:
		return fmt.Sprintf("%s for %.0f%% of inactive houseowners", i.Trigger.Kind, i.Share*100)
	case KindSubsidyAdd:
		return fmt.Sprintf("subsidy %q for %s", i.Subsidy.Name, i.Subsidy.Technology)
	case KindSubsidyRemove:
		return fmt.Sprintf("subsidy %q withdrawn", i.Name)
	case KindFuelPrice:
		return fmt.Sprintf("%s fuel price x%.2f", i.Technology, i.Factor)
	case KindBan:
		return fmt.Sprintf("%s banned from step %d", i.Technology, i.From)
	}
	return string(i.Kind)
}

// Scenario is a named list of impacts.
type Scenario struct {
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Impacts []Impact `json:"impacts,omitempty" yaml:"impacts,omitempty"`
}

// Validate checks every impact.
func (s Scenario) Validate() error {
	for n, i := range s.Impacts {
		if err := i.Validate(); err != nil {
			return fmt.Errorf("impact %d: %w", n, err)
		}
	}
	return nil
}

// Due returns the impacts scheduled for step in definition order.
func (s Scenario) Due(step int) []Impact {
	var due []Impact
	for _, i := range s.Impacts {
		if i.Step == step {
			due = append(due, i)
		}
	}
	return due
}

// Apply returns rules with the subsidy changes of impacts applied.
// Other impact kinds are ignored.
func Apply(rules []finance.Subsidy, impacts []Impact) []finance.Subsidy {
	out := finance.CloneSubsidies(rules)
	for _, i := range impacts {
		switch i.Kind {
		case KindSubsidyAdd:
			out = append(out, *i.Subsidy)
		case KindSubsidyRemove:
			out = slices.DeleteFunc(out, func(s finance.Subsidy) bool { return s.Name == i.Name })
		}
	}
	return out
}
