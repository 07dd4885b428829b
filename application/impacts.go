package application

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/houseowner"
	"github.com/felixgeelhaar/heatshift/domain/scenario"
	"github.com/felixgeelhaar/heatshift/domain/trigger"
	"github.com/felixgeelhaar/heatshift/infrastructure/logging"
)

// applyImpacts applies the scenario impacts due this step in definition
// order and records each in the ledger.
func (s *Simulation) applyImpacts(ctx context.Context, impacts []scenario.Impact) error {
	subsidiesChanged := false
	for _, imp := range impacts {
		var (
			affected int
			err      error
		)
		switch imp.Kind {
		case scenario.KindTrigger:
			affected = s.fireTrigger(ctx, *imp.Trigger, imp.Share)
		case scenario.KindSubsidyAdd, scenario.KindSubsidyRemove:
			s.rules = scenario.Apply(s.rules, []scenario.Impact{imp})
			subsidiesChanged = true
			affected = len(s.plumbers) + len(s.advisors)
		case scenario.KindFuelPrice:
			affected, err = s.repriceFuel(imp.Technology, imp.Factor)
		case scenario.KindBan:
			affected, err = s.scheduleBan(imp.Technology, imp.From)
		default:
			err = fmt.Errorf("%w: %q", scenario.ErrUnknownImpact, imp.Kind)
		}
		if err != nil {
			return fmt.Errorf("impact at step %d: %w", s.step, err)
		}

		s.applied = append(s.applied, imp)
		s.ledger.RecordImpact(s.step, string(imp.Kind), imp.Describe(), affected)
		logging.Info().
			Add(logging.RunID(s.runID)).
			Add(logging.Step(s.step)).
			Add(logging.Str("impact", imp.Describe())).
			Add(logging.Count("affected", affected)).
			Msg("scenario impact applied")
	}
	if subsidiesChanged {
		s.publishSubsidies()
	}
	return nil
}

// replayImpacts re-applies the market-wide part of already applied impacts
// to a resumed run. Agent state comes from the checkpoint.
func (s *Simulation) replayImpacts(impacts []scenario.Impact) error {
	for _, imp := range impacts {
		switch imp.Kind {
		case scenario.KindSubsidyAdd, scenario.KindSubsidyRemove:
			s.rules = scenario.Apply(s.rules, []scenario.Impact{imp})
		case scenario.KindFuelPrice:
			if err := s.catalog.ScaleFuelPrice(imp.Technology, imp.Factor); err != nil {
				return err
			}
		case scenario.KindBan:
			if err := s.catalog.Ban(imp.Technology, imp.From); err != nil {
				return err
			}
			s.bans[imp.Technology] = imp.From
		}
	}
	s.applied = slices.Clone(impacts)
	s.publishSubsidies()
	return nil
}

// fireTrigger sets t on a random share of the inactive houseowners.
func (s *Simulation) fireTrigger(ctx context.Context, t trigger.Trigger, share float64) int {
	var inactive []*houseowner.Houseowner
	for _, h := range s.owners {
		if h.Position().IsInactive() {
			inactive = append(inactive, h)
		}
	}
	n := int(math.Round(share * float64(len(inactive))))
	s.rng.Shuffle(len(inactive), func(i, j int) {
		inactive[i], inactive[j] = inactive[j], inactive[i]
	})
	for _, h := range inactive[:n] {
		h.SetTrigger(t)
	}
	s.metrics.RecordTriggers(ctx, t.Kind, n)
	s.collect.Triggers[t.Kind] += n
	return n
}

// repriceFuel scales the catalogue fuel price of t and the fuel cost of
// every installed system of that type. Owners hit hard enough reconsider.
func (s *Simulation) repriceFuel(t heating.Type, factor float64) (int, error) {
	if err := s.catalog.ScaleFuelPrice(t, factor); err != nil {
		return 0, err
	}
	affected := 0
	for _, h := range s.owners {
		before := h.PendingTrigger()
		heats, err := h.RepriceFuel(t, factor)
		if err != nil {
			return affected, err
		}
		if heats {
			affected++
		}
		if before.IsNone() && h.PendingTrigger().Kind == trigger.FuelPrice {
			s.collect.Triggers[trigger.FuelPrice]++
		}
	}
	return affected, nil
}

// scheduleBan announces that t can no longer be installed from step from.
func (s *Simulation) scheduleBan(t heating.Type, from int) (int, error) {
	if err := s.catalog.Ban(t, from); err != nil {
		return 0, err
	}
	s.bans[t] = from
	affected := 0
	for _, h := range s.owners {
		if h.CurrentType() == t {
			affected++
		}
		h.ScheduleBan(t, from)
	}
	return affected, nil
}

// forbidden returns the banned technologies in force this step.
func (s *Simulation) forbidden() []heating.Type {
	var out []heating.Type
	for _, t := range sortedTypes(s.bans) {
		if s.step >= s.bans[t] {
			out = append(out, t)
		}
	}
	return out
}

// enforceBans rules out every technology whose ban is in force.
func (s *Simulation) enforceBans() {
	for _, t := range s.forbidden() {
		for _, h := range s.owners {
			h.Forbid(t)
		}
		if s.step == s.bans[t] {
			logging.Info().
				Add(logging.RunID(s.runID)).
				Add(logging.Step(s.step)).
				Add(logging.System(string(t))).
				Msg("ban in force")
		}
	}
}

// changeOwnership sells houses of inactive owners with the configured
// weekly probability. The buyer is drawn like any other houseowner and
// keeps the house's id, system and network position.
func (s *Simulation) changeOwnership() error {
	prob := s.cfg.Population.OwnershipChange
	if prob <= 0 {
		return nil
	}
	for i, h := range s.owners {
		if s.rng.Float64() >= prob || !h.Position().IsInactive() {
			continue
		}
		profile := s.drawProfile()
		traits := profile.Draw(s.rng)
		successor, err := h.Successor(houseowner.Config{
			Profile:    profile,
			Traits:     traits,
			Budget:     traits.Income * profile.BudgetLimit,
			Infeasible: s.infeasible(),
		})
		if err != nil {
			return err
		}
		s.owners[i] = successor
		s.byID[successor.ID()] = successor
		s.collect.OwnerChanges++
		logging.Debug().
			Add(logging.Step(s.step)).
			Add(logging.AgentID(h.ID())).
			Add(logging.Milieu(string(profile.Type))).
			Msg("house sold")
	}
	return nil
}
