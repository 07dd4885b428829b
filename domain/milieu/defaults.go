package milieu

import "github.com/felixgeelhaar/heatshift/domain/heating"

func prefs(price, opex, fuel, emissions, operation, installation BetaParams) map[heating.Attribute]BetaParams {
	return map[heating.Attribute]BetaParams{
		heating.AttrPrice:              price,
		heating.AttrOpex:               opex,
		heating.AttrFuelCost:           fuel,
		heating.AttrEmissions:          emissions,
		heating.AttrOperationEffort:    operation,
		heating.AttrInstallationEffort: installation,
	}
}

func sources(internet, magazine, plumber, neighbour, advisor float64) map[heating.Source]float64 {
	return map[heating.Source]float64{
		heating.SourceInternet:      internet,
		heating.SourceMagazine:      magazine,
		heating.SourcePlumber:       plumber,
		heating.SourceNeighbour:     neighbour,
		heating.SourceEnergyAdvisor: advisor,
	}
}

func exposure(leading, mainstream, traditional, hedonist float64) map[Type]float64 {
	return map[Type]float64{
		Leading:     leading,
		Mainstream:  mainstream,
		Traditional: traditional,
		Hedonist:    hedonist,
	}
}

// DefaultProfiles returns the built-in milieu bundles keyed by type.
func DefaultProfiles() map[Type]Profile {
	return map[Type]Profile{
		Leading: {
			Type:  Leading,
			Share: 0.25,
			Preferences: prefs(
				BetaParams{2, 4}, BetaParams{2, 4}, BetaParams{3, 3},
				BetaParams{6, 2}, BetaParams{2, 5}, BetaParams{2, 5}),
			Sources:           sources(4, 1, 2, 1, 2),
			LifetimeTolerance: 2 * 52,
			TPB:               TPBWeights{Attitude: 0.5, SocialNorm: 0.2, Control: 0.3},
			Exposure:          exposure(0.5, 0.3, 0.1, 0.2),
			UncertaintyFactor: 0.3,
			ResourceMin:       3, ResourceMax: 4,
			Aspiration: 3, Overload: 4,
			RiskTolerance: 0.6,
			LoanTaking:    true,
			BudgetLimit:   150,
			IncomeMin:     120, IncomeMax: 260,
		},
		Mainstream: {
			Type:  Mainstream,
			Share: 0.35,
			Preferences: prefs(
				BetaParams{5, 2}, BetaParams{4, 2}, BetaParams{4, 2},
				BetaParams{2, 3}, BetaParams{3, 3}, BetaParams{3, 3}),
			Sources:           sources(2, 2, 3, 3, 1),
			LifetimeTolerance: 1 * 52,
			TPB:               TPBWeights{Attitude: 0.3, SocialNorm: 0.4, Control: 0.3},
			Exposure:          exposure(0.3, 0.5, 0.3, 0.3),
			UncertaintyFactor: 0.5,
			ResourceMin:       3, ResourceMax: 4,
			Aspiration: 2, Overload: 3,
			RiskTolerance: 0.5,
			LoanTaking:    true,
			BudgetLimit:   120,
			IncomeMin:     80, IncomeMax: 180,
		},
		Traditional: {
			Type:  Traditional,
			Share: 0.25,
			Preferences: prefs(
				BetaParams{6, 2}, BetaParams{5, 2}, BetaParams{4, 2},
				BetaParams{1, 4}, BetaParams{4, 2}, BetaParams{5, 2}),
			Sources:           sources(1, 2, 5, 3, 1),
			LifetimeTolerance: 0,
			TPB:               TPBWeights{Attitude: 0.3, SocialNorm: 0.3, Control: 0.4},
			Exposure:          exposure(0.1, 0.3, 0.5, 0.2),
			UncertaintyFactor: 0.7,
			ResourceMin:       3, ResourceMax: 4,
			Aspiration: 2, Overload: 2,
			RiskTolerance: 0.35,
			LoanTaking:    false,
			BudgetLimit:   200,
			IncomeMin:     60, IncomeMax: 160,
		},
		Hedonist: {
			Type:  Hedonist,
			Share: 0.15,
			Preferences: prefs(
				BetaParams{4, 2}, BetaParams{3, 3}, BetaParams{3, 3},
				BetaParams{2, 4}, BetaParams{6, 2}, BetaParams{5, 2}),
			Sources:           sources(3, 2, 2, 2, 1),
			LifetimeTolerance: 0,
			TPB:               TPBWeights{Attitude: 0.6, SocialNorm: 0.2, Control: 0.2},
			Exposure:          exposure(0.2, 0.3, 0.2, 0.5),
			UncertaintyFactor: 0.4,
			ResourceMin:       3, ResourceMax: 4,
			Aspiration: 2, Overload: 2,
			RiskTolerance: 0.55,
			LoanTaking:    true,
			BudgetLimit:   100,
			IncomeMin:     60, IncomeMax: 200,
		},
	}
}
