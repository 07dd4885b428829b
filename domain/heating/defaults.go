package heating

const weeksPerYear = 52

// DefaultSpecs returns the built-in technology table.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Type: Gas, Pricing: PricingHeatLoad,
			BasePrice: 900, PriceExponent: -0.25, OpexFactor: 0.03,
			FuelPrice: 0.12, EmissionFactor: 0.201,
			Efficiency:      []float64{1.1, 1.05, 1.0, 0.98, 0.96},
			OperationEffort: 1, InstallationEffort: 1,
			LifetimeMin: 18 * weeksPerYear, LifetimeMax: 22 * weeksPerYear,
			InstallationTime: 2,
		},
		{
			Type: Oil, Pricing: PricingHeatLoad,
			BasePrice: 1000, PriceExponent: -0.25, OpexFactor: 0.035,
			FuelPrice: 0.11, EmissionFactor: 0.266,
			Efficiency:      []float64{1.12, 1.06, 1.0, 0.98, 0.96},
			OperationEffort: 2, InstallationEffort: 2,
			LifetimeMin: 20 * weeksPerYear, LifetimeMax: 25 * weeksPerYear,
			InstallationTime: 2,
		},
		{
			Type: HeatPump, Pricing: PricingHeatLoad,
			BasePrice: 2000, PriceExponent: -0.2, OpexFactor: 0.015,
			FuelPrice: 0.10, EmissionFactor: 0.127,
			Efficiency:      []float64{0.9, 1.0, 1.1, 1.25, 1.4},
			OperationEffort: 1, InstallationEffort: 3,
			LifetimeMin: 15 * weeksPerYear, LifetimeMax: 20 * weeksPerYear,
			InstallationTime: 4, NeedsInsulation: true,
		},
		{
			Type: HeatPumpBrine, Pricing: PricingHeatLoad,
			BasePrice: 2800, PriceExponent: -0.2, OpexFactor: 0.012,
			FuelPrice: 0.08, EmissionFactor: 0.1,
			Efficiency:      []float64{0.9, 0.95, 1.0, 1.1, 1.2},
			OperationEffort: 1, InstallationEffort: 4,
			LifetimeMin: 20 * weeksPerYear, LifetimeMax: 25 * weeksPerYear,
			InstallationTime: 8, NeedsInsulation: true,
		},
		{
			Type: Electricity, Pricing: PricingHeatLoad,
			BasePrice: 400, PriceExponent: -0.1, OpexFactor: 0.01,
			FuelPrice: 0.30, EmissionFactor: 0.38,
			Efficiency:      []float64{1.0, 1.0, 1.0, 1.0, 1.0},
			OperationEffort: 1, InstallationEffort: 1,
			LifetimeMin: 20 * weeksPerYear, LifetimeMax: 30 * weeksPerYear,
			InstallationTime: 1,
		},
		{
			Type: Pellet, Pricing: PricingHeatLoad,
			BasePrice: 1600, PriceExponent: -0.22, OpexFactor: 0.04,
			FuelPrice: 0.07, EmissionFactor: 0.03,
			Efficiency:      []float64{1.15, 1.08, 1.0, 0.97, 0.95},
			OperationEffort: 3, InstallationEffort: 2,
			LifetimeMin: 18 * weeksPerYear, LifetimeMax: 22 * weeksPerYear,
			InstallationTime: 3,
		},
		{
			Type: DistrictHeating, Pricing: PricingArea,
			BasePrice: 60, PriceExponent: -0.1, OpexFactor: 0.02,
			FuelPrice: 0.12, EmissionFactor: 0.15,
			Efficiency:      []float64{1.0, 1.0, 1.0, 1.0, 1.0},
			OperationEffort: 0.5, InstallationEffort: 2,
			LifetimeMin: 25 * weeksPerYear, LifetimeMax: 30 * weeksPerYear,
			InstallationTime: 6,
		},
		{
			Type: LocalNetwork, Pricing: PricingArea,
			BasePrice: 70, PriceExponent: -0.1, OpexFactor: 0.02,
			FuelPrice: 0.11, EmissionFactor: 0.08,
			Efficiency:      []float64{1.0, 1.0, 1.0, 1.0, 1.0},
			OperationEffort: 0.5, InstallationEffort: 2,
			LifetimeMin: 25 * weeksPerYear, LifetimeMax: 30 * weeksPerYear,
			InstallationTime: 8, HeatDelivery: true,
		},
	}
}

// DefaultCatalog returns a catalog of DefaultSpecs.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultSpecs()...)
	if err != nil {
		panic(err)
	}
	return c
}
