package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/heatshift/domain/heating"
)

// catalogOptions holds options for the catalog command.
type catalogOptions struct {
	configPath string
	area       float64
	demand     float64
	jsonOutput bool
}

// newCatalogCmd creates the catalog command.
func (a *App) newCatalogCmd() *cobra.Command {
	opts := &catalogOptions{}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the heating technologies of a configuration",
		Long: `List the technologies a configuration makes available, priced for a
reference house.

Examples:
  # Price the built-in catalogue for the default house
  heatshift catalog -c scenario.yaml

  # Price for a large, poorly insulated house
  heatshift catalog -c scenario.yaml --area 220 --demand 230

  # Output as JSON
  heatshift catalog -c scenario.yaml --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listCatalog(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (required)")
	cmd.Flags().Float64Var(&opts.area, "area", 120, "Living area of the reference house in m²")
	cmd.Flags().Float64Var(&opts.demand, "demand", 140, "Specific heat demand of the reference house in kWh/m²a")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")

	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// technologyInfo is one technology priced for the reference house.
type technologyInfo struct {
	Type       heating.Type   `json:"type"`
	Attributes heating.Params `json:"attributes"`
	Lifetime   [2]int         `json:"lifetime_weeks"`
	Banned     int            `json:"banned_from,omitempty"`
}

// listCatalog prices every technology for the reference house.
func (a *App) listCatalog(opts *catalogOptions) error {
	if opts.area <= 0 || opts.demand <= 0 {
		return fmt.Errorf("area and demand must be positive")
	}
	cfg, err := loadConfig(opts.configPath, false)
	if err != nil {
		return err
	}
	catalog, err := heating.NewCatalog(cfg.Specs()...)
	if err != nil {
		return fmt.Errorf("failed to build catalogue: %w", err)
	}

	house := heating.House{
		ID:           "reference",
		Area:         opts.area,
		EnergyDemand: opts.demand,
		HeatLoad:     opts.area * opts.demand / cfg.Population.FullLoadHours,
	}
	var infos []technologyInfo
	for _, t := range catalog.Types() {
		spec, _ := catalog.Spec(t)
		params, err := catalog.Attributes(t, house)
		if err != nil {
			return err
		}
		infos = append(infos, technologyInfo{
			Type:       t,
			Attributes: params,
			Lifetime:   [2]int{spec.LifetimeMin, spec.LifetimeMax},
			Banned:     spec.Availability,
		})
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	_, _ = fmt.Fprintf(a.stdout, "Technologies for %.0f m² at %.0f kWh/m²a (%.1f kW):\n\n", house.Area, house.EnergyDemand, house.HeatLoad)
	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TYPE\tPRICE\tOPEX/YR\tFUEL/YR\tCO2 KG/YR\tLIFETIME (WK)")
	for _, info := range infos {
		p := info.Attributes
		_, _ = fmt.Fprintf(w, "%s\t%.0f\t%.0f\t%.0f\t%.0f\t%d-%d\n",
			info.Type,
			p.Value(heating.AttrPrice),
			p.Value(heating.AttrOpex),
			p.Value(heating.AttrFuelCost),
			p.Value(heating.AttrEmissions),
			info.Lifetime[0], info.Lifetime[1])
	}
	return w.Flush()
}
