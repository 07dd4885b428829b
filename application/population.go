package application

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/felixgeelhaar/heatshift/domain/finance"
	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/houseowner"
	"github.com/felixgeelhaar/heatshift/domain/intermediary"
	"github.com/felixgeelhaar/heatshift/domain/milieu"
	"github.com/felixgeelhaar/heatshift/domain/network"
)

// DefaultMagazineContent is what the magazine writes about unless configured.
var DefaultMagazineContent = []heating.Type{heating.Gas, heating.HeatPump, heating.Electricity, heating.Pellet}

// DefaultDistortion is the misperception of a system nobody has installed.
const DefaultDistortion = 0.5

// populate draws houses, owners and installed systems, links the owners
// into a random network and staffs the intermediary pools.
func (s *Simulation) populate() error {
	p := s.cfg.Population

	systems := sortedTypes(p.InitialSystems)
	weights := make([]float64, len(systems))
	for i, t := range systems {
		weights[i] = p.InitialSystems[t]
	}
	pickSystem := distuv.NewCategorical(weights, s.rng)

	ids := make([]string, 0, p.Size)
	for i := range p.Size {
		id := fmt.Sprintf("h%05d", i+1)
		house := s.drawHouse(id)
		profile := s.drawProfile()
		current, err := s.initialSystem(systems[int(pickSystem.Rand())], house)
		if err != nil {
			return err
		}
		h, err := s.newOwner(id, profile, house, current)
		if err != nil {
			return err
		}
		s.owners = append(s.owners, h)
		s.byID[id] = h
		ids = append(ids, id)
	}

	net, err := network.Random(ids, p.NetworkDegree, s.rng)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	s.setNetwork(net)

	return s.staff()
}

func (s *Simulation) setNetwork(net *network.Network) {
	s.net = net
	s.env.Network = net
}

// drawHouse samples area and specific demand uniformly and derives the
// design heat load from the full-load hours.
func (s *Simulation) drawHouse(id string) heating.House {
	p := s.cfg.Population
	area := distuv.Uniform{Min: p.AreaMin, Max: p.AreaMax, Src: s.rng}.Rand()
	demand := distuv.Uniform{Min: p.DemandMin, Max: p.DemandMax, Src: s.rng}.Rand()
	return heating.House{
		ID:           id,
		Area:         area,
		EnergyDemand: demand,
		HeatLoad:     area * demand / p.FullLoadHours,
	}
}

// drawProfile picks a milieu by the profiles' population shares.
func (s *Simulation) drawProfile() milieu.Profile {
	weights := make([]float64, len(s.milieus))
	var total float64
	for i, m := range s.milieus {
		weights[i] = s.profiles[m].Share
		total += weights[i]
	}
	if total <= 0 {
		for i := range weights {
			weights[i] = 1
		}
	}
	pick := distuv.NewCategorical(weights, s.rng)
	return s.profiles[s.milieus[int(pick.Rand())]]
}

// initialSystem builds the system found in a house at the start of the run,
// part way through its lifetime and with the rest of its price not yet
// paid back.
func (s *Simulation) initialSystem(t heating.Type, house heating.House) (*heating.System, error) {
	sys, err := s.catalog.Build(t, house, s.rng)
	if err != nil {
		return nil, fmt.Errorf("%w: initial system: %w", ErrInvalidConfig, err)
	}
	if sys.Lifetime > 0 {
		sys.Age = s.rng.IntN(sys.Lifetime)
		sys.Payback = sys.Price() / float64(sys.Lifetime)
		sys.Investment = sys.Payback * float64(sys.Lifetime-sys.Age)
	}
	sys.Source = heating.SourceInstalled
	return sys, nil
}

// newOwner draws individual traits from profile. The savings start at the
// profile's budget limit times the weekly income.
func (s *Simulation) newOwner(id string, profile milieu.Profile, house heating.House, current *heating.System) (*houseowner.Houseowner, error) {
	traits := profile.Draw(s.rng)
	h, err := houseowner.New(houseowner.Config{
		ID:         id,
		Profile:    profile,
		Traits:     traits,
		House:      house,
		Current:    current,
		Budget:     traits.Income * profile.BudgetLimit,
		Infeasible: s.infeasible(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return h, nil
}

// infeasible returns what a newcomer rules out: the configured defaults and
// every technology whose ban is in force.
func (s *Simulation) infeasible() []heating.Type {
	out := slices.Clone(s.env.Settings.DefaultInfeasible)
	for _, t := range s.forbidden() {
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// staff creates the plumber and advisor pools from the config.
func (s *Simulation) staff() error {
	pc, ac := s.cfg.Plumbers, s.cfg.Advisors
	s.plumbers = s.plumbers[:0]
	s.advisors = s.advisors[:0]

	for i := range pc.Count {
		p, err := intermediary.NewPlumber(intermediary.PlumberConfig{
			ID:                   fmt.Sprintf("plumber-%d", i+1),
			Known:                pc.Known,
			Subsidies:            s.rules,
			ConsultationDuration: pc.ConsultationDuration,
			InstallationDuration: pc.InstallationDuration,
			MaxConcurrentJobs:    pc.MaxConcurrentJobs,
			ShareClientSystems:   pc.ShareClientSystems,
		}, s.env)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		s.plumbers = append(s.plumbers, p)
	}
	for i := range ac.Count {
		a, err := intermediary.NewEnergyAdvisor(intermediary.AdvisorConfig{
			ID:                   fmt.Sprintf("advisor-%d", i+1),
			Subsidies:            s.rules,
			ConsultationDuration: ac.ConsultationDuration,
			MaxConcurrentJobs:    ac.MaxConcurrentJobs,
		}, s.catalog)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		s.advisors = append(s.advisors, a)
	}

	s.env.Plumbers = make([]houseowner.Plumber, len(s.plumbers))
	for i, p := range s.plumbers {
		s.env.Plumbers[i] = p
	}
	s.env.Advisors = make([]houseowner.Advisor, len(s.advisors))
	for i, a := range s.advisors {
		s.env.Advisors[i] = a
	}
	return nil
}

// newSources builds the internet, which covers the whole catalogue, and
// the magazine.
func (s *Simulation) newSources() map[heating.Source]*houseowner.InformationSource {
	b := s.cfg.Behaviour
	distortion := b.Distortion
	if distortion == 0 {
		distortion = DefaultDistortion
	}
	magazine := b.MagazineContent
	if len(magazine) == 0 {
		magazine = DefaultMagazineContent
	}
	magazine = slices.DeleteFunc(slices.Clone(magazine), func(t heating.Type) bool {
		_, ok := s.catalog.Spec(t)
		return !ok
	})

	byType := byTechnology(s.rules)
	return map[heating.Source]*houseowner.InformationSource{
		heating.SourceInternet: {
			Kind:       heating.SourceInternet,
			Content:    s.catalog.Types(),
			Distortion: distortion,
			Subsidies:  byType,
		},
		heating.SourceMagazine: {
			Kind:       heating.SourceMagazine,
			Content:    magazine,
			Distortion: distortion,
			Subsidies:  byType,
		},
	}
}

// publishSubsidies hands the rules in force to every intermediary and
// information source.
func (s *Simulation) publishSubsidies() {
	for _, p := range s.plumbers {
		p.SetSubsidies(s.rules)
	}
	for _, a := range s.advisors {
		a.SetSubsidies(s.rules)
	}
	byType := byTechnology(s.rules)
	for _, src := range s.sources {
		src.Subsidies = byType
	}
}

func byTechnology(rules []finance.Subsidy) map[heating.Type][]finance.Subsidy {
	out := make(map[heating.Type][]finance.Subsidy)
	for _, r := range rules {
		t := heating.Type(r.Technology)
		out[t] = append(out[t], r)
	}
	return out
}

func sortedTypes[V any](m map[heating.Type]V) []heating.Type {
	out := make([]heating.Type, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}
