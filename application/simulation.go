// Package application runs populations of houseowners, plumbers and energy
// advisors through simulated weeks.
package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/heatshift/domain/checkpoint"
	"github.com/felixgeelhaar/heatshift/domain/config"
	"github.com/felixgeelhaar/heatshift/domain/finance"
	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/houseowner"
	"github.com/felixgeelhaar/heatshift/domain/intermediary"
	"github.com/felixgeelhaar/heatshift/domain/ledger"
	"github.com/felixgeelhaar/heatshift/domain/milieu"
	"github.com/felixgeelhaar/heatshift/domain/network"
	"github.com/felixgeelhaar/heatshift/domain/scenario"
	"github.com/felixgeelhaar/heatshift/infrastructure/statemachine"
	"github.com/felixgeelhaar/heatshift/infrastructure/storage/memory"
	"github.com/felixgeelhaar/heatshift/infrastructure/telemetry"
)

// TracerName is the instrumentation scope of simulation spans.
const TracerName = "github.com/felixgeelhaar/heatshift/application"

var (
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("invalid simulation config")

	// ErrCheckpointMismatch is returned when a checkpoint does not fit the
	// configuration it is resumed with.
	ErrCheckpointMismatch = errors.New("checkpoint does not match config")
)

// Simulation is one run of the population model. It is not safe for
// concurrent use.
type Simulation struct {
	cfg   *config.SimulationConfig
	runID string
	seed  uint64
	pcg   *rand.PCG
	rng   *rand.Rand
	// step counts completed steps; the next step to run has this number.
	step int

	catalog  *heating.Catalog
	profiles map[milieu.Type]milieu.Profile
	milieus  []milieu.Type
	rules    []finance.Subsidy
	applied  []scenario.Impact
	bans     map[heating.Type]int

	owners   []*houseowner.Houseowner
	byID     directory
	net      *network.Network
	plumbers []*intermediary.Plumber
	advisors []*intermediary.EnergyAdvisor
	sources  map[heating.Source]*houseowner.InformationSource
	market   *market
	env      *houseowner.Env

	validator *statemachine.Validator
	ledger    *ledger.Ledger
	collect   *Stats
	history   []Stats

	store    checkpoint.Store
	backend  string
	tracer   trace.Tracer
	metrics  telemetry.Metrics
	observer houseowner.Observer
	clock    func() time.Time
}

// NewSimulation validates cfg and draws a fresh population from its seed.
func NewSimulation(cfg *config.SimulationConfig, opts ...Option) (*Simulation, error) {
	s, err := newBase(cfg, opts...)
	if err != nil {
		return nil, err
	}
	s.pcg = rand.NewPCG(cfg.Run.Seed, cfg.Run.Seed^0x9e3779b97f4a7c15)
	s.rng = rand.New(s.pcg)
	s.env.Rand = s.rng

	if err := s.populate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// newBase builds everything a fresh and a resumed run share: the catalogue,
// the subsidy rules, the environment and the collaborators from opts.
func newBase(cfg *config.SimulationConfig, opts ...Option) (*Simulation, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if errs := config.NewValidator().Validate(cfg); errs.HasErrors() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, errs)
	}

	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Store == nil {
		o.Store = memory.NewCheckpointStore()
		o.Backend = config.BackendMemory
	}
	if o.Tracer == nil {
		o.Tracer = otel.Tracer(TracerName)
	}
	if o.Metrics == nil {
		o.Metrics = telemetry.NoopMetricsProvider{}
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.RunID == "" {
		o.RunID = uuid.NewString()
	}

	catalog, err := heating.NewCatalog(cfg.Specs()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	validator, err := statemachine.NewValidator()
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		cfg:       cfg,
		runID:     o.RunID,
		seed:      cfg.Run.Seed,
		catalog:   catalog,
		profiles:  cfg.Profiles(),
		rules:     finance.CloneSubsidies(cfg.Subsidies),
		bans:      make(map[heating.Type]int),
		byID:      make(directory),
		market:    &market{shares: make(map[heating.Type]float64)},
		validator: validator,
		ledger:    ledger.New(o.RunID),
		store:     o.Store,
		backend:   o.Backend,
		tracer:    o.Tracer,
		metrics:   o.Metrics,
		clock:     o.Clock,
	}
	for _, m := range milieu.AllTypes() {
		if _, ok := s.profiles[m]; ok {
			s.milieus = append(s.milieus, m)
		}
	}

	observers := houseowner.Observers{&recorder{sim: s}, s.metrics.Observer(context.Background())}
	if o.Observer != nil {
		observers = append(observers, o.Observer)
	}
	s.observer = observers

	s.env = &houseowner.Env{
		Catalog:     catalog,
		Directory:   s.byID,
		Market:      s.market,
		Settings:    cfg.Behaviour.Settings(),
		Transitions: validator,
		Observer:    s.observer,
	}
	s.sources = s.newSources()
	s.env.Sources = s.sources
	return s, nil
}

// Close releases the stage-machine interpreter.
func (s *Simulation) Close() {
	s.validator.Stop()
}

// RunID returns the id checkpoints and ledger entries are filed under.
func (s *Simulation) RunID() string { return s.runID }

// Seed returns the seed of the run's random stream.
func (s *Simulation) Seed() uint64 { return s.seed }

// Steps returns the number of completed steps.
func (s *Simulation) Steps() int { return s.step }

// Houseowners returns the population in creation order.
func (s *Simulation) Houseowners() []*houseowner.Houseowner { return slices.Clone(s.owners) }

// Houseowner returns the houseowner with id.
func (s *Simulation) Houseowner(id string) (*houseowner.Houseowner, bool) {
	return s.byID.Houseowner(id)
}

// Plumbers returns the plumber pool.
func (s *Simulation) Plumbers() []*intermediary.Plumber { return slices.Clone(s.plumbers) }

// Advisors returns the energy-advisor pool.
func (s *Simulation) Advisors() []*intermediary.EnergyAdvisor { return slices.Clone(s.advisors) }

// Network returns the social network.
func (s *Simulation) Network() *network.Network { return s.net }

// Ledger returns the run's ledger.
func (s *Simulation) Ledger() *ledger.Ledger { return s.ledger }

// History returns the statistics of every step run by this process.
func (s *Simulation) History() []Stats { return slices.Clone(s.history) }

// Subsidies returns the subsidy rules currently in force.
func (s *Simulation) Subsidies() []finance.Subsidy { return finance.CloneSubsidies(s.rules) }

type directory map[string]*houseowner.Houseowner

func (d directory) Houseowner(id string) (*houseowner.Houseowner, bool) {
	h, ok := d[id]
	return h, ok
}

// market reports installed-base shares as of the start of the step.
type market struct {
	shares map[heating.Type]float64
}

func (m *market) Share(t heating.Type) float64 { return m.shares[t] }

func (m *market) update(owners []*houseowner.Houseowner) {
	clear(m.shares)
	if len(owners) == 0 {
		return
	}
	unit := 1 / float64(len(owners))
	for _, h := range owners {
		m.shares[h.CurrentType()] += unit
	}
}
