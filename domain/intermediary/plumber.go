package intermediary

import (
	"fmt"
	"maps"
	"slices"

	"github.com/felixgeelhaar/heatshift/domain/finance"
	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/houseowner"
	"github.com/felixgeelhaar/heatshift/domain/knowledge"
)

// AverageHouse is what plumbers price their knowledge for until they see a
// customer's house.
var AverageHouse = heating.House{ID: "average", Area: 106, EnergyDemand: 147, HeatLoad: 19}

// PlumberConfig configures a plumber.
type PlumberConfig struct {
	ID                   string                        `json:"id" yaml:"id"`
	Known                []heating.Type                `json:"known" yaml:"known"`
	Preferences          map[heating.Attribute]float64 `json:"preferences,omitempty" yaml:"preferences,omitempty"`
	Subsidies            []finance.Subsidy             `json:"subsidies,omitempty" yaml:"subsidies,omitempty"`
	ConsultationDuration int                           `json:"consultation_duration" yaml:"consultation_duration"`
	InstallationDuration int                           `json:"installation_duration" yaml:"installation_duration"`
	MaxConcurrentJobs    int                           `json:"max_concurrent_jobs" yaml:"max_concurrent_jobs"`
	ShareClientSystems   bool                          `json:"share_client_systems" yaml:"share_client_systems"`
}

// Plumber consults houseowners and installs their heating.
type Plumber struct {
	worker
	consultation *Service
	installation *Service

	known     *knowledge.Base
	prefs     map[heating.Attribute]float64
	rules     []finance.Subsidy
	subsidies map[heating.Type][]finance.Subsidy
	clients   map[string]heating.Type
	share     bool
}

var _ houseowner.Plumber = (*Plumber)(nil)

// NewPlumber builds a plumber that knows cfg.Known, priced for the average
// house with uncertain attribute values.
func NewPlumber(cfg PlumberConfig, env *houseowner.Env) (*Plumber, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("%w: plumber without id", ErrInvalidConfig)
	}
	if cfg.ConsultationDuration < 0 || cfg.InstallationDuration < 0 {
		return nil, fmt.Errorf("%w: plumber %s has negative durations", ErrInvalidConfig, cfg.ID)
	}
	prefs := cfg.Preferences
	if len(prefs) == 0 {
		prefs = EqualPreferences()
	}

	p := &Plumber{
		consultation: NewService(cfg.ID, Consultation, cfg.ConsultationDuration),
		installation: NewService(cfg.ID, Installation, cfg.InstallationDuration),
		known:        knowledge.NewBase(),
		prefs:        prefs,
		rules:        finance.CloneSubsidies(cfg.Subsidies),
		clients:      make(map[string]heating.Type),
		share:        cfg.ShareClientSystems,
	}
	p.worker = newWorker(cfg.ID, cfg.MaxConcurrentJobs, 1, p.consultation, p.installation)
	for _, t := range cfg.Known {
		if err := p.learn(env, t); err != nil {
			return nil, err
		}
	}
	p.organize()
	return p, nil
}

// Knows reports whether the plumber can install t.
func (p *Plumber) Knows(t heating.Type) bool { return p.known.Has(t) }

// Known returns the types the plumber knows.
func (p *Plumber) Known() []heating.Type { return p.known.Types() }

// EstimateInstallationWait returns the expected weeks before a newly
// ordered installation starts.
func (p *Plumber) EstimateInstallationWait(step int) int {
	return p.estimate(step, Installation)
}

// InstallationDuration returns the base length of an installation job.
func (p *Plumber) InstallationDuration() int { return p.installation.Duration() }

// OrderConsultation queues a visit for customer.
func (p *Plumber) OrderConsultation(customer string) bool {
	_, ok := p.consultation.Queue(customer, 0)
	return ok
}

// OrderInstallation queues an installation taking the system's own
// installation time on top of the base duration.
func (p *Plumber) OrderInstallation(customer string, installationTime int) bool {
	_, ok := p.installation.Queue(customer, installationTime)
	return ok
}

// SetSubsidies replaces the subsidy rules the plumber quotes with.
func (p *Plumber) SetSubsidies(rules []finance.Subsidy) {
	p.rules = finance.CloneSubsidies(rules)
	p.organize()
}

// Step runs one week of work, or a training week when due.
func (p *Plumber) Step(env *houseowner.Env) error {
	return p.step(env, p.train, p.finish)
}

func (p *Plumber) finish(env *houseowner.Env, job Job) error {
	h, ok := env.Directory.Houseowner(job.Customer)
	if !ok {
		return fmt.Errorf("%w: %s job %s", ErrUnknownCustomer, job.Customer, job.ID)
	}
	switch job.Service {
	case Consultation:
		return p.consult(env, h)
	case Installation:
		return p.install(env, h)
	}
	return nil
}

// train learns one random catalogue system the plumber does not know yet.
func (p *Plumber) train(env *houseowner.Env) error {
	unknown := slices.DeleteFunc(env.Catalog.Types(), p.Knows)
	if len(unknown) == 0 {
		return nil
	}
	if err := p.learn(env, unknown[env.Rand.IntN(len(unknown))]); err != nil {
		return err
	}
	p.organize()
	return nil
}

func (p *Plumber) learn(env *houseowner.Env, t heating.Type) error {
	s, err := env.Catalog.Build(t, AverageHouse, env.Rand)
	if err != nil {
		return fmt.Errorf("%w: plumber %s: %w", ErrInvalidConfig, p.id, err)
	}
	lo, hi := env.Settings.UncertaintyLower, env.Settings.UncertaintyUpper
	for _, a := range heating.Attributes() {
		e := s.Params[a]
		est, err := heating.NewEstimate(e.Value, e.Value*(lo+env.Rand.Float64()*(hi-lo)))
		if err != nil {
			return fmt.Errorf("plumber %s %s %s: %w", p.id, t, a, err)
		}
		s.Params[a] = est
	}
	s.Source = heating.SourcePlumber
	p.known.Put(s)
	rate(p.known.All(), p.prefs)
	return nil
}

func (p *Plumber) organize() {
	p.subsidies = bySystem(p.rules, p.known.Types())
}

// consult serves a consultation. Without a desired system the customer is
// informed and given a recommendation. With one, the plumber checks it can
// do the job, surveys the house and quotes.
func (p *Plumber) consult(env *houseowner.Env, h *houseowner.Houseowner) error {
	desired := h.Desired()
	if desired == nil {
		if err := p.inform(env, h); err != nil {
			return err
		}
		rec, err := p.recommend(env, h)
		if err != nil {
			return err
		}
		h.EndConsultation(rec)
		return nil
	}

	t := desired.Type
	if !p.Knows(t) {
		h.RejectPlumber(p.id)
		return nil
	}
	if p.needsInsulation(env, h, t) && t != h.Current().Type {
		h.MarkInfeasible(t)
		return nil
	}

	attrs, err := env.Catalog.Attributes(t, h.House())
	if err != nil {
		return err
	}
	p.shareRatings(h)
	ok, err := h.AcceptQuote(env, houseowner.Quote{
		Price:     attrs.Value(heating.AttrPrice),
		Opex:      attrs.Value(heating.AttrOpex),
		Subsidies: p.subsidies[t],
	})
	if err != nil {
		return err
	}
	if !ok {
		h.DeclineQuote(env)
		return nil
	}
	// A duplicate means the installation is already queued.
	p.installation.Queue(h.ID(), desired.InstallationTime)
	h.InstallationScheduled()
	return nil
}

// inform shares the plumber's systems, priced for the customer's house,
// its ratings and what the customer's neighbours had installed.
func (p *Plumber) inform(env *houseowner.Env, h *houseowner.Houseowner) error {
	for _, s := range p.known.All() {
		c, err := p.priceFor(env, s, h.House())
		if err != nil {
			return err
		}
		if err := h.Learn(c, 1, heating.SourcePlumber); err != nil {
			return err
		}
	}
	p.shareRatings(h)
	if !p.share {
		return nil
	}
	for _, id := range env.Network.Predecessors(h.ID()) {
		if t, ok := p.clients[id]; ok {
			h.LearnNeighbourSystem(id, t)
		}
	}
	return nil
}

func (p *Plumber) shareRatings(h *houseowner.Houseowner) {
	for _, s := range p.known.All() {
		h.RecordOpinion(s.Type, p.id, s.Rating)
	}
}

// recommend picks the plumber's best-rated system the customer can have.
// Houses above the insulation threshold are not offered systems that need
// insulation.
func (p *Plumber) recommend(env *houseowner.Env, h *houseowner.Houseowner) (*heating.System, error) {
	var best *heating.System
	for _, s := range p.known.All() {
		if h.IsInfeasible(s.Type) || p.needsInsulation(env, h, s.Type) {
			continue
		}
		if best == nil || s.Rating > best.Rating {
			best = s
		}
	}
	if best == nil {
		return nil, nil
	}
	return p.priceFor(env, best, h.House())
}

func (p *Plumber) needsInsulation(env *houseowner.Env, h *houseowner.Houseowner, t heating.Type) bool {
	return h.House().EnergyDemand >= env.Settings.InsulationThreshold && env.Catalog.NeedsInsulation(t)
}

// priceFor copies s with price and running cost computed for house.
func (p *Plumber) priceFor(env *houseowner.Env, s *heating.System, house heating.House) (*heating.System, error) {
	attrs, err := env.Catalog.Attributes(s.Type, house)
	if err != nil {
		return nil, err
	}
	c := s.Clone()
	c.Params.SetValue(heating.AttrPrice, attrs.Value(heating.AttrPrice))
	c.Params.SetValue(heating.AttrOpex, attrs.Value(heating.AttrOpex))
	c.NeighbourOpinions = nil
	return c, nil
}

// install fits a new system of the desired type in the customer's house.
func (p *Plumber) install(env *houseowner.Env, h *houseowner.Houseowner) error {
	desired := h.Desired()
	if desired == nil {
		return fmt.Errorf("plumber %s: %w", p.id, houseowner.ErrNothingOrdered)
	}
	s, err := env.Catalog.Build(desired.Type, h.House(), env.Rand)
	if err != nil {
		return err
	}
	if err := h.Install(s); err != nil {
		return fmt.Errorf("plumber %s: %w", p.id, err)
	}
	p.clients[h.ID()] = desired.Type
	return nil
}

// PlumberSnapshot is the persisted state of a plumber.
type PlumberSnapshot struct {
	ID      string                  `json:"id"`
	Known   *knowledge.Base         `json:"known"`
	Clients map[string]heating.Type `json:"clients,omitempty"`
	Jobs    WorkerSnapshot          `json:"jobs"`
}

// Snapshot captures the plumber's knowledge, clients and queues.
func (p *Plumber) Snapshot() PlumberSnapshot {
	return PlumberSnapshot{
		ID:      p.id,
		Known:   p.known.Clone(),
		Clients: maps.Clone(p.clients),
		Jobs:    p.snapshot(),
	}
}

// Restore replaces the plumber's state with s.
func (p *Plumber) Restore(s PlumberSnapshot) error {
	if s.ID != p.id || s.Known == nil {
		return fmt.Errorf("%w: plumber %s from %q", ErrInvalidSnapshot, p.id, s.ID)
	}
	if err := s.Known.Validate(); err != nil {
		return fmt.Errorf("%w: plumber %s: %w", ErrInvalidSnapshot, p.id, err)
	}
	if err := p.restore(s.Jobs); err != nil {
		return fmt.Errorf("plumber %s: %w", p.id, err)
	}
	p.known = s.Known.Clone()
	p.clients = make(map[string]heating.Type, len(s.Clients))
	maps.Copy(p.clients, s.Clients)
	p.organize()
	return nil
}
