package intermediary

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/felixgeelhaar/heatshift/domain/finance"
	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/houseowner"
)

// AdvisorConfig configures an energy advisor.
type AdvisorConfig struct {
	ID string `json:"id" yaml:"id"`
	// Known defaults to the whole catalogue.
	Known                []heating.Type                `json:"known,omitempty" yaml:"known,omitempty"`
	Preferences          map[heating.Attribute]float64 `json:"preferences,omitempty" yaml:"preferences,omitempty"`
	Subsidies            []finance.Subsidy             `json:"subsidies,omitempty" yaml:"subsidies,omitempty"`
	ConsultationDuration int                           `json:"consultation_duration" yaml:"consultation_duration"`
	MaxConcurrentJobs    int                           `json:"max_concurrent_jobs" yaml:"max_concurrent_jobs"`
}

// EnergyAdvisor gives independent advice on systems, subsidies and
// financing, tailored to the customer's house and budget.
type EnergyAdvisor struct {
	worker
	consultation *Service

	known     []heating.Type
	prefs     map[heating.Attribute]float64
	subsidies map[heating.Type][]finance.Subsidy
}

var _ houseowner.Advisor = (*EnergyAdvisor)(nil)

// NewEnergyAdvisor builds an advisor over catalog.
func NewEnergyAdvisor(cfg AdvisorConfig, catalog *heating.Catalog) (*EnergyAdvisor, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("%w: advisor without id", ErrInvalidConfig)
	}
	if cfg.ConsultationDuration < 0 {
		return nil, fmt.Errorf("%w: advisor %s has negative duration", ErrInvalidConfig, cfg.ID)
	}
	known := slices.Clone(cfg.Known)
	if len(known) == 0 {
		known = catalog.Types()
	}
	for _, t := range known {
		if _, ok := catalog.Spec(t); !ok {
			return nil, fmt.Errorf("%w: advisor %s: %w: %s", ErrInvalidConfig, cfg.ID, heating.ErrUnknownType, t)
		}
	}
	prefs := cfg.Preferences
	if len(prefs) == 0 {
		prefs = EqualPreferences()
	}

	a := &EnergyAdvisor{
		consultation: NewService(cfg.ID, Consultation, cfg.ConsultationDuration),
		known:        known,
		prefs:        prefs,
		subsidies:    bySystem(cfg.Subsidies, known),
	}
	a.worker = newWorker(cfg.ID, cfg.MaxConcurrentJobs, 0, a.consultation)
	return a, nil
}

// OrderConsultation queues a visit for customer.
func (a *EnergyAdvisor) OrderConsultation(customer string) bool {
	_, ok := a.consultation.Queue(customer, 0)
	return ok
}

// SetSubsidies replaces the subsidy rules the advisor knows of.
func (a *EnergyAdvisor) SetSubsidies(rules []finance.Subsidy) {
	a.subsidies = bySystem(rules, a.known)
}

// Step runs one week of consultations. Advisors keep working through their
// training weeks.
func (a *EnergyAdvisor) Step(env *houseowner.Env) error {
	work := func(env *houseowner.Env) error { return a.work(env, a.finish) }
	return a.step(env, work, a.finish)
}

func (a *EnergyAdvisor) finish(env *houseowner.Env, job Job) error {
	h, ok := env.Directory.Houseowner(job.Customer)
	if !ok {
		return fmt.Errorf("%w: %s job %s", ErrUnknownCustomer, job.Customer, job.ID)
	}
	return a.advise(env, h)
}

// advise prices every known system for the customer's house, deducts the
// subsidies the advisor knows of, and shortlists the feasible systems the
// customer can pay for, with a loan if need be. The best shortlisted system
// that suits the house's insulation is recommended.
func (a *EnergyAdvisor) advise(env *houseowner.Env, h *houseowner.Houseowner) error {
	house := h.House()
	offers := make([]*heating.System, 0, len(a.known))
	facts := make([]*heating.System, 0, len(a.known))
	for _, t := range a.known {
		s, err := env.Catalog.Build(t, house, env.Rand)
		if err != nil {
			return fmt.Errorf("advisor %s: %w", a.id, err)
		}
		s.Source = heating.SourceEnergyAdvisor
		facts = append(facts, s.Clone())

		if total := finance.Total(s.Price(), a.subsidies[t], h.Applicant()); total > 0 {
			s.Params.SetValue(heating.AttrPrice, math.Max(0, s.Price()-total))
			s.Subsidised = true
		}
		offers = append(offers, s)
	}
	rate(offers, a.prefs)
	slices.SortStableFunc(offers, func(x, y *heating.System) int { return cmp.Compare(y.Rating, x.Rating) })

	var shortlist []*heating.System
	for _, s := range offers {
		if h.IsInfeasible(s.Type) {
			continue
		}
		if err := h.OfferLoan(env, s); err != nil {
			return err
		}
		if s.Price() <= h.Budget() || s.Loan != nil {
			shortlist = append(shortlist, s)
		}
	}

	var recommended *heating.System
	for _, s := range shortlist {
		if house.EnergyDemand >= env.Settings.InsulationThreshold && env.Catalog.NeedsInsulation(s.Type) {
			continue
		}
		recommended = s
		break
	}
	for _, s := range shortlist {
		if rules := a.subsidies[s.Type]; len(rules) > 0 {
			h.LearnSubsidies(s.Type, rules)
		}
	}
	for _, s := range facts {
		if err := h.Overwrite(s, heating.SourceEnergyAdvisor); err != nil {
			return err
		}
	}
	h.CompleteAdvice(shortlist, recommended)
	return nil
}

// AdvisorSnapshot is the persisted state of an advisor.
type AdvisorSnapshot struct {
	ID   string         `json:"id"`
	Jobs WorkerSnapshot `json:"jobs"`
}

// Snapshot captures the advisor's queue.
func (a *EnergyAdvisor) Snapshot() AdvisorSnapshot {
	return AdvisorSnapshot{ID: a.id, Jobs: a.snapshot()}
}

// Restore replaces the advisor's queue state with s.
func (a *EnergyAdvisor) Restore(s AdvisorSnapshot) error {
	if s.ID != a.id {
		return fmt.Errorf("%w: advisor %s from %q", ErrInvalidSnapshot, a.id, s.ID)
	}
	return a.restore(s.Jobs)
}
