package houseowner

import (
	"math/rand/v2"

	"github.com/felixgeelhaar/heatshift/domain/agent"
	"github.com/felixgeelhaar/heatshift/domain/finance"
	"github.com/felixgeelhaar/heatshift/domain/heating"
)

// Network is the directed social graph. Predecessors influence an agent,
// successors are influenced by it.
type Network interface {
	Predecessors(id string) []string
	Successors(id string) []string
}

// Directory resolves houseowner ids.
type Directory interface {
	Houseowner(id string) (*Houseowner, bool)
}

// Plumber is the view of a plumber a houseowner needs.
type Plumber interface {
	ID() string
	Knows(t heating.Type) bool
	// EstimateInstallationWait returns the weeks until a newly queued
	// installation job would start.
	EstimateInstallationWait(step int) int
	// InstallationDuration is the base duration of an installation job.
	InstallationDuration() int
	OrderConsultation(customer string) bool
	OrderInstallation(customer string, installationTime int) bool
}

// Advisor is the view of an energy advisor a houseowner needs.
type Advisor interface {
	ID() string
	OrderConsultation(customer string) bool
}

// Market reports the installed-base share of each technology.
type Market interface {
	Share(t heating.Type) float64
}

// TransitionValidator rejects illegal moves of the decision process.
type TransitionValidator interface {
	Validate(agentID string, from, to agent.Position) error
}

// Obstacle classifies why a decision ended or where it got stuck.
type Obstacle string

// Obstacles.
const (
	ObstacleNone          Obstacle = ""
	ObstacleKnowledge     Obstacle = "knowledge"
	ObstacleAffordability Obstacle = "affordability"
	ObstacleRiskiness     Obstacle = "riskiness"
	ObstacleEvaluation    Obstacle = "evaluation"
	ObstacleFeasibility   Obstacle = "feasibility"
	ObstacleOverload      Obstacle = "overload"
	ObstacleNoPlumber     Obstacle = "no_plumber"
	ObstacleWaitingTime   Obstacle = "waiting_time"
	ObstacleCurrentBest   Obstacle = "current_best"
	ObstacleNoAffordable  Obstacle = "no_affordable"
)

// Observer is notified of decision-process events.
type Observer interface {
	Transitioned(id string, from, to agent.Position, reason string)
	Installed(id string, t heating.Type, step int)
	Abandoned(id string, t heating.Type, stage agent.Stage, o Obstacle)
}

// NopObserver ignores every event.
type NopObserver struct{}

// Transitioned implements Observer.
func (NopObserver) Transitioned(string, agent.Position, agent.Position, string) {}

// Installed implements Observer.
func (NopObserver) Installed(string, heating.Type, int) {}

// Abandoned implements Observer.
func (NopObserver) Abandoned(string, heating.Type, agent.Stage, Obstacle) {}

// Observers fans every event out to each observer in order.
type Observers []Observer

// Transitioned implements Observer.
func (obs Observers) Transitioned(id string, from, to agent.Position, reason string) {
	for _, o := range obs {
		o.Transitioned(id, from, to, reason)
	}
}

// Installed implements Observer.
func (obs Observers) Installed(id string, t heating.Type, step int) {
	for _, o := range obs {
		o.Installed(id, t, step)
	}
}

// Abandoned implements Observer.
func (obs Observers) Abandoned(id string, t heating.Type, stage agent.Stage, ob Obstacle) {
	for _, o := range obs {
		o.Abandoned(id, t, stage, ob)
	}
}

// InformationSource is an impersonal source with limited content.
type InformationSource struct {
	Kind    heating.Source
	Content []heating.Type
	// Distortion is the maximum relative misperception of a system with
	// no market share.
	Distortion float64
	Subsidies  map[heating.Type][]finance.Subsidy
}

// Costs are the cognitive-resource prices of decision actions.
type Costs struct {
	Evaluate     int `json:"evaluate" yaml:"evaluate"`
	GetData      int `json:"get_data" yaml:"get_data"`
	DefineChoice int `json:"define_choice" yaml:"define_choice"`
	Compare      int `json:"compare" yaml:"compare"`
	Install      int `json:"install" yaml:"install"`
	Satisfaction int `json:"satisfaction" yaml:"satisfaction"`
}

// DefaultCosts charge one unit per action.
func DefaultCosts() Costs {
	return Costs{Evaluate: 1, GetData: 1, DefineChoice: 1, Compare: 1, Install: 1, Satisfaction: 1}
}

// Settings are the population-wide behavioural constants.
type Settings struct {
	Costs Costs
	// MeetingProbability is the weekly chance an inactive agent meets a neighbour.
	MeetingProbability float64
	// TieThreshold: the runner-up ties when runner-up*TieThreshold > best.
	TieThreshold float64
	// MaxWaitWeeks caps queue plus installation time.
	MaxWaitWeeks int
	// PhaseOutWeeks is how close a ban must be to replace a working system
	// of the same type.
	PhaseOutWeeks int
	// JealousyAge is the maximum system age that still makes neighbours jealous.
	JealousyAge int
	LoanRate    float64
	// UncertaintyLower and UncertaintyUpper bound the relative uncertainty
	// assigned to information from sources and neighbours.
	UncertaintyLower          float64
	UncertaintyUpper          float64
	SubsidyFindingProbability float64
	// InsulationThreshold is the specific demand from which systems that
	// need insulation are infeasible.
	InsulationThreshold float64
	DefaultInfeasible   []heating.Type
	// AdoptiveType is the technology satisfied adopters advertise; empty
	// disables sharing.
	AdoptiveType heating.Type
}

// DefaultSettings returns the reference constants.
func DefaultSettings() Settings {
	return Settings{
		Costs:                     DefaultCosts(),
		MeetingProbability:        0.57,
		TieThreshold:              1.1,
		MaxWaitWeeks:              52,
		PhaseOutWeeks:             104,
		JealousyAge:               4,
		LoanRate:                  finance.DefaultRate,
		UncertaintyLower:          0.05,
		UncertaintyUpper:          0.3,
		SubsidyFindingProbability: 0.3,
		InsulationThreshold:       150,
	}
}

// Env is everything a houseowner reaches beyond its own state during a step.
type Env struct {
	Step        int
	Rand        *rand.Rand
	Catalog     *heating.Catalog
	Network     Network
	Directory   Directory
	Plumbers    []Plumber
	Advisors    []Advisor
	Sources     map[heating.Source]*InformationSource
	Market      Market
	Settings    Settings
	Transitions TransitionValidator
	Observer    Observer
}

func (e *Env) observer() Observer {
	if e.Observer == nil {
		return NopObserver{}
	}
	return e.Observer
}
