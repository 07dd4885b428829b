package houseowner

import (
	"fmt"
	"maps"
	"slices"

	"github.com/felixgeelhaar/heatshift/domain/agent"
	"github.com/felixgeelhaar/heatshift/domain/finance"
	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/knowledge"
	"github.com/felixgeelhaar/heatshift/domain/milieu"
	"github.com/felixgeelhaar/heatshift/domain/trigger"
)

// Snapshot is the persisted state of a houseowner. Restoring it and
// replaying the same random stream reproduces the same decisions.
type Snapshot struct {
	ID       string          `json:"id"`
	Milieu   milieu.Type     `json:"milieu"`
	Traits   milieu.Traits   `json:"traits"`
	House    heating.House   `json:"house"`
	Current  *heating.System `json:"current"`
	Position agent.Position  `json:"position"`

	// Committed is the last reported position. It trails Position when an
	// intermediary moved the agent since its last step.
	Committed *agent.Position `json:"committed,omitempty"`

	Satisfaction agent.Satisfaction `json:"satisfaction"`
	Pending      trigger.Trigger    `json:"pending"`
	LastTrigger  trigger.Kind       `json:"last_trigger,omitempty"`

	Known       *knowledge.Base   `json:"known"`
	Suitable    []*heating.System `json:"suitable,omitempty"`
	Desired     *heating.System   `json:"desired,omitempty"`
	Recommended *heating.System   `json:"recommended,omitempty"`
	Infeasible  []heating.Type    `json:"infeasible,omitempty"`
	Defaults    []heating.Type    `json:"default_infeasible,omitempty"`

	Budget     float64 `json:"budget"`
	Income     float64 `json:"income"`
	Aspiration int     `json:"aspiration"`
	Overload   int     `json:"overload"`

	ConsultationOrdered bool `json:"consultation_ordered,omitempty"`
	InstallationOrdered bool `json:"installation_ordered,omitempty"`
	Consulted           bool `json:"consulted,omitempty"`
	SubsidyCurious      bool `json:"subsidy_curious,omitempty"`
	InstalledOnce       bool `json:"installed_once,omitempty"`
	Fitted              bool `json:"fitted,omitempty"`
	Waiting             int  `json:"waiting,omitempty"`

	Plumber     string                             `json:"plumber,omitempty"`
	Advisor     string                             `json:"advisor,omitempty"`
	Visited     []string                           `json:"visited,omitempty"`
	Unqualified []string                           `json:"unqualified,omitempty"`
	Subsidies   map[heating.Type][]finance.Subsidy `json:"subsidies,omitempty"`

	NeighbourSystems      map[string]heating.Type                        `json:"neighbour_systems,omitempty"`
	NeighbourSatisfaction map[string]map[heating.Type]agent.Satisfaction `json:"neighbour_satisfaction,omitempty"`
}

// Snapshot captures the agent's state between steps.
func (h *Houseowner) Snapshot() Snapshot {
	committed := h.committed
	s := Snapshot{
		ID:                    h.id,
		Milieu:                h.profile.Type,
		Traits:                h.traits,
		House:                 h.house,
		Current:               h.current.Clone(),
		Position:              h.position,
		Committed:             &committed,
		Satisfaction:          h.satisfaction,
		Pending:               h.pending,
		LastTrigger:           h.lastTrigger,
		Known:                 h.known.Clone(),
		Suitable:              h.Suitable(),
		Desired:               h.desired.Clone(),
		Recommended:           h.recommended.Clone(),
		Defaults:              slices.Clone(h.defaults),
		Budget:                h.budget,
		Income:                h.income,
		Aspiration:            h.aspiration,
		Overload:              h.overload,
		ConsultationOrdered:   h.consultationOrdered,
		InstallationOrdered:   h.installationOrdered,
		Consulted:             h.consulted,
		SubsidyCurious:        h.subsidyCurious,
		InstalledOnce:         h.installedOnce,
		Fitted:                h.fitted,
		Waiting:               h.waiting,
		Plumber:               h.plumber,
		Advisor:               h.advisor,
		Visited:               sortedKeys(h.visited),
		Unqualified:           sortedKeys(h.unqualified),
		Subsidies:             make(map[heating.Type][]finance.Subsidy, len(h.subsidies)),
		NeighbourSystems:      maps.Clone(h.neighbourSystems),
		NeighbourSatisfaction: make(map[string]map[heating.Type]agent.Satisfaction, len(h.neighbourSatisfaction)),
	}
	s.Infeasible = sortedTypes(h.infeasible)
	for t, rules := range h.subsidies {
		s.Subsidies[t] = finance.CloneSubsidies(rules)
	}
	for id, opinion := range h.neighbourSatisfaction {
		s.NeighbourSatisfaction[id] = maps.Clone(opinion)
	}
	return s
}

// Restore rebuilds a houseowner from a snapshot and its milieu profile.
func Restore(s Snapshot, profile milieu.Profile) (*Houseowner, error) {
	if profile.Type != s.Milieu {
		return nil, fmt.Errorf("%w: %s is %s, profile is %s", ErrInvalidConfig, s.ID, s.Milieu, profile.Type)
	}
	if err := s.Position.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvariant, s.ID, err)
	}
	if s.Known == nil {
		return nil, fmt.Errorf("%w: %s has no knowledge", ErrInvalidConfig, s.ID)
	}
	if err := s.Known.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvariant, s.ID, err)
	}

	h, err := New(Config{
		ID:         s.ID,
		Profile:    profile,
		Traits:     s.Traits,
		House:      s.House,
		Current:    s.Current,
		Budget:     s.Budget,
		Infeasible: s.Defaults,
	})
	if err != nil {
		return nil, err
	}
	h.current = s.Current.Clone()
	h.position = s.Position
	h.committed = s.Position
	if s.Committed != nil {
		if err := s.Committed.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvariant, s.ID, err)
		}
		h.committed = *s.Committed
	}
	h.satisfaction = s.Satisfaction
	h.pending = s.Pending
	h.lastTrigger = s.LastTrigger
	h.known = s.Known.Clone()
	for _, c := range s.Suitable {
		h.suitable = append(h.suitable, c.Clone())
	}
	h.desired = s.Desired.Clone()
	h.recommended = s.Recommended.Clone()
	h.infeasible = make(map[heating.Type]bool, len(s.Infeasible))
	for _, t := range s.Infeasible {
		h.infeasible[t] = true
	}
	h.income = s.Income
	h.aspiration = s.Aspiration
	h.overload = s.Overload
	h.consultationOrdered = s.ConsultationOrdered
	h.installationOrdered = s.InstallationOrdered
	h.consulted = s.Consulted
	h.subsidyCurious = s.SubsidyCurious
	h.installedOnce = s.InstalledOnce
	h.fitted = s.Fitted
	h.waiting = s.Waiting
	h.plumber = s.Plumber
	h.advisor = s.Advisor
	for _, id := range s.Visited {
		h.visited[id] = true
	}
	for _, id := range s.Unqualified {
		h.unqualified[id] = true
	}
	for t, rules := range s.Subsidies {
		h.subsidies[t] = finance.CloneSubsidies(rules)
	}
	maps.Copy(h.neighbourSystems, s.NeighbourSystems)
	for id, opinion := range s.NeighbourSatisfaction {
		h.neighbourSatisfaction[id] = maps.Clone(opinion)
	}
	return h, nil
}
