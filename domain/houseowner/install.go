package houseowner

import (
	"github.com/felixgeelhaar/heatshift/domain/agent"
)

// install drives the actional stage: find a plumber that can do the job,
// check waiting time and money, then order a consultation or, after an
// advisor visit, the installation itself.
func (h *Houseowner) install(env *Env) error {
	if h.desired == nil {
		h.position = agent.Preactional
		h.aspiration = 0
		return nil
	}

	if h.fitted {
		h.fitted = false
		h.position = agent.Postactional
		h.waiting = 0
		env.observer().Installed(h.id, h.current.Type, env.Step)
		return nil
	}
	if h.consultationOrdered || h.installationOrdered {
		h.resource = 0
		h.waiting++
		return nil
	}

	cost := env.Settings.Costs.Install
	if h.resource < cost {
		h.resource = 0
		return nil
	}
	h.resource -= cost

	t := h.desired.Type
	if h.infeasible[t] {
		h.dropCandidate(env, t, ObstacleFeasibility)
		return nil
	}

	p := h.assignedPlumber(env)
	if p == nil || !p.Knows(t) || h.unqualified[p.ID()] {
		p = h.findPlumber(env)
	}
	if p == nil {
		h.infeasible[t] = true
		h.plumber = ""
		h.dropCandidate(env, t, ObstacleNoPlumber)
		return nil
	}
	h.plumber = p.ID()

	wait := p.EstimateInstallationWait(env.Step) + p.InstallationDuration() + h.desired.InstallationTime
	if wait > env.Settings.MaxWaitWeeks && h.recommended == nil {
		h.resource = 0
		h.dropCandidate(env, t, ObstacleWaitingTime)
		return nil
	}

	defer func() { h.resource = 0 }()
	if !h.fitsBudget(h.desired) {
		if err := h.arrangeLoan(env, h.desired, true); err != nil {
			return err
		}
		switch {
		case h.desired.Loan == nil:
			h.desired = nil
			h.suitable = nil
			h.abandon(env, t, ObstacleAffordability)
		case !h.fitsBudget(h.desired):
			h.desired = nil
			h.suitable = nil
			h.abandon(env, t, ObstacleNoAffordable)
		}
		return nil
	}

	if h.consulted {
		if p.OrderInstallation(h.id, h.desired.InstallationTime) {
			h.installationOrdered = true
			h.consulted = false
		}
		return nil
	}
	if p.OrderConsultation(h.id) {
		h.consultationOrdered = true
	}
	return nil
}

func (h *Houseowner) assignedPlumber(env *Env) Plumber {
	if h.plumber == "" {
		return nil
	}
	for _, p := range env.Plumbers {
		if p.ID() == h.plumber {
			return p
		}
	}
	return nil
}

// findPlumber picks a random plumber that knows the desired system and has
// not turned the agent down before.
func (h *Houseowner) findPlumber(env *Env) Plumber {
	var qualified []Plumber
	for _, p := range env.Plumbers {
		if p.Knows(h.desired.Type) && !h.unqualified[p.ID()] {
			qualified = append(qualified, p)
		}
	}
	if len(qualified) == 0 {
		return nil
	}
	return qualified[env.Rand.IntN(len(qualified))]
}
