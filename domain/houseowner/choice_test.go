package houseowner

import (
	"maps"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/felixgeelhaar/heatshift/domain/agent"
	"github.com/felixgeelhaar/heatshift/domain/heating"
)

func TestCompare_NearTieFlipsACoin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		runnerUp     float64
		wantPicks    []heating.Type
		wantResource int
	}{
		{"clear winner", 95, []heating.Type{heating.Pellet}, 2},
		{"near tie", 52, []heating.Type{heating.Oil, heating.Pellet}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			picked := make(map[heating.Type]bool)
			for seed := uint64(1); seed <= 64; seed++ {
				h := newOwner(t, "a", 3)
				withKnown(h, flat(heating.Gas, 100))
				place(h, agent.Preactional)
				h.suitable = []*heating.System{flat(heating.Pellet, 50), flat(heating.Oil, tt.runnerUp)}
				env, _ := newEnv(seed, h)

				if err := h.compare(env); err != nil {
					t.Fatalf("compare() error = %v", err)
				}
				if h.Position() != agent.Actional {
					t.Fatalf("position = %s, want %s", h.Position(), agent.Actional)
				}
				if h.Resource() != tt.wantResource {
					t.Errorf("seed %d: resource = %d, want %d", seed, h.Resource(), tt.wantResource)
				}
				picked[h.Desired().Type] = true
			}
			if diff := cmp.Diff(tt.wantPicks, slices.Sorted(maps.Keys(picked))); diff != "" {
				t.Errorf("picked systems mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		averse      bool
		recommended *heating.System
		known       []*heating.System
		infeasible  []heating.Type

		wantCurious     bool
		wantRecommended heating.Type
		wantLoan        bool
		wantObstacle    Obstacle
	}{
		{
			name:            "recommendation fits the budget",
			recommended:     withPrice(flat(heating.Pellet, 50), 5000),
			wantRecommended: heating.Pellet,
		},
		{
			name:            "unaffordable recommendation sends the owner looking for subsidies",
			recommended:     withPrice(flat(heating.Pellet, 50), 1e6),
			wantCurious:     true,
			wantRecommended: heating.Pellet,
		},
		{
			name:            "loan aversion is set aside",
			averse:          true,
			known:           []*heating.System{withPrice(flat(heating.Electricity, 20), 30000)},
			wantRecommended: heating.Electricity,
			wantLoan:        true,
		},
		{
			name: "cheaper system wins a tie",
			known: []*heating.System{
				withPrice(flat(heating.Pellet, 50), 40),
				withPrice(flat(heating.Oil, 50), 60),
				withPrice(flat(heating.HeatPump, 10), 1e9),
				flat(heating.LocalNetwork, 1),
			},
			infeasible:      []heating.Type{heating.LocalNetwork},
			wantRecommended: heating.Pellet,
		},
		{
			name:         "nothing affordable",
			known:        []*heating.System{withPrice(flat(heating.HeatPump, 10), 1e9)},
			infeasible:   []heating.Type{heating.Gas},
			wantObstacle: ObstacleNoAffordable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newOwner(t, "a", 3)
			broken := flat(heating.Gas, 100)
			broken.Breakdown = true
			withKnown(h, broken, tt.known...)
			// Price carries no weight, so equally good systems tie on rating.
			h.traits.Preferences = even(1)
			h.traits.Preferences[heating.AttrPrice] = 0
			h.profile.LoanTaking = !tt.averse
			h.recommended = tt.recommended
			h.aspiration = 0
			for _, typ := range tt.infeasible {
				h.infeasible[typ] = true
			}
			place(h, agent.Preactional)
			env, _ := newEnv(1, h)
			rec := env.Observer.(*recorder)

			if err := h.fallback(env); err != nil {
				t.Fatalf("fallback() error = %v", err)
			}

			if h.subsidyCurious != tt.wantCurious {
				t.Errorf("subsidy curious = %v, want %v", h.subsidyCurious, tt.wantCurious)
			}
			if tt.wantCurious && (h.Resource() != 0 || h.aspiration != h.profile.Aspiration) {
				t.Errorf("resource = %d, aspiration = %d, want 0 and %d", h.Resource(), h.aspiration, h.profile.Aspiration)
			}
			var got heating.Type
			if h.recommended != nil {
				got = h.recommended.Type
			}
			if got != tt.wantRecommended {
				t.Errorf("recommended = %q, want %q", got, tt.wantRecommended)
			}
			if tt.wantLoan && h.recommended.Loan == nil {
				t.Error("recommended system has no loan")
			}
			if tt.wantObstacle != ObstacleNone {
				if h.Position() != agent.Inactive || !rec.has("abandoned", tt.wantObstacle) {
					t.Errorf("position = %s, events = %+v, want %s abandonment", h.Position(), rec.events, tt.wantObstacle)
				}
			} else if h.Position() != agent.Preactional {
				t.Errorf("position = %s, want %s", h.Position(), agent.Preactional)
			}
		})
	}
}
