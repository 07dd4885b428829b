package houseowner

import (
	"math"
	"testing"

	"github.com/felixgeelhaar/heatshift/domain/agent"
	"github.com/felixgeelhaar/heatshift/domain/heating"
)

type shares map[heating.Type]float64

func (s shares) Share(t heating.Type) float64 { return s[t] }

func TestSearchImpersonal(t *testing.T) {
	t.Parallel()

	several := []heating.Type{heating.Pellet, heating.Electricity, heating.HeatPump}
	tests := []struct {
		name string
		// installed is the value of every attribute of the current system.
		installed    float64
		content      []heating.Type
		aspiration   int
		overload     int
		wantKnown    int
		wantResource int
		wantPosition agent.Position
		wantObstacle Obstacle
	}{
		{
			name:         "a better system meets the aspiration",
			installed:    1e9,
			content:      several,
			aspiration:   1,
			overload:     5,
			wantKnown:    2,
			wantResource: 3,
			wantPosition: agent.Predecisional,
		},
		{
			name:         "worse systems overload the owner",
			installed:    0,
			content:      several,
			aspiration:   5,
			overload:     1,
			wantKnown:    2,
			wantResource: 0,
			wantPosition: agent.Inactive,
			wantObstacle: ObstacleOverload,
		},
		{
			name:         "stops once the source has nothing new",
			installed:    1e9,
			content:      []heating.Type{heating.Pellet},
			aspiration:   5,
			overload:     5,
			wantKnown:    2,
			wantResource: 3,
			wantPosition: agent.Predecisional,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newOwner(t, "a", 4)
			withKnown(h, flat(heating.Gas, tt.installed))
			place(h, agent.Predecisional)
			h.aspiration = tt.aspiration
			h.overload = tt.overload
			env, _ := newEnv(3, h)
			env.Sources = map[heating.Source]*InformationSource{
				heating.SourceMagazine: {Kind: heating.SourceMagazine, Content: tt.content, Distortion: 0.3},
			}
			rec := env.Observer.(*recorder)

			if err := h.searchImpersonal(env, heating.SourceMagazine); err != nil {
				t.Fatalf("searchImpersonal() error = %v", err)
			}
			if h.known.Len() != tt.wantKnown {
				t.Errorf("known = %v, want %d systems", h.known.Types(), tt.wantKnown)
			}
			if h.Resource() != tt.wantResource {
				t.Errorf("resource = %d, want %d", h.Resource(), tt.wantResource)
			}
			if h.Position() != tt.wantPosition {
				t.Errorf("position = %s, want %s", h.Position(), tt.wantPosition)
			}
			if tt.wantObstacle != ObstacleNone && !rec.has("abandoned", tt.wantObstacle) {
				t.Errorf("events = %+v, want %s abandonment", rec.events, tt.wantObstacle)
			}
		})
	}
}

func TestSearchImpersonal_MissingSourceCostsResource(t *testing.T) {
	t.Parallel()

	h := newOwner(t, "a", 4)
	env, _ := newEnv(1, h)

	if err := h.searchImpersonal(env, heating.SourceInternet); err != nil {
		t.Fatal(err)
	}
	if h.Resource() != 3 || h.known.Len() != 1 {
		t.Errorf("resource = %d, known = %d, want 3 and 1", h.Resource(), h.known.Len())
	}
}

func TestPerceive_DistortionShrinksWithMarketShare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		distortion float64
		share      float64
		// bound is the largest relative misperception expected.
		bound float64
	}{
		{"faithful source", 0.1, 0, 0.1},
		{"unknown technology", 0.5, 0, 0.5},
		{"half the market", 0.5, 0.5, 0.3},
		{"widespread technology", 0.5, 1, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newOwner(t, "a", 3)
			env, _ := newEnv(5, h)
			env.Market = shares{heating.Pellet: tt.share}
			src := &InformationSource{Kind: heating.SourceInternet, Distortion: tt.distortion}
			truth, err := env.Catalog.Attributes(heating.Pellet, testHouse)
			if err != nil {
				t.Fatal(err)
			}

			lo, hi := math.Max(0.5, 1-tt.bound)-1e-9, 1+tt.bound+1e-9
			var spread float64
			for range 50 {
				s, err := h.perceive(env, src, heating.Pellet)
				if err != nil {
					t.Fatalf("perceive() error = %v", err)
				}
				if s.Source != heating.SourceInternet {
					t.Errorf("source = %s, want internet", s.Source)
				}
				for _, a := range heating.Attributes() {
					if truth.Value(a) == 0 {
						continue
					}
					ratio := s.Params.Value(a) / truth.Value(a)
					if ratio < lo || ratio > hi {
						t.Errorf("%s perceived at %.3f of its value, want within [%.3f, %.3f]", a, ratio, lo, hi)
					}
					spread = math.Max(spread, math.Abs(ratio-1))
				}
			}
			if tt.bound > 0.1 && spread <= 0.1 {
				t.Errorf("largest misperception %.3f, want above 0.1", spread)
			}
		})
	}
}
