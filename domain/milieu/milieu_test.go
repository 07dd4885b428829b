package milieu

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/felixgeelhaar/heatshift/domain/heating"
)

func TestDefaultProfilesValid(t *testing.T) {
	t.Parallel()

	profiles := DefaultProfiles()
	var share float64
	for _, mt := range AllTypes() {
		p, ok := profiles[mt]
		if !ok {
			t.Fatalf("missing default profile for %s", mt)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("%s: %v", mt, err)
		}
		share += p.Share
	}
	if math.Abs(share-1) > 1e-9 {
		t.Errorf("shares sum to %v, want 1", share)
	}
}

func TestProfile_ValidateRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Profile)
		wantErr error
	}{
		{"unknown milieu", func(p *Profile) { p.Type = "bohemian" }, ErrUnknownMilieu},
		{"missing preference", func(p *Profile) { delete(p.Preferences, heating.AttrOpex) }, ErrInvalidProfile},
		{"zero source", func(p *Profile) { p.Sources[heating.SourcePlumber] = 0 }, ErrInvalidProfile},
		{"exposure above one", func(p *Profile) { p.Exposure[Hedonist] = 2 }, ErrInvalidProfile},
		{"zero aspiration", func(p *Profile) { p.Aspiration = 0 }, ErrInvalidProfile},
		{"inverted resource", func(p *Profile) { p.ResourceMin, p.ResourceMax = 5, 3 }, ErrInvalidProfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := DefaultProfiles()[Mainstream]
			tt.mutate(&p)
			if err := p.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestProfile_Draw(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(42, 42))
	p := DefaultProfiles()[Leading]
	for range 50 {
		tr := p.Draw(rng)

		var prefSum, srcSum float64
		for _, v := range tr.Preferences {
			prefSum += v
		}
		for _, v := range tr.Sources {
			srcSum += v
		}
		if math.Abs(prefSum-1) > 1e-9 || math.Abs(srcSum-1) > 1e-9 {
			t.Fatalf("weights not normalized: prefs=%v sources=%v", prefSum, srcSum)
		}
		if tr.CognitiveResource < p.ResourceMin || tr.CognitiveResource > p.ResourceMax {
			t.Fatalf("resource %d outside range", tr.CognitiveResource)
		}
		if tr.Income < p.IncomeMin || tr.Income > p.IncomeMax {
			t.Fatalf("income %v outside range", tr.Income)
		}
	}
}

func TestTPBWeights_Normalized(t *testing.T) {
	t.Parallel()

	w := TPBWeights{Attitude: 2, SocialNorm: 1, Control: 1}.Normalized()
	if w.Attitude != 0.5 || w.SocialNorm != 0.25 || w.Control != 0.25 {
		t.Errorf("Normalized() = %+v", w)
	}
	if z := (TPBWeights{}).Normalized(); math.Abs(z.Attitude+z.SocialNorm+z.Control-1) > 1e-12 {
		t.Errorf("zero weights normalized to %+v", z)
	}
}

func TestCriteria(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		m    Type
		s    Situation
		want bool
	}{
		{"leading cleanest", Leading, Situation{CanAfford: true, Emissions: 10, LowestKnownEmissions: 10}, true},
		{"leading dirtier", Leading, Situation{CanAfford: true, Emissions: 20, LowestKnownEmissions: 10}, false},
		{"leading cannot afford", Leading, Situation{Emissions: 20, LowestKnownEmissions: 10}, true},
		{"mainstream popular", Mainstream, Situation{CanAfford: true, Adoption: 3, DominantAdoption: 3}, true},
		{"mainstream minority", Mainstream, Situation{CanAfford: true, Adoption: 1, DominantAdoption: 3}, false},
		{"traditional ban near and old", Traditional, Situation{BanScheduled: true, WeeksUntilBan: 50, RemainingLifetime: 100}, false},
		{"traditional ban near but young", Traditional, Situation{BanScheduled: true, WeeksUntilBan: 50, RemainingLifetime: 300}, true},
		{"traditional ban passed", Traditional, Situation{BanScheduled: true, WeeksUntilBan: -5, RemainingLifetime: 100}, true},
		{"traditional no ban", Traditional, Situation{RemainingLifetime: 10}, true},
		{"hedonist", Hedonist, Situation{CanAfford: true, Emissions: 99, Adoption: 0, DominantAdoption: 9}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, ok := CriterionFor(tt.m)
			if !ok {
				t.Fatalf("no criterion for %s", tt.m)
			}
			if got := c(tt.s); got != tt.want {
				t.Errorf("criterion = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMeetsLifetime_Idempotent(t *testing.T) {
	t.Parallel()

	const lifetime, tolerance = 1000, 104
	for age := 0; age < lifetime-tolerance; age++ {
		first := MeetsLifetime(lifetime-age, tolerance)
		second := MeetsLifetime(lifetime-age, tolerance)
		if !first || !second {
			t.Fatalf("age %d: lifetime criterion failed", age)
		}
	}
}
