package scenario_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/felixgeelhaar/heatshift/domain/finance"
	"github.com/felixgeelhaar/heatshift/domain/heating"
	"github.com/felixgeelhaar/heatshift/domain/scenario"
	"github.com/felixgeelhaar/heatshift/domain/trigger"
)

func TestImpact_Validate(t *testing.T) {
	t.Parallel()

	campaign := trigger.Trigger{Kind: trigger.InformationCampaign, Systems: []heating.Type{heating.Pellet}}
	none := trigger.Of(trigger.None)
	grant := finance.Subsidy{Name: "grant", Technology: "pellet", Share: 0.3}

	tests := []struct {
		name    string
		impact  scenario.Impact
		wantErr error
	}{
		{"trigger", scenario.Impact{Step: 1, Kind: scenario.KindTrigger, Trigger: &campaign, Share: 0.5}, nil},
		{"trigger without share", scenario.Impact{Kind: scenario.KindTrigger, Trigger: &campaign}, scenario.ErrInvalidImpact},
		{"null trigger", scenario.Impact{Kind: scenario.KindTrigger, Trigger: &none, Share: 1}, scenario.ErrInvalidImpact},
		{"subsidy", scenario.Impact{Kind: scenario.KindSubsidyAdd, Subsidy: &grant}, nil},
		{"subsidy missing", scenario.Impact{Kind: scenario.KindSubsidyAdd}, scenario.ErrInvalidImpact},
		{"removal without name", scenario.Impact{Kind: scenario.KindSubsidyRemove}, scenario.ErrInvalidImpact},
		{"fuel price", scenario.Impact{Kind: scenario.KindFuelPrice, Technology: heating.Gas, Factor: 1.5}, nil},
		{"fuel price zero factor", scenario.Impact{Kind: scenario.KindFuelPrice, Technology: heating.Gas}, scenario.ErrInvalidImpact},
		{"ban", scenario.Impact{Kind: scenario.KindBan, Technology: heating.Oil, From: 520}, nil},
		{"negative step", scenario.Impact{Step: -1, Kind: scenario.KindBan, Technology: heating.Oil, From: 1}, scenario.ErrInvalidImpact},
		{"unknown kind", scenario.Impact{Kind: "meteor"}, scenario.ErrUnknownImpact},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.impact.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				if tt.impact.Describe() == "" {
					t.Error("Describe() is empty")
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestScenario_Due(t *testing.T) {
	t.Parallel()

	s := scenario.Scenario{Impacts: []scenario.Impact{
		{Step: 2, Kind: scenario.KindBan, Technology: heating.Oil, From: 100},
		{Step: 5, Kind: scenario.KindFuelPrice, Technology: heating.Gas, Factor: 2},
		{Step: 2, Kind: scenario.KindSubsidyRemove, Name: "old"},
	}}

	due := s.Due(2)
	if len(due) != 2 || due[0].Kind != scenario.KindBan || due[1].Kind != scenario.KindSubsidyRemove {
		t.Errorf("Due(2) = %+v", due)
	}
	if got := s.Due(3); len(got) != 0 {
		t.Errorf("Due(3) = %+v, want none", got)
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	base := []finance.Subsidy{
		{Name: "old", Technology: "oil", Share: 0.1},
		{Name: "keep", Technology: "pellet", Share: 0.2},
	}
	added := finance.Subsidy{Name: "new", Technology: "heat_pump", Share: 0.4}

	got := scenario.Apply(base, []scenario.Impact{
		{Kind: scenario.KindSubsidyRemove, Name: "old"},
		{Kind: scenario.KindSubsidyAdd, Subsidy: &added},
		{Kind: scenario.KindBan, Technology: heating.Oil, From: 10},
	})

	want := []finance.Subsidy{base[1], added}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
	}
	if len(base) != 2 {
		t.Errorf("Apply() modified its input")
	}
}
