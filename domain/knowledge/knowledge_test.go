package knowledge

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/felixgeelhaar/heatshift/domain/heating"
)

func TestUpdate_WorkedExample(t *testing.T) {
	t.Parallel()

	got, changed, err := Update(
		heating.Estimate{Value: 10, Uncertainty: 2},
		heating.Estimate{Value: 14, Uncertainty: 4},
		0.5,
	)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !changed {
		t.Fatal("Update() reported no change")
	}
	if math.Abs(got.Value-10.5) > 1e-12 || math.Abs(got.Uncertainty-2.25) > 1e-12 {
		t.Errorf("Update() = %+v, want {10.5 2.25}", got)
	}
}

func TestUpdate_NoOverlap(t *testing.T) {
	t.Parallel()

	target := heating.Estimate{Value: 10, Uncertainty: 1}
	got, changed, err := Update(target, heating.Estimate{Value: 13, Uncertainty: 2}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if changed || got != target {
		t.Errorf("Update() = %+v, %v; want unchanged", got, changed)
	}
}

func TestUpdate_RejectsNegativeUncertainty(t *testing.T) {
	t.Parallel()

	_, _, err := Update(heating.Estimate{Value: 1, Uncertainty: -1}, heating.Estimate{Value: 1, Uncertainty: 1}, 0.5)
	if !errors.Is(err, heating.ErrNegativeUncertainty) {
		t.Errorf("error = %v, want ErrNegativeUncertainty", err)
	}
	_, _, err = Update(heating.Estimate{Value: 1, Uncertainty: 1}, heating.Estimate{Value: 1, Uncertainty: 1}, 1.5)
	if !errors.Is(err, ErrInvalidExposure) {
		t.Errorf("error = %v, want ErrInvalidExposure", err)
	}
}

func between(x, a, b float64) bool {
	lo, hi := math.Min(a, b), math.Max(a, b)
	return x >= lo && x <= hi
}

func TestUpdate_ConvergesMonotonically(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11))
	for range 2000 {
		target := heating.Estimate{Value: rng.Float64() * 100, Uncertainty: rng.Float64()*20 + 1e-6}
		source := heating.Estimate{Value: rng.Float64() * 100, Uncertainty: rng.Float64()*20 + 1e-6}
		mu := rng.Float64()

		got, changed, err := Update(target, source, mu)
		if err != nil {
			t.Fatal(err)
		}
		if !changed {
			if got != target {
				t.Fatalf("unchanged update altered target: %+v -> %+v", target, got)
			}
			continue
		}
		if got.Uncertainty < heating.MinUncertainty {
			t.Fatalf("uncertainty %v below floor", got.Uncertainty)
		}
		if !between(got.Value, target.Value, source.Value) {
			t.Fatalf("opinion %v not between %v and %v", got.Value, target.Value, source.Value)
		}
		if !between(got.Uncertainty, target.Uncertainty, source.Uncertainty) {
			t.Fatalf("uncertainty %v not between %v and %v", got.Uncertainty, target.Uncertainty, source.Uncertainty)
		}
	}
}

func system(t heating.Type, price, u float64) *heating.System {
	return &heating.System{
		Type: t,
		Params: heating.Params{
			heating.AttrPrice:     {Value: price, Uncertainty: u},
			heating.AttrEmissions: {Value: 100, Uncertainty: u},
		},
	}
}

func TestBase_PutGetRemove(t *testing.T) {
	t.Parallel()

	b := NewBase(system(heating.Gas, 1, 1), system(heating.Oil, 2, 1))
	b.Put(system(heating.Gas, 3, 1))

	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}
	if got := b.Get(heating.Gas).Price(); got != 3 {
		t.Errorf("Gas price = %v, want 3", got)
	}
	if diff := cmp.Diff([]heating.Type{heating.Gas, heating.Oil}, b.Types()); diff != "" {
		t.Errorf("Types() mismatch (-want +got):\n%s", diff)
	}

	b.Remove(heating.Gas)
	if b.Has(heating.Gas) || b.Len() != 1 {
		t.Error("Remove() did not forget gas")
	}
}

func TestBase_Learn(t *testing.T) {
	t.Parallel()

	b := NewBase(system(heating.Gas, 10, 2))

	incoming := system(heating.Gas, 14, 4)
	added, err := b.Learn(incoming, 0.5, heating.SourceNeighbour)
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Error("known type reported as added")
	}
	if got := b.Get(heating.Gas).Params[heating.AttrPrice]; math.Abs(got.Value-10.5) > 1e-12 {
		t.Errorf("price after agreement = %+v", got)
	}

	hp := system(heating.HeatPump, 20000, 500)
	hp.RecordOpinion("x", 0.9)
	hp.Subsidised = true
	added, err = b.Learn(hp, 0.5, heating.SourceNeighbour)
	if err != nil {
		t.Fatal(err)
	}
	learnt := b.Get(heating.HeatPump)
	if !added || learnt == nil {
		t.Fatal("unknown type not added")
	}
	if learnt == hp || learnt.NeighbourOpinions != nil || learnt.Subsidised || learnt.Source != heating.SourceNeighbour {
		t.Errorf("learnt copy not cleaned: %+v", learnt)
	}
}

func TestBase_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	b := NewBase(system(heating.Pellet, 1, 1), system(heating.Gas, 2, 1))
	data, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	var got Base
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(b.All(), got.All()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	dup := []byte(`[{"type":"gas"},{"type":"gas"}]`)
	if err := json.Unmarshal(dup, &got); !errors.Is(err, ErrDuplicateSystem) {
		t.Errorf("error = %v, want ErrDuplicateSystem", err)
	}
}
