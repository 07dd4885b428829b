package intermediary

import (
	"github.com/felixgeelhaar/heatshift/domain/finance"
	"github.com/felixgeelhaar/heatshift/domain/heating"
)

// AnyTechnology marks a subsidy rule that applies to every known system.
const AnyTechnology = "any"

// rate scores each system by the preference-weighted mean of its attributes,
// each rescaled as 1 - value/max over the group, so cheaper and cleaner is
// better.
func rate(systems []*heating.System, prefs map[heating.Attribute]float64) {
	attrs := heating.Attributes()
	maxima := make(map[heating.Attribute]float64, len(attrs))
	for _, s := range systems {
		for _, a := range attrs {
			maxima[a] = max(maxima[a], s.Params.Value(a))
		}
	}
	for _, s := range systems {
		var r float64
		for _, a := range attrs {
			if m := maxima[a]; m > 0 {
				r += (1 - s.Params.Value(a)/m) * prefs[a]
			}
		}
		s.Rating = r / float64(len(attrs))
	}
}

// EqualPreferences weights every attribute the same.
func EqualPreferences() map[heating.Attribute]float64 {
	attrs := heating.Attributes()
	prefs := make(map[heating.Attribute]float64, len(attrs))
	for _, a := range attrs {
		prefs[a] = 1 / float64(len(attrs))
	}
	return prefs
}

// bySystem groups subsidy rules by technology. Rules for AnyTechnology are
// copied to every known type.
func bySystem(rules []finance.Subsidy, known []heating.Type) map[heating.Type][]finance.Subsidy {
	out := make(map[heating.Type][]finance.Subsidy)
	for _, r := range rules {
		if r.Technology == AnyTechnology {
			for _, t := range known {
				c := finance.CloneSubsidies([]finance.Subsidy{r})[0]
				c.Technology = string(t)
				out[t] = append(out[t], c)
			}
			continue
		}
		t := heating.Type(r.Technology)
		out[t] = append(out[t], finance.CloneSubsidies([]finance.Subsidy{r})...)
	}
	return out
}
