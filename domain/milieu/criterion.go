package milieu

// Situation is what the satisfaction criteria look at.
type Situation struct {
	// CanAfford is true once the replacement budget has filled up.
	CanAfford bool

	Emissions            float64
	LowestKnownEmissions float64

	// Adoption counts neighbours heating with the same type;
	// DominantAdoption is the count of the most common type.
	Adoption         int
	DominantAdoption int

	WeeksUntilBan     int
	BanScheduled      bool
	RemainingLifetime int
}

// Criterion decides whether the current system meets a milieu's standard.
type Criterion func(Situation) bool

var criteria = map[Type]Criterion{
	Leading:     leadingCriterion,
	Mainstream:  mainstreamCriterion,
	Traditional: traditionalCriterion,
	Hedonist:    func(Situation) bool { return true },
}

// CriterionFor returns the milieu-specific criterion.
func CriterionFor(t Type) (Criterion, bool) {
	c, ok := criteria[t]
	return c, ok
}

// MeetsLifetime is the criterion shared by every milieu.
func MeetsLifetime(remaining, tolerance int) bool {
	return remaining >= tolerance
}

// Leading households want the lowest-emission system they know of,
// once they can pay for it.
func leadingCriterion(s Situation) bool {
	return !s.CanAfford || s.Emissions <= s.LowestKnownEmissions
}

// Mainstream households want what most neighbours have.
func mainstreamCriterion(s Situation) bool {
	return !s.CanAfford || s.Adoption >= s.DominantAdoption
}

// Traditional households act when a ban is near and the system is old.
func traditionalCriterion(s Situation) bool {
	soonBanned := s.BanScheduled && s.WeeksUntilBan > 0 && s.WeeksUntilBan < 104
	return !(soonBanned && s.RemainingLifetime < 208)
}
