// Package dice provides the randomness abstraction used by combat chance rolls.
package dice

// Source supplies uniform draws for chance rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
}

// Roll records one chance roll for audit and deterministic testing.
type Roll struct {
	// Chance is the success probability in percentage points.
	Chance float64
	// Draw is the value drawn from the Source.
	Draw float64
}

// Success reports whether the draw fell under the chance.
//
// Postcondition: Chance <= 0 never succeeds; Chance >= 100 always succeeds.
func (r Roll) Success() bool {
	return r.Draw < r.Chance/100
}

// Percent draws once from src and compares it against chance percentage points.
//
// Precondition: src must be non-nil.
func Percent(src Source, chance float64) Roll {
	return Roll{Chance: chance, Draw: src.Float64()}
}
