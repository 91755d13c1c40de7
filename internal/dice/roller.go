package dice

import "math/rand/v2"

// Roller produces die results in [1, sides].
type Roller interface {
	Roll(sides int64) int64
}

// SeededRoller is a deterministic PCG-backed roller.
type SeededRoller struct {
	rng *rand.Rand
}

// NewSeededRoller creates a roller whose sequence depends only on seed.
func NewSeededRoller(seed int64) *SeededRoller {
	return &SeededRoller{rng: rand.New(rand.NewPCG(uint64(seed), 0x62657964))}
}

// Roll returns a uniform result in [1, sides].
func (r *SeededRoller) Roll(sides int64) int64 {
	if sides < 1 {
		return 1
	}
	return r.rng.Int64N(sides) + 1
}

// FixedRoller returns its results in order and then repeats the last one.
type FixedRoller struct {
	results []int64
	next    int
}

// NewFixedRoller creates a roller for tests.
func NewFixedRoller(results ...int64) *FixedRoller {
	return &FixedRoller{results: results}
}

// Roll ignores sides.
func (r *FixedRoller) Roll(int64) int64 {
	if len(r.results) == 0 {
		return 1
	}
	if r.next >= len(r.results) {
		return r.results[len(r.results)-1]
	}
	v := r.results[r.next]
	r.next++
	return v
}
