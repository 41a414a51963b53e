package simulator

import (
	"math/rand/v2"
	"time"
)

// Source is the randomness the simulator draws from. *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
	Float64() float64
}

// NewSource returns a seeded PCG generator
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// IntBetween draws uniformly from the inclusive range r
func IntBetween(src Source, r Range) int {
	return r.Min + src.IntN(r.Max-r.Min+1)
}

// DelayBetween draws a whole number of milliseconds uniformly from the inclusive range d
func DelayBetween(src Source, d DurationRange) time.Duration {
	ms := IntBetween(src, Range{
		Min: int(d.Min / time.Millisecond),
		Max: int(d.Max / time.Millisecond),
	})
	return time.Duration(ms) * time.Millisecond
}

// Chance reports true with probability p
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}
