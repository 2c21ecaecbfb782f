// Package rng provides the deterministic random streams used by the
// composition pipeline. Every musical decision draws from a stream derived
// from the request seed plus a per-concern salt, so perturbing one decision
// never ripples into unrelated ones.
package rng

const (
	multiplier = 1664525
	increment  = 1013904223
)

// Stream is a 32-bit linear congruential generator.
type Stream struct {
	state uint32
}

// New creates a stream from a seed. Seed 0 is remapped to 1 so the
// generator never degenerates.
func New(seed uint32) *Stream {
	if seed == 0 {
		seed = 1
	}
	return &Stream{state: seed}
}

// Derive creates an independent sub-stream for a named concern.
func Derive(seed, salt uint32) *Stream {
	return New(DeriveSeed(seed, salt))
}

// DeriveSeed mixes a salt into a seed. The multiply/XOR mix keeps
// sub-streams statistically unrelated even for adjacent salts.
func DeriveSeed(seed, salt uint32) uint32 {
	h := seed ^ (salt * 0x9e3779b1)
	h ^= h >> 15
	h *= 0x85ebca6b
	h ^= h >> 13
	if h == 0 {
		h = 1
	}
	return h
}

// Next advances the generator and returns the raw 32-bit state.
func (s *Stream) Next() uint32 {
	s.state = s.state*multiplier + increment
	return s.state
}

// Float returns a value in [0, 1).
func (s *Stream) Float() float64 {
	return float64(s.Next()) / 4294967296.0
}

// IntN returns a value in [0, n). n must be positive.
func (s *Stream) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return int(s.Float() * float64(n))
}

// Range returns a value in [lo, hi).
func (s *Stream) Range(lo, hi float64) float64 {
	return lo + s.Float()*(hi-lo)
}

// Chance returns true with probability p.
func (s *Stream) Chance(p float64) bool {
	return s.Float() < p
}

// Shuffle performs a Fisher-Yates shuffle over n elements.
func (s *Stream) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := s.IntN(i + 1)
		swap(i, j)
	}
}

// Pick returns a random index into a slice of the given length, or -1 when
// the slice is empty.
func (s *Stream) Pick(n int) int {
	if n == 0 {
		return -1
	}
	return s.IntN(n)
}
