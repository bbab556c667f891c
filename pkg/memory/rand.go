package memory

import "math/rand"

// Rand supplies the uniform draws used by gossip diffusion. Isolating the
// source lets tests substitute a seeded or scripted generator and assert
// exact accept/reject outcomes.
type Rand interface {
	Float64() float64
}

// NewRand returns a seeded math/rand source satisfying Rand.
func NewRand(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}
