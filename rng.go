package ospfap

import "math/rand/v2"

// SystemRandom is the production Random: math/rand/v2's top-level
// generator. This is the one ambient concern this engine builds on the
// standard library rather than a third-party dependency — see
// DESIGN.md for why no example package's PRNG choice fit a collaborator
// interface this narrow.
type SystemRandom struct{}

// Intn returns a uniform integer in [0, n).
func (SystemRandom) Intn(n int) int { return rand.IntN(n) }

// Uint32 returns a uniform 32-bit value.
func (SystemRandom) Uint32() uint32 { return rand.Uint32() }

// SeededRandom wraps a *rand.Rand seeded from a fixed value, for
// reproducible test runs.
type SeededRandom struct {
	r *rand.Rand
}

// NewSeededRandom returns a SeededRandom deterministic for a given seed.
func NewSeededRandom(seed uint64) *SeededRandom {
	return &SeededRandom{r: rand.New(rand.NewPCG(seed, seed))}
}

// Intn returns a uniform integer in [0, n).
func (s *SeededRandom) Intn(n int) int { return s.r.IntN(n) }

// Uint32 returns a uniform 32-bit value.
func (s *SeededRandom) Uint32() uint32 { return s.r.Uint32() }
