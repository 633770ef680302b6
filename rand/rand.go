// Package rand is a small seeded PRNG used to synthesize test models. The
// sequence for a given seed is stable across platforms and Go releases, so
// a failing self-check can always be replayed from its seed.
package rand

import (
	"github.com/pkg/errors"
	"github.com/seehuhn/mt19937"
)

// A Generator is a Mersenne twister with a few helpers. It is not safe for
// concurrent use.
type Generator struct {
	mt *mt19937.MT19937
}

// NewGenerator returns a generator seeded with seed
func NewGenerator(seed int64) *Generator {
	mt := mt19937.New()
	mt.Seed(seed)
	return &Generator{mt: mt}
}

// NewGeneratorSlice returns a generator seeded from a key slice, matching the
// init_by_array seeding of the reference implementation
func NewGeneratorSlice(key []uint64) (*Generator, error) {
	if len(key) < 1 {
		return nil, errors.Errorf("Seed key must have at least one element")
	}
	mt := mt19937.New()
	mt.SeedFromSlice(key)
	return &Generator{mt: mt}, nil
}

// Int63 returns a non-negative pseudo-random 63-bit integer
func (g *Generator) Int63() int64 {
	return g.mt.Int63()
}

// Intn returns a value in [0, n). It panics if n <= 0.
func (g *Generator) Intn(n int) int {
	if n <= 0 {
		panic("invalid argument to Intn")
	}

	max := int64((1 << 63) - 1 - (1<<63)%uint64(n))
	v := g.Int63()
	for v > max {
		v = g.Int63()
	}

	return int(v % int64(n))
}

// Between returns a value in [lo, hi]
func (g *Generator) Between(lo int, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + g.Intn(hi-lo+1)
}

// Float64 returns a value in [0.0, 1.0)
func (g *Generator) Float64() float64 {
	return float64(g.Int63()>>10) / (1 << 53)
}

// Chance returns true with probability p
func (g *Generator) Chance(p float64) bool {
	return g.Float64() < p
}

// Pick returns a random element of choices, which must not be empty
func (g *Generator) Pick(choices []string) string {
	return choices[g.Intn(len(choices))]
}
