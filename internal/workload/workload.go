// Package workload generates the reproducible random inputs the benchmark
// driver feeds to the amix kernel.
package workload

import (
	"fmt"
	"math/rand"

	"github.com/agbru/amixbench/internal/amix"
)

// DefaultSeed is the seed used when none is configured.
const DefaultSeed int64 = 123

// Generator draws uniform values in [0, 1) from a seeded source. It is not
// safe for concurrent use; give each goroutine its own Generator.
type Generator struct {
	seed int64
	rng  *rand.Rand
}

// NewGenerator returns a Generator seeded with seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{seed: seed, rng: rand.New(rand.NewSource(seed))}
}

// Seed returns the seed the generator was created with.
func (g *Generator) Seed() int64 { return g.seed }

// Vector overwrites dst with fresh draws.
func (g *Generator) Vector(dst []float64) {
	for i := range dst {
		dst[i] = g.rng.Float64()
	}
}

// Fill writes fresh XY, ai and kijm values into p's existing buffers, in
// that order. kijm consumes n² draws in row-major order, then its lower
// triangle is overwritten with the upper one so the result is symmetric.
func (g *Generator) Fill(p amix.Problem) error {
	if p.Kijm == nil {
		return fmt.Errorf("workload: %w", amix.ErrNilMatrix)
	}
	if len(p.XY) != p.N || len(p.Ai) != p.N || p.Kijm.N() != p.N {
		return fmt.Errorf("workload: problem buffers do not match n=%d: %w", p.N, amix.ErrLengthMismatch)
	}
	g.Vector(p.XY)
	g.Vector(p.Ai)
	g.Vector(p.Kijm.Data())
	mirrorUpper(p)
	return nil
}

func mirrorUpper(p amix.Problem) {
	n := p.N
	data := p.Kijm.Data()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			data[j*n+i] = data[i*n+j]
		}
	}
}

// NewProblem allocates a problem of size n and fills it from a fresh
// Generator seeded with seed.
func NewProblem(n int, seed int64) (amix.Problem, error) {
	p, err := amix.NewProblem(n)
	if err != nil {
		return amix.Problem{}, err
	}
	if err := NewGenerator(seed).Fill(p); err != nil {
		return amix.Problem{}, err
	}
	return p, nil
}
