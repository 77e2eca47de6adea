package amix

import (
	"math"
	"math/rand"
	"testing"

	"github.com/agbru/amixbench/internal/matrix"
)

// relTolerance is the cross-strategy agreement bound.
const relTolerance = 1e-9

// randomProblem builds a problem with values in [0,1) and a symmetric kijm.
func randomProblem(rng *rand.Rand, n int) Problem {
	p, err := NewProblem(n)
	if err != nil {
		panic(err)
	}
	for i := 0; i < n; i++ {
		p.XY[i] = rng.Float64()
		p.Ai[i] = rng.Float64()
	}
	for i := 0; i < n; i++ {
		p.Kijm.Set(i, i, rng.Float64())
		for j := i + 1; j < n; j++ {
			k := rng.Float64()
			p.Kijm.Set(i, j, k)
			p.Kijm.Set(j, i, k)
		}
	}
	return p
}

func mustWorkspace(t testing.TB, n int) *Workspace {
	t.Helper()
	ws, err := NewWorkspace(n)
	if err != nil {
		t.Fatalf("NewWorkspace(%d): %v", n, err)
	}
	return ws
}

func mustSquare(t testing.TB, rows [][]float64) *matrix.Square {
	t.Helper()
	m, err := matrix.FromRows(rows)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	return m
}

func closeEnough(a, b, rel float64) bool {
	if a == b {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= rel*math.Max(scale, 1e-300)
}

// builtinStrategies returns one instance of every core strategy.
func builtinStrategies() []Strategy {
	return []Strategy{
		FusedStrategy{},
		SymmetricStrategy{},
		FullStrategy{},
		SegmentedStrategy{},
		IndexedStrategy{},
	}
}
