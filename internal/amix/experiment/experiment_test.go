package experiment

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/agbru/amixbench/internal/amix"
)

func randomProblem(t testing.TB, seed int64, n int) amix.Problem {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	p, err := amix.NewProblem(n)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i++ {
		p.XY[i] = rng.Float64()
		p.Ai[i] = rng.Float64() * 5
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			k := rng.Float64() * 0.3
			p.Kijm.Set(i, j, k)
			p.Kijm.Set(j, i, k)
		}
	}
	return p
}

func newWorkspace(t testing.TB, n int) *amix.Workspace {
	t.Helper()
	ws, err := amix.NewWorkspace(n)
	if err != nil {
		t.Fatal(err)
	}
	return ws
}

func closeEnough(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= 1e-9*math.Max(math.Abs(a), math.Abs(b))
}

func experimental() []amix.Strategy {
	f := amix.NewDefaultFactory()
	Register(f)
	var out []amix.Strategy
	for _, name := range f.List() {
		if strings.HasPrefix(name, Prefix) {
			s, _ := f.Get(name)
			out = append(out, s)
		}
	}
	return out
}

// TestFillOrdersMatchFullFill: every fill order writes exactly the matrix
// amix.FillFull writes, including over a workspace full of stale values.
func TestFillOrdersMatchFullFill(t *testing.T) {
	t.Parallel()
	for _, n := range []int{0, 1, 2, 5, 19} {
		p := randomProblem(t, int64(n), n)
		want := newWorkspace(t, n)
		amix.FillFull(p.Ai, p.Kijm, want.Aij)

		for name, fill := range Fills {
			t.Run(fmt.Sprintf("%s/N=%d", name, n), func(t *testing.T) {
				ws := newWorkspace(t, n)
				for i := range ws.Aij.Data() {
					ws.Aij.Data()[i] = -7
				}
				fill(p.Ai, p.Kijm, ws.Aij)
				if !slices.Equal(ws.Aij.Data(), want.Aij.Data()) {
					t.Errorf("matrix differs from FillFull:\n%v\nwant\n%v", ws.Aij, want.Aij)
				}
			})
		}
	}
}

func TestExperimentalStrategiesAgreeWithFused(t *testing.T) {
	t.Parallel()
	strategies := experimental()
	if len(strategies) != len(Fills)+2 {
		t.Fatalf("registered %d experimental strategies, want %d", len(strategies), len(Fills)+2)
	}
	for _, n := range []int{0, 1, 2, 3, 10, 50, 100} {
		p := randomProblem(t, 42+int64(n), n)
		want := amix.FusedStrategy{}.Compute(p, newWorkspace(t, n))
		for _, s := range strategies {
			ws := newWorkspace(t, n)
			got, err := amix.ComputeWith(s, p, ws)
			if err != nil {
				t.Fatalf("%s: %v", s.Name(), err)
			}
			if !closeEnough(got, want) {
				t.Errorf("%s N=%d: %.17g, fused %.17g", s.Name(), n, got, want)
			}
			if n > 0 && ws.Aij.At(n-1, n-1) != p.Ai[n-1] {
				t.Errorf("%s N=%d: diagonal not exact", s.Name(), n)
			}
			if !ws.Aij.IsSymmetric(0) {
				t.Errorf("%s N=%d: matrix not symmetric", s.Name(), n)
			}
		}
	}
}

func TestUnsafeFusedMatchesFusedBitForBit(t *testing.T) {
	t.Parallel()
	p := randomProblem(t, 9, 37)
	ref := newWorkspace(t, 37)
	want := amix.FusedStrategy{}.Compute(p, ref)

	ws := newWorkspace(t, 37)
	got := UnsafeFusedStrategy{}.Compute(p, ws)
	if got != want {
		t.Errorf("unsafe = %.17g, fused = %.17g", got, want)
	}
	if !slices.Equal(ws.Aij.Data(), ref.Aij.Data()) {
		t.Error("unsafe matrix differs from fused matrix")
	}
	if !slices.Equal(ws.SumAi, ref.SumAi) {
		t.Error("unsafe sumAi differs from fused sumAi")
	}
}

// TestAccumulateNeedsReset shows the accumulate contract: without zeroing
// SumAi between calls the second result drifts.
func TestAccumulateNeedsReset(t *testing.T) {
	t.Parallel()
	p := randomProblem(t, 3, 8)
	ws := newWorkspace(t, 8)
	s := AccumulateStrategy{}

	first := s.Compute(p, ws)
	drifted := s.Compute(p, ws)
	if closeEnough(first, drifted) {
		t.Fatalf("expected drift without Reset, got %.17g twice", first)
	}

	ws.Reset()
	if again := s.Compute(p, ws); !closeEnough(again, first) {
		t.Errorf("after Reset = %.17g, want %.17g", again, first)
	}
}

func TestRegisterKeys(t *testing.T) {
	t.Parallel()
	f := amix.NewDefaultFactory()
	Register(f)
	for _, name := range []string{UnsafeFused, Accumulate, DiagonalLast, MirrorConditional,
		MirrorDiagonalLast, HalfThenMirrorRow, HalfThenMirrorColumn} {
		s, err := f.Create(name)
		if err != nil {
			t.Errorf("Create(%q): %v", name, err)
			continue
		}
		if s.Name() != name || s.Description() == "" {
			t.Errorf("%q: Name() = %q, Description() = %q", name, s.Name(), s.Description())
		}
	}
	if !f.Has(amix.DefaultStrategy) {
		t.Error("Register must not drop the built-in strategies")
	}
}

func BenchmarkExperimental(b *testing.B) {
	for _, n := range []int{50, 100} {
		p := randomProblem(b, 123, n)
		for _, s := range experimental() {
			b.Run(fmt.Sprintf("%s/N=%d", s.Name(), n), func(b *testing.B) {
				ws := newWorkspace(b, n)
				for i := 0; i < b.N; i++ {
					ws.Reset()
					s.Compute(p, ws)
				}
			})
		}
	}
}
