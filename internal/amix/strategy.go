package amix

// Strategy is one way of computing amix. Implementations differ in matrix
// fill order, symmetry exploitation and memory-access pattern, never in the
// result beyond reduction-order rounding.
//
// Compute is the hot path: it performs no validation and panics with an
// index-out-of-range error if p and ws are not sized for p.N. Callers that
// cannot guarantee sizes should go through ComputeWith.
type Strategy interface {
	// Name returns the short registry key of the strategy (e.g. "fused").
	Name() string

	// Description returns a one-line summary for reports.
	Description() string

	// Compute fills ws.Aij, overwrites ws.SumAi and returns amix.
	Compute(p Problem, ws *Workspace) float64
}

// Strategy keys of the built-in implementations.
const (
	StrategyFused     = "fused"
	StrategySymmetric = "symmetric"
	StrategyFull      = "full"
	StrategySegmented = "segmented"
	StrategyIndexed   = "indexed"

	// DefaultStrategy is what Compute uses.
	DefaultStrategy = StrategyFused
)

// FusedStrategy is the canonical kernel: symmetric fill fused with the row
// reduction over contiguous row windows. It pays n·(n-1)/2 square roots and
// a single traversal of the matrix.
type FusedStrategy struct{}

func (FusedStrategy) Name() string { return StrategyFused }

func (FusedStrategy) Description() string {
	return "Symmetric fill fused with row reduction (row windows, mirrored writes)"
}

func (FusedStrategy) Compute(p Problem, ws *Workspace) float64 {
	return ReduceFused(p.XY, p.Ai, p.Kijm, ws.Aij, ws.SumAi)
}

// SymmetricStrategy fills the upper triangle plus mirror, then reduces in a
// second pass.
type SymmetricStrategy struct{}

func (SymmetricStrategy) Name() string { return StrategySymmetric }

func (SymmetricStrategy) Description() string {
	return "Symmetric fill, then two-pass reduction"
}

func (SymmetricStrategy) Compute(p Problem, ws *Workspace) float64 {
	FillSymmetric(p.Ai, p.Kijm, ws.Aij)
	return Reduce(p.XY, ws.Aij, ws.SumAi)
}

// FullStrategy computes every cell with a diagonal branch, then reduces in
// a second pass.
type FullStrategy struct{}

func (FullStrategy) Name() string { return StrategyFull }

func (FullStrategy) Description() string {
	return "Full fill with diagonal branch, then two-pass reduction"
}

func (FullStrategy) Compute(p Problem, ws *Workspace) float64 {
	FillFull(p.Ai, p.Kijm, ws.Aij)
	return Reduce(p.XY, ws.Aij, ws.SumAi)
}

// SegmentedStrategy computes every cell (no mirroring) but splits each row
// into j < i, the diagonal, and j > i so the inner loops carry no branch.
// Each row is reduced while it is written.
type SegmentedStrategy struct{}

func (SegmentedStrategy) Name() string { return StrategySegmented }

func (SegmentedStrategy) Description() string {
	return "Branch-free full fill, each row reduced as it is written"
}

func (SegmentedStrategy) Compute(p Problem, ws *Workspace) float64 {
	n := ws.Aij.N()
	xy := p.XY[:n]
	ai := p.Ai[:n]
	sumAi := ws.SumAi[:n]

	var amix float64
	for i := 0; i < n; i++ {
		rowA := ws.Aij.Row(i)
		rowK := p.Kijm.Row(i)
		aii := ai[i]

		var sum float64
		for j := 0; j < i; j++ {
			v := pairTerm(aii, ai[j], rowK[j])
			rowA[j] = v
			sum += xy[j] * v
		}
		rowA[i] = aii
		sum += xy[i] * aii
		for j := i + 1; j < n; j++ {
			v := pairTerm(aii, ai[j], rowK[j])
			rowA[j] = v
			sum += xy[j] * v
		}

		sumAi[i] = sum
		amix += sum * xy[i]
	}
	return amix
}

// IndexedStrategy uses bounds-checked 2-D indexing (At/Set) for every
// access. It is the slowest variant and the closest to the textbook formula.
type IndexedStrategy struct{}

func (IndexedStrategy) Name() string { return StrategyIndexed }

func (IndexedStrategy) Description() string {
	return "Full fill and two-pass reduction through bounds-checked At/Set"
}

func (IndexedStrategy) Compute(p Problem, ws *Workspace) float64 {
	n := p.N
	aij := ws.Aij
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				aij.Set(i, j, p.Ai[i])
			} else {
				aij.Set(i, j, pairTerm(p.Ai[i], p.Ai[j], p.Kijm.At(i, j)))
			}
		}
	}

	var amix float64
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < n; j++ {
			sum += p.XY[j] * aij.At(i, j)
		}
		ws.SumAi[i] = sum
		amix += sum * p.XY[i]
	}
	return amix
}
