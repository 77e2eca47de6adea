// Package experiment holds performance-experiment variants of the amix
// kernel. They are not part of the core contract: each one computes the same
// value as the amix strategies but explores a different fill order or access
// idiom, and they are registered only when explicitly requested.
package experiment

import (
	"github.com/agbru/amixbench/internal/amix"
	"github.com/agbru/amixbench/internal/matrix"
)

// Prefix marks every experimental strategy key.
const Prefix = "x-"

// Strategy keys.
const (
	UnsafeFused          = Prefix + "unsafe-fused"
	Accumulate           = Prefix + "accumulate"
	DiagonalLast         = Prefix + "diagonal-last"
	MirrorConditional    = Prefix + "mirror-conditional"
	MirrorDiagonalLast   = Prefix + "mirror-diagonal-last"
	HalfThenMirrorRow    = Prefix + "half-mirror-row"
	HalfThenMirrorColumn = Prefix + "half-mirror-column"
)

// FillFunc writes the full interaction matrix for ai and kijm into aij.
type FillFunc func(ai []float64, kijm, aij *matrix.Square)

// fillStrategy pairs a fill order with the two-pass reduction.
type fillStrategy struct {
	name, desc string
	fill       FillFunc
}

func (s fillStrategy) Name() string        { return s.name }
func (s fillStrategy) Description() string { return s.desc }

func (s fillStrategy) Compute(p amix.Problem, ws *amix.Workspace) float64 {
	s.fill(p.Ai, p.Kijm, ws.Aij)
	return amix.Reduce(p.XY, ws.Aij, ws.SumAi)
}

// Fills maps each fill-order experiment to its FillFunc. Tests use it to
// check the matrix invariants of every order on its own.
var Fills = map[string]FillFunc{
	DiagonalLast:         FillDiagonalLast,
	MirrorConditional:    FillMirrorConditional,
	MirrorDiagonalLast:   FillMirrorDiagonalLast,
	HalfThenMirrorRow:    FillHalfThenMirrorByRow,
	HalfThenMirrorColumn: FillHalfThenMirrorByColumn,
}

var fillDescriptions = map[string]string{
	DiagonalLast:         "Every cell computed, diagonal overwritten afterwards",
	MirrorConditional:    "Single pass copying the lower triangle from the upper one",
	MirrorDiagonalLast:   "Mirrored upper fill, diagonal written after each row",
	HalfThenMirrorRow:    "Upper half first, lower half copied row by row",
	HalfThenMirrorColumn: "Upper half first, mirrored column by column",
}

// Register adds every experimental strategy to f.
func Register(f amix.StrategyFactory) {
	f.Register(UnsafeFused, func() amix.Strategy { return UnsafeFusedStrategy{} })
	f.Register(Accumulate, func() amix.Strategy { return AccumulateStrategy{} })
	for name, fill := range Fills {
		s := fillStrategy{name: name, desc: fillDescriptions[name], fill: fill}
		f.Register(name, func() amix.Strategy { return s })
	}
}

// AccumulateStrategy uses an accumulate-into-sumAi contract:
// the reduction does sumAi[i] += ..., so ws.SumAi must be zeroed (see
// Workspace.Reset) before every call or the result drifts.
type AccumulateStrategy struct{}

func (AccumulateStrategy) Name() string { return Accumulate }

func (AccumulateStrategy) Description() string {
	return "Full fill, reduction accumulating into a pre-zeroed sumAi"
}

func (AccumulateStrategy) Compute(p amix.Problem, ws *amix.Workspace) float64 {
	amix.FillFull(p.Ai, p.Kijm, ws.Aij)

	n := ws.Aij.N()
	xy := p.XY[:n]
	sumAi := ws.SumAi[:n]
	var mix float64
	for i := 0; i < n; i++ {
		for j, v := range ws.Aij.Row(i) {
			sumAi[i] += xy[j] * v
		}
		mix += sumAi[i] * xy[i]
	}
	return mix
}
