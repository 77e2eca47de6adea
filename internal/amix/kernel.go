package amix

import (
	"fmt"
	"math"
	"math/big"
)

// Compute validates buffer sizes and runs the canonical fused kernel.
//
// Postconditions on success: ws.Aij holds the full symmetric interaction
// matrix, ws.SumAi[i] holds row i's weighted sum, and the returned value is
// amix. SumAi is overwritten, so it need not be zeroed beforehand.
//
// Parameters:
//   - p: The inputs (n, XY, ai, kijm).
//   - ws: The scratch buffers, sized for p.N.
//
// Returns:
//   - float64: amix.
//   - error: A size error from Validate; no partial result is produced.
func Compute(p Problem, ws *Workspace) (float64, error) {
	return ComputeWith(FusedStrategy{}, p, ws)
}

// ComputeWith validates buffer sizes and runs the given strategy.
func ComputeWith(s Strategy, p Problem, ws *Workspace) (float64, error) {
	if err := Validate(p, ws); err != nil {
		return 0, fmt.Errorf("%s: %w", s.Name(), err)
	}
	return s.Compute(p, ws), nil
}

// ReferencePrecision is the mantissa size, in bits, of the oracle.
const ReferencePrecision = 256

// Reference computes amix with math/big floats at ReferencePrecision bits,
// reading kijm exactly as the full fill does. It is an oracle for tests and
// verification, orders of magnitude slower than any strategy. It returns NaN
// when an input is NaN or ±Inf, or when some ai is negative, since the
// geometric mean is then undefined.
func Reference(p Problem) float64 {
	amix, _ := ReferenceSums(p)
	return amix
}

// ReferenceSums is Reference that also returns the row sums
// sumAi[i] = Σ_j XY[j]·Aij[i,j], each rounded to float64 once. On a domain
// error every value is NaN.
func ReferenceSums(p Problem) (float64, []float64) {
	n := p.N
	sums := make([]float64, n)
	if !referenceDomainOK(p) {
		for i := range sums {
			sums[i] = math.NaN()
		}
		return math.NaN(), sums
	}
	newF := func(v float64) *big.Float {
		return new(big.Float).SetPrec(ReferencePrecision).SetFloat64(v)
	}
	one := newF(1)

	amix := newF(0)
	for i := 0; i < n; i++ {
		sum := newF(0)
		for j := 0; j < n; j++ {
			var term *big.Float
			if i == j {
				term = newF(p.Ai[i])
			} else {
				prod := newF(p.Ai[i])
				prod.Mul(prod, newF(p.Ai[j]))
				term = new(big.Float).SetPrec(ReferencePrecision).Sqrt(prod)
				term.Mul(term, new(big.Float).SetPrec(ReferencePrecision).Sub(one, newF(p.Kijm.At(i, j))))
			}
			term.Mul(term, newF(p.XY[j]))
			sum.Add(sum, term)
		}
		sums[i], _ = sum.Float64()
		sum.Mul(sum, newF(p.XY[i]))
		amix.Add(amix, sum)
	}
	f, _ := amix.Float64()
	return f, sums
}

func referenceDomainOK(p Problem) bool {
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	for i := 0; i < p.N; i++ {
		if !finite(p.XY[i]) || !finite(p.Ai[i]) || p.Ai[i] < 0 {
			return false
		}
	}
	for _, v := range p.Kijm.Data() {
		if !finite(v) {
			return false
		}
	}
	return true
}
