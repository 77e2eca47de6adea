package amix

import (
	"math"

	"github.com/agbru/amixbench/internal/matrix"
)

// pairTerm is the corrected geometric mean sqrt(aii·aij)·(1 - k).
func pairTerm(aii, aj, k float64) float64 {
	return math.Sqrt(aii*aj) * (1 - k)
}

// FillFull computes every cell of aij independently, branching on the
// diagonal. It costs n² iterations and n·(n-1) square roots, and it reads
// both triangles of kijm.
func FillFull(ai []float64, kijm, aij *matrix.Square) {
	n := aij.N()
	ai = ai[:n]
	for i := 0; i < n; i++ {
		rowA := aij.Row(i)
		rowK := kijm.Row(i)
		aii := ai[i]
		for j := range rowA {
			if i == j {
				rowA[j] = aii
			} else {
				rowA[j] = pairTerm(aii, ai[j], rowK[j])
			}
		}
	}
}

// FillSymmetric computes the upper triangle once and mirrors each value into
// the lower triangle, setting the diagonal directly from ai. Only kijm[i,j]
// with i < j is read. It needs n·(n-1)/2 square roots, and each mirrored
// write is strided by n.
func FillSymmetric(ai []float64, kijm, aij *matrix.Square) {
	n := aij.N()
	ai = ai[:n]
	data := aij.Data()
	for i := 0; i < n; i++ {
		rowA := aij.Row(i)
		rowK := kijm.Row(i)
		aii := ai[i]
		rowA[i] = aii
		mirror := (i+1)*n + i
		for j := i + 1; j < n; j++ {
			v := pairTerm(aii, ai[j], rowK[j])
			rowA[j] = v
			data[mirror] = v
			mirror += n
		}
	}
}
