package experiment

import (
	"math"

	"github.com/agbru/amixbench/internal/matrix"
)

// FillDiagonalLast computes every cell, including a throwaway value on the
// diagonal, then overwrites the diagonal. No branch in the inner loop.
func FillDiagonalLast(ai []float64, kijm, aij *matrix.Square) {
	n := aij.N()
	for i := 0; i < n; i++ {
		rowA, rowK := aij.Row(i), kijm.Row(i)
		aii := ai[i]
		for j := range rowA {
			rowA[j] = math.Sqrt(aii*ai[j]) * (1 - rowK[j])
		}
		rowA[i] = aii
	}
}

// FillMirrorConditional walks every cell once; cells below the diagonal are
// copied from the upper triangle computed by an earlier row.
func FillMirrorConditional(ai []float64, kijm, aij *matrix.Square) {
	n := aij.N()
	data := aij.Data()
	for i := 0; i < n; i++ {
		rowA, rowK := aij.Row(i), kijm.Row(i)
		aii := ai[i]
		for j := range rowA {
			if i > j {
				rowA[j] = data[j*n+i]
			} else {
				rowA[j] = math.Sqrt(aii*ai[j]) * (1 - rowK[j])
			}
		}
		rowA[i] = aii
	}
}

// FillMirrorDiagonalLast is the symmetric fill with the diagonal written
// after the row's upper part.
func FillMirrorDiagonalLast(ai []float64, kijm, aij *matrix.Square) {
	n := aij.N()
	data := aij.Data()
	for i := 0; i < n; i++ {
		rowA, rowK := aij.Row(i), kijm.Row(i)
		aii := ai[i]
		for j := i + 1; j < n; j++ {
			v := math.Sqrt(aii*ai[j]) * (1 - rowK[j])
			rowA[j] = v
			data[j*n+i] = v
		}
		rowA[i] = aii
	}
}

// fillUpper writes the diagonal and the strict upper triangle only.
func fillUpper(ai []float64, kijm, aij *matrix.Square) {
	n := aij.N()
	for i := 0; i < n; i++ {
		rowA, rowK := aij.Row(i), kijm.Row(i)
		aii := ai[i]
		rowA[i] = aii
		for j := i + 1; j < n; j++ {
			rowA[j] = math.Sqrt(aii*ai[j]) * (1 - rowK[j])
		}
	}
}

// FillHalfThenMirrorByRow fills the upper half, then a second pass fills
// each row's lower part by reading down the corresponding column.
func FillHalfThenMirrorByRow(ai []float64, kijm, aij *matrix.Square) {
	fillUpper(ai, kijm, aij)
	n := aij.N()
	data := aij.Data()
	for i := 1; i < n; i++ {
		rowA := aij.Row(i)
		for j := 0; j < i; j++ {
			rowA[j] = data[j*n+i]
		}
	}
}

// FillHalfThenMirrorByColumn fills the upper half, then a second pass
// scatters each row's upper part down the matching column.
func FillHalfThenMirrorByColumn(ai []float64, kijm, aij *matrix.Square) {
	fillUpper(ai, kijm, aij)
	n := aij.N()
	data := aij.Data()
	for i := 0; i < n; i++ {
		rowA := aij.Row(i)
		for j := i + 1; j < n; j++ {
			data[j*n+i] = rowA[j]
		}
	}
}
