package amix

import "github.com/agbru/amixbench/internal/matrix"

// Reduce contracts a fully populated aij against xy. It overwrites
// sumAi[i] with Σ_j xy[j]·aij[i,j] and returns Σ_i xy[i]·sumAi[i].
//
// Parameters:
//   - xy: The weight vector, length n.
//   - aij: The filled interaction matrix.
//   - sumAi: Scratch for the row sums, length n.
//
// Returns:
//   - float64: The mixing value amix.
func Reduce(xy []float64, aij *matrix.Square, sumAi []float64) float64 {
	n := aij.N()
	xy = xy[:n]
	sumAi = sumAi[:n]
	var amix float64
	for i := 0; i < n; i++ {
		sum := dot(xy, aij.Row(i))
		sumAi[i] = sum
		amix += sum * xy[i]
	}
	return amix
}

// ReduceFused fills aij with the symmetric strategy and reduces it in the
// same traversal, so the matrix is never read back in a second pass.
//
// Row i's sum is built from three parts:
//   - the lower entries aij[i, j<i], already written by earlier rows' mirroring;
//   - the diagonal xy[i]·ai[i];
//   - the new upper entries j > i, each written to aij[i,j] and aij[j,i]
//     and added to the running sum.
func ReduceFused(xy, ai []float64, kijm, aij *matrix.Square, sumAi []float64) float64 {
	n := aij.N()
	xy = xy[:n]
	ai = ai[:n]
	sumAi = sumAi[:n]
	data := aij.Data()

	var amix float64
	for i := 0; i < n; i++ {
		rowA := aij.Row(i)
		rowK := kijm.Row(i)

		sum := dot(xy[:i], rowA[:i])

		aii := ai[i]
		rowA[i] = aii
		sum += xy[i] * aii

		mirror := (i+1)*n + i
		for j := i + 1; j < n; j++ {
			v := pairTerm(aii, ai[j], rowK[j])
			rowA[j] = v
			data[mirror] = v
			sum += xy[j] * v
			mirror += n
		}

		sumAi[i] = sum
		amix += sum * xy[i]
	}
	return amix
}

// dot returns Σ a[k]·b[k] over len(a); b must be at least as long.
func dot(a, b []float64) float64 {
	b = b[:len(a)]
	var s float64
	for k, v := range a {
		s += v * b[k]
	}
	return s
}
