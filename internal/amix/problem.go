// Package amix computes the quadratic mixing rule
//
//	amix = Σ_i Σ_j XY[i]·XY[j]·Aij[i,j]
//
// where Aij[i,i] = ai[i] and Aij[i,j] = sqrt(ai[i]·ai[j])·(1 - kijm[i,j]).
//
// The package offers several interchangeable strategies that differ only in
// how the interaction matrix is filled (every cell vs. upper triangle plus
// mirror) and whether the reduction is a second pass or fused with the fill.
// All strategies agree within floating-point reduction-order tolerance.
package amix

import (
	"errors"
	"fmt"

	"github.com/agbru/amixbench/internal/matrix"
)

var (
	// ErrNegativeDimension is returned when Problem.N < 0.
	ErrNegativeDimension = errors.New("amix: dimension must be >= 0")

	// ErrLengthMismatch is returned when an input or scratch buffer is not
	// sized consistently with Problem.N.
	ErrLengthMismatch = errors.New("amix: buffer length does not match dimension")

	// ErrNilMatrix is returned when Kijm or the workspace matrix is nil.
	ErrNilMatrix = errors.New("amix: nil matrix")

	// ErrAsymmetricInteraction is returned by ValidateSymmetric when
	// kijm[i,j] and kijm[j,i] differ by more than the allowed epsilon.
	ErrAsymmetricInteraction = errors.New("amix: interaction matrix kijm is not symmetric")
)

// Problem holds the read-only inputs of one kernel invocation.
type Problem struct {
	// N is the number of components.
	N int
	// XY is the weight (composition) vector, length N.
	XY []float64
	// Ai holds the per-component self coefficients, length N.
	Ai []float64
	// Kijm is the N×N binary-interaction correction matrix. Only the
	// off-diagonal entries are read; symmetric strategies read only i < j.
	Kijm *matrix.Square
}

// NewProblem allocates zeroed input buffers for n components.
func NewProblem(n int) (Problem, error) {
	if n < 0 {
		return Problem{}, fmt.Errorf("NewProblem(%d): %w", n, ErrNegativeDimension)
	}
	return Problem{
		N:    n,
		XY:   make([]float64, n),
		Ai:   make([]float64, n),
		Kijm: matrix.MustSquare(n),
	}, nil
}

// Workspace is the caller-owned scratch space a kernel writes into. It is
// allocated once and reused; every invocation overwrites Aij completely.
type Workspace struct {
	// Aij receives the full symmetric interaction matrix.
	Aij *matrix.Square
	// SumAi receives the row sums Σ_j XY[j]·Aij[i,j].
	SumAi []float64
}

// NewWorkspace allocates scratch buffers for n components.
func NewWorkspace(n int) (*Workspace, error) {
	aij, err := matrix.NewSquare(n)
	if err != nil {
		return nil, fmt.Errorf("NewWorkspace(%d): %w", n, ErrNegativeDimension)
	}
	return &Workspace{Aij: aij, SumAi: make([]float64, n)}, nil
}

// Reset zeroes SumAi. The built-in strategies overwrite SumAi and do not
// need it, but accumulating variants do.
func (ws *Workspace) Reset() {
	clear(ws.SumAi)
}

// Validate checks that every buffer in p and ws is sized for p.N.
// It is O(1) and leaves the values themselves unchecked.
//
// Parameters:
//   - p: The kernel inputs.
//   - ws: The scratch buffers.
//
// Returns:
//   - error: nil, or an error wrapping ErrNegativeDimension,
//     ErrNilMatrix or ErrLengthMismatch.
func Validate(p Problem, ws *Workspace) error {
	if p.N < 0 {
		return fmt.Errorf("n=%d: %w", p.N, ErrNegativeDimension)
	}
	if p.Kijm == nil {
		return fmt.Errorf("kijm: %w", ErrNilMatrix)
	}
	if ws == nil || ws.Aij == nil {
		return fmt.Errorf("aij: %w", ErrNilMatrix)
	}
	checks := []struct {
		name string
		got  int
	}{
		{"xy", len(p.XY)},
		{"ai", len(p.Ai)},
		{"kijm", p.Kijm.N()},
		{"aij", ws.Aij.N()},
		{"sumAi", len(ws.SumAi)},
	}
	for _, c := range checks {
		if c.got != p.N {
			return fmt.Errorf("%s has size %d, want %d: %w", c.name, c.got, p.N, ErrLengthMismatch)
		}
	}
	return nil
}

// ValidateSymmetric reports ErrAsymmetricInteraction if kijm is not
// symmetric within eps. The fast paths read only the upper triangle of kijm,
// so an asymmetric table would make strategies disagree. This check is O(n²)
// and belongs at input-preparation time, not on every kernel call.
func ValidateSymmetric(kijm *matrix.Square, eps float64) error {
	if kijm == nil {
		return fmt.Errorf("kijm: %w", ErrNilMatrix)
	}
	if !kijm.IsSymmetric(eps) {
		return fmt.Errorf("eps=%g: %w", eps, ErrAsymmetricInteraction)
	}
	return nil
}
