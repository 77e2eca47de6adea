// Package matrix provides the square, row-major float64 storage used by the
// mixing-rule kernel. Elements live in one contiguous slice so that a row is a
// plain sub-slice and the whole matrix can be walked as a linear sequence.
package matrix

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrNegativeSize is returned when a matrix is requested with n < 0.
	ErrNegativeSize = errors.New("matrix: size must be >= 0")

	// ErrOutOfRange indicates a row or column index outside [0, n).
	ErrOutOfRange = errors.New("matrix: index out of range")

	// ErrNonSquare signals ragged or rectangular input where n×n was required.
	ErrNonSquare = errors.New("matrix: matrix is not square")
)

// Square is an n×n matrix of float64 values stored in row-major order.
// The zero value is a valid empty (0×0) matrix.
type Square struct {
	n    int
	data []float64 // len == n*n
}

// NewSquare allocates an n×n matrix initialized to zeros.
// n == 0 yields an empty matrix.
func NewSquare(n int) (*Square, error) {
	if n < 0 {
		return nil, fmt.Errorf("NewSquare(%d): %w", n, ErrNegativeSize)
	}
	return &Square{n: n, data: make([]float64, n*n)}, nil
}

// MustSquare is like NewSquare but panics on a negative size.
// Intended for tests and for sizes that were already validated.
func MustSquare(n int) *Square {
	m, err := NewSquare(n)
	if err != nil {
		panic(err)
	}
	return m
}

// FromRows copies a slice of rows into a new Square.
// Every row must have exactly len(rows) elements.
func FromRows(rows [][]float64) (*Square, error) {
	n := len(rows)
	m := &Square{n: n, data: make([]float64, n*n)}
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("FromRows: row %d has %d columns, want %d: %w", i, len(row), n, ErrNonSquare)
		}
		copy(m.data[i*n:(i+1)*n], row)
	}
	return m, nil
}

// N returns the dimension of the matrix.
func (m *Square) N() int { return m.n }

// Data exposes the backing slice (length n*n, row-major).
// Writes through it are visible in the matrix.
func (m *Square) Data() []float64 { return m.data }

// Row returns the window data[i*n:(i+1)*n]. The window aliases the matrix.
func (m *Square) Row(i int) []float64 {
	return m.data[i*m.n : (i+1)*m.n : (i+1)*m.n]
}

// At returns the element at (i, j). Both indices are checked explicitly and
// an out-of-range access panics with an error wrapping ErrOutOfRange.
func (m *Square) At(i, j int) float64 {
	return m.data[m.offset(i, j)]
}

// Set assigns v at (i, j) with the same checks as At.
func (m *Square) Set(i, j int, v float64) {
	m.data[m.offset(i, j)] = v
}

func (m *Square) offset(i, j int) int {
	if uint(i) >= uint(m.n) || uint(j) >= uint(m.n) {
		panic(fmt.Errorf("Square.At(%d,%d) on %dx%d: %w", i, j, m.n, m.n, ErrOutOfRange))
	}
	return i*m.n + j
}

// Zero overwrites every element with 0.
func (m *Square) Zero() {
	clear(m.data)
}

// Clone returns a deep copy.
func (m *Square) Clone() *Square {
	data := make([]float64, len(m.data))
	copy(data, m.data)
	return &Square{n: m.n, data: data}
}

// IsSymmetric reports whether |m[i,j] - m[j,i]| <= eps for every i < j.
// With eps == 0 the comparison is exact.
func (m *Square) IsSymmetric(eps float64) bool {
	n := m.n
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.Abs(m.data[i*n+j]-m.data[j*n+i]) > eps {
				return false
			}
		}
	}
	return true
}

// Symmetrize replaces every off-diagonal pair with its average, in place.
// The diagonal is left untouched.
func (m *Square) Symmetrize() {
	n := m.n
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			avg := (m.data[i*n+j] + m.data[j*n+i]) / 2
			m.data[i*n+j] = avg
			m.data[j*n+i] = avg
		}
	}
}

// String implements fmt.Stringer for debugging.
func (m *Square) String() string {
	var sb strings.Builder
	for i := 0; i < m.n; i++ {
		sb.WriteByte('[')
		for j, v := range m.Row(i) {
			if j > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%g", v)
		}
		sb.WriteString("]\n")
	}
	return sb.String()
}
