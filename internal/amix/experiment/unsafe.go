package experiment

import (
	"math"
	"unsafe"

	"github.com/agbru/amixbench/internal/amix"
)

const word = int(unsafe.Sizeof(float64(0)))

// at returns a pointer to the off-th float64 after base. Offsets are only
// ever formed for elements inside the allocation.
func at(base unsafe.Pointer, off int) *float64 {
	return (*float64)(unsafe.Add(base, off*word))
}

// UnsafeFusedStrategy is the fused symmetric kernel written with raw address
// arithmetic: +1 moves one column right, +n moves one row down. It skips
// every bounds check and is only safe because the caller guarantees that all
// buffers are sized for p.N (use amix.ComputeWith to validate once).
type UnsafeFusedStrategy struct{}

func (UnsafeFusedStrategy) Name() string { return UnsafeFused }

func (UnsafeFusedStrategy) Description() string {
	return "Fused symmetric kernel over raw addresses (no bounds checks)"
}

func (UnsafeFusedStrategy) Compute(p amix.Problem, ws *amix.Workspace) float64 {
	n := p.N
	if n == 0 {
		return 0
	}
	xy := unsafe.Pointer(unsafe.SliceData(p.XY))
	ai := unsafe.Pointer(unsafe.SliceData(p.Ai))
	kijm := unsafe.Pointer(unsafe.SliceData(p.Kijm.Data()))
	aij := unsafe.Pointer(unsafe.SliceData(ws.Aij.Data()))
	sumAi := unsafe.Pointer(unsafe.SliceData(ws.SumAi))

	var mix float64
	dst := 0 // running offset into aij, row-major
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < i; j++ {
			sum += *at(xy, j) * *at(aij, dst)
			dst++
		}

		aii := *at(ai, i)
		*at(aij, dst) = aii
		dst++
		sum += *at(xy, i) * aii

		col := i*n + i
		k := i*n + i
		for j := i + 1; j < n; j++ {
			col += n
			k++
			v := math.Sqrt(aii**at(ai, j)) * (1 - *at(kijm, k))
			*at(aij, dst) = v
			*at(aij, col) = v
			sum += *at(xy, j) * v
			dst++
		}

		*at(sumAi, i) = sum
		mix += sum * *at(xy, i)
	}
	return mix
}
