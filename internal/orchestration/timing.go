package orchestration

import (
	"context"
	"time"

	"github.com/agbru/amixbench/internal/amix"
)

// MaxBatches is the number of timed batches a run of iterations is split
// into. Min is taken over batch averages, which smooths timer resolution
// at small n.
const MaxBatches = 10

// Timing summarizes the timed invocations of one strategy.
type Timing struct {
	// Iterations is the number of timed invocations.
	Iterations int
	// Total is the wall time of all timed invocations.
	Total time.Duration
	// Min is the fastest per-invocation time among the batches.
	Min time.Duration
	// Mean is Total divided by Iterations.
	Mean time.Duration
}

// Measure runs s once untimed through amix.ComputeWith, so size errors are
// reported before any timing, then times iterations further invocations.
// The workspace is reset before every invocation. ctx is checked between
// batches only.
//
// Parameters:
//   - ctx: Cancellation between batches.
//   - s: The strategy to time.
//   - p: The inputs.
//   - ws: Scratch buffers sized for p.N.
//   - iterations: The number of timed invocations; values < 1 mean 1.
//
// Returns:
//   - float64: amix from the last invocation.
//   - Timing: The measurements.
//   - error: A kernel size error or the context error.
func Measure(ctx context.Context, s amix.Strategy, p amix.Problem, ws *amix.Workspace, iterations int) (float64, Timing, error) {
	ws.Reset()
	result, err := amix.ComputeWith(s, p, ws)
	if err != nil {
		return 0, Timing{}, err
	}
	iterations = max(iterations, 1)
	batches := min(MaxBatches, iterations)

	t := Timing{Iterations: iterations}
	remaining := iterations
	for b := 0; b < batches; b++ {
		if err := ctx.Err(); err != nil {
			return result, t, err
		}
		size := remaining / (batches - b)
		remaining -= size

		start := time.Now()
		for i := 0; i < size; i++ {
			ws.Reset()
			result = s.Compute(p, ws)
		}
		elapsed := time.Since(start)

		t.Total += elapsed
		perCall := elapsed / time.Duration(size)
		if b == 0 || perCall < t.Min {
			t.Min = perCall
		}
	}
	t.Mean = t.Total / time.Duration(iterations)
	return result, t, nil
}
