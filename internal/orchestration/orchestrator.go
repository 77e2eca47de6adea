// Package orchestration runs the selected amix strategies on generated
// inputs, times them and cross-checks their results.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"sort"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/agbru/amixbench/internal/amix"
	"github.com/agbru/amixbench/internal/cli"
	apperrors "github.com/agbru/amixbench/internal/errors"
	"github.com/agbru/amixbench/internal/metrics"
	"github.com/agbru/amixbench/internal/ui"
	"github.com/agbru/amixbench/internal/workload"
	"github.com/agbru/amixbench/pkg/report"
)

// ReferenceMaxN is the largest size for which a benchmark run also
// computes the big.Float reference. Above it the O(n²) big-number loop
// dominates the run.
const ReferenceMaxN = 256

// SymmetryEpsilon bounds |kijm[i,j]-kijm[j,i]| for generated inputs.
const SymmetryEpsilon = 0.0

// ProgressBufferMultiplier sizes the progress channel relative to the
// number of expected updates.
const ProgressBufferMultiplier = 2

// StrategyResult is the outcome of timing one strategy at one size.
type StrategyResult struct {
	// Name is the strategy key.
	Name string
	// Amix is the result of the last invocation.
	Amix float64
	// SumAi is a copy of the row sums left by the last invocation.
	SumAi []float64
	// Timing holds the measurements. It is zero when Err is set.
	Timing Timing
	// Err is the kernel error, if any.
	Err error
}

// SizeResult groups the strategy results for one problem size.
type SizeResult struct {
	N       int
	Results []StrategyResult
	// Reference is the big.Float amix, valid when HasReference is set.
	Reference    float64
	HasReference bool
}

// Options controls ExecuteStrategies.
type Options struct {
	// Iterations is the number of timed invocations per strategy.
	Iterations int
	// Seed seeds the input generator.
	Seed int64
	// Reference requests the big.Float reference (only for n <= ReferenceMaxN).
	Reference bool
	// Recorder receives metrics; nil disables them.
	Recorder *metrics.Recorder
	// Logger receives diagnostics.
	Logger zerolog.Logger
}

// ExecuteStrategies generates the inputs of size n and times each strategy
// on them in turn, on its own workspace. Runs are sequential so timings do
// not interfere. One update per strategy is sent on progress if it is not
// nil.
//
// Parameters:
//   - ctx: Cancellation, checked between timed batches.
//   - strategies: The strategies to run.
//   - n: The problem size.
//   - opts: Iterations, seed, reference and instrumentation.
//   - progress: Optional progress sink.
//
// Returns:
//   - SizeResult: One result per strategy, in the given order.
//   - error: An input-generation error or the context error. Kernel errors
//     are reported per strategy instead.
func ExecuteStrategies(ctx context.Context, strategies []amix.Strategy, n int, opts Options, progress chan<- cli.ProgressUpdate) (SizeResult, error) {
	res := SizeResult{N: n, Results: make([]StrategyResult, 0, len(strategies))}
	p, err := workload.NewProblem(n, opts.Seed)
	if err != nil {
		return res, apperrors.WrapError(err, "generating inputs for n=%d", n)
	}
	if err := amix.ValidateSymmetric(p.Kijm, SymmetryEpsilon); err != nil {
		return res, apperrors.NewValidationError("kijm", err.Error(), n)
	}

	ws, err := amix.NewWorkspace(n)
	if err != nil {
		return res, err
	}
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		value, timing, err := Measure(ctx, s, p, ws, opts.Iterations)
		if apperrors.IsContextError(err) {
			return res, err
		}
		r := StrategyResult{Name: s.Name(), Amix: value, Timing: timing}
		if err != nil {
			r = StrategyResult{Name: s.Name(), Err: apperrors.KernelError{Strategy: s.Name(), N: n, Cause: err}}
			opts.Logger.Error().Err(err).Str("strategy", s.Name()).Int("n", n).Msg("kernel failed")
		} else {
			r.SumAi = slices.Clone(ws.SumAi)
			opts.Logger.Debug().Str("strategy", s.Name()).Int("n", n).
				Dur("mean", timing.Mean).Dur("min", timing.Min).Float64("amix", value).Msg("strategy timed")
			if opts.Recorder != nil {
				opts.Recorder.Observe(s.Name(), n, timing.Iterations, timing.Total, value)
			}
		}
		res.Results = append(res.Results, r)
		if progress != nil {
			progress <- cli.ProgressUpdate{Strategy: s.Name(), N: n}
		}
	}

	if opts.Reference && n <= ReferenceMaxN {
		res.Reference = amix.Reference(p)
		res.HasReference = true
	}
	return res, nil
}

// RelativeDiff returns |a-b| / max(|a|, |b|), and 0 when a == b.
func RelativeDiff(a, b float64) float64 {
	if a == b {
		return 0
	}
	return math.Abs(a-b) / math.Max(math.Abs(a), math.Abs(b))
}

// Spread returns the largest pairwise RelativeDiff among the successful
// results, which is the difference between the extremes. NaN results make
// the spread NaN.
func Spread(results []StrategyResult) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	seen := false
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		if math.IsNaN(r.Amix) {
			return math.NaN()
		}
		seen = true
		lo, hi = math.Min(lo, r.Amix), math.Max(hi, r.Amix)
	}
	if !seen {
		return 0
	}
	return RelativeDiff(lo, hi)
}

// Consistent reports whether the successful results agree within
// tolerance, and with the reference when there is one.
func (s SizeResult) Consistent(tolerance float64) bool {
	if !(Spread(s.Results) <= tolerance) {
		return false
	}
	if !s.HasReference {
		return true
	}
	for _, r := range s.Results {
		if r.Err == nil && !(RelativeDiff(r.Amix, s.Reference) <= tolerance) {
			return false
		}
	}
	return true
}

// AnalyzeComparisonResults sorts the results of one size by mean time and
// prints them as a table followed by a global status line.
//
// Parameters:
//   - res: The results of one size. Results are sorted in place.
//   - tolerance: The relative agreement bound.
//   - out: The io.Writer for the summary.
//
// Returns:
//   - error: The result of res.Check.
func AnalyzeComparisonResults(res SizeResult, tolerance float64, out io.Writer) error {
	sort.SliceStable(res.Results, func(i, j int) bool {
		a, b := res.Results[i], res.Results[j]
		if (a.Err == nil) != (b.Err == nil) {
			return a.Err == nil
		}
		return a.Timing.Mean < b.Timing.Mean
	})

	fmt.Fprintf(out, "\n--- Comparison Summary (n=%d) ---\n", res.N)
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sStrategy%s\t%sMean%s\t%sMin%s\t%samix%s\t%sStatus%s\n",
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset())

	successCount := 0
	for _, r := range res.Results {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s%s%s\t-\t-\t-\t%s❌ Failure (%v)%s\n",
				ui.ColorBlue(), r.Name, ui.ColorReset(), ui.ColorRed(), r.Err, ui.ColorReset())
			continue
		}
		successCount++
		fmt.Fprintf(tw, "%s%s%s\t%s%s%s\t%s\t%.17g\t%s✅ Success%s\n",
			ui.ColorBlue(), r.Name, ui.ColorReset(),
			ui.ColorYellow(), cli.FormatNanos(float64(r.Timing.Mean.Nanoseconds())), ui.ColorReset(),
			cli.FormatNanos(float64(r.Timing.Min.Nanoseconds())),
			r.Amix, ui.ColorGreen(), ui.ColorReset())
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}
	if res.HasReference {
		fmt.Fprintf(out, "Reference (big.Float, %d bits): %.17g\n", amix.ReferencePrecision, res.Reference)
	}

	err := res.Check(tolerance)
	var mm apperrors.MismatchError
	switch {
	case successCount == 0:
		fmt.Fprintf(out, "\nGlobal Status: Failure. No strategy could complete the calculation.\n")
	case errors.As(err, &mm):
		fmt.Fprintf(out, "\nGlobal Status: CRITICAL ERROR! Results disagree beyond the tolerance %g.\n", tolerance)
	default:
		fmt.Fprintf(out, "\nGlobal Status: Success. All valid results agree within %g.\n", tolerance)
	}
	return err
}

// Check returns the first kernel error when no strategy succeeded, a
// MismatchError when the successful results are not Consistent, and nil
// otherwise.
func (s SizeResult) Check(tolerance float64) error {
	success := false
	var firstError error
	for _, r := range s.Results {
		if r.Err == nil {
			success = true
		} else if firstError == nil {
			firstError = r.Err
		}
	}
	if !success {
		return firstError
	}
	if s.Consistent(tolerance) {
		return nil
	}
	names := make([]string, 0, len(s.Results))
	spread := Spread(s.Results)
	for _, r := range s.Results {
		if r.Err != nil {
			continue
		}
		names = append(names, r.Name)
		if s.HasReference {
			if d := RelativeDiff(r.Amix, s.Reference); d > spread || math.IsNaN(d) {
				spread = d
			}
		}
	}
	return apperrors.MismatchError{N: s.N, Strategies: names, Spread: spread, Tolerance: tolerance}
}

// ToSizeReport converts res into its JSON form. SumAi is taken from the
// first successful result when withSums is set.
func ToSizeReport(res SizeResult, tolerance float64, withSums bool) report.SizeReport {
	sr := report.SizeReport{
		N:          res.N,
		Consistent: res.Consistent(tolerance),
		Spread:     Spread(res.Results),
		Results:    make([]report.StrategyResult, 0, len(res.Results)),
	}
	if res.HasReference {
		ref := res.Reference
		sr.Reference = &ref
	}
	for _, r := range res.Results {
		out := report.StrategyResult{Strategy: r.Name}
		if r.Err != nil {
			out.Error = r.Err.Error()
		} else {
			out.Amix = r.Amix
			out.MinNs = float64(r.Timing.Min.Nanoseconds())
			out.MeanNs = float64(r.Timing.Total.Nanoseconds()) / float64(max(r.Timing.Iterations, 1))
			if withSums && sr.SumAi == nil {
				sr.SumAi = r.SumAi
			}
		}
		sr.Results = append(sr.Results, out)
	}
	return sr
}
