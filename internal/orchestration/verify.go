package orchestration

import (
	"context"
	"fmt"
	"io"
	"math"
	"runtime"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/agbru/amixbench/internal/amix"
	apperrors "github.com/agbru/amixbench/internal/errors"
	"github.com/agbru/amixbench/internal/ui"
	"github.com/agbru/amixbench/internal/workload"
	"github.com/agbru/amixbench/pkg/report"
)

// Deviation is how far one strategy landed from the reference.
type Deviation struct {
	Strategy string
	Amix     float64
	// AmixDiff is the relative difference of amix to the reference.
	AmixDiff float64
	// SumAiDiff is the largest relative difference over the row sums.
	SumAiDiff float64
	Err       error
}

// VerifyResult is the verification of every strategy at one size.
type VerifyResult struct {
	N          int
	Reference  float64
	Deviations []Deviation
}

// Worst returns the largest amix or sumAi deviation among the successful
// strategies. NaN deviations are returned as NaN.
func (v VerifyResult) Worst() float64 {
	worst := 0.0
	for _, d := range v.Deviations {
		if d.Err != nil {
			continue
		}
		for _, x := range []float64{d.AmixDiff, d.SumAiDiff} {
			if math.IsNaN(x) {
				return math.NaN()
			}
			worst = math.Max(worst, x)
		}
	}
	return worst
}

// ToSizeReport converts v into its JSON form. Timings are left at zero.
func (v VerifyResult) ToSizeReport(tolerance float64) report.SizeReport {
	ref := v.Reference
	worst := v.Worst()
	sr := report.SizeReport{
		N:          v.N,
		Reference:  &ref,
		Consistent: worst <= tolerance,
		Spread:     worst,
		Results:    make([]report.StrategyResult, 0, len(v.Deviations)),
	}
	for _, d := range v.Deviations {
		r := report.StrategyResult{Strategy: d.Strategy, Amix: d.Amix}
		if d.Err != nil {
			r.Error = d.Err.Error()
		}
		sr.Results = append(sr.Results, r)
	}
	return sr
}

// VerifySweep checks every strategy against the big.Float reference, one
// size per goroutine with at most runtime.NumCPU() running at once. Each
// goroutine owns its inputs and workspaces; strategies hold no state and
// are shared.
//
// Parameters:
//   - ctx: Cancellation, checked before each size and each strategy.
//   - strategies: The strategies to verify.
//   - sizes: The problem sizes.
//   - seed: The input generator seed, the same for every size.
//   - logger: Diagnostics.
//
// Returns:
//   - []VerifyResult: One result per size, in the order of sizes.
//   - error: The context error or an input-generation error.
func VerifySweep(ctx context.Context, strategies []amix.Strategy, sizes []int, seed int64, logger zerolog.Logger) ([]VerifyResult, error) {
	results := make([]VerifyResult, len(sizes))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, n := range sizes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := workload.NewProblem(n, seed)
			if err != nil {
				return apperrors.WrapError(err, "generating inputs for n=%d", n)
			}
			ref, refSums := amix.ReferenceSums(p)
			res := VerifyResult{N: n, Reference: ref, Deviations: make([]Deviation, 0, len(strategies))}
			ws, err := amix.NewWorkspace(n)
			if err != nil {
				return err
			}

			for _, s := range strategies {
				if err := ctx.Err(); err != nil {
					return err
				}
				ws.Reset()
				value, err := amix.ComputeWith(s, p, ws)
				if err != nil {
					res.Deviations = append(res.Deviations, Deviation{
						Strategy: s.Name(),
						Err:      apperrors.KernelError{Strategy: s.Name(), N: n, Cause: err},
					})
					continue
				}
				d := Deviation{Strategy: s.Name(), Amix: value, AmixDiff: RelativeDiff(value, ref)}
				for k, sum := range ws.SumAi {
					d.SumAiDiff = math.Max(d.SumAiDiff, RelativeDiff(sum, refSums[k]))
					if math.IsNaN(sum) || math.IsNaN(refSums[k]) {
						d.SumAiDiff = math.NaN()
						break
					}
				}
				res.Deviations = append(res.Deviations, d)
			}
			logger.Debug().Int("n", n).Float64("reference", ref).Float64("worst", res.Worst()).Msg("size verified")
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// AnalyzeVerifyResults prints one table per size. It returns a
// MismatchError for the first size with a deviation beyond tolerance,
// otherwise the first kernel error, otherwise nil.
func AnalyzeVerifyResults(results []VerifyResult, tolerance float64, out io.Writer) error {
	var firstErr, mismatch error
	for _, res := range results {
		fmt.Fprintf(out, "\n--- Verification (n=%d, reference %.17g) ---\n", res.N, res.Reference)
		tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintf(tw, "%sStrategy%s\t%samix%s\t%sΔamix%s\t%sΔsumAi%s\t%sStatus%s\n",
			ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
			ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
			ui.ColorUnderline(), ui.ColorReset())
		var failed []string
		for _, d := range res.Deviations {
			if d.Err != nil {
				if firstErr == nil {
					firstErr = d.Err
				}
				fmt.Fprintf(tw, "%s\t-\t-\t-\t%s❌ Failure (%v)%s\n", d.Strategy, ui.ColorRed(), d.Err, ui.ColorReset())
				continue
			}
			status := fmt.Sprintf("%s✅ OK%s", ui.ColorGreen(), ui.ColorReset())
			if !(d.AmixDiff <= tolerance && d.SumAiDiff <= tolerance) {
				status = fmt.Sprintf("%s❌ Deviates%s", ui.ColorRed(), ui.ColorReset())
				failed = append(failed, d.Strategy)
			}
			fmt.Fprintf(tw, "%s\t%.17g\t%.2e\t%.2e\t%s\n", d.Strategy, d.Amix, d.AmixDiff, d.SumAiDiff, status)
		}
		if err := tw.Flush(); err != nil {
			fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
		}
		if len(failed) > 0 && mismatch == nil {
			mismatch = apperrors.MismatchError{N: res.N, Strategies: failed, Spread: res.Worst(), Tolerance: tolerance}
		}
	}
	switch {
	case mismatch != nil:
		fmt.Fprintf(out, "\nGlobal Status: CRITICAL ERROR! Some strategies deviate from the reference beyond %g.\n", tolerance)
		return mismatch
	case firstErr != nil:
		fmt.Fprintf(out, "\nGlobal Status: Failure. Some strategies could not run.\n")
		return firstErr
	}
	fmt.Fprintf(out, "\nGlobal Status: Success. Every strategy matches the reference within %g.\n", tolerance)
	return nil
}
