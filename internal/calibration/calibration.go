package calibration

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agbru/amixbench/internal/amix"
	"github.com/agbru/amixbench/internal/cli"
	"github.com/agbru/amixbench/internal/orchestration"
	"github.com/agbru/amixbench/internal/ui"
)

// Options configures a calibration run.
type Options struct {
	// Sizes are the problem sizes to calibrate.
	Sizes []int
	// Iterations is the number of timed invocations per strategy and size.
	Iterations int
	// Seed seeds the input generator.
	Seed int64
	// ProfilePath is where the profile is saved; empty means the default.
	ProfilePath string
	// SaveProfile writes the profile when calibration completes.
	SaveProfile bool
	// Logger receives diagnostics.
	Logger zerolog.Logger
}

// RunCalibration times every strategy at every size, keeps the fastest
// successful one per size and saves the choices to the profile. Sizes
// already present in a valid profile at the same path are replaced, others
// are kept.
//
// Parameters:
//   - ctx: Cancellation between timed batches.
//   - out: Where progress and the summary tables are written.
//   - strategies: The candidate strategies.
//   - opts: Sizes, iterations, seed and profile location.
//
// Returns:
//   - *CalibrationProfile: The updated profile.
//   - error: The context error, an input error or a save error.
func RunCalibration(ctx context.Context, out io.Writer, strategies []amix.Strategy, opts Options) (*CalibrationProfile, error) {
	fmt.Fprintf(out, "--- Calibration Mode: Finding the Fastest Strategy per Size ---\n")
	profile, loaded := LoadOrCreateProfile(opts.ProfilePath)
	if loaded {
		opts.Logger.Info().Str("profile", profile.String()).Msg("updating existing calibration profile")
	}

	start := time.Now()
	total := len(opts.Sizes) * len(strategies)
	progressChan := make(chan cli.ProgressUpdate, total)
	var wg sync.WaitGroup
	wg.Add(1)
	go cli.DisplayProgress(&wg, progressChan, total, out)

	runOpts := orchestration.Options{Iterations: opts.Iterations, Seed: opts.Seed, Logger: opts.Logger}
	var summaries []sizeSummary
	for _, n := range opts.Sizes {
		res, err := orchestration.ExecuteStrategies(ctx, strategies, n, runOpts, progressChan)
		if err != nil {
			close(progressChan)
			wg.Wait()
			fmt.Fprintf(out, "\n%sCalibration interrupted.%s\n", ui.ColorYellow(), ui.ColorReset())
			return profile, err
		}
		best := fastest(res.Results)
		summaries = append(summaries, sizeSummary{n: n, results: res.Results, best: best})
		if best >= 0 {
			r := res.Results[best]
			profile.SetChoice(SizeChoice{N: n, Strategy: r.Name, MeanNs: float64(r.Timing.Mean.Nanoseconds())})
		}
	}
	close(progressChan)
	wg.Wait()

	for _, s := range summaries {
		printCalibrationResults(out, s)
	}

	profile.CalibratedAt = time.Now()
	profile.Iterations = opts.Iterations
	profile.CalibrationTime = time.Since(start).String()
	if opts.SaveProfile {
		if err := profile.SaveProfile(opts.ProfilePath); err != nil {
			return profile, err
		}
		opts.Logger.Info().Str("path", opts.ProfilePath).Int("sizes", len(profile.Choices)).Msg("calibration profile saved")
	}
	printProfileSummary(out, profile)
	return profile, nil
}

// fastest returns the index of the successful result with the lowest mean
// time, or -1.
func fastest(results []orchestration.StrategyResult) int {
	best := -1
	for i, r := range results {
		if r.Err != nil {
			continue
		}
		if best < 0 || r.Timing.Mean < results[best].Timing.Mean {
			best = i
		}
	}
	return best
}

// ResolveAuto maps every size to its calibrated strategy. Sizes the
// profile cannot answer, and every size when no valid profile exists,
// map to amix.DefaultStrategy. Choices naming a strategy not accepted by
// known also fall back.
//
// Returns:
//   - map[int]string: The strategy key per size.
//   - bool: Whether a valid profile was used.
func ResolveAuto(path string, sizes []int, known func(string) bool, logger zerolog.Logger) (map[int]string, bool) {
	choice := make(map[int]string, len(sizes))
	profile, err := LoadProfile(path)
	valid := err == nil && profile.IsValid()
	if !valid {
		logger.Warn().Err(err).Msg("no valid calibration profile, using the default strategy")
	}
	for _, n := range sizes {
		choice[n] = amix.DefaultStrategy
		if !valid {
			continue
		}
		if name, ok := profile.StrategyFor(n); ok && known(name) {
			choice[n] = name
		}
	}
	return choice, valid
}
