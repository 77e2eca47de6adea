package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agbru/amixbench/internal/amix"
	"github.com/agbru/amixbench/internal/amix/experiment"
	"github.com/agbru/amixbench/internal/calibration"
	"github.com/agbru/amixbench/internal/cli"
	"github.com/agbru/amixbench/internal/config"
	apperrors "github.com/agbru/amixbench/internal/errors"
	"github.com/agbru/amixbench/internal/logging"
	"github.com/agbru/amixbench/internal/metrics"
	"github.com/agbru/amixbench/internal/orchestration"
	"github.com/agbru/amixbench/internal/ui"
	"github.com/agbru/amixbench/pkg/report"
)

// Application represents one amixbench invocation: the parsed
// configuration, the strategy registry and the diagnostic sinks.
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// Factory resolves strategy keys. It holds the built-in and the
	// experimental strategies; the latter are only selected with
	// -experimental.
	Factory amix.StrategyFactory
	// ErrWriter receives status lines and diagnostics (typically os.Stderr).
	ErrWriter io.Writer
	// Logger writes structured diagnostics to ErrWriter.
	Logger zerolog.Logger
	// Recorder collects the run metrics written by -metrics-file.
	Recorder *metrics.Recorder
}

// New creates an Application by parsing command-line arguments.
//
// Parameters:
//   - args: The command-line arguments (typically os.Args).
//   - errWriter: The writer for error output.
//
// Returns:
//   - *Application: A new application instance.
//   - error: flag.ErrHelp for -h, or a ConfigError.
func New(args []string, errWriter io.Writer) (*Application, error) {
	factory := amix.NewDefaultFactory()
	experiment.Register(factory)

	programName := "amixbench"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, factory.List())
	if err != nil {
		return nil, err
	}

	logger := logging.NewConsoleLogger(errWriter, "amixbench", cfg.NoColor).
		Level(logging.ParseLevel(cfg.LogLevel))

	return &Application{
		Config:    cfg,
		Factory:   factory,
		ErrWriter: errWriter,
		Logger:    logger,
		Recorder:  metrics.NewRecorder(),
	}, nil
}

// Run executes the configured mode (calibration, verification or
// benchmark) under the run timeout and signal handling, prints the status
// of a failed run to ErrWriter and returns the process exit code.
//
// Parameters:
//   - ctx: The parent context.
//   - out: The writer for standard output.
//
// Returns:
//   - int: An exit code (0 for success, non-zero for errors).
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	f, isFile := out.(*os.File)
	ui.InitTheme(a.Config.NoColor || !isFile, f)

	ctx, cancels := SetupLifecycle(ctx, a.Config.Timeout)
	defer cancels.Cleanup()

	start := time.Now()
	var err error
	switch {
	case a.Config.Calibrate:
		err = a.runCalibration(ctx, out)
	case a.Config.Verify:
		err = a.runVerify(ctx, out)
	default:
		err = a.runBenchmark(ctx, out)
	}

	if a.Config.MetricsFile != "" {
		if werr := a.Recorder.WriteTextfile(a.Config.MetricsFile); werr != nil {
			a.Logger.Error().Err(werr).Str("path", a.Config.MetricsFile).Msg("writing metrics failed")
			if err == nil {
				err = werr
			}
		}
	}
	if err != nil {
		a.Logger.Debug().Err(err).Dur("elapsed", time.Since(start)).Msg("run failed")
	}
	return apperrors.HandleRunError(err, time.Since(start), a.ErrWriter, ui.ErrorColors{})
}

// selectedKeys lists the strategy keys taking part in "all": every
// registered key, minus the experimental ones unless -experimental is set.
func (a *Application) selectedKeys() []string {
	var keys []string
	for _, name := range a.Factory.List() {
		if a.runnable(name) {
			keys = append(keys, name)
		}
	}
	return keys
}

// runnable reports whether name is registered and, for x-* keys, whether
// -experimental was given.
func (a *Application) runnable(name string) bool {
	if strings.HasPrefix(name, experiment.Prefix) && !a.Config.Experimental {
		return false
	}
	return a.Factory.Has(name)
}

// explicitOrSelected returns the configured strategy when one was named,
// otherwise selectedKeys. "auto" counts as unnamed.
func (a *Application) explicitOrSelected() []string {
	switch a.Config.Strategy {
	case config.DefaultStrategy, config.AutoStrategy:
		return a.selectedKeys()
	}
	return []string{a.Config.Strategy}
}

// strategyPlan returns the strategy keys to run for each configured size.
func (a *Application) strategyPlan() map[int][]string {
	plan := make(map[int][]string, len(a.Config.Sizes))
	switch a.Config.Strategy {
	case config.DefaultStrategy:
		keys := a.selectedKeys()
		for _, n := range a.Config.Sizes {
			plan[n] = keys
		}
	case config.AutoStrategy:
		choice, _ := calibration.ResolveAuto(a.Config.CalibrationProfile, a.Config.Sizes, a.runnable, a.Logger)
		for _, n := range a.Config.Sizes {
			plan[n] = []string{choice[n]}
		}
	default:
		for _, n := range a.Config.Sizes {
			plan[n] = []string{a.Config.Strategy}
		}
	}
	return plan
}

func (a *Application) resolve(keys []string) ([]amix.Strategy, error) {
	strategies := make([]amix.Strategy, 0, len(keys))
	for _, key := range keys {
		s, err := a.Factory.Get(key)
		if err != nil {
			return nil, apperrors.NewConfigError("%v", err)
		}
		strategies = append(strategies, s)
	}
	return strategies, nil
}

// runCalibration runs the calibration mode over every selected strategy.
func (a *Application) runCalibration(ctx context.Context, out io.Writer) error {
	keys := a.explicitOrSelected()
	strategies, err := a.resolve(keys)
	if err != nil {
		return err
	}
	_, err = calibration.RunCalibration(ctx, out, strategies, calibration.Options{
		Sizes:       a.Config.Sizes,
		Iterations:  a.Config.Iterations,
		Seed:        a.Config.Seed,
		ProfilePath: a.Config.CalibrationProfile,
		SaveProfile: true,
		Logger:      a.Logger,
	})
	return err
}

// runVerify checks every selected strategy against the big.Float
// reference, one size per goroutine.
func (a *Application) runVerify(ctx context.Context, out io.Writer) error {
	keys := a.explicitOrSelected()
	strategies, err := a.resolve(keys)
	if err != nil {
		return err
	}
	if !a.Config.JSONOutput && !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, cli.DetectCPU(), out)
		cli.PrintExecutionMode(keys, out)
	}

	results, err := orchestration.VerifySweep(ctx, strategies, a.Config.Sizes, a.Config.Seed, a.Logger)
	if err != nil {
		return err
	}

	if a.Config.JSONOutput {
		rep := a.newReport()
		for _, res := range results {
			rep.Sizes = append(rep.Sizes, res.ToSizeReport(a.Config.Tolerance))
		}
		if err := rep.Write(out); err != nil {
			return err
		}
	}
	summary := out
	if a.Config.Quiet || a.Config.JSONOutput {
		summary = io.Discard
	}
	err = orchestration.AnalyzeVerifyResults(results, a.Config.Tolerance, summary)
	if a.Config.Quiet && !a.Config.JSONOutput {
		for _, res := range results {
			fmt.Fprintf(out, "%d\t%.17g\t%.3g\n", res.N, res.Reference, res.Worst())
		}
	}
	var mm apperrors.MismatchError
	if errors.As(err, &mm) {
		a.Recorder.Mismatch()
	}
	return err
}

// runBenchmark times the planned strategies size by size and compares
// their results.
func (a *Application) runBenchmark(ctx context.Context, out io.Writer) error {
	plan := a.strategyPlan()
	total := 0
	for _, n := range a.Config.Sizes {
		total += len(plan[n])
	}

	if !a.Config.JSONOutput && !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, cli.DetectCPU(), out)
		if a.Config.Strategy == config.AutoStrategy {
			cli.PrintExecutionMode(autoLabels(a.Config.Sizes, plan), out)
		} else {
			cli.PrintExecutionMode(plan[a.Config.Sizes[0]], out)
		}
	}

	progressOut := out
	if a.Config.Quiet || a.Config.JSONOutput {
		progressOut = io.Discard
	}
	progressChan := make(chan cli.ProgressUpdate, total*orchestration.ProgressBufferMultiplier)
	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go cli.DisplayProgress(&displayWg, progressChan, total, progressOut)

	opts := orchestration.Options{
		Iterations: a.Config.Iterations,
		Seed:       a.Config.Seed,
		Reference:  true,
		Recorder:   a.Recorder,
		Logger:     a.Logger,
	}
	results := make([]orchestration.SizeResult, 0, len(a.Config.Sizes))
	var runErr error
	for _, n := range a.Config.Sizes {
		strategies, err := a.resolve(plan[n])
		if err != nil {
			runErr = err
			break
		}
		res, err := orchestration.ExecuteStrategies(ctx, strategies, n, opts, progressChan)
		if err != nil {
			runErr = err
			break
		}
		results = append(results, res)
	}
	close(progressChan)
	displayWg.Wait()
	if runErr != nil {
		return runErr
	}

	return a.reportBenchmark(results, out)
}

// reportBenchmark prints or encodes the results and returns the first
// per-size failure.
func (a *Application) reportBenchmark(results []orchestration.SizeResult, out io.Writer) error {
	var firstErr error
	rep := a.newReport()
	for _, res := range results {
		var err error
		switch {
		case a.Config.JSONOutput:
			err = res.Check(a.Config.Tolerance)
			rep.Sizes = append(rep.Sizes, orchestration.ToSizeReport(res, a.Config.Tolerance, a.Config.Verbose))
		case a.Config.Quiet:
			err = res.Check(a.Config.Tolerance)
			cli.DisplayQuietResult(out, orchestration.ToSizeReport(res, a.Config.Tolerance, false))
		default:
			err = orchestration.AnalyzeComparisonResults(res, a.Config.Tolerance, out)
			if a.Config.Verbose {
				if sr := orchestration.ToSizeReport(res, a.Config.Tolerance, true); sr.SumAi != nil {
					cli.PrintSumAi(out, res.N, sr.SumAi)
				}
			}
		}
		var mm apperrors.MismatchError
		if errors.As(err, &mm) {
			a.Recorder.Mismatch()
			a.Logger.Warn().Int("n", res.N).Float64("spread", mm.Spread).Msg("strategies disagree")
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if a.Config.JSONOutput {
		if err := rep.Write(out); err != nil {
			return apperrors.WrapError(err, "encoding report")
		}
	}
	return firstErr
}

func (a *Application) newReport() report.Report {
	return report.Report{
		Version:    Version,
		Timestamp:  time.Now().UTC(),
		Seed:       a.Config.Seed,
		Iterations: a.Config.Iterations,
		Tolerance:  a.Config.Tolerance,
		CPU:        cli.DetectCPU(),
	}
}

func autoLabels(sizes []int, plan map[int][]string) []string {
	labels := make([]string, 0, len(sizes))
	for _, n := range sizes {
		labels = append(labels, fmt.Sprintf("n=%d:%s", n, strings.Join(plan[n], ",")))
	}
	return labels
}

// IsHelpError reports whether err means help was requested with -h.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
