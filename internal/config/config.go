// Package config provides the configuration management for amixbench.
// It defines the configuration structure, parses command-line flags with
// AMIX_* environment fallbacks, and validates the result.
package config

import (
	"flag"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/agbru/amixbench/internal/amix/experiment"
	apperrors "github.com/agbru/amixbench/internal/errors"
	"github.com/agbru/amixbench/internal/workload"
)

// EnvPrefix is the prefix of every environment variable read by amixbench.
const EnvPrefix = "AMIX_"

// Default configuration values.
const (
	// DefaultSizes are the problem sizes measured when -n is not given.
	DefaultSizes = "50,100"
	// DefaultIterations is the number of timed kernel invocations per
	// strategy and size.
	DefaultIterations = 2000
	// DefaultStrategy runs every selected strategy and compares them.
	DefaultStrategy = "all"
	// AutoStrategy picks the calibrated strategy per size.
	AutoStrategy = "auto"
	// DefaultTolerance is the relative agreement bound between strategies.
	DefaultTolerance = 1e-9
	// DefaultTimeout bounds the whole run.
	DefaultTimeout = time.Minute
	// DefaultLogLevel is the zerolog level for diagnostics.
	DefaultLogLevel = "warn"
)

// AppConfig aggregates every setting of a run.
type AppConfig struct {
	// Sizes are the problem sizes n, in the order given.
	Sizes SizeList
	// Seed seeds the input generator.
	Seed int64
	// Iterations is the number of timed invocations per strategy and size.
	Iterations int
	// Strategy is "all", "auto" or a registered strategy key.
	Strategy string
	// Tolerance is the relative bound for cross-strategy agreement.
	Tolerance float64
	// Timeout bounds the whole run.
	Timeout time.Duration
	// Experimental registers the x-* strategies.
	Experimental bool
	// Verify runs the concurrent sweep against the big.Float oracle.
	Verify bool
	// Calibrate times every strategy per size and saves the fastest.
	Calibrate bool
	// CalibrationProfile is the profile path; empty means the default
	// (~/.amixbench_calibration.json).
	CalibrationProfile string
	// JSONOutput prints a JSON report on stdout.
	JSONOutput bool
	// MetricsFile, if set, receives the Prometheus text exposition.
	MetricsFile string
	// Quiet prints one line per size.
	Quiet bool
	// Verbose also prints sumAi for each size.
	Verbose bool
	// NoColor disables ANSI colors. NO_COLOR is honored too.
	NoColor bool
	// LogLevel is the zerolog level name for stderr diagnostics.
	LogLevel string
}

// Validate checks the semantic consistency of the configuration.
//
// Parameters:
//   - availableStrategies: Every registered strategy key, experimental
//     ones included.
//
// Returns:
//   - error: A ConfigError if the configuration is invalid, nil otherwise.
func (c AppConfig) Validate(availableStrategies []string) error {
	if len(c.Sizes) == 0 {
		return apperrors.NewConfigError("at least one problem size is required")
	}
	if c.Iterations <= 0 {
		return apperrors.NewConfigError("iterations must be strictly positive: %d", c.Iterations)
	}
	if !(c.Tolerance > 0) || math.IsInf(c.Tolerance, 0) {
		return apperrors.NewConfigError("tolerance must be a positive finite number: %g", c.Tolerance)
	}
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	switch c.Strategy {
	case DefaultStrategy, AutoStrategy:
	default:
		if !slices.Contains(availableStrategies, c.Strategy) {
			return apperrors.NewConfigError("unrecognized strategy: '%s'. Valid strategies are: 'all', 'auto' or [%s]",
				c.Strategy, strings.Join(availableStrategies, ", "))
		}
		if strings.HasPrefix(c.Strategy, experiment.Prefix) && !c.Experimental {
			return apperrors.NewConfigError("strategy '%s' is experimental and requires -experimental", c.Strategy)
		}
	}
	if c.Calibrate && c.Verify {
		return apperrors.NewConfigError("-calibrate and -verify cannot be combined")
	}
	return nil
}

// ParseConfig parses args into an AppConfig, applies AMIX_* environment
// values for flags that were not given, and validates the result.
//
// Parameters:
//   - programName: The name shown in the usage message.
//   - args: The arguments without the program name.
//   - errorWriter: Where parse errors and usage are printed.
//   - availableStrategies: Registered strategy keys for validation.
//
// Returns:
//   - AppConfig: The populated configuration.
//   - error: flag.ErrHelp for -h, otherwise a ConfigError.
func ParseConfig(programName string, args []string, errorWriter io.Writer, availableStrategies []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)

	config := AppConfig{}
	if err := config.Sizes.Set(DefaultSizes); err != nil {
		return AppConfig{}, err
	}
	strategyHelp := fmt.Sprintf("Strategy to run: 'all' (default), 'auto' or one of [%s].", strings.Join(availableStrategies, ", "))

	fs.Var(&config.Sizes, "n", "Comma-separated problem sizes.")
	fs.Int64Var(&config.Seed, "seed", workload.DefaultSeed, "Seed of the random input generator.")
	fs.IntVar(&config.Iterations, "iterations", DefaultIterations, "Timed kernel invocations per strategy and size.")
	fs.StringVar(&config.Strategy, "strategy", DefaultStrategy, strategyHelp)
	fs.Float64Var(&config.Tolerance, "tolerance", DefaultTolerance, "Relative tolerance for cross-strategy agreement.")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time for the whole run.")
	fs.BoolVar(&config.Experimental, "experimental", false, "Also register the experimental x-* strategies.")
	fs.BoolVar(&config.Verify, "verify", false, "Verify every strategy against the high-precision reference.")
	fs.BoolVar(&config.Calibrate, "calibrate", false, "Time every strategy per size and save the fastest to the profile.")
	fs.StringVar(&config.CalibrationProfile, "calibration-profile", "", "Path to the calibration profile (default: ~/.amixbench_calibration.json).")
	fs.BoolVar(&config.JSONOutput, "json", false, "Output a JSON report.")
	fs.StringVar(&config.MetricsFile, "metrics-file", "", "Write Prometheus metrics of the run to this file.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode - minimal output for scripts.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.Verbose, "v", false, "Print the row sums sumAi for each size.")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "Diagnostic log level (debug, info, warn, error).")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return AppConfig{}, err
		}
		return AppConfig{}, apperrors.NewConfigError("%v", err)
	}
	if fs.NArg() > 0 {
		return AppConfig{}, apperrors.NewConfigError("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if err := applyEnvOverrides(&config, fs); err != nil {
		return AppConfig{}, err
	}

	config.Strategy = strings.ToLower(config.Strategy)
	if err := config.Validate(availableStrategies); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		return AppConfig{}, err
	}
	return config, nil
}
