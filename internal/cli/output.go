package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/agbru/amixbench/internal/config"
	"github.com/agbru/amixbench/internal/ui"
	"github.com/agbru/amixbench/pkg/report"
)

// PrintExecutionConfig prints the run header: sizes, inputs, timing budget
// and the host.
func PrintExecutionConfig(cfg config.AppConfig, host report.CPUInfo, out io.Writer) {
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Sizes %s%s%s, seed %s%d%s, %s%d%s iterations per strategy, timeout %s%s%s.\n",
		ui.ColorMagenta(), cfg.Sizes.String(), ui.ColorReset(),
		ui.ColorCyan(), cfg.Seed, ui.ColorReset(),
		ui.ColorCyan(), cfg.Iterations, ui.ColorReset(),
		ui.ColorYellow(), cfg.Timeout, ui.ColorReset())
	features := "none detected"
	if len(host.Features) > 0 {
		features = strings.Join(host.Features, " ")
	}
	fmt.Fprintf(out, "Environment: %s%d%s logical processors (%s, %s), Go %s.\n",
		ui.ColorCyan(), host.NumCPU, ui.ColorReset(), host.Arch, features, runtime.Version())
}

// PrintExecutionMode names the strategies about to run.
func PrintExecutionMode(strategies []string, out io.Writer) {
	if len(strategies) == 1 {
		fmt.Fprintf(out, "Execution mode: single strategy %s%s%s.\n", ui.ColorGreen(), strategies[0], ui.ColorReset())
	} else {
		fmt.Fprintf(out, "Execution mode: comparison of %d strategies (%s).\n", len(strategies), strings.Join(strategies, ", "))
	}
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}

// PrintSumAi prints the row sums of one size, five per line.
func PrintSumAi(out io.Writer, n int, sumAi []float64) {
	fmt.Fprintf(out, "\n%ssumAi (n=%d)%s\n", ui.ColorBold(), n, ui.ColorReset())
	for i, v := range sumAi {
		sep := "  "
		if i%5 == 4 || i == len(sumAi)-1 {
			sep = "\n"
		}
		fmt.Fprintf(out, "[%3d] %.17g%s", i, v, sep)
	}
}

// DisplayQuietResult prints one tab-separated line per size for scripts:
// n, amix, fastest strategy and its mean time in ns.
func DisplayQuietResult(out io.Writer, sr report.SizeReport) {
	best := -1
	for i, r := range sr.Results {
		if r.Error != "" {
			continue
		}
		if best < 0 || r.MeanNs < sr.Results[best].MeanNs {
			best = i
		}
	}
	if best < 0 {
		fmt.Fprintf(out, "%d\tNaN\t-\t-\n", sr.N)
		return
	}
	r := sr.Results[best]
	fmt.Fprintf(out, "%d\t%.17g\t%s\t%.1f\n", sr.N, r.Amix, r.Strategy, r.MeanNs)
}
