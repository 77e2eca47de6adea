package calibration

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/agbru/amixbench/internal/cli"
	"github.com/agbru/amixbench/internal/orchestration"
	"github.com/agbru/amixbench/internal/ui"
)

type sizeSummary struct {
	n       int
	results []orchestration.StrategyResult
	best    int
}

// printCalibrationResults formats and prints the timings of one size.
func printCalibrationResults(out io.Writer, s sizeSummary) {
	fmt.Fprintf(out, "\n--- Calibration Summary (n=%d) ---\n", s.n)
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "  %sStrategy%s    │ %sMean per call%s\n", ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())
	fmt.Fprintf(tw, "  %s┼%s\n", strings.Repeat("─", 14), strings.Repeat("─", 25))
	for i, res := range s.results {
		durationStr := fmt.Sprintf("%sN/A%s", ui.ColorRed(), ui.ColorReset())
		if res.Err == nil {
			durationStr = cli.FormatNanos(float64(res.Timing.Mean.Nanoseconds()))
		}
		highlight := ""
		if i == s.best {
			highlight = fmt.Sprintf(" %s(Fastest)%s", ui.ColorGreen(), ui.ColorReset())
		}
		fmt.Fprintf(tw, "  %s%-12s%s │ %s%s%s%s\n", ui.ColorCyan(), res.Name, ui.ColorReset(), ui.ColorYellow(), durationStr, ui.ColorReset(), highlight)
	}
	tw.Flush()
}

// printProfileSummary prints the per-size choices of the profile.
func printProfileSummary(out io.Writer, p *CalibrationProfile) {
	parts := make([]string, 0, len(p.Choices))
	for _, c := range p.Choices {
		parts = append(parts, fmt.Sprintf("n=%d→%s%s%s", c.N, ui.ColorYellow(), c.Strategy, ui.ColorReset()))
	}
	fmt.Fprintf(out, "\n%s✅ Calibration complete%s: %s\n", ui.ColorGreen(), ui.ColorReset(), strings.Join(parts, ", "))
	fmt.Fprintf(out, "Use %s-strategy auto%s to run the calibrated strategy for each size.\n", ui.ColorYellow(), ui.ColorReset())
}
