// Package cli renders the amixbench terminal output: the progress spinner
// shown while strategies are timed, the run header and the per-size
// summaries.
package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/amixbench/internal/ui"
)

const (
	// ProgressRefreshRate is the spinner and progress bar refresh period.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth is the width of the progress bar in characters.
	ProgressBarWidth = 30
)

// FormatExecutionDuration formats d with µs below a millisecond, ms below a
// second, and time.Duration's own format above.
func FormatExecutionDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

// FormatNanos formats a per-invocation time given in nanoseconds, keeping
// sub-microsecond precision that FormatExecutionDuration drops.
func FormatNanos(ns float64) string {
	switch {
	case ns < 1e3:
		return fmt.Sprintf("%.1fns", ns)
	case ns < 1e6:
		return fmt.Sprintf("%.2fµs", ns/1e3)
	case ns < 1e9:
		return fmt.Sprintf("%.2fms", ns/1e6)
	default:
		return fmt.Sprintf("%.2fs", ns/1e9)
	}
}

// Spinner abstracts the terminal spinner so DisplayProgress can be tested.
type Spinner interface {
	Start()
	Stop()
	// UpdateSuffix sets the text displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner adapts spinner.Spinner to Spinner.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }
func (rs *realSpinner) Stop()  { rs.s.Stop() }

func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// ProgressUpdate reports that one strategy finished its timed run at one
// problem size.
type ProgressUpdate struct {
	Strategy string
	N        int
}

// progressBar renders progress in [0, 1] as a bar of length cells.
func progressBar(progress float64, length int) string {
	progress = min(max(progress, 0), 1)
	count := int(progress * float64(length))
	var builder strings.Builder
	builder.Grow(length * 3)
	for i := 0; i < length; i++ {
		if i < count {
			builder.WriteRune('█')
		} else {
			builder.WriteRune('░')
		}
	}
	return builder.String()
}

// estimateRemaining extrapolates the remaining time from the average time
// per completed step. It returns 0 until a step has completed.
func estimateRemaining(elapsed time.Duration, done, total int) time.Duration {
	if done <= 0 || done >= total {
		return 0
	}
	perStep := elapsed / time.Duration(done)
	return perStep * time.Duration(total-done)
}

// DisplayProgress shows a spinner with a progress bar until progressChan is
// closed, then prints a final line. totalSteps is the number of updates
// expected. It is meant to run in its own goroutine; wg.Done is called on
// return.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, totalSteps int, out io.Writer) {
	defer wg.Done()
	if totalSteps <= 0 {
		for range progressChan {
		}
		return
	}

	start := time.Now()
	done := 0
	last := ""
	s := newSpinner(spinner.WithWriter(out))
	s.Start()
	spinnerStopped := false
	defer func() {
		if !spinnerStopped {
			s.Stop()
		}
	}()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	render := func() string {
		frac := float64(done) / float64(totalSteps)
		eta := estimateRemaining(time.Since(start), done, totalSteps)
		return fmt.Sprintf(" %s%s%s %3d/%-3d [%s] ETA: %s",
			ui.ColorBlue(), last, ui.ColorReset(), done, totalSteps,
			progressBar(frac, ProgressBarWidth), FormatExecutionDuration(eta))
	}

	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				s.Stop()
				spinnerStopped = true
				fmt.Fprintf(out, "Timed %d/%d runs [%s] in %s\n", done, totalSteps,
					progressBar(float64(done)/float64(totalSteps), ProgressBarWidth),
					FormatExecutionDuration(time.Since(start)))
				return
			}
			done++
			last = fmt.Sprintf("%s n=%d", update.Strategy, update.N)
			s.UpdateSuffix(render())
		case <-ticker.C:
			s.UpdateSuffix(render())
		}
	}
}
