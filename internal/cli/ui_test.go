package cli

import (
	"bytes"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/amixbench/internal/config"
	"github.com/agbru/amixbench/internal/testutil"
	"github.com/agbru/amixbench/internal/ui"
	"github.com/agbru/amixbench/pkg/report"
)

// MockSpinner records calls instead of drawing.
type MockSpinner struct {
	mu      sync.Mutex
	started bool
	stopped bool
	suffix  string
}

func (m *MockSpinner) Start() { m.mu.Lock(); m.started = true; m.mu.Unlock() }
func (m *MockSpinner) Stop()  { m.mu.Lock(); m.stopped = true; m.mu.Unlock() }

func (m *MockSpinner) UpdateSuffix(suffix string) {
	m.mu.Lock()
	m.suffix = suffix
	m.mu.Unlock()
}

func TestFormatExecutionDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{500 * time.Nanosecond, "0µs"},
		{10 * time.Microsecond, "10µs"},
		{10 * time.Millisecond, "10ms"},
		{2 * time.Second, "2s"},
	}
	for _, tt := range tests {
		if got := FormatExecutionDuration(tt.d); got != tt.expected {
			t.Errorf("FormatExecutionDuration(%v) = %s; want %s", tt.d, got, tt.expected)
		}
	}
}

func TestFormatNanos(t *testing.T) {
	t.Parallel()
	tests := []struct {
		ns   float64
		want string
	}{
		{12.34, "12.3ns"},
		{4321, "4.32µs"},
		{2.5e6, "2.50ms"},
		{3e9, "3.00s"},
	}
	for _, tt := range tests {
		if got := FormatNanos(tt.ns); got != tt.want {
			t.Errorf("FormatNanos(%g) = %s; want %s", tt.ns, got, tt.want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	t.Parallel()
	tests := []struct {
		progress float64
		length   int
		want     string
	}{
		{0.0, 10, "░░░░░░░░░░"},
		{0.5, 10, "█████░░░░░"},
		{1.0, 10, "██████████"},
		{1.2, 10, "██████████"},
		{-0.1, 10, "░░░░░░░░░░"},
	}
	for _, tt := range tests {
		if got := progressBar(tt.progress, tt.length); got != tt.want {
			t.Errorf("progressBar(%f, %d) = %s; want %s", tt.progress, tt.length, got, tt.want)
		}
	}
}

func TestEstimateRemaining(t *testing.T) {
	t.Parallel()
	if got := estimateRemaining(time.Second, 0, 4); got != 0 {
		t.Errorf("no completed step: %v, want 0", got)
	}
	if got := estimateRemaining(2*time.Second, 2, 6); got != 4*time.Second {
		t.Errorf("estimateRemaining = %v, want 4s", got)
	}
	if got := estimateRemaining(time.Second, 6, 6); got != 0 {
		t.Errorf("finished: %v, want 0", got)
	}
}

// DisplayProgress swaps the package-level spinner constructor, so these
// tests do not run in parallel.
func TestDisplayProgress(t *testing.T) {
	saved := ui.GetCurrentTheme()
	defer ui.SetCurrentTheme(saved)
	ui.SetCurrentTheme(ui.NoColorTheme)

	mock := &MockSpinner{}
	original := newSpinner
	newSpinner = func(options ...spinner.Option) Spinner { return mock }
	defer func() { newSpinner = original }()

	var out bytes.Buffer
	ch := make(chan ProgressUpdate, 3)
	var wg sync.WaitGroup
	wg.Add(1)
	go DisplayProgress(&wg, ch, 3, &out)

	ch <- ProgressUpdate{Strategy: "fused", N: 50}
	ch <- ProgressUpdate{Strategy: "full", N: 50}
	close(ch)
	wg.Wait()

	mock.mu.Lock()
	defer mock.mu.Unlock()
	if !mock.started || !mock.stopped {
		t.Error("spinner should be started and stopped")
	}
	if !strings.Contains(mock.suffix, "full n=50") || !strings.Contains(mock.suffix, "2/3") {
		t.Errorf("last suffix = %q", mock.suffix)
	}
	if !strings.Contains(out.String(), "Timed 2/3 runs") {
		t.Errorf("final line missing: %q", out.String())
	}
}

func TestDisplayProgressNoSteps(t *testing.T) {
	ch := make(chan ProgressUpdate, 1)
	ch <- ProgressUpdate{}
	close(ch)
	var wg sync.WaitGroup
	wg.Add(1)
	var out bytes.Buffer
	DisplayProgress(&wg, ch, 0, &out)
	if out.Len() != 0 {
		t.Errorf("expected no output, got %q", out.String())
	}
}

func TestPrintExecutionConfig(t *testing.T) {
	saved := ui.GetCurrentTheme()
	defer ui.SetCurrentTheme(saved)
	ui.SetCurrentTheme(ui.DarkTheme)

	cfg := config.AppConfig{Sizes: config.SizeList{50, 100}, Seed: 123, Iterations: 2000, Timeout: time.Minute}
	var out bytes.Buffer
	PrintExecutionConfig(cfg, report.CPUInfo{Arch: "amd64", NumCPU: 4, Features: []string{"avx2", "fma"}}, &out)
	PrintExecutionMode([]string{"fused", "full"}, &out)

	got := testutil.StripAnsiCodes(out.String())
	for _, want := range []string{
		"Sizes 50,100, seed 123, 2000 iterations per strategy, timeout 1m0s.",
		"4 logical processors (amd64, avx2 fma), Go " + runtime.Version(),
		"comparison of 2 strategies (fused, full)",
		"--- Starting Execution ---",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output lacks %q:\n%s", want, got)
		}
	}
}

func TestPrintExecutionModeSingle(t *testing.T) {
	var out bytes.Buffer
	PrintExecutionMode([]string{"indexed"}, &out)
	if !strings.Contains(testutil.StripAnsiCodes(out.String()), "single strategy indexed") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestPrintSumAi(t *testing.T) {
	saved := ui.GetCurrentTheme()
	defer ui.SetCurrentTheme(saved)
	ui.SetCurrentTheme(ui.NoColorTheme)

	var out bytes.Buffer
	PrintSumAi(&out, 2, []float64{4.7, 7.2})
	want := "\nsumAi (n=2)\n[  0] 4.7000000000000002  [  1] 7.2000000000000002\n"
	if out.String() != want {
		t.Errorf("PrintSumAi =\n%q\nwant\n%q", out.String(), want)
	}
}

func TestDisplayQuietResult(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	DisplayQuietResult(&out, report.SizeReport{N: 50, Results: []report.StrategyResult{
		{Strategy: "full", Amix: 1.5, MeanNs: 900},
		{Strategy: "broken", Error: "boom", MeanNs: 1},
		{Strategy: "fused", Amix: 1.5, MeanNs: 450},
	}})
	DisplayQuietResult(&out, report.SizeReport{N: 7})
	want := "50\t1.5\tfused\t450.0\n7\tNaN\t-\t-\n"
	if out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}
}

func TestDetectCPU(t *testing.T) {
	t.Parallel()
	info := DetectCPU()
	if info.Arch != runtime.GOARCH || info.NumCPU != runtime.NumCPU() {
		t.Errorf("DetectCPU() = %+v", info)
	}
}
