package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agbru/amixbench/internal/amix"
	"github.com/agbru/amixbench/internal/amix/experiment"
	"github.com/agbru/amixbench/internal/calibration"
	"github.com/agbru/amixbench/internal/config"
	apperrors "github.com/agbru/amixbench/internal/errors"
	"github.com/agbru/amixbench/internal/testutil"
	"github.com/agbru/amixbench/pkg/report"
)

// skewedStrategy disagrees with every other strategy by a relative 1e-6.
type skewedStrategy struct{}

func (skewedStrategy) Name() string        { return "skewed" }
func (skewedStrategy) Description() string { return "fused, slightly wrong" }
func (skewedStrategy) Compute(p amix.Problem, ws *amix.Workspace) float64 {
	return amix.FusedStrategy{}.Compute(p, ws) * (1 + 1e-6)
}

func newTestApp(t *testing.T, args ...string) (*Application, *bytes.Buffer) {
	t.Helper()
	var errBuf bytes.Buffer
	app, err := New(append([]string{"amixbench", "-no-color"}, args...), &errBuf)
	if err != nil {
		t.Fatalf("New(%v): %v\n%s", args, err, errBuf.String())
	}
	return app, &errBuf
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	app, errBuf := newTestApp(t, args...)
	var out bytes.Buffer
	code := app.Run(context.Background(), &out)
	return code, testutil.StripAnsiCodes(out.String()), errBuf.String()
}

func TestNew(t *testing.T) {
	t.Parallel()
	t.Run("Valid args create application", func(t *testing.T) {
		t.Parallel()
		app, _ := newTestApp(t, "-n", "10,20", "-strategy", "full")
		if len(app.Config.Sizes) != 2 || app.Config.Strategy != amix.StrategyFull {
			t.Errorf("unexpected config %+v", app.Config)
		}
		if !app.Factory.Has(experiment.UnsafeFused) {
			t.Error("experimental strategies should be registered")
		}
		if app.Recorder == nil {
			t.Error("Recorder should not be nil")
		}
	})

	t.Run("Invalid args return error", func(t *testing.T) {
		t.Parallel()
		var errBuf bytes.Buffer
		app, err := New([]string{"amixbench", "-invalid-flag"}, &errBuf)
		if err == nil || app != nil {
			t.Errorf("New() = %v, %v; want an error", app, err)
		}
		if apperrors.ExitCode(err) != apperrors.ExitErrorConfig {
			t.Errorf("ExitCode = %d", apperrors.ExitCode(err))
		}
	})

	t.Run("Experimental strategy needs the flag", func(t *testing.T) {
		t.Parallel()
		var errBuf bytes.Buffer
		if _, err := New([]string{"amixbench", "-strategy", experiment.UnsafeFused}, &errBuf); err == nil {
			t.Error("expected a configuration error")
		}
		if _, err := New([]string{"amixbench", "-experimental", "-strategy", experiment.UnsafeFused}, &errBuf); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Help flag returns error", func(t *testing.T) {
		t.Parallel()
		var errBuf bytes.Buffer
		_, err := New([]string{"amixbench", "-h"}, &errBuf)
		if !IsHelpError(err) {
			t.Errorf("expected a help error, got %v", err)
		}
	})

	t.Run("Empty args use defaults", func(t *testing.T) {
		t.Parallel()
		var errBuf bytes.Buffer
		app, err := New([]string{}, &errBuf)
		if err != nil {
			t.Fatalf("New() should handle empty args, got: %v", err)
		}
		if app.Config.Sizes.String() != config.DefaultSizes {
			t.Errorf("Sizes = %s, want %s", app.Config.Sizes.String(), config.DefaultSizes)
		}
	})
}

func TestRunBenchmark(t *testing.T) {
	t.Parallel()
	code, out, errOut := run(t, "-n", "5,12", "-iterations", "3", "-v")
	if code != apperrors.ExitSuccess {
		t.Fatalf("exit code %d, stderr:\n%s", code, errOut)
	}
	missing := testutil.MissingSubstrings(out,
		"--- Execution Configuration ---",
		"comparison of 5 strategies",
		"Comparison Summary (n=5)",
		"Comparison Summary (n=12)",
		"Global Status: Success",
		"sumAi (n=12)",
		"Reference (big.Float",
	)
	if len(missing) > 0 {
		t.Errorf("output lacks %q:\n%s", missing, out)
	}
	if strings.Contains(out, experiment.Prefix) {
		t.Error("experimental strategies ran without -experimental")
	}
}

func TestRunBenchmarkExperimental(t *testing.T) {
	t.Parallel()
	code, out, errOut := run(t, "-n", "6", "-iterations", "2", "-experimental")
	if code != apperrors.ExitSuccess {
		t.Fatalf("exit code %d, stderr:\n%s", code, errOut)
	}
	for _, key := range []string{experiment.UnsafeFused, experiment.Accumulate, experiment.HalfThenMirrorColumn} {
		if !strings.Contains(out, key) {
			t.Errorf("output lacks %s:\n%s", key, out)
		}
	}
}

func TestRunJSON(t *testing.T) {
	t.Parallel()
	code, out, errOut := run(t, "-n", "4,9", "-iterations", "2", "-json", "-v", "-seed", "7")
	if code != apperrors.ExitSuccess {
		t.Fatalf("exit code %d, stderr:\n%s", code, errOut)
	}
	rep, err := report.Read(strings.NewReader(out))
	if err != nil {
		t.Fatalf("report.Read: %v\n%s", err, out)
	}
	if rep.Seed != 7 || rep.Iterations != 2 || rep.Version != Version || len(rep.Sizes) != 2 {
		t.Fatalf("unexpected report header %+v", rep)
	}
	for _, sr := range rep.Sizes {
		if !sr.Consistent || sr.Reference == nil || len(sr.Results) != 5 || len(sr.SumAi) != sr.N {
			t.Errorf("unexpected size report %+v", sr)
		}
	}
}

func TestRunQuiet(t *testing.T) {
	t.Parallel()
	code, out, _ := run(t, "-n", "3,7", "-iterations", "2", "-q", "-strategy", "segmented")
	if code != apperrors.ExitSuccess {
		t.Fatalf("exit code %d", code)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", out)
	}
	for i, n := range []string{"3", "7"} {
		fields := strings.Split(lines[i], "\t")
		if len(fields) != 4 || fields[0] != n || fields[2] != "segmented" {
			t.Errorf("line %d = %q", i, lines[i])
		}
	}
}

func TestRunMismatch(t *testing.T) {
	t.Parallel()
	app, errBuf := newTestApp(t, "-n", "8", "-iterations", "2")
	app.Factory.Register("skewed", func() amix.Strategy { return skewedStrategy{} })

	var out bytes.Buffer
	code := app.Run(context.Background(), &out)
	if code != apperrors.ExitErrorMismatch {
		t.Fatalf("exit code %d, want %d", code, apperrors.ExitErrorMismatch)
	}
	if !strings.Contains(errBuf.String(), "Mismatch") {
		t.Errorf("stderr lacks the mismatch status:\n%s", errBuf.String())
	}
	if !strings.Contains(out.String(), "CRITICAL ERROR") {
		t.Errorf("output lacks the critical status:\n%s", out.String())
	}
}

func TestRunVerify(t *testing.T) {
	t.Parallel()
	code, out, errOut := run(t, "-n", "0,1,17", "-verify")
	if code != apperrors.ExitSuccess {
		t.Fatalf("exit code %d, stderr:\n%s", code, errOut)
	}
	if !strings.Contains(out, "Verification (n=17") || !strings.Contains(out, "Every strategy matches the reference") {
		t.Errorf("unexpected output:\n%s", out)
	}

	code, out, _ = run(t, "-n", "5", "-verify", "-json")
	if code != apperrors.ExitSuccess {
		t.Fatalf("json verify exit code %d", code)
	}
	rep, err := report.Read(strings.NewReader(out))
	if err != nil || len(rep.Sizes) != 1 || !rep.Sizes[0].Consistent {
		t.Errorf("unexpected verify report %+v, %v", rep, err)
	}
}

func TestRunVerifyMismatch(t *testing.T) {
	t.Parallel()
	app, _ := newTestApp(t, "-n", "6", "-verify")
	app.Factory.Register("skewed", func() amix.Strategy { return skewedStrategy{} })
	if code := app.Run(context.Background(), &bytes.Buffer{}); code != apperrors.ExitErrorMismatch {
		t.Errorf("exit code %d, want %d", code, apperrors.ExitErrorMismatch)
	}
}

func TestRunCalibrationThenAuto(t *testing.T) {
	t.Parallel()
	profile := filepath.Join(t.TempDir(), "profile.json")

	code, out, errOut := run(t, "-n", "6,10", "-iterations", "2", "-calibrate", "-calibration-profile", profile)
	if code != apperrors.ExitSuccess {
		t.Fatalf("calibration exit code %d, stderr:\n%s", code, errOut)
	}
	if !strings.Contains(out, "Calibration complete") {
		t.Errorf("unexpected calibration output:\n%s", out)
	}
	saved, err := calibration.LoadProfile(profile)
	if err != nil || len(saved.Choices) != 2 {
		t.Fatalf("saved profile = %+v, %v", saved, err)
	}

	code, out, errOut = run(t, "-n", "6,10", "-iterations", "2", "-strategy", "auto", "-calibration-profile", profile, "-json")
	if code != apperrors.ExitSuccess {
		t.Fatalf("auto exit code %d, stderr:\n%s", code, errOut)
	}
	rep, err := report.Read(strings.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	for i, sr := range rep.Sizes {
		want, _ := saved.StrategyFor(sr.N)
		if len(sr.Results) != 1 || sr.Results[0].Strategy != want {
			t.Errorf("size %d ran %+v, want %s", i, sr.Results, want)
		}
	}
}

func TestRunAutoWithoutProfile(t *testing.T) {
	t.Parallel()
	profile := filepath.Join(t.TempDir(), "missing.json")
	code, out, _ := run(t, "-n", "4", "-iterations", "2", "-strategy", "auto", "-calibration-profile", profile, "-q")
	if code != apperrors.ExitSuccess {
		t.Fatalf("exit code %d", code)
	}
	if !strings.Contains(out, "\t"+amix.DefaultStrategy+"\t") {
		t.Errorf("expected the default strategy, got %q", out)
	}
}

func TestRunAutoSkipsExperimentalChoice(t *testing.T) {
	t.Parallel()
	profile := filepath.Join(t.TempDir(), "profile.json")
	saved := calibration.NewProfile()
	saved.SetChoice(calibration.SizeChoice{N: 20, Strategy: experiment.UnsafeFused, MeanNs: 1})
	if err := saved.SaveProfile(profile); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"without experimental", nil, amix.DefaultStrategy},
		{"with experimental", []string{"-experimental"}, experiment.UnsafeFused},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			args := append([]string{"-n", "20", "-iterations", "2", "-strategy", "auto", "-calibration-profile", profile, "-q"}, tt.args...)
			code, out, errOut := run(t, args...)
			if code != apperrors.ExitSuccess {
				t.Fatalf("exit code %d, stderr:\n%s", code, errOut)
			}
			if !strings.Contains(out, "\t"+tt.want+"\t") {
				t.Errorf("expected %s to run, got %q", tt.want, out)
			}
		})
	}
}

func TestRunWithoutTerminalHasNoColor(t *testing.T) {
	t.Parallel()
	var errBuf bytes.Buffer
	app, err := New([]string{"amixbench", "-n", "4", "-iterations", "2"}, &errBuf)
	if err != nil {
		t.Fatalf("New: %v\n%s", err, errBuf.String())
	}
	var out bytes.Buffer
	if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code %d, stderr:\n%s", code, errBuf.String())
	}
	if strings.Contains(out.String(), "\x1b[") {
		t.Errorf("output to a buffer should not carry ANSI codes:\n%q", out.String())
	}
}

func TestRunMetricsFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "amixbench.prom")
	code, _, errOut := run(t, "-n", "5", "-iterations", "4", "-strategy", "fused", "-q", "-metrics-file", path)
	if code != apperrors.ExitSuccess {
		t.Fatalf("exit code %d, stderr:\n%s", code, errOut)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `amixbench_kernel_invocations_total{n="5",strategy="fused"} 4`) {
		t.Errorf("unexpected metrics:\n%s", data)
	}
}

func TestRunMetricsFileBadPath(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "missing", "x.prom")
	code, _, _ := run(t, "-n", "3", "-iterations", "1", "-q", "-metrics-file", path)
	if code != apperrors.ExitErrorGeneric {
		t.Errorf("exit code %d, want %d", code, apperrors.ExitErrorGeneric)
	}
}

func TestRunTimeoutAndCancel(t *testing.T) {
	t.Parallel()
	code, _, errOut := run(t, "-n", "50", "-timeout", "1ns")
	if code != apperrors.ExitErrorTimeout {
		t.Errorf("timeout exit code %d, want %d\n%s", code, apperrors.ExitErrorTimeout, errOut)
	}

	app, errBuf := newTestApp(t, "-n", "50")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if code := app.Run(ctx, &bytes.Buffer{}); code != apperrors.ExitErrorCanceled {
		t.Errorf("canceled exit code %d, want %d", code, apperrors.ExitErrorCanceled)
	}
	if !strings.Contains(errBuf.String(), "Canceled") {
		t.Errorf("stderr lacks the canceled status:\n%s", errBuf.String())
	}
}

func TestSetupLifecycle(t *testing.T) {
	t.Parallel()
	ctx, cancels := SetupLifecycle(context.Background(), time.Hour)
	if ctx.Err() != nil {
		t.Fatal("context should be live")
	}
	cancels.Cleanup()
	if ctx.Err() == nil {
		t.Error("Cleanup should cancel the context")
	}
	(&CancelFuncs{}).Cleanup()
}

func TestIsHelpError(t *testing.T) {
	t.Parallel()
	if IsHelpError(nil) || IsHelpError(os.ErrNotExist) {
		t.Error("IsHelpError should be false for other errors")
	}
}
