package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerWritesComponentField(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := NewLogger(&buf, "orchestration")

	logger.Warn().Int("n", 50).Msg("slow strategy")

	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if event["component"] != "orchestration" {
		t.Errorf("component = %v", event["component"])
	}
	if event["n"] != float64(50) {
		t.Errorf("n = %v", event["n"])
	}
	if _, ok := event["time"]; !ok {
		t.Error("missing timestamp")
	}
}

func TestDefaultLevelFiltersInfo(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := NewLogger(&buf, "app")
	logger.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("info event should be filtered at the default level, got %q", buf.String())
	}
	debug := logger.Level(zerolog.DebugLevel)
	debug.Info().Msg("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("raising the level should let info through")
	}
}

func TestConsoleLogger(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := NewConsoleLogger(&buf, "calibration", true)
	logger.Error().Str("strategy", "fused").Msg("failed")

	out := buf.String()
	for _, want := range []string{"ERR", "failed", "strategy=fused", "component=calibration"} {
		if !strings.Contains(out, want) {
			t.Errorf("console output %q lacks %q", out, want)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("noColor logger emitted ANSI codes")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" INFO ", zerolog.InfoLevel},
		{"error", zerolog.ErrorLevel},
		{"", DefaultLevel},
		{"verbose", DefaultLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
