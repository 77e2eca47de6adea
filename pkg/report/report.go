// Package report defines the JSON document amixbench prints with -json.
// It is the only public package, so other tools can decode the output.
package report

import (
	"encoding/json"
	"io"
	"time"
)

// Report is the complete result of one benchmark run.
type Report struct {
	Version    string       `json:"version"`
	Timestamp  time.Time    `json:"timestamp"`
	Seed       int64        `json:"seed"`
	Iterations int          `json:"iterations"`
	Tolerance  float64      `json:"tolerance"`
	CPU        CPUInfo      `json:"cpu"`
	Sizes      []SizeReport `json:"sizes"`
}

// CPUInfo describes the machine the timings were taken on.
type CPUInfo struct {
	Arch     string   `json:"arch"`
	NumCPU   int      `json:"num_cpu"`
	Features []string `json:"features,omitempty"`
}

// SizeReport groups the results of every strategy for one problem size.
type SizeReport struct {
	N int `json:"n"`
	// Reference is the big.Float oracle value; omitted when not computed.
	Reference *float64 `json:"reference,omitempty"`
	// Consistent is true when every successful strategy agreed within the
	// tolerance (and with Reference, when present).
	Consistent bool             `json:"consistent"`
	Spread     float64          `json:"spread"`
	SumAi      []float64        `json:"sum_ai,omitempty"`
	Results    []StrategyResult `json:"results"`
}

// StrategyResult is the outcome of timing one strategy at one size.
type StrategyResult struct {
	Strategy string  `json:"strategy"`
	Amix     float64 `json:"amix"`
	// MinNs and MeanNs are per-invocation timings in nanoseconds.
	MinNs  float64 `json:"min_ns"`
	MeanNs float64 `json:"mean_ns"`
	Error  string  `json:"error,omitempty"`
}

// Write encodes r as indented JSON.
func (r Report) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Read decodes a report written by Write.
func Read(r io.Reader) (Report, error) {
	var rep Report
	err := json.NewDecoder(r).Decode(&rep)
	return rep, err
}
