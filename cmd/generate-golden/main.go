// Command generate-golden writes internal/amix/testdata/amix_golden.json:
// hand-picked cases plus generated ones, each with amix and sumAi from the
// big.Float reference.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agbru/amixbench/internal/amix"
	"github.com/agbru/amixbench/internal/matrix"
	"github.com/agbru/amixbench/internal/workload"
)

// GoldenData is one entry of the golden file.
type GoldenData struct {
	Name  string      `json:"name"`
	N     int         `json:"n"`
	XY    []float64   `json:"xy"`
	Ai    []float64   `json:"ai"`
	Kijm  [][]float64 `json:"kijm"`
	Amix  float64     `json:"amix"`
	SumAi []float64   `json:"sum_ai"`
}

type handCase struct {
	name   string
	xy, ai []float64
	kijm   [][]float64
}

var handCases = []handCase{
	{"empty", []float64{}, []float64{}, [][]float64{}},
	{"single", []float64{0.3}, []float64{2.5}, [][]float64{{0}}},
	{"two-component", []float64{0.5, 0.5}, []float64{4, 9}, [][]float64{{0, 0.1}, {0.1, 0}}},
	{"no-interaction", []float64{0.2, 0.3, 0.5}, []float64{1, 4, 16}, [][]float64{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}}},
	{"full-cancel", []float64{0.4, 0.6}, []float64{3, 12}, [][]float64{{0, 1}, {1, 0}}},
}

func main() {
	outputDir := flag.String("out", "internal/amix/testdata", "Output directory for the golden file")
	seed := flag.Int64("seed", workload.DefaultSeed, "Seed of the generated cases")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Generating golden data...")
	var data []GoldenData
	for _, hc := range handCases {
		kijm, err := matrix.FromRows(hc.kijm)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error in case %s: %v\n", hc.name, err)
			os.Exit(1)
		}
		data = append(data, golden(hc.name, amix.Problem{N: len(hc.xy), XY: hc.xy, Ai: hc.ai, Kijm: kijm}))
	}
	for _, n := range []int{3, 5, 8, 13} {
		p, err := workload.NewProblem(n, *seed)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating n=%d: %v\n", n, err)
			os.Exit(1)
		}
		data = append(data, golden(fmt.Sprintf("random-n%d", n), p))
	}

	filename := filepath.Join(*outputDir, "amix_golden.json")
	file, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully generated %d cases at %s\n", len(data), filename)
}

func golden(name string, p amix.Problem) GoldenData {
	value, sums := amix.ReferenceSums(p)
	rows := make([][]float64, p.N)
	for i := range rows {
		rows[i] = append([]float64(nil), p.Kijm.Row(i)...)
	}
	fmt.Printf("Generated %s (n=%d)\n", name, p.N)
	return GoldenData{Name: name, N: p.N, XY: p.XY, Ai: p.Ai, Kijm: rows, Amix: value, SumAi: sums}
}
