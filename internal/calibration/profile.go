// Package calibration finds the fastest amix strategy per problem size on
// the current machine and persists the choice in a profile.
// This file implements calibration profile persistence.
package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"time"

	"github.com/agbru/amixbench/internal/cli"
)

// CalibrationProfile stores the results of a calibration run together
// with the hardware they were measured on, so that stale or foreign
// profiles can be rejected.
type CalibrationProfile struct {
	// Hardware identification
	CPUModel  string   `json:"cpu_model"`
	NumCPU    int      `json:"num_cpu"`
	GOARCH    string   `json:"goarch"`
	GOOS      string   `json:"goos"`
	GoVersion string   `json:"go_version"`
	WordSize  int      `json:"word_size"`
	Features  []string `json:"cpu_features,omitempty"`

	// Choices holds the fastest strategy per calibrated size, sorted by N.
	Choices []SizeChoice `json:"choices"`

	// Calibration metadata
	CalibratedAt    time.Time `json:"calibrated_at"`
	Iterations      int       `json:"iterations"`
	CalibrationTime string    `json:"calibration_time"`

	ProfileVersion int `json:"profile_version"`
}

// SizeChoice is the calibrated strategy for one problem size.
type SizeChoice struct {
	N        int     `json:"n"`
	Strategy string  `json:"strategy"`
	MeanNs   float64 `json:"mean_ns"`
}

const (
	// CurrentProfileVersion is the version of the profile format.
	CurrentProfileVersion = 1

	// DefaultProfileFileName is the default name for the calibration profile file.
	DefaultProfileFileName = ".amixbench_calibration.json"
)

// GetDefaultProfilePath returns the default path for the calibration profile.
// It uses the user's home directory if available, otherwise the current directory.
func GetDefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultProfileFileName
	}
	return filepath.Join(home, DefaultProfileFileName)
}

// NewProfile creates an empty profile describing the current hardware.
func NewProfile() *CalibrationProfile {
	host := cli.DetectCPU()
	return &CalibrationProfile{
		CPUModel:       getCPUModel(),
		NumCPU:         runtime.NumCPU(),
		GOARCH:         runtime.GOARCH,
		GOOS:           runtime.GOOS,
		GoVersion:      runtime.Version(),
		WordSize:       32 << (^uint(0) >> 63),
		Features:       host.Features,
		CalibratedAt:   time.Now(),
		ProfileVersion: CurrentProfileVersion,
	}
}

func getCPUModel() string {
	return fmt.Sprintf("%s-%d-cores", runtime.GOARCH, runtime.NumCPU())
}

// LoadProfile loads a calibration profile from path, or from the default
// path when path is empty.
func LoadProfile(path string) (*CalibrationProfile, error) {
	if path == "" {
		path = GetDefaultProfilePath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile CalibrationProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	return &profile, nil
}

// SaveProfile saves the calibration profile to the specified path.
// If path is empty, uses the default profile path.
func (p *CalibrationProfile) SaveProfile(path string) error {
	if path == "" {
		path = GetDefaultProfilePath()
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}

	return nil
}

// IsValid reports whether the profile was measured on hardware like the
// current one: same format version, CPU count, architecture, word size and
// detected SIMD features.
func (p *CalibrationProfile) IsValid() bool {
	if p == nil {
		return false
	}
	if p.ProfileVersion != CurrentProfileVersion {
		return false
	}
	if p.NumCPU != runtime.NumCPU() || p.GOARCH != runtime.GOARCH {
		return false
	}
	if p.WordSize != 32<<(^uint(0)>>63) {
		return false
	}
	return slices.Equal(p.Features, cli.DetectCPU().Features)
}

// IsStale checks if the profile is older than the given duration.
func (p *CalibrationProfile) IsStale(maxAge time.Duration) bool {
	if p == nil {
		return true
	}
	return time.Since(p.CalibratedAt) > maxAge
}

// String returns a human-readable summary of the profile.
func (p *CalibrationProfile) String() string {
	if p == nil {
		return "<nil profile>"
	}
	return fmt.Sprintf("CalibrationProfile{CPU: %s, Sizes: %d, Calibrated: %s}",
		p.CPUModel, len(p.Choices), p.CalibratedAt.Format(time.RFC3339))
}

// SetChoice records c, replacing any previous choice for the same size.
func (p *CalibrationProfile) SetChoice(c SizeChoice) {
	i := sort.Search(len(p.Choices), func(i int) bool { return p.Choices[i].N >= c.N })
	if i < len(p.Choices) && p.Choices[i].N == c.N {
		p.Choices[i] = c
		return
	}
	p.Choices = slices.Insert(p.Choices, i, c)
}

// StrategyFor returns the strategy calibrated for the size closest to n,
// preferring the smaller size on a tie. ok is false when the profile holds
// no choice.
func (p *CalibrationProfile) StrategyFor(n int) (strategy string, ok bool) {
	if p == nil || len(p.Choices) == 0 {
		return "", false
	}
	best := p.Choices[0]
	for _, c := range p.Choices[1:] {
		if abs(c.N-n) < abs(best.N-n) {
			best = c
		}
	}
	return best.Strategy, true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// LoadOrCreateProfile loads an existing profile or creates a new one if
// none is found or the stored one does not match the current hardware.
// The boolean reports whether the profile was loaded.
func LoadOrCreateProfile(path string) (*CalibrationProfile, bool) {
	profile, err := LoadProfile(path)
	if err != nil {
		return NewProfile(), false
	}
	if !profile.IsValid() {
		return NewProfile(), false
	}
	return profile, true
}

// ProfileExists checks if a calibration profile exists at the given path.
func ProfileExists(path string) bool {
	if path == "" {
		path = GetDefaultProfilePath()
	}
	_, err := os.Stat(path)
	return err == nil
}
