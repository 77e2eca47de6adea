// Package ui holds the color theme shared by the cli, orchestration and
// error-reporting code.
package ui

import (
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// Theme maps each role of a report element to an ANSI escape code.
type Theme struct {
	Name string
	// Primary marks strategy names.
	Primary string
	// Secondary marks sizes and environment facts.
	Secondary string
	// Success marks consistent results.
	Success string
	// Warning marks timings and tolerances.
	Warning string
	// Error marks failures and mismatches.
	Error string
	// Info marks amix values.
	Info      string
	Bold      string
	Underline string
	Reset     string
}

var (
	// DarkTheme is the default for color terminals.
	DarkTheme = Theme{
		Name:      "dark",
		Primary:   "\033[38;5;39m",
		Secondary: "\033[38;5;245m",
		Success:   "\033[38;5;82m",
		Warning:   "\033[38;5;220m",
		Error:     "\033[38;5;196m",
		Info:      "\033[38;5;141m",
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}

	// NoColorTheme emits no escape codes at all.
	NoColorTheme = Theme{Name: "none"}

	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// GetCurrentTheme returns the active theme.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme replaces the active theme. Tests use it to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// InitTheme selects NoColorTheme when noColor is set, when NO_COLOR is
// present in the environment (https://no-color.org/), or when out is not a
// terminal; otherwise DarkTheme.
func InitTheme(noColor bool, out *os.File) {
	SetCurrentTheme(selectTheme(noColor, out))
}

func selectTheme(noColor bool, out *os.File) Theme {
	if noColor {
		return NoColorTheme
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return NoColorTheme
	}
	if out != nil && !isatty.IsTerminal(out.Fd()) && !isatty.IsCygwinTerminal(out.Fd()) {
		return NoColorTheme
	}
	return DarkTheme
}

// ColorReset returns the reset escape code from the current theme.
func ColorReset() string { return GetCurrentTheme().Reset }

// ColorRed returns the error color from the current theme.
func ColorRed() string { return GetCurrentTheme().Error }

// ColorGreen returns the success color from the current theme.
func ColorGreen() string { return GetCurrentTheme().Success }

// ColorYellow returns the warning color from the current theme.
func ColorYellow() string { return GetCurrentTheme().Warning }

// ColorBlue returns the primary color from the current theme.
func ColorBlue() string { return GetCurrentTheme().Primary }

// ColorMagenta returns the info color from the current theme.
func ColorMagenta() string { return GetCurrentTheme().Info }

// ColorCyan returns the secondary color from the current theme.
func ColorCyan() string { return GetCurrentTheme().Secondary }

func ColorBold() string      { return GetCurrentTheme().Bold }
func ColorUnderline() string { return GetCurrentTheme().Underline }

// ErrorColors adapts the current theme to apperrors.ColorProvider.
type ErrorColors struct{}

func (ErrorColors) Yellow() string { return ColorYellow() }
func (ErrorColors) Red() string    { return ColorRed() }
func (ErrorColors) Reset() string  { return ColorReset() }
