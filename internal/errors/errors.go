// Package apperrors defines the structured error types of the amixbench
// driver. Each type maps onto one process exit code, so the command can tell
// a bad flag from a timeout or from strategies that disagree.
//
// Every type that carries a cause implements Unwrap, so errors.Is and
// errors.As see through it.
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Process exit codes.
const (
	ExitSuccess       = 0   // Run completed and every strategy agreed.
	ExitErrorGeneric  = 1   // Any other failure.
	ExitErrorTimeout  = 2   // The -timeout budget ran out.
	ExitErrorMismatch = 3   // Two strategies, or a strategy and the oracle, disagreed.
	ExitErrorConfig   = 4   // Invalid flags or environment.
	ExitErrorCanceled = 130 // SIGINT/SIGTERM.
)

// ConfigError is an invalid flag, environment value or profile setting.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A ConfigError holding the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// KernelError wraps a failure reported by the amix kernel for one strategy
// and problem size, typically a buffer size error from validation.
type KernelError struct {
	Strategy string
	N        int
	Cause    error
}

func (e KernelError) Error() string {
	return fmt.Sprintf("strategy %s (n=%d): %v", e.Strategy, e.N, e.Cause)
}

// Unwrap returns the kernel error.
func (e KernelError) Unwrap() error { return e.Cause }

// MismatchError reports results that disagree beyond the relative
// tolerance for one problem size.
type MismatchError struct {
	// N is the problem size the results were computed for.
	N int
	// Strategies lists the strategies whose results disagreed.
	Strategies []string
	// Spread is the largest relative difference observed.
	Spread float64
	// Tolerance is the bound that was exceeded.
	Tolerance float64
}

func (e MismatchError) Error() string {
	return fmt.Sprintf("results disagree for n=%d (%s): relative spread %.3g exceeds %.3g",
		e.N, strings.Join(e.Strategies, ", "), e.Spread, e.Tolerance)
}

// WrapError wraps err with a formatted context message using %w. It
// returns nil when err is nil.
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError reports whether err is a context cancellation or deadline.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ValidationError is an input that failed a check, such as an asymmetric
// kijm table.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message describes why validation failed.
	Message string
	// Value is the invalid value (optional, may be nil).
	Value any
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, message string, value any) error {
	return ValidationError{Field: field, Message: message, Value: value}
}

// ExitCode maps err onto the process exit code without printing anything.
func ExitCode(err error) int {
	var (
		cfgErr      ConfigError
		mismatchErr MismatchError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	case errors.As(err, &cfgErr):
		return ExitErrorConfig
	case errors.As(err, &mismatchErr):
		return ExitErrorMismatch
	default:
		return ExitErrorGeneric
	}
}
