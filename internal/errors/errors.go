// Package errors provides structured CLI error types for qterm.
//
// CLIError wraps errors with user-facing messages, hints, and exit codes
// to provide consistent, actionable error output across all commands.
package errors

import (
	"errors"
	"fmt"
)

// Exit codes for CLI errors.
const (
	ExitSuccess      = 0  // Successful execution
	ExitGeneral      = 1  // General error
	ExitNotAvailable = 2  // Backend or AI CLI not installed/unreachable
	ExitConfig       = 4  // Configuration error
	ExitTimeout      = 5  // Execution timeout
	ExitExecution    = 6  // Execution failure
	ExitUsage        = 64 // Command line usage error (BSD convention)
)

// CLIError represents a user-facing CLI error with actionable guidance.
type CLIError struct {
	// Message is the primary error message shown to the user.
	Message string

	// Hint provides actionable guidance on how to fix the error.
	Hint string

	// Cause is the underlying error, if any.
	Cause error

	// Code is the exit code for the CLI.
	Code int
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// New creates a new CLIError with the given message and exit code.
func New(code int, message string) *CLIError {
	return &CLIError{
		Message: message,
		Code:    code,
	}
}

// Wrap wraps an existing error with a CLIError.
func Wrap(code int, message string, cause error) *CLIError {
	return &CLIError{
		Message: message,
		Cause:   cause,
		Code:    code,
	}
}

// WithHint adds a hint to the error.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// As is a convenience function for errors.As with CLIError.
func As(err error, target **CLIError) bool {
	return errors.As(err, target)
}

// --- Common error constructors ---

// CLINotAvailable returns an error indicating the AI CLI binary was not found.
func CLINotAvailable() *CLIError {
	return &CLIError{
		Message: "AI CLI not found on this system",
		Hint:    "Install the q CLI or switch backends with 'qterm config set backend wsl|ssh'",
		Code:    ExitNotAvailable,
	}
}

// BackendNotAvailable returns an error for an unusable execution backend.
func BackendNotAvailable(backend string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Backend %q is not available", backend),
		Hint:    "Run 'qterm doctor' to see which backends are usable",
		Code:    ExitNotAvailable,
	}
}

// SSHNotConfigured returns an error for a missing SSH target.
func SSHNotConfigured() *CLIError {
	return &CLIError{
		Message: "SSH target not configured",
		Hint:    "Run 'qterm ssh set --host <host> --user <user>' first",
		Code:    ExitConfig,
	}
}

// ExecutionTimeout returns an error for a timed-out command.
func ExecutionTimeout(cause error) *CLIError {
	return &CLIError{
		Message: "Command timed out",
		Cause:   cause,
		Code:    ExitTimeout,
	}
}

// ExecutionFailed returns an error for a command that exited non-zero.
func ExecutionFailed(cause error) *CLIError {
	return &CLIError{
		Message: "Command failed",
		Cause:   cause,
		Code:    ExitExecution,
	}
}
