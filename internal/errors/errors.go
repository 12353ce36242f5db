// Package errors provides structured error types and exit codes for testrig.
package errors

import (
	"errors"
	"fmt"
)

// Exit codes reported by the CLI.
const (
	ExitSuccess        = 0 // All entries passed, or the trigger did not match
	ExitRuntimeError   = 1 // Test failure or other runtime error
	ExitConfigError    = 2 // Configuration error (invalid .testrig.yml, bad flags)
	ExitProvisionError = 3 // Interpreter could not be provisioned
	ExitInstallError   = 4 // Dependencies could not be installed
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindConfig
	KindNotFound
	KindValidation
	KindProvision
	KindInstall
)

// TestrigError is the base error type for testrig.
type TestrigError struct {
	Kind    ErrorKind
	Message string
	Stage   string // Pipeline stage if applicable
	Cause   error  // Underlying error
}

func (e *TestrigError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("[%s] %s", e.Stage, e.Message)
	}
	return e.Message
}

func (e *TestrigError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *TestrigError) ExitCode() int {
	switch e.Kind {
	case KindConfig, KindValidation:
		return ExitConfigError
	case KindProvision:
		return ExitProvisionError
	case KindInstall:
		return ExitInstallError
	default:
		return ExitRuntimeError
	}
}

// IsFatal reports whether the error aborts a run before any test executes.
func (e *TestrigError) IsFatal() bool {
	return e.Kind == KindProvision || e.Kind == KindInstall || e.Kind == KindConfig || e.Kind == KindValidation
}

// New creates a new runtime error.
func New(message string) *TestrigError {
	return &TestrigError{
		Kind:    KindRuntime,
		Message: message,
	}
}

// Newf creates a new runtime error with formatting.
func Newf(format string, args ...interface{}) *TestrigError {
	return New(fmt.Sprintf(format, args...))
}

// Config creates a new configuration error.
func Config(message string) *TestrigError {
	return &TestrigError{
		Kind:    KindConfig,
		Message: message,
	}
}

// Configf creates a new configuration error with formatting.
func Configf(format string, args ...interface{}) *TestrigError {
	return Config(fmt.Sprintf(format, args...))
}

// Provision creates a provisioning error. It is fatal for the run.
func Provision(cause error, message string) *TestrigError {
	return &TestrigError{
		Kind:    KindProvision,
		Stage:   "provision",
		Message: message,
		Cause:   cause,
	}
}

// Provisionf creates a provisioning error with formatting.
func Provisionf(format string, args ...interface{}) *TestrigError {
	return Provision(nil, fmt.Sprintf(format, args...))
}

// Install creates a dependency installation error. It is fatal for the run.
func Install(cause error, message string) *TestrigError {
	return &TestrigError{
		Kind:    KindInstall,
		Stage:   "install",
		Message: message,
		Cause:   cause,
	}
}

// Installf creates a dependency installation error with formatting.
func Installf(format string, args ...interface{}) *TestrigError {
	return Install(nil, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *TestrigError {
	return &TestrigError{
		Kind:    KindRuntime,
		Message: message,
		Cause:   err,
	}
}

// NotFound creates a not found error.
func NotFound(what, name string) *TestrigError {
	return &TestrigError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found: %s", what, name),
	}
}

// IsKind reports whether err is or wraps a TestrigError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var te *TestrigError
	if errors.As(err, &te) {
		return te.Kind == kind
	}
	return false
}

// IsProvision reports whether err is a provisioning error.
func IsProvision(err error) bool { return IsKind(err, KindProvision) }

// IsInstall reports whether err is a dependency installation error.
func IsInstall(err error) bool { return IsKind(err, KindInstall) }

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var te *TestrigError
	if errors.As(err, &te) {
		return te.ExitCode()
	}
	return ExitRuntimeError
}
