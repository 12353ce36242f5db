// Package testrig provides public constants for tools that wrap the testrig CLI.
package testrig

// Exit codes returned by the testrig CLI.
// Scripts can compare against these instead of magic numbers.
const (
	// ExitSuccess indicates every test entry passed, or the trigger did not match.
	ExitSuccess = 0

	// ExitFailure indicates a test entry failed. When the failing entry's own
	// exit code is in the range 1-125 that code is propagated instead.
	ExitFailure = 1

	// ExitConfigError indicates an invalid or missing .testrig.yml.
	ExitConfigError = 2

	// ExitProvisionError indicates the requested interpreter could not be provisioned.
	ExitProvisionError = 3

	// ExitInstallError indicates the dependency manifest could not be installed.
	ExitInstallError = 4
)
