package config

import (
	"fmt"
	"regexp"
	"slices"
	"time"
)

var (
	// Project name: must start with lowercase letter, may contain lowercase, digits, hyphens.
	// Hyphens must not be consecutive or trailing.
	projectNamePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

	// Interpreter version: dotted numeric components, e.g. "3", "3.10", "3.10.4".
	versionPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*$`)
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a configuration for errors and returns warnings for non-fatal issues.
func Validate(cfg *Config) (warnings []string, err error) {
	if cfg.Name != "" {
		if err := ValidateProjectName(cfg.Name); err != nil {
			return nil, err
		}
	}

	if err := validateRuntime(cfg); err != nil {
		return nil, err
	}

	if err := validateTests(cfg); err != nil {
		return nil, err
	}

	if err := validateStages(cfg.Stages); err != nil {
		return nil, err
	}

	if !cfg.Runtime.IsolateEnabled() && slices.Contains(cfg.Stages, "install") {
		warnings = append(warnings, "runtime.isolate is false: dependencies are installed into the host interpreter")
	}

	return warnings, nil
}

func validateRuntime(cfg *Config) error {
	if v := cfg.Runtime.Version; v != "" && !versionPattern.MatchString(v) {
		return &ValidationError{
			Field:   "runtime.version",
			Message: fmt.Sprintf("%q must be dotted numeric components (e.g. \"3.10\")", v),
		}
	}
	return nil
}

func validateTests(cfg *Config) error {
	if len(cfg.Tests.Entries) == 0 {
		return &ValidationError{Field: "tests.entries", Message: "at least one entry is required"}
	}

	seen := make(map[string]int, len(cfg.Tests.Entries))
	for i, e := range cfg.Tests.Entries {
		if e.Path == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("tests.entries[%d].path", i),
				Message: "is required",
			}
		}
		if prev, dup := seen[e.Label]; dup {
			return &ValidationError{
				Field:   fmt.Sprintf("tests.entries[%d].label", i),
				Message: fmt.Sprintf("%q duplicates tests.entries[%d]", e.Label, prev),
			}
		}
		seen[e.Label] = i
	}

	if !slices.Contains(ValidFormats(), cfg.Tests.Format) {
		return &ValidationError{
			Field:   "tests.format",
			Message: fmt.Sprintf("%q is not one of %v", cfg.Tests.Format, ValidFormats()),
		}
	}

	if cfg.Tests.Timeout != "" {
		d, err := time.ParseDuration(cfg.Tests.Timeout)
		if err != nil || d <= 0 {
			return &ValidationError{
				Field:   "tests.timeout",
				Message: fmt.Sprintf("%q must be a positive duration (e.g. \"10m\")", cfg.Tests.Timeout),
			}
		}
	}

	return nil
}

func validateStages(stages []string) error {
	seen := make(map[string]bool, len(stages))
	for i, s := range stages {
		if !slices.Contains(DefaultStages, s) {
			return &ValidationError{
				Field:   fmt.Sprintf("stages[%d]", i),
				Message: fmt.Sprintf("unknown stage %q (valid: %v)", s, DefaultStages),
			}
		}
		if seen[s] {
			return &ValidationError{
				Field:   fmt.Sprintf("stages[%d]", i),
				Message: fmt.Sprintf("stage %q listed twice", s),
			}
		}
		seen[s] = true
	}
	return nil
}

// ValidateProjectName checks if a project name is valid.
func ValidateProjectName(name string) error {
	if name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if len(name) > 128 {
		return &ValidationError{Field: "name", Message: "must be 128 characters or less"}
	}
	if !projectNamePattern.MatchString(name) {
		return &ValidationError{
			Field:   "name",
			Message: "must match pattern ^[a-z][a-z0-9]*(-[a-z0-9]+)*$ (lowercase letters, digits, non-consecutive hyphens)",
		}
	}
	return nil
}

// TimeoutDuration returns the per-entry timeout, or zero for no timeout.
// The value is validated at load time, so parse errors yield zero.
func (t TestsConfig) TimeoutDuration() time.Duration {
	if t.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(t.Timeout)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}
