// Package config provides configuration loading and validation for .testrig.yml.
package config

// Config represents the complete .testrig.yml configuration.
type Config struct {
	Name         string             `yaml:"name,omitempty"`
	Trigger      TriggerConfig      `yaml:"trigger,omitempty"`
	Runtime      RuntimeConfig      `yaml:"runtime,omitempty"`
	Dependencies DependenciesConfig `yaml:"dependencies,omitempty"`
	Tests        TestsConfig        `yaml:"tests"`
	Stages       []string           `yaml:"stages,omitempty"`
	Env          map[string]string  `yaml:"env,omitempty"`
}

// TriggerConfig decides which events are allowed to start a run.
type TriggerConfig struct {
	PrimaryBranch string `yaml:"primary_branch,omitempty"`
}

// RuntimeConfig describes the interpreter the tests run under.
type RuntimeConfig struct {
	Interpreter string `yaml:"interpreter,omitempty"`
	Version     string `yaml:"version,omitempty"` // Empty accepts any version
	Path        string `yaml:"path,omitempty"`    // Explicit interpreter path, skips PATH lookup
	Isolate     *bool  `yaml:"isolate,omitempty"` // Create a virtual environment (default: true)
}

// DependenciesConfig describes the dependency manifest and its cache.
type DependenciesConfig struct {
	Manifest string   `yaml:"manifest,omitempty"`
	CacheDir string   `yaml:"cache_dir,omitempty"`
	Cache    *bool    `yaml:"cache,omitempty"` // Restore and save the environment cache (default: true)
	Args     []string `yaml:"args,omitempty"`  // Extra arguments for the installer
}

// TestsConfig lists the test entry points and the execution policy.
type TestsConfig struct {
	ContinueOnFailure *bool         `yaml:"continue_on_failure,omitempty"` // default: true
	Timeout           string        `yaml:"timeout,omitempty"`             // per entry, e.g. "10m"
	Format            string        `yaml:"format,omitempty"`              // auto, unittest, pytest, none
	Entries           []EntryConfig `yaml:"entries"`
}

// EntryConfig declares a single test entry point.
type EntryConfig struct {
	Path  string   `yaml:"path"`
	Label string   `yaml:"label,omitempty"`
	Args  []string `yaml:"args,omitempty"`
}

// IsolateEnabled reports whether a virtual environment should be created.
func (r RuntimeConfig) IsolateEnabled() bool {
	return r.Isolate == nil || *r.Isolate
}

// CacheEnabled reports whether the dependency cache is used.
func (d DependenciesConfig) CacheEnabled() bool {
	return d.Cache == nil || *d.Cache
}

// ContinueEnabled reports whether the remaining entries run after a failure.
func (t TestsConfig) ContinueEnabled() bool {
	return t.ContinueOnFailure == nil || *t.ContinueOnFailure
}

// OutputFormat names a supported test output format.
type OutputFormat string

const (
	FormatAuto     OutputFormat = "auto"
	FormatUnittest OutputFormat = "unittest"
	FormatPytest   OutputFormat = "pytest"
	FormatNone     OutputFormat = "none"
)

// ValidFormats returns the accepted values for tests.format.
func ValidFormats() []string {
	return []string{string(FormatAuto), string(FormatUnittest), string(FormatPytest), string(FormatNone)}
}
