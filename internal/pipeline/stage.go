package pipeline

import (
	"path/filepath"

	"github.com/redobl/testrig/internal/config"
	testrigerrors "github.com/redobl/testrig/internal/errors"
	"github.com/redobl/testrig/internal/provision"
	"github.com/redobl/testrig/internal/runner"
)

// StageKind identifies a pipeline stage.
type StageKind string

const (
	StageCheckout  StageKind = "checkout"
	StageProvision StageKind = "provision"
	StageInstall   StageKind = "install"
	StageRun       StageKind = "run"
)

// Stage is a typed stage descriptor. Exactly one payload matching Kind is
// set; checkout needs none.
type Stage struct {
	Kind      StageKind
	Provision *provision.Options
	Install   *InstallSpec
	Run       *RunSpec
}

func (s Stage) String() string { return string(s.Kind) }

// InstallSpec describes the dependency installation stage.
type InstallSpec struct {
	Manifest string // Absolute path to the manifest
	Args     []string
}

// RunSpec describes the test execution stage.
type RunSpec struct {
	Entries []runner.TestEntry
	Options runner.Options
}

// Overrides carries command-line settings that take precedence over the
// configuration file.
type Overrides struct {
	ContinueOnFailure *bool // --continue / --fail-fast
	NoCache           bool  // --no-cache
}

// BuildStages turns the configured stage list into typed descriptors.
// The order is validated: install needs a preceding provision stage and
// run, when present, must come last.
func BuildStages(cfg *config.Config, root string, ov Overrides) ([]Stage, error) {
	names := cfg.Stages
	if len(names) == 0 {
		names = config.DefaultStages
	}

	stages := make([]Stage, 0, len(names))
	seen := make(map[StageKind]bool)
	for i, name := range names {
		kind := StageKind(name)
		if seen[kind] {
			return nil, testrigerrors.Configf("stages[%d]: duplicate stage %q", i, name)
		}
		seen[kind] = true

		switch kind {
		case StageCheckout:
			stages = append(stages, Stage{Kind: kind})
		case StageProvision:
			stages = append(stages, Stage{Kind: kind, Provision: provisionOptions(cfg, root, ov)})
		case StageInstall:
			if !seen[StageProvision] {
				return nil, testrigerrors.Configf("stages[%d]: install requires a preceding provision stage", i)
			}
			stages = append(stages, Stage{Kind: kind, Install: &InstallSpec{
				Manifest: resolve(root, cfg.Dependencies.Manifest),
				Args:     cfg.Dependencies.Args,
			}})
		case StageRun:
			if i != len(names)-1 {
				return nil, testrigerrors.Configf("stages[%d]: run must be the last stage", i)
			}
			stages = append(stages, Stage{Kind: kind, Run: runSpec(cfg, root, ov)})
		default:
			return nil, testrigerrors.Configf("stages[%d]: unknown stage %q", i, name)
		}
	}
	return stages, nil
}

func provisionOptions(cfg *config.Config, root string, ov Overrides) *provision.Options {
	path := cfg.Runtime.Path
	if path != "" && !filepath.IsAbs(path) && filepath.Base(path) != path {
		path = resolve(root, path)
	}
	return &provision.Options{
		Interpreter: cfg.Runtime.Interpreter,
		Version:     cfg.Runtime.Version,
		Path:        path,
		Isolate:     cfg.Runtime.IsolateEnabled(),
		CacheDir:    cfg.Dependencies.CacheDir,
		UseCache:    cfg.Dependencies.CacheEnabled() && !ov.NoCache,
		Root:        root,
	}
}

func runSpec(cfg *config.Config, root string, ov Overrides) *RunSpec {
	cont := cfg.Tests.ContinueEnabled()
	if ov.ContinueOnFailure != nil {
		cont = *ov.ContinueOnFailure
	}
	return &RunSpec{
		Entries: runner.EntriesFromConfig(cfg.Tests.Entries),
		Options: runner.Options{
			Root:              root,
			ContinueOnFailure: cont,
			Timeout:           cfg.Tests.TimeoutDuration(),
			Format:            cfg.Tests.Format,
			Env:               cfg.Env,
		},
	}
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
