package config

import (
	"path/filepath"
	"strings"
)

// Default configuration values.
const (
	DefaultPrimaryBranch = "main"
	DefaultInterpreter   = "python"
	DefaultManifest      = "requirements.txt"
	DefaultCacheDir      = ".testrig/cache"
	DefaultFormat        = FormatAuto
)

// Environment variables that override configuration values.
const (
	EnvCacheDir      = "TESTRIG_CACHE_DIR"
	EnvPrimaryBranch = "TESTRIG_PRIMARY_BRANCH"
)

// DefaultStages is the stage order used when the config does not list stages.
var DefaultStages = []string{"checkout", "provision", "install", "run"}

// applyDefaults fills in default values for unset configuration fields.
func applyDefaults(cfg *Config, getenv func(string) string) {
	applyTriggerDefaults(cfg, getenv)
	applyRuntimeDefaults(cfg)
	applyDependencyDefaults(cfg, getenv)
	applyTestsDefaults(cfg)
	if len(cfg.Stages) == 0 {
		cfg.Stages = append([]string(nil), DefaultStages...)
	}
}

func applyTriggerDefaults(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvPrimaryBranch); v != "" {
		cfg.Trigger.PrimaryBranch = v
	}
	if cfg.Trigger.PrimaryBranch == "" {
		cfg.Trigger.PrimaryBranch = DefaultPrimaryBranch
	}
}

func applyRuntimeDefaults(cfg *Config) {
	if cfg.Runtime.Interpreter == "" {
		cfg.Runtime.Interpreter = DefaultInterpreter
	}
}

func applyDependencyDefaults(cfg *Config, getenv func(string) string) {
	if cfg.Dependencies.Manifest == "" {
		cfg.Dependencies.Manifest = DefaultManifest
	}
	if v := getenv(EnvCacheDir); v != "" {
		cfg.Dependencies.CacheDir = v
	}
	if cfg.Dependencies.CacheDir == "" {
		cfg.Dependencies.CacheDir = DefaultCacheDir
	}
}

func applyTestsDefaults(cfg *Config) {
	if cfg.Tests.Format == "" {
		cfg.Tests.Format = string(DefaultFormat)
	}
	for i := range cfg.Tests.Entries {
		if cfg.Tests.Entries[i].Label == "" {
			cfg.Tests.Entries[i].Label = DefaultLabel(cfg.Tests.Entries[i].Path)
		}
	}
}

// DefaultLabel derives an entry label from its path:
// "tests/test_player.py" becomes "test_player".
func DefaultLabel(path string) string {
	base := filepath.Base(filepath.ToSlash(path))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
