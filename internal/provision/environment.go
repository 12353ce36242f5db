// Package provision resolves the requested interpreter and prepares an
// isolated environment for installing dependencies and running tests.
package provision

import (
	"sort"
	"strings"
)

// Environment is the provisioned runtime. It is created once per run and
// passed explicitly to the installer and the test runner.
type Environment struct {
	// Interpreter is the executable used for install and run. When isolating
	// it points inside Dir.
	Interpreter string `json:"interpreter" yaml:"interpreter"`
	// Base is the host interpreter the environment was created from.
	Base     string            `json:"base" yaml:"base"`
	Version  string            `json:"version" yaml:"version"`
	Dir      string            `json:"dir,omitempty" yaml:"dir,omitempty"`
	Vars     map[string]string `json:"vars,omitempty" yaml:"vars,omitempty"`
	CacheKey string            `json:"cache_key" yaml:"cache_key"`
	CacheHit bool              `json:"cache_hit" yaml:"cache_hit"`
}

// Isolated reports whether the environment lives in its own directory.
func (e *Environment) Isolated() bool {
	return e.Dir != ""
}

// Environ overlays the environment variables onto base, which is usually
// os.Environ().
func (e *Environment) Environ(base []string) []string {
	return MergeEnv(base, e.Vars)
}

// MergeEnv returns base with vars applied. Entries of base whose key is in
// vars are dropped; vars are appended in key order.
func MergeEnv(base []string, vars map[string]string) []string {
	if len(vars) == 0 {
		return base
	}
	env := make([]string, 0, len(base)+len(vars))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, override := vars[key]; override {
			continue
		}
		env = append(env, kv)
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+vars[k])
	}
	return env
}
