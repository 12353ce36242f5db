package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fullConfig = `
name: dobl-whoami-bot
trigger:
  primary_branch: master
runtime:
  interpreter: python
  version: "3.10"
  isolate: false
dependencies:
  manifest: deps.txt
  cache_dir: .cache/testrig
  args: ["--no-input"]
tests:
  continue_on_failure: false
  timeout: 5m
  format: unittest
  entries:
    - path: tests/test_mapparser.py
      label: mapparser
    - path: tests/test_player.py
      args: ["-v"]
stages: [provision, install, run]
env:
  PYTHONHASHSEED: "0"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".testrig.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func noEnv(string) string { return "" }

func TestLoad_ValidFull(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, fullConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Name != "dobl-whoami-bot" {
		t.Errorf("Name = %q, want %q", cfg.Name, "dobl-whoami-bot")
	}
	if cfg.Trigger.PrimaryBranch != "master" {
		t.Errorf("Trigger.PrimaryBranch = %q, want master", cfg.Trigger.PrimaryBranch)
	}
	if cfg.Runtime.Version != "3.10" {
		t.Errorf("Runtime.Version = %q, want 3.10", cfg.Runtime.Version)
	}
	if cfg.Runtime.IsolateEnabled() {
		t.Error("Runtime.IsolateEnabled() = true, want false")
	}
	if cfg.Tests.ContinueEnabled() {
		t.Error("Tests.ContinueEnabled() = true, want false")
	}
	if len(cfg.Tests.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(cfg.Tests.Entries))
	}
	if cfg.Tests.Entries[1].Args[0] != "-v" {
		t.Errorf("Entries[1].Args = %v, want [-v]", cfg.Tests.Entries[1].Args)
	}
	if cfg.Env["PYTHONHASHSEED"] != "0" {
		t.Errorf("Env[PYTHONHASHSEED] = %q, want 0", cfg.Env["PYTHONHASHSEED"])
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()
	_, err := Load("/nonexistent/path/.testrig.yml")
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("error = %q, want read failure", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "tests: [")

	if _, err := Load(path); err == nil {
		t.Fatal("Load() expected error for invalid YAML")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeConfig(t, "tests:\n  entries:\n    - path: tests/test_player.py\n")
	t.Setenv(EnvCacheDir, "")
	t.Setenv(EnvPrimaryBranch, "")

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults() error = %v", err)
	}

	if cfg.Trigger.PrimaryBranch != DefaultPrimaryBranch {
		t.Errorf("PrimaryBranch = %q, want %q", cfg.Trigger.PrimaryBranch, DefaultPrimaryBranch)
	}
	if cfg.Runtime.Interpreter != DefaultInterpreter {
		t.Errorf("Interpreter = %q, want %q", cfg.Runtime.Interpreter, DefaultInterpreter)
	}
	if cfg.Dependencies.Manifest != DefaultManifest {
		t.Errorf("Manifest = %q, want %q", cfg.Dependencies.Manifest, DefaultManifest)
	}
	if cfg.Dependencies.CacheDir != DefaultCacheDir {
		t.Errorf("CacheDir = %q, want %q", cfg.Dependencies.CacheDir, DefaultCacheDir)
	}
	if !cfg.Runtime.IsolateEnabled() || !cfg.Dependencies.CacheEnabled() || !cfg.Tests.ContinueEnabled() {
		t.Error("boolean defaults should all be true")
	}
	if cfg.Tests.Format != string(FormatAuto) {
		t.Errorf("Format = %q, want auto", cfg.Tests.Format)
	}
	if got := cfg.Tests.Entries[0].Label; got != "test_player" {
		t.Errorf("default label = %q, want test_player", got)
	}
	if strings.Join(cfg.Stages, ",") != "checkout,provision,install,run" {
		t.Errorf("Stages = %v, want default order", cfg.Stages)
	}
}

func TestApplyDefaults_EnvOverrides(t *testing.T) {
	cfg := &Config{Trigger: TriggerConfig{PrimaryBranch: "main"}}
	env := map[string]string{
		EnvCacheDir:      "/tmp/testrig-cache",
		EnvPrimaryBranch: "master",
	}

	applyDefaults(cfg, func(k string) string { return env[k] })

	if cfg.Dependencies.CacheDir != "/tmp/testrig-cache" {
		t.Errorf("CacheDir = %q, want env override", cfg.Dependencies.CacheDir)
	}
	if cfg.Trigger.PrimaryBranch != "master" {
		t.Errorf("PrimaryBranch = %q, want env override", cfg.Trigger.PrimaryBranch)
	}
}

func TestParseAndValidate(t *testing.T) {
	cfg, warnings, err := ParseAndValidate([]byte(fullConfig), noEnv)
	if err != nil {
		t.Fatalf("ParseAndValidate() error = %v", err)
	}
	if cfg.Tests.TimeoutDuration().Minutes() != 5 {
		t.Errorf("TimeoutDuration() = %v, want 5m", cfg.Tests.TimeoutDuration())
	}
	// isolate: false with an install stage is allowed but warned about.
	if len(warnings) != 1 || !strings.Contains(warnings[0], "isolate") {
		t.Errorf("warnings = %v, want one isolate warning", warnings)
	}
}

func TestParseAndValidate_SchemaError(t *testing.T) {
	_, _, err := ParseAndValidate([]byte("name: demo\n"), noEnv)
	if err == nil {
		t.Fatal("expected schema error for config without tests")
	}
}

func TestParseAndValidate_DuplicateLabels(t *testing.T) {
	data := `
tests:
  entries:
    - path: a/test_x.py
    - path: b/test_x.py
`
	_, _, err := ParseAndValidate([]byte(data), noEnv)
	if err == nil {
		t.Fatal("expected error for duplicate default labels")
	}
	if !strings.Contains(err.Error(), "duplicates") {
		t.Errorf("error = %q, want duplicate label message", err)
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	cfg, err := Parse([]byte(fullConfig))
	if err != nil {
		t.Fatal(err)
	}

	data, err := Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	again, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Marshal()) error = %v", err)
	}
	if again.Tests.Entries[0].Label != "mapparser" || again.Runtime.Version != "3.10" {
		t.Errorf("round trip lost fields: %+v", again)
	}
}

func TestDefaultLabel(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"tests/test_player.py", "test_player"},
		{"test_mapparser.py", "test_mapparser"},
		{"scripts/run-tests", "run-tests"},
		{"./a/b/c.sh", "c"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := DefaultLabel(tt.path); got != tt.want {
				t.Errorf("DefaultLabel(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
