// Package workflow converts between testrig configuration and GitHub
// Actions workflows.
package workflow

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/redobl/testrig/internal/config"
)

// Actions referenced by generated workflows.
const (
	checkoutAction    = "actions/checkout@v4"
	setupPythonAction = "actions/setup-python@v5"
	cacheAction       = "actions/cache@v4"
)

// Workflow is the subset of a GitHub Actions workflow testrig reads and
// writes.
type Workflow struct {
	Name string         `yaml:"name,omitempty"`
	On   Triggers       `yaml:"on"`
	Jobs map[string]Job `yaml:"jobs"`
}

// Triggers lists the events that start the workflow.
type Triggers struct {
	Push        *BranchFilter `yaml:"push,omitempty"`
	PullRequest *BranchFilter `yaml:"pull_request,omitempty"`
}

// UnmarshalYAML accepts the scalar ("on: push") and list
// ("on: [push, pull_request]") forms besides the mapping form.
func (t *Triggers) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		t.enable(node.Value)
	case yaml.SequenceNode:
		for _, n := range node.Content {
			t.enable(n.Value)
		}
	default:
		type plain Triggers
		return node.Decode((*plain)(t))
	}
	return nil
}

func (t *Triggers) enable(event string) {
	switch event {
	case "push":
		t.Push = &BranchFilter{}
	case "pull_request":
		t.PullRequest = &BranchFilter{}
	}
}

// BranchFilter restricts an event to branches.
type BranchFilter struct {
	Branches []string `yaml:"branches,omitempty"`
}

// Job is a single workflow job.
type Job struct {
	Name   string            `yaml:"name,omitempty"`
	RunsOn string            `yaml:"runs-on"`
	Env    map[string]string `yaml:"env,omitempty"`
	Steps  []Step            `yaml:"steps"`
}

// Step is a single job step: either an action (Uses) or a shell command (Run).
type Step struct {
	Name string            `yaml:"name,omitempty"`
	Uses string            `yaml:"uses,omitempty"`
	With map[string]string `yaml:"with,omitempty"`
	Run  string            `yaml:"run,omitempty"`
}

// Generate renders cfg as a GitHub Actions workflow: pushes to the primary
// branch and every pull request run the tests.
func Generate(cfg *config.Config) ([]byte, error) {
	interp := cfg.Runtime.Interpreter
	if interp == "" {
		interp = config.DefaultInterpreter
	}
	manifest := cfg.Dependencies.Manifest
	if manifest == "" {
		manifest = config.DefaultManifest
	}
	version := cfg.Runtime.Version
	if version == "" {
		version = "3.x"
	}
	branch := cfg.Trigger.PrimaryBranch
	if branch == "" {
		branch = config.DefaultPrimaryBranch
	}

	steps := []Step{
		{Uses: checkoutAction},
		{
			Name: fmt.Sprintf("Set up Python %s", version),
			Uses: setupPythonAction,
			With: map[string]string{"python-version": version},
		},
		{
			Name: "Cache dependencies",
			Uses: cacheAction,
			With: map[string]string{
				"path": "~/.cache/pip",
				"key":  fmt.Sprintf("${{ runner.os }}-pip-${{ hashFiles('%s') }}", manifest),
			},
		},
		{
			Name: "Install dependencies",
			Run:  installCommand(interp, manifest, cfg.Dependencies.Args),
		},
	}

	titleCase := cases.Title(language.English)
	for _, e := range cfg.Tests.Entries {
		label := e.Label
		if label == "" {
			label = config.DefaultLabel(e.Path)
		}
		run := append([]string{interp, e.Path}, e.Args...)
		steps = append(steps, Step{
			Name: "Test " + titleCase.String(label),
			Run:  strings.Join(run, " "),
		})
	}

	name := "Tests"
	if cfg.Name != "" {
		name = cfg.Name
	}
	wf := Workflow{
		Name: name,
		On: Triggers{
			Push:        &BranchFilter{Branches: []string{branch}},
			PullRequest: &BranchFilter{},
		},
		Jobs: map[string]Job{
			"test": {RunsOn: "ubuntu-latest", Env: cfg.Env, Steps: steps},
		},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&wf); err != nil {
		return nil, fmt.Errorf("failed to render workflow: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to render workflow: %w", err)
	}
	return buf.Bytes(), nil
}

func installCommand(interp, manifest string, args []string) string {
	install := append([]string{"pip", "install", "-r", manifest}, args...)
	return interp + " -m pip install --upgrade pip\n" + strings.Join(install, " ")
}

// Path returns the location of the generated workflow file.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, ".github", "workflows", "tests.yml")
}

// Write generates and writes the workflow file.
// Returns true if a new file was created, false if it already exists.
// Use force=true to overwrite an existing file.
func Write(projectRoot string, cfg *config.Config, force bool) (bool, error) {
	outputPath := Path(projectRoot)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return false, fmt.Errorf("failed to create workflows directory: %w", err)
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return false, nil
		}
	}

	content, err := Generate(cfg)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(outputPath, content, 0644); err != nil {
		return false, fmt.Errorf("failed to write workflow: %w", err)
	}
	return true, nil
}
