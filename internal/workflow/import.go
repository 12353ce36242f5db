package workflow

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/redobl/testrig/internal/config"
)

// interpreterPattern matches commands such as "python", "python3" or
// "python3.10".
var interpreterPattern = regexp.MustCompile(`^(python)(\d+(?:\.\d+)*)?$`)

// Import reads a GitHub Actions workflow and derives a configuration from
// it: the primary branch from on.push.branches, the interpreter version
// from actions/setup-python, the manifest from "pip install -r" and one
// test entry per "python <file>" command.
func Import(data []byte) (*config.Config, error) {
	var wf Workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("failed to parse workflow: %w", err)
	}

	cfg := &config.Config{}
	if wf.On.Push != nil && len(wf.On.Push.Branches) > 0 {
		cfg.Trigger.PrimaryBranch = wf.On.Push.Branches[0]
	}

	jobNames := make([]string, 0, len(wf.Jobs))
	for name := range wf.Jobs {
		jobNames = append(jobNames, name)
	}
	sort.Strings(jobNames)

	for _, name := range jobNames {
		job := wf.Jobs[name]
		for k, v := range job.Env {
			if cfg.Env == nil {
				cfg.Env = map[string]string{}
			}
			cfg.Env[k] = v
		}
		for _, step := range job.Steps {
			importStep(cfg, step)
		}
	}

	if len(cfg.Tests.Entries) == 0 {
		return nil, fmt.Errorf("no test entries found in workflow")
	}
	uniqueLabels(cfg.Tests.Entries)
	return cfg, nil
}

// uniqueLabels suffixes repeated labels with their occurrence number.
func uniqueLabels(entries []config.EntryConfig) {
	seen := make(map[string]int, len(entries))
	for i := range entries {
		label := entries[i].Label
		seen[label]++
		if n := seen[label]; n > 1 {
			entries[i].Label = fmt.Sprintf("%s-%d", label, n)
		}
	}
}

func importStep(cfg *config.Config, step Step) {
	if strings.HasPrefix(step.Uses, "actions/setup-python@") {
		v := strings.TrimSpace(step.With["python-version"])
		if v != "" && !strings.ContainsAny(v, "x*") && cfg.Runtime.Version == "" {
			cfg.Runtime.Version = v
		}
		return
	}

	for _, line := range commands(step.Run) {
		fields := strings.Fields(line)
		if file, ok := requirementsFile(fields); ok {
			if cfg.Dependencies.Manifest == "" {
				cfg.Dependencies.Manifest = file
			}
			continue
		}
		if len(fields) < 2 {
			continue
		}
		m := interpreterPattern.FindStringSubmatch(path.Base(fields[0]))
		if m == nil || !strings.HasSuffix(fields[1], ".py") {
			continue
		}
		if cfg.Runtime.Interpreter == "" {
			cfg.Runtime.Interpreter = m[1]
		}
		if cfg.Runtime.Version == "" && m[2] != "" {
			cfg.Runtime.Version = m[2]
		}
		entry := config.EntryConfig{Path: fields[1], Label: config.DefaultLabel(fields[1])}
		if len(fields) > 2 {
			entry.Args = fields[2:]
		}
		cfg.Tests.Entries = append(cfg.Tests.Entries, entry)
	}
}

// commandSeparator splits shell lines into simple commands.
var commandSeparator = regexp.MustCompile(`&&|\|\||;`)

// commands splits a run block into individual commands.
func commands(run string) []string {
	var out []string
	for _, line := range strings.Split(run, "\n") {
		for _, part := range commandSeparator.Split(line, -1) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// requirementsFile finds the -r/--requirement argument of a pip install
// command.
func requirementsFile(fields []string) (string, bool) {
	isPip := false
	for i, f := range fields {
		switch {
		case f == "pip" || f == "pip3" || strings.HasSuffix(f, "/pip"):
			isPip = true
		case !isPip:
			continue
		case (f == "-r" || f == "--requirement") && i+1 < len(fields):
			return fields[i+1], true
		case strings.HasPrefix(f, "--requirement="):
			return strings.TrimPrefix(f, "--requirement="), true
		}
	}
	return "", false
}
