package workflow

import (
	"strings"
	"testing"
)

// A hand-written workflow in the shape hosted projects commonly use.
const handWritten = `
name: Python application

on:
  push:
    branches: [ "master" ]
  pull_request:
    branches: [ "master" ]

permissions:
  contents: read

jobs:
  build:
    runs-on: ubuntu-latest
    steps:
    - uses: actions/checkout@v4
    - name: Set up Python 3.10
      uses: actions/setup-python@v3
      with:
        python-version: 3.10
    - name: Install dependencies
      run: |
        python -m pip install --upgrade pip
        if [ -f requirements.txt ]; then pip install -r requirements.txt; fi
    - name: Test mapparser
      run: python tests/test_mapparser.py
    - name: Test player
      run: |
        cd . && python3 tests/test_player.py
`

func TestImport(t *testing.T) {
	cfg, err := Import([]byte(handWritten))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if cfg.Trigger.PrimaryBranch != "master" {
		t.Errorf("PrimaryBranch = %q, want master", cfg.Trigger.PrimaryBranch)
	}
	if cfg.Runtime.Version != "3.10" {
		t.Errorf("Version = %q, want 3.10", cfg.Runtime.Version)
	}
	if cfg.Runtime.Interpreter != "python" {
		t.Errorf("Interpreter = %q, want python", cfg.Runtime.Interpreter)
	}
	if cfg.Dependencies.Manifest != "requirements.txt" {
		t.Errorf("Manifest = %q", cfg.Dependencies.Manifest)
	}

	want := []struct{ path, label string }{
		{"tests/test_mapparser.py", "test_mapparser"},
		{"tests/test_player.py", "test_player"},
	}
	if len(cfg.Tests.Entries) != len(want) {
		t.Fatalf("Entries = %+v", cfg.Tests.Entries)
	}
	for i, w := range want {
		if e := cfg.Tests.Entries[i]; e.Path != w.path || e.Label != w.label {
			t.Errorf("Entries[%d] = %+v, want %s (%s)", i, e, w.path, w.label)
		}
	}
}

func TestImport_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"invalid yaml", "jobs: [", "failed to parse workflow"},
		{"no entries", "on: push\njobs:\n  build:\n    runs-on: ubuntu-latest\n    steps:\n      - run: make test\n", "no test entries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Import([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Import() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestImport_DuplicateLabels(t *testing.T) {
	data := `
jobs:
  test:
    runs-on: ubuntu-latest
    steps:
      - run: python a/test.py
      - run: python b/test.py
`
	cfg, err := Import([]byte(data))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if cfg.Tests.Entries[0].Label != "test" || cfg.Tests.Entries[1].Label != "test-2" {
		t.Errorf("labels = %q, %q", cfg.Tests.Entries[0].Label, cfg.Tests.Entries[1].Label)
	}
}

func TestRequirementsFile(t *testing.T) {
	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"pip install -r requirements.txt", "requirements.txt", true},
		{"python -m pip install --requirement dev.txt", "dev.txt", true},
		{"pip install --requirement=ci.txt", "ci.txt", true},
		{".venv/bin/pip install -r reqs.txt", "reqs.txt", true},
		{"python -m pip install --upgrade pip", "", false},
		{"echo -r nothing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := requirementsFile(strings.Fields(tt.line))
			if got != tt.want || ok != tt.ok {
				t.Errorf("requirementsFile(%q) = %q, %v, want %q, %v", tt.line, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestImport_TriggerForms(t *testing.T) {
	steps := "jobs:\n  test:\n    runs-on: ubuntu-latest\n    steps:\n      - run: python tests/test_player.py\n"
	tests := []struct {
		name   string
		on     string
		branch string
	}{
		{"scalar", "on: push\n", ""},
		{"list", "on: [push, pull_request]\n", ""},
		{"mapping", "on:\n  push:\n    branches: [develop]\n  pull_request:\n", "develop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Import([]byte(tt.on + steps))
			if err != nil {
				t.Fatalf("Import() error = %v", err)
			}
			if cfg.Trigger.PrimaryBranch != tt.branch {
				t.Errorf("PrimaryBranch = %q, want %q", cfg.Trigger.PrimaryBranch, tt.branch)
			}
		})
	}
}
