package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/redobl/testrig/internal/provision"
	"github.com/redobl/testrig/internal/runner"
	"github.com/redobl/testrig/internal/trigger"
)

// StageResult records how one stage ended.
type StageResult struct {
	Kind     StageKind     `json:"kind" yaml:"kind"`
	Success  bool          `json:"success" yaml:"success"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Detail   string        `json:"detail,omitempty" yaml:"detail,omitempty"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report is the record of a single pipeline run.
type Report struct {
	RunID       string                 `json:"run_id" yaml:"run_id"`
	StartedAt   time.Time              `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time              `json:"finished_at" yaml:"finished_at"`
	Duration    time.Duration          `json:"duration" yaml:"duration"`
	Trigger     *trigger.RunTrigger    `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	GateReason  string                 `json:"gate_reason,omitempty" yaml:"gate_reason,omitempty"`
	Skipped     bool                   `json:"skipped" yaml:"skipped"`
	Commit      string                 `json:"commit,omitempty" yaml:"commit,omitempty"`
	Environment *provision.Environment `json:"environment,omitempty" yaml:"environment,omitempty"`
	Stages      []StageResult          `json:"stages" yaml:"stages"`
	Results     []runner.RunResult     `json:"results" yaml:"results"`
	NotRun      int                    `json:"not_run" yaml:"not_run"`
	Verdict     runner.Verdict         `json:"verdict" yaml:"verdict"`
	ExitCode    int                    `json:"exit_code" yaml:"exit_code"`
}

func newReport(t *trigger.RunTrigger) *Report {
	return &Report{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Trigger:   t,
		Stages:    []StageResult{},
		Results:   []runner.RunResult{},
	}
}

func (r *Report) finish() {
	r.FinishedAt = time.Now().UTC()
	r.Duration = r.FinishedAt.Sub(r.StartedAt)
}

// fail marks the report as aborted with the given exit code.
func (r *Report) fail(code int) {
	r.Verdict = runner.VerdictFailure
	r.ExitCode = code
}

// Marshal renders the report in the format named by ext
// (".json", ".yaml" or ".yml").
func (r *Report) Marshal(ext string) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ".json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case ".yaml", ".yml":
		return yaml.Marshal(r)
	default:
		return nil, fmt.Errorf("unsupported report format %q (use .json, .yaml or .yml)", ext)
	}
}

// Write saves the report to path, choosing the format by extension.
func (r *Report) Write(path string) error {
	data, err := r.Marshal(filepath.Ext(path))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
