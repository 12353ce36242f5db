package runner

import (
	"fmt"
	"time"

	"github.com/redobl/testrig/internal/config"
	"github.com/redobl/testrig/internal/testparser"
)

// Exit codes recorded for entries that did not exit normally.
const (
	ExitTimedOut    = -1  // Killed after exceeding the timeout
	ExitStartFailed = 127 // Process could not be started
)

// TestEntry is a single test entry point.
type TestEntry struct {
	Path  string   `json:"path" yaml:"path"`
	Label string   `json:"label" yaml:"label"`
	Args  []string `json:"args,omitempty" yaml:"args,omitempty"`
}

// EntriesFromConfig converts configured entries, preserving their order.
func EntriesFromConfig(entries []config.EntryConfig) []TestEntry {
	result := make([]TestEntry, len(entries))
	for i, e := range entries {
		label := e.Label
		if label == "" {
			label = config.DefaultLabel(e.Path)
		}
		result[i] = TestEntry{Path: e.Path, Label: label, Args: e.Args}
	}
	return result
}

// RunResult is the outcome of one entry. It is not modified after Run
// returns it.
type RunResult struct {
	Entry    TestEntry             `json:"entry" yaml:"entry"`
	ExitCode int                   `json:"exit_code" yaml:"exit_code"`
	Duration time.Duration         `json:"duration" yaml:"duration"`
	TimedOut bool                  `json:"timed_out,omitempty" yaml:"timed_out,omitempty"`
	Error    string                `json:"error,omitempty" yaml:"error,omitempty"` // Start failure
	Counts   testparser.TestCounts `json:"counts" yaml:"counts"`
	Output   string                `json:"-" yaml:"-"` // Tail of combined stdout and stderr
}

// Passed reports whether the entry exited with code 0.
func (r RunResult) Passed() bool {
	return r.ExitCode == 0
}

// Verdict is the overall outcome of a run.
type Verdict string

const (
	VerdictSuccess Verdict = "success"
	VerdictFailure Verdict = "failure"
)

// ComputeVerdict returns success iff every result exited with code 0.
// An empty list is a success.
func ComputeVerdict(results []RunResult) Verdict {
	for _, r := range results {
		if !r.Passed() {
			return VerdictFailure
		}
	}
	return VerdictSuccess
}

// ExitCode returns the process exit code for a run: 0 when every entry
// passed, otherwise the first failing entry's code. Codes that a shell
// would not report as a plain failure (outside 1..125) become 1.
func ExitCode(results []RunResult) int {
	for _, r := range results {
		if r.Passed() {
			continue
		}
		if r.ExitCode < 1 || r.ExitCode > 125 {
			return 1
		}
		return r.ExitCode
	}
	return 0
}

// Phase is the coarse state of a Runner.
type Phase int

const (
	NotStarted Phase = iota
	Running
	Completed
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// State is a snapshot of a Runner. Index is the position of the entry being
// executed and is only meaningful while Running.
type State struct {
	Phase Phase
	Index int
}

func (s State) String() string {
	if s.Phase == Running {
		return fmt.Sprintf("running(%d)", s.Index)
	}
	return s.Phase.String()
}
