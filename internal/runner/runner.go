// Package runner executes test entries sequentially and records their results.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/redobl/testrig/internal/capture"
	"github.com/redobl/testrig/internal/output"
	"github.com/redobl/testrig/internal/provision"
	"github.com/redobl/testrig/internal/testparser"
)

// waitDelay bounds how long Run waits for output pipes after a killed
// entry exits.
const waitDelay = 5 * time.Second

// Options configures execution behavior.
type Options struct {
	Root string // Working directory for every entry

	// ContinueOnFailure runs the remaining entries after a failure. When
	// false, entries after the first failure are not executed and produce
	// no RunResult.
	ContinueOnFailure bool

	Timeout     time.Duration     // Per entry; zero disables
	Format      string            // Output format for counts: auto, unittest, pytest, none
	Env         map[string]string // Extra environment variables for entries
	OutputLimit int               // Bytes of output kept per entry
}

// Runner executes test entries in an Environment.
type Runner struct {
	env     *provision.Environment
	opts    Options
	out     *output.Writer
	parsers *testparser.Registry

	mu    sync.Mutex
	state State
}

// New creates a Runner. A nil env executes entry paths directly; a nil
// writer uses stdout/stderr.
func New(env *provision.Environment, opts Options, out *output.Writer) *Runner {
	if out == nil {
		out = output.New()
	}
	return &Runner{
		env:     env,
		opts:    opts,
		out:     out,
		parsers: testparser.NewRegistry(),
	}
}

// State returns the current state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Run executes entries in declared order and returns one result per
// executed entry. Failures never abort the loop unless ContinueOnFailure
// is false. A canceled context stops before the next entry.
func (r *Runner) Run(ctx context.Context, entries []TestEntry) []RunResult {
	results := make([]RunResult, 0, len(entries))
	defer r.setState(State{Phase: Completed})

	for i, entry := range entries {
		// Early exit if context is canceled before starting the next entry
		if ctx.Err() != nil {
			r.out.Warning("run canceled, %s not executed", countEntries(len(entries)-i))
			break
		}

		r.setState(State{Phase: Running, Index: i})
		r.out.EntryStart(i+1, len(entries), entry.Label)

		res := r.runEntry(ctx, entry)
		results = append(results, res)
		r.report(res)

		if !res.Passed() && !r.opts.ContinueOnFailure {
			if rest := len(entries) - i - 1; rest > 0 {
				r.out.Info("Stopping after failure, %s skipped", countEntries(rest))
			}
			break
		}
	}
	return results
}

func (r *Runner) report(res RunResult) {
	d := FormatDuration(res.Duration)
	switch {
	case res.Passed():
		r.out.EntrySuccess(res.Entry.Label, d)
	case res.TimedOut:
		r.out.Errorln("[%s] timed out after %s", res.Entry.Label, d)
	case res.Error != "":
		r.out.Errorln("[%s] could not start: %s", res.Entry.Label, res.Error)
	default:
		r.out.EntryFailed(res.Entry.Label, res.ExitCode, d)
	}
}

// runEntry executes a single entry. It never returns an error: every
// outcome is encoded in the RunResult.
func (r *Runner) runEntry(ctx context.Context, entry TestEntry) RunResult {
	res := RunResult{Entry: entry}

	entryCtx := ctx
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		entryCtx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	name, args := r.command(entry)
	r.out.Debug("running: %s %s", name, strings.Join(args, " "))

	tail := capture.NewTail(r.opts.OutputLimit)
	cmd := exec.CommandContext(entryCtx, name, args...)
	cmd.Dir = r.opts.Root
	cmd.Env = r.environ()
	cmd.Stdout = r.stream(tail, r.out.Stdout())
	cmd.Stderr = r.stream(tail, r.out.Stderr())
	cmd.WaitDelay = waitDelay
	killProcessGroup(cmd)

	start := time.Now()
	err := cmd.Run()
	res.Duration = time.Since(start)
	res.Output = tail.String()

	switch code, exited := capture.ExitCode(err); {
	case errors.Is(entryCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		res.ExitCode = ExitTimedOut
		res.TimedOut = true
	case exited:
		res.ExitCode = code
	case cmd.ProcessState == nil:
		res.ExitCode = ExitStartFailed
		res.Error = err.Error()
	default:
		// Killed by a signal, including cancellation of ctx.
		res.ExitCode = ExitTimedOut
		res.Error = err.Error()
	}

	res.Counts = r.parsers.Parse(r.opts.Format, res.Output)
	return res
}

// command returns the program and arguments for an entry: the entry runs
// under the environment's interpreter when there is one.
func (r *Runner) command(entry TestEntry) (string, []string) {
	if r.env != nil && r.env.Interpreter != "" {
		return r.env.Interpreter, append([]string{entry.Path}, entry.Args...)
	}
	path := entry.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.opts.Root, path)
	}
	return path, entry.Args
}

func (r *Runner) stream(tail *capture.Tail, w io.Writer) io.Writer {
	if r.out.Quiet() {
		return tail
	}
	return io.MultiWriter(w, tail)
}

// environ builds the entry environment: the process environment, then the
// provisioned variables, then configured extras.
func (r *Runner) environ() []string {
	base := os.Environ()
	if r.env != nil {
		base = r.env.Environ(base)
	}
	return provision.MergeEnv(base, r.opts.Env)
}

func countEntries(n int) string {
	if n == 1 {
		return "1 entry"
	}
	return fmt.Sprintf("%d entries", n)
}
