// Package install installs a manifest's dependencies into a provisioned
// environment.
package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/redobl/testrig/internal/capture"
	testrigerrors "github.com/redobl/testrig/internal/errors"
	"github.com/redobl/testrig/internal/manifest"
	"github.com/redobl/testrig/internal/output"
	"github.com/redobl/testrig/internal/provision"
)

// tailLines is how much installer output an InstallError carries.
const tailLines = 20

// Saver records a successfully installed environment, see provision.Provisioner.
type Saver interface {
	Save(env *provision.Environment) error
}

// Options configures an Installer.
type Options struct {
	Root  string   // Working directory for the installer
	Args  []string // Extra installer arguments
	Saver Saver    // Optional; called after a successful install
}

// Result describes what Install did.
type Result struct {
	Skipped  bool          `json:"skipped" yaml:"skipped"`
	Reason   string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	Packages []string      `json:"packages,omitempty" yaml:"packages,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Installer runs the package installer of an Environment.
type Installer struct {
	opts Options
	out  *output.Writer
}

// New creates an Installer. A nil writer uses stdout/stderr.
func New(opts Options, out *output.Writer) *Installer {
	if out == nil {
		out = output.New()
	}
	return &Installer{opts: opts, out: out}
}

// LoadManifest reads and validates the manifest at path. Any problem,
// including a missing file, is an installation error.
func LoadManifest(path string) (*manifest.Manifest, error) {
	m, err := manifest.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, testrigerrors.Install(err, fmt.Sprintf("dependency manifest not found: %s", path))
		}
		return nil, testrigerrors.Install(err, fmt.Sprintf("invalid dependency manifest: %v", err))
	}
	return m, nil
}

// Install makes every requirement of m available in env. Nothing runs for
// a restored cache entry or an empty manifest. An installer failure is
// returned as an installation error carrying the tail of its output.
func (i *Installer) Install(ctx context.Context, env *provision.Environment, m *manifest.Manifest) (*Result, error) {
	if env == nil {
		return nil, testrigerrors.Installf("no environment to install into")
	}
	if env.CacheHit {
		return &Result{Skipped: true, Reason: "restored from cache"}, nil
	}
	if m.Empty() {
		i.out.Info("No dependencies declared in %s", m.Path)
		i.save(env)
		return &Result{Skipped: true, Reason: "no dependencies"}, nil
	}

	specs := m.Specs()
	args := append([]string{"-m", "pip", "install", "--disable-pip-version-check"}, specs...)
	args = append(args, i.opts.Args...)

	i.out.Info("Installing %d package(s) from %s", len(specs), m.Path)
	i.out.Debug("running: %s %s", env.Interpreter, strings.Join(args, " "))

	tail := capture.NewTail(capture.DefaultLimit)
	cmd := exec.CommandContext(ctx, env.Interpreter, args...)
	cmd.Dir = i.opts.Root
	cmd.Env = env.Environ(os.Environ())
	cmd.Stdout = i.stream(tail, i.out.Stdout())
	cmd.Stderr = i.stream(tail, i.out.Stderr())

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)
	if err != nil {
		return nil, installError(err, tail)
	}

	i.save(env)
	return &Result{Packages: specs, Duration: elapsed}, nil
}

// stream sends installer output to the terminal in verbose mode and
// always keeps the tail for error reporting.
func (i *Installer) stream(tail *capture.Tail, w io.Writer) io.Writer {
	if i.out.Verbose() {
		return io.MultiWriter(w, tail)
	}
	return tail
}

// save records env in the cache. A failure only costs the next run a
// reinstall, so it is reported as a warning.
func (i *Installer) save(env *provision.Environment) {
	if i.opts.Saver == nil {
		return
	}
	if err := i.opts.Saver.Save(env); err != nil {
		i.out.Warning("could not save environment cache: %v", err)
	}
}

func installError(err error, tail *capture.Tail) error {
	var msg string
	if code, ok := capture.ExitCode(err); ok {
		msg = fmt.Sprintf("dependency installation failed with exit code %d", code)
	} else {
		msg = fmt.Sprintf("dependency installation failed: %v", err)
	}
	if out := strings.TrimSpace(tail.String()); out != "" {
		msg += "\n" + capture.LastLines(out, tailLines)
	}
	return testrigerrors.Install(err, msg)
}
