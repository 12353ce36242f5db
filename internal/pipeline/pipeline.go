// Package pipeline runs the ordered stages of a test run: checkout,
// provision, install and run, behind the trigger gate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/redobl/testrig/internal/config"
	testrigerrors "github.com/redobl/testrig/internal/errors"
	"github.com/redobl/testrig/internal/install"
	"github.com/redobl/testrig/internal/manifest"
	"github.com/redobl/testrig/internal/output"
	"github.com/redobl/testrig/internal/provision"
	"github.com/redobl/testrig/internal/runner"
	"github.com/redobl/testrig/internal/trigger"
)

// Options configures a Pipeline.
type Options struct {
	Root string
	// Trigger is the event that started the run. Nil skips the gate.
	Trigger   *trigger.RunTrigger
	Overrides Overrides
}

// Pipeline executes the configured stages in order.
type Pipeline struct {
	cfg    *config.Config
	opts   Options
	stages []Stage
	out    *output.Writer

	// Set by the provision stage.
	provisioner *provision.Provisioner
	env         *provision.Environment
}

// New validates the stage list of cfg and returns a ready Pipeline.
// A nil writer uses stdout/stderr.
func New(cfg *config.Config, opts Options, out *output.Writer) (*Pipeline, error) {
	if out == nil {
		out = output.New()
	}
	stages, err := BuildStages(cfg, opts.Root, opts.Overrides)
	if err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg, opts: opts, stages: stages, out: out}, nil
}

// Stages returns the typed stage list.
func (p *Pipeline) Stages() []Stage {
	return p.stages
}

// Run executes the pipeline. The returned report is never nil. The error
// is non-nil only when a stage failed fatally; failing test entries are
// reported through Report.Verdict and Report.ExitCode.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := newReport(p.opts.Trigger)
	defer report.finish()

	if !p.gate(report) {
		report.Skipped = true
		report.Verdict = runner.VerdictSuccess
		return report, nil
	}

	titleCase := cases.Title(language.English)
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			err = testrigerrors.Wrap(err, "run interrupted")
			report.fail(testrigerrors.GetExitCode(err))
			return report, err
		}

		p.out.PhaseHeader(titleCase.String(string(stage.Kind)))
		start := time.Now()
		detail, err := p.runStage(ctx, stage, report)
		result := StageResult{
			Kind:     stage.Kind,
			Success:  err == nil,
			Duration: time.Since(start),
			Detail:   detail,
		}
		if err != nil {
			result.Error = err.Error()
			report.Stages = append(report.Stages, result)
			report.fail(testrigerrors.GetExitCode(err))
			return report, err
		}
		report.Stages = append(report.Stages, result)
	}

	report.Verdict = runner.ComputeVerdict(report.Results)
	report.ExitCode = runner.ExitCode(report.Results)
	return report, nil
}

// gate records the trigger decision and reports whether to proceed.
func (p *Pipeline) gate(report *Report) bool {
	t := p.opts.Trigger
	if t == nil {
		p.out.Debug("no trigger information, running unconditionally")
		return true
	}

	g := trigger.Gate{PrimaryBranch: p.cfg.Trigger.PrimaryBranch}
	report.GateReason = g.Reason(*t)
	if !g.Proceed(*t) {
		p.out.Info("Skipping run: %s", report.GateReason)
		return false
	}
	p.out.Debug("trigger %s: %s", t, report.GateReason)
	return true
}

func (p *Pipeline) runStage(ctx context.Context, stage Stage, report *Report) (string, error) {
	switch stage.Kind {
	case StageCheckout:
		return p.checkout(report)
	case StageProvision:
		return p.provision(ctx, *stage.Provision, report)
	case StageInstall:
		return p.install(ctx, stage.Install)
	case StageRun:
		return p.run(ctx, stage.Run, report), nil
	default:
		return "", testrigerrors.Newf("unknown stage %q", stage.Kind)
	}
}

// checkout verifies the workspace the external checkout produced and
// records its commit. A repository that cannot be read is only a warning.
func (p *Pipeline) checkout(report *Report) (string, error) {
	info, err := os.Stat(p.opts.Root)
	if err != nil {
		return "", testrigerrors.Wrap(err, fmt.Sprintf("workspace %s is not accessible", p.opts.Root))
	}
	if !info.IsDir() {
		return "", testrigerrors.Newf("workspace %s is not a directory", p.opts.Root)
	}

	commit, err := headCommit(p.opts.Root)
	switch {
	case errors.Is(err, errNoRepository):
		p.out.Info("Workspace %s is not a git checkout", p.opts.Root)
		return "no repository", nil
	case err != nil:
		p.out.Warning("could not read git HEAD: %v", err)
		return "commit unknown", nil
	}
	report.Commit = commit
	p.out.Info("Workspace at commit %s", shortCommit(commit))
	return shortCommit(commit), nil
}

func (p *Pipeline) provision(ctx context.Context, opts provision.Options, report *Report) (string, error) {
	opts.ManifestDigest = p.manifestDigest()
	p.provisioner = provision.New(opts, p.out)

	env, err := p.provisioner.Provision(ctx)
	if err != nil {
		return "", err
	}
	p.env = env
	report.Environment = env

	detail := env.Version
	if env.CacheHit {
		detail += ", restored from cache"
	} else if env.Isolated() {
		detail += ", new environment"
	}
	return detail, nil
}

// manifestDigest hashes the manifest bytes for the cache key. An unreadable
// manifest yields an empty digest; the install stage reports the problem.
func (p *Pipeline) manifestDigest() string {
	data, err := os.ReadFile(resolve(p.opts.Root, p.cfg.Dependencies.Manifest))
	if err != nil {
		return ""
	}
	return manifest.Digest(data)
}

func (p *Pipeline) install(ctx context.Context, spec *InstallSpec) (string, error) {
	m, err := install.LoadManifest(spec.Manifest)
	if err != nil {
		return "", err
	}

	inst := install.New(install.Options{
		Root:  p.opts.Root,
		Args:  spec.Args,
		Saver: p.provisioner,
	}, p.out)
	res, err := inst.Install(ctx, p.env, m)
	if err != nil {
		return "", err
	}
	if res.Skipped {
		return res.Reason, nil
	}
	return fmt.Sprintf("%d package(s)", len(res.Packages)), nil
}

func (p *Pipeline) run(ctx context.Context, spec *RunSpec, report *Report) string {
	for _, e := range spec.Entries {
		if _, err := os.Stat(resolve(p.opts.Root, e.Path)); err != nil {
			p.out.Warning("test entry %s: %s not found", e.Label, e.Path)
		}
	}

	r := runner.New(p.env, spec.Options, p.out)
	report.Results = r.Run(ctx, spec.Entries)
	report.NotRun = len(spec.Entries) - len(report.Results)

	failed := 0
	for _, res := range report.Results {
		if !res.Passed() {
			failed++
		}
	}
	return fmt.Sprintf("%d passed, %d failed", len(report.Results)-failed, failed)
}

func shortCommit(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}
