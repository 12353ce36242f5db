package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redobl/testrig/internal/config"
	"github.com/redobl/testrig/internal/errors"
	"github.com/redobl/testrig/internal/output"
	"github.com/redobl/testrig/internal/pipeline"
	"github.com/redobl/testrig/internal/project"
	"github.com/redobl/testrig/internal/trigger"
	"github.com/redobl/testrig/internal/workflow"
)

// out is the shared output writer for CLI commands.
var out = output.New()

// getenv is swapped in tests.
var getenv = os.Getenv

// Help text alignment widths for consistent formatting.
const (
	helpFlagWidthShort  = 10 // Width for short flags like "-h, --help"
	helpFlagWidthGlobal = 18 // Width for global flags like "--report=<file>"
)

// applyVerbosityToOutput configures the output writer based on verbosity settings.
func applyVerbosityToOutput(opts *GlobalOptions) {
	out.SetQuiet(opts.Quiet)
	out.SetVerbose(opts.Verbose)
}

// loadProject loads the project configuration and handles errors uniformly.
// Returns the project and exit code 0 on success, or nil and the config
// error exit code on failure.
func loadProject(opts *GlobalOptions) (*project.Project, int) {
	var proj *project.Project
	var err error
	if opts.ConfigPath != "" {
		proj, err = project.LoadProjectFile(opts.ConfigPath)
	} else {
		proj, err = project.LoadProject()
	}
	if err != nil {
		out.ErrorPrefix("%v", err)
		return nil, errors.ExitConfigError
	}
	for _, w := range proj.Warnings {
		out.WarningSimple("%s", w)
	}
	return proj, 0
}

// resolveTrigger returns the trigger from --event/--branch, falling back
// to the CI environment. Nil means no trigger information is available.
func resolveTrigger(opts *GlobalOptions) *trigger.RunTrigger {
	if opts.Event != "" {
		t := trigger.New(trigger.ParseEvent(opts.Event), opts.Branch)
		return &t
	}
	if t, ok := trigger.FromEnv(getenv); ok {
		return &t
	}
	return nil
}

// cmdRun executes the pipeline.
func cmdRun(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printRunUsage()
		return 0
	}
	if len(args) > 0 {
		out.ErrorPrefix("run: unexpected argument %q", args[0])
		return errors.ExitConfigError
	}

	proj, exitCode := loadProject(opts)
	if proj == nil {
		return exitCode
	}

	t := resolveTrigger(opts)
	if t == nil {
		out.Info("No trigger information, running unconditionally.")
	}

	var overrides pipeline.Overrides
	overrides.NoCache = opts.NoCache
	switch {
	case opts.FailFast:
		overrides.ContinueOnFailure = new(bool)
	case opts.Continue:
		cont := true
		overrides.ContinueOnFailure = &cont
	}

	p, err := pipeline.New(proj.Config, pipeline.Options{
		Root:      proj.Root,
		Trigger:   t,
		Overrides: overrides,
	}, out)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := p.Run(ctx)
	if err != nil {
		out.ErrorPrefix("%v", err)
	}
	pipeline.PrintSummary(report, out)

	code := report.ExitCode
	if opts.ReportPath != "" {
		if err := report.Write(opts.ReportPath); err != nil {
			out.ErrorPrefix("%v", err)
			if code == 0 {
				code = errors.ExitRuntimeError
			}
		} else {
			out.Info("Report written to %s", opts.ReportPath)
		}
	}
	return code
}

// cmdGate reports the trigger decision. Exit code 0 means a run would
// start, 1 means it would be skipped.
func cmdGate(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printGateUsage()
		return 0
	}

	proj, exitCode := loadProject(opts)
	if proj == nil {
		return exitCode
	}

	t := resolveTrigger(opts)
	if t == nil {
		out.ErrorPrefix("gate: no trigger information (use --event and --branch)")
		return errors.ExitConfigError
	}

	g := trigger.Gate{PrimaryBranch: proj.Config.Trigger.PrimaryBranch}
	if g.Proceed(*t) {
		out.Println("run: %s", g.Reason(*t))
		return 0
	}
	out.Println("skip: %s", g.Reason(*t))
	return 1
}

// cmdConfig handles configuration utilities.
func cmdConfig(args []string, opts *GlobalOptions) int {
	if len(args) == 0 {
		out.ErrorPrefix("config: subcommand required (validate)")
		return errors.ExitConfigError
	}

	switch args[0] {
	case "validate":
		return cmdConfigValidate(opts)
	case "-h", "--help":
		printConfigUsage()
		return 0
	default:
		out.ErrorPrefix("config: unknown subcommand %q", args[0])
		return errors.ExitConfigError
	}
}

func cmdConfigValidate(opts *GlobalOptions) int {
	proj, exitCode := loadProject(opts)
	if proj == nil {
		return exitCode
	}

	if _, err := pipeline.BuildStages(proj.Config, proj.Root, pipeline.Overrides{}); err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}

	cfg := proj.Config
	out.ValidationSuccess("Configuration is valid.")
	if cfg.Name != "" {
		out.SummaryItem("Project", cfg.Name)
	}
	out.SummaryItem("Primary branch", cfg.Trigger.PrimaryBranch)
	runtime := cfg.Runtime.Interpreter
	if cfg.Runtime.Version != "" {
		runtime += " " + cfg.Runtime.Version
	}
	out.SummaryItem("Runtime", runtime)
	out.SummaryItem("Stages", strings.Join(cfg.Stages, ", "))
	out.SummaryItem("Entries", fmt.Sprintf("%d", len(cfg.Tests.Entries)))

	entries := make([]string, len(cfg.Tests.Entries))
	for i, e := range cfg.Tests.Entries {
		label := e.Label
		if label == "" {
			label = config.DefaultLabel(e.Path)
		}
		entries[i] = fmt.Sprintf("%s (%s)", label, e.Path)
	}
	out.Section("Entries")
	out.List(entries)

	if len(proj.Warnings) > 0 {
		out.Section("Warnings")
		out.List(proj.Warnings)
	}
	return 0
}

// cmdWorkflow converts between configuration and GitHub Actions workflows.
func cmdWorkflow(args []string, opts *GlobalOptions) int {
	if len(args) == 0 {
		out.ErrorPrefix("workflow: subcommand required (generate, import)")
		return errors.ExitConfigError
	}

	switch args[0] {
	case "generate":
		return cmdWorkflowGenerate(args[1:], opts)
	case "import":
		return cmdWorkflowImport(args[1:])
	case "-h", "--help":
		printWorkflowUsage()
		return 0
	default:
		out.ErrorPrefix("workflow: unknown subcommand %q", args[0])
		return errors.ExitConfigError
	}
}

func cmdWorkflowGenerate(args []string, opts *GlobalOptions) int {
	var force, stdout bool
	for _, arg := range args {
		switch arg {
		case "--force":
			force = true
		case "--stdout":
			stdout = true
		case "-h", "--help":
			printWorkflowUsage()
			return 0
		default:
			out.ErrorPrefix("workflow generate: unknown option %q", arg)
			return errors.ExitConfigError
		}
	}

	proj, exitCode := loadProject(opts)
	if proj == nil {
		return exitCode
	}

	if stdout {
		content, err := workflow.Generate(proj.Config)
		if err != nil {
			out.ErrorPrefix("%v", err)
			return errors.ExitRuntimeError
		}
		out.Print("%s", content)
		return 0
	}

	created, err := workflow.Write(proj.Root, proj.Config, force)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitRuntimeError
	}
	path := workflow.Path(proj.Root)
	if !created {
		out.Info("%s already exists (use --force to overwrite)", path)
		return 0
	}
	out.Success("Wrote %s", path)
	return 0
}

func cmdWorkflowImport(args []string) int {
	var source string
	var force bool
	for _, arg := range args {
		switch {
		case arg == "--force":
			force = true
		case arg == "-h" || arg == "--help":
			printWorkflowUsage()
			return 0
		case strings.HasPrefix(arg, "-"):
			out.ErrorPrefix("workflow import: unknown option %q", arg)
			return errors.ExitConfigError
		case source != "":
			out.ErrorPrefix("workflow import: unexpected argument %q", arg)
			return errors.ExitConfigError
		default:
			source = arg
		}
	}
	if source == "" {
		out.ErrorPrefix("workflow import: workflow file required")
		return errors.ExitConfigError
	}

	data, err := os.ReadFile(source)
	if err != nil {
		out.ErrorPrefix("workflow import: %v", err)
		return errors.ExitRuntimeError
	}
	cfg, err := workflow.Import(data)
	if err != nil {
		out.ErrorPrefix("workflow import: %v", err)
		return errors.ExitConfigError
	}

	return writeConfig(cfg, force)
}

// writeConfig validates cfg and writes it to .testrig.yml in the current
// directory. An existing file is kept unless force is set.
func writeConfig(cfg *config.Config, force bool) int {
	data, err := config.Marshal(cfg)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitRuntimeError
	}
	_, warnings, err := config.ParseAndValidate(data, getenv)
	if err != nil {
		out.ErrorPrefix("generated configuration is invalid: %v", err)
		return errors.ExitConfigError
	}
	for _, w := range warnings {
		out.WarningSimple("%s", w)
	}

	if !force {
		if _, err := os.Stat(project.ConfigFileName); err == nil {
			out.ErrorPrefix("%s already exists (use --force to overwrite)", project.ConfigFileName)
			return errors.ExitConfigError
		}
	}
	if err := os.WriteFile(project.ConfigFileName, data, 0644); err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitRuntimeError
	}
	out.Success("Wrote %s with %d test entries", project.ConfigFileName, len(cfg.Tests.Entries))
	return 0
}

// printRunUsage prints the help text for the run command.
func printRunUsage() {
	w := output.New()

	w.HelpTitle("testrig run - run the test pipeline")

	w.HelpSection("Usage:")
	w.HelpUsage("testrig run [flags]")

	w.HelpSection("Description:")
	w.Println("  Checks the trigger against the primary branch, provisions the")
	w.Println("  interpreter, installs the declared dependencies and runs every")
	w.Println("  test entry in order. The exit code is 0 when all entries pass,")
	w.Println("  otherwise the exit code of the first failing entry.")

	printGlobalFlags(w)

	w.HelpSection("Examples:")
	w.HelpExample("testrig run", "Run with the trigger taken from the CI environment")
	w.HelpExample("testrig run --event=pull_request", "Run as for a pull request")
	w.HelpExample("testrig run --no-cache -v", "Rebuild the environment and show installer output")
	w.Println("")
}

// printGateUsage prints the help text for the gate command.
func printGateUsage() {
	w := output.New()

	w.HelpTitle("testrig gate - check whether an event starts a run")

	w.HelpSection("Usage:")
	w.HelpUsage("testrig gate --event=<event> [--branch=<name>]")

	w.HelpSection("Description:")
	w.Println("  Pull requests always run; pushes run only on the primary branch.")
	w.Println("  Exits with 0 when a run would start and 1 when it would be skipped.")

	w.HelpSection("Examples:")
	w.HelpExample("testrig gate --event=push --branch=main", "Check a push to main")
	w.Println("")
}

// printConfigUsage prints the help text for the config command.
func printConfigUsage() {
	w := output.New()

	w.HelpTitle("testrig config - configuration utilities")

	w.HelpSection("Usage:")
	w.HelpUsage("testrig config <subcommand>")

	w.HelpSection("Subcommands:")
	w.HelpCommand("validate", "Validate the project configuration", helpFlagWidthShort)

	w.HelpSection("Options:")
	w.HelpFlag("-h, --help", "Show this help", helpFlagWidthShort)

	w.HelpSection("Examples:")
	w.HelpExample("testrig config validate", "Validate project configuration")
	w.Println("")
}

// printWorkflowUsage prints the help text for the workflow command.
func printWorkflowUsage() {
	w := output.New()

	w.HelpTitle("testrig workflow - GitHub Actions interop")

	w.HelpSection("Usage:")
	w.HelpUsage("testrig workflow generate [--force] [--stdout]")
	w.HelpUsage("testrig workflow import <file> [--force]")

	w.HelpSection("Subcommands:")
	w.HelpCommand("generate", "Write .github/workflows/tests.yml from the configuration", helpFlagWidthShort)
	w.HelpCommand("import", "Create .testrig.yml from an existing workflow", helpFlagWidthShort)

	w.HelpSection("Options:")
	w.HelpFlag("--force", "Overwrite existing files", helpFlagWidthShort)
	w.HelpFlag("--stdout", "Print the workflow instead of writing it", helpFlagWidthShort)
	w.HelpFlag("-h, --help", "Show this help", helpFlagWidthShort)

	w.HelpSection("Examples:")
	w.HelpExample("testrig workflow generate", "Write the workflow file")
	w.HelpExample("testrig workflow import .github/workflows/python-app.yml", "Convert a workflow")
	w.Println("")
}
