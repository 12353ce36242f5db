// Package cli provides command-line interface functionality for testrig.
package cli

import (
	"fmt"
	"strings"

	"github.com/redobl/testrig/internal/errors"
	"github.com/redobl/testrig/internal/output"
	"github.com/redobl/testrig/internal/trigger"
)

// Version is set at build time.
var Version = "dev"

// wantsHelp returns true if args contain -h or --help before any -- separator.
// Arguments after -- are passed through to commands, so help flags there are ignored.
func wantsHelp(args []string) bool {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" {
			return true
		}
		if arg == "--" {
			return false
		}
	}
	return false
}

// Run executes the CLI with the given arguments and returns an exit code.
// Without a command it runs the pipeline.
func Run(args []string) int {
	if len(args) > 0 {
		switch args[0] {
		case "-h", "--help", "help":
			printUsage()
			return 0
		case "--version", "version":
			fmt.Printf("testrig %s\n", Version)
			return 0
		}
	}

	opts, remaining, err := parseGlobalFlags(args)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitConfigError
	}

	cmd := "run"
	var cmdArgs []string
	if len(remaining) > 0 {
		cmd = remaining[0]
		cmdArgs = remaining[1:]
	}

	switch cmd {
	case "run":
		return cmdRun(cmdArgs, opts)
	case "gate":
		return cmdGate(cmdArgs, opts)
	case "init":
		return cmdInit(cmdArgs)
	case "config":
		return cmdConfig(cmdArgs, opts)
	case "workflow":
		return cmdWorkflow(cmdArgs, opts)
	case "summary":
		return cmdSummary(cmdArgs)
	case "completion":
		return cmdCompletion(cmdArgs)
	default:
		out.ErrorPrefix("unknown command %q", cmd)
		out.Hint("Run 'testrig help' for usage.")
		return errors.ExitConfigError
	}
}

// GlobalOptions holds parsed global flags.
type GlobalOptions struct {
	Quiet      bool
	Verbose    bool
	ConfigPath string // --config, overrides project discovery
	Event      string // --event
	Branch     string // --branch
	FailFast   bool
	Continue   bool
	NoCache    bool
	ReportPath string // --report
}

// valueFlags take an argument, either as "--flag value" or "--flag=value".
var valueFlags = []string{"--config", "--event", "--branch", "--report"}

// parseGlobalFlags manually parses global flags from arguments.
//
// Manual parsing is used instead of stdlib flag package because:
// - Flags can appear anywhere in the argument list, not just before the command
// - Pass-through arguments after -- must be preserved verbatim
// - Custom error messages with usage hints are needed
func parseGlobalFlags(args []string) (*GlobalOptions, []string, error) {
	opts := &GlobalOptions{}
	var remaining []string

	i := 0
	for i < len(args) {
		arg := args[i]

		if name, value, ok := splitValueFlag(arg); ok {
			if value == nil {
				if i+1 >= len(args) {
					return nil, nil, fmt.Errorf("%s requires a value", name)
				}
				v := args[i+1]
				value = &v
				i++
			}
			setValueFlag(opts, name, *value)
			i++
			continue
		}

		switch arg {
		case "-q", "--quiet":
			opts.Quiet = true
		case "-v", "--verbose":
			opts.Verbose = true
		case "--fail-fast":
			opts.FailFast = true
		case "--continue":
			opts.Continue = true
		case "--no-cache":
			opts.NoCache = true
		case "--":
			// Everything after -- is passed through
			remaining = append(remaining, args[i:]...)
			i = len(args)
			continue
		default:
			remaining = append(remaining, arg)
		}
		i++
	}

	if err := validateGlobalOptions(opts); err != nil {
		return nil, nil, err
	}

	// Apply verbosity settings to global output writer.
	applyVerbosityToOutput(opts)

	return opts, remaining, nil
}

// splitValueFlag recognizes value flags. value is nil when the value is
// the next argument.
func splitValueFlag(arg string) (name string, value *string, ok bool) {
	for _, f := range valueFlags {
		if arg == f {
			return f, nil, true
		}
		if v, found := strings.CutPrefix(arg, f+"="); found {
			return f, &v, true
		}
	}
	return "", nil, false
}

func setValueFlag(opts *GlobalOptions, name, value string) {
	switch name {
	case "--config":
		opts.ConfigPath = value
	case "--event":
		opts.Event = value
	case "--branch":
		opts.Branch = value
	case "--report":
		opts.ReportPath = value
	}
}

// validateGlobalOptions checks that global options are valid.
func validateGlobalOptions(opts *GlobalOptions) error {
	if opts.Quiet && opts.Verbose {
		return fmt.Errorf("--quiet and --verbose are mutually exclusive")
	}
	if opts.FailFast && opts.Continue {
		return fmt.Errorf("--fail-fast and --continue are mutually exclusive")
	}
	if opts.Event != "" && trigger.ParseEvent(opts.Event) == trigger.EventUnknown {
		return fmt.Errorf("invalid --event value %q\n  valid values: push, pull_request\n  example: testrig --event=push --branch=main", opts.Event)
	}
	if opts.Branch != "" && opts.Event == "" {
		return fmt.Errorf("--branch requires --event")
	}
	if trigger.ParseEvent(opts.Event) == trigger.EventPush && opts.Branch == "" {
		return fmt.Errorf("--event=push requires --branch")
	}
	return nil
}

func printUsage() {
	w := output.New()

	w.HelpTitle("testrig - run a project's test pipeline")

	w.HelpSection("Usage:")
	w.HelpUsage("testrig [command] [flags]")

	w.HelpSection("Commands:")
	w.HelpCommand("run", "Check the trigger, provision, install and run tests (default)", 18)
	w.HelpCommand("gate", "Report whether the trigger starts a run", 18)
	w.HelpCommand("init", "Create .testrig.yml from discovered test scripts", 18)
	w.HelpCommand("config validate", "Validate project configuration", 18)
	w.HelpCommand("workflow generate", "Write a GitHub Actions workflow", 18)
	w.HelpCommand("workflow import", "Create configuration from a workflow file", 18)
	w.HelpCommand("summary [file]", "Summarize unittest or pytest output", 18)
	w.HelpCommand("completion <shell>", "Generate shell completion (bash, zsh, fish)", 18)
	w.HelpCommand("version", "Show version information", 18)

	printGlobalFlags(w)

	w.HelpSection("Examples:")
	w.HelpExample("testrig", "Run the full pipeline")
	w.HelpExample("testrig --event=push --branch=dev", "Skip unless dev is the primary branch")
	w.HelpExample("testrig --fail-fast --report=report.json", "Stop at the first failure and save a report")
	w.HelpExample("testrig workflow import .github/workflows/ci.yml", "Convert an existing workflow")
	w.Println("")
}

func printGlobalFlags(w *output.Writer) {
	w.HelpSection("Global Flags:")
	w.HelpFlag("-q, --quiet", "Minimal output (errors only)", helpFlagWidthGlobal)
	w.HelpFlag("-v, --verbose", "Maximum detail", helpFlagWidthGlobal)
	w.HelpFlag("--config=<file>", "Use this configuration file", helpFlagWidthGlobal)
	w.HelpFlag("--event=<event>", "Triggering event (push, pull_request)", helpFlagWidthGlobal)
	w.HelpFlag("--branch=<name>", "Branch of the triggering event", helpFlagWidthGlobal)
	w.HelpFlag("--fail-fast", "Stop after the first failing entry", helpFlagWidthGlobal)
	w.HelpFlag("--continue", "Run every entry even after failures", helpFlagWidthGlobal)
	w.HelpFlag("--no-cache", "Do not restore or save the environment cache", helpFlagWidthGlobal)
	w.HelpFlag("--report=<file>", "Write a JSON or YAML run report", helpFlagWidthGlobal)
	w.HelpFlag("-h, --help", "Show this help", helpFlagWidthGlobal)
	w.HelpFlag("--version", "Show version", helpFlagWidthGlobal)

	w.HelpSection("Environment:")
	w.HelpEnvVar("GITHUB_EVENT_NAME", "Trigger event when --event is not given", 22)
	w.HelpEnvVar("TESTRIG_PRIMARY_BRANCH", "Override trigger.primary_branch", 22)
	w.HelpEnvVar("TESTRIG_CACHE_DIR", "Override dependencies.cache_dir", 22)
}
