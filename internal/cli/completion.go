package cli

import (
	"fmt"
	"strings"

	"github.com/redobl/testrig/internal/errors"
	"github.com/redobl/testrig/internal/output"
)

// cmdCompletion generates shell completion scripts.
func cmdCompletion(args []string) int {
	shell := ""
	alias := ""

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-h" || arg == "--help":
			printCompletionUsage()
			return 0
		case strings.HasPrefix(arg, "--alias="):
			alias = strings.TrimPrefix(arg, "--alias=")
		case arg == "--alias":
			out.ErrorPrefix("completion: --alias requires a value (--alias=<name>)")
			return errors.ExitConfigError
		case strings.HasPrefix(arg, "-"):
			out.ErrorPrefix("completion: unknown flag: %s", arg)
			return errors.ExitConfigError
		default:
			if shell != "" {
				out.ErrorPrefix("completion: unexpected argument: %s", arg)
				return errors.ExitConfigError
			}
			shell = arg
		}
	}

	if shell == "" {
		out.ErrorPrefix("completion: shell required (bash, zsh, fish)")
		return errors.ExitConfigError
	}

	cmdName := "testrig"
	if alias != "" {
		cmdName = alias
	}

	switch shell {
	case "bash":
		out.Print("%s", generateBashCompletion(cmdName))
	case "zsh":
		out.Print("%s", generateZshCompletion(cmdName))
	case "fish":
		out.Print("%s", generateFishCompletion(cmdName))
	default:
		out.ErrorPrefix("completion: unsupported shell %q (use bash, zsh, or fish)", shell)
		return errors.ExitConfigError
	}

	return 0
}

// printCompletionUsage prints the help text for the completion command.
func printCompletionUsage() {
	w := output.New()

	w.HelpTitle("testrig completion - generate shell completion scripts")

	w.HelpSection("Usage:")
	w.HelpUsage("testrig completion <shell> [--alias=<name>]")

	w.HelpSection("Arguments:")
	w.HelpFlag("<shell>", "Shell type: bash, zsh, or fish", helpFlagWidthShort)

	w.HelpSection("Options:")
	w.HelpFlag("--alias=<name>", "Generate completion for command alias", 14)
	w.HelpFlag("-h, --help", "Show this help", 14)

	w.HelpSection("Installation:")
	w.Println("  Bash:  eval \"$(testrig completion bash)\"")
	w.Println("  Zsh:   eval \"$(testrig completion zsh)\"")
	w.Println("  Fish:  testrig completion fish | source")
	w.Println("")
}

type completionItem struct {
	name string
	desc string
}

// builtinCommands lists the commands offered as the first argument.
func builtinCommands() []completionItem {
	return []completionItem{
		{"run", "Run the test pipeline"},
		{"gate", "Check whether an event starts a run"},
		{"init", "Create a project configuration"},
		{"config", "Configuration utilities"},
		{"workflow", "GitHub Actions interop"},
		{"summary", "Summarize test output"},
		{"completion", "Generate shell completion"},
		{"version", "Show version information"},
		{"help", "Show help"},
	}
}

// subcommands lists the second-level words of commands that take one.
func subcommands() map[string][]completionItem {
	return map[string][]completionItem{
		"config": {{"validate", "Validate configuration"}},
		"workflow": {
			{"generate", "Write a GitHub Actions workflow"},
			{"import", "Create configuration from a workflow"},
		},
		"completion": {
			{"bash", "Generate bash completion"},
			{"zsh", "Generate zsh completion"},
			{"fish", "Generate fish completion"},
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []completionItem {
	return []completionItem{
		{"--quiet", "Minimal output"},
		{"--verbose", "Maximum detail"},
		{"--config", "Configuration file"},
		{"--event", "Triggering event"},
		{"--branch", "Branch of the triggering event"},
		{"--fail-fast", "Stop after the first failing entry"},
		{"--continue", "Run every entry"},
		{"--no-cache", "Disable the environment cache"},
		{"--report", "Write a run report"},
		{"--help", "Show help"},
		{"--version", "Show version"},
	}
}

func names(items []completionItem) string {
	s := make([]string, len(items))
	for i, it := range items {
		s[i] = it.name
	}
	return strings.Join(s, " ")
}

func generateBashCompletion(cmdName string) string {
	funcName := "_" + strings.ReplaceAll(cmdName, "-", "_") + "_completions"
	subs := subcommands()

	return fmt.Sprintf(`# testrig bash completion
# Add to ~/.bashrc: eval "$(testrig completion bash)"

%s() {
    local cur prev words cword
    _init_completion || return

    local commands="%s"
    local flags="%s"

    case "${prev}" in
        %s)
            COMPREPLY=($(compgen -W "${commands} ${flags}" -- "${cur}"))
            return
            ;;
        config)
            COMPREPLY=($(compgen -W "%s" -- "${cur}"))
            return
            ;;
        workflow)
            COMPREPLY=($(compgen -W "%s" -- "${cur}"))
            return
            ;;
        completion)
            COMPREPLY=($(compgen -W "%s" -- "${cur}"))
            return
            ;;
        --event)
            COMPREPLY=($(compgen -W "push pull_request" -- "${cur}"))
            return
            ;;
        --config|--report|import)
            _filedir
            return
            ;;
    esac

    COMPREPLY=($(compgen -W "${flags}" -- "${cur}"))
}

complete -F %s %s
`, funcName, names(builtinCommands()), names(globalFlags()), cmdName,
		names(subs["config"]), names(subs["workflow"]), names(subs["completion"]),
		funcName, cmdName)
}

func generateZshCompletion(cmdName string) string {
	funcName := "_" + strings.ReplaceAll(cmdName, "-", "_")

	var b strings.Builder
	fmt.Fprintf(&b, "#compdef %s\n", cmdName)
	b.WriteString("# testrig zsh completion\n")
	b.WriteString("# Add to ~/.zshrc: eval \"$(testrig completion zsh)\"\n\n")
	fmt.Fprintf(&b, "%s() {\n", funcName)
	b.WriteString("    local -a commands flags\n\n")

	b.WriteString("    commands=(\n")
	for _, c := range builtinCommands() {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.name, c.desc)
	}
	b.WriteString("    )\n\n")

	b.WriteString("    flags=(\n")
	for _, f := range globalFlags() {
		switch f.name {
		case "--event":
			fmt.Fprintf(&b, "        '%s=[%s]:event:(push pull_request)'\n", f.name, f.desc)
		case "--config", "--report":
			fmt.Fprintf(&b, "        '%s=[%s]:file:_files'\n", f.name, f.desc)
		case "--branch":
			fmt.Fprintf(&b, "        '%s=[%s]:branch:'\n", f.name, f.desc)
		default:
			fmt.Fprintf(&b, "        '%s[%s]'\n", f.name, f.desc)
		}
	}
	b.WriteString("    )\n\n")

	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe -t commands 'command' commands\n")
	b.WriteString("        _arguments -s $flags[@]\n")
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")

	b.WriteString("    case \"${words[2]}\" in\n")
	subs := subcommands()
	for _, cmd := range []string{"config", "workflow", "completion"} {
		fmt.Fprintf(&b, "        %s)\n", cmd)
		b.WriteString("            local -a subs\n")
		b.WriteString("            subs=(")
		for i, s := range subs[cmd] {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "'%s:%s'", s.name, s.desc)
		}
		b.WriteString(")\n")
		fmt.Fprintf(&b, "            _describe -t subcommands '%s subcommand' subs\n", cmd)
		b.WriteString("            ;;\n")
	}
	b.WriteString("        *)\n")
	b.WriteString("            _arguments -s $flags[@]\n")
	b.WriteString("            ;;\n")
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	fmt.Fprintf(&b, "compdef %s %s\n", funcName, cmdName)
	return b.String()
}

func generateFishCompletion(cmdName string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `# testrig fish completion
# Add to config: testrig completion fish | source

# Disable file completion by default
complete -c %s -f

`, cmdName)

	for _, c := range builtinCommands() {
		fmt.Fprintf(&sb, "complete -c %s -n '__fish_use_subcommand' -a '%s' -d '%s'\n", cmdName, c.name, c.desc)
	}

	sb.WriteString("\n# Global flags\n")
	for _, f := range globalFlags() {
		long := strings.TrimPrefix(f.name, "--")
		switch long {
		case "event":
			fmt.Fprintf(&sb, "complete -c %s -l %s -d '%s' -xa 'push pull_request'\n", cmdName, long, f.desc)
		case "config", "report":
			fmt.Fprintf(&sb, "complete -c %s -l %s -d '%s' -r -F\n", cmdName, long, f.desc)
		default:
			fmt.Fprintf(&sb, "complete -c %s -l %s -d '%s'\n", cmdName, long, f.desc)
		}
	}

	subs := subcommands()
	for _, cmd := range []string{"config", "workflow", "completion"} {
		fmt.Fprintf(&sb, "\n# %s subcommands\n", cmd)
		for _, s := range subs[cmd] {
			fmt.Fprintf(&sb, "complete -c %s -n '__fish_seen_subcommand_from %s' -a '%s' -d '%s'\n", cmdName, cmd, s.name, s.desc)
		}
	}

	return sb.String()
}
