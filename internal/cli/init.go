package cli

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/redobl/testrig/internal/config"
	"github.com/redobl/testrig/internal/errors"
	"github.com/redobl/testrig/internal/output"
	"github.com/redobl/testrig/internal/project"
	"github.com/redobl/testrig/internal/workflow"
)

// initOptions holds parsed init command options.
type initOptions struct {
	Force    bool // Overwrite an existing .testrig.yml
	Workflow bool // Also write the GitHub Actions workflow
}

// pythonVersionPattern matches the major.minor prefix of a .python-version entry.
var pythonVersionPattern = regexp.MustCompile(`^\d+\.\d+`)

// cmdInit creates .testrig.yml for the project in the current directory.
// Without --force an existing configuration is left untouched.
func cmdInit(args []string) int {
	opts := initOptions{}
	for _, arg := range args {
		switch arg {
		case "--force":
			opts.Force = true
		case "--workflow":
			opts.Workflow = true
		case "-h", "--help":
			printInitUsage()
			return 0
		default:
			out.ErrorPrefix("init: unknown option %q", arg)
			return errors.ExitConfigError
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitRuntimeError
	}

	if _, err := os.Stat(filepath.Join(cwd, project.ConfigFileName)); err == nil && !opts.Force {
		out.Info("Project already initialized (nothing to do)")
		return 0
	}

	entries, err := project.DiscoverEntries(cwd)
	if err != nil {
		out.ErrorPrefix("init: %v", err)
		return errors.ExitRuntimeError
	}
	if len(entries) == 0 {
		out.ErrorPrefix("init: no test scripts found (test_*.py or *_test.py)")
		return errors.ExitConfigError
	}

	cfg := &config.Config{
		Name:    sanitizeProjectName(filepath.Base(cwd)),
		Runtime: config.RuntimeConfig{Version: detectPythonVersion(cwd)},
		Tests:   config.TestsConfig{Entries: entries},
	}
	if code := writeConfig(cfg, opts.Force); code != 0 {
		return code
	}
	created := []string{project.ConfigFileName}

	if updateGitignore(cwd) {
		created = append(created, ".gitignore")
	}

	if opts.Workflow {
		wrote, err := workflow.Write(cwd, cfg, opts.Force)
		if err != nil {
			out.WarningSimple("could not create workflow: %v", err)
		} else if wrote {
			rel, _ := filepath.Rel(cwd, workflow.Path(cwd))
			created = append(created, filepath.ToSlash(rel))
		}
	}

	out.HelpSection("Test entries:")
	for _, e := range entries {
		out.Println("  - %s", e.Path)
	}
	out.HelpSection("Created:")
	for _, f := range created {
		out.Println("  - %s", f)
	}
	printNextSteps(out)
	return 0
}

// sanitizeProjectName converts a directory name to a valid project name.
func sanitizeProjectName(name string) string {
	name = strings.ToLower(name)

	// Replace invalid characters with hyphens
	var result strings.Builder
	prevHyphen := false
	for _, c := range name {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			result.WriteRune(c)
			prevHyphen = false
		} else if !prevHyphen && result.Len() > 0 {
			result.WriteRune('-')
			prevHyphen = true
		}
	}

	s := strings.TrimSuffix(result.String(), "-")

	// Ensure it starts with a letter
	if len(s) > 0 && s[0] >= '0' && s[0] <= '9' {
		s = "project-" + s
	}

	if s == "" {
		s = "my-project"
	}

	return s
}

// detectPythonVersion reads the major.minor version pinned in
// .python-version, or returns "" when there is none.
func detectPythonVersion(root string) string {
	data, err := os.ReadFile(filepath.Join(root, ".python-version"))
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		if v := pythonVersionPattern.FindString(strings.TrimSpace(line)); v != "" {
			return v
		}
	}
	return ""
}

// updateGitignore adds the cache directory to .gitignore and reports
// whether the file changed.
func updateGitignore(root string) bool {
	gitignorePath := filepath.Join(root, ".gitignore")

	entries := []string{
		"# testrig",
		".testrig/",
	}

	existingContent := ""
	if data, err := os.ReadFile(gitignorePath); err == nil {
		existingContent = string(data)
	}

	if strings.Contains(existingContent, "# testrig") {
		return false
	}

	var content strings.Builder
	if existingContent != "" {
		content.WriteString(existingContent)
		if !strings.HasSuffix(existingContent, "\n") {
			content.WriteString("\n")
		}
		content.WriteString("\n")
	}

	for _, entry := range entries {
		content.WriteString(entry)
		content.WriteString("\n")
	}

	if err := os.WriteFile(gitignorePath, []byte(content.String()), 0644); err != nil {
		out.WarningSimple("could not update .gitignore: %v", err)
		return false
	}
	return true
}

// printNextSteps prints helpful guidance after initialization.
func printNextSteps(w *output.Writer) {
	w.HelpSection("Next steps:")
	w.Println("  1. Review %s (interpreter version, labels, timeout)", project.ConfigFileName)
	w.Println("  2. Run 'testrig config validate' to check it")
	w.Println("  3. Run 'testrig' to run the pipeline")
	w.Println("")
}

func printInitUsage() {
	w := output.New()

	w.HelpTitle("testrig init - create a project configuration")

	w.HelpSection("Usage:")
	w.HelpUsage("testrig init [--force] [--workflow]")

	w.HelpSection("Description:")
	w.Println("  Discovers test scripts (test_*.py, *_test.py) below the current")
	w.Println("  directory and writes %s listing them as entries.", project.ConfigFileName)

	w.HelpSection("Options:")
	w.HelpFlag("--force", "Overwrite an existing configuration", helpFlagWidthShort)
	w.HelpFlag("--workflow", "Also write a GitHub Actions workflow", helpFlagWidthShort)
	w.HelpFlag("-h, --help", "Show this help", helpFlagWidthShort)
	w.Println("")
}
