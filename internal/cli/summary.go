package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/redobl/testrig/internal/errors"
	"github.com/redobl/testrig/internal/testparser"
)

// cmdSummary parses unittest or pytest output and prints a summary.
func cmdSummary(args []string) int {
	format := "auto"
	path := ""

	for _, arg := range args {
		switch {
		case arg == "-h" || arg == "--help":
			printSummaryUsage()
			return 0
		case strings.HasPrefix(arg, "--format="):
			format = strings.TrimPrefix(arg, "--format=")
		case arg == "-":
			path = arg
		case strings.HasPrefix(arg, "-"):
			out.ErrorPrefix("summary: unknown option %q", arg)
			return errors.ExitConfigError
		default:
			if path != "" {
				out.ErrorPrefix("summary: unexpected argument %q", arg)
				return errors.ExitConfigError
			}
			path = arg
		}
	}

	if format != "auto" && format != "none" && testparser.NewRegistry().GetParser(format) == nil {
		out.ErrorPrefix("summary: unknown format %q (use auto, unittest or pytest)", format)
		return errors.ExitConfigError
	}

	var input io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			out.ErrorPrefix("summary: %v", err)
			return errors.ExitRuntimeError
		}
		defer func() { _ = f.Close() }()
		input = f
	}

	data, err := io.ReadAll(input)
	if err != nil {
		out.ErrorPrefix("summary: %v", err)
		return errors.ExitRuntimeError
	}

	counts := testparser.NewRegistry().Parse(format, string(data))
	if !counts.Parsed {
		out.ErrorPrefix("summary: no test results found in input")
		out.Hint("pass the output of 'python -m unittest' or 'pytest'")
		return errors.ExitRuntimeError
	}

	printTestSummary(&counts)

	if counts.Failed > 0 {
		return errors.ExitRuntimeError
	}
	return 0
}

// printTestSummary prints a formatted test summary.
func printTestSummary(counts *testparser.TestCounts) {
	out.Println("")
	out.SummaryHeader("Test Summary")

	out.SummaryPassed("Passed", fmt.Sprintf("%d", counts.Passed))
	if counts.Failed > 0 {
		out.SummaryFailed("Failed", fmt.Sprintf("%d", counts.Failed))
	}
	if counts.Skipped > 0 {
		out.SummaryItem("Skipped", fmt.Sprintf("%d", counts.Skipped))
	}
	out.SummaryItem("Total", fmt.Sprintf("%d", counts.Total))

	if len(counts.FailedTests) > 0 {
		out.Println("")
		out.SummarySectionLabel("Failed Tests:")
		for _, ft := range counts.FailedTests {
			out.SummaryFailed("  "+ft.Name, ft.Reason)
		}
	}

	out.Println("")

	if counts.Failed == 0 {
		out.FinalSuccess("All %d tests passed.", counts.Total-counts.Skipped)
	} else {
		out.FinalFailure("%d of %d tests failed.", counts.Failed, counts.Total)
	}
}

func printSummaryUsage() {
	out.HelpTitle("testrig summary - summarize unittest or pytest output")
	out.HelpSection("Usage:")
	out.HelpUsage("testrig summary [--format=<format>] [<file>|-]")
	out.HelpSection("Description:")
	out.Println("  Reads captured test output from a file or stdin and prints pass,")
	out.Println("  fail and skip counts, listing failed tests with their reasons.")
	out.Println("")
	out.HelpSection("Options:")
	out.HelpFlag("--format=<f>", "auto (default), unittest or pytest", helpFlagWidthGlobal)
	out.HelpFlag("-h, --help", "Show this help", helpFlagWidthGlobal)
	out.Println("")
	out.HelpSection("Examples:")
	out.HelpExample("python -m unittest 2>&1 | testrig summary", "Parse from stdin")
	out.HelpExample("testrig summary --format=pytest pytest.log", "Parse from file")
	out.Println("")
}
