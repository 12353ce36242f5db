package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/redobl/testrig/internal/output"
	"github.com/redobl/testrig/internal/testparser"
)

// PrintSummary prints a summary of test entry results.
// skipped is the number of entries that were not executed.
func PrintSummary(results []RunResult, skipped int, out *output.Writer) {
	out.SummaryHeader("Test Summary")

	out.SummarySectionLabel("Entries:")
	var total time.Duration
	var counts testparser.TestCounts
	for _, r := range results {
		total += r.Duration
		counts.Add(&r.Counts)
		out.SummaryAction(r.Entry.Label, r.Passed(), FormatDuration(r.Duration), detail(r))
	}
	out.Println("")

	var passed, failed []string
	for _, r := range results {
		if r.Passed() {
			passed = append(passed, r.Entry.Label)
		} else {
			failed = append(failed, r.Entry.Label)
		}
	}
	if len(passed) > 0 {
		out.SummaryPassed("Passed", strings.Join(passed, ", "))
	}
	if len(failed) > 0 {
		out.SummaryFailed("Failed", strings.Join(failed, ", "))
	}
	if skipped > 0 {
		out.SummaryItem("Not run", fmt.Sprintf("%d", skipped))
	}
	if counts.Parsed {
		out.SummaryItem("Tests", fmt.Sprintf("%d passed, %d failed, %d skipped", counts.Passed, counts.Failed, counts.Skipped))
	}
	out.SummaryItem("Duration", FormatDuration(total))

	if len(counts.FailedTests) > 0 {
		out.Println("")
		out.SummarySectionLabel("Failed Tests:")
		for _, ft := range counts.FailedTests {
			out.SummaryFailed("  "+ft.Name, ft.Reason)
		}
	}

	if ComputeVerdict(results) == VerdictSuccess && skipped == 0 {
		out.FinalSuccess("All %d test entries passed.", len(results))
	} else {
		out.FinalFailure("%d of %d test entries failed.", len(failed), len(results)+skipped)
	}
}

// detail describes a result in one short phrase for the summary table.
func detail(r RunResult) string {
	switch {
	case r.TimedOut:
		return "timed out"
	case r.Error != "":
		return "could not start"
	case !r.Passed():
		if r.Counts.Parsed {
			return fmt.Sprintf("exit %d, %d of %d failed", r.ExitCode, r.Counts.Failed, r.Counts.Total)
		}
		return fmt.Sprintf("exit %d", r.ExitCode)
	case r.Counts.Parsed:
		return fmt.Sprintf("%d passed", r.Counts.Passed)
	default:
		return ""
	}
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", m, s)
}
