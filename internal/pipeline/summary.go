package pipeline

import (
	"github.com/redobl/testrig/internal/output"
	"github.com/redobl/testrig/internal/runner"
)

// PrintSummary prints the stage outcomes followed by the test summary.
// Nothing is printed for a run the trigger gate skipped.
func PrintSummary(report *Report, out *output.Writer) {
	if report.Skipped {
		return
	}

	out.SummaryHeader("Pipeline Summary")
	out.SummarySectionLabel("Stages:")
	for _, s := range report.Stages {
		detail := s.Detail
		if s.Error != "" {
			detail = "aborted"
		}
		out.SummaryAction(string(s.Kind), s.Success, runner.FormatDuration(s.Duration), detail)
	}

	if !ranTests(report) {
		if report.ExitCode != 0 {
			out.FinalFailure("Run aborted before tests were executed.")
		}
		return
	}
	runner.PrintSummary(report.Results, report.NotRun, out)
}

func ranTests(report *Report) bool {
	for _, s := range report.Stages {
		if s.Kind == StageRun {
			return true
		}
	}
	return false
}
