package testparser

import (
	"regexp"
	"strconv"
	"strings"
)

// Static regexes for pytest output parsing.
// Compiled once at package init for performance.
var (
	pytestPassedRegex  = regexp.MustCompile(`(\d+) passed`)
	pytestFailedRegex  = regexp.MustCompile(`(\d+) failed`)
	pytestSkippedRegex = regexp.MustCompile(`(\d+) skipped`)
	pytestErrorsRegex  = regexp.MustCompile(`(\d+) errors?\b`)
	pytestSummaryRegex = regexp.MustCompile(`(?m)^=+ .*\bin [\d.]+s.* =+$`)
	pytestFailureRegex = regexp.MustCompile(`(?m)^(?:FAILED|ERROR) (\S+)(?: - (.*))?$`)
)

// PytestParser parses Python pytest output.
type PytestParser struct{}

// Name returns the parser name.
func (p *PytestParser) Name() string {
	return "pytest"
}

// Parse extracts test counts from pytest output.
// pytest outputs summary lines like:
//
//	======= 47 passed in 0.12s =======
//	======= 45 passed, 2 failed in 0.12s =======
//	======= 30 passed, 0 failed, 3 skipped in 0.12s =======
//	======= 1 passed, 2 failed, 3 skipped, 4 warnings in 0.12s =======
//
// Collection and fixture errors count as failures. The short test summary
// ("FAILED tests/test_x.py::test_y - AssertionError") fills FailedTests.
func (p *PytestParser) Parse(output string) TestCounts {
	counts := TestCounts{}

	summary := output
	if lines := pytestSummaryRegex.FindAllString(output, -1); len(lines) > 0 {
		summary = lines[len(lines)-1]
	}

	if match := pytestPassedRegex.FindStringSubmatch(summary); len(match) >= 2 {
		counts.Passed, _ = strconv.Atoi(match[1])
		counts.Parsed = true
	}

	if match := pytestFailedRegex.FindStringSubmatch(summary); len(match) >= 2 {
		counts.Failed, _ = strconv.Atoi(match[1])
		counts.Parsed = true
	}

	if match := pytestErrorsRegex.FindStringSubmatch(summary); len(match) >= 2 {
		n, _ := strconv.Atoi(match[1])
		counts.Failed += n
		counts.Parsed = true
	}

	if match := pytestSkippedRegex.FindStringSubmatch(summary); len(match) >= 2 {
		counts.Skipped, _ = strconv.Atoi(match[1])
		counts.Parsed = true
	}

	if counts.Parsed {
		counts.Total = counts.Passed + counts.Failed + counts.Skipped
	}

	for _, m := range pytestFailureRegex.FindAllStringSubmatch(output, -1) {
		counts.FailedTests = append(counts.FailedTests, FailedTest{
			Name:   m[1],
			Reason: strings.TrimSpace(m[2]),
		})
	}

	return counts
}

// looksLikePytest reports whether output contains a pytest session summary.
func looksLikePytest(output string) bool {
	return pytestSummaryRegex.MatchString(output)
}
