package testparser

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	unittestRanRegex     = regexp.MustCompile(`(?m)^Ran (\d+) tests? in [\d.]+s`)
	unittestResultRegex  = regexp.MustCompile(`(?m)^(OK|FAILED)(?: \(([^)]*)\))?\s*$`)
	unittestFailureRegex = regexp.MustCompile(`(?m)^(FAIL|ERROR): (.+)$`)
	unittestReasonRegex  = regexp.MustCompile(`(?m)^(\w+(?:\.\w+)*(?:Error|Exception|Failure)\b.*)$`)
)

// UnittestParser parses the output of Python's unittest runner.
type UnittestParser struct{}

// Name returns the parser name.
func (p *UnittestParser) Name() string {
	return "unittest"
}

// Parse extracts test counts from unittest output, which ends with:
//
//	Ran 12 tests in 0.034s
//
//	FAILED (failures=1, errors=2, skipped=1)
//
// or "OK" / "OK (skipped=1, expected failures=1)". Errors count as failures
// and expected failures as passes.
func (p *UnittestParser) Parse(output string) TestCounts {
	counts := TestCounts{}

	ran := unittestRanRegex.FindAllStringSubmatch(output, -1)
	if len(ran) == 0 {
		return counts
	}
	counts.Total, _ = strconv.Atoi(ran[len(ran)-1][1])
	counts.Parsed = true

	if results := unittestResultRegex.FindAllStringSubmatch(output, -1); len(results) > 0 {
		for key, n := range parseUnittestDetails(results[len(results)-1][2]) {
			switch key {
			case "failures", "errors", "unexpected successes":
				counts.Failed = addCapped(counts.Failed, n, counts.Total)
			case "skipped":
				counts.Skipped = addCapped(counts.Skipped, n, counts.Total)
			}
		}
	}

	counts.Passed = counts.Total - counts.Failed - counts.Skipped
	if counts.Passed < 0 {
		counts.Passed = 0
	}

	counts.FailedTests = parseUnittestFailures(output)
	return counts
}

// addCapped returns a+b, never exceeding limit.
func addCapped(a, b, limit int) int {
	if b > limit-a {
		return limit
	}
	return a + b
}

// parseUnittestDetails parses "failures=1, errors=2" into a map.
func parseUnittestDetails(details string) map[string]int {
	result := make(map[string]int)
	for _, part := range strings.Split(details, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			continue
		}
		result[key] = n
	}
	return result
}

// parseUnittestFailures collects the "FAIL: name" and "ERROR: name" headers
// and the last exception line of each traceback block.
func parseUnittestFailures(output string) []FailedTest {
	locs := unittestFailureRegex.FindAllStringSubmatchIndex(output, -1)
	if len(locs) == 0 {
		return nil
	}

	failed := make([]FailedTest, 0, len(locs))
	for i, loc := range locs {
		name := output[loc[4]:loc[5]]
		end := len(output)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		block := output[loc[1]:end]

		var reason string
		if reasons := unittestReasonRegex.FindAllString(block, -1); len(reasons) > 0 {
			reason = strings.TrimSpace(reasons[len(reasons)-1])
		}
		failed = append(failed, FailedTest{Name: strings.TrimSpace(name), Reason: reason})
	}
	return failed
}

// looksLikeUnittest reports whether output contains a unittest run summary.
func looksLikeUnittest(output string) bool {
	return unittestRanRegex.MatchString(output)
}
