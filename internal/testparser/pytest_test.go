package testparser

import "testing"

func TestPytestParser(t *testing.T) {
	t.Parallel()
	parser := &PytestParser{}

	tests := []struct {
		name     string
		output   string
		expected TestCounts
	}{
		{
			name:     "basic pass",
			output:   "======= 47 passed in 0.12s =======",
			expected: TestCounts{Passed: 47, Failed: 0, Skipped: 0, Total: 47, Parsed: true},
		},
		{
			name:     "with failures",
			output:   "======= 45 passed, 2 failed in 0.12s =======",
			expected: TestCounts{Passed: 45, Failed: 2, Skipped: 0, Total: 47, Parsed: true},
		},
		{
			name:     "full summary",
			output:   "======= 30 passed, 2 failed, 3 skipped, 4 warnings in 0.12s =======",
			expected: TestCounts{Passed: 30, Failed: 2, Skipped: 3, Total: 35, Parsed: true},
		},
		{
			name: "verbose output",
			output: `tests/test_player.py::test_inventory PASSED
tests/test_player.py::test_format PASSED
======= 2 passed in 0.12s =======`,
			expected: TestCounts{Passed: 2, Total: 2, Parsed: true},
		},
		{
			// Collection errors fail the session, so they count as failures.
			name:     "with errors",
			output:   "======= 10 passed, 2 errors in 0.12s =======",
			expected: TestCounts{Passed: 10, Failed: 2, Total: 12, Parsed: true},
		},
		{
			name:     "single error",
			output:   "======= 1 error in 0.05s =======",
			expected: TestCounts{Failed: 1, Total: 1, Parsed: true},
		},
		{
			name:     "with deselected",
			output:   "======= 10 passed, 5 deselected in 0.12s =======",
			expected: TestCounts{Passed: 10, Total: 10, Parsed: true},
		},
		{
			// Test output mentioning counts must not be mistaken for the summary.
			name: "summary line wins over test output",
			output: `log: 99 failed attempts retried
======= 3 passed in 0.40s =======`,
			expected: TestCounts{Passed: 3, Total: 3, Parsed: true},
		},
		{
			name:     "empty output",
			output:   "",
			expected: TestCounts{Parsed: false},
		},
		{
			name:     "no test results",
			output:   "collecting ...\ncollected 0 items\n",
			expected: TestCounts{Parsed: false},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := parser.Parse(tt.output)
			if result.Passed != tt.expected.Passed {
				t.Errorf("Passed: got %d, want %d", result.Passed, tt.expected.Passed)
			}
			if result.Failed != tt.expected.Failed {
				t.Errorf("Failed: got %d, want %d", result.Failed, tt.expected.Failed)
			}
			if result.Skipped != tt.expected.Skipped {
				t.Errorf("Skipped: got %d, want %d", result.Skipped, tt.expected.Skipped)
			}
			if result.Total != tt.expected.Total {
				t.Errorf("Total: got %d, want %d", result.Total, tt.expected.Total)
			}
			if result.Parsed != tt.expected.Parsed {
				t.Errorf("Parsed: got %v, want %v", result.Parsed, tt.expected.Parsed)
			}
		})
	}
}

func TestPytestParser_FailedTests(t *testing.T) {
	t.Parallel()
	output := `=========================== short test summary info ============================
FAILED tests/test_player.py::test_inventory - AssertionError: assert 1 == 2
ERROR tests/test_mapparser.py
======================= 1 failed, 3 passed, 1 error in 0.21s ===================
`
	result := (&PytestParser{}).Parse(output)

	if result.Failed != 2 || result.Passed != 3 || result.Total != 5 {
		t.Errorf("counts = %+v", result)
	}
	want := []FailedTest{
		{Name: "tests/test_player.py::test_inventory", Reason: "AssertionError: assert 1 == 2"},
		{Name: "tests/test_mapparser.py"},
	}
	if len(result.FailedTests) != len(want) {
		t.Fatalf("FailedTests = %+v, want %+v", result.FailedTests, want)
	}
	for i := range want {
		if result.FailedTests[i] != want[i] {
			t.Errorf("FailedTests[%d] = %+v, want %+v", i, result.FailedTests[i], want[i])
		}
	}
}
