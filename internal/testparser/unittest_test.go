package testparser

import "testing"

const unittestFailureOutput = `..F.E
======================================================================
ERROR: test_load (test_mapparser.TestMap.test_load)
----------------------------------------------------------------------
Traceback (most recent call last):
  File "tests/test_mapparser.py", line 12, in test_load
    m = mapparser.Map("missing.tmx")
FileNotFoundError: [Errno 2] No such file or directory: 'missing.tmx'

======================================================================
FAIL: test_format_inventory_list (test_player.TestPlayer.test_format_inventory_list)
----------------------------------------------------------------------
Traceback (most recent call last):
  File "tests/test_player.py", line 21, in test_format_inventory_list
    self.assertEqual(a, b)
AssertionError: Lists differ: ['27ж'] != ['28ж']

----------------------------------------------------------------------
Ran 5 tests in 0.034s

FAILED (failures=1, errors=1)
`

func TestUnittestParser(t *testing.T) {
	t.Parallel()
	parser := &UnittestParser{}

	tests := []struct {
		name     string
		output   string
		expected TestCounts
	}{
		{
			name:     "all passed",
			output:   "....\n----------------------------------------------------------------------\nRan 4 tests in 0.010s\n\nOK\n",
			expected: TestCounts{Passed: 4, Total: 4, Parsed: true},
		},
		{
			name:     "single test",
			output:   "Ran 1 test in 0.001s\n\nOK\n",
			expected: TestCounts{Passed: 1, Total: 1, Parsed: true},
		},
		{
			name:     "skipped",
			output:   "Ran 3 tests in 0.002s\n\nOK (skipped=1)\n",
			expected: TestCounts{Passed: 2, Skipped: 1, Total: 3, Parsed: true},
		},
		{
			name:     "expected failures pass",
			output:   "Ran 3 tests in 0.002s\n\nOK (skipped=1, expected failures=1)\n",
			expected: TestCounts{Passed: 2, Skipped: 1, Total: 3, Parsed: true},
		},
		{
			name:     "failures and errors",
			output:   unittestFailureOutput,
			expected: TestCounts{Passed: 3, Failed: 2, Total: 5, Parsed: true},
		},
		{
			name:     "unexpected success fails",
			output:   "Ran 2 tests in 0.002s\n\nFAILED (unexpected successes=1)\n",
			expected: TestCounts{Passed: 1, Failed: 1, Total: 2, Parsed: true},
		},
		{
			name:     "no tests ran",
			output:   "Ran 0 tests in 0.000s\n\nNO TESTS RAN\n",
			expected: TestCounts{Total: 0, Parsed: true},
		},
		{
			name:     "not unittest output",
			output:   "Traceback (most recent call last):\nImportError: No module named mapparser\n",
			expected: TestCounts{Parsed: false},
		},
		{
			name:     "empty output",
			output:   "",
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

func TestUnittestParser_FailedTests(t *testing.T) {
	t.Parallel()
	result := (&UnittestParser{}).Parse(unittestFailureOutput)

	want := []FailedTest{
		{
			Name:   "test_load (test_mapparser.TestMap.test_load)",
			Reason: "FileNotFoundError: [Errno 2] No such file or directory: 'missing.tmx'",
		},
		{
			Name:   "test_format_inventory_list (test_player.TestPlayer.test_format_inventory_list)",
			Reason: "AssertionError: Lists differ: ['27ж'] != ['28ж']",
		},
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

func TestParseUnittestDetails(t *testing.T) {
	t.Parallel()
	got := parseUnittestDetails("failures=1, errors=2, skipped=x, bogus")

	if got["failures"] != 1 || got["errors"] != 2 {
		t.Errorf("parseUnittestDetails() = %v", got)
	}
	if _, ok := got["skipped"]; ok {
		t.Error("non-numeric value should be ignored")
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}
