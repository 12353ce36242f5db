package runner

import (
	"testing"
	"time"
)

func results(codes ...int) []RunResult {
	rs := make([]RunResult, len(codes))
	for i, c := range codes {
		rs[i] = RunResult{ExitCode: c}
	}
	return rs
}

func TestComputeVerdict(t *testing.T) {
	tests := []struct {
		name  string
		codes []int
		want  Verdict
	}{
		{"empty", nil, VerdictSuccess},
		{"all pass", []int{0, 0}, VerdictSuccess},
		{"one failure", []int{0, 1}, VerdictFailure},
		{"timeout", []int{-1}, VerdictFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeVerdict(results(tt.codes...)); got != tt.want {
				t.Errorf("ComputeVerdict(%v) = %q, want %q", tt.codes, got, tt.want)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name  string
		codes []int
		want  int
	}{
		{"empty", nil, 0},
		{"all pass", []int{0, 0, 0}, 0},
		{"first failure wins", []int{0, 3, 2}, 3},
		{"failure then pass", []int{1, 0}, 1},
		{"timeout maps to 1", []int{-1, 2}, 1},
		{"start failure maps to 1", []int{127}, 1},
		{"signal range maps to 1", []int{137}, 1},
		{"125 kept", []int{125}, 125},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(results(tt.codes...)); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.codes, got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "500ms"},
		{999 * time.Millisecond, "999ms"},
		{time.Second, "1.0s"},
		{2500 * time.Millisecond, "2.5s"},
		{59 * time.Second, "59.0s"},
		{time.Minute, "1m0s"},
		{2*time.Minute + 30*time.Second, "2m30s"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
