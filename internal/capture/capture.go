// Package capture holds helpers shared by everything that runs child processes.
package capture

import (
	"errors"
	"os/exec"
	"strings"
	"sync"
)

// DefaultLimit is the number of trailing output bytes kept per process.
const DefaultLimit = 64 * 1024

// Tail keeps the last limit bytes written to it and discards the rest.
// It is safe for concurrent use so stdout and stderr can share one Tail.
type Tail struct {
	mu        sync.Mutex
	buf       []byte
	limit     int
	truncated bool
}

// NewTail creates a Tail. A non-positive limit uses DefaultLimit.
func NewTail(limit int) *Tail {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Tail{limit: limit}
}

// Write always reports len(p) bytes consumed so io.MultiWriter never
// sees a short write.
func (t *Tail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(p) >= t.limit {
		t.truncated = t.truncated || len(t.buf) > 0 || len(p) > t.limit
		t.buf = append(t.buf[:0], p[len(p)-t.limit:]...)
		return len(p), nil
	}

	if over := len(t.buf) + len(p) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
		t.truncated = true
	}
	t.buf = append(t.buf, p...)
	return len(p), nil
}

// String returns the retained output.
func (t *Tail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

// Truncated reports whether earlier output was dropped.
func (t *Tail) Truncated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.truncated
}

// LastLines returns at most n trailing non-empty lines of s.
func LastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// ExitCode extracts the exit status from an exec error. The second result
// is false when the process never started or exited abnormally without
// a status.
func ExitCode(err error) (int, bool) {
	if err == nil {
		return 0, true
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, true
		}
	}
	return 0, false
}
