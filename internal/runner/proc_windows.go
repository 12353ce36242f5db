//go:build windows

package runner

import "os/exec"

// killProcessGroup is a no-op on Windows; exec.CommandContext kills the
// direct child only.
func killProcessGroup(cmd *exec.Cmd) {}
