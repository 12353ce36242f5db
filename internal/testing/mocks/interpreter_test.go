package mocks

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestInterpreter_Version(t *testing.T) {
	path, err := NewInterpreter("fakepy").WithVersion("3.11.2").Install(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	out, err := exec.Command(path, "--version").Output()
	if err != nil {
		t.Fatalf("--version error = %v", err)
	}
	if got := strings.TrimSpace(string(out)); got != "Python 3.11.2" {
		t.Errorf("--version = %q", got)
	}
}

func TestInterpreter_Venv(t *testing.T) {
	dir := t.TempDir()
	path, err := NewInterpreter("fakepy").Install(dir)
	if err != nil {
		t.Fatal(err)
	}

	venv := filepath.Join(dir, "venv")
	if err := exec.Command(path, "-m", "venv", venv).Run(); err != nil {
		t.Fatalf("-m venv error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(venv, "bin", "python")); err != nil {
		t.Errorf("venv interpreter missing: %v", err)
	}
}

func TestInterpreter_VenvFailure(t *testing.T) {
	path, err := NewInterpreter("fakepy").WithVenvFailure().Install(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := exec.Command(path, "-m", "venv", filepath.Join(t.TempDir(), "v")).Run(); err == nil {
		t.Error("-m venv succeeded, want failure")
	}
}

func TestInterpreter_Pip(t *testing.T) {
	fake := NewInterpreter("fakepy").WithUnresolvable("nonexistent-pkg")
	path, err := fake.Install(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := exec.Command(path, "-m", "pip", "install", "requests==2.31.0").Run(); err != nil {
		t.Errorf("pip install requests error = %v", err)
	}
	if err := exec.Command(path, "-m", "pip", "install", "nonexistent-pkg==1.0").Run(); err == nil {
		t.Error("pip install nonexistent-pkg succeeded, want failure")
	}
	if err := exec.Command(path, "-m", "pip", "install", "nonexistent-pkg-extra").Run(); err != nil {
		t.Errorf("pip install of a name sharing the prefix failed: %v", err)
	}

	calls, err := fake.PipCalls()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"install requests==2.31.0", "install nonexistent-pkg==1.0", "install nonexistent-pkg-extra"}
	if len(calls) != len(want) {
		t.Fatalf("PipCalls() = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("PipCalls()[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestInterpreter_RunsScripts(t *testing.T) {
	dir := t.TempDir()
	path, err := NewInterpreter("fakepy").Install(dir)
	if err != nil {
		t.Fatal(err)
	}
	script := filepath.Join(dir, "test_a.py")
	os.WriteFile(script, []byte("echo \"args: $*\"\nexit 3\n"), 0644)

	out, err := exec.Command(path, script, "-v").Output()
	if code := exitCode(err); code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
	if got := strings.TrimSpace(string(out)); got != "args: -v" {
		t.Errorf("output = %q", got)
	}
}

func TestInterpreter_PipCallsBeforeInstall(t *testing.T) {
	fake := NewInterpreter("fakepy")
	fake.log = filepath.Join(t.TempDir(), "missing.log")

	calls, err := fake.PipCalls()
	if err != nil || calls != nil {
		t.Errorf("PipCalls() = %v, %v, want nil, nil", calls, err)
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}
