package install

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	testrigerrors "github.com/redobl/testrig/internal/errors"
	"github.com/redobl/testrig/internal/manifest"
	"github.com/redobl/testrig/internal/output"
	"github.com/redobl/testrig/internal/provision"
	"github.com/redobl/testrig/internal/testing/mocks"
)

type recordingSaver struct {
	saved []*provision.Environment
	err   error
}

func (s *recordingSaver) Save(env *provision.Environment) error {
	s.saved = append(s.saved, env)
	return s.err
}

func quietWriter() *output.Writer {
	return output.NewWithWriters(io.Discard, io.Discard, false)
}

func setupFake(t *testing.T, fake *mocks.Interpreter) *provision.Environment {
	t.Helper()
	t.Setenv("PATH", "/usr/bin"+string(os.PathListSeparator)+"/bin")
	path, err := fake.Install(t.TempDir())
	if err != nil {
		t.Fatalf("installing fake interpreter: %v", err)
	}
	return &provision.Environment{Interpreter: path, Base: path, Vars: map[string]string{}}
}

func parseManifest(t *testing.T, content string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse("requirements.txt", []byte(content))
	if err != nil {
		t.Fatalf("manifest.Parse() error = %v", err)
	}
	return m
}

func TestInstall_RunsInstaller(t *testing.T) {
	fake := mocks.NewInterpreter("fakepy")
	env := setupFake(t, fake)
	saver := &recordingSaver{}

	inst := New(Options{Root: t.TempDir(), Args: []string{"--quiet"}, Saver: saver}, quietWriter())
	res, err := inst.Install(context.Background(), env, parseManifest(t, "requests==2.31.0\nPyYAML>=6\n"))
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if res.Skipped {
		t.Error("Skipped = true, want false")
	}
	if len(res.Packages) != 2 {
		t.Errorf("Packages = %v", res.Packages)
	}

	calls, err := fake.PipCalls()
	if err != nil {
		t.Fatal(err)
	}
	want := "install --disable-pip-version-check requests==2.31.0 PyYAML>=6 --quiet"
	if len(calls) != 1 || calls[0] != want {
		t.Errorf("pip calls = %q, want [%q]", calls, want)
	}
	if len(saver.saved) != 1 || saver.saved[0] != env {
		t.Errorf("Save called %d times, want once with env", len(saver.saved))
	}
}

func TestInstall_UnresolvableDependency(t *testing.T) {
	fake := mocks.NewInterpreter("fakepy").WithUnresolvable("nonexistent-pkg")
	env := setupFake(t, fake)
	saver := &recordingSaver{}

	inst := New(Options{Saver: saver}, quietWriter())
	_, err := inst.Install(context.Background(), env, parseManifest(t, "nonexistent-pkg==1.0\n"))
	if err == nil {
		t.Fatal("Install() succeeded, want error")
	}
	if !testrigerrors.IsInstall(err) {
		t.Errorf("error = %v, want installation error", err)
	}
	if got := testrigerrors.GetExitCode(err); got != testrigerrors.ExitInstallError {
		t.Errorf("GetExitCode() = %d, want %d", got, testrigerrors.ExitInstallError)
	}
	if !strings.Contains(err.Error(), "No matching distribution found for nonexistent-pkg==1.0") {
		t.Errorf("error = %q, want installer output tail", err)
	}
	if !strings.Contains(err.Error(), "exit code 1") {
		t.Errorf("error = %q, want exit code", err)
	}
	if len(saver.saved) != 0 {
		t.Error("cache saved after failed install")
	}
}

func TestInstall_SkipsOnCacheHit(t *testing.T) {
	fake := mocks.NewInterpreter("fakepy")
	env := setupFake(t, fake)
	env.CacheHit = true
	saver := &recordingSaver{}

	res, err := New(Options{Saver: saver}, quietWriter()).Install(context.Background(), env, parseManifest(t, "requests\n"))
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if !res.Skipped || res.Reason != "restored from cache" {
		t.Errorf("Result = %+v", res)
	}
	if calls, _ := fake.PipCalls(); len(calls) != 0 {
		t.Errorf("installer ran on cache hit: %v", calls)
	}
	if len(saver.saved) != 0 {
		t.Error("Save called on cache hit")
	}
}

func TestInstall_EmptyManifest(t *testing.T) {
	fake := mocks.NewInterpreter("fakepy")
	env := setupFake(t, fake)
	saver := &recordingSaver{}

	res, err := New(Options{Saver: saver}, quietWriter()).Install(context.Background(), env, parseManifest(t, "# nothing\n"))
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if !res.Skipped || res.Reason != "no dependencies" {
		t.Errorf("Result = %+v", res)
	}
	if calls, _ := fake.PipCalls(); len(calls) != 0 {
		t.Errorf("installer ran for empty manifest: %v", calls)
	}
	if len(saver.saved) != 1 {
		t.Errorf("Save called %d times, want 1", len(saver.saved))
	}
}

func TestInstall_SaveFailureIsWarning(t *testing.T) {
	env := setupFake(t, mocks.NewInterpreter("fakepy"))
	saver := &recordingSaver{err: os.ErrPermission}

	var stderr bytes.Buffer
	out := output.NewWithWriters(io.Discard, &stderr, false)
	if _, err := New(Options{Saver: saver}, out).Install(context.Background(), env, parseManifest(t, "requests\n")); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if !strings.Contains(stderr.String(), "could not save environment cache") {
		t.Errorf("stderr = %q, want cache warning", stderr.String())
	}
}

func TestInstall_VerboseStreamsOutput(t *testing.T) {
	env := setupFake(t, mocks.NewInterpreter("fakepy"))

	var stdout bytes.Buffer
	out := output.NewWithWriters(&stdout, io.Discard, false)
	out.SetVerbose(true)
	if _, err := New(Options{}, out).Install(context.Background(), env, parseManifest(t, "requests\n")); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "Successfully installed") {
		t.Errorf("stdout = %q, want installer output", stdout.String())
	}
}

func TestInstall_NilEnvironment(t *testing.T) {
	_, err := New(Options{}, quietWriter()).Install(context.Background(), nil, parseManifest(t, "requests\n"))
	if !testrigerrors.IsInstall(err) {
		t.Errorf("error = %v, want installation error", err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing", func(t *testing.T) {
		_, err := LoadManifest(filepath.Join(dir, "requirements.txt"))
		if !testrigerrors.IsInstall(err) {
			t.Fatalf("error = %v, want installation error", err)
		}
		if !strings.Contains(err.Error(), "dependency manifest not found") {
			t.Errorf("error = %q", err)
		}
	})

	t.Run("conflict", func(t *testing.T) {
		path := filepath.Join(dir, "conflict.txt")
		os.WriteFile(path, []byte("requests==1.0\nrequests==2.0\n"), 0644)

		_, err := LoadManifest(path)
		if !testrigerrors.IsInstall(err) {
			t.Fatalf("error = %v, want installation error", err)
		}
		if !strings.Contains(err.Error(), "conflicting requirements") {
			t.Errorf("error = %q", err)
		}
	})

	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(dir, "ok.txt")
		os.WriteFile(path, []byte("requests==2.31.0\n"), 0644)

		m, err := LoadManifest(path)
		if err != nil {
			t.Fatalf("LoadManifest() error = %v", err)
		}
		if len(m.Requirements) != 1 {
			t.Errorf("Requirements = %v", m.Requirements)
		}
	})
}
