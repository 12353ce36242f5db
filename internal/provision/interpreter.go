package provision

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

var versionPattern = regexp.MustCompile(`\d+(?:\.\d+)+`)

// Candidates lists executable names to try for an interpreter, most
// specific first: python3.10, python3, python.
func Candidates(name, version string) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}

	if version != "" {
		add(name + version)
		major, _, _ := strings.Cut(version, ".")
		add(name + major)
	}
	add(name)
	return names
}

// VersionMatches reports whether reported satisfies requested on version
// component boundaries: "3.10" matches "3.10.12" but not "3.1.0" or "3.100".
// An empty request matches anything.
func VersionMatches(reported, requested string) bool {
	if requested == "" {
		return true
	}
	return reported == requested || strings.HasPrefix(reported, requested+".")
}

// ParseVersion extracts the first dotted version number from --version output.
func ParseVersion(output string) (string, bool) {
	v := versionPattern.FindString(output)
	return v, v != ""
}

// Interpreter is a resolved host interpreter.
type Interpreter struct {
	Path    string
	Version string
}

// resolve finds the interpreter to use. An explicit path skips the PATH
// lookup but is still checked against the requested version.
func (p *Provisioner) resolve(ctx context.Context) (*Interpreter, error) {
	if p.opts.Path != "" {
		path, err := exec.LookPath(p.opts.Path)
		if err != nil {
			return nil, fmt.Errorf("interpreter %s: %w", p.opts.Path, err)
		}
		return p.probe(ctx, path)
	}

	var tried []string
	for _, name := range Candidates(p.opts.Interpreter, p.opts.Version) {
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		interp, err := p.probe(ctx, path)
		if err != nil {
			p.out.Debug("skipping %s: %v", path, err)
			tried = append(tried, path)
			continue
		}
		return interp, nil
	}

	want := p.opts.Interpreter
	if p.opts.Version != "" {
		want += " " + p.opts.Version
	}
	if len(tried) > 0 {
		return nil, fmt.Errorf("no %s found on PATH (tried %s)", want, strings.Join(tried, ", "))
	}
	return nil, fmt.Errorf("no %s found on PATH", want)
}

// probe runs "<path> --version" and checks the reported version.
func (p *Provisioner) probe(ctx context.Context, path string) (*Interpreter, error) {
	out, err := exec.CommandContext(ctx, path, "--version").CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%s --version: %w", path, err)
	}
	version, ok := ParseVersion(string(out))
	if !ok {
		return nil, fmt.Errorf("%s --version: unrecognized output %q", path, strings.TrimSpace(string(out)))
	}
	if !VersionMatches(version, p.opts.Version) {
		return nil, fmt.Errorf("%s reports version %s, want %s", path, version, p.opts.Version)
	}
	return &Interpreter{Path: path, Version: version}, nil
}
