package pipeline

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// errNoRepository is returned by headCommit when root has no .git entry.
var errNoRepository = errors.New("not a git repository")

var commitPattern = regexp.MustCompile(`^[0-9a-f]{40}([0-9a-f]{24})?$`)

// headCommit returns the commit checked out in root. Loose refs are
// preferred over packed-refs, matching git.
func headCommit(root string) (string, error) {
	dir, err := gitDir(root)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(filepath.Join(dir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("reading HEAD: %w", err)
	}
	head := strings.TrimSpace(string(data))

	ref, symbolic := strings.CutPrefix(head, "ref:")
	if !symbolic {
		if !commitPattern.MatchString(head) {
			return "", fmt.Errorf("malformed HEAD %q", head)
		}
		return head, nil
	}
	ref = strings.TrimSpace(ref)

	data, err = os.ReadFile(filepath.Join(dir, filepath.FromSlash(ref)))
	if err == nil {
		commit := strings.TrimSpace(string(data))
		if !commitPattern.MatchString(commit) {
			return "", fmt.Errorf("malformed ref %s", ref)
		}
		return commit, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("reading %s: %w", ref, err)
	}
	return packedRef(dir, ref)
}

// gitDir locates the repository directory. A .git file (worktrees,
// submodules) holds a "gitdir:" pointer.
func gitDir(root string) (string, error) {
	path := filepath.Join(root, ".git")
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", errNoRepository
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return path, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	target, ok := strings.CutPrefix(strings.TrimSpace(string(data)), "gitdir:")
	if !ok {
		return "", fmt.Errorf("malformed .git file")
	}
	target = strings.TrimSpace(target)
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	return target, nil
}

func packedRef(dir, ref string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "packed-refs"))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("ref %s not found", ref)
	}
	if err != nil {
		return "", fmt.Errorf("reading packed-refs: %w", err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '#' || line[0] == '^' {
			continue
		}
		commit, name, ok := strings.Cut(line, " ")
		if ok && name == ref && commitPattern.MatchString(commit) {
			return commit, nil
		}
	}
	return "", fmt.Errorf("ref %s not found", ref)
}
