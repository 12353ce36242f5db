package project

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/redobl/testrig/internal/config"
)

// DiscoverEntries walks root for test scripts named test_*.py or *_test.py
// and returns them as entries in lexical path order.
func DiscoverEntries(root string) ([]config.EntryConfig, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && isExcludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if isTestScript(d.Name()) {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			paths = append(paths, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)

	entries := make([]config.EntryConfig, 0, len(paths))
	for _, p := range paths {
		entries = append(entries, config.EntryConfig{Path: p})
	}
	return entries, nil
}

func isTestScript(name string) bool {
	if filepath.Ext(name) != ".py" {
		return false
	}
	stem := strings.TrimSuffix(name, ".py")
	return strings.HasPrefix(stem, "test_") || strings.HasSuffix(stem, "_test")
}

// isExcludedDir returns true for directories that never hold project tests.
func isExcludedDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	excluded := map[string]bool{
		"node_modules":  true,
		"venv":          true,
		"env":           true,
		"__pycache__":   true,
		"site-packages": true,
		"build":         true,
		"dist":          true,
	}
	return excluded[name]
}
