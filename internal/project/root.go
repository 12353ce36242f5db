// Package project provides project discovery and loading functionality.
package project

import (
	"errors"
	"os"
	"path/filepath"
)

// ConfigFileName is the name of the configuration file at the project root.
const ConfigFileName = ".testrig.yml"

// ErrNoProjectRoot is returned when .testrig.yml is not found.
var ErrNoProjectRoot = errors.New(".testrig.yml not found: not a testrig project (or any parent up to the root)")

// FindRoot walks up from the current working directory until it finds .testrig.yml.
func FindRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindRootFrom(cwd)
}

// FindRootFrom walks up from the given directory until it finds .testrig.yml.
func FindRootFrom(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoProjectRoot
		}
		dir = parent
	}
}
