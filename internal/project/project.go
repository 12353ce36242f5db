package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/redobl/testrig/internal/config"
)

// Project represents a loaded testrig project.
type Project struct {
	Root     string
	Config   *config.Config
	Warnings []string
}

// LoadProject finds and loads a project from the current directory.
func LoadProject() (*Project, error) {
	root, err := FindRoot()
	if err != nil {
		return nil, err
	}
	return LoadProjectFrom(root)
}

// LoadProjectFrom loads a project from a specified root directory.
func LoadProjectFrom(root string) (*Project, error) {
	return LoadProjectFile(filepath.Join(root, ConfigFileName))
}

// LoadProjectFile loads a project from an explicit config file path.
// The project root is the directory containing the file.
func LoadProjectFile(path string) (*Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	cfg, warnings, err := config.LoadAndValidate(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	root := filepath.Dir(abs)

	// Missing entry files are not fatal: the entry fails when it runs and
	// shows up in the summary like any other failure.
	for _, e := range cfg.Tests.Entries {
		if err := validateEntryFile(root, e); err != nil {
			warnings = append(warnings, err.Error())
		}
	}

	return &Project{
		Root:     root,
		Config:   cfg,
		Warnings: warnings,
	}, nil
}

// ConfigPath returns the full path to the project configuration file.
func (p *Project) ConfigPath() string {
	return filepath.Join(p.Root, ConfigFileName)
}

// Path resolves a project-relative path. Absolute paths are returned unchanged.
func (p *Project) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.Root, rel)
}

// validateEntryFile checks that a test entry's path is an existing file.
func validateEntryFile(root string, e config.EntryConfig) error {
	path := e.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("entry %q: %q does not exist", e.Label, e.Path)
	}
	if err != nil {
		return fmt.Errorf("entry %q: cannot access %q: %w", e.Label, e.Path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("entry %q: %q is a directory", e.Label, e.Path)
	}
	return nil
}
