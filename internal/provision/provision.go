package provision

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/redobl/testrig/internal/capture"
	testrigerrors "github.com/redobl/testrig/internal/errors"
	"github.com/redobl/testrig/internal/output"
)

// Options describes the environment to provision.
type Options struct {
	Interpreter    string // Interpreter name, e.g. "python"
	Version        string // Requested version, empty accepts any
	Path           string // Explicit interpreter path
	Isolate        bool   // Create a virtual environment
	CacheDir       string // Relative paths are resolved against Root
	UseCache       bool
	ManifestDigest string // sha256 of the manifest bytes, see manifest.Digest
	Root           string // Project root
}

// Provisioner prepares Environments.
type Provisioner struct {
	opts  Options
	cache *FileCache
	out   *output.Writer
}

// New creates a Provisioner. A nil writer uses stdout/stderr.
func New(opts Options, out *output.Writer) *Provisioner {
	if out == nil {
		out = output.New()
	}
	cacheDir := opts.CacheDir
	if cacheDir != "" && !filepath.IsAbs(cacheDir) && opts.Root != "" {
		cacheDir = filepath.Join(opts.Root, cacheDir)
	}
	return &Provisioner{
		opts:  opts,
		cache: NewFileCache(cacheDir),
		out:   out,
	}
}

// Cache returns the provisioner's cache.
func (p *Provisioner) Cache() *FileCache {
	return p.cache
}

// Provision resolves the interpreter, restores a cached environment when
// possible and otherwise creates a fresh one. Every failure is returned as
// a provisioning error.
func (p *Provisioner) Provision(ctx context.Context) (*Environment, error) {
	interp, err := p.resolve(ctx)
	if err != nil {
		return nil, testrigerrors.Provision(err, err.Error())
	}
	p.out.Debug("using %s (%s)", interp.Path, interp.Version)

	key := CacheKey(p.opts.Interpreter, p.opts.Version, p.opts.ManifestDigest)
	env := &Environment{
		Interpreter: interp.Path,
		Base:        interp.Path,
		Version:     interp.Version,
		CacheKey:    key,
		Vars:        map[string]string{},
	}

	if p.opts.UseCache && p.restore(env) {
		p.out.Info("Restored cached environment %s", shortKey(key))
		return env, nil
	}

	if p.opts.Isolate {
		if err := p.createVenv(ctx, env); err != nil {
			return nil, err
		}
	}
	return env, nil
}

// restore reports whether a complete cached environment exists for env.
func (p *Provisioner) restore(env *Environment) bool {
	entry, err := p.cache.Get(env.CacheKey)
	if err != nil {
		p.out.Warning("ignoring cache entry %s: %v", shortKey(env.CacheKey), err)
		return false
	}
	if entry == nil || entry.Isolated != p.opts.Isolate {
		return false
	}
	// The key names only the requested version, so the entry must also
	// match the interpreter that was actually resolved.
	if entry.Path != env.Base || entry.Version != env.Version {
		p.out.Debug("cache entry %s was built with %s (%s)", shortKey(env.CacheKey), entry.Path, entry.Version)
		return false
	}

	if p.opts.Isolate {
		dir := p.cache.VenvDir(env.CacheKey)
		python := venvInterpreter(dir)
		if !isExecutable(python) {
			return false
		}
		setVenv(env, dir)
	}
	env.CacheHit = true
	return true
}

// createVenv creates a virtual environment in the cache entry directory,
// removing whatever an earlier failed run left behind.
func (p *Provisioner) createVenv(ctx context.Context, env *Environment) error {
	dir := p.cache.VenvDir(env.CacheKey)
	if err := p.cache.Invalidate(env.CacheKey); err != nil {
		return testrigerrors.Provision(err, fmt.Sprintf("invalidating cache entry: %v", err))
	}
	if err := os.RemoveAll(dir); err != nil {
		return testrigerrors.Provision(err, fmt.Sprintf("removing stale environment %s: %v", dir, err))
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return testrigerrors.Provision(err, fmt.Sprintf("creating cache directory: %v", err))
	}

	p.out.Info("Creating virtual environment with %s %s", filepath.Base(env.Base), env.Version)
	start := time.Now()

	tail := capture.NewTail(capture.DefaultLimit)
	cmd := exec.CommandContext(ctx, env.Base, "-m", "venv", dir)
	cmd.Dir = p.opts.Root
	cmd.Stdout = tail
	cmd.Stderr = tail
	if err := cmd.Run(); err != nil {
		_ = os.RemoveAll(dir)
		msg := fmt.Sprintf("creating virtual environment: %v", err)
		if out := strings.TrimSpace(tail.String()); out != "" {
			msg += "\n" + capture.LastLines(out, 20)
		}
		return testrigerrors.Provision(err, msg)
	}

	python := venvInterpreter(dir)
	if !isExecutable(python) {
		_ = os.RemoveAll(dir)
		return testrigerrors.Provisionf("virtual environment at %s has no interpreter", dir)
	}

	setVenv(env, dir)
	p.out.Debug("virtual environment ready in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

// Save records env in the cache after dependencies were installed.
// It does nothing when caching is disabled.
func (p *Provisioner) Save(env *Environment) error {
	if !p.opts.UseCache || env == nil {
		return nil
	}
	return p.cache.Put(&CacheEntry{
		Key:         env.CacheKey,
		Interpreter: p.opts.Interpreter,
		Path:        env.Base,
		Version:     env.Version,
		Manifest:    p.opts.ManifestDigest,
		Isolated:    env.Isolated(),
		CreatedAt:   time.Now().UTC(),
	})
}

func setVenv(env *Environment, dir string) {
	env.Dir = dir
	env.Interpreter = venvInterpreter(dir)
	env.Vars["VIRTUAL_ENV"] = dir
	env.Vars["PATH"] = filepath.Dir(env.Interpreter) + string(os.PathListSeparator) + os.Getenv("PATH")
}

func venvInterpreter(dir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(dir, "Scripts", "python.exe")
	}
	return filepath.Join(dir, "bin", "python")
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode()&0111 != 0
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
