// Package workspace is wit's top-level orchestration: creating and
// finding a workspace root, running the resolver over its manifest,
// checking out the result, and rewriting the lock. Grounded on
// original_source/lib/wit/workspace.py's WorkSpace.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yejune/wit/internal/depgraph"
	"github.com/yejune/wit/internal/gitrepo"
	"github.com/yejune/wit/internal/lock"
	"github.com/yejune/wit/internal/manifest"
	"github.com/yejune/wit/internal/resolver"
	"github.com/yejune/wit/internal/witlog"
)

// ManifestFileName is the workspace root's own direct-dependency file,
// distinct from a package's wit-manifest.json (gitrepo.ManifestFileName):
// the root manifest lives on disk only and is never read out of a
// commit, since the root is not itself anybody's dependency.
const ManifestFileName = "wit-workspace.json"

// Workspace ties a manifest, a lock, and resolver/git options to a root
// directory on disk.
type Workspace struct {
	Root         string
	RepoPaths    []string
	Jobs         int
	CloneOptions gitrepo.CloneOptions
	Log          witlog.Logger

	Manifest *manifest.Manifest
	Lock     *lock.Lock
}

func manifestPath(root string) string { return filepath.Join(root, ManifestFileName) }
func lockPath(root string) string     { return filepath.Join(root, lock.FileName) }

func (w *Workspace) logger() witlog.Logger {
	if w.Log != nil {
		return w.Log
	}
	return witlog.Nop{}
}

func open(root string, repoPaths []string, jobs int, log witlog.Logger) (*Workspace, error) {
	m, err := manifest.Load(manifestPath(root))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", manifestPath(root), err)
	}
	l, err := lock.Load(lockPath(root), repoPaths)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", lockPath(root), err)
	}
	return &Workspace{Root: root, RepoPaths: repoPaths, Jobs: jobs, Manifest: m, Lock: l, Log: log}, nil
}

// Create builds a brand-new workspace at parentDir/name: rejects a
// pre-existing manifest, (re-)creates a clean .wit cache directory, and
// writes empty manifest/lock files.
func Create(parentDir, name string, repoPaths []string, jobs int, log witlog.Logger) (*Workspace, error) {
	root := filepath.Join(parentDir, name)

	if info, err := os.Stat(root); err == nil {
		if !info.IsDir() {
			return nil, fmt.Errorf("%s exists and is not a directory", root)
		}
		if _, err := os.Stat(manifestPath(root)); err == nil {
			return nil, fmt.Errorf("manifest file %s already exists", manifestPath(root))
		}
	} else if os.IsNotExist(err) {
		if err := os.MkdirAll(root, 0755); err != nil {
			return nil, fmt.Errorf("creating workspace %s: %w", root, err)
		}
	} else {
		return nil, err
	}

	dotwit := filepath.Join(root, ".wit")
	if _, err := os.Stat(dotwit); err == nil {
		// A re-init should start from a guaranteed-clean cache, not
		// whatever stale clones a previous attempt left behind.
		if err := os.RemoveAll(dotwit); err != nil {
			return nil, fmt.Errorf("clearing stale cache %s: %w", dotwit, err)
		}
	}
	if err := os.MkdirAll(dotwit, 0755); err != nil {
		return nil, err
	}

	m := manifest.New(manifestPath(root))
	if err := m.Save(); err != nil {
		return nil, err
	}
	l := lock.New(lockPath(root))
	if err := l.Save(); err != nil {
		return nil, err
	}

	return &Workspace{Root: root, RepoPaths: repoPaths, Jobs: jobs, Manifest: m, Lock: l, Log: log}, nil
}

// Find walks up from start looking for the nearest ancestor directory
// holding a wit-workspace.json.
func Find(start string, repoPaths []string, jobs int, log witlog.Logger) (*Workspace, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil, err
	}
	for {
		if _, err := os.Stat(manifestPath(dir)); err == nil {
			return open(dir, repoPaths, jobs, log)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, fmt.Errorf("could not find a wit workspace above %s", start)
		}
		dir = parent
	}
}

func (w *Workspace) resolveOptions(download bool) resolver.Options {
	return resolver.Options{
		WorkspaceRoot: w.Root,
		RepoPaths:     w.RepoPaths,
		Download:      download,
		Jobs:          w.Jobs,
		CloneOptions:  w.CloneOptions,
		Log:           w.logger(),
	}
}

// Resolve runs the frontier algorithm over the workspace manifest's
// direct dependencies.
func (w *Workspace) Resolve(download bool) (map[string]*depgraph.Package, []error) {
	result := resolver.Resolve(w.Manifest.Entries(), w.resolveOptions(download))
	return result.Packages, result.Errors
}

// Update resolves with downloads enabled and, only if that produced no
// errors, checks the result out and rewrites the lock.
func (w *Workspace) Update() error {
	return w.resolveAndCheckout()
}

// Checkout moves every resolved package into its final place under the
// workspace root, checks it out at its chosen revision, and replaces the
// lock wholesale with exactly this package set.
func (w *Workspace) Checkout(packages map[string]*depgraph.Package) error {
	for _, pkg := range packages {
		if err := pkg.Checkout(w.Root, w.logger()); err != nil {
			return fmt.Errorf("checking out %s: %w", pkg.Name, err)
		}
	}

	newLock := lock.FromPackages(lockPath(w.Root), packages)
	if err := newLock.Save(); err != nil {
		return err
	}
	w.Lock = newLock
	return nil
}

// resolveLocalAlias mirrors main.py's dependency_from_tag: a bare tag
// naming a directory already checked out at the workspace root or cached
// under .wit is replaced by that repo's own remote origin, so
// 'wit add-dep somepkg::v2' works against an already-cloned sibling
// without the caller re-typing its URL; a tag naming any other existing
// local path is resolved to an absolute path instead.
func (w *Workspace) resolveLocalAlias(source string) string {
	if resolved, ok := originOfSibling(filepath.Join(w.Root, source), w.Root); ok {
		return resolved
	}
	dotwit := filepath.Join(w.Root, ".wit")
	if resolved, ok := originOfSibling(filepath.Join(dotwit, source), dotwit); ok {
		return resolved
	}
	if info, err := os.Stat(filepath.Join(w.Root, source)); err == nil && info.IsDir() {
		if abs, err := filepath.Abs(filepath.Join(w.Root, source)); err == nil {
			return abs
		}
	}
	if info, err := os.Stat(source); err == nil && info.IsDir() {
		if abs, err := filepath.Abs(source); err == nil {
			return abs
		}
	}
	return source
}

func originOfSibling(candidate, parent string) (string, bool) {
	info, err := os.Stat(candidate)
	if err != nil || !info.IsDir() || filepath.Dir(candidate) != parent {
		return "", false
	}
	r := gitrepo.New(filepath.Base(candidate), parent)
	origin, err := r.GetOrigin()
	if err != nil {
		return "", false
	}
	return origin, true
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("resolve failed with %d error(s):\n%s", len(errs), strings.Join(msgs, "\n"))
}
