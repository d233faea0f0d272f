package workspace

import (
	"fmt"

	"github.com/yejune/wit/internal/depgraph"
	"github.com/yejune/wit/internal/gitrepo"
)

// AddDependency binds a new direct dependency, resolves just enough to
// compute its commit (cloning it if needed), rejects a duplicate name,
// and appends it to the workspace root manifest. It does not touch the
// lock: the lock and working-tree checkout are only ever rewritten by
// the 'update' command. Grounded on main.py's add_pkg /
// workspace.py's WorkSpace.add_dependency.
func (w *Workspace) AddDependency(tag, message string) error {
	source, revision := depgraph.ParseTag(tag)
	source = w.resolveLocalAlias(source)

	dep := depgraph.NewDependency("", source, revision, message)
	if w.Manifest.Contains(dep.Name) {
		return fmt.Errorf("manifest already contains package %s", dep.Name)
	}

	pkg, err := w.loadAndResolve(dep, source, revision)
	if err != nil {
		return err
	}

	if err := w.Manifest.Add(dep); err != nil {
		return err
	}
	if err := w.Manifest.Save(); err != nil {
		return err
	}

	w.logger().Info("the workspace now depends on %s", pkg.Tag())
	return nil
}

// UpdateDependency repoints an existing direct dependency at a new
// source/revision pair and rewrites the manifest in place. Like
// AddDependency, it never touches the lock; it warns when the new
// revision resolves to exactly the one already on record, and always
// reminds the caller to run 'update' when the lock is now stale.
// Grounded on main.py's update_pkg / workspace.py's
// WorkSpace.update_dependency.
func (w *Workspace) UpdateDependency(tag, message string) error {
	source, revision := depgraph.ParseTag(tag)
	source = w.resolveLocalAlias(source)

	dep := depgraph.NewDependency("", source, revision, message)
	existing, ok := w.Manifest.Get(dep.Name)
	if !ok {
		return fmt.Errorf("package %s not in %s (did you mean to run add-pkg?)", dep.Name, ManifestFileName)
	}

	// loadAndResolve binds against the lock's own Package values and
	// overwrites Revision, so read the locked revision first.
	lockedRevision := ""
	if lockedPkg, ok := w.Lock.Get(dep.Name); ok {
		lockedRevision = lockedPkg.Revision
	}

	pkg, err := w.loadAndResolve(dep, source, revision)
	if err != nil {
		return err
	}

	existing.Package = pkg
	if oldResolved, err := existing.ResolvedRevision(); err == nil && oldResolved == pkg.Revision {
		w.logger().Warn("updating %q to the same revision it already is!", dep.Name)
	}

	if err := w.Manifest.Replace(dep); err != nil {
		return err
	}
	if err := w.Manifest.Save(); err != nil {
		return err
	}

	w.logger().Info("the workspace now depends on %s", pkg.Tag())

	if lockedRevision != pkg.Revision {
		w.logger().Warn("don't forget to run 'wit update'!")
	}
	return nil
}

// loadAndResolve binds dep against the currently-locked packages,
// downloads it if necessary, and resolves its specified revision to a
// concrete commit, surfacing an unresolvable ref as a clean user-facing
// error the way workspace.py translates GitCommitNotFound.
func (w *Workspace) loadAndResolve(dep *depgraph.Dependency, source, revision string) (*depgraph.Package, error) {
	packages := w.Lock.Packages()
	pkg := dep.Bind(packages, w.RepoPaths)
	pkg.SetSource(source)

	if err := pkg.Load(w.Root, true, source, revision, w.CloneOptions); err != nil {
		return nil, fmt.Errorf("loading %s: %w", dep.Name, err)
	}
	if pkg.Repo == nil {
		return nil, fmt.Errorf("cannot resolve %s: could not clone %q", dep.Name, source)
	}

	resolved, err := dep.ResolvedRevision()
	if err != nil {
		if _, ok := err.(*gitrepo.CommitNotFoundError); ok {
			return nil, fmt.Errorf("could not find commit or reference %q in %q", revision, dep.Name)
		}
		return nil, err
	}
	pkg.Revision = resolved

	return pkg, nil
}

func (w *Workspace) resolveAndCheckout() error {
	packages, errs := w.Resolve(true)
	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return w.Checkout(packages)
}
