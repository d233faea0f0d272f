package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/yejune/wit/internal/depgraph"
	"github.com/yejune/wit/internal/gitrepo"
	"github.com/yejune/wit/internal/manifest"
)

// guardSubmoduleOnly refuses to edit a package's manifest when the
// package declares its dependencies purely via .gitmodules: rewriting a
// manifest wit never reads back out would silently do nothing. Grounded
// on main.py's check_submodule_only.
func guardSubmoduleOnly(pkgDir string) error {
	_, err := os.Stat(filepath.Join(pkgDir, manifest.FileName))
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	if _, gmErr := os.Stat(filepath.Join(pkgDir, gitrepo.SubmoduleFileName)); gmErr == nil {
		return fmt.Errorf("%s declares dependencies only via .gitmodules; wit cannot edit those here", filepath.Base(pkgDir))
	}
	return nil
}

// packageDir resolves name to the directory it's checked out under,
// requiring that it be a direct child of the workspace root and a
// package the lock already knows about — add-dep/update-dep operate on
// an already-resolved package's own working copy, never an arbitrary
// path. Grounded on main.py's add_dep/update_dep cwd validation.
func (w *Workspace) packageDir(name string) (string, error) {
	if !w.Lock.Contains(name) {
		return "", fmt.Errorf("%s: not a package known to this workspace's lock", name)
	}
	dir := filepath.Join(w.Root, name)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", fmt.Errorf("%s: not checked out directly under the workspace root", name)
	}
	return dir, nil
}

// AddDep adds a new dependency edge to a single package's own manifest
// file on disk (the working copy under the workspace root), for the
// caller to review, commit, and then re-resolve via Update. Grounded on
// main.py's add_dep.
func (w *Workspace) AddDep(name, tag, message string) error {
	dir, err := w.packageDir(name)
	if err != nil {
		return err
	}
	if err := guardSubmoduleOnly(dir); err != nil {
		return err
	}

	pkgManifest, err := manifest.Load(filepath.Join(dir, manifest.FileName))
	if err != nil {
		return err
	}

	source, revision := depgraph.ParseTag(tag)
	source = w.resolveLocalAlias(source)
	dep := depgraph.NewDependency("", source, revision, message)

	if pkgManifest.Contains(dep.Name) {
		return fmt.Errorf("%s: %s is already a dependency of this package", name, dep.Name)
	}
	if err := pkgManifest.Add(dep); err != nil {
		return err
	}
	return pkgManifest.Save()
}

// UpdateDep repoints an existing dependency edge in a single package's
// own manifest file. Grounded on main.py's update_dep.
func (w *Workspace) UpdateDep(name, tag, message string) error {
	dir, err := w.packageDir(name)
	if err != nil {
		return err
	}
	if err := guardSubmoduleOnly(dir); err != nil {
		return err
	}

	pkgManifest, err := manifest.Load(filepath.Join(dir, manifest.FileName))
	if err != nil {
		return err
	}

	source, revision := depgraph.ParseTag(tag)
	source = w.resolveLocalAlias(source)
	dep := depgraph.NewDependency("", source, revision, message)

	if !pkgManifest.Contains(dep.Name) {
		return fmt.Errorf("%s: %s is not a dependency of this package", name, dep.Name)
	}
	if err := pkgManifest.Replace(dep); err != nil {
		return err
	}
	return pkgManifest.Save()
}
