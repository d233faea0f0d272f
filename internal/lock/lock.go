// Package lock holds the complete post-resolution snapshot of every
// chosen package — the wit-lock.json file, a name-keyed map where every
// entry carries a resolved commit and a source. Grounded on
// original_source/lib/wit/lock.py's LockFile, sharing internal/repoentry
// for codec duties the same way internal/manifest does.
package lock

import (
	"fmt"
	"os"

	"github.com/yejune/wit/internal/depgraph"
	"github.com/yejune/wit/internal/repoentry"
)

// FileName is wit's lock file name.
const FileName = "wit-lock.json"

// DuplicatePackageError reports an attempt to add a package whose name
// already exists in the lock.
type DuplicatePackageError struct {
	Path string
	Name string
}

func (e *DuplicatePackageError) Error() string {
	return fmt.Sprintf("%s: package %q already locked", e.Path, e.Name)
}

// NotFoundError reports an attempt to replace a package that isn't
// present in the lock.
type NotFoundError struct {
	Path string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: no locked package named %q", e.Path, e.Name)
}

// Lock is a name-keyed map of resolved packages.
type Lock struct {
	path     string
	packages map[string]*depgraph.Package
}

// New creates an empty lock bound to path.
func New(path string) *Lock {
	return &Lock{path: path, packages: map[string]*depgraph.Package{}}
}

// Load reads the lock at path, returning an empty Lock (not an error)
// when the file does not exist. repoPaths is threaded into every
// reconstructed Package so a later Load can still substitute a local
// checkout via depgraph.ResolveSource.
func Load(path string, repoPaths []string) (*Lock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(path), nil
		}
		return nil, err
	}

	parsed, err := repoentry.ParseLock(data, path)
	if err != nil {
		return nil, err
	}

	packages := make(map[string]*depgraph.Package, len(parsed))
	for _, e := range parsed {
		packages[e.CheckoutPath] = depgraph.PackageFromRepoEntry(e, repoPaths)
	}
	return &Lock{path: path, packages: packages}, nil
}

// FromPackages builds a lock covering exactly the given packages,
// discarding whatever was previously on disk at path. This is how
// Workspace.Checkout rewrites the lock after a successful resolve: "write
// a new lock covering exactly these packages."
func FromPackages(path string, packages map[string]*depgraph.Package) *Lock {
	copied := make(map[string]*depgraph.Package, len(packages))
	for name, p := range packages {
		copied[name] = p
	}
	return &Lock{path: path, packages: copied}
}

// Save writes the lock back to its path.
func (l *Lock) Save() error {
	wire := make([]repoentry.Entry, 0, len(l.packages))
	for _, p := range l.packages {
		wire = append(wire, p.ToRepoEntry())
	}
	data, err := repoentry.EmitLock(wire)
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, data, 0644)
}

// Path returns the file path this lock reads from and writes to.
func (l *Lock) Path() string { return l.path }

// Packages returns the name-keyed map of locked packages. The returned
// map is a copy; callers must use Add/Replace to mutate the lock.
func (l *Lock) Packages() map[string]*depgraph.Package {
	out := make(map[string]*depgraph.Package, len(l.packages))
	for name, p := range l.packages {
		out[name] = p
	}
	return out
}

// Len reports how many packages are locked.
func (l *Lock) Len() int { return len(l.packages) }

// Get returns the locked package named name, if present.
func (l *Lock) Get(name string) (*depgraph.Package, bool) {
	p, ok := l.packages[name]
	return p, ok
}

// Contains reports whether a package named name is locked.
func (l *Lock) Contains(name string) bool {
	_, ok := l.packages[name]
	return ok
}

// Add locks a new package, rejecting a duplicate name.
func (l *Lock) Add(p *depgraph.Package) error {
	if l.Contains(p.Name) {
		return &DuplicatePackageError{Path: l.path, Name: p.Name}
	}
	l.packages[p.Name] = p
	return nil
}

// Replace overwrites the existing locked package named p.Name, or fails
// if no such entry exists.
func (l *Lock) Replace(p *depgraph.Package) error {
	if !l.Contains(p.Name) {
		return &NotFoundError{Path: l.path, Name: p.Name}
	}
	l.packages[p.Name] = p
	return nil
}
