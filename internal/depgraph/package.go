// Package depgraph holds the two mutually-referential node types of a
// resolved workspace: Package (a git repo at a winning revision) and
// Dependency (an edge declared by some package's manifest). They share a
// package because a Package's dependents are Dependency values and a
// Dependency's binding target is a Package, the same shape as
// original_source/lib/wit/package.py and dependency.py import each other.
package depgraph

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/yejune/wit/internal/gitrepo"
	"github.com/yejune/wit/internal/repoentry"
	"github.com/yejune/wit/internal/witlog"
)

// Package is one vertex of the resolved dependency graph: a named repo,
// the source/revision the resolver settled on for it, and the set of
// Dependency edges that proposed it. Source and Revision stay empty
// until the resolver has made a choice; Repo stays nil until a checkout
// exists on disk (or download was refused).
type Package struct {
	Name      string
	Source    string
	Revision  string
	RepoPaths []string
	Repo      *gitrepo.Repo
	InRoot    bool

	Dependents []*Dependency
}

// NewPackage creates an unresolved package node, grounded on
// package.py's Package.__init__.
func NewPackage(name string, repoPaths []string) *Package {
	return &Package{Name: name, RepoPaths: repoPaths}
}

// AddDependent records dep as having selected p, ignoring duplicates so a
// dependency that is bound twice (e.g. re-resolve on an already-expanded
// frontier) doesn't show up twice in error messages.
func (p *Package) AddDependent(dep *Dependency) {
	for _, d := range p.Dependents {
		if d == dep {
			return
		}
	}
	p.Dependents = append(p.Dependents, dep)
}

// ResolveSource substitutes a local checkout under one of repoPaths for
// candidate when one exists, the way package.py's resolve_source lets a
// developer work against a local clone of a dependency without editing
// its declared remote. Grounded on package.py Package.resolve_source.
func ResolveSource(candidate, name string, repoPaths []string) string {
	for _, path := range repoPaths {
		local := filepath.Join(path, name)
		if gitrepo.IsRepo(local) {
			return local
		}
	}
	return candidate
}

// SetSource resolves candidate against p.RepoPaths and stores the result,
// the repo-path substitution applied at the moment the resolver commits
// to this package's winning source.
func (p *Package) SetSource(candidate string) {
	p.Source = ResolveSource(candidate, p.Name, p.RepoPaths)
}

// Load finds or creates p's on-disk git handle and ensures revision is
// present locally, cloning or fetching when download is true. source and
// revision override p.Source/p.Revision when non-empty (used while
// binding a not-yet-chosen dependency); otherwise p's own fields are
// used, as when Workspace.Status reloads packages straight from a lock
// file. Grounded on package.py Package.load.
func (p *Package) Load(wsroot string, download bool, source, revision string, opts gitrepo.CloneOptions) error {
	if source == "" {
		source = p.Source
	}
	if revision == "" {
		revision = p.Revision
	}
	if revision == "" {
		revision = "HEAD"
	}
	resolvedSource := ResolveSource(source, p.Name, p.RepoPaths)

	rootPath := filepath.Join(wsroot, p.Name)
	if _, err := os.Stat(rootPath); err == nil {
		p.InRoot = true
	}

	home := wsroot
	if !p.InRoot {
		home = filepath.Join(wsroot, ".wit")
	}

	if p.Repo == nil {
		path := rootPath
		if !p.InRoot {
			path = filepath.Join(home, p.Name)
		}
		p.Repo = gitrepo.New(p.Name, filepath.Dir(path))
		p.Repo.Path = path
	}

	needsFetch := !gitrepo.IsRepo(p.Repo.Path) ||
		!p.Repo.HasCommit(revision) ||
		!(p.Repo.IsHash(revision) || p.Repo.IsTag(revision))

	if needsFetch {
		if !download {
			p.Repo = nil
			return nil
		}
		if err := p.Repo.Download(resolvedSource, opts); err != nil {
			if _, ok := err.(*gitrepo.BadSourceError); ok {
				p.Repo = nil
			}
			return err
		}
	}

	return nil
}

// IsAncestor reports whether commit is an ancestor of p's chosen
// revision, the ancestry invariant the resolver checks on repeat names.
func (p *Package) IsAncestor(commit string) bool {
	if p.Repo == nil {
		return false
	}
	return p.Repo.IsAncestor(commit, p.Revision)
}

// ShortRevision abbreviates p's chosen revision for display, falling
// back to the raw value when the repo handle is unavailable.
func (p *Package) ShortRevision() string {
	if p.Repo == nil {
		return p.Revision
	}
	short, err := p.Repo.ShortenRev(p.Revision)
	if err != nil {
		return p.Revision
	}
	return short
}

// Tag renders the "<name>::<short-revision>" identity used in resolver
// diagnostics and 'wit status' output.
func (p *Package) Tag() string {
	return fmt.Sprintf("%s::%s", p.Name, p.ShortRevision())
}

// GetDependencies reads p's manifest (and any submodules) at its chosen
// revision and returns the Dependency edges it declares, each already
// carrying p as a dependent. Grounded on package.py Package.get_dependencies.
func (p *Package) GetDependencies() ([]*Dependency, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("package %q has no git handle to read dependencies from", p.Name)
	}
	entries, err := p.Repo.ReadEntriesAtCommit(p.Revision)
	if err != nil {
		return nil, err
	}
	deps := make([]*Dependency, 0, len(entries))
	for _, e := range entries {
		dep := FromRepoEntry(e)
		dep.AddDependent(p)
		deps = append(deps, dep)
	}
	return deps, nil
}

// Checkout moves p's git handle into its final location under wsroot (if
// it isn't already there) and checks out p.Revision. When the handle's
// origin no longer matches p.Source, the origin is repointed if the repo
// lives in the shared .wit cache; a root-checked-out repo keeps its own
// origin and only gets a warning, since root checkouts are developer
// working copies wit should not silently rewrite. Grounded on
// workspace.py's checkout step and package.py Package.checkout.
func (p *Package) Checkout(wsroot string, log witlog.Logger) error {
	if p.Repo == nil {
		return fmt.Errorf("package %q has no git handle to check out", p.Name)
	}

	currentOrigin, err := p.Repo.GetOrigin()
	if err == nil && currentOrigin != p.Source {
		if filepath.Base(filepath.Dir(p.Repo.Path)) == ".wit" {
			if err := p.Repo.SetOrigin(p.Source); err != nil {
				return err
			}
		} else if log != nil {
			log.Warn("%s: origin %q does not match manifest source %q", p.Name, currentOrigin, p.Source)
		}
	}

	target := filepath.Join(wsroot, p.Name)
	if p.Repo.Path != target {
		if err := os.Rename(p.Repo.Path, target); err != nil {
			return err
		}
		p.Repo.Path = target
		p.InRoot = true
	}

	return p.Repo.Checkout(p.Revision)
}

// FindMatchingDependent returns the first dependent whose specified
// revision resolves to exactly p's chosen revision, used to pick a
// representative edge when reporting why a package was selected.
func (p *Package) FindMatchingDependent() *Dependency {
	for _, dep := range p.Dependents {
		if rev, err := dep.ResolvedRevision(); err == nil && rev == p.Revision {
			return dep
		}
	}
	return nil
}

// DependentsHaveCommonAncestor reports whether every dependent's
// specified revision shares a common ancestor in p's repo, the
// source-conflict check the resolver runs before accepting a second
// dependency edge onto an already-chosen package.
func (p *Package) DependentsHaveCommonAncestor() bool {
	if p.Repo == nil || len(p.Dependents) == 0 {
		return true
	}
	commits := make([]string, 0, len(p.Dependents))
	for _, dep := range p.Dependents {
		commits = append(commits, dep.SpecifiedRevision)
	}
	return p.Repo.HaveCommonAncestor(commits)
}

// ToRepoEntry converts p's chosen identity into the wire shape shared by
// manifests and lock files.
func (p *Package) ToRepoEntry() repoentry.Entry {
	return repoentry.Entry{
		CheckoutPath: p.Name,
		Revision:     p.Revision,
		RemoteURL:    p.Source,
	}
}

// PackageFromRepoEntry builds a Package directly from a parsed lock
// entry, used when reloading a workspace from disk rather than
// resolving it fresh.
func PackageFromRepoEntry(e repoentry.Entry, repoPaths []string) *Package {
	return &Package{
		Name:      e.CheckoutPath,
		Source:    e.RemoteURL,
		Revision:  e.Revision,
		RepoPaths: repoPaths,
	}
}
