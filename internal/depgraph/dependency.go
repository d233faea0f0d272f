package depgraph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yejune/wit/internal/gitrepo"
	"github.com/yejune/wit/internal/repoentry"
)

// Dependency is one manifest-declared edge: a named source at some
// specified revision (a branch, tag, or hash — "HEAD" by default), plus
// the set of packages whose manifests declared it. Package is nil until
// Bind resolves it against the in-progress package map. Grounded on
// original_source/lib/wit/dependency.py's Dependency class.
type Dependency struct {
	Name              string
	Source            string
	SpecifiedRevision string
	Message           string

	Package    *Package
	Dependents []*Package
}

// NewDependency builds a Dependency, defaulting an empty specified
// revision to "HEAD" and deriving Name from Source's basename when Name
// is blank (a manifest entry, unlike a lock entry, may omit name).
func NewDependency(name, source, specifiedRevision, message string) *Dependency {
	if specifiedRevision == "" {
		specifiedRevision = "HEAD"
	}
	if name == "" {
		name = gitrepo.PathToName(source)
	}
	return &Dependency{
		Name:              name,
		Source:            source,
		SpecifiedRevision: specifiedRevision,
		Message:           message,
	}
}

// FromRepoEntry builds a Dependency from a parsed manifest or lock
// entry.
func FromRepoEntry(e repoentry.Entry) *Dependency {
	return NewDependency(e.CheckoutPath, e.RemoteURL, e.Revision, e.Message)
}

// ParseTag splits a "source::revision" CLI argument (as accepted by
// 'wit add-dep' and 'wit update-dep') into its source and revision
// parts. A bare source with no "::" defaults to revision "HEAD".
func ParseTag(tag string) (source, revision string) {
	if idx := strings.Index(tag, "::"); idx >= 0 {
		return tag[:idx], tag[idx+2:]
	}
	return tag, "HEAD"
}

// AddDependent records parent as a package whose manifest declared d,
// ignoring duplicates.
func (d *Dependency) AddDependent(parent *Package) {
	for _, p := range d.Dependents {
		if p == parent {
			return
		}
	}
	d.Dependents = append(d.Dependents, parent)
}

// Bind looks d's name up in packages, creating and inserting a fresh
// unresolved Package when absent, and records d as one of its
// dependents. Grounded on dependency.py Dependency.load_package.
func (d *Dependency) Bind(packages map[string]*Package, repoPaths []string) *Package {
	pkg, ok := packages[d.Name]
	if !ok {
		pkg = NewPackage(d.Name, repoPaths)
		packages[d.Name] = pkg
	}
	d.Package = pkg
	pkg.AddDependent(d)
	return pkg
}

// ResolvedRevision resolves d's specified revision (a branch, tag, or
// hash) to a concrete commit hash in d's bound package's repo. The
// resolver chooses this commit when d is the first edge popped for its
// name.
func (d *Dependency) ResolvedRevision() (string, error) {
	if d.Package == nil || d.Package.Repo == nil {
		return "", errors.New("cannot resolve an unbound or undownloaded dependency")
	}
	return d.Package.Repo.ResolveRef(d.SpecifiedRevision)
}

// CommitTime returns the commit time of d's resolved revision, the key
// the resolver's frontier heap pops by.
func (d *Dependency) CommitTime() (int64, error) {
	rev, err := d.ResolvedRevision()
	if err != nil {
		return 0, err
	}
	return d.Package.Repo.CommitTime(rev)
}

// ShortRevision abbreviates d's specified revision for display.
func (d *Dependency) ShortRevision() string {
	if d.Package == nil || d.Package.Repo == nil {
		return d.SpecifiedRevision
	}
	rev, err := d.ResolvedRevision()
	if err != nil {
		return d.SpecifiedRevision
	}
	short, err := d.Package.Repo.ShortenRev(rev)
	if err != nil {
		return rev
	}
	return short
}

// Tag renders d's "<name>::<short-revision>" identity for diagnostics.
func (d *Dependency) Tag() string {
	return fmt.Sprintf("%s::%s", d.Name, d.ShortRevision())
}

// ToRepoEntry converts d into the wire shape written to a manifest.
func (d *Dependency) ToRepoEntry() repoentry.Entry {
	return repoentry.Entry{
		CheckoutPath: d.Name,
		Revision:     d.SpecifiedRevision,
		RemoteURL:    d.Source,
		Message:      d.Message,
	}
}
