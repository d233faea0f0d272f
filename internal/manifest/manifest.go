// Package manifest holds the ordered list of direct dependencies at a
// workspace root (wit-workspace.json), or of a single package (its
// wit-manifest.json).
// Grounded on original_source/lib/wit/manifest.py's Manifest, restyled
// as a thin Go type sharing internal/repoentry for codec duties, the
// same "small type wrapping a codec pair" shape as the teacher's own
// internal/manifest/manifest.go (Load/Save over a directory, now over a
// single file).
package manifest

import (
	"fmt"
	"os"

	"github.com/yejune/wit/internal/depgraph"
	"github.com/yejune/wit/internal/repoentry"
)

// FileName is wit's own manifest file name, distinct from the teacher's
// .workspaces.
const FileName = "wit-manifest.json"

// DuplicateDependencyError reports an attempt to add a dependency whose
// name already exists in the manifest.
type DuplicateDependencyError struct {
	Path string
	Name string
}

func (e *DuplicateDependencyError) Error() string {
	return fmt.Sprintf("%s: dependency %q already exists", e.Path, e.Name)
}

// NotFoundError reports an attempt to replace a dependency that isn't
// present in the manifest.
type NotFoundError struct {
	Path string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: no dependency named %q", e.Path, e.Name)
}

// Manifest is an insertion-ordered list of dependencies, unique by name.
type Manifest struct {
	path    string
	entries []*depgraph.Dependency
}

// New creates an empty manifest bound to path, for a brand-new workspace.
func New(path string) *Manifest {
	return &Manifest{path: path}
}

// Load reads the manifest at path, returning an empty Manifest (not an
// error) when the file does not exist.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(path), nil
		}
		return nil, err
	}

	parsed, err := repoentry.ParseManifest(data, path)
	if err != nil {
		return nil, err
	}

	entries := make([]*depgraph.Dependency, len(parsed))
	for i, e := range parsed {
		entries[i] = depgraph.FromRepoEntry(e)
	}
	return &Manifest{path: path, entries: entries}, nil
}

// Save writes the manifest back to its path in insertion order.
func (m *Manifest) Save() error {
	wire := make([]repoentry.Entry, len(m.entries))
	for i, d := range m.entries {
		wire[i] = d.ToRepoEntry()
	}
	data, err := repoentry.EmitManifest(wire)
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0644)
}

// Path returns the file path this manifest reads from and writes to.
func (m *Manifest) Path() string { return m.path }

// Entries returns the manifest's dependencies in insertion order. The
// returned slice is a copy; callers must use Add/Replace to mutate.
func (m *Manifest) Entries() []*depgraph.Dependency {
	out := make([]*depgraph.Dependency, len(m.entries))
	copy(out, m.entries)
	return out
}

// Get returns the dependency named name, if present.
func (m *Manifest) Get(name string) (*depgraph.Dependency, bool) {
	for _, d := range m.entries {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// Contains reports whether a dependency named name exists.
func (m *Manifest) Contains(name string) bool {
	_, ok := m.Get(name)
	return ok
}

// Add appends a new dependency, rejecting a duplicate name.
func (m *Manifest) Add(d *depgraph.Dependency) error {
	if m.Contains(d.Name) {
		return &DuplicateDependencyError{Path: m.path, Name: d.Name}
	}
	m.entries = append(m.entries, d)
	return nil
}

// Replace overwrites the existing entry named d.Name in place,
// preserving its position, or fails if no such entry exists.
func (m *Manifest) Replace(d *depgraph.Dependency) error {
	for i, existing := range m.entries {
		if existing.Name == d.Name {
			m.entries[i] = d
			return nil
		}
	}
	return &NotFoundError{Path: m.path, Name: d.Name}
}
