// Package repoentry is the on-disk format shared by the workspace
// manifest, per-package manifests, and the lock file. It knows exactly one
// record shape and two ways to serialize a list of them; it never
// interprets a revision string.
package repoentry

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Entry is the abstract record: {checkout_path, revision, remote_url,
// optional message}. JSON field names are bit-exact to the original
// format: name, commit, source, //.
type Entry struct {
	CheckoutPath string
	Revision     string
	RemoteURL    string // empty when a repo_path supplies the source
	Message      string // empty when absent
}

// wireEntry is the exact on-disk shape for one record.
type wireEntry struct {
	Name    string `json:"name"`
	Commit  string `json:"commit"`
	Source  string `json:"source,omitempty"`
	Message string `json:"//,omitempty"`
}

func (e Entry) toWire() wireEntry {
	return wireEntry{Name: e.CheckoutPath, Commit: e.Revision, Source: e.RemoteURL, Message: e.Message}
}

func (w wireEntry) toEntry() Entry {
	return Entry{CheckoutPath: w.Name, Revision: w.Commit, RemoteURL: w.Source, Message: w.Message}
}

// FormatError reports a malformed on-disk file, with path and (when the
// content was read out of a commit rather than the filesystem) the
// revision it came from.
type FormatError struct {
	Path     string
	Revision string // empty when read directly from disk
	Err      error
}

func (e *FormatError) Error() string {
	if e.Revision != "" {
		return fmt.Sprintf("malformed repo-entry file %s at revision %s: %v", e.Path, e.Revision, e.Err)
	}
	return fmt.Sprintf("malformed repo-entry file %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// DuplicateNameError reports more than one entry sharing a checkout path.
type DuplicateNameError struct {
	Path     string
	Revision string
	Names    []string
}

func (e *DuplicateNameError) Error() string {
	loc := e.Path
	if e.Revision != "" {
		loc = fmt.Sprintf("%s:%s", e.Path, e.Revision)
	}
	return fmt.Sprintf("duplicate checkout path(s) in %s: %v", loc, e.Names)
}

// ParseManifest decodes the list-of-records shape used by workspace and
// package manifests, in file order.
func ParseManifest(data []byte, path string) ([]Entry, error) {
	return parseManifestAt(data, path, "")
}

// ParseManifestAtRevision decodes manifest content that was read from a
// specific git commit rather than the working tree, so format errors can
// report that revision.
func ParseManifestAtRevision(data []byte, path, revision string) ([]Entry, error) {
	return parseManifestAt(data, path, revision)
}

func parseManifestAt(data []byte, path, revision string) ([]Entry, error) {
	var wire []wireEntry
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &FormatError{Path: path, Revision: revision, Err: err}
	}

	entries := make([]Entry, 0, len(wire))
	for _, w := range wire {
		entries = append(entries, w.toEntry())
	}

	if err := checkDuplicates(entries, path, revision); err != nil {
		return nil, err
	}

	return entries, nil
}

// EmitManifest serializes entries to the list-of-records shape, stable and
// diff-friendly: records in the order given (insertion order), four-space
// indent, trailing newline.
func EmitManifest(entries []Entry) ([]byte, error) {
	wire := make([]wireEntry, len(entries))
	for i, e := range entries {
		wire[i] = e.toWire()
	}

	buf, err := json.MarshalIndent(wire, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(buf, '\n'), nil
}

// ParseLock decodes the name-keyed mapping shape used by the lock file.
// Keys must equal their record's checkout path.
func ParseLock(data []byte, path string) ([]Entry, error) {
	var wire map[string]wireEntry
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}

	entries := make([]Entry, 0, len(wire))
	for key, w := range wire {
		if key != w.Name {
			return nil, &FormatError{
				Path: path,
				Err:  fmt.Errorf("lock key %q does not match entry name %q", key, w.Name),
			}
		}
		entries = append(entries, w.toEntry())
	}

	if err := checkDuplicates(entries, path, ""); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].CheckoutPath < entries[j].CheckoutPath })
	return entries, nil
}

// EmitLock serializes entries to the name-keyed mapping shape, stable key
// ordering (Go's json package already sorts map[string] keys) and a
// trailing newline.
func EmitLock(entries []Entry) ([]byte, error) {
	wire := make(map[string]wireEntry, len(entries))
	for _, e := range entries {
		wire[e.CheckoutPath] = e.toWire()
	}

	buf, err := json.MarshalIndent(wire, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(buf, '\n'), nil
}

func checkDuplicates(entries []Entry, path, revision string) error {
	seen := make(map[string]int, len(entries))
	var dups []string
	for _, e := range entries {
		seen[e.CheckoutPath]++
		if seen[e.CheckoutPath] == 2 {
			dups = append(dups, e.CheckoutPath)
		}
	}
	if len(dups) > 0 {
		sort.Strings(dups)
		return &DuplicateNameError{Path: path, Revision: revision, Names: dups}
	}
	return nil
}
