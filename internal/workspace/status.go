package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// PackageStatus classifies one locked package's on-disk state. Grounded
// on main.py's status function.
type PackageStatus struct {
	Name string

	// Missing is true when the package is locked but absent from disk
	// entirely (neither checked out at the root nor cached under .wit).
	Missing bool

	Clean            bool
	Modified         bool
	Untracked        bool
	ModifiedManifest bool

	// NewCommits is true when HEAD differs from the locked revision,
	// whatever the working-tree flags say (spec.md S7: a local commit in
	// a checked-out package leaves the tree clean but sets this). Resolve
	// still honors the manifest's committed revision, not whatever is
	// checked out.
	NewCommits bool

	// OutOfDate is true when re-resolving the workspace manifest (without
	// downloading) would choose a different revision than the one
	// currently locked.
	OutOfDate    bool
	LockRevision string
	WouldResolve string
}

// StatusReport is the result of one Workspace.Status call.
type StatusReport struct {
	Packages []PackageStatus
}

// Status reports, for every locked package, its working-tree cleanliness
// and whether a fresh (non-downloading) resolve would choose a different
// revision than what's currently locked. Grounded on main.py's status,
// which walks the lock, classifies each checkout, then diffs a
// resolve(download=False) against the lock.
func (w *Workspace) Status() (*StatusReport, error) {
	locked := w.Lock.Packages()

	report := &StatusReport{Packages: make([]PackageStatus, 0, len(locked))}
	for name, pkg := range locked {
		st := PackageStatus{Name: name, LockRevision: pkg.ShortRevision()}

		dir := filepath.Join(w.Root, name)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			cacheDir := filepath.Join(w.Root, ".wit", name)
			if info, err := os.Stat(cacheDir); err != nil || !info.IsDir() {
				st.Missing = true
				report.Packages = append(report.Packages, st)
				continue
			}
		}

		if err := pkg.Load(w.Root, false, pkg.Source, pkg.Revision, w.CloneOptions); err != nil {
			return nil, fmt.Errorf("loading %s: %w", name, err)
		}
		if pkg.Repo == nil {
			st.Missing = true
			report.Packages = append(report.Packages, st)
			continue
		}

		clean, err := pkg.Repo.Clean()
		if err != nil {
			return nil, fmt.Errorf("checking status of %s: %w", name, err)
		}
		st.Clean = clean
		if !clean {
			if modified, err := pkg.Repo.Modified(); err == nil {
				st.Modified = modified
			}
			if untracked, err := pkg.Repo.Untracked(); err == nil {
				st.Untracked = untracked
			}
			if modifiedManifest, err := pkg.Repo.ModifiedManifest(); err == nil {
				st.ModifiedManifest = modifiedManifest
			}
		}
		if head, err := pkg.Repo.GetHeadCommit(); err == nil && head != pkg.Revision {
			st.NewCommits = true
		}

		report.Packages = append(report.Packages, st)
	}

	resolved, errs := w.Resolve(false)
	if len(errs) == 0 {
		for i, st := range report.Packages {
			if fresh, ok := resolved[st.Name]; ok {
				report.Packages[i].WouldResolve = fresh.ShortRevision()
				if old, ok := locked[st.Name]; ok {
					report.Packages[i].OutOfDate = fresh.Revision != old.Revision
				}
			}
		}
	}

	return report, nil
}
