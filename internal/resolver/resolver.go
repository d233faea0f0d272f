// Package resolver implements wit's time-ordered frontier: the
// algorithm that turns a workspace manifest's direct dependencies into a
// name -> Package map where every Package carries a single, consistent,
// newest-acceptable chosen revision. Grounded line-by-line on
// original_source/lib/wit/workspace.py's resolve/resolve_deps and
// dependency.py's Dependency.resolve_deps.
package resolver

import (
	"container/heap"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yejune/wit/internal/depgraph"
	"github.com/yejune/wit/internal/gitrepo"
	"github.com/yejune/wit/internal/witlog"
)

// Options configures one Resolve call.
type Options struct {
	WorkspaceRoot string
	RepoPaths     []string
	Download      bool
	Jobs          int
	CloneOptions  gitrepo.CloneOptions
	Log           witlog.Logger
}

func (o Options) jobs() int {
	if o.Jobs > 0 {
		return o.Jobs
	}
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}

func (o Options) log() witlog.Logger {
	if o.Log != nil {
		return o.Log
	}
	return witlog.Nop{}
}

// Result is the outcome of a Resolve call: the name -> Package map built
// so far, plus every error encountered. A non-empty Errors means the
// result is not actionable — callers must not check anything out.
type Result struct {
	Packages map[string]*depgraph.Package
	Errors   []error
}

// errorSink collects errors from both the main goroutine and bounded
// worker pools without risking a data race.
type errorSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *errorSink) add(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
}

// Resolve runs the frontier algorithm over initial (the workspace
// manifest's direct dependencies) and returns the chosen package map.
func Resolve(initial []*depgraph.Dependency, opts Options) *Result {
	packages := map[string]*depgraph.Package{}
	sourceMap := map[string]string{}
	errs := &errorSink{}

	fr := &frontier{}
	heap.Init(fr)
	var seq uint64

	bindAndLoad := func(dep *depgraph.Dependency) *depgraph.Package {
		pkg := dep.Bind(packages, opts.RepoPaths)
		if pkg.Repo == nil {
			if err := pkg.Load(opts.WorkspaceRoot, opts.Download, dep.Source, dep.SpecifiedRevision, opts.CloneOptions); err != nil {
				errs.add(fmt.Errorf("loading %s: %w", dep.Name, err))
				return pkg
			}
		}
		return pkg
	}

	push := func(dep *depgraph.Dependency, pkg *depgraph.Package) {
		if pkg.Repo == nil {
			errs.add(fmt.Errorf("%s: not available on disk and downloading is disabled", dep.Name))
			return
		}
		t, err := dep.CommitTime()
		if err != nil {
			errs.add(fmt.Errorf("reading commit time for %s: %w", dep.Name, err))
			return
		}
		seq++
		heap.Push(fr, &frontierItem{dep: dep, commitTime: t, seq: seq})
	}

	// 1. Seed.
	for _, dep := range initial {
		sourceMap[dep.Name] = depgraph.ResolveSource(dep.Source, dep.Name, opts.RepoPaths)
		pkg := bindAndLoad(dep)
		push(dep, pkg)
	}

	// 2-4. Pop-newest-first, choose, expand.
	for fr.Len() > 0 {
		item := heap.Pop(fr).(*frontierItem)
		dep := item.dep
		pkg := dep.Package

		if pkg.Revision != "" {
			if pkg.Repo.IsAncestor(dep.SpecifiedRevision, pkg.Revision) {
				continue // consistent: an older, already-satisfied request
			}
			errs.add(&NotAncestorError{Name: dep.Name, SpecifiedRevision: dep.SpecifiedRevision, ChosenRevision: pkg.Revision})
			continue
		}

		resolvedRev, err := dep.ResolvedRevision()
		if err != nil {
			errs.add(fmt.Errorf("resolving %s: %w", dep.Name, err))
			continue
		}
		pkg.Revision = resolvedRev
		pkg.SetSource(dep.Source)
		sourceMap[pkg.Name] = pkg.Source

		parentTime, err := pkg.Repo.CommitTime(pkg.Revision)
		if err != nil {
			errs.add(fmt.Errorf("reading commit time for %s: %w", pkg.Name, err))
			continue
		}

		children, err := pkg.GetDependencies()
		if err != nil {
			errs.add(fmt.Errorf("reading dependencies of %s: %w", pkg.Name, err))
			continue
		}

		expandChildren(children, pkg, parentTime, packages, sourceMap, fr, &seq, opts, errs)
	}

	warnDivergedRootCheckouts(packages, opts.log())

	return &Result{Packages: packages, Errors: errs.errs}
}

// expandChildren clones a node's children up to opts.jobs() in parallel
// — each worker only touches its own scratch Package on disk — then
// binds, conflict-checks, and pushes every child on the main goroutine.
// Grounded on spec.md §4.4's "Parallel clone within expansion."
func expandChildren(
	children []*depgraph.Dependency,
	parent *depgraph.Package,
	parentTime int64,
	packages map[string]*depgraph.Package,
	sourceMap map[string]string,
	fr *frontier,
	seq *uint64,
	opts Options,
	errs *errorSink,
) {
	type cloneResult struct {
		scratch *depgraph.Package
		err     error
	}
	results := make([]cloneResult, len(children))

	g := new(errgroup.Group)
	sem := make(chan struct{}, opts.jobs())

	for i, child := range children {
		i, child := i, child
		if _, exists := packages[child.Name]; exists {
			continue // already materialized; no clone needed
		}
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			scratch := depgraph.NewPackage(child.Name, opts.RepoPaths)
			err := scratch.Load(opts.WorkspaceRoot, opts.Download, child.Source, child.SpecifiedRevision, opts.CloneOptions)
			results[i] = cloneResult{scratch: scratch, err: err}
			return nil
		})
	}
	_ = g.Wait() // workers never return a non-nil error themselves; failures are carried in results

	for i, child := range children {
		if err := results[i].err; err != nil {
			errs.add(fmt.Errorf("cloning %s: %w", child.Name, err))
			continue
		}

		pkg := child.Bind(packages, opts.RepoPaths)
		if pkg.Repo == nil && results[i].scratch != nil {
			pkg.Repo = results[i].scratch.Repo
			pkg.InRoot = results[i].scratch.InRoot
		}
		if pkg.Repo == nil {
			errs.add(fmt.Errorf("%s: not available on disk and downloading is disabled", child.Name))
			continue
		}

		resolvedChildSource := depgraph.ResolveSource(child.Source, child.Name, opts.RepoPaths)
		if existingSource, ok := sourceMap[child.Name]; ok && existingSource != resolvedChildSource {
			if !pkg.DependentsHaveCommonAncestor() {
				errs.add(&SourceConflictError{Name: child.Name, ExistingSource: existingSource, NewSource: resolvedChildSource})
				continue
			}
		} else {
			sourceMap[child.Name] = resolvedChildSource
		}

		childTime, err := child.CommitTime()
		if err != nil {
			errs.add(fmt.Errorf("reading commit time for %s: %w", child.Name, err))
			continue
		}
		if childTime > parentTime {
			errs.add(&DependeeNewerThanDependerError{
				Child: child.Name, Parent: parent.Name,
				ChildTime: childTime, ParentTime: parentTime,
			})
			continue
		}

		*seq++
		heap.Push(fr, &frontierItem{dep: child, commitTime: childTime, seq: *seq})
	}
}

// warnDivergedRootCheckouts implements spec.md §4.4 step 5: for every
// package already checked out at wsroot/name (not the cache), warn if
// its HEAD no longer matches the chosen revision, or if its manifest has
// been locally modified and is about to be overridden by the committed
// version.
func warnDivergedRootCheckouts(packages map[string]*depgraph.Package, log witlog.Logger) {
	for _, pkg := range packages {
		if pkg.Repo == nil || !pkg.InRoot {
			continue
		}
		if head, err := pkg.Repo.GetHeadCommit(); err == nil && head != pkg.Revision {
			log.Warn("%s: checked-out HEAD has diverged from the resolved revision", pkg.Name)
		}
		if modified, err := pkg.Repo.ModifiedManifest(); err == nil && modified {
			log.Warn("%s: manifest file is modified locally; using the committed version", pkg.Name)
		}
	}
}
