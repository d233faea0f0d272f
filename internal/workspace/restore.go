package workspace

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// restoreErrorSink collects a failure per worker without risking a data
// race, mirroring internal/resolver's errorSink — restore fans one
// goroutine out per locked package and, like workspace.py's
// WorkSpace.restore draining its queue.Queue of every failure, must
// report every one of them, not just whichever errgroup saw first.
type restoreErrorSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *restoreErrorSink) add(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
}

// Restore clones and checks out every package already present in the
// lock file, ignoring the workspace manifest entirely — for rebuilding a
// workspace from someone else's wit-lock.json without re-resolving.
// Grounded on workspace.py's WorkSpace.restore, which fans a
// threading.Thread out per locked package and collects failures via a
// shared queue.Queue; here an unbounded errgroup.Group plays that role
// since restoring from an already-pinned lock has no frontier to
// serialize against.
func (w *Workspace) Restore() error {
	backupPath, err := w.backupStaleCache()
	if err != nil {
		return err
	}
	if backupPath != "" {
		w.logger().Verbose("backed up existing cache to %s", backupPath)
	}

	names := make([]string, 0, w.Lock.Len())
	for name := range w.Lock.Packages() {
		names = append(names, name)
	}

	errs := &restoreErrorSink{}
	g := new(errgroup.Group)
	for _, name := range names {
		name := name
		g.Go(func() error {
			pkg, _ := w.Lock.Get(name)
			if err := pkg.Load(w.Root, true, pkg.Source, pkg.Revision, w.CloneOptions); err != nil {
				errs.add(fmt.Errorf("restoring %s: %w", name, err))
				return nil
			}
			if err := pkg.Checkout(w.Root, w.logger()); err != nil {
				errs.add(fmt.Errorf("checking out %s: %w", name, err))
			}
			return nil
		})
	}
	g.Wait()

	return joinErrors(errs.errs)
}
