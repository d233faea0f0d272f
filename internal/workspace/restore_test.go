package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yejune/wit/internal/depgraph"
	"github.com/yejune/wit/internal/gitrepo"
	"github.com/yejune/wit/internal/witlog"
)

func TestRestoreRebuildsFromLockAlone(t *testing.T) {
	dep := newTestRepo(t)
	commit := dep.commit("README.md", "hi", "initial")

	parent := t.TempDir()
	ws, err := Create(parent, "ws", nil, 2, witlog.Nop{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := ws.Manifest.Add(depgraph.NewDependency("libfoo", dep.dir, "HEAD", "")); err != nil {
		t.Fatalf("Manifest.Add: %v", err)
	}
	if err := ws.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// Simulate a lost checkout: remove everything but the lock file.
	if err := os.RemoveAll(filepath.Join(ws.Root, "libfoo")); err != nil {
		t.Fatal(err)
	}

	fresh, err := Find(ws.Root, nil, 2, witlog.Nop{})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if err := fresh.Restore(); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	checkoutDir := filepath.Join(fresh.Root, "libfoo")
	if !gitrepo.IsRepo(checkoutDir) {
		t.Fatalf("expected libfoo restored as a git repo at %s", checkoutDir)
	}
	r := gitrepo.New("libfoo", fresh.Root)
	head, err := r.GetHeadCommit()
	if err != nil {
		t.Fatalf("GetHeadCommit: %v", err)
	}
	if head != commit {
		t.Errorf("restored HEAD = %q, want %q", head, commit)
	}
}

// TestRestoreAggregatesAllFailures covers the maintainer-flagged gap:
// errgroup.Group.Wait alone only surfaces the first worker's error, but
// restore must report every package that failed to clone, the way
// workspace.py's restore drains its whole failure queue.
func TestRestoreAggregatesAllFailures(t *testing.T) {
	dep1 := newTestRepo(t)
	dep1.commit("README.md", "hi", "initial")
	dep2 := newTestRepo(t)
	dep2.commit("README.md", "hi", "initial")

	parent := t.TempDir()
	ws, err := Create(parent, "ws", nil, 2, witlog.Nop{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := ws.Manifest.Add(depgraph.NewDependency("foo", dep1.dir, "HEAD", "")); err != nil {
		t.Fatalf("Manifest.Add foo: %v", err)
	}
	if err := ws.Manifest.Add(depgraph.NewDependency("bar", dep2.dir, "HEAD", "")); err != nil {
		t.Fatalf("Manifest.Add bar: %v", err)
	}
	if err := ws.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// Simulate a lost checkout with a lock that now points at sources
	// that no longer exist, so both packages fail to restore.
	badSource := filepath.Join(t.TempDir(), "does-not-exist")
	for _, name := range []string{"foo", "bar"} {
		pkg, ok := ws.Lock.Get(name)
		if !ok {
			t.Fatalf("expected %s in lock", name)
		}
		pkg.Source = badSource
		if err := os.RemoveAll(filepath.Join(ws.Root, name)); err != nil {
			t.Fatal(err)
		}
	}

	err = ws.Restore()
	if err == nil {
		t.Fatal("expected Restore to fail for both packages")
	}
	if !strings.Contains(err.Error(), "foo") || !strings.Contains(err.Error(), "bar") {
		t.Errorf("expected the aggregated error to mention both foo and bar, got: %v", err)
	}
}

func TestBackupStaleCacheSkipsWhenNoCache(t *testing.T) {
	parent := t.TempDir()
	ws, err := Create(parent, "ws", nil, 2, witlog.Nop{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Create leaves an empty .wit behind, so remove it to exercise the
	// no-cache path explicitly.
	if err := os.RemoveAll(filepath.Join(ws.Root, ".wit")); err != nil {
		t.Fatal(err)
	}

	path, err := ws.backupStaleCache()
	if err != nil {
		t.Fatalf("backupStaleCache: %v", err)
	}
	if path != "" {
		t.Errorf("expected no backup path when .wit is absent, got %q", path)
	}
}

func TestBackupStaleCacheArchivesExistingCache(t *testing.T) {
	parent := t.TempDir()
	ws, err := Create(parent, "ws", nil, 2, witlog.Nop{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := os.WriteFile(filepath.Join(ws.Root, ".wit", "marker.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	path, err := ws.backupStaleCache()
	if err != nil {
		t.Fatalf("backupStaleCache: %v", err)
	}
	if path == "" {
		t.Fatal("expected a backup archive path")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected archive file to exist at %s: %v", path, err)
	}
}
