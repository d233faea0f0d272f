package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/yejune/wit/internal/depgraph"
	"github.com/yejune/wit/internal/manifest"
	"github.com/yejune/wit/internal/witlog"
)

func setupResolvedWorkspace(t *testing.T) (*Workspace, *testRepo) {
	t.Helper()
	dep := newTestRepo(t)
	dep.commit("README.md", "hi", "initial")

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
	return ws, dep
}

func TestAddDepWritesPackageManifest(t *testing.T) {
	ws, _ := setupResolvedWorkspace(t)
	other := newTestRepo(t)
	other.commit("README.md", "hi", "initial")

	if err := ws.AddDep("libfoo", other.dir+"::HEAD", "needed for tests"); err != nil {
		t.Fatalf("AddDep: %v", err)
	}

	m, err := manifest.Load(filepath.Join(ws.Root, "libfoo", manifest.FileName))
	if err != nil {
		t.Fatalf("loading package manifest: %v", err)
	}
	if len(m.Entries()) != 1 {
		t.Fatalf("expected one dependency entry, got %d", len(m.Entries()))
	}
}

func TestAddDepRejectsDuplicate(t *testing.T) {
	ws, _ := setupResolvedWorkspace(t)
	other := newTestRepo(t)
	other.commit("README.md", "hi", "initial")

	if err := ws.AddDep("libfoo", other.dir+"::HEAD", ""); err != nil {
		t.Fatalf("first AddDep: %v", err)
	}
	if err := ws.AddDep("libfoo", other.dir+"::HEAD", ""); err == nil {
		t.Fatal("expected a duplicate AddDep to fail")
	}
}

func TestUpdateDepRequiresExistingEntry(t *testing.T) {
	ws, _ := setupResolvedWorkspace(t)
	other := newTestRepo(t)
	other.commit("README.md", "hi", "initial")

	if err := ws.UpdateDep("libfoo", other.dir+"::HEAD", ""); err == nil {
		t.Fatal("expected UpdateDep on a non-existent dependency to fail")
	}

	if err := ws.AddDep("libfoo", other.dir+"::HEAD", ""); err != nil {
		t.Fatalf("AddDep: %v", err)
	}
	if err := ws.UpdateDep("libfoo", other.dir+"::HEAD", "retargeted"); err != nil {
		t.Fatalf("UpdateDep: %v", err)
	}
}

func TestAddDepRejectsPackageNotInLock(t *testing.T) {
	ws, _ := setupResolvedWorkspace(t)
	if err := ws.AddDep("doesnotexist", "x::HEAD", ""); err == nil {
		t.Fatal("expected AddDep on an unlocked package to fail")
	}
}

func TestGuardSubmoduleOnlyRefusesEdits(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".gitmodules"), []byte("[submodule]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := guardSubmoduleOnly(dir); err == nil {
		t.Fatal("expected guardSubmoduleOnly to refuse a submodule-only package")
	}
}

func TestGuardSubmoduleOnlyAllowsManifest(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, manifest.FileName), []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := guardSubmoduleOnly(dir); err != nil {
		t.Errorf("expected guardSubmoduleOnly to allow a package with its own manifest: %v", err)
	}
}
