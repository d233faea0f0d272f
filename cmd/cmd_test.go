package cmd

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// testRepo mirrors the fixture helpers already established in
// internal/gitrepo, internal/resolver, and internal/workspace's tests.
type testRepo struct {
	t   *testing.T
	dir string
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()
	r := &testRepo{t: t, dir: dir}
	r.run("init")
	r.run("config", "user.email", "test@test.com")
	r.run("config", "user.name", "Test User")
	return r
}

func (r *testRepo) run(args ...string) string {
	r.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = r.dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		r.t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
	return string(out)
}

func (r *testRepo) commit(name, content, message string) {
	r.t.Helper()
	if err := os.WriteFile(filepath.Join(r.dir, name), []byte(content), 0644); err != nil {
		r.t.Fatalf("write %s: %v", name, err)
	}
	r.run("add", ".")
	r.run("commit", "-m", message)
}

// resetGlobalFlags restores every persistent/local flag this package's
// commands define to its zero value, since cobra.Command flag state
// otherwise leaks across table-driven sub-tests that reuse rootCmd.
func resetGlobalFlags(t *testing.T) {
	t.Helper()
	verboseCount = 0
	repoPathFlag = nil
	prependRepoPath = nil
	chdir = ""
	jobsFlag = 0
	addPkgMessage = ""
	updatePkgMessage = ""
	addDepMessage = ""
	updateDepMessage = ""
	restoreFromWorkspace = ""
	restoreForce = false
	foreachContinueOnFail = false
	inspectTree = false
	inspectDot = false
}

func runCmd(t *testing.T, args ...string) error {
	t.Helper()
	resetGlobalFlags(t)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	return rootCmd.Execute()
}

func TestInitCreatesWorkspace(t *testing.T) {
	parent := t.TempDir()

	if err := runCmd(t, "-C", parent, "init", "ws"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(parent, "ws", "wit-workspace.json")); err != nil {
		t.Fatalf("expected wit-workspace.json to exist: %v", err)
	}
}

func TestAddPkgUpdatePkgStatusEndToEnd(t *testing.T) {
	dep := newTestRepo(t)
	dep.commit("README.md", "hi", "initial")

	parent := t.TempDir()
	if err := runCmd(t, "-C", parent, "init", "ws"); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	wsRoot := filepath.Join(parent, "ws")
	if err := runCmd(t, "-C", wsRoot, "add-pkg", dep.dir+"::HEAD"); err != nil {
		t.Fatalf("add-pkg failed: %v", err)
	}

	if err := runCmd(t, "-C", wsRoot, "status"); err != nil {
		t.Fatalf("status failed: %v", err)
	}

	if err := runCmd(t, "-C", wsRoot, "update-pkg", dep.dir+"::HEAD"); err != nil {
		t.Fatalf("update-pkg failed: %v", err)
	}
}

func TestForeachRunsInEveryPackage(t *testing.T) {
	dep := newTestRepo(t)
	dep.commit("README.md", "hi", "initial")

	parent := t.TempDir()
	if err := runCmd(t, "-C", parent, "init", "ws"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	wsRoot := filepath.Join(parent, "ws")
	if err := runCmd(t, "-C", wsRoot, "add-pkg", dep.dir+"::HEAD"); err != nil {
		t.Fatalf("add-pkg failed: %v", err)
	}
	if err := runCmd(t, "-C", wsRoot, "update"); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	marker := filepath.Join(parent, "marker.txt")
	if err := runCmd(t, "-C", wsRoot, "foreach", "sh", "-c", "pwd >> "+marker); err != nil {
		t.Fatalf("foreach failed: %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("expected foreach to have run a command: %v", err)
	}
}

func TestAddDepRequiresPackageDirectory(t *testing.T) {
	dep := newTestRepo(t)
	dep.commit("README.md", "hi", "initial")

	parent := t.TempDir()
	if err := runCmd(t, "-C", parent, "init", "ws"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	wsRoot := filepath.Join(parent, "ws")
	if err := runCmd(t, "-C", wsRoot, "add-pkg", dep.dir+"::HEAD"); err != nil {
		t.Fatalf("add-pkg failed: %v", err)
	}

	if err := runCmd(t, "-C", wsRoot, "add-dep", "somesource::HEAD"); err == nil {
		t.Fatal("expected add-dep at the workspace root (not a package dir) to fail")
	}
}
