package workspace

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yejune/wit/internal/depgraph"
	"github.com/yejune/wit/internal/gitrepo"
	"github.com/yejune/wit/internal/witlog"
)

// testRepo mirrors the fixture helpers already established in
// internal/gitrepo and internal/resolver's tests.
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

func (r *testRepo) commit(name, content, message string) string {
	r.t.Helper()
	if err := os.WriteFile(filepath.Join(r.dir, name), []byte(content), 0644); err != nil {
		r.t.Fatalf("write %s: %v", name, err)
	}
	r.run("add", ".")
	r.run("commit", "-m", message)
	return r.head()
}

func (r *testRepo) head() string {
	r.t.Helper()
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = r.dir
	out, err := cmd.Output()
	if err != nil {
		r.t.Fatalf("rev-parse HEAD failed: %v", err)
	}
	s := string(out)
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func TestCreateRejectsExistingManifest(t *testing.T) {
	parent := t.TempDir()
	if _, err := Create(parent, "ws", nil, 2, witlog.Nop{}); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := Create(parent, "ws", nil, 2, witlog.Nop{}); err == nil {
		t.Fatal("expected second Create over an existing manifest to fail")
	}
}

func TestFindWalksUpToWorkspaceRoot(t *testing.T) {
	parent := t.TempDir()
	ws, err := Create(parent, "ws", nil, 2, witlog.Nop{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	nested := filepath.Join(ws.Root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	found, err := Find(nested, nil, 2, witlog.Nop{})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found.Root != ws.Root {
		t.Errorf("Find root = %q, want %q", found.Root, ws.Root)
	}
}

func TestUpdateResolvesChecksOutAndLocks(t *testing.T) {
	dep := newTestRepo(t)
	commit := dep.commit("README.md", "hi", "initial")

	parent := t.TempDir()
	ws, err := Create(parent, "ws", nil, 2, witlog.Nop{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	d := depgraph.NewDependency("libfoo", dep.dir, "HEAD", "")
	if err := ws.Manifest.Add(d); err != nil {
		t.Fatalf("Manifest.Add: %v", err)
	}
	if err := ws.Manifest.Save(); err != nil {
		t.Fatalf("Manifest.Save: %v", err)
	}

	if err := ws.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if !ws.Lock.Contains("libfoo") {
		t.Fatal("expected libfoo to be locked after Update")
	}
	pkg, _ := ws.Lock.Get("libfoo")
	if pkg.Revision != commit {
		t.Errorf("locked revision = %q, want %q", pkg.Revision, commit)
	}

	checkoutDir := filepath.Join(ws.Root, "libfoo")
	if info, err := os.Stat(checkoutDir); err != nil || !info.IsDir() {
		t.Fatalf("expected libfoo checked out at %s", checkoutDir)
	}
	if !gitrepo.IsRepo(checkoutDir) {
		t.Errorf("expected %s to be a git repo", checkoutDir)
	}
}

func TestAddDependencyWritesManifestOnly(t *testing.T) {
	dep := newTestRepo(t)
	dep.commit("README.md", "hi", "initial")

	parent := t.TempDir()
	ws, err := Create(parent, "ws", nil, 2, witlog.Nop{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := ws.AddDependency(fmt.Sprintf("%s::HEAD", dep.dir), "added for tests"); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	name := gitrepo.PathToName(dep.dir)
	if !ws.Manifest.Contains(name) {
		t.Fatalf("expected %s (inferred from the source path) to be a manifest dependency", name)
	}
	if ws.Lock.Len() != 0 {
		t.Fatalf("AddDependency must not touch the lock, got %d locked packages", ws.Lock.Len())
	}

	reloaded, err := Find(ws.Root, nil, 2, witlog.Nop{})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !reloaded.Manifest.Contains(name) {
		t.Fatalf("expected the manifest write to have hit disk")
	}
}

func TestAddDependencyThenUpdateThenStatus(t *testing.T) {
	dep := newTestRepo(t)
	dep.commit("README.md", "hi", "initial")

	parent := t.TempDir()
	ws, err := Create(parent, "ws", nil, 2, witlog.Nop{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := ws.AddDependency(fmt.Sprintf("%s::HEAD", dep.dir), "added for tests"); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	if err := ws.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if ws.Lock.Len() != 1 {
		t.Fatalf("expected exactly one locked package, got %d", ws.Lock.Len())
	}

	report, err := ws.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(report.Packages) != 1 {
		t.Fatalf("expected one package in status report, got %d", len(report.Packages))
	}
	if !report.Packages[0].Clean {
		t.Errorf("expected a freshly checked-out package to be clean")
	}
	if report.Packages[0].OutOfDate {
		t.Errorf("expected a freshly resolved package to not be out of date")
	}
}

// recordingLogger discards everything but Warn, so tests can assert on
// the specific user-facing warnings add-pkg/update-pkg are required to
// emit without pulling in the Std logger's color/formatting machinery.
type recordingLogger struct {
	witlog.Nop
	warnings []string
}

func (l *recordingLogger) Warn(format string, args ...interface{}) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) contains(substr string) bool {
	for _, w := range l.warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestUpdateDependencyWarnsWhenUnchangedAndWhenLockStale(t *testing.T) {
	dep := newTestRepo(t)
	c1 := dep.commit("README.md", "hi", "initial")

	parent := t.TempDir()
	log := &recordingLogger{}
	ws, err := Create(parent, "ws", nil, 2, log)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := ws.AddDependency(fmt.Sprintf("%s::%s", dep.dir, c1), "added for tests"); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	if err := ws.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := ws.UpdateDependency(fmt.Sprintf("%s::%s", dep.dir, c1), "same revision"); err != nil {
		t.Fatalf("UpdateDependency (same revision): %v", err)
	}
	if !log.contains("same revision") {
		t.Errorf("expected a warning about updating to the same revision, got %v", log.warnings)
	}

	log.warnings = nil
	c2 := dep.commit("CHANGES.md", "more", "second")
	if err := ws.UpdateDependency(fmt.Sprintf("%s::%s", dep.dir, c2), "new revision"); err != nil {
		t.Fatalf("UpdateDependency (new revision): %v", err)
	}
	if log.contains("same revision") {
		t.Errorf("did not expect a same-revision warning after changing revisions, got %v", log.warnings)
	}
	if !log.contains("don't forget") {
		t.Errorf("expected a reminder to run 'wit update' since the lock is now stale, got %v", log.warnings)
	}
}

func TestResolveLocalAliasSubstitutesSiblingOrigin(t *testing.T) {
	upstream := newTestRepo(t)
	upstream.commit("README.md", "hi", "initial")

	parent := t.TempDir()
	ws, err := Create(parent, "ws", nil, 2, witlog.Nop{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sibling := filepath.Join(ws.Root, "libfoo")
	r := gitrepo.New("libfoo", ws.Root)
	if err := r.Clone(upstream.dir, gitrepo.CloneOptions{}); err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if _, err := os.Stat(sibling); err != nil {
		t.Fatalf("expected sibling clone at %s: %v", sibling, err)
	}

	alias := ws.resolveLocalAlias("libfoo")
	if alias != upstream.dir {
		t.Errorf("resolveLocalAlias(%q) = %q, want %q", "libfoo", alias, upstream.dir)
	}
}
