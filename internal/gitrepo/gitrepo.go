// Package gitrepo wraps the external `git` binary with exactly the set of
// operations the resolver and workspace layers need. It is grounded on
// original_source/lib/wit/gitrepo.py (GitRepo) — clone/fetch with bad-source
// disambiguation, ref resolution, ancestry, manifest-at-commit reads,
// checkout with ref-name recovery — reshaped into idiomatic Go with an
// explicit mutex-guarded cache in place of the Python lru_cache decorators.
package gitrepo

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/yejune/wit/internal/repoentry"
)

// ManifestFileName is the per-package dependency manifest git reads at a
// specific commit.
const ManifestFileName = "wit-manifest.json"

// SubmoduleFileName is read when ManifestFileName is absent at a commit.
const SubmoduleFileName = ".gitmodules"

var verbosePrefix = regexp.MustCompile(`^refs/(?:heads/)?`)

// Repo is an in-memory handle to a git repository on disk. It may not be in
// sync with the filesystem; multiple Repo values may point at the same
// on-disk path, as in the original.
type Repo struct {
	Name string
	Path string

	mu          sync.Mutex
	knownHashes map[string]struct{}
	commitCache map[string]string
	shortCache  map[string]string
	timeCache   map[string]int64
}

// New returns a handle for a repository that would live at parentDir/name.
// It does not touch the filesystem.
func New(name, parentDir string) *Repo {
	return &Repo{
		Name:        name,
		Path:        filepath.Join(parentDir, name),
		knownHashes: make(map[string]struct{}),
		commitCache: make(map[string]string),
		shortCache:  make(map[string]string),
		timeCache:   make(map[string]int64),
	}
}

// IsRepo probes whether path is a working repo reachable by git.
func IsRepo(path string) bool {
	cmd := exec.Command("git", "ls-remote", "--exit-code", path)
	return cmd.Run() == nil
}

// PathToName strips a trailing ".git" from the final path component of a
// source URL or filesystem path.
func PathToName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, ".git")
}

// CloneOptions configures Clone's use of a local object-cache reference.
type CloneOptions struct {
	// ReferenceWorkspace is the value of WIT_WORKSPACE_REFERENCE, or empty.
	ReferenceWorkspace string
}

// isBadSource runs a remote listing against source from the parent
// directory (the repo need not exist yet) to distinguish "source
// unreachable" from a generic git failure.
func (r *Repo) isBadSource(source string) bool {
	cmd := exec.Command("git", "ls-remote", source)
	cmd.Dir = filepath.Dir(r.Path)
	return cmd.Run() != nil
}

// Clone creates parentDir/name with history only (no working-tree
// checkout). If opts.ReferenceWorkspace names a sibling directory matching
// this repo's name (or name+".git"), it is passed as an object-cache hint
// with --dissociate.
func (r *Repo) Clone(source string, opts CloneOptions) error {
	if IsRepo(r.Path) {
		return fmt.Errorf("refusing to clone into existing git repo %s", r.Path)
	}
	if err := os.MkdirAll(filepath.Dir(r.Path), 0755); err != nil {
		return err
	}

	args := []string{"clone"}
	args = append(args, r.referenceOptions(opts)...)
	args = append(args, "--no-checkout", source, r.Path)

	_, _, err := r.runGitIn(filepath.Dir(r.Path), args...)
	if err != nil {
		if r.isBadSource(source) {
			return &BadSourceError{Name: r.Name, Source: source}
		}
		return err
	}
	return nil
}

func (r *Repo) referenceOptions(opts CloneOptions) []string {
	if opts.ReferenceWorkspace == "" {
		return nil
	}
	for _, candidate := range []string{r.Name, r.Name + ".git"} {
		path := filepath.Join(opts.ReferenceWorkspace, candidate)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return []string{"--reference", path, "--dissociate"}
		}
	}
	return nil
}

// Fetch fetches source plus all configured remotes.
func (r *Repo) Fetch(source string) error {
	_, _, err := r.runGit("fetch", source)
	// Also fetch configured remotes, e.g. origin/<branch> lookups for local sources.
	r.runGit("fetch", "--all")
	if err != nil {
		if r.isBadSource(source) {
			return &BadSourceError{Name: r.Name, Source: source}
		}
		return err
	}
	return nil
}

// Download clones if the repo does not yet exist on disk, then fetches.
func (r *Repo) Download(source string, opts CloneOptions) error {
	if !IsRepo(r.Path) {
		if err := r.Clone(source, opts); err != nil {
			return err
		}
	}
	return r.Fetch(source)
}

func (r *Repo) knownHash(commit string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.knownHashes[commit]
	return ok
}

func (r *Repo) addKnownHash(commit string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.knownHashes[commit] = struct{}{}
}

// ResolveRef resolves ref to a 40-char commit, trying ref then origin/ref.
// Results are memoized once the ref is known to be a real hash.
func (r *Repo) ResolveRef(ref string) (string, error) {
	r.mu.Lock()
	if cached, ok := r.commitCache[ref]; ok && r.cacheableLocked(ref) {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	commit, err := r.resolveRefImpl(ref)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.commitCache[ref] = commit
	r.mu.Unlock()
	r.addKnownHash(commit)
	return commit, nil
}

func (r *Repo) cacheableLocked(ref string) bool {
	_, ok := r.knownHashes[ref]
	return ok
}

func (r *Repo) resolveRefImpl(ref string) (string, error) {
	stdout, _, err := r.runGit("rev-parse", ref)
	if err == nil {
		return strings.TrimSpace(stdout), nil
	}

	stdout, stderr, err2 := r.runGit("rev-parse", "origin/"+ref)
	if err2 == nil {
		return strings.TrimSpace(stdout), nil
	}

	if strings.Contains(stderr, "unknown revision or path not in the working tree") {
		return "", &CommitNotFoundError{Repo: r.Name, Ref: ref}
	}
	return "", err2
}

// ShortenRev returns the abbreviated form of commit.
func (r *Repo) ShortenRev(commit string) (string, error) {
	r.mu.Lock()
	if cached, ok := r.shortCache[commit]; ok && r.cacheableLocked(commit) {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	stdout, _, err := r.runGit("rev-parse", "--short", commit)
	if err != nil {
		return "", err
	}
	short := strings.TrimSpace(stdout)

	r.mu.Lock()
	r.shortCache[commit] = short
	r.mu.Unlock()
	return short, nil
}

// IsHash reports whether ref is already a resolved commit hash.
func (r *Repo) IsHash(ref string) bool {
	commit, err := r.ResolveRef(ref)
	return err == nil && commit == ref
}

// IsTag reports whether ref names an existing tag exactly.
func (r *Repo) IsTag(ref string) bool {
	stdout, _, err := r.runGit("tag", "--list", ref)
	if err != nil {
		return false
	}
	for _, line := range strings.Split(stdout, "\n") {
		if line == ref {
			return true
		}
	}
	return false
}

// HasCommit is a cheap existence check that does not false-positive when
// only a ref name happens to coincide with commit.
func (r *Repo) HasCommit(commit string) bool {
	cmd := r.command("cat-file", "-t", commit)
	return cmd.Run() == nil
}

// IsAncestor reports whether ancestor is reachable from current.
func (r *Repo) IsAncestor(ancestor, current string) bool {
	cmd := r.command("merge-base", "--is-ancestor", ancestor, current)
	return cmd.Run() == nil
}

// HaveCommonAncestor reports whether all given commits share a common
// ancestor (octopus merge-base).
func (r *Repo) HaveCommonAncestor(commits []string) bool {
	args := append([]string{"merge-base", "--octopus"}, commits...)
	cmd := r.command(args...)
	return cmd.Run() == nil
}

// CommitTime returns the integer unix-seconds commit time of commit.
func (r *Repo) CommitTime(commit string) (int64, error) {
	r.mu.Lock()
	if cached, ok := r.timeCache[commit]; ok && r.cacheableLocked(commit) {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	stdout, _, err := r.runGit("log", "-n1", "--format=%ct", commit)
	if err != nil {
		return 0, err
	}
	t, err := strconv.ParseInt(strings.TrimSpace(stdout), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing commit time for %s: %w", commit, err)
	}

	r.mu.Lock()
	r.timeCache[commit] = t
	r.mu.Unlock()
	return t, nil
}

// GetHeadCommit resolves HEAD.
func (r *Repo) GetHeadCommit() (string, error) {
	return r.ResolveRef("HEAD")
}

// GetOrigin returns the repo's "origin" remote URL.
func (r *Repo) GetOrigin() (string, error) {
	stdout, _, err := r.runGit("remote", "get-url", "origin")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(stdout), nil
}

// SetOrigin rewrites the "origin" remote URL.
func (r *Repo) SetOrigin(source string) error {
	_, _, err := r.runGit("remote", "set-url", "origin", source)
	return err
}

// Clean reports no uncommitted changes of any kind.
func (r *Repo) Clean() (bool, error) {
	stdout, _, err := r.runGit("status", "--porcelain")
	if err != nil {
		return false, err
	}
	return stdout == "", nil
}

// Modified reports any porcelain line starting with "M".
func (r *Repo) Modified() (bool, error) {
	return r.statusLineStartsWith("M")
}

// Untracked reports any porcelain "??" line.
func (r *Repo) Untracked() (bool, error) {
	return r.statusLineStartsWith("??")
}

func (r *Repo) statusLineStartsWith(prefix string) (bool, error) {
	stdout, _, err := r.runGit("status", "--porcelain")
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(stdout, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), prefix) {
			return true, nil
		}
	}
	return false, nil
}

// ModifiedManifest reports whether wit-manifest.json has a locally modified
// or deleted porcelain status.
func (r *Repo) ModifiedManifest() (bool, error) {
	stdout, _, err := r.runGit("status", "--porcelain")
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(stdout, "\n") {
		trimmed := strings.TrimSpace(line)
		if (strings.HasPrefix(trimmed, "M") || strings.HasPrefix(trimmed, "D")) &&
			strings.HasSuffix(line, ManifestFileName) {
			return true, nil
		}
	}
	return false, nil
}

// Checkout checks out revision. If HEAD already equals the resolved commit,
// it re-invokes checkout with no argument to restore the working tree;
// otherwise it prefers a non-remote ref name whose tip equals the resolved
// commit.
func (r *Repo) Checkout(revision string) error {
	wantedHash, err := r.ResolveRef(revision)
	if err != nil {
		return err
	}

	head, err := r.GetHeadCommit()
	if err != nil {
		return err
	}

	if head == wantedHash {
		_, _, err := r.runGit("checkout")
		return err
	}

	rev := r.pickCheckoutRef(revision, wantedHash)
	_, _, err = r.runGit("checkout", rev)
	return err
}

func (r *Repo) pickCheckoutRef(revision, wantedHash string) string {
	stdout, _, err := r.runGit("show-ref")
	if err != nil {
		return revision
	}

	var names []string
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 || parts[0] != wantedHash {
			continue
		}
		name := parts[1]
		if strings.HasPrefix(name, "refs/remotes") {
			continue
		}
		names = append(names, verbosePrefix.ReplaceAllString(name, ""))
	}

	if len(names) == 1 {
		return names[0]
	}
	return revision
}

// ReadEntriesAtCommit shows the committed manifest file at revision; if
// absent, it falls back to synthesizing entries from .gitmodules.
func (r *Repo) ReadEntriesAtCommit(revision string) ([]repoentry.Entry, error) {
	entries, err := r.readManifestAtCommit(revision)
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 {
		return entries, nil
	}
	return r.readSubmodulesAtCommit(revision)
}

func (r *Repo) readManifestAtCommit(revision string) ([]repoentry.Entry, error) {
	stdout, _, err := r.runGit("show", fmt.Sprintf("%s:%s", revision, ManifestFileName))
	if err != nil {
		return nil, nil
	}
	return repoentry.ParseManifestAtRevision([]byte(stdout), ManifestFileName, revision)
}

func (r *Repo) command(args ...string) *exec.Cmd {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Path
	return cmd
}

func (r *Repo) runGit(args ...string) (stdout, stderr string, err error) {
	return r.runGitIn(r.Path, args...)
}

func (r *Repo) runGitIn(dir string, args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	stdout, stderr = outBuf.String(), errBuf.String()
	if runErr == nil {
		return stdout, stderr, nil
	}

	code := -1
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		code = exitErr.ExitCode()
	}
	return stdout, stderr, &GitError{
		Args:   append([]string{"git"}, args...),
		Dir:    dir,
		Code:   code,
		Stdout: stdout,
		Stderr: stderr,
	}
}
