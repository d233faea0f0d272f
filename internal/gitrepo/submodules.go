package gitrepo

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yejune/wit/internal/repoentry"
)

var (
	submodulePathRe = regexp.MustCompile(`^submodule\.(.*)\.path (.*)$`)
	submoduleURLRe  = regexp.MustCompile(`^submodule\.(.*)\.url (.*)$`)
)

// readSubmodulesAtCommit reads the committed .gitmodules file at revision
// and synthesizes RepoEntry values from it, the way
// GitRepo._read_submodules_from_commit does: submodule.<name>.path and
// .url give the declared name and remote, and the tree pointer at that
// path in revision gives the commit. A submodule name containing a path
// separator is flattened to the URL basename, since wit only supports a
// flat checkout layout.
func (r *Repo) readSubmodulesAtCommit(revision string) ([]repoentry.Entry, error) {
	gitmodules, _, err := r.runGit("show", fmt.Sprintf("%s:%s", revision, SubmoduleFileName))
	if err != nil {
		return nil, nil
	}

	configOut, _, err := r.runGitWithInput(gitmodules, "config", "-f-", "--get-regex", `submodule\..*`)
	if err != nil {
		return nil, err
	}

	pathsByName := map[string]string{}
	var order []string
	urlsByName := map[string]string{}

	for _, line := range strings.Split(configOut, "\n") {
		if m := submodulePathRe.FindStringSubmatch(line); m != nil {
			if _, ok := pathsByName[m[1]]; !ok {
				order = append(order, m[1])
			}
			pathsByName[m[1]] = m[2]
		}
	}
	for _, line := range strings.Split(configOut, "\n") {
		if m := submoduleURLRe.FindStringSubmatch(line); m != nil {
			urlsByName[m[1]] = m[2]
		}
	}

	if len(pathsByName) != len(urlsByName) {
		return nil, fmt.Errorf("error matching paths with urls in %s/%s", r.Name, SubmoduleFileName)
	}

	entries := make([]repoentry.Entry, 0, len(order))
	for _, name := range order {
		path := pathsByName[name]
		pointer, err := r.submodulePointer(revision, path)
		if err != nil {
			return nil, err
		}

		url := urlsByName[name]
		checkoutName := name
		if strings.Contains(name, "/") {
			checkoutName = PathToName(url)
		}

		entries = append(entries, repoentry.Entry{
			CheckoutPath: checkoutName,
			Revision:     pointer,
			RemoteURL:    url,
		})
	}

	return entries, nil
}

// submodulePointer gets the submodule pointer commit recorded in the tree
// at revision for path. This is not necessarily the currently-checked-out
// commit of that submodule — it's whatever the parent repo's tree at
// revision points at. `git ls-tree` output is "<mode> <type> <hash>\t<file>".
func (r *Repo) submodulePointer(revision, path string) (string, error) {
	stdout, _, err := r.runGit("ls-tree", revision, path)
	if err != nil {
		return "", err
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return "", fmt.Errorf("no tree entry for submodule path %q at %s", path, revision)
	}
	fields := strings.Fields(strings.SplitN(lines[0], "\t", 2)[0])
	if len(fields) != 3 {
		return "", fmt.Errorf("unexpected ls-tree output for %q: %q", path, lines[0])
	}
	return fields[2], nil
}

func (r *Repo) runGitWithInput(input string, args ...string) (stdout, stderr string, err error) {
	cmd := r.command(args...)
	cmd.Stdin = strings.NewReader(input)

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	if runErr != nil {
		return outBuf.String(), errBuf.String(), &GitError{
			Args:   append([]string{"git"}, args...),
			Dir:    r.Path,
			Stdout: outBuf.String(),
			Stderr: errBuf.String(),
		}
	}
	return outBuf.String(), errBuf.String(), nil
}
