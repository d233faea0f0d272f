package gitrepo

import "fmt"

// GitError wraps any unclassified failure from the underlying git binary,
// retaining enough to reproduce and debug it: the full command line,
// working directory, exit code, stdout and stderr.
type GitError struct {
	Args    []string
	Dir     string
	Code    int
	Stdout  string
	Stderr  string
}

func (e *GitError) Error() string {
	return fmt.Sprintf("command %v in %s exited with status %d\nstdout: %s\nstderr: %s",
		e.Args, e.Dir, e.Code, e.Stdout, e.Stderr)
}

// BadSourceError means a remote could not be reached at all — a user error,
// not a tool failure — distinguished from GitError by an extra ls-remote
// probe against the same source.
type BadSourceError struct {
	Name   string
	Source string
}

func (e *BadSourceError) Error() string {
	return fmt.Sprintf("bad remote for %q:\n  %s", e.Name, e.Source)
}

// CommitNotFoundError means a ref could not be resolved to a commit in the
// target repo, neither directly nor via origin/<ref>.
type CommitNotFoundError struct {
	Repo string
	Ref  string
}

func (e *CommitNotFoundError) Error() string {
	return fmt.Sprintf("could not find commit or reference %q in %q", e.Ref, e.Repo)
}
