package resolver

import "fmt"

// NotAncestorError fires when a second dependency edge onto an
// already-chosen package asks for a revision that is not an ancestor of
// the revision already chosen — a real graph conflict, not a tie.
type NotAncestorError struct {
	Name              string
	SpecifiedRevision string
	ChosenRevision    string
}

func (e *NotAncestorError) Error() string {
	return fmt.Sprintf("%s: requested revision %q is not an ancestor of the already-chosen %q",
		e.Name, e.SpecifiedRevision, e.ChosenRevision)
}

// DependeeNewerThanDependerError fires when a child dependency's commit
// is newer than the parent package that declared it, violating the age
// invariant (a child's commit time must not exceed its parent's).
type DependeeNewerThanDependerError struct {
	Child      string
	Parent     string
	ChildTime  int64
	ParentTime int64
}

func (e *DependeeNewerThanDependerError) Error() string {
	return fmt.Sprintf("%s (commit time %d) is newer than its depender %s (commit time %d)",
		e.Child, e.ChildTime, e.Parent, e.ParentTime)
}

// SourceConflictError fires when two dependents of the same package
// name disagree on source and their specified revisions share no common
// ancestor.
type SourceConflictError struct {
	Name           string
	ExistingSource string
	NewSource      string
}

func (e *SourceConflictError) Error() string {
	return fmt.Sprintf("%s: conflicting sources %q and %q share no common ancestor",
		e.Name, e.ExistingSource, e.NewSource)
}
