package domain

import (
	"errors"
	"fmt"
)

// Domain errors for version resolution and the release workflow.
var (
	// ErrRepositoryNotFound indicates the specified path is not a valid Git repository.
	ErrRepositoryNotFound = errors.New("git repository not found at specified path")

	// ErrNoQualifyingCommit indicates automatic resolution found no commit
	// justifying a bump. Recoverable by choosing an explicit level.
	ErrNoQualifyingCommit = errors.New("no qualifying commit found in release window")

	// ErrInvalidVersion indicates a manual version string could not be
	// parsed as a semantic version.
	ErrInvalidVersion = errors.New("invalid semantic version")

	// ErrNonMonotonicVersion indicates the candidate version is not
	// strictly greater than the current one. Always fatal, no mutation.
	ErrNonMonotonicVersion = errors.New("next version must be strictly greater than current version")

	// ErrDirtyWorkingTree indicates the working tree has unstaged or
	// uncommitted changes; the bump refuses to start.
	ErrDirtyWorkingTree = errors.New("working tree has uncommitted changes")

	// ErrBranchNotAllowed indicates the current branch matches none of the
	// configured allow-list patterns.
	ErrBranchNotAllowed = errors.New("current branch is not in the configured allow-list")

	// ErrNoMarker indicates the requested scope has no release point yet.
	// The orchestrator recovers by falling back to the 0.0.0 baseline.
	ErrNoMarker = errors.New("no version marker found")

	// ErrNotConventional indicates a commit message does not follow the
	// conventional-commit format. Such commits are skipped by resolution.
	ErrNotConventional = errors.New("commit message does not follow the conventional format")
)

// HookExecutionError is returned when a lifecycle hook exits non-zero or
// fails to spawn. ExitStatus is -1 on spawn failure.
type HookExecutionError struct {
	Command    string
	ExitStatus int
	Err        error
}

func (e *HookExecutionError) Error() string {
	return fmt.Sprintf("hook %q failed with exit status %d", e.Command, e.ExitStatus)
}

func (e *HookExecutionError) Unwrap() error { return e.Err }

// UnresolvedPlaceholderError is returned when a hook template references a
// placeholder that has no value for the given scope.
type UnresolvedPlaceholderError struct {
	Placeholder string
	Command     string
}

func (e *UnresolvedPlaceholderError) Error() string {
	return fmt.Sprintf("hook %q references unresolved placeholder {{%s}}", e.Command, e.Placeholder)
}

// StashReference identifies backend-preserved work from an aborted release.
type StashReference string

// AbortedError is the distinguished "aborted, stashed" result produced by
// the rollback path. The staged changes of the failed release are
// preserved under Stash; the process boundary maps this to a non-zero
// exit code.
type AbortedError struct {
	// Cause is the failure that triggered the rollback.
	Cause error

	// Marker is the candidate release marker that was being produced.
	Marker VersionMarker

	// DisplayTag is the human-facing tag of the candidate marker.
	DisplayTag string

	// Stash references the preserved staged changes, empty if stashing
	// itself failed.
	Stash StashReference
}

func (e *AbortedError) Error() string {
	if e.Stash != "" {
		return fmt.Sprintf("bump to %s aborted: %v (staged changes preserved at %s)",
			e.DisplayTag, e.Cause, e.Stash)
	}
	return fmt.Sprintf("bump to %s aborted: %v", e.DisplayTag, e.Cause)
}

func (e *AbortedError) Unwrap() error { return e.Cause }
