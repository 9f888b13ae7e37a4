// Package domain defines the core business entities and interfaces for relmate.
// The external collaborators of the release engine (version-control
// backend, commit parser, changelog renderer) are consumed exclusively
// through the interfaces declared here.
package domain

import (
	"context"
)

// TreeStatus is the working-tree state reported by the backend.
type TreeStatus struct {
	// Clean is true when the working tree has no unstaged or uncommitted
	// changes.
	Clean bool

	// Paths lists the dirty paths, for diagnostics.
	Paths []string
}

// Backend provides the version-control operations the release engine
// depends on. All mutations go through this interface so the engine
// itself stays free of repository plumbing.
type Backend interface {
	// LatestMarker returns the highest version marker for the scope:
	// the latest package tag when pkg is non-empty, otherwise the latest
	// repository-wide tag. Returns ErrNoMarker when the scope has no tag.
	LatestMarker(ctx context.Context, pkg string) (VersionMarker, error)

	// CommitRange returns the commits in (from, to], newest first.
	// An empty from means the range starts at the repository's first
	// commit, inclusive. When paths are given, only commits changing a
	// file under one of those directories are included.
	CommitRange(ctx context.Context, from, to string, paths ...string) ([]RawCommit, error)

	// WorkingTreeStatus reports whether the working tree is clean.
	WorkingTreeStatus(ctx context.Context) (TreeStatus, error)

	// CurrentBranch returns the short name of the checked-out branch, or
	// an empty string if HEAD is detached.
	CurrentBranch(ctx context.Context) (string, error)

	// StageAll stages every change in the working tree.
	StageAll(ctx context.Context) error

	// CreateCommit commits the staged changes and returns the new commit
	// identifier. Signing is applied when sign is true and a signing key
	// is available.
	CreateCommit(ctx context.Context, message string, sign bool) (string, error)

	// CreateTag persists the marker as a tag named displayTag, anchored
	// to the marker's backend commit.
	CreateTag(ctx context.Context, marker VersionMarker, displayTag string, sign bool) error

	// HeadCommitID returns the identifier of the current HEAD commit.
	HeadCommitID(ctx context.Context) (string, error)

	// Stash preserves the staged changes under a reference derived from
	// displayTag and restores the working tree to HEAD. The returned
	// reference lets an operator recover the aborted release's work.
	Stash(ctx context.Context, displayTag string) (StashReference, error)
}

// CommitParser maps a raw backend commit to its conventional-commit
// classification. Non-conforming messages yield ErrNotConventional.
type CommitParser interface {
	Parse(commit RawCommit) (ClassifiedCommit, error)
}

// TagWriter writes candidate display tags to an output destination.
type TagWriter interface {
	// WriteTag writes the display tag to the output.
	WriteTag(tag string) error
}

// ChangelogRenderer renders the release notes for a commit window.
// The orchestrator consumes the content opaquely and writes it to the
// configured changelog path.
type ChangelogRenderer interface {
	Render(commits []ClassifiedCommit, release HookVersion) ([]byte, error)
}
