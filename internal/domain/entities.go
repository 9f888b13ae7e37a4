// Package domain defines the core business entities and interfaces for relmate.
package domain

import (
	"sort"

	"github.com/Masterminds/semver/v3"
)

// CommitKind classifies a parsed commit by its release impact.
type CommitKind int

const (
	// CommitOther is any conforming commit that carries no bump signal
	// (chore, docs, refactor, ...).
	CommitOther CommitKind = iota

	// CommitFeature is a commit introducing new functionality (feat).
	CommitFeature

	// CommitBugFix is a commit fixing existing behavior (fix).
	CommitBugFix

	// CommitBreaking is a commit explicitly flagged as introducing an
	// incompatible change, regardless of its commit type.
	CommitBreaking
)

// String returns the human-facing name of the commit kind.
func (k CommitKind) String() string {
	switch k {
	case CommitFeature:
		return "feature"
	case CommitBugFix:
		return "bug fix"
	case CommitBreaking:
		return "breaking change"
	default:
		return "other"
	}
}

// ClassifiedCommit is a commit whose message has been parsed by the
// conventional-commit parser collaborator. It is consumed read-only by
// the classifier and resolver.
type ClassifiedCommit struct {
	// Kind is the release impact of the commit.
	Kind CommitKind

	// Scope is the optional conventional-commit scope, empty if absent.
	Scope string

	// Summary is the raw one-line commit summary.
	Summary string
}

// RawCommit is a commit as returned by the version-control backend,
// before any conventional-commit parsing.
type RawCommit struct {
	// ID is the backend commit identifier (full hash).
	ID string

	// Summary is the first line of the commit message.
	Summary string

	// Message is the full commit message including body and footers.
	Message string

	// IsMerge indicates the commit has more than one parent.
	IsMerge bool
}

// IncrementKind enumerates the closed set of version increment requests.
type IncrementKind int

const (
	// IncrementAuto resolves the increment from the commit history.
	IncrementAuto IncrementKind = iota

	// IncrementMajor bumps the major version.
	IncrementMajor

	// IncrementMinor bumps the minor version.
	IncrementMinor

	// IncrementPatch bumps the patch version.
	IncrementPatch

	// IncrementManual sets an explicit version.
	IncrementManual
)

// String returns the request kind name as used in logs and errors.
func (k IncrementKind) String() string {
	switch k {
	case IncrementMajor:
		return "major"
	case IncrementMinor:
		return "minor"
	case IncrementPatch:
		return "patch"
	case IncrementManual:
		return "manual"
	default:
		return "auto"
	}
}

// IncrementRequest drives which version resolution strategy runs.
// Version is only meaningful for IncrementManual.
type IncrementRequest struct {
	Kind    IncrementKind
	Version string
}

// AutoIncrement requests resolution from the commit history.
func AutoIncrement() IncrementRequest { return IncrementRequest{Kind: IncrementAuto} }

// MajorIncrement requests an arithmetic major bump.
func MajorIncrement() IncrementRequest { return IncrementRequest{Kind: IncrementMajor} }

// MinorIncrement requests an arithmetic minor bump.
func MinorIncrement() IncrementRequest { return IncrementRequest{Kind: IncrementMinor} }

// PatchIncrement requests an arithmetic patch bump.
func PatchIncrement() IncrementRequest { return IncrementRequest{Kind: IncrementPatch} }

// ManualIncrement requests an explicit version.
func ManualIncrement(version string) IncrementRequest {
	return IncrementRequest{Kind: IncrementManual, Version: version}
}

// BumpDecision is the outcome of automatic resolution. It is never Auto
// or Manual; those are request inputs, not outcomes.
type BumpDecision int

const (
	// BumpMajor decides a major bump.
	BumpMajor BumpDecision = iota

	// BumpMinor decides a minor bump.
	BumpMinor

	// BumpPatch decides a patch bump.
	BumpPatch
)

// Request converts the decision into the equivalent explicit increment
// request, applied as if the caller had asked for it directly.
func (d BumpDecision) Request() IncrementRequest {
	switch d {
	case BumpMajor:
		return MajorIncrement()
	case BumpMinor:
		return MinorIncrement()
	default:
		return PatchIncrement()
	}
}

// VersionMarker represents a release point: a semantic version, optionally
// scoped to a package, optionally anchored to a backend commit.
// Markers are immutable; bump operations return new values.
type VersionMarker struct {
	// Version is the semantic version of the release point.
	Version *semver.Version

	// Package is the sub-package the marker belongs to, empty for a
	// repository-wide marker.
	Package string

	// BackendID is the commit the marker is anchored to. Empty until the
	// marker is persisted as a version-control tag; cleared whenever a
	// marker is derived from another.
	BackendID string
}

// NewMarker creates a marker for the given version and package scope.
func NewMarker(version *semver.Version, pkg string) VersionMarker {
	return VersionMarker{Version: version, Package: pkg}
}

// BaselineMarker is the implicit 0.0.0 marker used when a scope has no
// release point yet.
func BaselineMarker(pkg string) VersionMarker {
	return VersionMarker{Version: semver.New(0, 0, 0, "", ""), Package: pkg}
}

// IsBaseline reports whether the marker is the implicit 0.0.0 baseline
// rather than a persisted release point.
func (m VersionMarker) IsBaseline() bool {
	return m.BackendID == "" && m.Version.Equal(semver.New(0, 0, 0, "", ""))
}

// BumpMajor returns a derived marker with the major version incremented,
// lower fields zeroed, and pre-release/build metadata cleared.
func (m VersionMarker) BumpMajor() VersionMarker {
	return VersionMarker{
		Version: semver.New(m.Version.Major()+1, 0, 0, "", ""),
		Package: m.Package,
	}
}

// BumpMinor returns a derived marker with the minor version incremented,
// the patch zeroed, and pre-release/build metadata cleared.
func (m VersionMarker) BumpMinor() VersionMarker {
	return VersionMarker{
		Version: semver.New(m.Version.Major(), m.Version.Minor()+1, 0, "", ""),
		Package: m.Package,
	}
}

// BumpPatch returns a derived marker with the patch version incremented
// and pre-release/build metadata cleared.
func (m VersionMarker) BumpPatch() VersionMarker {
	return VersionMarker{
		Version: semver.New(m.Version.Major(), m.Version.Minor(), m.Version.Patch()+1, "", ""),
		Package: m.Package,
	}
}

// WithVersion returns a derived marker carrying the given version.
// The package scope is preserved and the backend anchor cleared: a
// derived marker is not yet anchored to a commit.
func (m VersionMarker) WithVersion(version *semver.Version) VersionMarker {
	return VersionMarker{Version: version, Package: m.Package}
}

// Anchored returns a copy of the marker anchored to the given commit.
func (m VersionMarker) Anchored(commitID string) VersionMarker {
	return VersionMarker{Version: m.Version, Package: m.Package, BackendID: commitID}
}

// DisplayTag is the human-facing tag string for the marker: the version
// prefixed with the configured tag prefix, and for package markers
// additionally prefixed with the package name.
func (m VersionMarker) DisplayTag(prefix string) string {
	if m.Package != "" {
		return m.Package + "-" + prefix + m.Version.String()
	}
	return prefix + m.Version.String()
}

// HookVersion is a read-only snapshot of a marker passed into hook
// parameterization.
type HookVersion struct {
	Marker     VersionMarker
	DisplayTag string
}

// PackageBumpRecord accumulates a package's resolved release during the
// monorepo staging phase, before any commit or tag exists.
type PackageBumpRecord struct {
	Package  string
	Previous *HookVersion
	Next     HookVersion
	Marker   VersionMarker
}

// HookKind identifies a lifecycle hook point.
type HookKind int

const (
	// PreBumpHook runs before the version-bump commit is created.
	PreBumpHook HookKind = iota

	// PostBumpHook runs after the version marker has been persisted.
	PostBumpHook
)

// String returns the configuration-facing name of the hook kind.
func (k HookKind) String() string {
	if k == PostBumpHook {
		return "post-bump"
	}
	return "pre-bump"
}

// HookScope selects which hook source applies: global when Package is
// empty, package-scoped otherwise, optionally narrowed to a named profile.
type HookScope struct {
	Package string
	Profile string
}

// HookSet holds the ordered hook command templates for both lifecycle
// points of one configuration source.
type HookSet struct {
	PreBump  []string
	PostBump []string
}

// ForKind returns the templates registered for the given hook kind.
func (s HookSet) ForKind(kind HookKind) []string {
	if kind == PostBumpHook {
		return s.PostBump
	}
	return s.PreBump
}

// PackageSettings configures one independently versioned sub-package.
type PackageSettings struct {
	// Path is the package directory relative to the repository root.
	Path string

	// ChangelogPath overrides the changelog location for the package.
	// Empty means <Path>/CHANGELOG.md.
	ChangelogPath string

	// Hooks are the package's default hooks.
	Hooks HookSet

	// Profiles are the package's named hook profiles.
	Profiles map[string]HookSet
}

// Settings is the explicit configuration object constructed once at
// process start and passed into the orchestrator and hook pipeline.
type Settings struct {
	// TagPrefix is prepended to version numbers in tag names (e.g. "v").
	TagPrefix string

	// SignCommits enables cryptographic signing of release commits.
	SignCommits bool

	// SignTags enables cryptographic signing of release tags.
	SignTags bool

	// BranchWhitelist restricts bumps to branches matching any of the
	// glob patterns. Empty means no restriction.
	BranchWhitelist []string

	// ChangelogPath is the repository-wide changelog location.
	ChangelogPath string

	// Hooks are the global default hooks.
	Hooks HookSet

	// Profiles are the global named hook profiles.
	Profiles map[string]HookSet

	// Packages configures monorepo mode when non-empty.
	Packages map[string]PackageSettings
}

// PackageNames returns the configured package names in deterministic
// (sorted) order.
func (s *Settings) PackageNames() []string {
	names := make([]string, 0, len(s.Packages))
	for name := range s.Packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PackageChangelogPath returns the changelog location for a package,
// falling back to CHANGELOG.md inside the package directory.
func (s *Settings) PackageChangelogPath(name string) string {
	pkg, ok := s.Packages[name]
	if !ok {
		return s.ChangelogPath
	}
	if pkg.ChangelogPath != "" {
		return pkg.ChangelogPath
	}
	if pkg.Path != "" {
		return pkg.Path + "/CHANGELOG.md"
	}
	return "CHANGELOG.md"
}
