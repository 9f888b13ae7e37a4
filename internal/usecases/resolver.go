package usecases

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/relmate/relmate/internal/domain"
)

// Logger defines the logging interface required by the use cases.
// This abstracts the logger dependency to avoid coupling to a specific
// implementation.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// VersionResolver computes the next version marker for a scope from an
// increment request. It performs no monotonicity check and no mutation;
// its only side effects are backend read queries for Auto requests.
type VersionResolver struct {
	backend  domain.Backend
	parser   domain.CommitParser
	settings *domain.Settings
	logger   Logger
}

// NewVersionResolver creates a VersionResolver with the given
// collaborators. The settings supply the package directory layout that
// scopes package release windows.
func NewVersionResolver(backend domain.Backend, parser domain.CommitParser, settings *domain.Settings, log Logger) *VersionResolver {
	return &VersionResolver{
		backend:  backend,
		parser:   parser,
		settings: settings,
		logger:   log,
	}
}

// Resolve computes the candidate next marker for current under the given
// request. Arithmetic bumps clear pre-release/build metadata and the
// backend anchor; manual bumps keep whatever the operator wrote.
// Auto resolution propagates ErrNoQualifyingCommit unchanged.
func (r *VersionResolver) Resolve(
	ctx context.Context,
	current domain.VersionMarker,
	request domain.IncrementRequest,
) (domain.VersionMarker, error) {
	switch request.Kind {
	case domain.IncrementMajor:
		return current.BumpMajor(), nil
	case domain.IncrementMinor:
		return current.BumpMinor(), nil
	case domain.IncrementPatch:
		return current.BumpPatch(), nil
	case domain.IncrementManual:
		version, err := semver.StrictNewVersion(request.Version)
		if err != nil {
			return domain.VersionMarker{}, fmt.Errorf("%w: %q: %w", domain.ErrInvalidVersion, request.Version, err)
		}
		return current.WithVersion(version), nil
	default:
		return r.resolveAuto(ctx, current)
	}
}

// resolveAuto determines the commit window for the scope, classifies the
// conforming commits in it, and applies the resulting decision as an
// arithmetic bump.
func (r *VersionResolver) resolveAuto(
	ctx context.Context,
	current domain.VersionMarker,
) (domain.VersionMarker, error) {
	commits, err := r.ClassifiedWindow(ctx, current)
	if err != nil {
		return domain.VersionMarker{}, err
	}

	decision, err := DecideBump(current.Version.Major(), commits)
	if err != nil {
		return domain.VersionMarker{}, err
	}

	r.logger.Info(ctx, "resolved increment from commit history", map[string]interface{}{
		"package":  current.Package,
		"current":  current.Version.String(),
		"decision": decision.Request().Kind.String(),
		"commits":  len(commits),
	})

	return r.Resolve(ctx, current, decision.Request())
}

// Window returns the commit range boundaries anchored at the current
// marker: its tagged commit when one exists, otherwise the beginning of
// history, through to HEAD.
func (r *VersionResolver) Window(
	ctx context.Context,
	current domain.VersionMarker,
) (from, to string, err error) {
	to, err = r.backend.HeadCommitID(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	// A baseline marker has no anchor: the window covers all of history,
	// first commit included.
	return current.BackendID, to, nil
}

// RawWindow fetches the raw commits of the marker's release window with
// merge commits dropped, newest first. For a package marker the window
// is restricted to commits touching the package's directory.
func (r *VersionResolver) RawWindow(
	ctx context.Context,
	current domain.VersionMarker,
) ([]domain.RawCommit, error) {
	from, to, err := r.Window(ctx, current)
	if err != nil {
		return nil, err
	}

	commits, err := r.backend.CommitRange(ctx, from, to, r.scopePaths(current.Package)...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch commit range: %w", err)
	}

	filtered := make([]domain.RawCommit, 0, len(commits))
	for _, commit := range commits {
		if commit.IsMerge {
			continue
		}
		filtered = append(filtered, commit)
	}
	return filtered, nil
}

// scopePaths returns the directory filter for a scope's release window.
// Repository-wide markers and packages without a configured path see the
// unrestricted window.
func (r *VersionResolver) scopePaths(pkg string) []string {
	if pkg == "" || r.settings == nil {
		return nil
	}
	settings, ok := r.settings.Packages[pkg]
	if !ok || settings.Path == "" {
		return nil
	}
	return []string{settings.Path}
}

// ClassifiedWindow fetches the marker's release window and classifies the
// conforming commits in it. Non-conforming commits are skipped with a
// debug log rather than failing the resolution.
func (r *VersionResolver) ClassifiedWindow(
	ctx context.Context,
	current domain.VersionMarker,
) ([]domain.ClassifiedCommit, error) {
	raw, err := r.RawWindow(ctx, current)
	if err != nil {
		return nil, err
	}

	classified := make([]domain.ClassifiedCommit, 0, len(raw))
	for _, commit := range raw {
		parsed, err := r.parser.Parse(commit)
		if err != nil {
			r.logger.Debug(ctx, "skipping non-conforming commit", map[string]interface{}{
				"commit":  commit.ID,
				"summary": commit.Summary,
			})
			continue
		}
		classified = append(classified, parsed)
	}
	return classified, nil
}
