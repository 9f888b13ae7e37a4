package usecases

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ryanuber/go-glob"
	"github.com/spf13/afero"

	"github.com/relmate/relmate/internal/domain"
)

// HookRunner is the hook pipeline as consumed by the orchestrator.
type HookRunner interface {
	Run(
		ctx context.Context,
		kind domain.HookKind,
		scope domain.HookScope,
		previous *domain.HookVersion,
		next domain.HookVersion,
	) error
}

// ReleaseInput describes one requested bump for a single release unit:
// the whole repository, or one package when Package is set.
type ReleaseInput struct {
	// Request selects the resolution strategy.
	Request domain.IncrementRequest

	// PreRelease, when non-empty, is applied as the candidate's
	// pre-release identifier before the monotonic guard runs.
	PreRelease string

	// HookProfile selects a named hook profile.
	HookProfile string

	// DryRun prints the candidate display tag and performs no mutation.
	DryRun bool

	// Package scopes the bump to one configured package.
	Package string
}

// MonorepoInput describes an automatic bump of every configured package.
type MonorepoInput struct {
	PreRelease  string
	HookProfile string
	DryRun      bool
}

// ReleaseOrchestrator drives the guarded bump workflow: preflight checks,
// version resolution, the monotonic guard, changelog generation, the hook
// pipeline, and the commit/tag mutation, with a stash-backed rollback
// path for pre-bump hook failures.
type ReleaseOrchestrator struct {
	backend  domain.Backend
	resolver *VersionResolver
	hooks    HookRunner
	renderer domain.ChangelogRenderer
	settings *domain.Settings
	fs       afero.Fs
	output   domain.TagWriter
	logger   Logger
}

// NewReleaseOrchestrator creates an orchestrator over the given
// collaborators. The settings object is constructed once at process start
// and shared with the hook pipeline.
func NewReleaseOrchestrator(
	backend domain.Backend,
	resolver *VersionResolver,
	hookRunner HookRunner,
	renderer domain.ChangelogRenderer,
	settings *domain.Settings,
	fs afero.Fs,
	output domain.TagWriter,
	log Logger,
) *ReleaseOrchestrator {
	return &ReleaseOrchestrator{
		backend:  backend,
		resolver: resolver,
		hooks:    hookRunner,
		renderer: renderer,
		settings: settings,
		fs:       fs,
		output:   output,
		logger:   log,
	}
}

// Release executes the bump workflow for a single release unit.
// On a pre-bump hook failure the staged changes are stashed and a
// *domain.AbortedError is returned; the process boundary decides the exit
// code. A post-bump hook failure is reported but does not undo the
// completed release.
func (o *ReleaseOrchestrator) Release(ctx context.Context, in ReleaseInput) error {
	if err := o.preflight(ctx); err != nil {
		return err
	}

	unit, err := o.resolveUnit(ctx, in.Package, in.Request, in.PreRelease)
	if err != nil {
		return err
	}

	if in.DryRun {
		return o.output.WriteTag(unit.next.DisplayTag)
	}

	changelogPath := o.settings.ChangelogPath
	if in.Package != "" {
		changelogPath = o.settings.PackageChangelogPath(in.Package)
	}
	if err := o.writeChangelog(ctx, unit, changelogPath); err != nil {
		return err
	}

	scope := domain.HookScope{Package: in.Package, Profile: in.HookProfile}
	if err := o.hooks.Run(ctx, domain.PreBumpHook, scope, unit.previous, unit.next); err != nil {
		return o.rollback(ctx, unit, err)
	}

	commitID, err := o.commitRelease(ctx, "chore(version): "+unit.next.DisplayTag)
	if err != nil {
		return err
	}

	anchored := unit.marker.Anchored(commitID)
	if err := o.backend.CreateTag(ctx, anchored, unit.next.DisplayTag, o.settings.SignTags); err != nil {
		return fmt.Errorf("failed to create tag %s: %w", unit.next.DisplayTag, err)
	}

	if err := o.hooks.Run(ctx, domain.PostBumpHook, scope, unit.previous, unit.next); err != nil {
		return fmt.Errorf("version %s released but post-bump hooks failed: %w", unit.next.DisplayTag, err)
	}

	o.logBumped(ctx, unit)
	return nil
}

// ReleaseMonorepo executes the bump workflow for every configured package.
// Each package is resolved, checked, changelogged, pre-hooked, and staged
// independently; commit creation is deferred so that exactly one aggregate
// commit anchors every package tag. A pre-bump hook failure for any
// package aborts the whole operation before that commit exists.
func (o *ReleaseOrchestrator) ReleaseMonorepo(ctx context.Context, in MonorepoInput) error {
	if err := o.preflight(ctx); err != nil {
		return err
	}

	var records []domain.PackageBumpRecord
	qualified := 0
	for _, name := range o.settings.PackageNames() {
		unit, err := o.resolveUnit(ctx, name, domain.AutoIncrement(), in.PreRelease)
		if errors.Is(err, domain.ErrNoQualifyingCommit) {
			o.logger.Info(ctx, "no qualifying commit for package, skipping", map[string]interface{}{
				"package": name,
			})
			continue
		}
		if err != nil {
			return err
		}
		qualified++

		if in.DryRun {
			if err := o.output.WriteTag(unit.next.DisplayTag); err != nil {
				return err
			}
			continue
		}

		if err := o.writeChangelog(ctx, unit, o.settings.PackageChangelogPath(name)); err != nil {
			return err
		}

		scope := domain.HookScope{Package: name, Profile: in.HookProfile}
		if err := o.hooks.Run(ctx, domain.PreBumpHook, scope, unit.previous, unit.next); err != nil {
			return o.rollback(ctx, unit, err)
		}

		if err := o.backend.StageAll(ctx); err != nil {
			return fmt.Errorf("failed to stage changes for package %s: %w", name, err)
		}

		records = append(records, domain.PackageBumpRecord{
			Package:  name,
			Previous: unit.previous,
			Next:     unit.next,
			Marker:   unit.marker,
		})
	}

	// Dry run or not, an all-skipped bump is the same failure.
	if qualified == 0 {
		return fmt.Errorf("%w: no package has commits to release", domain.ErrNoQualifyingCommit)
	}
	if in.DryRun {
		return nil
	}

	commitID, err := o.backend.CreateCommit(ctx, "chore(version): bump packages", o.settings.SignCommits)
	if err != nil {
		return fmt.Errorf("failed to create version commit: %w", err)
	}

	for _, record := range records {
		anchored := record.Marker.Anchored(commitID)
		if err := o.backend.CreateTag(ctx, anchored, record.Next.DisplayTag, o.settings.SignTags); err != nil {
			return fmt.Errorf("failed to create tag %s: %w", record.Next.DisplayTag, err)
		}

		scope := domain.HookScope{Package: record.Package, Profile: in.HookProfile}
		if err := o.hooks.Run(ctx, domain.PostBumpHook, scope, record.Previous, record.Next); err != nil {
			return fmt.Errorf("package %s released but post-bump hooks failed: %w", record.Package, err)
		}

		o.logger.Info(ctx, "bumped package version", map[string]interface{}{
			"package":  record.Package,
			"previous": previousTag(record.Previous),
			"next":     record.Next.DisplayTag,
		})
	}
	return nil
}

// releaseUnit carries one scope's resolved state between workflow stages.
type releaseUnit struct {
	current  domain.VersionMarker
	marker   domain.VersionMarker
	previous *domain.HookVersion
	next     domain.HookVersion
}

// resolveUnit fetches the scope's current marker, resolves the candidate
// next marker, applies the optional pre-release identifier, and enforces
// the monotonic guard. The current marker is always fetched fresh here,
// in the same release-unit iteration the guard runs in.
func (o *ReleaseOrchestrator) resolveUnit(
	ctx context.Context,
	pkg string,
	request domain.IncrementRequest,
	preRelease string,
) (releaseUnit, error) {
	current, err := o.currentMarker(ctx, pkg)
	if err != nil {
		return releaseUnit{}, err
	}

	next, err := o.resolver.Resolve(ctx, current, request)
	if err != nil {
		return releaseUnit{}, err
	}

	if preRelease != "" {
		version, err := next.Version.SetPrerelease(preRelease)
		if err != nil {
			return releaseUnit{}, fmt.Errorf("%w: pre-release %q: %w", domain.ErrInvalidVersion, preRelease, err)
		}
		next = next.WithVersion(&version)
	}

	// The guard applies uniformly to every request kind, manual included.
	if !next.Version.GreaterThan(current.Version) {
		return releaseUnit{}, fmt.Errorf("%w: %s <= %s",
			domain.ErrNonMonotonicVersion, next.Version, current.Version)
	}

	unit := releaseUnit{
		current: current,
		marker:  next,
		next: domain.HookVersion{
			Marker:     next,
			DisplayTag: next.DisplayTag(o.settings.TagPrefix),
		},
	}
	if !current.IsBaseline() {
		unit.previous = &domain.HookVersion{
			Marker:     current,
			DisplayTag: current.DisplayTag(o.settings.TagPrefix),
		}
	}
	return unit, nil
}

// currentMarker returns the scope's latest marker, falling back to the
// implicit 0.0.0 baseline with a warning when none exists.
func (o *ReleaseOrchestrator) currentMarker(ctx context.Context, pkg string) (domain.VersionMarker, error) {
	current, err := o.backend.LatestMarker(ctx, pkg)
	if errors.Is(err, domain.ErrNoMarker) {
		o.logger.Warn(ctx, "no current version found, falling back to 0.0.0", map[string]interface{}{
			"package": pkg,
		})
		return domain.BaselineMarker(pkg), nil
	}
	if err != nil {
		return domain.VersionMarker{}, fmt.Errorf("failed to fetch current version: %w", err)
	}
	return current, nil
}

// preflight refuses to start when the working tree is dirty or the
// current branch is outside the configured allow-list. No side effects
// are performed on failure.
func (o *ReleaseOrchestrator) preflight(ctx context.Context) error {
	status, err := o.backend.WorkingTreeStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get working tree status: %w", err)
	}
	if !status.Clean {
		return fmt.Errorf("%w: %d dirty path(s), commit or stash them first",
			domain.ErrDirtyWorkingTree, len(status.Paths))
	}

	if len(o.settings.BranchWhitelist) == 0 {
		return nil
	}

	branch, err := o.backend.CurrentBranch(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current branch: %w", err)
	}
	if branch == "" {
		// Detached HEAD carries no branch name to match against.
		return nil
	}

	for _, pattern := range o.settings.BranchWhitelist {
		if glob.Glob(pattern, branch) {
			return nil
		}
	}
	return fmt.Errorf("%w: branch %q matches none of %v",
		domain.ErrBranchNotAllowed, branch, o.settings.BranchWhitelist)
}

// writeChangelog renders the release notes over the same commit window
// used for resolution and prepends them to the changelog file.
func (o *ReleaseOrchestrator) writeChangelog(ctx context.Context, unit releaseUnit, path string) error {
	commits, err := o.resolver.ClassifiedWindow(ctx, unit.current)
	if err != nil {
		return err
	}

	content, err := o.renderer.Render(commits, unit.next)
	if err != nil {
		return fmt.Errorf("failed to render changelog: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := o.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create changelog directory: %w", err)
		}
	}

	// A missing changelog is the first release; start from empty.
	existing, err := afero.ReadFile(o.fs, path)
	if err != nil {
		existing = nil
	}

	merged := make([]byte, 0, len(content)+len(existing)+1)
	merged = append(merged, content...)
	if len(existing) > 0 {
		merged = append(merged, '\n')
		merged = append(merged, existing...)
	}

	if err := afero.WriteFile(o.fs, path, merged, 0o644); err != nil {
		return fmt.Errorf("failed to write changelog %s: %w", path, err)
	}
	return nil
}

// commitRelease stages everything and creates the version-bump commit.
func (o *ReleaseOrchestrator) commitRelease(ctx context.Context, message string) (string, error) {
	if err := o.backend.StageAll(ctx); err != nil {
		return "", fmt.Errorf("failed to stage changes: %w", err)
	}
	commitID, err := o.backend.CreateCommit(ctx, message, o.settings.SignCommits)
	if err != nil {
		return "", fmt.Errorf("failed to create version commit: %w", err)
	}
	return commitID, nil
}

// rollback preserves the failed release's staged work under a backend
// stash reference and returns the distinguished aborted result. It is
// explicitly not a full undo: automatic cleanup is traded for
// operator-inspectable recovery.
func (o *ReleaseOrchestrator) rollback(ctx context.Context, unit releaseUnit, cause error) error {
	aborted := &domain.AbortedError{
		Cause:      cause,
		Marker:     unit.marker,
		DisplayTag: unit.next.DisplayTag,
	}

	if err := o.backend.StageAll(ctx); err != nil {
		o.logger.Error(ctx, "failed to stage changes for stash", err, nil)
		return aborted
	}
	stash, err := o.backend.Stash(ctx, unit.next.DisplayTag)
	if err != nil {
		o.logger.Error(ctx, "failed to stash aborted release", err, map[string]interface{}{
			"tag": unit.next.DisplayTag,
		})
		return aborted
	}

	aborted.Stash = stash
	return aborted
}

func (o *ReleaseOrchestrator) logBumped(ctx context.Context, unit releaseUnit) {
	o.logger.Info(ctx, "bumped version", map[string]interface{}{
		"previous": previousTag(unit.previous),
		"next":     unit.next.DisplayTag,
	})
}

func previousTag(previous *domain.HookVersion) string {
	if previous == nil {
		return "..."
	}
	return previous.DisplayTag
}
