// Package git provides the version-control backend adapter for local Git
// repositories. It implements the domain.Backend interface using go-git/v5.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/relmate/relmate/internal/domain"
)

// stashRefPrefix is the namespace for references preserving the staged
// work of aborted releases.
const stashRefPrefix = "refs/relmate/stash/"

// Fallback identity when the repository has no user configuration.
const (
	defaultCommitterName  = "relmate"
	defaultCommitterEmail = "relmate@localhost"
)

// Logger defines the logging interface for the git adapter.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// Options configures the backend adapter.
type Options struct {
	// TagPrefix is the configured tag prefix (e.g. "v") used when parsing
	// and formatting version tags.
	TagPrefix string

	// SigningKeyPath is an optional path to an armored PGP keyring used
	// to sign commits and tags when signing is requested.
	SigningKeyPath string
}

// GoGitBackend implements domain.Backend using go-git/v5.
type GoGitBackend struct {
	repo      *git.Repository
	path      string
	tagPrefix string
	name      string
	email     string
	signKey   *openpgp.Entity
	logger    Logger
}

// NewGoGitBackend opens the repository at path. The committer identity is
// taken from the repository's git configuration, falling back to a fixed
// default when none is set.
// Returns domain.ErrRepositoryNotFound if the path is not a Git repository.
func NewGoGitBackend(path string, opts Options, log Logger) (*GoGitBackend, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRepositoryNotFound, path)
	}

	backend := &GoGitBackend{
		repo:      repo,
		path:      path,
		tagPrefix: opts.TagPrefix,
		name:      defaultCommitterName,
		email:     defaultCommitterEmail,
		logger:    log,
	}

	if cfg, err := repo.ConfigScoped(gitconfig.SystemScope); err == nil {
		if cfg.User.Name != "" {
			backend.name = cfg.User.Name
		}
		if cfg.User.Email != "" {
			backend.email = cfg.User.Email
		}
	}

	if opts.SigningKeyPath != "" {
		key, err := loadSigningKey(opts.SigningKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load signing key: %w", err)
		}
		backend.signKey = key
	}

	return backend, nil
}

// loadSigningKey reads the first entity of an armored PGP keyring.
func loadSigningKey(path string) (*openpgp.Entity, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	entities, err := openpgp.ReadArmoredKeyRing(file)
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, errors.New("keyring contains no keys")
	}
	return entities[0], nil
}

// LatestMarker returns the highest semantic version tag for the scope.
// Package tags are named <package>-<prefix><version>; repository-wide
// tags are named <prefix><version>. Tag names that do not parse as a
// semantic version for the scope are skipped.
func (b *GoGitBackend) LatestMarker(ctx context.Context, pkg string) (domain.VersionMarker, error) {
	tags, err := b.repo.Tags()
	if err != nil {
		return domain.VersionMarker{}, fmt.Errorf("failed to list tags: %w", err)
	}

	var best *domain.VersionMarker
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		version, ok := b.parseTagName(ref.Name().Short(), pkg)
		if !ok {
			return nil
		}

		commitID, err := b.tagCommitID(ref)
		if err != nil {
			b.logger.Warn(ctx, "skipping unresolvable tag", map[string]interface{}{
				"tag": ref.Name().Short(),
			})
			return nil
		}

		if best == nil || version.GreaterThan(best.Version) {
			marker := domain.VersionMarker{Version: version, Package: pkg, BackendID: commitID}
			best = &marker
		}
		return nil
	})
	if err != nil {
		return domain.VersionMarker{}, fmt.Errorf("failed to iterate tags: %w", err)
	}

	if best == nil {
		if pkg != "" {
			return domain.VersionMarker{}, fmt.Errorf("%w for package %s", domain.ErrNoMarker, pkg)
		}
		return domain.VersionMarker{}, domain.ErrNoMarker
	}
	return *best, nil
}

// parseTagName extracts the semantic version from a tag name for the
// given scope, reporting false when the name does not belong to it.
func (b *GoGitBackend) parseTagName(name, pkg string) (*semver.Version, bool) {
	if pkg != "" {
		rest, ok := strings.CutPrefix(name, pkg+"-")
		if !ok {
			return nil, false
		}
		name = rest
	}

	rest, ok := strings.CutPrefix(name, b.tagPrefix)
	if !ok {
		return nil, false
	}

	version, err := semver.StrictNewVersion(rest)
	if err != nil {
		return nil, false
	}
	return version, true
}

// tagCommitID resolves the commit a tag reference points to, following
// annotated tag objects to their target.
func (b *GoGitBackend) tagCommitID(ref *plumbing.Reference) (string, error) {
	tagObj, err := b.repo.TagObject(ref.Hash())
	switch {
	case err == nil:
		return tagObj.Target.String(), nil
	case errors.Is(err, plumbing.ErrObjectNotFound):
		// Lightweight tag: the reference points at the commit directly.
		return ref.Hash().String(), nil
	default:
		return "", err
	}
}

// CommitRange returns the commits in (from, to], newest first, walking
// ancestry by commit time. An empty from includes the whole history down
// to the first commit. With paths given, commits that change no file
// under any of those directories are dropped from the result; the from
// boundary still terminates the walk either way.
func (b *GoGitBackend) CommitRange(ctx context.Context, from, to string, paths ...string) ([]domain.RawCommit, error) {
	head, err := b.repo.CommitObject(plumbing.NewHash(to))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve commit %s: %w", to, err)
	}

	var commits []domain.RawCommit
	iter := object.NewCommitIterCTime(head, nil, nil)
	err = iter.ForEach(func(c *object.Commit) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if from != "" && c.Hash.String() == from {
			return storer.ErrStop
		}
		touches, err := commitTouches(c, paths)
		if err != nil {
			return err
		}
		if !touches {
			return nil
		}
		commits = append(commits, rawCommit(c))
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, fmt.Errorf("failed to walk commit history: %w", err)
	}

	return commits, nil
}

// commitTouches reports whether the commit changes any file under one of
// the given directories. An empty path list matches every commit.
func commitTouches(c *object.Commit, paths []string) (bool, error) {
	if len(paths) == 0 {
		return true, nil
	}

	stats, err := c.Stats()
	if err != nil {
		return false, fmt.Errorf("failed to diff commit %s: %w", c.Hash, err)
	}
	for _, stat := range stats {
		for _, path := range paths {
			if stat.Name == path || strings.HasPrefix(stat.Name, path+"/") {
				return true, nil
			}
		}
	}
	return false, nil
}

func rawCommit(c *object.Commit) domain.RawCommit {
	summary, _, _ := strings.Cut(c.Message, "\n")
	return domain.RawCommit{
		ID:      c.Hash.String(),
		Summary: strings.TrimSpace(summary),
		Message: c.Message,
		IsMerge: c.NumParents() > 1,
	}
}

// WorkingTreeStatus reports the dirty paths of the working tree.
func (b *GoGitBackend) WorkingTreeStatus(ctx context.Context) (domain.TreeStatus, error) {
	worktree, err := b.repo.Worktree()
	if err != nil {
		return domain.TreeStatus{}, fmt.Errorf("failed to get worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return domain.TreeStatus{}, fmt.Errorf("failed to get worktree status: %w", err)
	}

	paths := make([]string, 0, len(status))
	for path := range status {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	return domain.TreeStatus{Clean: status.IsClean(), Paths: paths}, nil
}

// CurrentBranch returns the short branch name, or an empty string when
// HEAD is detached.
func (b *GoGitBackend) CurrentBranch(ctx context.Context) (string, error) {
	head, err := b.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", nil
	}
	return head.Name().Short(), nil
}

// StageAll stages every change in the working tree.
func (b *GoGitBackend) StageAll(ctx context.Context) error {
	worktree, err := b.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}
	return nil
}

// CreateCommit commits the staged changes. When sign is requested but no
// signing key is configured, the commit is created unsigned with a warning.
func (b *GoGitBackend) CreateCommit(ctx context.Context, message string, sign bool) (string, error) {
	worktree, err := b.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	opts := &git.CommitOptions{Author: b.signature()}
	if sign {
		if b.signKey != nil {
			opts.SignKey = b.signKey
		} else {
			b.logger.Warn(ctx, "commit signing requested but no signing key configured", nil)
		}
	}

	hash, err := worktree.Commit(message, opts)
	if err != nil {
		return "", fmt.Errorf("failed to create commit: %w", err)
	}

	b.logger.Debug(ctx, "created commit", map[string]interface{}{
		"commit":  hash.String(),
		"message": message,
	})
	return hash.String(), nil
}

// CreateTag persists the marker as a tag named displayTag at the marker's
// anchor commit. Signed tags are annotated; unsigned tags are lightweight.
func (b *GoGitBackend) CreateTag(ctx context.Context, marker domain.VersionMarker, displayTag string, sign bool) error {
	if marker.BackendID == "" {
		return errors.New("marker is not anchored to a commit")
	}

	refName := plumbing.NewTagReferenceName(displayTag)
	if _, err := b.repo.Reference(refName, true); err == nil {
		return fmt.Errorf("tag %s already exists", displayTag)
	}

	hash := plumbing.NewHash(marker.BackendID)
	if sign && b.signKey != nil {
		_, err := b.repo.CreateTag(displayTag, hash, &git.CreateTagOptions{
			Tagger:  b.signature(),
			Message: displayTag,
			SignKey: b.signKey,
		})
		if err != nil {
			return fmt.Errorf("failed to create signed tag: %w", err)
		}
		return nil
	}

	if sign {
		b.logger.Warn(ctx, "tag signing requested but no signing key configured", nil)
	}
	if err := b.repo.Storer.SetReference(plumbing.NewHashReference(refName, hash)); err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

// HeadCommitID returns the current HEAD commit identifier.
func (b *GoGitBackend) HeadCommitID(ctx context.Context) (string, error) {
	head, err := b.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// Stash preserves the staged changes as a commit pinned under
// refs/relmate/stash/<displayTag> and hard-resets the branch back, leaving
// the working tree clean at the previous HEAD. The pinned commit lets an
// operator recover the aborted release's work with a cherry-pick.
func (b *GoGitBackend) Stash(ctx context.Context, displayTag string) (domain.StashReference, error) {
	head, err := b.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	previous := head.Hash()

	worktree, err := b.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	hash, err := worktree.Commit("relmate: stash aborted release "+displayTag, &git.CommitOptions{
		Author:            b.signature(),
		AllowEmptyCommits: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create stash commit: %w", err)
	}

	refName := plumbing.ReferenceName(stashRefPrefix + displayTag)
	if err := b.repo.Storer.SetReference(plumbing.NewHashReference(refName, hash)); err != nil {
		return "", fmt.Errorf("failed to pin stash reference: %w", err)
	}

	if err := worktree.Reset(&git.ResetOptions{Commit: previous, Mode: git.HardReset}); err != nil {
		return "", fmt.Errorf("failed to reset after stash: %w", err)
	}

	b.logger.Debug(ctx, "stashed aborted release", map[string]interface{}{
		"ref":    refName.String(),
		"commit": hash.String(),
	})
	return domain.StashReference(refName.String()), nil
}

func (b *GoGitBackend) signature() *object.Signature {
	return &object.Signature{Name: b.name, Email: b.email, When: time.Now()}
}

// Close releases any resources held by the repository.
// For go-git, this is a no-op as the repository doesn't hold persistent resources.
func (b *GoGitBackend) Close() error {
	return nil
}
