package usecases

import (
	"context"
	"strings"

	"github.com/relmate/relmate/internal/domain"
)

// mockLogger implements the Logger interface for testing.
type mockLogger struct{}

func (m *mockLogger) Info(_ context.Context, _ string, _ map[string]interface{})           {}
func (m *mockLogger) Debug(_ context.Context, _ string, _ map[string]interface{})          {}
func (m *mockLogger) Warn(_ context.Context, _ string, _ map[string]interface{})           {}
func (m *mockLogger) Error(_ context.Context, _ string, _ error, _ map[string]interface{}) {}

// commitCall records a CreateCommit invocation.
type commitCall struct {
	message string
	sign    bool
}

// tagCall records a CreateTag invocation.
type tagCall struct {
	marker     domain.VersionMarker
	displayTag string
	sign       bool
}

// rangeCall records a CommitRange invocation.
type rangeCall struct {
	from  string
	to    string
	paths []string
}

// mockBackend implements domain.Backend for testing, recording every
// mutating call. commitFiles maps commit IDs to the files they touch and
// drives path filtering when a CommitRange call carries paths.
type mockBackend struct {
	markers       map[string]domain.VersionMarker
	markersErr    error
	commits       []domain.RawCommit
	commitsByFrom map[string][]domain.RawCommit
	commitFiles   map[string][]string
	commitsErr    error
	status        domain.TreeStatus
	statusErr     error
	branch        string
	head          string
	commitID      string
	commitErr     error
	tagErr        error
	stashRef      domain.StashReference
	stashErr      error

	stageCalls  int
	commitCalls []commitCall
	tagCalls    []tagCall
	stashCalls  []string
	rangeCalls  []rangeCall
}

func (m *mockBackend) LatestMarker(_ context.Context, pkg string) (domain.VersionMarker, error) {
	if m.markersErr != nil {
		return domain.VersionMarker{}, m.markersErr
	}
	marker, ok := m.markers[pkg]
	if !ok {
		return domain.VersionMarker{}, domain.ErrNoMarker
	}
	return marker, nil
}

func (m *mockBackend) CommitRange(_ context.Context, from, to string, paths ...string) ([]domain.RawCommit, error) {
	m.rangeCalls = append(m.rangeCalls, rangeCall{from: from, to: to, paths: paths})
	if m.commitsErr != nil {
		return nil, m.commitsErr
	}
	commits := m.commits
	if m.commitsByFrom != nil {
		commits = m.commitsByFrom[from]
	}
	if len(paths) == 0 || m.commitFiles == nil {
		return commits, nil
	}

	var scoped []domain.RawCommit
	for _, commit := range commits {
		for _, file := range m.commitFiles[commit.ID] {
			if underAnyPath(file, paths) {
				scoped = append(scoped, commit)
				break
			}
		}
	}
	return scoped, nil
}

func underAnyPath(file string, paths []string) bool {
	for _, path := range paths {
		if file == path || strings.HasPrefix(file, path+"/") {
			return true
		}
	}
	return false
}

func (m *mockBackend) WorkingTreeStatus(_ context.Context) (domain.TreeStatus, error) {
	if m.statusErr != nil {
		return domain.TreeStatus{}, m.statusErr
	}
	return m.status, nil
}

func (m *mockBackend) CurrentBranch(_ context.Context) (string, error) {
	return m.branch, nil
}

func (m *mockBackend) StageAll(_ context.Context) error {
	m.stageCalls++
	return nil
}

func (m *mockBackend) CreateCommit(_ context.Context, message string, sign bool) (string, error) {
	if m.commitErr != nil {
		return "", m.commitErr
	}
	m.commitCalls = append(m.commitCalls, commitCall{message: message, sign: sign})
	return m.commitID, nil
}

func (m *mockBackend) CreateTag(_ context.Context, marker domain.VersionMarker, displayTag string, sign bool) error {
	if m.tagErr != nil {
		return m.tagErr
	}
	m.tagCalls = append(m.tagCalls, tagCall{marker: marker, displayTag: displayTag, sign: sign})
	return nil
}

func (m *mockBackend) HeadCommitID(_ context.Context) (string, error) {
	return m.head, nil
}

func (m *mockBackend) Stash(_ context.Context, displayTag string) (domain.StashReference, error) {
	m.stashCalls = append(m.stashCalls, displayTag)
	if m.stashErr != nil {
		return "", m.stashErr
	}
	return m.stashRef, nil
}

// stubParser classifies commits by their summary prefix, mimicking the
// conventional parser without depending on the adapter.
type stubParser struct{}

func (stubParser) Parse(commit domain.RawCommit) (domain.ClassifiedCommit, error) {
	switch {
	case strings.HasPrefix(commit.Summary, "feat!:"):
		return domain.ClassifiedCommit{Kind: domain.CommitBreaking, Summary: commit.Summary}, nil
	case strings.HasPrefix(commit.Summary, "feat:"):
		return domain.ClassifiedCommit{Kind: domain.CommitFeature, Summary: commit.Summary}, nil
	case strings.HasPrefix(commit.Summary, "fix:"):
		return domain.ClassifiedCommit{Kind: domain.CommitBugFix, Summary: commit.Summary}, nil
	case strings.HasPrefix(commit.Summary, "chore:"):
		return domain.ClassifiedCommit{Kind: domain.CommitOther, Summary: commit.Summary}, nil
	default:
		return domain.ClassifiedCommit{}, domain.ErrNotConventional
	}
}

// hookCall records one pipeline invocation.
type hookCall struct {
	kind  domain.HookKind
	scope domain.HookScope
	next  string
}

// mockHookRunner implements HookRunner, optionally failing for a given
// kind and package.
type mockHookRunner struct {
	calls       []hookCall
	failKind    domain.HookKind
	failPackage string
	failErr     error
}

func (m *mockHookRunner) Run(
	_ context.Context,
	kind domain.HookKind,
	scope domain.HookScope,
	_ *domain.HookVersion,
	next domain.HookVersion,
) error {
	m.calls = append(m.calls, hookCall{kind: kind, scope: scope, next: next.DisplayTag})
	if m.failErr != nil && kind == m.failKind && scope.Package == m.failPackage {
		return m.failErr
	}
	return nil
}

// mockRenderer implements domain.ChangelogRenderer.
type mockRenderer struct {
	content []byte
	err     error
	calls   int
}

func (m *mockRenderer) Render(_ []domain.ClassifiedCommit, _ domain.HookVersion) ([]byte, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.content, nil
}

// mockTagWriter records dry-run output.
type mockTagWriter struct {
	tags []string
	err  error
}

func (m *mockTagWriter) WriteTag(tag string) error {
	if m.err != nil {
		return m.err
	}
	m.tags = append(m.tags, tag)
	return nil
}
