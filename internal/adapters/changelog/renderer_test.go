package changelog

import (
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relmate/relmate/internal/domain"
)

func fixedRenderer() *Renderer {
	r := NewRenderer()
	r.now = func() time.Time {
		return time.Date(2026, time.March, 14, 10, 30, 0, 0, time.UTC)
	}
	return r
}

func release(t *testing.T, tag string) domain.HookVersion {
	t.Helper()
	v, err := semver.StrictNewVersion("1.3.0")
	require.NoError(t, err)
	return domain.HookVersion{Marker: domain.NewMarker(v, ""), DisplayTag: tag}
}

func TestRenderer_Render(t *testing.T) {
	commits := []domain.ClassifiedCommit{
		{Kind: domain.CommitFeature, Scope: "export", Summary: "feat(export): add csv export"},
		{Kind: domain.CommitBugFix, Summary: "fix: handle empty input"},
		{Kind: domain.CommitBreaking, Summary: "feat!: change response shape"},
		{Kind: domain.CommitOther, Summary: "chore: bump dependencies"},
	}

	got, err := fixedRenderer().Render(commits, release(t, "v1.3.0"))

	require.NoError(t, err)
	want := `## v1.3.0 - 2026-03-14
#### Breaking changes
- feat!: change response shape
#### Features
- **(export)** feat(export): add csv export
#### Bug fixes
- fix: handle empty input
#### Miscellaneous
- chore: bump dependencies
`
	assert.Equal(t, want, string(got))
}

func TestRenderer_Render_OmitsEmptySections(t *testing.T) {
	commits := []domain.ClassifiedCommit{
		{Kind: domain.CommitBugFix, Summary: "fix: handle empty input"},
	}

	got, err := fixedRenderer().Render(commits, release(t, "v1.0.1"))

	require.NoError(t, err)
	want := `## v1.0.1 - 2026-03-14
#### Bug fixes
- fix: handle empty input
`
	assert.Equal(t, want, string(got))
	assert.NotContains(t, string(got), "Features")
}

func TestRenderer_Render_EmptyWindow(t *testing.T) {
	got, err := fixedRenderer().Render(nil, release(t, "billing-v2.0.0"))

	require.NoError(t, err)
	assert.Equal(t, "## billing-v2.0.0 - 2026-03-14\n", string(got))
}
