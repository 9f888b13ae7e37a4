package usecases

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relmate/relmate/internal/domain"
)

func TestDecideBump(t *testing.T) {
	tests := []struct {
		name         string
		currentMajor uint64
		commits      []domain.ClassifiedCommit
		want         domain.BumpDecision
		wantErr      error
	}{
		{
			name:         "breaking change forces major past 1.0",
			currentMajor: 1,
			commits: []domain.ClassifiedCommit{
				{Kind: domain.CommitFeature, Summary: "feat: add thing"},
				{Kind: domain.CommitBreaking, Summary: "feat!: change API"},
				{Kind: domain.CommitBugFix, Summary: "fix: crash"},
			},
			want: domain.BumpMajor,
		},
		{
			name:         "feature forces minor",
			currentMajor: 1,
			commits: []domain.ClassifiedCommit{
				{Kind: domain.CommitBugFix, Summary: "fix: crash"},
				{Kind: domain.CommitFeature, Summary: "feat: add thing"},
				{Kind: domain.CommitOther, Summary: "chore: deps"},
			},
			want: domain.BumpMinor,
		},
		{
			name:         "bug fix alone forces patch",
			currentMajor: 2,
			commits: []domain.ClassifiedCommit{
				{Kind: domain.CommitOther, Summary: "docs: readme"},
				{Kind: domain.CommitBugFix, Summary: "fix: crash"},
			},
			want: domain.BumpPatch,
		},
		{
			name:         "breaking change on 0.x does not qualify on its own",
			currentMajor: 0,
			commits: []domain.ClassifiedCommit{
				{Kind: domain.CommitBreaking, Summary: "feat!: change API"},
			},
			wantErr: domain.ErrNoQualifyingCommit,
		},
		{
			name:         "breaking change on 0.x falls through to feature",
			currentMajor: 0,
			commits: []domain.ClassifiedCommit{
				{Kind: domain.CommitBreaking, Summary: "refactor!: change API"},
				{Kind: domain.CommitFeature, Summary: "feat: add thing"},
			},
			want: domain.BumpMinor,
		},
		{
			name:         "breaking change on 0.x falls through to bug fix",
			currentMajor: 0,
			commits: []domain.ClassifiedCommit{
				{Kind: domain.CommitBreaking, Summary: "refactor!: change API"},
				{Kind: domain.CommitBugFix, Summary: "fix: crash"},
			},
			want: domain.BumpPatch,
		},
		{
			name:         "only neutral commits do not qualify",
			currentMajor: 1,
			commits: []domain.ClassifiedCommit{
				{Kind: domain.CommitOther, Summary: "chore: deps"},
				{Kind: domain.CommitOther, Summary: "docs: readme"},
			},
			wantErr: domain.ErrNoQualifyingCommit,
		},
		{
			name:         "empty window does not qualify",
			currentMajor: 1,
			commits:      nil,
			wantErr:      domain.ErrNoQualifyingCommit,
		},
		{
			name:         "order of commits does not matter",
			currentMajor: 3,
			commits: []domain.ClassifiedCommit{
				{Kind: domain.CommitBugFix, Summary: "fix: crash"},
				{Kind: domain.CommitBreaking, Summary: "fix!: change API"},
			},
			want: domain.BumpMajor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecideBump(tt.currentMajor, tt.commits)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
