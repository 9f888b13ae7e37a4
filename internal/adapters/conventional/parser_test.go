package conventional

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relmate/relmate/internal/domain"
)

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name      string
		summary   string
		message   string
		wantKind  domain.CommitKind
		wantScope string
		wantErr   bool
	}{
		{
			name:     "feature",
			summary:  "feat: add csv export",
			wantKind: domain.CommitFeature,
		},
		{
			name:      "feature with scope",
			summary:   "feat(export): add csv export",
			wantKind:  domain.CommitFeature,
			wantScope: "export",
		},
		{
			name:     "bug fix",
			summary:  "fix: handle empty input",
			wantKind: domain.CommitBugFix,
		},
		{
			name:     "breaking marker on a feature",
			summary:  "feat!: change response shape",
			wantKind: domain.CommitBreaking,
		},
		{
			name:      "breaking marker after the scope",
			summary:   "fix(api)!: reject legacy tokens",
			wantKind:  domain.CommitBreaking,
			wantScope: "api",
		},
		{
			name:     "breaking marker on a neutral type",
			summary:  "refactor!: drop deprecated helpers",
			wantKind: domain.CommitBreaking,
		},
		{
			name:     "breaking change footer overrides the type",
			summary:  "chore: tighten validation",
			message:  "chore: tighten validation\n\nBREAKING CHANGE: empty names are now rejected",
			wantKind: domain.CommitBreaking,
		},
		{
			name:     "breaking-change footer with hyphen",
			summary:  "fix: tighten validation",
			message:  "fix: tighten validation\n\nBREAKING-CHANGE: empty names are now rejected",
			wantKind: domain.CommitBreaking,
		},
		{
			name:     "breaking mention outside a footer is not a signal",
			summary:  "docs: describe BREAKING CHANGE semantics",
			message:  "docs: describe BREAKING CHANGE semantics\n\nSee the BREAKING CHANGE: footer convention.",
			wantKind: domain.CommitOther,
		},
		{
			name:     "neutral type",
			summary:  "chore: bump dependencies",
			wantKind: domain.CommitOther,
		},
		{
			name:     "unknown type is still conforming",
			summary:  "perf: cache tag lookups",
			wantKind: domain.CommitOther,
		},
		{
			name:     "uppercase type is tolerated",
			summary:  "Fix: handle empty input",
			wantKind: domain.CommitBugFix,
		},
		{
			name:    "missing colon",
			summary: "update stuff",
			wantErr: true,
		},
		{
			name:    "missing description",
			summary: "feat: ",
			wantErr: true,
		},
		{
			name:    "missing space after colon",
			summary: "feat:add csv export",
			wantErr: true,
		},
		{
			name:    "empty summary",
			summary: "",
			wantErr: true,
		},
	}

	parser := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message := tt.message
			if message == "" {
				message = tt.summary
			}
			got, err := parser.Parse(domain.RawCommit{ID: "abc", Summary: tt.summary, Message: message})

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrNotConventional)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantScope, got.Scope)
			assert.Equal(t, tt.summary, got.Summary)
		})
	}
}
