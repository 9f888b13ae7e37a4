// Package usecases contains the release engine's business logic: commit
// classification, version resolution, and the guarded bump workflow.
package usecases

import (
	"github.com/relmate/relmate/internal/domain"
)

// DecideBump maps a window of classified commits to a bump decision.
// Priority order, first match wins: breaking changes force a major bump
// only once the current major version is non-zero (a 0.x line is
// understood as unstable), then any feature forces a minor bump, then any
// bug fix a patch bump. When no commit carries a signal the decision
// fails with ErrNoQualifyingCommit rather than guessing a level.
func DecideBump(currentMajor uint64, commits []domain.ClassifiedCommit) (domain.BumpDecision, error) {
	var hasBreaking, hasFeature, hasBugFix bool
	for _, commit := range commits {
		switch commit.Kind {
		case domain.CommitBreaking:
			hasBreaking = true
		case domain.CommitFeature:
			hasFeature = true
		case domain.CommitBugFix:
			hasBugFix = true
		}
	}

	switch {
	case currentMajor != 0 && hasBreaking:
		return domain.BumpMajor, nil
	case hasFeature:
		return domain.BumpMinor, nil
	case hasBugFix:
		return domain.BumpPatch, nil
	default:
		return 0, domain.ErrNoQualifyingCommit
	}
}
