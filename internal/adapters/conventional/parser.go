// Package conventional parses conventional-commit messages into the
// classification consumed by the release engine.
package conventional

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/relmate/relmate/internal/domain"
)

// summaryPattern matches a conventional-commit summary line:
// type(scope)!: description. The scope and the breaking-change marker
// are optional.
var summaryPattern = regexp.MustCompile(`^(\w+)(?:\(([^)]*)\))?(!)?: (.+)$`)

// Commit types carrying a bump signal. Any other well-formed type
// (chore, docs, refactor, ...) classifies as Other.
const (
	typeFeature = "feat"
	typeBugFix  = "fix"
)

// breakingFooterPattern matches a BREAKING CHANGE footer anywhere in the
// commit body.
var breakingFooterPattern = regexp.MustCompile(`(?m)^BREAKING[ -]CHANGE: `)

// Parser classifies raw commits by their conventional-commit summary.
// The zero value is ready to use.
type Parser struct{}

// NewParser creates a conventional-commit parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse classifies the commit. A commit flagged as breaking, either with
// the `!` marker or a BREAKING CHANGE footer, classifies as Breaking
// regardless of its type. Returns domain.ErrNotConventional for messages
// that do not follow the convention.
func (p *Parser) Parse(commit domain.RawCommit) (domain.ClassifiedCommit, error) {
	matches := summaryPattern.FindStringSubmatch(commit.Summary)
	if matches == nil {
		return domain.ClassifiedCommit{}, fmt.Errorf("%w: %q", domain.ErrNotConventional, commit.Summary)
	}

	commitType := strings.ToLower(matches[1])
	scope := matches[2]
	breaking := matches[3] == "!" || breakingFooterPattern.MatchString(commit.Message)

	kind := domain.CommitOther
	switch {
	case breaking:
		kind = domain.CommitBreaking
	case commitType == typeFeature:
		kind = domain.CommitFeature
	case commitType == typeBugFix:
		kind = domain.CommitBugFix
	}

	return domain.ClassifiedCommit{
		Kind:    kind,
		Scope:   scope,
		Summary: commit.Summary,
	}, nil
}
