// Package changelog renders release notes for a commit window as markdown.
package changelog

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/relmate/relmate/internal/domain"
)

// releaseTemplate groups the window's commits by kind under the release
// header. Empty sections are omitted.
const releaseTemplate = `## {{ .Tag }} - {{ .Date }}
{{- range .Sections }}
#### {{ .Title }}
{{- range .Entries }}
- {{ . }}
{{- end }}
{{- end }}
`

var sectionOrder = []struct {
	kind  domain.CommitKind
	title string
}{
	{domain.CommitBreaking, "Breaking changes"},
	{domain.CommitFeature, "Features"},
	{domain.CommitBugFix, "Bug fixes"},
	{domain.CommitOther, "Miscellaneous"},
}

type section struct {
	Title   string
	Entries []string
}

type releaseData struct {
	Tag      string
	Date     string
	Sections []section
}

// Renderer renders markdown release notes. The clock is injectable so
// tests produce stable output.
type Renderer struct {
	template *template.Template
	now      func() time.Time
}

// NewRenderer creates a markdown changelog renderer.
func NewRenderer() *Renderer {
	return &Renderer{
		template: template.Must(template.New("release").Parse(releaseTemplate)),
		now:      time.Now,
	}
}

// Render produces the markdown release notes for the commit window.
func (r *Renderer) Render(commits []domain.ClassifiedCommit, release domain.HookVersion) ([]byte, error) {
	data := releaseData{
		Tag:  release.DisplayTag,
		Date: r.now().Format("2006-01-02"),
	}

	for _, group := range sectionOrder {
		var entries []string
		for _, commit := range commits {
			if commit.Kind != group.kind {
				continue
			}
			entry := commit.Summary
			if commit.Scope != "" {
				entry = fmt.Sprintf("**(%s)** %s", commit.Scope, commit.Summary)
			}
			entries = append(entries, entry)
		}
		if len(entries) > 0 {
			data.Sections = append(data.Sections, section{Title: group.title, Entries: entries})
		}
	}

	var buf bytes.Buffer
	if err := r.template.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute changelog template: %w", err)
	}
	return buf.Bytes(), nil
}
