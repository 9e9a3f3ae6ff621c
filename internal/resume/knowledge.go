package resume

import (
	"fmt"
	"strings"

	"github.com/spigell/interactive-resume/internal/utils"
)

// PlainTexter turns rich text into plain text.
type PlainTexter interface {
	ToPlainText(html string) string
}

// Knowledge is a flat, read-only projection of a résumé into snippets.
type Knowledge struct {
	Summary    []string
	Experience []string
	Projects   []string
	Skills     []string
}

// NewKnowledge builds the snippets of the visible parts of doc. A nil
// document yields empty knowledge.
func NewKnowledge(doc *Document, text PlainTexter) Knowledge {
	var k Knowledge
	if doc == nil || doc.Data == nil {
		return k
	}
	data := doc.Data

	if s := data.Summary; s != nil && !s.Hidden {
		k.Summary = appendSnippet(k.Summary, text.ToPlainText(s.Content))
	}
	if b := data.Basics; b != nil && b.Headline != "" {
		k.Summary = appendSnippet(k.Summary, joinNonEmpty(" · ", b.Name, b.Headline))
	}

	if data.Sections == nil {
		return k
	}
	sections := data.Sections

	for _, e := range Visible(sections.Experience) {
		title := joinNonEmpty(" @ ", e.Position, e.Company)
		if e.Period != "" {
			title = fmt.Sprintf("%s (%s)", title, e.Period)
		}
		k.Experience = appendSnippet(k.Experience, joinNonEmpty(": ", title, text.ToPlainText(e.Description)))
	}

	for _, p := range Visible(sections.Projects) {
		title := p.Name
		if p.Period != "" {
			title = fmt.Sprintf("%s (%s)", title, p.Period)
		}
		k.Projects = appendSnippet(k.Projects, joinNonEmpty(": ", title, text.ToPlainText(p.Description)))
	}

	skills := make([]string, 0)
	for _, s := range Visible(sections.Skills) {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			continue
		}
		if s.Proficiency != "" {
			name = fmt.Sprintf("%s (%s)", name, s.Proficiency)
		}
		skills = append(skills, name)
	}
	if len(skills) > 0 {
		k.Skills = append(k.Skills, strings.Join(skills, ", "))
	}

	return k
}

// IsEmpty reports whether there is no snippet at all.
func (k Knowledge) IsEmpty() bool {
	return len(k.Summary)+len(k.Experience)+len(k.Projects)+len(k.Skills) == 0
}

func appendSnippet(list []string, snippet string) []string {
	snippet = utils.CollapseSpaces(snippet)
	if snippet == "" {
		return list
	}
	return append(list, snippet)
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
