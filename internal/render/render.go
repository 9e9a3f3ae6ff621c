// Package render turns a résumé document into an HTML page. Rich text
// fields only reach the page through a Sanitizer.
package render

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/spigell/interactive-resume/internal/resume"
)

//go:embed page.html.tmpl
var pageTemplate string

// Link is an entry of the page action menu.
type Link struct {
	Label    string
	Href     string
	Download bool
}

// ChatMessage is one rendered conversation entry. Tooltip is shown on
// hover and stays empty for user messages.
type ChatMessage struct {
	Role    string
	Content string
	Tooltip string
}

// ChatView is the chat panel next to the résumé. Messages are plain text.
// Intro is left empty once the visitor has hidden it.
type ChatView struct {
	Messages       []ChatMessage
	QuickQuestions []string
	Intro          string
	SendAction     string
	IntroAction    string
}

// View is what a page is rendered from. Document may be nil when loading
// failed; Error is then shown in place of the résumé. A nil Chat renders
// the résumé alone.
type View struct {
	Title    string
	Lang     string
	Document *resume.Document
	Error    string
	Links    []Link
	Chat     *ChatView
}

type Renderer struct {
	sanitizer Sanitizer
	tmpl      *template.Template
}

func New(sanitizer Sanitizer) (*Renderer, error) {
	if sanitizer == nil {
		sanitizer = NewSanitizer()
	}

	r := &Renderer{sanitizer: sanitizer}
	tmpl, err := template.New("page").Funcs(template.FuncMap{
		"rich": r.rich,
		"join": joinDot,
	}).Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	r.tmpl = tmpl

	return r, nil
}

// Render writes the full page for v.
func (r *Renderer) Render(w io.Writer, v View) error {
	if err := r.tmpl.Execute(w, newPage(v)); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// The markup is sanitized before being marked as trusted.
func (r *Renderer) rich(s string) template.HTML {
	return template.HTML(r.sanitizer.ToSafeMarkup(s)) //nolint:gosec
}

func joinDot(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " · ")
}

type section[T any] struct {
	Title string
	Items []T
}

type summary struct {
	Title   string
	Content string
}

type page struct {
	Title string
	Lang  string
	Error string
	Links []Link
	Chat  *ChatView

	Basics         *resume.Basics
	Profiles       *section[resume.Profile]
	Summary        *summary
	Experience     *section[resume.Experience]
	Education      *section[resume.Education]
	Skills         *section[resume.Skill]
	Certifications *section[resume.Certification]
	Projects       *section[resume.Project]
	Custom         []*resume.CustomSection
}

func newPage(v View) page {
	p := page{
		Title: v.Title,
		Lang:  v.Lang,
		Error: v.Error,
		Links: v.Links,
		Chat:  v.Chat,
	}
	if p.Title == "" {
		p.Title = "Resume"
	}
	if p.Lang == "" {
		p.Lang = "zh-Hant"
	}

	if v.Document == nil || v.Document.Data == nil {
		return p
	}
	data := v.Document.Data

	p.Basics = data.Basics
	if data.Basics != nil && data.Basics.Name != "" && v.Title == "" {
		p.Title = data.Basics.Name
	}

	if s := data.Summary; s != nil && !s.Hidden && s.Content != "" {
		p.Summary = &summary{Title: titleOr(s.Title, "Summary"), Content: s.Content}
	}

	if sections := data.Sections; sections != nil {
		p.Profiles = build(sections.Profiles, "Profiles")
		p.Experience = build(sections.Experience, "Experience")
		p.Education = build(sections.Education, "Education")
		p.Skills = build(sections.Skills, "Skills")
		p.Certifications = build(sections.Certifications, "Certifications")
		p.Projects = build(sections.Projects, "Projects")
	}

	if custom := resume.VisibleCustom(data.CustomSections); len(custom) > 0 {
		p.Custom = custom
	}

	return p
}

// build returns nil when the section has nothing to show so the template
// skips it entirely.
func build[T resume.Hideable](s *resume.Section[T], fallback string) *section[T] {
	items := resume.Visible(s)
	if len(items) == 0 {
		return nil
	}
	return &section[T]{Title: titleOr(s.Title, fallback), Items: items}
}

func titleOr(title, fallback string) string {
	if strings.TrimSpace(title) == "" {
		return fallback
	}
	return title
}
