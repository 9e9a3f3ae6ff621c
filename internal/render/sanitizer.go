package render

import (
	"html"

	"github.com/microcosm-cc/bluemonday"

	"github.com/spigell/interactive-resume/internal/utils"
)

// Sanitizer is the only path by which untrusted rich text reaches a page.
type Sanitizer interface {
	// ToPlainText strips all markup.
	ToPlainText(html string) string
	// ToSafeMarkup keeps basic formatting and drops anything that can run
	// script.
	ToSafeMarkup(html string) string
}

type policySanitizer struct {
	markup *bluemonday.Policy
	text   *bluemonday.Policy
}

// NewSanitizer returns the default allow-list sanitizer.
func NewSanitizer() Sanitizer {
	markup := bluemonday.UGCPolicy()
	markup.RequireNoFollowOnLinks(true)
	markup.AddTargetBlankToFullyQualifiedLinks(true)

	text := bluemonday.StrictPolicy()
	text.AddSpaceWhenStrippingTag(true)

	return &policySanitizer{markup: markup, text: text}
}

func (s *policySanitizer) ToPlainText(in string) string {
	if in == "" {
		return ""
	}
	return utils.CollapseSpaces(html.UnescapeString(s.text.Sanitize(in)))
}

func (s *policySanitizer) ToSafeMarkup(in string) string {
	if in == "" {
		return ""
	}
	return s.markup.Sanitize(in)
}
