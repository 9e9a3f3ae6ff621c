// Package mock answers chat messages offline by matching keywords against
// résumé snippets.
package mock

import (
	"context"
	"strings"

	"github.com/spigell/interactive-resume/internal/reply"
	"github.com/spigell/interactive-resume/internal/resume"
	"github.com/spigell/interactive-resume/internal/utils"
)

const (
	// SnippetLimit is the rune budget of one quoted snippet.
	SnippetLimit = 120
	// MaxSnippets is how many snippets a matched reply quotes.
	MaxSnippets = 2

	NoContentMessage = "可以更具體描述你想了解的內容嗎？"
)

type topic int

const (
	topicSkills topic = iota
	topicExperience
	topicProjects
	topicSummary
)

type keywordGroup struct {
	topic    topic
	header   string
	keywords []string
}

// groups are tested in order; the first match wins.
var groups = []keywordGroup{
	{
		topic:    topicSkills,
		header:   "技能亮點整理如下：",
		keywords: []string{"skill", "stack", "tech", "technology", "technologies", "technical", "技能", "專長", "技術"},
	},
	{
		topic:    topicExperience,
		header:   "這裡是相關經驗摘要：",
		keywords: []string{"experience", "work", "job", "career", "經驗", "經歷", "工作"},
	},
	{
		topic:    topicProjects,
		header:   "這裡有部分專案摘要：",
		keywords: []string{"project", "portfolio", "專案", "作品"},
	},
	{
		topic:    topicSummary,
		header:   "簡介摘要如下：",
		keywords: []string{"summary", "about", "introduce", "introduction", "who", "介紹", "簡介", "自我", "怎麼樣"},
	},
}

// ComputeReply answers input from knowledge. It has no side effects.
func ComputeReply(input string, k resume.Knowledge) string {
	if g, ok := match(strings.ToLower(input)); ok {
		if list := snippets(k, g.topic); len(list) > 0 {
			lines := make([]string, 0, MaxSnippets+1)
			lines = append(lines, g.header)
			for i, s := range list {
				if i == MaxSnippets {
					break
				}
				lines = append(lines, utils.Truncate(s, SnippetLimit))
			}
			return strings.Join(lines, "\n")
		}
	}

	for _, t := range []topic{topicSummary, topicExperience, topicProjects, topicSkills} {
		if list := snippets(k, t); len(list) > 0 {
			return utils.Truncate(list[0], SnippetLimit)
		}
	}

	return NoContentMessage
}

func match(input string) (keywordGroup, bool) {
	words := latinWords(input)
	for _, g := range groups {
		for _, kw := range g.keywords {
			if containsKeyword(input, words, kw) {
				return g, true
			}
		}
	}
	return keywordGroup{}, false
}

// inflections may follow an English keyword inside one word.
var inflections = []string{"", "s", "es", "ed", "ing"}

// containsKeyword matches English keywords against whole words, so "who"
// does not hit "whole" and "work" does not hit "network". Chinese keywords
// have no word boundaries and match anywhere.
func containsKeyword(input string, words []string, kw string) bool {
	if !isLatin(kw) {
		return strings.Contains(input, kw)
	}
	for _, w := range words {
		rest, ok := strings.CutPrefix(w, kw)
		if !ok {
			continue
		}
		for _, suffix := range inflections {
			if rest == suffix {
				return true
			}
		}
	}
	return false
}

func latinWords(input string) []string {
	return strings.FieldsFunc(input, func(r rune) bool { return r < 'a' || r > 'z' })
}

func isLatin(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return s != ""
}

func snippets(k resume.Knowledge, t topic) []string {
	switch t {
	case topicSkills:
		return k.Skills
	case topicExperience:
		return k.Experience
	case topicProjects:
		return k.Projects
	default:
		return k.Summary
	}
}

// Responder adapts the engine to a chat session. Its replies have no id, so
// a conversation thread is never advanced by it.
type Responder struct {
	knowledge func() resume.Knowledge
}

// NewResponder answers from the knowledge returned by source at call time,
// so a reloaded résumé is picked up without rebuilding the responder.
func NewResponder(source func() resume.Knowledge) *Responder {
	return &Responder{knowledge: source}
}

func (r *Responder) Send(_ context.Context, req reply.Request) (*reply.Reply, error) {
	var k resume.Knowledge
	if r.knowledge != nil {
		k = r.knowledge()
	}
	return &reply.Reply{Text: ComputeReply(req.Message, k)}, nil
}
