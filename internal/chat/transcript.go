package chat

import (
	"fmt"
	"strings"
	"time"
)

const emptyTranscript = "（目前沒有對話內容）"

// TranscriptHeader is the fixed text placed above the conversation.
type TranscriptHeader struct {
	Greeting   string
	ResumeURL  string
	PartnerURL string
	Contact    string
}

// DefaultTranscriptHeader is used for fields left empty.
var DefaultTranscriptHeader = TranscriptHeader{
	Greeting: "Hi, 感謝您來使用我的互動式 AI 履歷.\n\n這裡是我的公開資訊，歡迎來信聊聊。",
}

// Transcript renders the conversation as plain text.
func Transcript(h TranscriptHeader, messages []Message, now time.Time) string {
	var b strings.Builder

	greeting := h.Greeting
	if greeting == "" {
		greeting = DefaultTranscriptHeader.Greeting
	}
	b.WriteString(greeting)
	b.WriteString("\n\n")

	if h.ResumeURL != "" {
		fmt.Fprintf(&b, "互動式 AI 履歷連結：%s\n", h.ResumeURL)
	}
	if h.PartnerURL != "" {
		fmt.Fprintf(&b, "如果您在尋找合作伙伴：%s\n", h.PartnerURL)
	}
	if h.Contact != "" {
		fmt.Fprintf(&b, "連絡方式： %s\n", h.Contact)
	}

	b.WriteString("\n--\n\n")
	fmt.Fprintf(&b, "[對話記錄][%s]\n", now.Format("2006/01/02 15:04"))
	b.WriteString(conversationLog(messages))

	return b.String()
}

func conversationLog(messages []Message) string {
	if len(messages) == 0 {
		return emptyTranscript
	}

	segments := make([]string, 0, len(messages)*2)
	for i, m := range messages {
		label := "AI"
		separator := "=="
		if m.Role == RoleUser {
			label = "你"
			separator = "--"
		}

		segments = append(segments, fmt.Sprintf("%s: %s", label, m.Content))
		if i < len(messages)-1 {
			segments = append(segments, separator)
		}
	}
	return strings.Join(segments, "\n\n")
}

// TranscriptFileName returns a timestamped download name.
func TranscriptFileName(prefix string, now time.Time) string {
	if prefix = strings.TrimSpace(prefix); prefix == "" {
		prefix = "AI-Resume-Chat"
	}
	return fmt.Sprintf("%s-%s.md", prefix, now.Format("20060102-150405"))
}
