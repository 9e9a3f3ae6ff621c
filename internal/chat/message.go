package chat

import "github.com/spigell/interactive-resume/internal/reply"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation. Messages are never modified
// after they are appended.
type Message struct {
	ID      string            `json:"id"`
	Role    Role              `json:"role"`
	Content string            `json:"content"`
	Token   *reply.TokenUsage `json:"token,omitempty"`
}

const (
	DefaultWelcome = "嗨！我是你的履歷助手，歡迎問我關於工作經驗、技能或專案等問題。"

	UnavailableMessage = "抱歉，暫時無法取得回覆，請稍後再試。"
	NoReplyMessage     = "目前沒有回覆內容。"
	quotaMessage       = "很抱歉、目前伺服器的服務資源用量已達本日上限。請您明天再試。"
)

// Welcome is the first message of every conversation.
func Welcome(opts Options) Message {
	text := opts.Welcome
	if text == "" {
		text = DefaultWelcome
	}
	return Message{ID: "welcome", Role: RoleAssistant, Content: text}
}

// QuotaMessage is the fixed reply shown when the daily quota is spent. The
// contact line is omitted when contact is empty.
func QuotaMessage(contact string) string {
	if contact == "" {
		return quotaMessage
	}
	return quotaMessage + "\n\n或連絡：" + contact
}
