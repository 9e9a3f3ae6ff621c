package chat

import "fmt"

// TokenStats aggregates the token usage of every assistant reply.
type TokenStats struct {
	TotalInput   int `json:"totalInput"`
	TotalCached  int `json:"totalCached"`
	TotalOutput  int `json:"totalOutput"`
	TotalRequest int `json:"totalRequest"`
}

func Stats(messages []Message) TokenStats {
	var st TokenStats
	for _, m := range messages {
		if m.Role != RoleAssistant || m.Token == nil {
			continue
		}
		st.TotalInput += m.Token.Input
		st.TotalCached += m.Token.Cached
		st.TotalOutput += m.Token.Output
		st.TotalRequest++
	}
	return st
}

func (st TokenStats) String() string {
	return fmt.Sprintf("{Total Input: %d, Total Cached Input: %d, Total Output: %d, Total Request: %d}",
		st.TotalInput, st.TotalCached, st.TotalOutput, st.TotalRequest)
}

// TokenSummary describes the usage of a single message.
func TokenSummary(m Message) string {
	if m.Token == nil {
		return "無 token 資訊"
	}
	return fmt.Sprintf("Input: %d, Cached: %d, Output: %d", m.Token.Input, m.Token.Cached, m.Token.Output)
}
