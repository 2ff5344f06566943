package prompt

import (
	"github.com/hennyi-ai/sales-engine/internal/chat"
	"github.com/hennyi-ai/sales-engine/internal/llm"
)

// SystemPrompt builds the regular system message: the persona followed by
// the catalog excerpt for this query.
func SystemPrompt(excerpt string) string {
	return basePersona + excerpt
}

// ReferencePrompt builds the system message for a follow-up about a
// previously shown vehicle.
func ReferencePrompt(vehicle string) string {
	return referencePersona + vehicle
}

// Messages assembles the completion message list: exactly one system
// message first, then the conversation history oldest-first, then the
// current user query.
func Messages(system string, history *chat.History, query string) []llm.Message {
	turns := history.Turns()
	out := make([]llm.Message, 0, len(turns)+2)
	out = append(out, llm.Message{Role: llm.RoleSystem, Content: system})
	for _, turn := range turns {
		out = append(out, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	return append(out, llm.Message{Role: llm.RoleUser, Content: query})
}
