// Package chat holds per-customer conversation state: the rolling message
// history and the last set of recommendations shown.
package chat

const (
	// RoleUser marks a message typed by the customer.
	RoleUser = "user"
	// RoleAssistant marks a reply produced by the assistant.
	RoleAssistant = "assistant"
)

// Turn is a single message in a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// History is a bounded conversation transcript. It retains at most
// 2*maxTurns messages (a turn being one user message plus one assistant
// reply) and drops the oldest messages first. Not safe for concurrent use;
// callers serialize per session.
type History struct {
	maxTurns int
	turns    []Turn
}

// NewHistory returns a history bounded to the given number of turns.
// Non-positive maxTurns disables trimming.
func NewHistory(maxTurns int) *History {
	return &History{maxTurns: maxTurns}
}

// Append records a message and trims the transcript if it now exceeds the
// bound.
func (h *History) Append(role, content string) {
	h.turns = append(h.turns, Turn{Role: role, Content: content})
	if h.maxTurns <= 0 {
		return
	}
	if limit := 2 * h.maxTurns; len(h.turns) > limit {
		h.turns = h.turns[len(h.turns)-limit:]
	}
}

// Turns returns a copy of the transcript, oldest first.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of recorded messages.
func (h *History) Len() int { return len(h.turns) }

// Clear discards the transcript.
func (h *History) Clear() { h.turns = nil }
