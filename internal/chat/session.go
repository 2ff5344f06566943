package chat

import (
	"github.com/google/uuid"

	"github.com/hennyi-ai/sales-engine/internal/retrieval"
)

// Session is one customer conversation: an identifier, the bounded
// transcript, and the most recent recommendation set so that follow-up
// questions like "tell me about the first one" resolve without another
// retrieval pass. Not safe for concurrent use; callers serialize access.
type Session struct {
	ID      string
	History *History

	lastSelection retrieval.Selection
}

// NewSession returns a session with a fresh UUID and an empty history
// bounded to maxTurns.
func NewSession(maxTurns int) *Session {
	return &Session{
		ID:      uuid.New().String(),
		History: NewHistory(maxTurns),
	}
}

// RememberSelection records the recommendations just shown, replacing any
// previous set.
func (s *Session) RememberSelection(sel retrieval.Selection) {
	s.lastSelection = sel
}

// CachedItem returns the i-th item of the last selection, if the session
// has one and the index is in range. A reference query with no prior
// selection, or one past the end of it, reports false and falls through to
// normal retrieval.
func (s *Session) CachedItem(i int) (retrieval.RankedItem, bool) {
	return s.lastSelection.Item(i)
}

// ClearHistory drops the transcript and the cached selection, returning
// the session to a blank state under the same ID.
func (s *Session) ClearHistory() {
	s.History.Clear()
	s.lastSelection = retrieval.Selection{}
}
