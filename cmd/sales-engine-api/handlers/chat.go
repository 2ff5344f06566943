// Package handlers provides HTTP handlers for the Sales Engine API.
package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hennyi-ai/sales-engine/internal/assistant"
	"github.com/hennyi-ai/sales-engine/internal/chat"
	"github.com/hennyi-ai/sales-engine/internal/observability"
)

const (
	defaultMaxSessions = 1000
	defaultIdleTTL     = 30 * time.Minute
)

// SessionStore tracks live conversations. Each session carries its own
// lock so concurrent messages to the same session are serialized while
// different sessions proceed in parallel. Sessions idle past the TTL are
// evicted lazily, and when the store is full the stalest session is
// dropped to make room, so memory stays bounded without a sweeper.
type SessionStore struct {
	mu          sync.Mutex
	sessions    map[string]*sessionEntry
	maxSessions int
	idleTTL     time.Duration
}

type sessionEntry struct {
	mu       sync.Mutex
	session  *chat.Session
	lastSeen time.Time
}

// NewSessionStore creates an empty session store. Non-positive limits
// fall back to the defaults.
func NewSessionStore(maxSessions int, idleTTL time.Duration) *SessionStore {
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	return &SessionStore{
		sessions:    make(map[string]*sessionEntry),
		maxSessions: maxSessions,
		idleTTL:     idleTTL,
	}
}

func (s *SessionStore) add(session *chat.Session) {
	now := time.Now()
	s.mu.Lock()
	s.evictExpired(now)
	if len(s.sessions) >= s.maxSessions {
		s.evictStalest()
	}
	s.sessions[session.ID] = &sessionEntry{session: session, lastSeen: now}
	s.mu.Unlock()
}

func (s *SessionStore) get(id string) (*sessionEntry, bool) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if now.Sub(entry.lastSeen) > s.idleTTL {
		delete(s.sessions, id)
		return nil, false
	}
	entry.lastSeen = now
	return entry, true
}

// evictExpired removes idle sessions. Caller holds s.mu.
func (s *SessionStore) evictExpired(now time.Time) {
	for id, entry := range s.sessions {
		if now.Sub(entry.lastSeen) > s.idleTTL {
			delete(s.sessions, id)
		}
	}
}

// evictStalest drops the least recently used session. Caller holds s.mu.
func (s *SessionStore) evictStalest() {
	var oldestID string
	var oldest time.Time
	for id, entry := range s.sessions {
		if oldestID == "" || entry.lastSeen.Before(oldest) {
			oldestID = id
			oldest = entry.lastSeen
		}
	}
	if oldestID != "" {
		delete(s.sessions, oldestID)
	}
}

// ChatHandler serves the conversation endpoints.
type ChatHandler struct {
	logger    *observability.Logger
	assistant *assistant.Assistant
	sessions  *SessionStore
}

// NewChatHandler creates a chat handler.
func NewChatHandler(logger *observability.Logger, a *assistant.Assistant, sessions *SessionStore) *ChatHandler {
	if logger == nil {
		logger = observability.Nop()
	}
	return &ChatHandler{
		logger:    logger.WithComponent("chat-handler"),
		assistant: a,
		sessions:  sessions,
	}
}

// SessionDTO is the API representation of a session.
type SessionDTO struct {
	SessionID string `json:"sessionId"`
}

// MessageRequestDTO is a customer message.
type MessageRequestDTO struct {
	Message string `json:"message"`
}

// MessageResponseDTO is the assistant's reply.
type MessageResponseDTO struct {
	SessionID string `json:"sessionId"`
	Reply     string `json:"reply"`
}

// CreateSession handles POST /api/v1/sessions.
func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.assistant.NewSession()
	h.sessions.add(session)

	h.logger.Info().Str("session_id", session.ID).Msg("session created")
	writeJSON(w, http.StatusCreated, SessionDTO{SessionID: session.ID})
}

// SendMessage handles POST /api/v1/sessions/{sessionId}/messages.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")
	entry, ok := h.sessions.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found", "")
		return
	}

	var req MessageRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required", "")
		return
	}

	entry.mu.Lock()
	reply, err := h.assistant.Respond(r.Context(), entry.session, req.Message)
	entry.mu.Unlock()
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", id).Msg("respond failed")
		writeError(w, http.StatusInternalServerError, "respond failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, MessageResponseDTO{SessionID: id, Reply: reply})
}

// ClearHistory handles DELETE /api/v1/sessions/{sessionId}/history.
func (h *ChatHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")
	entry, ok := h.sessions.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found", "")
		return
	}

	entry.mu.Lock()
	entry.session.ClearHistory()
	entry.mu.Unlock()

	h.logger.Info().Str("session_id", id).Msg("history cleared")
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{"error": message}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}
