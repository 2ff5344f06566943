package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hennyi-ai/sales-engine/internal/assistant"
	"github.com/hennyi-ai/sales-engine/internal/chat"
	"github.com/hennyi-ai/sales-engine/internal/llm"
)

type staticEmbedder struct{}

func (staticEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

type staticCompleter struct{ reply string }

func (s staticCompleter) Complete(context.Context, llm.CompletionRequest) (string, error) {
	return s.reply, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	gw := llm.NewGateway(staticCompleter{reply: "Welcome to the showroom!"}, 300, 0.7, nil)
	a := assistant.New(staticEmbedder{}, gw, assistant.Options{
		TopK:            3,
		ScoreThreshold:  0.2,
		MaxHistoryTurns: 10,
	}, nil)

	sessions := NewSessionStore(0, 0)
	handler := NewChatHandler(nil, a, sessions)

	r := chi.NewRouter()
	r.Post("/api/v1/sessions", handler.CreateSession)
	r.Post("/api/v1/sessions/{sessionId}/messages", handler.SendMessage)
	r.Delete("/api/v1/sessions/{sessionId}/history", handler.ClearHistory)
	return r
}

func TestChatHandler_SessionLifecycle(t *testing.T) {
	router := newTestRouter(t)

	// Create a session.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var session SessionDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&session))
	require.NotEmpty(t, session.SessionID)

	// Send a message.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/api/v1/sessions/"+session.SessionID+"/messages",
		strings.NewReader(`{"message":"hello"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var reply MessageResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&reply))
	assert.Equal(t, "Welcome to the showroom!", reply.Reply)

	// Clear the history.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete,
		"/api/v1/sessions/"+session.SessionID+"/history", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestChatHandler_UnknownSession(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/api/v1/sessions/nope/messages", strings.NewReader(`{"message":"hi"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionStore_CapEvictsStalest(t *testing.T) {
	store := NewSessionStore(2, time.Hour)

	first := chat.NewSession(10)
	second := chat.NewSession(10)
	third := chat.NewSession(10)

	store.add(first)
	store.add(second)

	// Touch the first session so the second becomes the stalest.
	_, ok := store.get(first.ID)
	require.True(t, ok)

	store.add(third)

	_, ok = store.get(second.ID)
	assert.False(t, ok, "stalest session is evicted at the cap")
	_, ok = store.get(first.ID)
	assert.True(t, ok)
	_, ok = store.get(third.ID)
	assert.True(t, ok)
	assert.LessOrEqual(t, len(store.sessions), 2)
}

func TestSessionStore_IdleSessionExpires(t *testing.T) {
	store := NewSessionStore(10, time.Nanosecond)

	session := chat.NewSession(10)
	store.add(session)
	time.Sleep(5 * time.Millisecond)

	_, ok := store.get(session.ID)
	assert.False(t, ok, "idle session past the TTL is gone")
	assert.Empty(t, store.sessions)
}

func TestChatHandler_EmptyMessage(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))
	var session SessionDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&session))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/api/v1/sessions/"+session.SessionID+"/messages", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
