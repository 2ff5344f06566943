package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SessionLifecycle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/sessions":
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{"sessionId": "abc-123"})

		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/sessions/abc-123/messages":
			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "any hybrids?", req["message"])
			json.NewEncoder(w).Encode(map[string]string{
				"sessionId": "abc-123",
				"reply":     "We have a great Prius in stock.",
			})

		case r.Method == http.MethodDelete && r.URL.Path == "/api/v1/sessions/abc-123/history":
			w.WriteHeader(http.StatusNoContent)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	session, err := c.CreateSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", session.SessionID)

	reply, err := c.SendMessage(ctx, session.SessionID, "any hybrids?")
	require.NoError(t, err)
	assert.Equal(t, "We have a great Prius in stock.", reply.Reply)

	assert.NoError(t, c.ClearHistory(ctx, session.SessionID))
}

func TestClient_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "session not found"})
	}))
	defer srv.Close()

	_, err := New(srv.URL).SendMessage(context.Background(), "missing", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session not found")
}

func TestClient_ReloadCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/catalog/reload", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]int{"vehicles": 42})
	}))
	defer srv.Close()

	status, err := New(srv.URL).ReloadCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, status.Vehicles)
}
