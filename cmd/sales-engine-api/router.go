// Package main provides the API router setup.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hennyi-ai/sales-engine/cmd/sales-engine-api/handlers"
	"github.com/hennyi-ai/sales-engine/internal/assistant"
	"github.com/hennyi-ai/sales-engine/internal/catalog"
	"github.com/hennyi-ai/sales-engine/internal/config"
	"github.com/hennyi-ai/sales-engine/internal/observability"
)

// NewRouter creates the main API router with all routes configured.
func NewRouter(logger *observability.Logger, a *assistant.Assistant, repo *catalog.Repository, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.Server.ReadTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"sales-engine"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if a.CatalogSize() == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"no catalog loaded"}`))
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	sessions := handlers.NewSessionStore(cfg.Chat.MaxSessions, cfg.Chat.SessionIdleTTL)
	chatHandler := handlers.NewChatHandler(logger, a, sessions)
	catalogHandler := handlers.NewCatalogHandler(logger, a, repo)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", chatHandler.CreateSession)
			r.Post("/{sessionId}/messages", chatHandler.SendMessage)
			r.Delete("/{sessionId}/history", chatHandler.ClearHistory)
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", catalogHandler.Status)
			r.Post("/reload", catalogHandler.Reload)
		})
	})

	return r
}
