package handlers

import (
	"errors"
	"net/http"

	"github.com/hennyi-ai/sales-engine/internal/assistant"
	"github.com/hennyi-ai/sales-engine/internal/catalog"
	"github.com/hennyi-ai/sales-engine/internal/observability"
)

// CatalogHandler serves the inventory endpoints.
type CatalogHandler struct {
	logger    *observability.Logger
	assistant *assistant.Assistant
	repo      *catalog.Repository
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(logger *observability.Logger, a *assistant.Assistant, repo *catalog.Repository) *CatalogHandler {
	if logger == nil {
		logger = observability.Nop()
	}
	return &CatalogHandler{
		logger:    logger.WithComponent("catalog-handler"),
		assistant: a,
		repo:      repo,
	}
}

// ReloadResponseDTO reports the outcome of a catalog reload.
type ReloadResponseDTO struct {
	Vehicles int `json:"vehicles"`
}

// StatusResponseDTO reports the active catalog size.
type StatusResponseDTO struct {
	Vehicles int `json:"vehicles"`
}

// Reload handles POST /api/v1/catalog/reload: re-reads the inventory
// database, re-embeds, and swaps the index in.
func (h *CatalogHandler) Reload(w http.ResponseWriter, r *http.Request) {
	records, err := h.repo.ListRecords(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list inventory failed")
		writeError(w, http.StatusInternalServerError, "list inventory failed", err.Error())
		return
	}

	n, err := h.assistant.LoadCatalog(r.Context(), records, nil)
	if err != nil {
		if errors.Is(err, catalog.ErrEmptyCatalog) {
			writeError(w, http.StatusUnprocessableEntity, "no usable vehicles in inventory", "")
			return
		}
		h.logger.Error().Err(err).Msg("catalog reload failed")
		writeError(w, http.StatusInternalServerError, "catalog reload failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ReloadResponseDTO{Vehicles: n})
}

// Status handles GET /api/v1/catalog.
func (h *CatalogHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponseDTO{Vehicles: h.assistant.CatalogSize()})
}
