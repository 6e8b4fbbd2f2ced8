package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	app_errors "polyglot/backend/internal/errors"
	"polyglot/backend/internal/interfaces"
)

const defaultHistoryLimit = 50

// HistoryHandler serves the translation archive.
type HistoryHandler struct {
	service interfaces.HistoryService
}

func NewHistoryHandler(svc interfaces.HistoryService) *HistoryHandler {
	return &HistoryHandler{service: svc}
}

// ListHistory godoc
// @Summary      List archived translations
// @Tags         History
// @Produce      json
// @Param        limit  query     int  false  "Maximum number of entries (0 for all)"
// @Success      200    {array}   model.HistoryEntry
// @Failure      400    {object}  ErrorResponse
// @Router       /v1/history [get]
func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, fmt.Errorf("%w: limit must be an integer", app_errors.ErrValidation))
			return
		}
		limit = n
	}

	entries, err := h.service.List(r.Context(), limit)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entries)
}

// DeleteHistoryEntry godoc
// @Summary      Delete an archived translation
// @Tags         History
// @Produce      json
// @Param        entryID  path      string  true  "Entry ID"
// @Success      200      {object}  StatusResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /v1/history/{entryID} [delete]
func (h *HistoryHandler) DeleteHistoryEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "entryID")); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// ClearHistory godoc
// @Summary      Delete the whole archive
// @Tags         History
// @Produce      json
// @Success      200  {object}  PurgeResponse
// @Router       /v1/history [delete]
func (h *HistoryHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Clear(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, PurgeResponse{Removed: n})
}
