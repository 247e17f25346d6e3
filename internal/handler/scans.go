package handler

import (
	"context"
	"log/slog"
	"net/http"

	"stationdocs/internal/domain/models/scan"
	"stationdocs/internal/httputil"
)

// ScanHistory is the saved scan results surface
type ScanHistory interface {
	List(ctx context.Context) []scan.Document
	Add(ctx context.Context, doc scan.Document) ([]scan.Document, error)
	Remove(ctx context.Context, id string) []scan.Document
	Clear(ctx context.Context)
}

// ScanHandler serves the saved scan history
type ScanHandler struct {
	history ScanHistory
	logger  *slog.Logger
}

// NewScanHandler creates a new scan handler
func NewScanHandler(history ScanHistory, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{
		history: history,
		logger:  logger,
	}
}

// List returns every saved scan
// GET /api/scans
func (h *ScanHandler) List(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.history.List(r.Context()))
}

// Save adds or replaces one scan result and returns the history
// POST /api/scans
func (h *ScanHandler) Save(w http.ResponseWriter, r *http.Request) {
	var doc scan.Document
	if err := httputil.ParseJSON(w, r, &doc); err != nil {
		httputil.RespondParseError(w, err)
		return
	}

	docs, err := h.history.Add(r.Context(), doc)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, docs)
}

// Remove drops one scan and returns what is left
// DELETE /api/scans/{id}
func (h *ScanHandler) Remove(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.history.Remove(r.Context(), r.PathValue("id")))
}

// Clear deletes the whole history
// DELETE /api/scans
func (h *ScanHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.history.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
