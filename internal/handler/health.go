package handler

import (
	"net/http"

	"stationdocs/internal/httputil"
)

// HealthCheck reports liveness and tree size
// GET /health
func (h *TreeHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	folders, files := h.store.Stats()
	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"folders": folders,
		"files":   files,
	})
}
