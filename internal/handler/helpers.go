package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"stationdocs/internal/domain"
	models "stationdocs/internal/domain/models/hierarchy"
	"stationdocs/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var conflictErr *domain.ConflictError

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &conflictErr):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), map[string]any{
			"resource_type": conflictErr.ResourceType,
			"resource_id":   conflictErr.ResourceID,
		})
	default:
		slog.Error("unhandled error",
			"error", err,
			"path", r.URL.Path,
			"request_id", httputil.GetRequestID(r),
		)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// pathOrDefault returns p, or fallback when the client sent no path
func pathOrDefault(p models.Path, fallback models.Path) models.Path {
	if len(p) == 0 {
		return fallback
	}
	return p
}
