package handler

import (
	"log/slog"
	"net/http"

	models "stationdocs/internal/domain/models/hierarchy"
	"stationdocs/internal/httputil"
	"stationdocs/internal/service/dragdrop"
)

// DropService is the store surface drag and drop needs
type DropService interface {
	dragdrop.NodeReader
	dragdrop.Mover
}

// DropHandler answers hover checks and performs drops
type DropHandler struct {
	store  DropService
	logger *slog.Logger
}

// NewDropHandler creates a new drop handler
func NewDropHandler(store DropService, logger *slog.Logger) *DropHandler {
	return &DropHandler{
		store:  store,
		logger: logger,
	}
}

// DropRequest names the dragged node and the folder it is over
type DropRequest struct {
	ID     string      `json:"id"`
	Target models.Path `json:"target"`
}

// CheckResponse is the hover feedback for a target
type CheckResponse struct {
	dragdrop.HoverState
	Reason string `json:"reason,omitempty"`
}

func (h *DropHandler) parse(w http.ResponseWriter, r *http.Request) (dragdrop.Payload, *dragdrop.Target, bool) {
	var req DropRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondParseError(w, err)
		return dragdrop.Payload{}, nil, false
	}
	if req.ID == "" || len(req.Target) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "id and target are required")
		return dragdrop.Payload{}, nil, false
	}

	payload, err := dragdrop.Begin(h.store, req.ID)
	if err != nil {
		handleError(w, r, err)
		return dragdrop.Payload{}, nil, false
	}
	return payload, dragdrop.NewTarget(req.Target, h.store, h.logger), true
}

// Check reports whether the target would accept the dragged node
// POST /api/drops/check
func (h *DropHandler) Check(w http.ResponseWriter, r *http.Request) {
	payload, target, ok := h.parse(w, r)
	if !ok {
		return
	}

	resp := CheckResponse{HoverState: target.Hover(&payload)}
	if err := target.Check(payload); err != nil {
		resp.Reason = err.Error()
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// Drop moves the dragged node into the target when the move is legal. A
// rejected drop is a normal outcome: 200 with moved=false and a reason.
// POST /api/drops
func (h *DropHandler) Drop(w http.ResponseWriter, r *http.Request) {
	payload, target, ok := h.parse(w, r)
	if !ok {
		return
	}

	result, err := target.Drop(payload)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}
