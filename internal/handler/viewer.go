package handler

import (
	"bytes"
	"log/slog"
	"mime"
	"net/http"
	"time"

	models "stationdocs/internal/domain/models/hierarchy"
	"stationdocs/internal/httputil"
	"stationdocs/internal/service/viewer"
)

// ViewerService is the session surface the viewer endpoints need
type ViewerService interface {
	Open(id string) (viewer.State, error)
	Close()
	State() viewer.State
	NextPage() (viewer.State, error)
	PrevPage() (viewer.State, error)
	SeekPage(i int) (viewer.State, error)
}

// BlobSource resolves transient URLs to their bytes
type BlobSource interface {
	Lookup(id string) (*models.FileHandle, bool)
}

// ViewerHandler drives the document viewer and serves its transient URLs
type ViewerHandler struct {
	session ViewerService
	blobs   BlobSource
	logger  *slog.Logger
}

// NewViewerHandler creates a new viewer handler
func NewViewerHandler(session ViewerService, blobs BlobSource, logger *slog.Logger) *ViewerHandler {
	return &ViewerHandler{
		session: session,
		blobs:   blobs,
		logger:  logger,
	}
}

// OpenRequest names the file to view
type OpenRequest struct {
	ID string `json:"id"`
}

// SeekRequest jumps to a page
type SeekRequest struct {
	Page int `json:"page"`
}

// Open selects a file and binds it to the viewer
// POST /api/viewer
func (h *ViewerHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondParseError(w, err)
		return
	}
	if req.ID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "id is required")
		return
	}

	state, err := h.session.Open(req.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, state)
}

// GetState returns the viewer state; open=false when nothing is open
// GET /api/viewer
func (h *ViewerHandler) GetState(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.session.State())
}

// Next moves to the next page
// POST /api/viewer/next
func (h *ViewerHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.respondNav(w, r, h.session.NextPage)
}

// Prev moves to the previous page
// POST /api/viewer/prev
func (h *ViewerHandler) Prev(w http.ResponseWriter, r *http.Request) {
	h.respondNav(w, r, h.session.PrevPage)
}

// Seek jumps to a page, clamped into range
// POST /api/viewer/seek
func (h *ViewerHandler) Seek(w http.ResponseWriter, r *http.Request) {
	var req SeekRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondParseError(w, err)
		return
	}
	h.respondNav(w, r, func() (viewer.State, error) { return h.session.SeekPage(req.Page) })
}

func (h *ViewerHandler) respondNav(w http.ResponseWriter, r *http.Request, move func() (viewer.State, error)) {
	state, err := move()
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, state)
}

// Close closes the viewer and releases its URL
// DELETE /api/viewer
func (h *ViewerHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.session.Close()
	w.WriteHeader(http.StatusNoContent)
}

// ServeBlob serves the bytes behind a live transient URL. Released URLs 404.
// GET /blobs/{id}
func (h *ViewerHandler) ServeBlob(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.blobs.Lookup(r.PathValue("id"))
	if !ok {
		httputil.RespondError(w, http.StatusNotFound, "url has been released")
		return
	}

	w.Header().Set("Content-Type", handle.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": handle.Name}))
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, handle.Name, time.Time{}, bytes.NewReader(handle.Data))
}
