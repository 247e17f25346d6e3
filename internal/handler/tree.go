package handler

import (
	"log/slog"
	"net/http"

	models "stationdocs/internal/domain/models/hierarchy"
	"stationdocs/internal/httputil"
)

// TreeService is the hierarchy surface the tree endpoints need
type TreeService interface {
	RootLabel() string
	RootPath() models.Path
	Tree() []models.Node
	Stats() (folders, files int)
	CurrentItems() []models.Node
	CurrentPath() models.Path
	SetCurrentPath(path models.Path)
	ListAt(path models.Path) ([]models.Node, error)
	Get(id string) (*models.Node, error)
	Delete(id string) (int, error)
	CreateFolder(name string, path models.Path) (*models.Node, error)
	AddFiles(items []models.FileInput) ([]models.Node, error)
}

// TreeHandler serves browsing and structural edits of the hierarchy
type TreeHandler struct {
	store  TreeService
	logger *slog.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(store TreeService, logger *slog.Logger) *TreeHandler {
	return &TreeHandler{
		store:  store,
		logger: logger,
	}
}

// TreeResponse is the whole hierarchy
type TreeResponse struct {
	Root    string        `json:"root"`
	Items   []models.Node `json:"items"`
	Folders int           `json:"folders"`
	Files   int           `json:"files"`
}

// ListResponse is one folder's contents
type ListResponse struct {
	Path  models.Path   `json:"path"`
	Items []models.Node `json:"items"`
}

// GetTree returns the nested hierarchy
// GET /api/tree
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	folders, files := h.store.Stats()
	httputil.RespondJSON(w, http.StatusOK, TreeResponse{
		Root:    h.store.RootLabel(),
		Items:   h.store.Tree(),
		Folders: folders,
		Files:   files,
	})
}

// ListItems returns the folder named by ?path=Home/A/B, or the cursor's
// folder when path is absent. The cursor listing never fails; an explicit
// path that doesn't resolve is a 404.
// GET /api/items
func (h *TreeHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("path")
	if raw == "" {
		httputil.RespondJSON(w, http.StatusOK, ListResponse{
			Path:  h.store.CurrentPath(),
			Items: h.store.CurrentItems(),
		})
		return
	}

	path := models.ParsePath(raw)
	items, err := h.store.ListAt(path)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, ListResponse{Path: path, Items: items})
}

// GetItem returns one node
// GET /api/items/{id}
func (h *TreeHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	node, err := h.store.Get(r.PathValue("id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, node)
}

// DeleteItem removes a node and its subtree
// DELETE /api/items/{id}
func (h *TreeHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	removed, err := h.store.Delete(r.PathValue("id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// CursorRequest moves the browsing cursor
type CursorRequest struct {
	Path models.Path `json:"path"`
}

// GetCursor returns the current path and its items
// GET /api/cursor
func (h *TreeHandler) GetCursor(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, ListResponse{
		Path:  h.store.CurrentPath(),
		Items: h.store.CurrentItems(),
	})
}

// SetCursor replaces the current path. Any path is accepted; one that
// doesn't resolve lists as empty.
// PUT /api/cursor
func (h *TreeHandler) SetCursor(w http.ResponseWriter, r *http.Request) {
	var req CursorRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondParseError(w, err)
		return
	}
	if len(req.Path) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "path is required")
		return
	}

	h.store.SetCurrentPath(req.Path)
	httputil.RespondJSON(w, http.StatusOK, ListResponse{
		Path:  h.store.CurrentPath(),
		Items: h.store.CurrentItems(),
	})
}

// CreateFolderRequest names a new folder. Path defaults to the cursor.
type CreateFolderRequest struct {
	Name string      `json:"name"`
	Path models.Path `json:"path,omitempty"`
}

// CreateFolder adds an empty folder
// POST /api/folders
func (h *TreeHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondParseError(w, err)
		return
	}

	node, err := h.store.CreateFolder(req.Name, pathOrDefault(req.Path, h.store.CurrentPath()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, node)
}
