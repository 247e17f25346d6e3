package handler

import (
	"net/http"

	"stationdocs/internal/metrics"
)

// Handlers groups every handler the router serves
type Handlers struct {
	Tree   *TreeHandler
	Drop   *DropHandler
	Viewer *ViewerHandler
	Scans  *ScanHandler
}

// RegisterRoutes mounts all endpoints on mux (Go 1.22+ patterns)
func RegisterRoutes(mux *http.ServeMux, h Handlers) {
	mux.HandleFunc("GET /health", h.Tree.HealthCheck)
	mux.Handle("GET /metrics", metrics.Handler())

	// Browsing
	mux.HandleFunc("GET /api/tree", h.Tree.GetTree)
	mux.HandleFunc("GET /api/items", h.Tree.ListItems)
	mux.HandleFunc("GET /api/items/{id}", h.Tree.GetItem)
	mux.HandleFunc("DELETE /api/items/{id}", h.Tree.DeleteItem)
	mux.HandleFunc("GET /api/cursor", h.Tree.GetCursor)
	mux.HandleFunc("PUT /api/cursor", h.Tree.SetCursor)

	// Creation
	mux.HandleFunc("POST /api/folders", h.Tree.CreateFolder)
	mux.HandleFunc("POST /api/files", h.Tree.AddFiles)

	// Drag and drop
	mux.HandleFunc("POST /api/drops/check", h.Drop.Check)
	mux.HandleFunc("POST /api/drops", h.Drop.Drop)

	// Viewer
	mux.HandleFunc("POST /api/viewer", h.Viewer.Open)
	mux.HandleFunc("GET /api/viewer", h.Viewer.GetState)
	mux.HandleFunc("POST /api/viewer/next", h.Viewer.Next)
	mux.HandleFunc("POST /api/viewer/prev", h.Viewer.Prev)
	mux.HandleFunc("POST /api/viewer/seek", h.Viewer.Seek)
	mux.HandleFunc("DELETE /api/viewer", h.Viewer.Close)
	mux.HandleFunc("GET /blobs/{id}", h.Viewer.ServeBlob)

	// Saved scans
	mux.HandleFunc("GET /api/scans", h.Scans.List)
	mux.HandleFunc("POST /api/scans", h.Scans.Save)
	mux.HandleFunc("DELETE /api/scans/{id}", h.Scans.Remove)
	mux.HandleFunc("DELETE /api/scans", h.Scans.Clear)
}
