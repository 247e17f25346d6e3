package viewer

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	models "stationdocs/internal/domain/models/hierarchy"
	"stationdocs/internal/metrics"

	"github.com/google/uuid"
)

// ErrEmptyHandle is returned when minting a URL over a handle with no bytes
var ErrEmptyHandle = errors.New("file handle has no content")

// URLMinter creates transient URLs over in-memory file handles
type URLMinter interface {
	Mint(handle *models.FileHandle) (*Lease, error)
}

// Lease owns one transient URL. Release revokes it; calling Release more
// than once is harmless.
type Lease struct {
	URL     string
	release func()
	once    sync.Once
}

// Release revokes the URL
func (l *Lease) Release() {
	if l == nil {
		return
	}
	l.once.Do(func() {
		if l.release != nil {
			l.release()
		}
	})
}

// BlobRegistry keeps uploaded bytes addressable under short-lived URLs
// (<base><uuid>) until their lease is released.
type BlobRegistry struct {
	mu      sync.RWMutex
	baseURL string
	blobs   map[string]*models.FileHandle
}

// NewBlobRegistry creates a registry whose URLs start with baseURL (e.g. "/blobs/")
func NewBlobRegistry(baseURL string) *BlobRegistry {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &BlobRegistry{
		baseURL: baseURL,
		blobs:   make(map[string]*models.FileHandle),
	}
}

// Mint registers handle under a fresh URL
func (r *BlobRegistry) Mint(handle *models.FileHandle) (*Lease, error) {
	if handle == nil || len(handle.Data) == 0 {
		return nil, ErrEmptyHandle
	}

	id := uuid.NewString()
	r.mu.Lock()
	r.blobs[id] = handle
	r.mu.Unlock()
	metrics.TransientURLMinted()

	return &Lease{
		URL:     r.baseURL + id,
		release: func() { r.revoke(id) },
	}, nil
}

func (r *BlobRegistry) revoke(id string) {
	r.mu.Lock()
	_, ok := r.blobs[id]
	delete(r.blobs, id)
	r.mu.Unlock()

	if ok {
		metrics.TransientURLRevoked()
	}
}

// Lookup returns the handle behind a blob id, if its URL is still live
func (r *BlobRegistry) Lookup(id string) (*models.FileHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.blobs[id]
	return h, ok
}

// Live counts unreleased URLs
func (r *BlobRegistry) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blobs)
}

// IDFromURL extracts the blob id from a URL minted by this registry
func (r *BlobRegistry) IDFromURL(url string) (string, error) {
	id, ok := strings.CutPrefix(url, r.baseURL)
	if !ok || id == "" {
		return "", fmt.Errorf("not a blob url: %s", url)
	}
	return id, nil
}
