// Package scans keeps the history of document compliance scans as one JSON
// blob. Storage problems never fail a caller: reads degrade to an empty
// history and writes are logged and dropped. An update whose read failed is
// dropped too, so a transient read error can't overwrite the saved history.
package scans

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"stationdocs/internal/blobstore"
	"stationdocs/internal/config"
	"stationdocs/internal/domain"
	"stationdocs/internal/domain/models/scan"
	"stationdocs/internal/metrics"
)

// Repository reads and writes the scan history
type Repository struct {
	store  blobstore.Store
	key    string
	logger *slog.Logger

	// Serializes read-modify-write cycles
	mu sync.Mutex
}

// NewRepository stores the history under config.ScanHistoryKey
func NewRepository(store blobstore.Store, logger *slog.Logger) *Repository {
	return &Repository{
		store:  store,
		key:    config.ScanHistoryKey,
		logger: logger,
	}
}

// List returns the saved history, oldest first. A missing or unreadable
// blob yields an empty list.
func (r *Repository) List(ctx context.Context) []scan.Document {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs, err := r.listLocked(ctx)
	if err != nil {
		return []scan.Document{}
	}
	return docs
}

// Save replaces the saved history
func (r *Repository) Save(ctx context.Context, docs []scan.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveLocked(ctx, docs)
}

// Add validates doc and stores it, replacing any entry with the same id.
// Returns the updated history.
func (r *Repository) Add(ctx context.Context, doc scan.Document) ([]scan.Document, error) {
	if err := validateDocument(&doc); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	docs, err := r.listLocked(ctx)
	if err != nil {
		r.skipUpdate("add", err)
		return []scan.Document{}, nil
	}
	if i := slices.IndexFunc(docs, func(d scan.Document) bool { return d.ID == doc.ID }); i >= 0 {
		docs[i] = doc
	} else {
		docs = append(docs, doc)
	}
	r.saveLocked(ctx, docs)
	return docs, nil
}

// Remove drops the entry with id and returns the remaining history.
// Unknown ids leave the history unchanged.
func (r *Repository) Remove(ctx context.Context, id string) []scan.Document {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs, err := r.listLocked(ctx)
	if err != nil {
		r.skipUpdate("remove", err)
		return []scan.Document{}
	}
	remaining := slices.DeleteFunc(docs, func(d scan.Document) bool { return d.ID == id })
	r.saveLocked(ctx, remaining)
	return remaining
}

// Clear deletes the whole history
func (r *Repository) Clear(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Delete(ctx, r.key); err != nil {
		metrics.RecordScanStoreFailure("clear")
		r.logger.Error("failed to clear scan history", "key", r.key, "error", err)
		return
	}
	r.logger.Info("scan history cleared")
}

// listLocked returns the saved history. A missing or corrupt blob is an
// empty history; only a failed read is returned as an error.
func (r *Repository) listLocked(ctx context.Context) ([]scan.Document, error) {
	data, err := r.store.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return []scan.Document{}, nil
		}
		metrics.RecordScanStoreFailure("read")
		r.logger.Error("failed to read scan history", "key", r.key, "error", err)
		return nil, err
	}

	var docs []scan.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		metrics.RecordScanStoreFailure("decode")
		r.logger.Error("scan history is corrupt, ignoring", "key", r.key, "error", err)
		return []scan.Document{}, nil
	}
	if docs == nil {
		docs = []scan.Document{}
	}
	return docs, nil
}

func (r *Repository) skipUpdate(op string, err error) {
	metrics.RecordScanStoreFailure(op)
	r.logger.Warn("scan history not updated, read failed", "op", op, "key", r.key, "error", err)
}

func (r *Repository) saveLocked(ctx context.Context, docs []scan.Document) {
	if docs == nil {
		docs = []scan.Document{}
	}

	data, err := json.Marshal(docs)
	if err != nil {
		metrics.RecordScanStoreFailure("encode")
		r.logger.Error("failed to encode scan history", "error", err)
		return
	}

	if err := r.store.Put(ctx, r.key, data); err != nil {
		metrics.RecordScanStoreFailure("write")
		r.logger.Error("failed to save scan history", "key", r.key, "count", len(docs), "error", err)
		return
	}
	r.logger.Debug("scan history saved", "count", len(docs))
}

func validateDocument(doc *scan.Document) error {
	err := validation.ValidateStruct(doc,
		validation.Field(&doc.ID, validation.Required),
		validation.Field(&doc.Name, validation.Required),
		validation.Field(&doc.Progress, validation.Min(0), validation.Max(100)),
		validation.Field(&doc.Status,
			validation.Required,
			validation.In(scan.StatusScanning, scan.StatusComplete, scan.StatusError),
		),
		validation.Field(&doc.ComplianceStatus,
			validation.In(scan.ComplianceCompliant, scan.ComplianceIssues, scan.ComplianceReview),
		),
	)
	if err != nil {
		return &domain.ValidationError{Message: err.Error()}
	}
	return nil
}
