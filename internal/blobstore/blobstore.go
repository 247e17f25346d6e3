// Package blobstore defines the key/value Store used to persist small
// documents (such as the scan history) and its backends.
package blobstore

import (
	"context"
	"errors"
	"time"

	"stationdocs/internal/domain"
	"stationdocs/internal/metrics"
)

// ErrNotFound is matched by every backend's error for a missing key
var ErrNotFound = domain.ErrNotFound

// Store is a flat key/value blob store
type Store interface {
	// Get returns the bytes stored under key, or an error matching ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put creates or replaces key.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Type returns the backend identifier ("memory", "file", "postgres", "s3").
	Type() string

	// Close releases any resources held by the backend.
	Close() error
}

// instrumented records latency and status for every call to the wrapped store
type instrumented struct {
	Store
}

// WithMetrics wraps s so each operation is recorded in Prometheus
func WithMetrics(s Store) Store {
	return instrumented{Store: s}
}

func (i instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	data, err := i.Store.Get(ctx, key)
	observe(i.Type(), "get", start, err)
	return data, err
}

func (i instrumented) Put(ctx context.Context, key string, data []byte) error {
	start := time.Now()
	err := i.Store.Put(ctx, key, data)
	observe(i.Type(), "put", start, err)
	return err
}

func (i instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := i.Store.Delete(ctx, key)
	observe(i.Type(), "delete", start, err)
	return err
}

func observe(backend, operation string, start time.Time, err error) {
	// A miss is an answer, not a failure
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	metrics.RecordBlobOperation(backend, operation, time.Since(start), err)
}
