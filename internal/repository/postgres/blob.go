package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"stationdocs/internal/domain"
)

// BlobRepository keeps opaque values in a key/value table
type BlobRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewBlobRepository creates a new BlobRepository
func NewBlobRepository(config *RepositoryConfig) *BlobRepository {
	return &BlobRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// EnsureSchema creates the blob table if it doesn't exist
func (r *BlobRepository) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, r.tables.Blobs)

	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", r.tables.Blobs, err)
	}
	return nil
}

// DropSchema removes the blob table
func (r *BlobRepository) DropSchema(ctx context.Context) error {
	query := fmt.Sprintf(`DROP TABLE IF EXISTS %s`, r.tables.Blobs)
	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query); err != nil {
		return fmt.Errorf("drop %s: %w", r.tables.Blobs, err)
	}
	return nil
}

// Get returns the value stored under key
func (r *BlobRepository) Get(ctx context.Context, key string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, r.tables.Blobs)

	var value []byte
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("blob %q not found", key)}
		}
		if IsPgUndefinedTableError(err) {
			return nil, fmt.Errorf("get blob %q: table %s missing, run cmd/seed -schema-only: %w", key, r.tables.Blobs, err)
		}
		return nil, fmt.Errorf("get blob %q: %w", key, err)
	}
	return value, nil
}

// Put creates or replaces the value under key
func (r *BlobRepository) Put(ctx context.Context, key string, value []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`, r.tables.Blobs)

	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("upsert blob %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *BlobRepository) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, r.tables.Blobs)
	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query, key); err != nil {
		return fmt.Errorf("delete blob %q: %w", key, err)
	}
	return nil
}

// Clear removes every row and returns how many were deleted
func (r *BlobRepository) Clear(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s`, r.tables.Blobs)
	tag, err := GetExecutor(ctx, r.pool).Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", r.tables.Blobs, err)
	}
	return tag.RowsAffected(), nil
}
