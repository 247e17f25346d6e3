package blobstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"stationdocs/internal/repository/postgres"
)

// PostgresStore keeps blobs in a prefixed key/value table
type PostgresStore struct {
	pool *pgxpool.Pool
	repo *postgres.BlobRepository
}

// NewPostgres connects to databaseURL and makes sure the blob table exists
func NewPostgres(ctx context.Context, databaseURL, tablePrefix string, logger *slog.Logger) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the postgres blob backend")
	}

	pool, err := postgres.CreateConnectionPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	repo := postgres.NewBlobRepository(&postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(tablePrefix),
		Logger: logger,
	})
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool, repo: repo}, nil
}

func (p *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	return p.repo.Get(ctx, key)
}

func (p *PostgresStore) Put(ctx context.Context, key string, data []byte) error {
	return p.repo.Put(ctx, key, data)
}

func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	return p.repo.Delete(ctx, key)
}

func (p *PostgresStore) Type() string { return "postgres" }

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
