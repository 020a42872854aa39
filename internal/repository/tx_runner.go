package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arvatek/protovec/internal/domain"
)

// TxRunner provides transaction-bound chunk repositories using a pgx pool.
type TxRunner struct {
	pool  *pgxpool.Pool
	table string
}

func NewTxRunner(pool *pgxpool.Pool, table string) *TxRunner {
	return &TxRunner{pool: pool, table: table}
}

func (r *TxRunner) WithTx(ctx context.Context, fn func(repo *ChunkRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(NewChunkRepositoryWithTx(tx, r.table)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

// TxChunkStore runs each batch upsert inside one transaction. A failed write
// leaves no partial document behind.
type TxChunkStore struct {
	runner *TxRunner
}

func NewTxChunkStore(pool *pgxpool.Pool, table string) *TxChunkStore {
	return &TxChunkStore{runner: NewTxRunner(pool, table)}
}

// UpsertChunks writes all records within a single transaction.
func (s *TxChunkStore) UpsertChunks(ctx context.Context, records []domain.ChunkRecord) error {
	return s.runner.WithTx(ctx, func(repo *ChunkRepository) error {
		return repo.UpsertChunks(ctx, records)
	})
}
