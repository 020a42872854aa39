package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/arvatek/protovec/internal/domain"
)

// DefaultChunkTable is the collection name used when none is configured.
const DefaultChunkTable = "protocol_chunks"

// ErrChunkNotFound is returned when no chunk exists for an id.
var ErrChunkNotFound = errors.New("chunk not found")

// dbtx is the subset of pgx operations the repository needs, satisfied by
// both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ChunkRepository persists chunk records into a pgvector-backed table.
type ChunkRepository struct {
	db    dbtx
	table string
}

func NewChunkRepository(pool *pgxpool.Pool, table string) *ChunkRepository {
	if table == "" {
		table = DefaultChunkTable
	}
	return &ChunkRepository{db: pool, table: pgx.Identifier{table}.Sanitize()}
}

// NewChunkRepositoryWithTx creates a transaction-bound repository.
func NewChunkRepositoryWithTx(tx pgx.Tx, table string) *ChunkRepository {
	if table == "" {
		table = DefaultChunkTable
	}
	return &ChunkRepository{db: tx, table: pgx.Identifier{table}.Sanitize()}
}

// UpsertChunks writes all records for one document in a single batch.
// Re-running with the same ids overwrites rather than duplicates.
func (r *ChunkRepository) UpsertChunks(ctx context.Context, records []domain.ChunkRecord) error {
	query := fmt.Sprintf(
		`INSERT INTO %s
			(id, source_file, chunk_id, document_date, section_type, content, embedding, created_at, updated_at)
		 VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
			source_file = EXCLUDED.source_file,
			chunk_id = EXCLUDED.chunk_id,
			document_date = EXCLUDED.document_date,
			section_type = EXCLUDED.section_type,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			updated_at = EXCLUDED.updated_at`,
		r.table,
	)

	for _, rec := range records {
		createdAt := rec.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		updatedAt := rec.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = createdAt
		}
		_, err := r.db.Exec(ctx, query,
			rec.ID,
			rec.SourceFile,
			rec.ChunkID,
			rec.DocumentDate,
			rec.SectionType,
			rec.Content,
			pgvector.NewVector(rec.Embedding),
			createdAt,
			updatedAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// GetByID fetches one persisted chunk record.
func (r *ChunkRepository) GetByID(ctx context.Context, id string) (*domain.ChunkRecord, error) {
	query := fmt.Sprintf(
		`SELECT id, source_file, chunk_id, document_date, section_type, content, embedding, created_at, updated_at
		 FROM %s WHERE id = $1`,
		r.table,
	)

	var rec domain.ChunkRecord
	var vec pgvector.Vector
	err := r.db.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.SourceFile,
		&rec.ChunkID,
		&rec.DocumentDate,
		&rec.SectionType,
		&rec.Content,
		&vec,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChunkNotFound
		}
		return nil, err
	}
	rec.Embedding = vec.Slice()

	return &rec, nil
}

// ListBySourceFile returns all persisted chunks for a document in chunk order.
func (r *ChunkRepository) ListBySourceFile(ctx context.Context, sourceFile string) ([]domain.ChunkRecord, error) {
	query := fmt.Sprintf(
		`SELECT id, source_file, chunk_id, document_date, section_type, content, embedding, created_at, updated_at
		 FROM %s WHERE source_file = $1 ORDER BY chunk_id`,
		r.table,
	)

	rows, err := r.db.Query(ctx, query, sourceFile)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.ChunkRecord
	for rows.Next() {
		var rec domain.ChunkRecord
		var vec pgvector.Vector
		if err := rows.Scan(
			&rec.ID,
			&rec.SourceFile,
			&rec.ChunkID,
			&rec.DocumentDate,
			&rec.SectionType,
			&rec.Content,
			&vec,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		rec.Embedding = vec.Slice()
		records = append(records, rec)
	}

	return records, rows.Err()
}
