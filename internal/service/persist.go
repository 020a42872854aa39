package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arvatek/protovec/internal/domain"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChunkRepository defines the repository interface for persisting chunk records
type ChunkRepository interface {
	UpsertChunks(ctx context.Context, records []domain.ChunkRecord) error
}

// PersistService turns extracted chunks into vector-store records: it
// resolves the source file, embeds each chunk's content, and upserts the
// whole document in one batch.
type PersistService struct {
	client EmbeddingClient
	repo   ChunkRepository
	logger *slog.Logger
}

// NewPersistService creates a new PersistService instance
func NewPersistService(client EmbeddingClient, repo ChunkRepository, logger *slog.Logger) *PersistService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersistService{
		client: client,
		repo:   repo,
		logger: logger,
	}
}

// Upsert embeds and stores all chunks of one document. Chunks without a
// source_file are resolved to displayName; pre-set values are kept. The
// write is idempotent per derived storage id.
func (s *PersistService) Upsert(ctx context.Context, chunks []domain.Chunk, displayName string) error {
	if len(chunks) == 0 {
		s.logger.Warn("no chunks to persist", "file", displayName)
		return nil
	}

	now := time.Now().UTC()
	records := make([]domain.ChunkRecord, 0, len(chunks))
	for _, chunk := range chunks {
		resolved := domain.ResolveSource(chunk, displayName)

		embedding, err := s.client.GenerateEmbedding(ctx, resolved.Content)
		if err != nil {
			return fmt.Errorf("failed to generate embedding for chunk %d of %s: %w", resolved.ChunkID, displayName, err)
		}

		records = append(records, domain.NewChunkRecord(resolved, displayName, embedding, now))
	}

	if err := s.repo.UpsertChunks(ctx, records); err != nil {
		return fmt.Errorf("failed to upsert chunks for %s: %w", displayName, err)
	}

	s.logger.Info("persisted chunks", "file", displayName, "chunks", len(records))
	return nil
}
