package service

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/arvatek/protovec/internal/domain"
	"github.com/arvatek/protovec/internal/telemetry"
)

// DocumentSource defines the interface for listing and reading source documents
type DocumentSource interface {
	ListDocuments(ctx context.Context, prefix string) ([]string, error)
	Download(ctx context.Context, key string) ([]byte, error)
}

// Chunker defines the interface for the semantic chunking service
type Chunker interface {
	ChunkDocument(ctx context.Context, pdf []byte, displayName string) ([]domain.Chunk, error)
}

// ChunkSink defines the interface for persisting a document's chunks
type ChunkSink interface {
	Upsert(ctx context.Context, chunks []domain.Chunk, displayName string) error
}

// Pipeline orchestrates the ingestion run. It discovers documents and then
// processes them strictly one at a time, in discovery order. The chunking and
// embedding backends are rate-limited external services, so documents are
// never processed concurrently.
type Pipeline struct {
	source  DocumentSource
	chunker Chunker
	sink    ChunkSink
	prefix  string
	logger  *slog.Logger
	runID   string
}

// NewPipeline creates a new Pipeline instance. The logger is injected so
// callers (and tests) control where progress reporting goes.
func NewPipeline(source DocumentSource, chunker Chunker, sink ChunkSink, prefix string, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:  source,
		chunker: chunker,
		sink:    sink,
		prefix:  prefix,
		logger:  logger,
		runID:   uuid.NewString(),
	}
}

// RunID identifies this pipeline run in logs and traces.
func (p *Pipeline) RunID() string {
	return p.runID
}

// DiscoverDocuments lists the document source under the configured prefix and
// returns the keys of PDF documents (case-insensitive extension match), in
// listing order. An empty listing is not an error.
func (p *Pipeline) DiscoverDocuments(ctx context.Context) ([]string, error) {
	keys, err := p.source.ListDocuments(ctx, p.prefix)
	if err != nil {
		return nil, domain.NewDiscoveryError(err)
	}

	pdfs := make([]string, 0, len(keys))
	for _, key := range keys {
		if strings.HasSuffix(strings.ToLower(key), ".pdf") {
			pdfs = append(pdfs, key)
		}
	}

	p.logger.Info("discovered documents", "run_id", p.runID, "prefix", p.prefix, "count", len(pdfs))
	return pdfs, nil
}

// ProcessAll runs the full pipeline over every discovered document and
// returns one ProcessingResult per document, in discovery order. The run is
// fail-fast: the first failure aborts the batch and no partial result list
// is returned.
func (p *Pipeline) ProcessAll(ctx context.Context) ([]domain.ProcessingResult, error) {
	docs, err := p.DiscoverDocuments(ctx)
	if err != nil {
		return nil, err
	}

	if len(docs) == 0 {
		p.logger.Warn("no documents found, nothing to process", "run_id", p.runID)
		return []domain.ProcessingResult{}, nil
	}

	results := make([]domain.ProcessingResult, 0, len(docs))
	for i, key := range docs {
		p.logger.Info("processing document",
			"run_id", p.runID,
			"progress", fmt.Sprintf("%d/%d", i+1, len(docs)),
			"key", key,
		)

		result, err := p.processDocument(ctx, key)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	p.logger.Info("pipeline complete", "run_id", p.runID, "processed", len(results), "total", len(docs))
	return results, nil
}

// processDocument downloads, chunks, and persists a single document. A stage
// failure is wrapped with its stage code and aborts the run.
func (p *Pipeline) processDocument(ctx context.Context, key string) (domain.ProcessingResult, error) {
	displayName := path.Base(key)

	spanCtx, span := telemetry.StartSpan(ctx, "pipeline.process_document", telemetry.SpanAttributes{
		RunID:    p.runID,
		Document: displayName,
	})
	defer span.End()

	span.SetStage("acquisition")
	data, err := p.source.Download(spanCtx, key)
	if err != nil {
		span.SetError(err)
		return domain.ProcessingResult{}, domain.NewAcquisitionError(key, err)
	}
	p.logger.Info("downloaded document", "run_id", p.runID, "file", displayName, "bytes", len(data))

	span.SetStage("chunking")
	chunks, err := p.chunker.ChunkDocument(spanCtx, data, displayName)
	if err != nil {
		span.SetError(err)
		return domain.ProcessingResult{}, domain.NewChunkingError(displayName, err)
	}

	result := domain.ProcessingResult{FileName: displayName, Chunks: chunks}
	p.logger.Info("extracted chunks", "run_id", p.runID, "file", displayName, "chunks", result.TotalChunks())

	span.SetStage("persistence")
	if err := p.sink.Upsert(spanCtx, chunks, displayName); err != nil {
		span.SetError(err)
		return domain.ProcessingResult{}, domain.NewPersistenceError(displayName, err)
	}

	return result, nil
}
