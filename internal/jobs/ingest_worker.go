package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arvatek/protovec/internal/domain"
	"github.com/arvatek/protovec/internal/telemetry"
)

// PipelineRunner runs one full ingestion pass over the document source.
type PipelineRunner interface {
	ProcessAll(ctx context.Context) ([]domain.ProcessingResult, error)
	RunID() string
}

// IngestWorker drives periodic re-ingestion runs. Each tick starts a fresh
// pipeline so every run gets its own run id.
type IngestWorker struct {
	newRun func() PipelineRunner
	logger *slog.Logger
}

// NewIngestWorker creates a new IngestWorker instance
func NewIngestWorker(newRun func() PipelineRunner, logger *slog.Logger) *IngestWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestWorker{
		newRun: newRun,
		logger: logger,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *IngestWorker) ProcessJobs(ctx context.Context) error {
	run := w.newRun()

	results, err := run.ProcessAll(ctx)
	if err != nil {
		telemetry.CaptureError(ctx, err)
		return fmt.Errorf("ingestion run %s failed: %w", run.RunID(), err)
	}

	total := 0
	for _, result := range results {
		total += result.TotalChunks()
	}
	w.logger.Info("ingestion run complete",
		"run_id", run.RunID(),
		"documents", len(results),
		"chunks", total,
	)
	return nil
}
