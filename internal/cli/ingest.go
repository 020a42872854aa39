package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arvatek/protovec/internal/telemetry"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run one ingestion pass over the document bucket",
		Long:  "Discover PDF protocols in the configured bucket, chunk them with Gemini, and upsert the embedded chunks into the vector store",
		RunE:  runIngest,
	}

	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := setupApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	chunker, err := newChunker(ctx, a.cfg)
	if err != nil {
		return err
	}

	pipeline := a.newPipeline(chunker)
	a.logger.Info("starting ingestion run",
		"run_id", pipeline.RunID(),
		"bucket", a.cfg.S3Bucket,
		"prefix", a.cfg.S3Prefix,
	)

	results, err := pipeline.ProcessAll(ctx)
	if err != nil {
		telemetry.CaptureError(ctx, err)
		return fmt.Errorf("ingestion run %s failed: %w", pipeline.RunID(), err)
	}

	total := 0
	for _, result := range results {
		a.logger.Info("document ingested", "file", result.FileName, "chunks", result.TotalChunks())
		total += result.TotalChunks()
	}
	a.logger.Info("ingestion run complete",
		"run_id", pipeline.RunID(),
		"documents", len(results),
		"chunks", total,
	)

	fmt.Fprintf(cmd.OutOrStdout(), "%d file(s) processed, %d chunk(s) stored\n", len(results), total)
	return nil
}
