package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arvatek/protovec/internal/jobs"
)

// WatchCmd returns the watch command
func WatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-ingest the document bucket on an interval",
		Long:  "Run the ingestion pipeline periodically until interrupted. Each pass is a full, serial ingestion run; re-runs of unchanged documents overwrite their existing chunks in place.",
		RunE:  runWatch,
	}

	cmd.Flags().Duration("interval", 15*time.Minute, "Time between ingestion passes")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	interval, _ := cmd.Flags().GetDuration("interval")

	processor := jobs.NewIngestWorker(func() jobs.PipelineRunner {
		return a.newPipeline(chunker)
	}, a.logger)

	worker := jobs.NewWorker(processor, interval, a.logger)
	go worker.Start(ctx)
	a.logger.Info("watch started", "interval", interval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	a.logger.Info("shutting down")

	worker.Stop()
	return nil
}
