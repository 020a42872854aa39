package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arvatek/protovec/internal/domain"
)

// VerifyCmd returns the verify command
func VerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the embedding and vector store wiring",
		Long:  "Push a single synthetic chunk through the real embedding and persistence path to confirm credentials, connectivity, and the target table",
		RunE:  runVerify,
	}

	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := setupApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	date := "2026-02-23"
	chunk := domain.Chunk{
		ChunkID:      999,
		DocumentDate: &date,
		SectionType:  "Verification Test",
		Content:      "This is a test document to verify vector store integration with the configured embedding provider.",
		SourceFile:   "test_verification.pdf",
	}

	a.logger.Info("verifying embedding and persistence path",
		"provider", a.cfg.EmbeddingProvider,
		"table", a.cfg.ChunkTable,
	)

	if err := a.sink.Upsert(ctx, []domain.Chunk{chunk}, "test_verification.pdf"); err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "verification chunk %s stored successfully\n",
		domain.StorageID("test_verification.pdf", chunk.ChunkID))
	return nil
}
