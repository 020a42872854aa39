package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arvatek/protovec/internal/cli"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "protovec",
		Short: "Protocol PDF ingestion pipeline",
		Long: `Protovec ingests meeting protocol PDFs from S3-compatible storage,
chunks them semantically with Gemini, and stores the embedded chunks
in a pgvector-backed Postgres table.

Configuration is read from PROTOVEC_* environment variables (a .env
file in the working directory is loaded if present).`,
		Version: version,
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(cli.IngestCmd())
	rootCmd.AddCommand(cli.WatchCmd())
	rootCmd.AddCommand(cli.VerifyCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "ingest")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
