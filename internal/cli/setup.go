package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/arvatek/protovec/internal/config"
	"github.com/arvatek/protovec/internal/database"
	"github.com/arvatek/protovec/internal/gemini"
	"github.com/arvatek/protovec/internal/openai"
	"github.com/arvatek/protovec/internal/repository"
	"github.com/arvatek/protovec/internal/service"
	"github.com/arvatek/protovec/internal/storage"
	"github.com/arvatek/protovec/internal/telemetry"
)

// app holds the fully wired pipeline dependencies shared by the commands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	pool   *pgxpool.Pool
	store  *storage.S3DocumentStore
	sink   *service.PersistService

	cleanups []func()
}

// close releases resources in reverse setup order.
func (a *app) close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
}

// newPipeline builds a fresh pipeline run over the wired dependencies.
// Chunker construction is deferred to setup since only ingestion needs it.
func (a *app) newPipeline(chunker service.Chunker) *service.Pipeline {
	return service.NewPipeline(a.store, chunker, a.sink, a.cfg.S3Prefix, a.logger)
}

// setupApp loads configuration and wires the database, object store,
// embedding provider, and telemetry. Migrations run unless --no-migrate
// is set on the command.
func setupApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, closeLogger := config.SetupLogger(cfg.LogFile, config.ParseLevel(cfg.LogLevel))

	a := &app{cfg: cfg, logger: logger}
	a.cleanups = append(a.cleanups, func() { _ = closeLogger() })

	// Initialize Sentry with tracing if a DSN is configured
	if cfg.HasSentry() {
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			logger.Warn("telemetry init failed, continuing without tracing", "error", err)
		} else {
			a.cleanups = append(a.cleanups, shutdownTelemetry)
		}
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.pool = pool
	a.cleanups = append(a.cleanups, pool.Close)
	logger.Info("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
			a.close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	store, err := storage.NewS3DocumentStore(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    cfg.S3Endpoint != "",
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create document store: %w", err)
	}
	a.store = store

	embedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	chunkStore := repository.NewTxChunkStore(pool, cfg.ChunkTable)
	a.sink = service.NewPersistService(embedder, chunkStore, logger)

	return a, nil
}

// newEmbedder selects the embedding backend from configuration.
func newEmbedder(ctx context.Context, cfg *config.Config) (service.EmbeddingClient, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		client, err := openai.NewClient(openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			EmbeddingDimensions: cfg.EmbeddingDimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		return client, nil
	default:
		if !cfg.HasGoogle() {
			return nil, fmt.Errorf("vertex embedding provider requires PROTOVEC_GOOGLE_PROJECT_ID")
		}
		embedder, err := gemini.NewEmbedder(ctx, gemini.EmbedderConfig{
			Project:         cfg.GoogleProject,
			Location:        cfg.GoogleLocation,
			CredentialsFile: cfg.GoogleCredentials,
			Model:           cfg.EmbeddingModel,
			Dimensions:      cfg.EmbeddingDimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create vertex embedder: %w", err)
		}
		return embedder, nil
	}
}

// newChunker builds the Gemini chunking client from configuration.
func newChunker(ctx context.Context, cfg *config.Config) (*gemini.Client, error) {
	if !cfg.HasGoogle() {
		return nil, fmt.Errorf("chunking requires PROTOVEC_GOOGLE_PROJECT_ID")
	}
	client, err := gemini.NewClient(ctx, gemini.Config{
		Project:         cfg.GoogleProject,
		Location:        cfg.GoogleLocation,
		CredentialsFile: cfg.GoogleCredentials,
		Model:           cfg.ChunkModel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chunking client: %w", err)
	}
	return client, nil
}

func runMigrations(databaseURL string, logger *slog.Logger) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		logger.Info("migrations: database is up to date, no migrations applied")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else {
		logger.Info("migrations: database ready", "version", version)
	}

	return nil
}
