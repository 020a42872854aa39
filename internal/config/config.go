package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Embedding provider identifiers accepted in PROTOVEC_EMBEDDING_PROVIDER.
const (
	ProviderVertex = "vertex"
	ProviderOpenAI = "openai"
)

type Config struct {
	Debug bool `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	ChunkTable  string `envconfig:"CHUNK_TABLE" default:"protocol_chunks"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" required:"true"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Prefix    string `envconfig:"S3_PREFIX" default:""`

	GoogleProject     string `envconfig:"GOOGLE_PROJECT_ID"`
	GoogleLocation    string `envconfig:"GOOGLE_LOCATION" default:"me-west1"`
	GoogleCredentials string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`

	ChunkModel string `envconfig:"CHUNK_MODEL" default:"gemini-2.5-pro"`

	EmbeddingProvider   string `envconfig:"EMBEDDING_PROVIDER" default:"vertex"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-004"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"768"`
	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE"`

	// Bare SENTRY_DSN / ENVIRONMENT also work: envconfig falls back to the
	// unprefixed tag name when the PROTOVEC_ variant is unset.
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("PROTOVEC", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.EmbeddingProvider != ProviderVertex && cfg.EmbeddingProvider != ProviderOpenAI {
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbeddingProvider)
	}

	return &cfg, nil
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}

func (c *Config) HasGoogle() bool {
	return c.GoogleProject != ""
}
