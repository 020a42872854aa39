package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/googleai/vertex"
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
)

// EmbedderConfig holds Vertex AI embedding settings.
type EmbedderConfig struct {
	Project         string
	Location        string
	CredentialsFile string
	Model           string
	Dimensions      int
}

// Embedder generates embeddings through Vertex AI with dimension validation.
type Embedder struct {
	embedder   embeddings.Embedder
	dimensions int
}

// NewEmbedder builds a Vertex AI backed embedder.
func NewEmbedder(ctx context.Context, cfg EmbedderConfig) (*Embedder, error) {
	opts := []googleai.Option{
		googleai.WithCloudProject(cfg.Project),
		googleai.WithCloudLocation(cfg.Location),
		googleai.WithDefaultEmbeddingModel(cfg.Model),
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, googleai.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := vertex.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &Embedder{embedder: embedder, dimensions: cfg.Dimensions}, nil
}

// GenerateEmbedding generates an embedding vector for the given text.
func (e *Embedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(vectors) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	embedding := vectors[0]
	if e.dimensions > 0 && len(embedding) != e.dimensions {
		return nil, fmt.Errorf("embedding has wrong dimensions: got %d, want %d", len(embedding), e.dimensions)
	}

	return embedding, nil
}
