// Package gemini wraps the Vertex AI Gemini API for document chunking and
// embedding generation.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/googleai/vertex"

	"github.com/arvatek/protovec/internal/domain"
)

// chunkingPrompt is the fixed instruction set sent with every document. The
// model must answer with a bare JSON array of chunk objects; any
// conversational text is a contract violation.
const chunkingPrompt = `Role: You are an expert document parser and data analyst specialized in multilingual administrative protocols.

Task: Analyze the attached PDF document, extract the document date, and partition its content into logical, context-aware chunks.

Instructions for PDF Processing:

Metadata Extraction: Identify the Document Date (e.g., "Date") typically found in the header or the beginning of the protocol. This date must be included in every chunk as document_date.

OCR & Extraction: Extract the text from the PDF precisely as it appears. Maintain the original structure, line breaks (\n), and numbering.

Language Consistency: The content of the chunks must be in the exact same language as the source text in the PDF. Do not translate, paraphrase, or adapt the text into another language.

Semantic Segmentation:

Header-and-Agenda: Group the metadata (meeting title, committee name, date, participants, and the initial list of topics) into the first chunk.

Topic-Discussion: Identify sections where specific topics are discussed (e.g., sections labeled 2.1, 2.2, etc.). Each distinct topic, including its discussion and internal details, must be placed in its own individual chunk.

Closing-and-Decisions: Group the final "Decisions" or "Summary" section into a final chunk.

Data Integrity: Do not summarize, edit, or fix typos. The content must be a verbatim reflection of the PDF text.

JSON Output: Your response must be strictly a valid JSON array of objects with the fields chunk_id (integer, sequential from 0), document_date (string or null), section_type (string), content (string), source_file (string or null). Do not include any conversational text.

Constraints:

If the document date is missing or cannot be identified, set the document_date value to null.

Ensure all characters are encoded correctly.

Preserve the vertical layout of the original document within the content field.`

var (
	// ErrNoChoices is returned when the model produces no candidates
	ErrNoChoices = errors.New("model returned no choices")
	// ErrEmptyDocument is returned when the document payload is empty
	ErrEmptyDocument = errors.New("document payload is empty")
)

// contentGenerator is the slice of llms.Model the client needs; tests provide
// a mock implementation.
type contentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Config holds Vertex AI connection settings for the chunking client.
type Config struct {
	Project         string
	Location        string
	CredentialsFile string
	Model           string
}

// Client sends protocol documents to a Gemini model and parses the structured
// chunk response.
type Client struct {
	model contentGenerator
	name  string
}

// NewClient builds a Vertex AI backed chunking client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	opts := []googleai.Option{
		googleai.WithCloudProject(cfg.Project),
		googleai.WithCloudLocation(cfg.Location),
		googleai.WithDefaultModel(cfg.Model),
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, googleai.WithCredentialsFile(cfg.CredentialsFile))
	}

	model, err := vertex.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}

	return &Client{model: model, name: cfg.Model}, nil
}

// ChunkDocument sends one document's raw bytes plus the fixed instruction set
// to the model and returns the extracted chunks in extraction order. No
// retries are performed.
func (c *Client) ChunkDocument(ctx context.Context, pdf []byte, displayName string) ([]domain.Chunk, error) {
	if len(pdf) == 0 {
		return nil, ErrEmptyDocument
	}

	messages := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(chunkingPrompt),
				llms.TextPart(fmt.Sprintf("Process this PDF document: %s", displayName)),
				llms.BinaryPart("application/pdf", pdf),
			},
		},
	}

	resp, err := c.model.GenerateContent(ctx, messages, llms.WithTemperature(0.0), llms.WithJSONMode())
	if err != nil {
		return nil, fmt.Errorf("chunking request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	chunks, err := parseChunks(resp.Choices[0].Content)
	if err != nil {
		return nil, err
	}

	return chunks, nil
}

// parseChunks decodes the model response into chunk records. Markdown code
// fences are tolerated; everything else must be a JSON array conforming to
// the chunk schema.
func parseChunks(raw string) ([]domain.Chunk, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if !strings.HasPrefix(text, "[") {
		return nil, fmt.Errorf("model response is not a JSON array")
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()

	var chunks []domain.Chunk
	if err := dec.Decode(&chunks); err != nil {
		return nil, fmt.Errorf("failed to parse chunk response: %w", err)
	}

	for i, chunk := range chunks {
		if chunk.Content == "" {
			return nil, fmt.Errorf("chunk %d has empty content", i)
		}
		if chunk.SectionType == "" {
			return nil, fmt.Errorf("chunk %d has empty section_type", i)
		}
	}

	return chunks, nil
}
