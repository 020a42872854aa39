package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/arvatek/protovec/internal/domain"
)

// MockModel mocks the Gemini content generation API
type MockModel struct {
	mock.Mock
}

func (m *MockModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	args := m.Called(ctx, messages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llms.ContentResponse), args.Error(1)
}

func modelResponse(content string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: content}},
	}
}

func TestChunkDocument_Success(t *testing.T) {
	mockModel := new(MockModel)
	client := &Client{model: mockModel, name: "gemini-2.5-pro"}

	ctx := context.Background()
	response := `[
		{"chunk_id": 0, "document_date": "2024-01-15", "section_type": "Header-and-Agenda", "content": "Meeting header", "source_file": null},
		{"chunk_id": 1, "document_date": "2024-01-15", "section_type": "Topic-Discussion", "content": "2.1 Budget", "source_file": null}
	]`
	mockModel.On("GenerateContent", ctx, mock.Anything).Return(modelResponse(response), nil)

	chunks, err := client.ChunkDocument(ctx, []byte("%PDF-1.4"), "report.pdf")

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].ChunkID)
	assert.Equal(t, domain.SectionHeaderAgenda, chunks[0].SectionType)
	require.NotNil(t, chunks[0].DocumentDate)
	assert.Equal(t, "2024-01-15", *chunks[0].DocumentDate)
	assert.Equal(t, "", chunks[0].SourceFile)
	assert.Equal(t, 1, chunks[1].ChunkID)
	mockModel.AssertExpectations(t)
}

func TestChunkDocument_SendsPromptAndPayload(t *testing.T) {
	mockModel := new(MockModel)
	client := &Client{model: mockModel, name: "gemini-2.5-pro"}

	ctx := context.Background()
	pdf := []byte("%PDF-1.4 test payload")
	mockModel.On("GenerateContent", ctx, mock.MatchedBy(func(messages []llms.MessageContent) bool {
		if len(messages) != 1 || len(messages[0].Parts) != 3 {
			return false
		}
		prompt, ok := messages[0].Parts[0].(llms.TextContent)
		if !ok || prompt.Text != chunkingPrompt {
			return false
		}
		name, ok := messages[0].Parts[1].(llms.TextContent)
		if !ok || name.Text != "Process this PDF document: report.pdf" {
			return false
		}
		binary, ok := messages[0].Parts[2].(llms.BinaryContent)
		return ok && binary.MIMEType == "application/pdf" && string(binary.Data) == string(pdf)
	})).Return(modelResponse(`[{"chunk_id": 0, "document_date": null, "section_type": "Header-and-Agenda", "content": "x", "source_file": null}]`), nil)

	_, err := client.ChunkDocument(ctx, pdf, "report.pdf")

	require.NoError(t, err)
	mockModel.AssertExpectations(t)
}

func TestChunkDocument_StripsCodeFences(t *testing.T) {
	mockModel := new(MockModel)
	client := &Client{model: mockModel, name: "gemini-2.5-pro"}

	ctx := context.Background()
	response := "```json\n[{\"chunk_id\": 0, \"document_date\": null, \"section_type\": \"Closing-and-Decisions\", \"content\": \"Decisions\", \"source_file\": \"minutes.PDF\"}]\n```"
	mockModel.On("GenerateContent", ctx, mock.Anything).Return(modelResponse(response), nil)

	chunks, err := client.ChunkDocument(ctx, []byte("%PDF"), "minutes.PDF")

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "minutes.PDF", chunks[0].SourceFile)
	assert.Nil(t, chunks[0].DocumentDate)
}

func TestChunkDocument_ConversationalResponse(t *testing.T) {
	mockModel := new(MockModel)
	client := &Client{model: mockModel, name: "gemini-2.5-pro"}

	ctx := context.Background()
	mockModel.On("GenerateContent", ctx, mock.Anything).
		Return(modelResponse("Sure! Here are the chunks you asked for."), nil)

	chunks, err := client.ChunkDocument(ctx, []byte("%PDF"), "report.pdf")

	assert.Error(t, err)
	assert.Nil(t, chunks)
	assert.Contains(t, err.Error(), "not a JSON array")
}

func TestChunkDocument_SchemaViolation(t *testing.T) {
	mockModel := new(MockModel)
	client := &Client{model: mockModel, name: "gemini-2.5-pro"}

	ctx := context.Background()
	// chunk with unknown field must not be silently coerced
	response := `[{"chunk_id": 0, "document_date": null, "section_type": "Header-and-Agenda", "content": "x", "source_file": null, "summary": "invented"}]`
	mockModel.On("GenerateContent", ctx, mock.Anything).Return(modelResponse(response), nil)

	chunks, err := client.ChunkDocument(ctx, []byte("%PDF"), "report.pdf")

	assert.Error(t, err)
	assert.Nil(t, chunks)
}

func TestChunkDocument_EmptyContent(t *testing.T) {
	mockModel := new(MockModel)
	client := &Client{model: mockModel, name: "gemini-2.5-pro"}

	ctx := context.Background()
	response := `[{"chunk_id": 0, "document_date": null, "section_type": "Header-and-Agenda", "content": "", "source_file": null}]`
	mockModel.On("GenerateContent", ctx, mock.Anything).Return(modelResponse(response), nil)

	_, err := client.ChunkDocument(ctx, []byte("%PDF"), "report.pdf")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty content")
}

func TestChunkDocument_APIError(t *testing.T) {
	mockModel := new(MockModel)
	client := &Client{model: mockModel, name: "gemini-2.5-pro"}

	ctx := context.Background()
	apiErr := errors.New("vertex: resource exhausted")
	mockModel.On("GenerateContent", ctx, mock.Anything).Return(nil, apiErr)

	chunks, err := client.ChunkDocument(ctx, []byte("%PDF"), "report.pdf")

	assert.Error(t, err)
	assert.Nil(t, chunks)
	assert.True(t, errors.Is(err, apiErr))
}

func TestChunkDocument_NoChoices(t *testing.T) {
	mockModel := new(MockModel)
	client := &Client{model: mockModel, name: "gemini-2.5-pro"}

	ctx := context.Background()
	mockModel.On("GenerateContent", ctx, mock.Anything).Return(&llms.ContentResponse{}, nil)

	_, err := client.ChunkDocument(ctx, []byte("%PDF"), "report.pdf")

	assert.Equal(t, ErrNoChoices, err)
}

func TestChunkDocument_EmptyDocument(t *testing.T) {
	client := &Client{model: new(MockModel), name: "gemini-2.5-pro"}

	_, err := client.ChunkDocument(context.Background(), nil, "report.pdf")

	assert.Equal(t, ErrEmptyDocument, err)
}

func TestParseChunks_EmptyArray(t *testing.T) {
	chunks, err := parseChunks("[]")

	require.NoError(t, err)
	assert.Empty(t, chunks)
}
