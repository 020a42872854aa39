package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arvatek/protovec/internal/domain"
)

// MockEmbeddingClient is a mock implementation of EmbeddingClient
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockChunkRepository is a mock implementation of ChunkRepository
type MockChunkRepository struct {
	mock.Mock
}

func (m *MockChunkRepository) UpsertChunks(ctx context.Context, records []domain.ChunkRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func TestPersistService_Upsert_BackfillsSourceFile(t *testing.T) {
	client := new(MockEmbeddingClient)
	client.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{0.1, 0.2}, nil)

	repo := new(MockChunkRepository)
	repo.On("UpsertChunks", mock.Anything, mock.MatchedBy(func(records []domain.ChunkRecord) bool {
		return len(records) == 2 &&
			records[0].SourceFile == "jan.pdf" &&
			records[0].ID == "jan_pdf_0" &&
			records[1].SourceFile == "minutes.PDF" &&
			records[1].ID == "jan_pdf_1"
	})).Return(nil)

	svc := NewPersistService(client, repo, testLogger())

	chunks := []domain.Chunk{
		{ChunkID: 0, SectionType: domain.SectionHeaderAgenda, Content: "opening"},
		{ChunkID: 1, SectionType: domain.SectionTopicDiscussion, Content: "budget", SourceFile: "minutes.PDF"},
	}
	require.NoError(t, svc.Upsert(context.Background(), chunks, "jan.pdf"))
	repo.AssertExpectations(t)
}

func TestPersistService_Upsert_StorageIDKeyedOnDisplayName(t *testing.T) {
	client := new(MockEmbeddingClient)
	client.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)

	// A model-supplied source_file must not change the storage key; the same
	// document always targets the same rows regardless of what the chunking
	// service filled in.
	repo := new(MockChunkRepository)
	repo.On("UpsertChunks", mock.Anything, mock.MatchedBy(func(records []domain.ChunkRecord) bool {
		return len(records) == 1 &&
			records[0].ID == "2024_jan_pdf_1" &&
			records[0].SourceFile == "minutes.PDF"
	})).Return(nil)

	svc := NewPersistService(client, repo, testLogger())

	chunks := []domain.Chunk{
		{ChunkID: 1, SectionType: domain.SectionTopicDiscussion, Content: "budget", SourceFile: "minutes.PDF"},
	}
	require.NoError(t, svc.Upsert(context.Background(), chunks, "2024/jan.pdf"))
	repo.AssertExpectations(t)
}

func TestPersistService_Upsert_SingleBatch(t *testing.T) {
	client := new(MockEmbeddingClient)
	client.On("GenerateEmbedding", mock.Anything, "a").Return([]float32{1}, nil)
	client.On("GenerateEmbedding", mock.Anything, "b").Return([]float32{2}, nil)
	client.On("GenerateEmbedding", mock.Anything, "c").Return([]float32{3}, nil)

	repo := new(MockChunkRepository)
	repo.On("UpsertChunks", mock.Anything, mock.MatchedBy(func(records []domain.ChunkRecord) bool {
		return len(records) == 3
	})).Return(nil).Once()

	svc := NewPersistService(client, repo, testLogger())

	chunks := []domain.Chunk{
		{ChunkID: 0, SectionType: domain.SectionHeaderAgenda, Content: "a"},
		{ChunkID: 1, SectionType: domain.SectionTopicDiscussion, Content: "b"},
		{ChunkID: 2, SectionType: domain.SectionClosingDecisions, Content: "c"},
	}
	require.NoError(t, svc.Upsert(context.Background(), chunks, "doc.pdf"))
	repo.AssertNumberOfCalls(t, "UpsertChunks", 1)
}

func TestPersistService_Upsert_EmptyChunks(t *testing.T) {
	client := new(MockEmbeddingClient)
	repo := new(MockChunkRepository)

	svc := NewPersistService(client, repo, testLogger())

	require.NoError(t, svc.Upsert(context.Background(), nil, "empty.pdf"))
	client.AssertNotCalled(t, "GenerateEmbedding", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpsertChunks", mock.Anything, mock.Anything)
}

func TestPersistService_Upsert_EmbeddingError(t *testing.T) {
	client := new(MockEmbeddingClient)
	client.On("GenerateEmbedding", mock.Anything, "ok").Return([]float32{1}, nil)
	client.On("GenerateEmbedding", mock.Anything, "bad").Return(nil, errors.New("quota exhausted"))

	repo := new(MockChunkRepository)

	svc := NewPersistService(client, repo, testLogger())

	chunks := []domain.Chunk{
		{ChunkID: 0, SectionType: domain.SectionHeaderAgenda, Content: "ok"},
		{ChunkID: 1, SectionType: domain.SectionTopicDiscussion, Content: "bad"},
	}
	err := svc.Upsert(context.Background(), chunks, "doc.pdf")
	require.Error(t, err)
	assert.ErrorContains(t, err, "chunk 1 of doc.pdf")
	assert.ErrorContains(t, err, "quota exhausted")
	repo.AssertNotCalled(t, "UpsertChunks", mock.Anything, mock.Anything)
}

func TestPersistService_Upsert_RepositoryError(t *testing.T) {
	client := new(MockEmbeddingClient)
	client.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1}, nil)

	repo := new(MockChunkRepository)
	repo.On("UpsertChunks", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	svc := NewPersistService(client, repo, testLogger())

	chunks := []domain.Chunk{{ChunkID: 0, SectionType: domain.SectionHeaderAgenda, Content: "x"}}
	err := svc.Upsert(context.Background(), chunks, "doc.pdf")
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to upsert chunks for doc.pdf")
}
