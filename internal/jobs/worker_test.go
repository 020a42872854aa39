package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/arvatek/protovec/internal/domain"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockPipelineRunner is a mock implementation of PipelineRunner
type MockPipelineRunner struct {
	mock.Mock
}

func (m *MockPipelineRunner) ProcessAll(ctx context.Context) ([]domain.ProcessingResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProcessingResult), args.Error(1)
}

func (m *MockPipelineRunner) RunID() string {
	args := m.Called()
	return args.String(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start worker in goroutine
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	// Let it run for a bit
	time.Sleep(250 * time.Millisecond)

	// Stop worker
	worker.Stop()
	wg.Wait()

	// Verify ProcessJobs was called at least once
	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_ContextCancellation tests worker stops on context cancellation
func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())

	// Start worker in goroutine
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	// Let it run for a bit
	time.Sleep(150 * time.Millisecond)

	// Cancel context
	cancel()
	wg.Wait()

	// Verify ProcessJobs was called
	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestIngestWorker_ProcessJobs_Success tests a successful ingestion pass
func TestIngestWorker_ProcessJobs_Success(t *testing.T) {
	runner := new(MockPipelineRunner)
	runner.On("ProcessAll", mock.Anything).Return([]domain.ProcessingResult{
		{FileName: "jan.pdf", Chunks: []domain.Chunk{{ChunkID: 0}}},
		{FileName: "feb.pdf", Chunks: []domain.Chunk{{ChunkID: 0}, {ChunkID: 1}}},
	}, nil)
	runner.On("RunID").Return("run-1")

	worker := NewIngestWorker(func() PipelineRunner { return runner }, discardLogger())
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	runner.AssertExpectations(t)
}

// TestIngestWorker_ProcessJobs_RunError tests error propagation from a failed run
func TestIngestWorker_ProcessJobs_RunError(t *testing.T) {
	runner := new(MockPipelineRunner)
	runner.On("ProcessAll", mock.Anything).Return(nil, errors.New("bucket unreachable"))
	runner.On("RunID").Return("run-2")

	worker := NewIngestWorker(func() PipelineRunner { return runner }, discardLogger())
	err := worker.ProcessJobs(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ingestion run run-2 failed")
	assert.Contains(t, err.Error(), "bucket unreachable")
}

// TestIngestWorker_ProcessJobs_FreshRunPerTick tests that each pass gets its own runner
func TestIngestWorker_ProcessJobs_FreshRunPerTick(t *testing.T) {
	calls := 0
	newRun := func() PipelineRunner {
		calls++
		runner := new(MockPipelineRunner)
		runner.On("ProcessAll", mock.Anything).Return([]domain.ProcessingResult{}, nil)
		runner.On("RunID").Return("run")
		return runner
	}

	worker := NewIngestWorker(newRun, discardLogger())
	assert.NoError(t, worker.ProcessJobs(context.Background()))
	assert.NoError(t, worker.ProcessJobs(context.Background()))
	assert.Equal(t, 2, calls)
}
