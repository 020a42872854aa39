package domain

import "fmt"

// PipelineError represents a failure in one stage of the ingestion pipeline.
type PipelineError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a PipelineError with the same code, so stage
// sentinels work with errors.Is regardless of the wrapped cause.
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Pipeline stage error codes
const (
	ErrCodeDiscovery   = "DISCOVERY_ERROR"
	ErrCodeAcquisition = "ACQUISITION_ERROR"
	ErrCodeChunking    = "CHUNKING_ERROR"
	ErrCodePersistence = "PERSISTENCE_ERROR"
)

// Stage sentinels for errors.Is comparisons. Every error the pipeline
// returns wraps exactly one of these codes.
var (
	ErrDiscovery   = &PipelineError{Code: ErrCodeDiscovery, Message: "listing the document source failed"}
	ErrAcquisition = &PipelineError{Code: ErrCodeAcquisition, Message: "reading document bytes failed"}
	ErrChunking    = &PipelineError{Code: ErrCodeChunking, Message: "chunking service failed"}
	ErrPersistence = &PipelineError{Code: ErrCodePersistence, Message: "vector store upsert failed"}
)

// NewDiscoveryError wraps a listing failure.
func NewDiscoveryError(err error) *PipelineError {
	return &PipelineError{Code: ErrCodeDiscovery, Message: "listing the document source failed", Err: err}
}

// NewAcquisitionError wraps a failed read of one document's bytes.
func NewAcquisitionError(name string, err error) *PipelineError {
	return &PipelineError{Code: ErrCodeAcquisition, Message: fmt.Sprintf("reading %s failed", name), Err: err}
}

// NewChunkingError wraps an unreachable chunking service, a malformed
// response, or output that violates the chunk schema.
func NewChunkingError(name string, err error) *PipelineError {
	return &PipelineError{Code: ErrCodeChunking, Message: fmt.Sprintf("chunking %s failed", name), Err: err}
}

// NewPersistenceError wraps a failed vector-store upsert.
func NewPersistenceError(name string, err error) *PipelineError {
	return &PipelineError{Code: ErrCodePersistence, Message: fmt.Sprintf("persisting chunks for %s failed", name), Err: err}
}
