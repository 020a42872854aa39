package domain

import (
	"fmt"
	"strings"
)

// Section types the chunking model is instructed to emit. The pipeline does
// not validate membership; the field stays an open string on the wire.
const (
	SectionHeaderAgenda     = "Header-and-Agenda"
	SectionTopicDiscussion  = "Topic-Discussion"
	SectionClosingDecisions = "Closing-and-Decisions"
)

// Chunk is one semantically coherent text segment extracted from a protocol
// document. The JSON tags are the wire contract with the chunking service.
type Chunk struct {
	ChunkID      int     `json:"chunk_id"`
	DocumentDate *string `json:"document_date"`
	SectionType  string  `json:"section_type"`
	Content      string  `json:"content"`
	SourceFile   string  `json:"source_file"`
}

// ResolveSource returns a copy of c with SourceFile set to fallback when the
// chunking service left it unset. A pre-set SourceFile is never overwritten.
func ResolveSource(c Chunk, fallback string) Chunk {
	if c.SourceFile == "" {
		c.SourceFile = fallback
	}
	return c
}

// StorageID derives the vector-store document id for a chunk. Path separators
// and periods are flattened to underscores so the id satisfies the store's
// key constraints and stays collision-resistant across documents.
func StorageID(sourceFile string, chunkID int) string {
	id := fmt.Sprintf("%s_%d", sourceFile, chunkID)
	id = strings.ReplaceAll(id, "/", "_")
	return strings.ReplaceAll(id, ".", "_")
}

// ProcessingResult is the aggregated outcome of processing one document.
// It is constructed once after chunking completes and not modified afterwards.
type ProcessingResult struct {
	FileName string
	Chunks   []Chunk
}

// TotalChunks reports the number of extracted chunks.
func (r ProcessingResult) TotalChunks() int {
	return len(r.Chunks)
}
