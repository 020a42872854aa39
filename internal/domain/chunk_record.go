package domain

import "time"

// ChunkRecord is the vector-store row for one persisted chunk: the resolved
// chunk fields plus its embedding and the derived storage id.
type ChunkRecord struct {
	ID           string
	SourceFile   string
	ChunkID      int
	DocumentDate *string
	SectionType  string
	Content      string
	Embedding    []float32
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewChunkRecord builds the store row for a resolved chunk. The storage id is
// keyed on the document's display name, never on the chunk's SourceFile, so
// re-ingesting a document always targets the same rows.
func NewChunkRecord(c Chunk, displayName string, embedding []float32, now time.Time) ChunkRecord {
	return ChunkRecord{
		ID:           StorageID(displayName, c.ChunkID),
		SourceFile:   c.SourceFile,
		ChunkID:      c.ChunkID,
		DocumentDate: c.DocumentDate,
		SectionType:  c.SectionType,
		Content:      c.Content,
		Embedding:    embedding,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
