package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// EmbeddingField identifies which embedding column of a chunk participates in
// a ranking. Primary and fallback vectors come from different models with
// different dimensions, so a single ranking must never mix them.
type EmbeddingField int

const (
	EmbeddingPrimary EmbeddingField = iota
	EmbeddingFallback
)

func (f EmbeddingField) String() string {
	if f == EmbeddingFallback {
		return "fallback"
	}
	return "primary"
}

// Chunk is a contiguous, ordered span of a legal document's text.
// OrderNumber is 1-based, unique and contiguous within a document; the store
// enforces that invariant and adjacency lookups rely on it.
type Chunk struct {
	ID                uuid.UUID
	DocumentID        string
	OrderNumber       int
	Text              string
	EmbeddingPrimary  pgvector.Vector
	EmbeddingFallback pgvector.Vector
	CreatedAt         time.Time
}

// Embedding returns the vector for the given field, or nil when that field
// was never populated for this chunk.
func (c Chunk) Embedding(field EmbeddingField) []float32 {
	var v pgvector.Vector
	if field == EmbeddingFallback {
		v = c.EmbeddingFallback
	} else {
		v = c.EmbeddingPrimary
	}
	if len(v.Slice()) == 0 {
		return nil
	}
	return v.Slice()
}

// EmbeddingCounts summarizes how many chunks of a document carry each
// embedding field.
type EmbeddingCounts struct {
	Total    int
	Primary  int
	Fallback int
}

// Capability reports whether a document can be served through the RAG
// retrieval pipeline at all.
type Capability struct {
	TotalChunks                 int
	ChunksWithPrimaryEmbedding  int
	ChunksWithFallbackEmbedding int
	HasRagCapability            bool
}
