package domain

import "context"

// ChunkStore defines the read operations the retrieval pipeline needs from
// the external chunk persistence layer. The pipeline never mutates the store.
type ChunkStore interface {
	// GetChunksWithEmbeddings retrieves all chunks of a document whose given
	// embedding field is populated, ordered by order number.
	GetChunksWithEmbeddings(ctx context.Context, documentID string, field EmbeddingField) ([]Chunk, error)

	// GetChunksByOrder retrieves the chunks of a document with the given
	// order numbers. Missing order numbers are silently omitted.
	GetChunksByOrder(ctx context.Context, documentID string, orderNumbers []int) ([]Chunk, error)

	// CountEmbeddings reports how many chunks of a document exist and how
	// many carry each embedding field.
	CountEmbeddings(ctx context.Context, documentID string) (EmbeddingCounts, error)
}
