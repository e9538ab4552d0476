package domain

import "context"

// EmbeddingService defines the capability to embed a query with the model
// matching a chunk embedding field. The same field must be used for both the
// query and the chunks of one ranking.
type EmbeddingService interface {
	EmbedQuery(ctx context.Context, text string, field EmbeddingField) ([]float32, error)

	// ModelName returns the model identifier behind a field, for diagnostics.
	ModelName(field EmbeddingField) string
}
