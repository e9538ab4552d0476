package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"lexrag/internal/domain"
)

type legalChunkStore struct {
	pool *pgxpool.Pool
}

// NewLegalChunkStore creates a ChunkStore backed by the legal_chunks table.
func NewLegalChunkStore(pool *pgxpool.Pool) domain.ChunkStore {
	return &legalChunkStore{pool: pool}
}

func embeddingColumn(field domain.EmbeddingField) string {
	if field == domain.EmbeddingFallback {
		return "embedding_fallback"
	}
	return "embedding_primary"
}

func (s *legalChunkStore) GetChunksWithEmbeddings(ctx context.Context, documentID string, field domain.EmbeddingField) ([]domain.Chunk, error) {
	column := embeddingColumn(field)
	query := fmt.Sprintf(`
		SELECT id, document_id, order_number, content, embedding_primary, embedding_fallback, created_at
		FROM legal_chunks
		WHERE document_id = $1 AND %s IS NOT NULL
		ORDER BY order_number ASC
	`, column)

	rows, err := s.pool.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query embedded chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

func (s *legalChunkStore) GetChunksByOrder(ctx context.Context, documentID string, orderNumbers []int) ([]domain.Chunk, error) {
	if len(orderNumbers) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, document_id, order_number, content, embedding_primary, embedding_fallback, created_at
		FROM legal_chunks
		WHERE document_id = $1 AND order_number = ANY($2)
		ORDER BY order_number ASC
	`
	rows, err := s.pool.Query(ctx, query, documentID, orderNumbers)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks by order: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

func (s *legalChunkStore) CountEmbeddings(ctx context.Context, documentID string) (domain.EmbeddingCounts, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(embedding_primary),
		       COUNT(embedding_fallback)
		FROM legal_chunks
		WHERE document_id = $1
	`
	var counts domain.EmbeddingCounts
	err := s.pool.QueryRow(ctx, query, documentID).Scan(&counts.Total, &counts.Primary, &counts.Fallback)
	if err != nil {
		return domain.EmbeddingCounts{}, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return counts, nil
}

func scanChunks(rows pgx.Rows) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for rows.Next() {
		var (
			c        domain.Chunk
			primary  *pgvector.Vector
			fallback *pgvector.Vector
		)
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.OrderNumber, &c.Text, &primary, &fallback, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if primary != nil {
			c.EmbeddingPrimary = *primary
		}
		if fallback != nil {
			c.EmbeddingFallback = *fallback
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return chunks, nil
}
