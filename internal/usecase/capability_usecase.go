package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"lexrag/internal/domain"
)

// CapabilityUsecase reports whether a document can be served via RAG
// retrieval, and in which embedding space.
type CapabilityUsecase interface {
	Execute(ctx context.Context, documentID string) (*domain.Capability, error)
}

type capabilityUsecase struct {
	store  domain.ChunkStore
	logger *slog.Logger
}

// NewCapabilityUsecase creates a CapabilityUsecase.
func NewCapabilityUsecase(store domain.ChunkStore, logger *slog.Logger) CapabilityUsecase {
	return &capabilityUsecase{store: store, logger: logger}
}

func (u *capabilityUsecase) Execute(ctx context.Context, documentID string) (*domain.Capability, error) {
	if documentID == "" {
		return nil, fmt.Errorf("%w: empty document id", domain.ErrInvalidInput)
	}

	counts, err := u.store.CountEmbeddings(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count embeddings: %w", err)
	}

	capability := &domain.Capability{
		TotalChunks:                 counts.Total,
		ChunksWithPrimaryEmbedding:  counts.Primary,
		ChunksWithFallbackEmbedding: counts.Fallback,
		HasRagCapability:            counts.Primary > 0 || counts.Fallback > 0,
	}

	u.logger.Info("capability_checked",
		slog.String("document_id", documentID),
		slog.Int("total_chunks", capability.TotalChunks),
		slog.Int("primary_embedded", capability.ChunksWithPrimaryEmbedding),
		slog.Int("fallback_embedded", capability.ChunksWithFallbackEmbedding),
		slog.Bool("has_rag_capability", capability.HasRagCapability))

	return capability, nil
}
