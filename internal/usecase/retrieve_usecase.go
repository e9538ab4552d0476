package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lexrag/internal/domain"
	"lexrag/internal/infra/logger"
	"lexrag/internal/usecase/retrieval"
)

// RetrieveInput defines the parameters of one retrieval request. Zero values
// for the optional fields mean "use the configured default".
type RetrieveInput struct {
	DocumentID          string
	Question            string
	TopK                int
	SimilarityThreshold float64
	IncludeAdjacent     bool
	// AdjacentSet reports whether IncludeAdjacent was set explicitly; when
	// false the configured default applies.
	AdjacentSet bool
}

// RetrieveUsecase runs the retrieval pipeline for one document question.
type RetrieveUsecase interface {
	Execute(ctx context.Context, input RetrieveInput) (*domain.RetrievalResult, error)
}

type retrieveUsecase struct {
	store    domain.ChunkStore
	embedder domain.EmbeddingService
	config   RetrievalConfig
	logger   *slog.Logger
}

// NewRetrieveUsecase creates a RetrieveUsecase. The pipeline itself is
// stateless: each Execute call computes its ranking from scratch.
func NewRetrieveUsecase(
	store domain.ChunkStore,
	embedder domain.EmbeddingService,
	config RetrievalConfig,
	logger *slog.Logger,
) RetrieveUsecase {
	return &retrieveUsecase{
		store:    store,
		embedder: embedder,
		config:   config,
		logger:   logger,
	}
}

func (u *retrieveUsecase) Execute(ctx context.Context, input RetrieveInput) (*domain.RetrievalResult, error) {
	retrievalID := uuid.NewString()
	ctx = logger.WithRetrievalID(ctx, retrievalID)
	start := time.Now()

	query, err := retrieval.ExpandQuery(input.Question)
	if err != nil {
		return nil, err
	}

	topK := input.TopK
	if topK <= 0 {
		topK = u.config.TopK
	}
	threshold := input.SimilarityThreshold
	if threshold <= 0 {
		threshold = u.config.SimilarityThreshold
	}
	includeAdjacent := u.config.MaxAdjacent > 0
	if input.AdjacentSet {
		includeAdjacent = input.IncludeAdjacent
	}

	u.logger.Info("retrieval_started",
		slog.String("retrieval_id", retrievalID),
		slog.String("document_id", input.DocumentID),
		slog.String("question", query.RawText),
		slog.Any("intents", intentNames(query)),
		slog.Int("top_k", topK))

	counts, err := u.store.CountEmbeddings(ctx, input.DocumentID)
	if err != nil {
		return nil, u.wrapStoreErr(err, "failed to count embeddings")
	}
	field, ok := retrieval.ChooseField(counts)
	if !ok {
		u.logger.Warn("no_embeddings_available",
			slog.String("retrieval_id", retrievalID),
			slog.String("document_id", input.DocumentID),
			slog.Int("total_chunks", counts.Total))
		return nil, fmt.Errorf("%w: document %s has no embedded chunks", domain.ErrNoEmbeddingsAvailable, input.DocumentID)
	}

	queryEmbedding, err := u.embedder.EmbedQuery(logger.WithStage(ctx, "query_embedding"), query.ExpandedText, field)
	if err != nil {
		if isDeadline(err) {
			return nil, fmt.Errorf("%w: query embedding: %v", domain.ErrRetrievalTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingServiceFailure, err)
	}

	chunks, err := u.store.GetChunksWithEmbeddings(ctx, input.DocumentID, field)
	if err != nil {
		return nil, u.wrapStoreErr(err, "failed to load chunks")
	}

	candidates := retrieval.RetrieveCandidates(queryEmbedding, chunks, field, u.config.NumCandidates)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: document %s has no embedded chunks in the %s field", domain.ErrNoEmbeddingsAvailable, input.DocumentID, field)
	}

	retrieval.ScoreBM25(query.ExpandedText, candidates)
	reranked := retrieval.Rerank(candidates, query, u.config.Weights)
	selected := retrieval.SelectDiverse(reranked, topK, u.config.MMRLambda)

	assembleCfg := retrieval.AssembleConfig{
		Threshold:        threshold,
		RelaxationFactor: u.config.RelaxationFactor,
		MinChunks:        u.config.MinChunks,
		MaxAdjacent:      u.config.MaxAdjacent,
		IncludeAdjacent:  includeAdjacent,
		TotalChunks:      counts.Total,
	}
	assembled, diagnostics, err := retrieval.AssembleContext(logger.WithStage(ctx, "context_assembly"), input.DocumentID, selected, u.store, assembleCfg, u.logger)
	if err != nil {
		return nil, u.wrapStoreErr(err, "failed to assemble context")
	}
	diagnostics.CandidatesSeen = len(candidates)

	u.logger.Info("retrieval_completed",
		slog.String("retrieval_id", retrievalID),
		slog.String("document_id", input.DocumentID),
		slog.String("embedding_field", field.String()),
		slog.Int("candidates_seen", diagnostics.CandidatesSeen),
		slog.Int("post_filter_count", diagnostics.PostFilterCount),
		slog.Float64("threshold_used", diagnostics.ThresholdUsed),
		slog.Bool("threshold_relaxed", diagnostics.ThresholdRelaxed),
		slog.Int("chunks_returned", len(assembled)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return &domain.RetrievalResult{
		RetrievalID: retrievalID,
		DocumentID:  input.DocumentID,
		Query:       query,
		Field:       field,
		Chunks:      assembled,
		Diagnostics: diagnostics,
	}, nil
}

// wrapStoreErr maps deadline expiry at the store boundary onto the retrieval
// timeout sentinel; other store failures propagate wrapped.
func (u *retrieveUsecase) wrapStoreErr(err error, msg string) error {
	if isDeadline(err) {
		return fmt.Errorf("%w: %s: %v", domain.ErrRetrievalTimeout, msg, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func isDeadline(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

func intentNames(query domain.Query) []string {
	names := make([]string, 0, len(query.Intents))
	for _, intent := range []domain.Intent{
		domain.IntentDecision, domain.IntentParties, domain.IntentFacts,
		domain.IntentLegalBasis, domain.IntentAmount, domain.IntentGeneral,
	} {
		if query.Intents[intent] {
			names = append(names, string(intent))
		}
	}
	return names
}
