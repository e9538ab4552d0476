package di

import (
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"lexrag/internal/adapter/embedding"
	"lexrag/internal/adapter/rag_http"
	"lexrag/internal/adapter/repository"
	"lexrag/internal/domain"
	"lexrag/internal/infra/config"
	"lexrag/internal/infra/httpclient"
	"lexrag/internal/infra/logger"
	"lexrag/internal/usecase"
	"lexrag/internal/usecase/retrieval"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	ChunkStore domain.ChunkStore
	Embedder   domain.EmbeddingService

	RetrieveUsecase   usecase.RetrieveUsecase
	CapabilityUsecase usecase.CapabilityUsecase

	Handler *rag_http.Handler

	RetrievalConfig usecase.RetrievalConfig
}

// NewApplicationComponents wires all dependencies from config and pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) (*ApplicationComponents, error) {
	chunkStore := repository.NewLegalChunkStore(pool)

	embedderHTTP := httpclient.NewPooledClient(time.Duration(cfg.Embedder.TimeoutSeconds) * time.Second)
	embedder := embedding.NewOllamaEmbedder(
		cfg.Embedder.URL,
		cfg.Embedder.PrimaryModel,
		cfg.Embedder.FallbackModel,
		embedderHTTP,
	)

	retrievalConfig := usecase.RetrievalConfig{
		NumCandidates:       cfg.Retrieval.NumCandidates,
		TopK:                cfg.Retrieval.TopK,
		SimilarityThreshold: cfg.Retrieval.SimilarityThreshold,
		RelaxationFactor:    cfg.Retrieval.RelaxationFactor,
		MinChunks:           usecase.DefaultRetrievalConfig().MinChunks,
		MMRLambda:           cfg.Retrieval.MMRLambda,
		MaxAdjacent:         cfg.Retrieval.MaxAdjacent,
		MaxTotalChars:       cfg.Retrieval.MaxTotalChars,
		Weights: retrieval.Weights{
			Semantic: cfg.Retrieval.WeightSemantic,
			Lexical:  cfg.Retrieval.WeightLexical,
			Position: cfg.Retrieval.WeightPosition,
		},
	}
	if err := retrievalConfig.Validate(); err != nil {
		return nil, err
	}

	retrieveUsecase := usecase.NewRetrieveUsecase(chunkStore, embedder, retrievalConfig, log)
	capabilityUsecase := usecase.NewCapabilityUsecase(chunkStore, log)

	handler := rag_http.NewHandler(retrieveUsecase, capabilityUsecase, logger.NewContextLogger("lexrag"))

	log.Info("components_wired",
		slog.String("embedder_url", cfg.Embedder.URL),
		slog.String("primary_model", cfg.Embedder.PrimaryModel),
		slog.String("fallback_model", cfg.Embedder.FallbackModel),
		slog.Int("top_k", retrievalConfig.TopK),
		slog.Int("num_candidates", retrievalConfig.NumCandidates))

	return &ApplicationComponents{
		ChunkStore:        chunkStore,
		Embedder:          embedder,
		RetrieveUsecase:   retrieveUsecase,
		CapabilityUsecase: capabilityUsecase,
		Handler:           handler,
		RetrievalConfig:   retrievalConfig,
	}, nil
}
