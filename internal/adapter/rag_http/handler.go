package rag_http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"lexrag/internal/domain"
	"lexrag/internal/infra/logger"
	"lexrag/internal/usecase"
)

// Handler exposes the retrieval pipeline over HTTP.
type Handler struct {
	retrieveUsecase   usecase.RetrieveUsecase
	capabilityUsecase usecase.CapabilityUsecase
	requestLogger     *logger.ContextLogger
}

func NewHandler(retrieveUsecase usecase.RetrieveUsecase, capabilityUsecase usecase.CapabilityUsecase, requestLogger *logger.ContextLogger) *Handler {
	return &Handler{
		retrieveUsecase:   retrieveUsecase,
		capabilityUsecase: capabilityUsecase,
		requestLogger:     requestLogger,
	}
}

// RetrieveRequest is the body of POST /v1/documents/:id/retrieve.
type RetrieveRequest struct {
	Question            string   `json:"question"`
	TopK                *int     `json:"top_k,omitempty"`
	SimilarityThreshold *float64 `json:"similarity_threshold,omitempty"`
	IncludeAdjacent     *bool    `json:"include_adjacent,omitempty"`
	MaxChars            *int     `json:"max_chars,omitempty"`
	IncludeMetadata     *bool    `json:"include_metadata,omitempty"`
	Order               string   `json:"order,omitempty"`
}

// RetrievedChunk is one chunk of a retrieval response.
type RetrievedChunk struct {
	OrderNumber        int     `json:"order_number"`
	Text               string  `json:"text"`
	SemanticSimilarity float64 `json:"semantic_similarity"`
	BM25Score          float64 `json:"bm25_score"`
	PositionScore      float64 `json:"position_score"`
	CombinedScore      float64 `json:"combined_score"`
	IsAdjacent         bool    `json:"is_adjacent"`
}

// DiagnosticsResponse mirrors domain.Diagnostics on the wire.
type DiagnosticsResponse struct {
	CandidatesSeen   int     `json:"candidates_seen"`
	PostFilterCount  int     `json:"post_filter_count"`
	ThresholdUsed    float64 `json:"threshold_used"`
	ThresholdRelaxed bool    `json:"threshold_relaxed"`
	ScoreMin         float64 `json:"score_min"`
	ScoreMax         float64 `json:"score_max"`
	ScoreAvg         float64 `json:"score_avg"`
}

// RetrieveResponse is the body of a successful retrieval.
type RetrieveResponse struct {
	RetrievalID string              `json:"retrieval_id"`
	Mode        string              `json:"mode"`
	Field       string              `json:"embedding_field,omitempty"`
	Chunks      []RetrievedChunk    `json:"chunks"`
	Context     string              `json:"context"`
	Diagnostics DiagnosticsResponse `json:"diagnostics"`
}

// CapabilityResponse is the body of GET /v1/documents/:id/capability.
type CapabilityResponse struct {
	TotalChunks                 int  `json:"total_chunks"`
	ChunksWithPrimaryEmbedding  int  `json:"chunks_with_primary_embedding"`
	ChunksWithFallbackEmbedding int  `json:"chunks_with_fallback_embedding"`
	HasRagCapability            bool `json:"has_rag_capability"`
}

// Retrieve handles POST /v1/documents/:id/retrieve.
func (h *Handler) Retrieve(c echo.Context) error {
	documentID := c.Param("id")
	ctx := logger.WithDocumentID(c.Request().Context(), documentID)
	c.SetRequest(c.Request().WithContext(ctx))

	var req RetrieveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	input := usecase.RetrieveInput{
		DocumentID: documentID,
		Question:   req.Question,
	}
	if req.TopK != nil {
		input.TopK = *req.TopK
	}
	if req.SimilarityThreshold != nil {
		input.SimilarityThreshold = *req.SimilarityThreshold
	}
	if req.IncludeAdjacent != nil {
		input.IncludeAdjacent = *req.IncludeAdjacent
		input.AdjacentSet = true
	}

	result, err := h.retrieveUsecase.Execute(c.Request().Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, domain.ErrNoEmbeddingsAvailable):
			// Recoverable: the caller should build whole-document context.
			return c.JSON(http.StatusOK, RetrieveResponse{
				Mode:   domain.ModeFulltextFallback.String(),
				Chunks: []RetrievedChunk{},
			})
		case errors.Is(err, domain.ErrRetrievalTimeout):
			return c.JSON(http.StatusGatewayTimeout, map[string]string{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
	}

	formatOpts := usecase.DefaultFormatOptions()
	if req.MaxChars != nil {
		formatOpts.MaxChars = *req.MaxChars
	}
	if req.IncludeMetadata != nil {
		formatOpts.IncludeMetadata = *req.IncludeMetadata
	}
	if req.Order == string(usecase.OrderPosition) {
		formatOpts.Order = usecase.OrderPosition
	}

	chunks := make([]RetrievedChunk, 0, len(result.Chunks))
	for _, chunk := range result.Chunks {
		chunks = append(chunks, RetrievedChunk{
			OrderNumber:        chunk.Chunk.OrderNumber,
			Text:               chunk.CleanedText,
			SemanticSimilarity: chunk.SemanticSimilarity,
			BM25Score:          chunk.BM25Score,
			PositionScore:      chunk.PositionScore,
			CombinedScore:      chunk.CombinedScore,
			IsAdjacent:         chunk.IsAdjacent,
		})
	}

	h.requestLogger.WithContext(ctx).Info("retrieve_request_completed",
		slog.String("retrieval_id", result.RetrievalID),
		slog.Int("chunks_returned", len(chunks)))

	return c.JSON(http.StatusOK, RetrieveResponse{
		RetrievalID: result.RetrievalID,
		Mode:        domain.ModeRag.String(),
		Field:       result.Field.String(),
		Chunks:      chunks,
		Context:     usecase.FormatContext(result, formatOpts),
		Diagnostics: DiagnosticsResponse{
			CandidatesSeen:   result.Diagnostics.CandidatesSeen,
			PostFilterCount:  result.Diagnostics.PostFilterCount,
			ThresholdUsed:    result.Diagnostics.ThresholdUsed,
			ThresholdRelaxed: result.Diagnostics.ThresholdRelaxed,
			ScoreMin:         result.Diagnostics.ScoreMin,
			ScoreMax:         result.Diagnostics.ScoreMax,
			ScoreAvg:         result.Diagnostics.ScoreAvg,
		},
	})
}

// Capability handles GET /v1/documents/:id/capability.
func (h *Handler) Capability(c echo.Context) error {
	capability, err := h.capabilityUsecase.Execute(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, CapabilityResponse{
		TotalChunks:                 capability.TotalChunks,
		ChunksWithPrimaryEmbedding:  capability.ChunksWithPrimaryEmbedding,
		ChunksWithFallbackEmbedding: capability.ChunksWithFallbackEmbedding,
		HasRagCapability:            capability.HasRagCapability,
	})
}

// Health handles GET /v1/health.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
