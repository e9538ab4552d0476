package usecase

import (
	"fmt"

	"lexrag/internal/usecase/retrieval"
)

// RetrievalConfig holds the tunable parameters of the retrieval pipeline.
// The defaults keep the final context in the 5-10 chunk range that works
// well as LLM input; beyond 20 chunks answer quality degrades.
type RetrievalConfig struct {
	// NumCandidates is the size of the vector-search pre-ranking pool.
	NumCandidates int

	// TopK is the number of chunks the diversity selector keeps.
	TopK int

	// SimilarityThreshold is the minimum combined score for a chunk to enter
	// the final context.
	SimilarityThreshold float64

	// RelaxationFactor multiplies the threshold when fewer than MinChunks
	// survive filtering. Relaxation fires at most once per request.
	RelaxationFactor float64

	// MinChunks is the survivor count below which relaxation fires.
	MinChunks int

	// MMRLambda balances relevance against redundancy in diversity selection.
	MMRLambda float64

	// MaxAdjacent caps how many neighboring chunks adjacency augmentation
	// may add on top of TopK.
	MaxAdjacent int

	// Weights is the signal mix of the reranker.
	Weights retrieval.Weights

	// MaxTotalChars bounds the serialized context block.
	MaxTotalChars int
}

// DefaultRetrievalConfig returns the standard pipeline parameters.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		NumCandidates:       20,
		TopK:                8,
		SimilarityThreshold: 0.35,
		RelaxationFactor:    0.7,
		MinChunks:           3,
		MMRLambda:           retrieval.DefaultMMRLambda,
		MaxAdjacent:         4,
		Weights:             retrieval.DefaultWeights(),
		MaxTotalChars:       8000,
	}
}

// Validate checks that the configuration values are within acceptable ranges.
func (c RetrievalConfig) Validate() error {
	if c.NumCandidates <= 0 {
		return fmt.Errorf("numCandidates must be positive, got %d", c.NumCandidates)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("topK must be positive, got %d", c.TopK)
	}
	if c.TopK > c.NumCandidates {
		return fmt.Errorf("topK (%d) must not exceed numCandidates (%d)", c.TopK, c.NumCandidates)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarityThreshold must be in [0,1], got %f", c.SimilarityThreshold)
	}
	if c.RelaxationFactor <= 0 || c.RelaxationFactor >= 1 {
		return fmt.Errorf("relaxationFactor must be in (0,1), got %f", c.RelaxationFactor)
	}
	if c.MinChunks < 0 {
		return fmt.Errorf("minChunks must be non-negative, got %d", c.MinChunks)
	}
	if c.MMRLambda < 0 || c.MMRLambda > 1 {
		return fmt.Errorf("mmrLambda must be in [0,1], got %f", c.MMRLambda)
	}
	if c.MaxAdjacent < 0 {
		return fmt.Errorf("maxAdjacent must be non-negative, got %d", c.MaxAdjacent)
	}
	if c.MaxTotalChars <= 0 {
		return fmt.Errorf("maxTotalChars must be positive, got %d", c.MaxTotalChars)
	}
	sum := c.Weights.Semantic + c.Weights.Lexical + c.Weights.Position
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("reranker weights must sum to 1, got %f", sum)
	}
	return nil
}
