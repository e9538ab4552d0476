package retrieval

import (
	"sort"

	"lexrag/internal/domain"
)

// Weights controls how the reranker fuses the three partial signals into one
// combined score. The three weights should sum to 1.
type Weights struct {
	Semantic float64
	Lexical  float64
	Position float64
}

// DefaultWeights returns the standard signal mix: semantic similarity
// dominates, lexical overlap refines, position nudges.
func DefaultWeights() Weights {
	return Weights{Semantic: 0.7, Lexical: 0.2, Position: 0.1}
}

// Rerank fuses semantic, lexical and positional signals into a combined score
// and sorts candidates by it, best first. When the question asks about the
// decision, later chunks get a positional boost: rulings and verdicts trend
// toward the end of a legal document. For any other intent the positional
// signal is neutral.
//
// Ties are broken by ascending order number so identical inputs always
// produce identical output order.
func Rerank(candidates []domain.Candidate, query domain.Query, weights Weights) []domain.Candidate {
	maxOrder := 0
	for _, cand := range candidates {
		if cand.Chunk.OrderNumber > maxOrder {
			maxOrder = cand.Chunk.OrderNumber
		}
	}

	favorLate := query.HasIntent(domain.IntentDecision)

	reranked := make([]domain.Candidate, len(candidates))
	copy(reranked, candidates)
	for i := range reranked {
		position := 0.5
		if favorLate && maxOrder > 0 {
			position = float64(reranked[i].Chunk.OrderNumber) / float64(maxOrder)
		}
		reranked[i].PositionScore = position
		reranked[i].CombinedScore = weights.Semantic*reranked[i].SemanticSimilarity +
			weights.Lexical*reranked[i].BM25Score +
			weights.Position*position
	}

	sort.Slice(reranked, func(i, j int) bool {
		if reranked[i].CombinedScore != reranked[j].CombinedScore {
			return reranked[i].CombinedScore > reranked[j].CombinedScore
		}
		return reranked[i].Chunk.OrderNumber < reranked[j].Chunk.OrderNumber
	})

	return reranked
}
