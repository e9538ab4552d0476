package retrieval

import (
	"math"
	"sort"

	"lexrag/internal/domain"
)

// DefaultNumCandidates is the size of the pre-ranking pool fetched from
// vector search before lexical re-ranking and diversity selection.
const DefaultNumCandidates = 20

// ChooseField applies the embedding field selection rule: if any chunk of the
// document carries the primary embedding, the whole ranking runs in the
// primary space; otherwise it falls back uniformly. Mixing fields within one
// ranking is forbidden because distance semantics differ between spaces.
// The second return is false when the document has no embedded chunks at all.
func ChooseField(counts domain.EmbeddingCounts) (domain.EmbeddingField, bool) {
	if counts.Primary > 0 {
		return domain.EmbeddingPrimary, true
	}
	if counts.Fallback > 0 {
		return domain.EmbeddingFallback, true
	}
	return domain.EmbeddingPrimary, false
}

// RetrieveCandidates ranks the document's chunks by cosine distance to the
// query embedding and returns up to numCandidates of them, nearest first.
// Chunks without the selected field are skipped. Embeddings are expected to
// be unit-normalized, so distance lies in [0,2] and similarity = 1 - d/2.
func RetrieveCandidates(queryEmbedding []float32, chunks []domain.Chunk, field domain.EmbeddingField, numCandidates int) []domain.Candidate {
	if numCandidates <= 0 {
		numCandidates = DefaultNumCandidates
	}

	candidates := make([]domain.Candidate, 0, len(chunks))
	for _, chunk := range chunks {
		embedding := chunk.Embedding(field)
		if embedding == nil || len(embedding) != len(queryEmbedding) {
			continue
		}
		distance := cosineDistance(queryEmbedding, embedding)
		candidates = append(candidates, domain.Candidate{
			Chunk:              chunk,
			SemanticSimilarity: 1.0 - distance/2.0,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].SemanticSimilarity != candidates[j].SemanticSimilarity {
			return candidates[i].SemanticSimilarity > candidates[j].SemanticSimilarity
		}
		return candidates[i].Chunk.OrderNumber < candidates[j].Chunk.OrderNumber
	})

	if len(candidates) > numCandidates {
		candidates = candidates[:numCandidates]
	}
	return candidates
}

// cosineDistance computes 1 - cos(a, b), clamped to [0,2]. The norms are
// recomputed here so stored vectors need not be exactly unit length.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2.0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	distance := 1.0 - cos
	if distance < 0 {
		return 0
	}
	if distance > 2 {
		return 2
	}
	return distance
}
