package domain

// Candidate is a chunk surfaced by vector search, carrying every partial
// signal the reranker fuses. All scores are normalized to [0,1].
type Candidate struct {
	Chunk              Chunk
	SemanticSimilarity float64
	BM25Score          float64
	PositionScore      float64
	CombinedScore      float64
}

// SelectedChunk is a candidate that survived selection, plus the cleaned text
// that goes into the serialized context block. Adjacent chunks are included
// for narrative continuity only and always carry a zero combined score.
type SelectedChunk struct {
	Candidate
	IsAdjacent  bool
	CleanedText string
}

// Diagnostics describes how a retrieval unfolded. It is constructed once,
// at the end of the pipeline, from explicit stage outputs.
type Diagnostics struct {
	CandidatesSeen     int
	PostFilterCount    int
	ThresholdUsed      float64
	ThresholdRelaxed   bool
	ScoreMin           float64
	ScoreMax           float64
	ScoreAvg           float64
}

// RetrievalResult is the ordered outcome of one retrieval request.
// A result with zero or low-relevance chunks is a valid outcome, not an error.
type RetrievalResult struct {
	RetrievalID string
	DocumentID  string
	Query       Query
	Field       EmbeddingField
	Chunks      []SelectedChunk
	Diagnostics Diagnostics
}

// MainChunks returns the non-adjacent chunks in selection order.
func (r *RetrievalResult) MainChunks() []SelectedChunk {
	out := make([]SelectedChunk, 0, len(r.Chunks))
	for _, c := range r.Chunks {
		if !c.IsAdjacent {
			out = append(out, c)
		}
	}
	return out
}
