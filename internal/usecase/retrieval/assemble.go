package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"lexrag/internal/domain"
)

// AssembleConfig holds the parameters of the context assembly stage.
type AssembleConfig struct {
	// Threshold is the minimum combined score for a chunk to survive
	// filtering.
	Threshold float64
	// RelaxationFactor multiplies the threshold when too few chunks survive.
	RelaxationFactor float64
	// MinChunks is the survivor count below which relaxation fires.
	MinChunks int
	// MaxAdjacent caps how many neighboring chunks augmentation may add.
	MaxAdjacent int
	// IncludeAdjacent enables adjacency augmentation.
	IncludeAdjacent bool
	// TotalChunks is the document's chunk count, used as the upper document
	// bound for adjacency lookups.
	TotalChunks int
}

// DefaultAssembleConfig returns the standard assembly parameters.
func DefaultAssembleConfig() AssembleConfig {
	return AssembleConfig{
		Threshold:        0.35,
		RelaxationFactor: 0.7,
		MinChunks:        3,
		MaxAdjacent:      4,
		IncludeAdjacent:  true,
	}
}

// AssembleContext filters the MMR selection by score threshold (relaxing the
// threshold once when too few survive), augments survivors with adjacent
// chunks fetched from the store, and cleans each chunk's text. The returned
// diagnostics are computed over the main (non-adjacent) chunks only.
//
// Relaxation re-filters the same MMR output with a lowered threshold; it
// never triggers a second retrieval round.
func AssembleContext(
	ctx context.Context,
	documentID string,
	selected []domain.Candidate,
	store domain.ChunkStore,
	cfg AssembleConfig,
	logger *slog.Logger,
) ([]domain.SelectedChunk, domain.Diagnostics, error) {
	threshold := cfg.Threshold
	survivors := filterByThreshold(selected, threshold)

	relaxed := false
	if len(survivors) < cfg.MinChunks {
		threshold = cfg.Threshold * cfg.RelaxationFactor
		survivors = filterByThreshold(selected, threshold)
		relaxed = true
		logger.Info("threshold_relaxed",
			slog.String("document_id", documentID),
			slog.Float64("original_threshold", cfg.Threshold),
			slog.Float64("relaxed_threshold", threshold),
			slog.Int("survivors", len(survivors)))
	}

	chunks := make([]domain.SelectedChunk, 0, len(survivors)+cfg.MaxAdjacent)
	for _, cand := range survivors {
		chunks = append(chunks, domain.SelectedChunk{
			Candidate:   cand,
			CleanedText: CleanText(cand.Chunk.Text),
		})
	}

	if cfg.IncludeAdjacent && len(survivors) > 0 && cfg.MaxAdjacent > 0 {
		adjacent, err := fetchAdjacent(ctx, documentID, survivors, store, cfg)
		if err != nil {
			return nil, domain.Diagnostics{}, err
		}
		chunks = append(chunks, adjacent...)
	}

	diagnostics := buildDiagnostics(len(selected), survivors, threshold, relaxed)
	return chunks, diagnostics, nil
}

func filterByThreshold(candidates []domain.Candidate, threshold float64) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(candidates))
	for _, cand := range candidates {
		if cand.CombinedScore >= threshold {
			out = append(out, cand)
		}
	}
	return out
}

// fetchAdjacent looks up the chunks immediately before and after each
// survivor. Neighbors already selected or outside document bounds are
// skipped, and at most cfg.MaxAdjacent are added in total.
func fetchAdjacent(
	ctx context.Context,
	documentID string,
	survivors []domain.Candidate,
	store domain.ChunkStore,
	cfg AssembleConfig,
) ([]domain.SelectedChunk, error) {
	selectedOrders := make(map[int]bool, len(survivors))
	for _, cand := range survivors {
		selectedOrders[cand.Chunk.OrderNumber] = true
	}

	wanted := make([]int, 0, 2*len(survivors))
	wantedSet := make(map[int]bool)
	for _, cand := range survivors {
		for _, neighbor := range []int{cand.Chunk.OrderNumber - 1, cand.Chunk.OrderNumber + 1} {
			if neighbor < 1 || selectedOrders[neighbor] || wantedSet[neighbor] {
				continue
			}
			if cfg.TotalChunks > 0 && neighbor > cfg.TotalChunks {
				continue
			}
			wantedSet[neighbor] = true
			wanted = append(wanted, neighbor)
		}
	}
	sort.Ints(wanted)
	if len(wanted) > cfg.MaxAdjacent {
		wanted = wanted[:cfg.MaxAdjacent]
	}
	if len(wanted) == 0 {
		return nil, nil
	}

	fetched, err := store.GetChunksByOrder(ctx, documentID, wanted)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch adjacent chunks: %w", err)
	}

	adjacent := make([]domain.SelectedChunk, 0, len(fetched))
	for _, chunk := range fetched {
		adjacent = append(adjacent, domain.SelectedChunk{
			Candidate:   domain.Candidate{Chunk: chunk},
			IsAdjacent:  true,
			CleanedText: CleanText(chunk.Text),
		})
	}
	return adjacent, nil
}

func buildDiagnostics(candidatesSeen int, survivors []domain.Candidate, threshold float64, relaxed bool) domain.Diagnostics {
	diag := domain.Diagnostics{
		CandidatesSeen:   candidatesSeen,
		PostFilterCount:  len(survivors),
		ThresholdUsed:    threshold,
		ThresholdRelaxed: relaxed,
	}
	if len(survivors) == 0 {
		return diag
	}

	diag.ScoreMin = survivors[0].CombinedScore
	diag.ScoreMax = survivors[0].CombinedScore
	sum := 0.0
	for _, cand := range survivors {
		if cand.CombinedScore < diag.ScoreMin {
			diag.ScoreMin = cand.CombinedScore
		}
		if cand.CombinedScore > diag.ScoreMax {
			diag.ScoreMax = cand.CombinedScore
		}
		sum += cand.CombinedScore
	}
	diag.ScoreAvg = sum / float64(len(survivors))
	return diag
}
