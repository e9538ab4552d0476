package retrieval

import (
	"lexrag/internal/domain"
)

// DefaultMMRLambda balances relevance against redundancy in diversity
// selection. Higher means more relevance, less diversity.
const DefaultMMRLambda = 0.7

// SelectDiverse applies Maximal Marginal Relevance to pick k candidates from
// a reranked list. The top-scored candidate is always taken first; each
// following pick maximizes lambda*combined - (1-lambda)*maxOverlap against
// the already-selected set, where overlap is word-set Jaccard similarity.
//
// Output is in selection order, not score order: later picks are
// progressively diversity-constrained. When the input already fits within k
// it is returned unchanged.
func SelectDiverse(candidates []domain.Candidate, k int, lambda float64) []domain.Candidate {
	if len(candidates) <= k {
		return candidates
	}
	if lambda < 0 {
		lambda = 0
	} else if lambda > 1 {
		lambda = 1
	}

	wordSets := make([]map[string]bool, len(candidates))
	for i, cand := range candidates {
		wordSets[i] = wordSet(cand.Chunk.Text)
	}

	selected := make([]domain.Candidate, 0, k)
	selectedSets := make([]map[string]bool, 0, k)
	used := make([]bool, len(candidates))

	// Candidates arrive sorted by combined score, so index 0 is the top pick.
	selected = append(selected, candidates[0])
	selectedSets = append(selectedSets, wordSets[0])
	used[0] = true

	for len(selected) < k {
		bestIdx := -1
		bestScore := 0.0
		for i, cand := range candidates {
			if used[i] {
				continue
			}
			maxOverlap := 0.0
			for _, sel := range selectedSets {
				if overlap := jaccard(wordSets[i], sel); overlap > maxOverlap {
					maxOverlap = overlap
				}
			}
			score := lambda*cand.CombinedScore - (1-lambda)*maxOverlap
			if bestIdx < 0 || score > bestScore {
				bestIdx = i
				bestScore = score
			}
		}
		if bestIdx < 0 {
			break
		}
		selected = append(selected, candidates[bestIdx])
		selectedSets = append(selectedSets, wordSets[bestIdx])
		used[bestIdx] = true
	}

	return selected
}

// wordSet builds the set of word tokens of a text, lowercased.
func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, token := range tokenize(text) {
		set[token] = true
	}
	return set
}

// jaccard computes |a∩b| / |a∪b| over two word sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	intersection := 0
	for word := range small {
		if large[word] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
