package retrieval_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexrag/internal/domain"
	"lexrag/internal/usecase/retrieval"
)

// pairwiseMaxOverlap returns the highest word-set Jaccard overlap among all
// pairs of the selected chunks.
func pairwiseMaxOverlap(selected []domain.Candidate) float64 {
	max := 0.0
	for i := range selected {
		for j := i + 1; j < len(selected); j++ {
			if o := textOverlap(selected[i].Chunk.Text, selected[j].Chunk.Text); o > max {
				max = o
			}
		}
	}
	return max
}

func textOverlap(a, b string) float64 {
	setA := wordSetOf(a)
	setB := wordSetOf(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for word := range setA {
		if setB[word] {
			intersection++
		}
	}
	return float64(intersection) / float64(len(setA)+len(setB)-intersection)
}

func wordSetOf(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range tokensOf(text) {
		set[tok] = true
	}
	return set
}

func tokensOf(text string) []string {
	var tokens []string
	current := []rune{}
	for _, r := range text + " " {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') || r > 127 {
			current = append(current, r)
		} else if len(current) > 0 {
			tokens = append(tokens, string(current))
			current = nil
		}
	}
	return tokens
}

func scoredCandidates(texts []string, scores []float64) []domain.Candidate {
	out := make([]domain.Candidate, len(texts))
	for i := range texts {
		out[i] = domain.Candidate{
			Chunk:         domain.Chunk{OrderNumber: i + 1, Text: texts[i]},
			CombinedScore: scores[i],
		}
	}
	return out
}

func TestSelectDiverse_ReturnsInputWhenWithinK(t *testing.T) {
	candidates := scoredCandidates(
		[]string{"uno", "dos"},
		[]float64{0.9, 0.8},
	)

	selected := retrieval.SelectDiverse(candidates, 5, 0.7)

	assert.Equal(t, candidates, selected)
}

func TestSelectDiverse_TopScoredAlwaysFirst(t *testing.T) {
	candidates := scoredCandidates(
		[]string{"texto alfa", "texto beta", "texto gamma", "texto delta"},
		[]float64{0.9, 0.8, 0.7, 0.6},
	)

	selected := retrieval.SelectDiverse(candidates, 2, 0.0)

	require.Len(t, selected, 2)
	assert.Equal(t, "texto alfa", selected[0].Chunk.Text)
}

func TestSelectDiverse_NearDuplicatesSpreadOut(t *testing.T) {
	// 20 near-duplicate candidates about the same paragraph plus a few
	// distinct ones: with lambda=0.7 and top_k=5, at most 2 selected pairs
	// may still overlap above 0.8.
	var texts []string
	var scores []float64
	for i := 0; i < 16; i++ {
		texts = append(texts, fmt.Sprintf("la indemnización por daños fue fijada en la cláusula quinta del contrato variante%d", i))
		scores = append(scores, 0.9-float64(i)*0.001)
	}
	texts = append(texts,
		"los antecedentes de hecho describen la relación laboral entre las partes",
		"el fundamento jurídico invoca el artículo mil ciento uno del código civil",
		"el tribunal impone las costas del proceso a la parte demandada",
		"contra esta resolución cabe recurso de apelación en plazo de veinte días",
	)
	scores = append(scores, 0.6, 0.58, 0.56, 0.54)

	candidates := scoredCandidates(texts, scores)
	selected := retrieval.SelectDiverse(candidates, 5, 0.7)

	require.Len(t, selected, 5)
	highOverlapPairs := 0
	for i := range selected {
		for j := i + 1; j < len(selected); j++ {
			if textOverlap(selected[i].Chunk.Text, selected[j].Chunk.Text) > 0.8 {
				highOverlapPairs++
			}
		}
	}
	assert.LessOrEqual(t, highOverlapPairs, 2)
}

func TestSelectDiverse_LambdaMonotonicity(t *testing.T) {
	// For a fixed candidate set, pure-diversity selection (lambda=0) must
	// never be more redundant than pure-relevance selection (lambda=1).
	var texts []string
	var scores []float64
	for i := 0; i < 10; i++ {
		texts = append(texts, fmt.Sprintf("el fallo condena al pago de la suma reclamada copia%d", i))
		scores = append(scores, 0.95-float64(i)*0.01)
	}
	texts = append(texts,
		"relación de hechos probados durante la vista oral",
		"normativa aplicable al contrato de arrendamiento urbano",
	)
	scores = append(scores, 0.5, 0.4)

	candidates := scoredCandidates(texts, scores)

	diverse := retrieval.SelectDiverse(candidates, 4, 0.0)
	relevant := retrieval.SelectDiverse(candidates, 4, 1.0)

	assert.LessOrEqual(t, pairwiseMaxOverlap(diverse), pairwiseMaxOverlap(relevant))
}

func TestSelectDiverse_OutputInSelectionOrder(t *testing.T) {
	candidates := scoredCandidates(
		[]string{
			"el tribunal resolvió estimar la demanda presentada",
			"el tribunal resolvió estimar la demanda interpuesta",
			"los hechos probados se remontan a enero",
		},
		[]float64{0.9, 0.89, 0.3},
	)

	selected := retrieval.SelectDiverse(candidates, 2, 0.3)

	require.Len(t, selected, 2)
	assert.Equal(t, 1, selected[0].Chunk.OrderNumber)
	// With diversity dominating, the dissimilar low scorer beats the
	// near-duplicate runner-up.
	assert.Equal(t, 3, selected[1].Chunk.OrderNumber)
}
