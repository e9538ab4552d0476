package retrieval

import (
	"math"
	"strings"
	"unicode"

	"lexrag/internal/domain"
)

// BM25 parameters. Standard Robertson values; candidate sets are small enough
// that tuning per corpus buys nothing here.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// ScoreBM25 assigns a normalized lexical score to each candidate using BM25
// over the expanded query terms. Statistics (df, idf, average length) are
// computed over the candidate set alone, not the whole document: this stage
// re-ranks what semantic search already surfaced and deliberately avoids a
// corpus-wide inverted index.
//
// Raw scores are divided by the set maximum so the best lexical match scores
// exactly 1.0; if no candidate matches any query term, all scores stay 0.
func ScoreBM25(expandedQuery string, candidates []domain.Candidate) {
	if len(candidates) == 0 {
		return
	}

	queryTerms := tokenize(expandedQuery)
	if len(queryTerms) == 0 {
		for i := range candidates {
			candidates[i].BM25Score = 0
		}
		return
	}

	chunkTerms := make([]map[string]int, len(candidates))
	totalLen := 0
	for i, cand := range candidates {
		tokens := tokenize(cand.Chunk.Text)
		freq := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freq[tok]++
		}
		chunkTerms[i] = freq
		totalLen += len(tokens)
	}
	avgLen := float64(totalLen) / float64(len(candidates))
	if avgLen == 0 {
		avgLen = 1
	}

	n := float64(len(candidates))
	idf := make(map[string]float64, len(queryTerms))
	for _, term := range queryTerms {
		if _, done := idf[term]; done {
			continue
		}
		df := 0.0
		for _, freq := range chunkTerms {
			if freq[term] > 0 {
				df++
			}
		}
		idf[term] = math.Log((n-df+0.5)/(df+0.5) + 1)
	}

	raw := make([]float64, len(candidates))
	maxRaw := 0.0
	for i := range candidates {
		docLen := 0
		for _, tf := range chunkTerms[i] {
			docLen += tf
		}
		score := 0.0
		for _, term := range queryTerms {
			tf := float64(chunkTerms[i][term])
			if tf == 0 {
				continue
			}
			norm := bm25K1 * (1 - bm25B + bm25B*float64(docLen)/avgLen)
			score += idf[term] * tf * (bm25K1 + 1) / (tf + norm)
		}
		raw[i] = score
		if score > maxRaw {
			maxRaw = score
		}
	}

	for i := range candidates {
		if maxRaw > 0 {
			candidates[i].BM25Score = raw[i] / maxRaw
		} else {
			candidates[i].BM25Score = 0
		}
	}
}

// tokenize lowercases text and splits it into word tokens on anything that is
// not a letter or digit. Accented characters stay part of their word.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
