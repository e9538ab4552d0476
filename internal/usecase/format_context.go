package usecase

import (
	"fmt"
	"sort"
	"strings"

	"lexrag/internal/domain"
)

// ContextOrder controls how chunks are sequenced in the serialized block.
type ContextOrder string

const (
	// OrderRelevance keeps MMR selection order, adjacent chunks last.
	OrderRelevance ContextOrder = "relevance"
	// OrderPosition sorts all chunks by their document order number.
	OrderPosition ContextOrder = "position"
)

// FormatOptions controls context serialization.
type FormatOptions struct {
	MaxChars        int
	IncludeMetadata bool
	Order           ContextOrder
}

// DefaultFormatOptions returns the standard serialization parameters.
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{
		MaxChars:        8000,
		IncludeMetadata: true,
		Order:           OrderRelevance,
	}
}

const truncationEllipsis = "…"

// FormatContext serializes a retrieval result into the bounded context block
// handed to the generation model. Chunks are emitted in priority order and
// the block is truncated at MaxChars characters: the chunk that would
// overflow is cut rune-safely with an ellipsis and everything after it is
// dropped, so a lower-priority chunk can never displace a higher-priority one.
func FormatContext(result *domain.RetrievalResult, opts FormatOptions) string {
	if result == nil || len(result.Chunks) == 0 {
		return ""
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultFormatOptions().MaxChars
	}

	chunks := orderChunks(result.Chunks, opts.Order)

	var b strings.Builder
	written := 0
	for i, chunk := range chunks {
		block := formatChunk(chunk, opts.IncludeMetadata)
		if i > 0 {
			block = "\n\n" + block
		}

		runes := []rune(block)
		remaining := opts.MaxChars - written
		if len(runes) <= remaining {
			b.WriteString(block)
			written += len(runes)
			continue
		}

		cut := remaining - len([]rune(truncationEllipsis))
		if cut > 0 {
			b.WriteString(string(runes[:cut]))
			b.WriteString(truncationEllipsis)
		}
		break
	}
	return b.String()
}

// orderChunks sequences chunks without mutating the result: relevance order
// keeps main chunks in selection order followed by adjacent chunks; position
// order interleaves everything by document position.
func orderChunks(chunks []domain.SelectedChunk, order ContextOrder) []domain.SelectedChunk {
	out := make([]domain.SelectedChunk, 0, len(chunks))
	if order == OrderPosition {
		out = append(out, chunks...)
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Chunk.OrderNumber < out[j].Chunk.OrderNumber
		})
		return out
	}

	for _, c := range chunks {
		if !c.IsAdjacent {
			out = append(out, c)
		}
	}
	for _, c := range chunks {
		if c.IsAdjacent {
			out = append(out, c)
		}
	}
	return out
}

func formatChunk(chunk domain.SelectedChunk, includeMetadata bool) string {
	if !includeMetadata {
		return chunk.CleanedText
	}
	if chunk.IsAdjacent {
		return fmt.Sprintf("[Fragmento %d | contexto adyacente]\n%s",
			chunk.Chunk.OrderNumber, chunk.CleanedText)
	}
	return fmt.Sprintf("[Fragmento %d | relevancia: %s]\n%s",
		chunk.Chunk.OrderNumber, relevanceBand(chunk.CombinedScore), chunk.CleanedText)
}

// relevanceBand maps a combined score to a coarse label for the consumer.
func relevanceBand(score float64) string {
	switch {
	case score >= 0.8:
		return "muy alta"
	case score >= 0.6:
		return "alta"
	case score >= 0.4:
		return "media"
	default:
		return "baja"
	}
}
