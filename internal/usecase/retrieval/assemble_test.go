package retrieval_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lexrag/internal/domain"
	"lexrag/internal/usecase/retrieval"
)

type mockChunkStore struct {
	mock.Mock
}

func (m *mockChunkStore) GetChunksWithEmbeddings(ctx context.Context, documentID string, field domain.EmbeddingField) ([]domain.Chunk, error) {
	args := m.Called(ctx, documentID, field)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Chunk), args.Error(1)
}

func (m *mockChunkStore) GetChunksByOrder(ctx context.Context, documentID string, orderNumbers []int) ([]domain.Chunk, error) {
	args := m.Called(ctx, documentID, orderNumbers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Chunk), args.Error(1)
}

func (m *mockChunkStore) CountEmbeddings(ctx context.Context, documentID string) (domain.EmbeddingCounts, error) {
	args := m.Called(ctx, documentID)
	return args.Get(0).(domain.EmbeddingCounts), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func candidateAt(order int, score float64) domain.Candidate {
	return domain.Candidate{
		Chunk:         domain.Chunk{OrderNumber: order, Text: "fragmento"},
		CombinedScore: score,
	}
}

func TestAssembleContext_RelaxesThresholdWhenTooFewSurvive(t *testing.T) {
	selected := []domain.Candidate{
		candidateAt(3, 0.50),
		candidateAt(7, 0.30),
		candidateAt(11, 0.28),
		candidateAt(15, 0.26),
		candidateAt(19, 0.20),
		candidateAt(23, 0.15),
		candidateAt(27, 0.10),
		candidateAt(31, 0.05),
	}
	cfg := retrieval.DefaultAssembleConfig()
	cfg.IncludeAdjacent = false

	chunks, diag, err := retrieval.AssembleContext(context.Background(), "doc-1", selected, nil, cfg, discardLogger())

	require.NoError(t, err)
	require.Len(t, chunks, 4)
	assert.True(t, diag.ThresholdRelaxed)
	assert.InDelta(t, 0.245, diag.ThresholdUsed, 1e-9)
	assert.Equal(t, 4, diag.PostFilterCount)
	assert.Equal(t, 8, diag.CandidatesSeen)
}

func TestAssembleContext_NoRelaxationWhenEnoughSurvive(t *testing.T) {
	selected := []domain.Candidate{
		candidateAt(1, 0.9),
		candidateAt(4, 0.7),
		candidateAt(8, 0.5),
	}
	cfg := retrieval.DefaultAssembleConfig()
	cfg.IncludeAdjacent = false

	chunks, diag, err := retrieval.AssembleContext(context.Background(), "doc-1", selected, nil, cfg, discardLogger())

	require.NoError(t, err)
	assert.Len(t, chunks, 3)
	assert.False(t, diag.ThresholdRelaxed)
	assert.InDelta(t, 0.35, diag.ThresholdUsed, 1e-9)
}

func TestAssembleContext_FetchesAdjacentChunks(t *testing.T) {
	selected := []domain.Candidate{
		candidateAt(5, 0.9),
		candidateAt(6, 0.8),
		candidateAt(12, 0.6),
	}
	cfg := retrieval.DefaultAssembleConfig()
	cfg.TotalChunks = 12

	// Neighbors of 5 and 6 collapse to {4, 7}; 13 is past the document end.
	store := new(mockChunkStore)
	store.On("GetChunksByOrder", mock.Anything, "doc-1", []int{4, 7, 11}).
		Return([]domain.Chunk{
			{OrderNumber: 4, Text: "vecino cuatro"},
			{OrderNumber: 7, Text: "vecino siete"},
			{OrderNumber: 11, Text: "vecino once"},
		}, nil)

	chunks, _, err := retrieval.AssembleContext(context.Background(), "doc-1", selected, store, cfg, discardLogger())

	require.NoError(t, err)
	require.Len(t, chunks, 6)
	store.AssertExpectations(t)

	adjacentOrders := []int{}
	for _, chunk := range chunks {
		if chunk.IsAdjacent {
			adjacentOrders = append(adjacentOrders, chunk.Chunk.OrderNumber)
			assert.Zero(t, chunk.CombinedScore)
		}
	}
	assert.Equal(t, []int{4, 7, 11}, adjacentOrders)
}

func TestAssembleContext_CapsAdjacentCount(t *testing.T) {
	selected := []domain.Candidate{
		candidateAt(3, 0.9),
		candidateAt(10, 0.8),
		candidateAt(20, 0.7),
	}
	cfg := retrieval.DefaultAssembleConfig()
	cfg.TotalChunks = 30

	// Six distinct neighbors exist but only the first four orders are fetched.
	store := new(mockChunkStore)
	store.On("GetChunksByOrder", mock.Anything, "doc-1", []int{2, 4, 9, 11}).
		Return([]domain.Chunk{
			{OrderNumber: 2}, {OrderNumber: 4}, {OrderNumber: 9}, {OrderNumber: 11},
		}, nil)

	chunks, _, err := retrieval.AssembleContext(context.Background(), "doc-1", selected, store, cfg, discardLogger())

	require.NoError(t, err)
	assert.Len(t, chunks, 7)
	store.AssertExpectations(t)
}

func TestAssembleContext_SkipsAdjacencyWhenDisabled(t *testing.T) {
	selected := []domain.Candidate{
		candidateAt(1, 0.9),
		candidateAt(2, 0.8),
		candidateAt(3, 0.7),
	}
	cfg := retrieval.DefaultAssembleConfig()
	cfg.IncludeAdjacent = false

	store := new(mockChunkStore)

	chunks, _, err := retrieval.AssembleContext(context.Background(), "doc-1", selected, store, cfg, discardLogger())

	require.NoError(t, err)
	assert.Len(t, chunks, 3)
	store.AssertNotCalled(t, "GetChunksByOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssembleContext_AdjacentFetchErrorPropagates(t *testing.T) {
	selected := []domain.Candidate{
		candidateAt(2, 0.9),
		candidateAt(6, 0.8),
		candidateAt(9, 0.7),
	}
	cfg := retrieval.DefaultAssembleConfig()
	cfg.TotalChunks = 10

	store := new(mockChunkStore)
	store.On("GetChunksByOrder", mock.Anything, "doc-1", mock.Anything).
		Return(nil, errors.New("connection reset"))

	_, _, err := retrieval.AssembleContext(context.Background(), "doc-1", selected, store, cfg, discardLogger())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "adjacent")
}

func TestAssembleContext_DiagnosticsOverMainChunksOnly(t *testing.T) {
	selected := []domain.Candidate{
		candidateAt(2, 0.8),
		candidateAt(6, 0.6),
		candidateAt(9, 0.4),
	}
	cfg := retrieval.DefaultAssembleConfig()
	cfg.TotalChunks = 10

	store := new(mockChunkStore)
	store.On("GetChunksByOrder", mock.Anything, "doc-1", mock.Anything).
		Return([]domain.Chunk{{OrderNumber: 1}, {OrderNumber: 3}}, nil)

	_, diag, err := retrieval.AssembleContext(context.Background(), "doc-1", selected, store, cfg, discardLogger())

	require.NoError(t, err)
	assert.Equal(t, 3, diag.PostFilterCount)
	assert.InDelta(t, 0.8, diag.ScoreMax, 1e-9)
	assert.InDelta(t, 0.4, diag.ScoreMin, 1e-9)
	assert.InDelta(t, 0.6, diag.ScoreAvg, 1e-9)
}

func TestCleanText(t *testing.T) {
	t.Run("strips page markers and separators", func(t *testing.T) {
		raw := "El tribunal resolvió.\nPágina 3 de 12\n------\nCondena en costas."
		cleaned := retrieval.CleanText(raw)
		assert.NotContains(t, cleaned, "Página 3")
		assert.NotContains(t, cleaned, "------")
		assert.Contains(t, cleaned, "El tribunal resolvió.")
		assert.Contains(t, cleaned, "Condena en costas.")
	})

	t.Run("collapses whitespace runs", func(t *testing.T) {
		raw := "fundamento    jurídico\n\n\n\nsegundo"
		assert.Equal(t, "fundamento jurídico\n\nsegundo", retrieval.CleanText(raw))
	})

	t.Run("removes OCR noise", func(t *testing.T) {
		raw := "artículo��1101\fdel código"
		cleaned := retrieval.CleanText(raw)
		assert.NotContains(t, cleaned, "�")
		assert.NotContains(t, cleaned, "\f")
	})

	t.Run("keeps first occurrence of repeated footer lines", func(t *testing.T) {
		raw := "JUZGADO Nº 4\nhechos primero\nJUZGADO Nº 4\nhechos segundo\nJUZGADO Nº 4"
		cleaned := retrieval.CleanText(raw)
		assert.Equal(t, "JUZGADO Nº 4\nhechos primero\nhechos segundo", cleaned)
	})
}
