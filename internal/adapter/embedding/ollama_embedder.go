package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"lexrag/internal/domain"
)

// queryCacheSize bounds the embedded-query cache. Only query vectors are
// cached; computed rankings never are.
const queryCacheSize = 512

// OllamaEmbedder implements domain.EmbeddingService against an Ollama-style
// /api/embed endpoint, holding one model per embedding field.
type OllamaEmbedder struct {
	BaseURL       string
	PrimaryModel  string
	FallbackModel string
	Client        *http.Client

	cache *lru.Cache[string, []float32]
}

// NewOllamaEmbedder creates an embedder with a bounded query-embedding cache.
func NewOllamaEmbedder(baseURL, primaryModel, fallbackModel string, client *http.Client) *OllamaEmbedder {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	cache, _ := lru.New[string, []float32](queryCacheSize)
	return &OllamaEmbedder{
		BaseURL:       baseURL,
		PrimaryModel:  primaryModel,
		FallbackModel: fallbackModel,
		Client:        client,
		cache:         cache,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (e *OllamaEmbedder) ModelName(field domain.EmbeddingField) string {
	if field == domain.EmbeddingFallback {
		return e.FallbackModel
	}
	return e.PrimaryModel
}

func (e *OllamaEmbedder) EmbedQuery(ctx context.Context, text string, field domain.EmbeddingField) ([]float32, error) {
	model := e.ModelName(field)
	cacheKey := model + "\x00" + text
	if vec, ok := e.cache.Get(cacheKey); ok {
		return vec, nil
	}

	start := time.Now()
	reqBody := embedRequest{Model: model, Input: []string{text}}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/embed", e.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		slog.Error("embed_query_failed",
			slog.String("model", model),
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("failed to call embedding service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		slog.Error("embed_query_bad_status",
			slog.String("model", model),
			slog.Int("status", resp.StatusCode),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("embedding service returned status: %d", resp.StatusCode)
	}

	var respBody embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(respBody.Embeddings) == 0 || len(respBody.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("embedding service returned no vector")
	}

	slog.Info("embed_query_completed",
		slog.String("model", model),
		slog.Int("dimensions", len(respBody.Embeddings[0])),
		slog.Duration("elapsed", time.Since(start)))

	e.cache.Add(cacheKey, respBody.Embeddings[0])
	return respBody.Embeddings[0], nil
}

var _ domain.EmbeddingService = (*OllamaEmbedder)(nil)
