package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_RetrievalParameters_Defaults(t *testing.T) {
	envVars := []string{
		"RETRIEVAL_NUM_CANDIDATES",
		"RETRIEVAL_TOP_K",
		"RETRIEVAL_SIMILARITY_THRESHOLD",
		"RETRIEVAL_MMR_LAMBDA",
		"RETRIEVAL_MAX_ADJACENT",
	}
	for _, key := range envVars {
		_ = os.Unsetenv(key)
	}

	cfg := Load()

	assert.Equal(t, 20, cfg.Retrieval.NumCandidates, "numCandidates should default to 20")
	assert.Equal(t, 8, cfg.Retrieval.TopK, "topK should default to 8")
	assert.Equal(t, 0.35, cfg.Retrieval.SimilarityThreshold, "similarityThreshold should default to 0.35")
	assert.Equal(t, 0.7, cfg.Retrieval.MMRLambda, "mmrLambda should default to 0.7")
	assert.Equal(t, 4, cfg.Retrieval.MaxAdjacent, "maxAdjacent should default to 4")
	assert.Equal(t, 8000, cfg.Retrieval.MaxTotalChars, "maxTotalChars should default to 8000")
}

func TestLoad_RetrievalParameters_FromEnv(t *testing.T) {
	t.Setenv("RETRIEVAL_NUM_CANDIDATES", "50")
	t.Setenv("RETRIEVAL_TOP_K", "5")
	t.Setenv("RETRIEVAL_SIMILARITY_THRESHOLD", "0.5")
	t.Setenv("RETRIEVAL_MMR_LAMBDA", "0.3")

	cfg := Load()

	assert.Equal(t, 50, cfg.Retrieval.NumCandidates)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 0.5, cfg.Retrieval.SimilarityThreshold)
	assert.Equal(t, 0.3, cfg.Retrieval.MMRLambda)
}

func TestLoad_RerankerWeights_Defaults(t *testing.T) {
	for _, key := range []string{"RETRIEVAL_WEIGHT_SEMANTIC", "RETRIEVAL_WEIGHT_LEXICAL", "RETRIEVAL_WEIGHT_POSITION"} {
		_ = os.Unsetenv(key)
	}

	cfg := Load()

	assert.Equal(t, 0.7, cfg.Retrieval.WeightSemantic)
	assert.Equal(t, 0.2, cfg.Retrieval.WeightLexical)
	assert.Equal(t, 0.1, cfg.Retrieval.WeightPosition)
}

func TestLoad_EmbedderSettings_FromEnv(t *testing.T) {
	t.Setenv("EMBEDDER_URL", "http://embedder.test:11434")
	t.Setenv("EMBEDDING_MODEL_PRIMARY", "test-primary")
	t.Setenv("EMBEDDING_MODEL_FALLBACK", "test-fallback")

	cfg := Load()

	assert.Equal(t, "http://embedder.test:11434", cfg.Embedder.URL)
	assert.Equal(t, "test-primary", cfg.Embedder.PrimaryModel)
	assert.Equal(t, "test-fallback", cfg.Embedder.FallbackModel)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "not-a-number")

	cfg := Load()

	assert.Equal(t, 8, cfg.Retrieval.TopK)
}

func TestGetSecret_PrefersDirectEnv(t *testing.T) {
	t.Setenv("DB_PASSWORD", "direct-secret")

	cfg := Load()

	assert.Equal(t, "direct-secret", cfg.DBPassword)
}

func TestGetSecret_ReadsFromFile(t *testing.T) {
	_ = os.Unsetenv("DB_PASSWORD")
	file := t.TempDir() + "/secret"
	assert.NoError(t, os.WriteFile(file, []byte("file-secret\n"), 0o600))
	t.Setenv("DB_PASSWORD_FILE", file)

	cfg := Load()

	assert.Equal(t, "file-secret", cfg.DBPassword)
}
