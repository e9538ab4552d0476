package config

import (
	"os"
	"strconv"
	"strings"
)

// RetrievalSettings carries the env-tunable pipeline parameters.
type RetrievalSettings struct {
	NumCandidates       int
	TopK                int
	SimilarityThreshold float64
	RelaxationFactor    float64
	MMRLambda           float64
	MaxAdjacent         int
	MaxTotalChars       int
	WeightSemantic      float64
	WeightLexical       float64
	WeightPosition      float64
}

// EmbedderSettings configures the external embedding service.
type EmbedderSettings struct {
	URL            string
	PrimaryModel   string
	FallbackModel  string
	TimeoutSeconds int
}

type Config struct {
	Env        string
	Port       string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBTimeout  int

	Embedder  EmbedderSettings
	Retrieval RetrievalSettings
}

func Load() *Config {
	return &Config{
		Env:        getEnv("ENV", "development"),
		Port:       getEnv("PORT", "9020"),
		DBHost:     getEnv("DB_HOST", "lexrag-db"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "lexrag_user"),
		DBPassword: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "lexrag_password"),
		DBName:     getEnv("DB_NAME", "lexrag_db"),
		DBTimeout:  getEnvInt("DB_TIMEOUT_SECONDS", 10),
		Embedder: EmbedderSettings{
			URL:            getEnv("EMBEDDER_URL", "http://embedder:11434"),
			PrimaryModel:   getEnv("EMBEDDING_MODEL_PRIMARY", "embeddinggemma"),
			FallbackModel:  getEnv("EMBEDDING_MODEL_FALLBACK", "nomic-embed-text"),
			TimeoutSeconds: getEnvInt("EMBEDDER_TIMEOUT_SECONDS", 30),
		},
		Retrieval: RetrievalSettings{
			NumCandidates:       getEnvInt("RETRIEVAL_NUM_CANDIDATES", 20),
			TopK:                getEnvInt("RETRIEVAL_TOP_K", 8),
			SimilarityThreshold: getEnvFloat("RETRIEVAL_SIMILARITY_THRESHOLD", 0.35),
			RelaxationFactor:    getEnvFloat("RETRIEVAL_RELAXATION_FACTOR", 0.7),
			MMRLambda:           getEnvFloat("RETRIEVAL_MMR_LAMBDA", 0.7),
			MaxAdjacent:         getEnvInt("RETRIEVAL_MAX_ADJACENT", 4),
			MaxTotalChars:       getEnvInt("RETRIEVAL_MAX_TOTAL_CHARS", 8000),
			WeightSemantic:      getEnvFloat("RETRIEVAL_WEIGHT_SEMANTIC", 0.7),
			WeightLexical:       getEnvFloat("RETRIEVAL_WEIGHT_LEXICAL", 0.2),
			WeightPosition:      getEnvFloat("RETRIEVAL_WEIGHT_POSITION", 0.1),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
