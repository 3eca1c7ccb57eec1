package app

import (
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/envutil"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
)

type Config struct {
	// Defaults used when an operator has not created any profile yet.
	DefaultChunkSize    int
	DefaultChunkOverlap int

	EmbeddingModel string

	TopK                int
	SimilarityThreshold float64
	// Cosine similarity above which a generated answer counts as
	// semantically correct during evaluation.
	SemanticThreshold float64
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		DefaultChunkSize:    envutil.GetEnvAsInt("DEFAULT_CHUNK_SIZE", 512, log),
		DefaultChunkOverlap: envutil.GetEnvAsInt("DEFAULT_CHUNK_OVERLAP", 128, log),
		EmbeddingModel:      envutil.GetEnv("OPENAI_EMBED_MODEL", "text-embedding-3-small", log),
		TopK:                envutil.GetEnvAsInt("RETRIEVAL_TOP_K", 5, log),
		SimilarityThreshold: envutil.GetEnvAsFloat("RETRIEVAL_SIMILARITY_THRESHOLD", 0.7, log),
		SemanticThreshold:   envutil.GetEnvAsFloat("EVAL_SEMANTIC_SIMILARITY_THRESHOLD", 0.75, log),
	}
}
