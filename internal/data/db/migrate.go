package db

import (
	"gorm.io/gorm"

	types "github.com/IGabriel/ai-knowledge-bench/internal/domain"
)

// AutoMigrateAll migrates the relational entities. Per-model embedding tables
// are created lazily by the pgvector store because their vector dimension is
// only known per embedding model.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Documents (upload + extraction)
		&types.Document{},
		&types.DocumentSection{},

		// Chunking
		&types.ChunkProfile{},
		&types.DocumentChunk{},

		// Evaluation
		&types.EvaluationRun{},
		&types.EvaluationResult{},

		// Queue
		&types.IngestJob{},
	)
}
