package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Citation is a (document, source_ref) pair. Matching during evaluation is
// exact joint equality on both fields.
type Citation struct {
	DocumentID uuid.UUID `json:"document_id" yaml:"document_id"`
	SourceRef  string    `json:"source_ref" yaml:"source_ref"`
}

// EvaluationItem is an immutable golden-set fixture loaded from file.
type EvaluationItem struct {
	ID              string     `json:"id" yaml:"id"`
	Question        string     `json:"question" yaml:"question"`
	ExpectedAnswer  string     `json:"expected_answer" yaml:"expected_answer"`
	ExpectedSources []Citation `json:"expected_sources" yaml:"expected_sources"`
}

type EvaluationRun struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	DatasetName    string    `gorm:"column:dataset_name;not null" json:"dataset_name"`
	ChunkProfileID uuid.UUID `gorm:"type:uuid;not null;index" json:"chunk_profile_id"`
	EmbeddingModel string    `gorm:"column:embedding_model;not null" json:"embedding_model"`
	GeneratorModel string    `gorm:"column:generator_model;not null" json:"generator_model"`
	TopK           int       `gorm:"column:top_k;not null" json:"top_k"`

	// Aggregate metrics blob (mean recall, mean MRR, rates, composite, coverage).
	Metrics datatypes.JSON `gorm:"column:metrics;type:jsonb;not null" json:"metrics"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (EvaluationRun) TableName() string { return "evaluation_run" }

type EvaluationResult struct {
	ID    uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RunID uuid.UUID      `gorm:"type:uuid;not null;index" json:"run_id"`
	Run   *EvaluationRun `gorm:"constraint:OnDelete:CASCADE;foreignKey:RunID;references:ID" json:"run,omitempty"`

	ItemID          string         `gorm:"column:item_id;not null" json:"item_id"`
	Question        string         `gorm:"column:question;type:text" json:"question"`
	GeneratedAnswer string         `gorm:"column:generated_answer;type:text" json:"generated_answer"`
	RetrievedCites  datatypes.JSON `gorm:"column:retrieved_citations;type:jsonb" json:"retrieved_citations"`

	RecallAtK          float64 `gorm:"column:recall_at_k;not null" json:"recall_at_k"`
	MRR                float64 `gorm:"column:mrr;not null" json:"mrr"`
	SemanticSimilarity float64 `gorm:"column:semantic_similarity;not null" json:"semantic_similarity"`
	SemanticCorrect    bool    `gorm:"column:semantic_correct;not null" json:"semantic_correct"`
	CitationHit        bool    `gorm:"column:citation_hit;not null" json:"citation_hit"`
	RetrievedCount     int     `gorm:"column:retrieved_count;not null" json:"retrieved_count"`

	Failed       bool   `gorm:"column:failed;not null;default:false" json:"failed"`
	ErrorMessage string `gorm:"column:error_message;type:text" json:"error_message,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (EvaluationResult) TableName() string { return "evaluation_result" }
