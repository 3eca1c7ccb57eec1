package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Document lifecycle statuses. Transitions are driven exclusively by the
// ingestion pipeline; FAILED is reachable from any non-terminal state.
const (
	DocumentStatusUploaded   = "uploaded"
	DocumentStatusExtracting = "extracting"
	DocumentStatusChunking   = "chunking"
	DocumentStatusEmbedding  = "embedding"
	DocumentStatusReady      = "ready"
	DocumentStatusFailed     = "failed"
)

type Document struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	SHA256       string `gorm:"column:sha256;size:64;not null;uniqueIndex" json:"sha256"`
	OriginalName string `gorm:"column:original_name;not null" json:"original_name"`
	Format       string `gorm:"column:format;index" json:"format"`
	SizeBytes    int64  `gorm:"column:size_bytes" json:"size_bytes"`
	// Where the raw upload lives on disk; content-addressed by sha256.
	StoragePath string `gorm:"column:storage_path" json:"-"`

	Status       string `gorm:"column:status;not null;default:'uploaded';index" json:"status"`
	ErrorMessage string `gorm:"column:error_message;type:text" json:"error_message,omitempty"`

	// Profile ids for which this document is currently embedded-and-ready.
	ReadyProfiles datatypes.JSON `gorm:"column:ready_profiles;type:jsonb" json:"ready_profiles"`

	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Document) TableName() string { return "document" }

// DocumentSection is one extracted unit of a document with a stable,
// human-interpretable source_ref (page=5, slide=3, sheet=Sales, heading=Intro).
// Sections are written once during extraction and never mutated.
type DocumentSection struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_document_section_ref,unique,priority:1" json:"document_id"`
	Document   *Document `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"document,omitempty"`

	SectionIndex int    `gorm:"column:section_index;not null" json:"section_index"`
	SourceRef    string `gorm:"column:source_ref;size:512;not null;index:idx_document_section_ref,unique,priority:2" json:"source_ref"`
	Text         string `gorm:"column:text;type:text;not null" json:"text"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (DocumentSection) TableName() string { return "document_section" }
