package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChunkProfile is an operator-managed (size, overlap) configuration. At most
// one profile is active at any time; activation flips atomically.
type ChunkProfile struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	Name         string `gorm:"column:name;size:255;not null;uniqueIndex" json:"name"`
	Description  string `gorm:"column:description;type:text" json:"description,omitempty"`
	ChunkSize    int    `gorm:"column:chunk_size;not null" json:"chunk_size"`
	ChunkOverlap int    `gorm:"column:chunk_overlap;not null" json:"chunk_overlap"`
	IsActive     bool   `gorm:"column:is_active;not null;default:false;index" json:"is_active"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ChunkProfile) TableName() string { return "chunk_profile" }

// DocumentChunk is the unit of embedding and retrieval. Chunks produced under
// one profile form a generation; reindexing under another profile adds a new
// generation without touching prior ones.
type DocumentChunk struct {
	ID         uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID uuid.UUID        `gorm:"type:uuid;not null;index" json:"document_id"`
	SectionID  uuid.UUID        `gorm:"type:uuid;not null;index:idx_chunk_generation,unique,priority:1" json:"section_id"`
	Section    *DocumentSection `gorm:"constraint:OnDelete:CASCADE;foreignKey:SectionID;references:ID" json:"section,omitempty"`

	ChunkProfileID uuid.UUID     `gorm:"type:uuid;not null;index;index:idx_chunk_generation,unique,priority:2" json:"chunk_profile_id"`
	ChunkProfile   *ChunkProfile `gorm:"foreignKey:ChunkProfileID;references:ID" json:"chunk_profile,omitempty"`

	ChunkIndex int    `gorm:"column:chunk_index;not null;index:idx_chunk_generation,unique,priority:3" json:"chunk_index"`
	Text       string `gorm:"column:text;type:text;not null" json:"text"`

	// Copied verbatim from the owning section, never recomputed.
	SourceRef string `gorm:"column:source_ref;size:512;not null;index" json:"source_ref"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (DocumentChunk) TableName() string { return "document_chunk" }
