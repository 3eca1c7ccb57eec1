package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	IngestJobKindIngest  = "ingest"
	IngestJobKindReindex = "reindex"

	IngestJobStatusQueued    = "queued"
	IngestJobStatusRunning   = "running"
	IngestJobStatusSucceeded = "succeeded"
	IngestJobStatusFailed    = "failed"
)

// IngestJob is one queued ingestion or reindex request. The worker pool claims
// rows with FOR UPDATE SKIP LOCKED; delivery is at-least-once, so every pipeline
// stage must tolerate redelivery.
type IngestJob struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	Kind           string    `gorm:"column:kind;not null;index" json:"kind"`
	DocumentID     uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	ChunkProfileID uuid.UUID `gorm:"type:uuid;not null" json:"chunk_profile_id"`

	Status   string `gorm:"column:status;not null;default:'queued';index" json:"status"`
	Attempts int    `gorm:"column:attempts;not null;default:0" json:"attempts"`

	LastError   string     `gorm:"column:last_error;type:text" json:"last_error,omitempty"`
	LastErrorAt *time.Time `gorm:"column:last_error_at" json:"last_error_at,omitempty"`

	LockedAt    *time.Time `gorm:"column:locked_at" json:"locked_at,omitempty"`
	HeartbeatAt *time.Time `gorm:"column:heartbeat_at" json:"heartbeat_at,omitempty"`
	FinishedAt  *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`

	Payload datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (IngestJob) TableName() string { return "ingest_job" }
