package types

import (
	"time"

	"github.com/google/uuid"
)

// Artifact kinds. Exactly one artifact row exists per (book, kind).
const (
	ArtifactKindSummary   = "summary"
	ArtifactKindConsensus = "consensus"
)

// Artifact statuses. Transitions are monotonic except failed -> running on retry.
const (
	ArtifactStatusPending   = "pending"
	ArtifactStatusRunning   = "running"
	ArtifactStatusCompleted = "completed"
	ArtifactStatusFailed    = "failed"
)

// BookArtifact is an AI-generated text result (summary or review consensus)
// with its own lifecycle, owned by the artifact jobs.
type BookArtifact struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BookID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_book_artifacts_book_kind" json:"book_id"`
	Kind          string    `gorm:"not null;uniqueIndex:uq_book_artifacts_book_kind;column:kind" json:"kind"`
	Status        string    `gorm:"not null;default:'pending';column:status" json:"status"`
	ModelName     string    `gorm:"column:model_name" json:"model_name"`
	PromptVersion string    `gorm:"column:prompt_version" json:"prompt_version"`
	Content       string    `gorm:"type:text;column:content" json:"content,omitempty"`
	ErrorMessage  string    `gorm:"type:text;column:error_message" json:"error_message,omitempty"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

func (BookArtifact) TableName() string { return "book_artifacts" }
