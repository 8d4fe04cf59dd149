package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Job types handled by the worker pool.
const (
	JobTypeBookSummarize           = "book_summarize"
	JobTypeReviewConsensus         = "review_consensus"
	JobTypePreferenceRecompute     = "preference_recompute"
	JobTypeRecommendationRecompute = "recommendation_recompute"
)

// JobRun is one execution record in the DB-backed job queue. Workers claim
// runnable rows with SKIP LOCKED; failed rows become claimable again after an
// exponential backoff window until attempts reaches the configured maximum.
type JobRun struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	JobType     string         `gorm:"not null;index;column:job_type" json:"job_type"`
	EntityType  string         `gorm:"column:entity_type" json:"entity_type"`
	EntityID    *uuid.UUID     `gorm:"type:uuid;index;column:entity_id" json:"entity_id,omitempty"`
	Status      string         `gorm:"not null;index;column:status" json:"status"`
	Stage       string         `gorm:"column:stage" json:"stage"`
	Attempts    int            `gorm:"not null;default:0;column:attempts" json:"attempts"`
	Message     string         `gorm:"column:message" json:"message"`
	Error       string         `gorm:"type:text;column:error" json:"error,omitempty"`
	Payload     datatypes.JSON `gorm:"type:jsonb;column:payload" json:"payload"`
	Result      datatypes.JSON `gorm:"type:jsonb;column:result" json:"result"`
	LockedAt    *time.Time     `gorm:"column:locked_at" json:"locked_at,omitempty"`
	HeartbeatAt *time.Time     `gorm:"column:heartbeat_at" json:"heartbeat_at,omitempty"`
	LastErrorAt *time.Time     `gorm:"column:last_error_at" json:"last_error_at,omitempty"`
	NextRetryAt *time.Time     `gorm:"index;column:next_retry_at" json:"next_retry_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (JobRun) TableName() string { return "job_runs" }
