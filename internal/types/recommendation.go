package types

import (
	"time"

	"github.com/google/uuid"
)

// Recommendation provider tags persisted on snapshots.
const (
	ProviderContent = "content"
	ProviderMLALS   = "ml_als"
)

// RecommendationSnapshot is one immutable ranked result set for a user.
// A user accumulates snapshots over time; the most recent generated_at wins
// on reads. Concurrent recomputes each own their snapshot.
type RecommendationSnapshot struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	GeneratedAt time.Time `gorm:"not null;index" json:"generated_at"`
	Provider    string    `gorm:"column:provider" json:"provider"`
}

func (RecommendationSnapshot) TableName() string { return "recommendation_snapshots" }

type RecommendationItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SnapshotID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_rec_items_snapshot_book;index" json:"snapshot_id"`
	BookID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_rec_items_snapshot_book" json:"book_id"`
	Score      float64   `gorm:"not null;column:score" json:"score"`
	Rank       int       `gorm:"not null;column:rank" json:"rank"`
}

func (RecommendationItem) TableName() string { return "recommendation_items" }
