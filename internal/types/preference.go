package types

import (
	"time"

	"github.com/google/uuid"
)

// UserTagPreference is one row of a user's aggregated tag weight vector.
// The whole set for a user is replaced on every recompute, never patched.
type UserTagPreference struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_user_tag_pref_user_tag;index" json:"user_id"`
	TagID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_user_tag_pref_user_tag" json:"tag_id"`
	Weight    float64   `gorm:"not null;column:weight" json:"weight"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserTagPreference) TableName() string { return "user_tag_preferences" }
