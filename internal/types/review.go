package types

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_reviews_user_book" json:"user_id"`
	BookID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_reviews_user_book;index" json:"book_id"`
	Rating     int       `gorm:"not null;column:rating" json:"rating"`
	ReviewText string    `gorm:"type:text;column:review_text" json:"review_text,omitempty"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (Review) TableName() string { return "reviews" }
