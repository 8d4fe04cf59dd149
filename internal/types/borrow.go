package types

import (
	"time"

	"github.com/google/uuid"
)

type Borrow struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	BookID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"book_id"`
	BorrowedAt time.Time  `gorm:"not null" json:"borrowed_at"`
	DueAt      *time.Time `gorm:"column:due_at" json:"due_at,omitempty"`
	ReturnedAt *time.Time `gorm:"column:returned_at" json:"returned_at,omitempty"`
}

func (Borrow) TableName() string { return "borrows" }

// Active reports whether the borrow has not been returned yet.
func (b *Borrow) Active() bool { return b.ReturnedAt == nil }
