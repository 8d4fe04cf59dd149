package types

import (
	"github.com/google/uuid"
)

type Tag struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"uniqueIndex;not null;column:name" json:"name"`
}

func (Tag) TableName() string { return "tags" }

type BookTag struct {
	BookID uuid.UUID `gorm:"type:uuid;primaryKey" json:"book_id"`
	TagID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"tag_id"`
}

func (BookTag) TableName() string { return "book_tags" }
