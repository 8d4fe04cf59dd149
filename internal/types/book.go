package types

import (
	"time"

	"github.com/google/uuid"
)

type Book struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string    `gorm:"not null;column:title" json:"title"`
	Author        string    `gorm:"not null;column:author" json:"author"`
	ISBN          *string   `gorm:"uniqueIndex;column:isbn" json:"isbn,omitempty"`
	Language      string    `gorm:"column:language" json:"language,omitempty"`
	PublishedYear *int      `gorm:"column:published_year" json:"published_year,omitempty"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}

func (Book) TableName() string { return "books" }

// BookFile is the stored source document for a book. At most one per book;
// the summary job reads it through the storage provider.
type BookFile struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BookID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"book_id"`
	StorageProvider  string    `gorm:"not null;column:storage_provider" json:"storage_provider"`
	ObjectKey        string    `gorm:"not null;column:object_key" json:"object_key"`
	FileType         string    `gorm:"not null;column:file_type" json:"file_type"`
	MimeType         string    `gorm:"column:mime_type" json:"mime_type,omitempty"`
	SizeBytes        int64     `gorm:"column:size_bytes" json:"size_bytes,omitempty"`
	OriginalFilename string    `gorm:"column:original_filename" json:"original_filename,omitempty"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
}

func (BookFile) TableName() string { return "book_files" }
