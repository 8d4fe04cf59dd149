package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/types"
)

type BookFileRepo interface {
	GetByBook(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (*types.BookFile, error)
}

type bookFileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookFileRepo(db *gorm.DB, baseLog *logger.Logger) BookFileRepo {
	return &bookFileRepo{db: db, log: baseLog.With("repo", "BookFileRepo")}
}

func (r *bookFileRepo) GetByBook(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (*types.BookFile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var bf types.BookFile
	err := transaction.WithContext(ctx).Where("book_id = ?", bookID).First(&bf).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bf, nil
}
