package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/types"
)

type BookRepo interface {
	Create(ctx context.Context, tx *gorm.DB, book *types.Book) (*types.Book, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Book, error)
	ListByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Book, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Book, error)
}

type bookRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookRepo(db *gorm.DB, baseLog *logger.Logger) BookRepo {
	return &bookRepo{db: db, log: baseLog.With("repo", "BookRepo")}
}

func (r *bookRepo) Create(ctx context.Context, tx *gorm.DB, book *types.Book) (*types.Book, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if book.ID == uuid.Nil {
		book.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

func (r *bookRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Book, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var book types.Book
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepo) ListByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Book, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var books []*types.Book
	if err := transaction.WithContext(ctx).Where("id IN ?", ids).Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

func (r *bookRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Book, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var books []*types.Book
	if err := transaction.WithContext(ctx).Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}
