package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/types"
)

type BorrowRepo interface {
	Create(ctx context.Context, tx *gorm.DB, borrow *types.Borrow) (*types.Borrow, error)
	GetActiveByBook(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (*types.Borrow, error)
	GetActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Borrow, error)
	GetActiveByUserAndBook(ctx context.Context, tx *gorm.DB, userID, bookID uuid.UUID) (*types.Borrow, error)
	GetAnyByUserAndBook(ctx context.Context, tx *gorm.DB, userID, bookID uuid.UUID) (*types.Borrow, error)
	MarkReturned(ctx context.Context, tx *gorm.DB, id uuid.UUID, returnedAt time.Time) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Borrow, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Borrow, error)
}

type borrowRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBorrowRepo(db *gorm.DB, baseLog *logger.Logger) BorrowRepo {
	return &borrowRepo{db: db, log: baseLog.With("repo", "BorrowRepo")}
}

func (r *borrowRepo) Create(ctx context.Context, tx *gorm.DB, borrow *types.Borrow) (*types.Borrow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if borrow.ID == uuid.Nil {
		borrow.ID = uuid.New()
	}
	if borrow.BorrowedAt.IsZero() {
		borrow.BorrowedAt = time.Now()
	}
	if err := transaction.WithContext(ctx).Create(borrow).Error; err != nil {
		return nil, err
	}
	return borrow, nil
}

func (r *borrowRepo) GetActiveByBook(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (*types.Borrow, error) {
	return r.firstOrNil(ctx, tx, "book_id = ? AND returned_at IS NULL", bookID)
}

func (r *borrowRepo) GetActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Borrow, error) {
	return r.firstOrNil(ctx, tx, "user_id = ? AND returned_at IS NULL", userID)
}

func (r *borrowRepo) GetActiveByUserAndBook(ctx context.Context, tx *gorm.DB, userID, bookID uuid.UUID) (*types.Borrow, error) {
	return r.firstOrNil(ctx, tx, "user_id = ? AND book_id = ? AND returned_at IS NULL", userID, bookID)
}

func (r *borrowRepo) GetAnyByUserAndBook(ctx context.Context, tx *gorm.DB, userID, bookID uuid.UUID) (*types.Borrow, error) {
	return r.firstOrNil(ctx, tx, "user_id = ? AND book_id = ?", userID, bookID)
}

func (r *borrowRepo) MarkReturned(ctx context.Context, tx *gorm.DB, id uuid.UUID, returnedAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Borrow{}).
		Where("id = ? AND returned_at IS NULL", id).
		Update("returned_at", returnedAt).Error
}

func (r *borrowRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Borrow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Borrow
	if err := transaction.WithContext(ctx).Where("user_id = ?", userID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *borrowRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Borrow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Borrow
	if err := transaction.WithContext(ctx).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *borrowRepo) firstOrNil(ctx context.Context, tx *gorm.DB, query string, args ...interface{}) (*types.Borrow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var borrow types.Borrow
	err := transaction.WithContext(ctx).Where(query, args...).First(&borrow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &borrow, nil
}
