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

type ReviewRepo interface {
	Create(ctx context.Context, tx *gorm.DB, review *types.Review) (*types.Review, error)
	GetByUserAndBook(ctx context.Context, tx *gorm.DB, userID, bookID uuid.UUID) (*types.Review, error)
	ListForBook(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) ([]*types.Review, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Review, error)
}

type reviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRepo {
	return &reviewRepo{db: db, log: baseLog.With("repo", "ReviewRepo")}
}

func (r *reviewRepo) Create(ctx context.Context, tx *gorm.DB, review *types.Review) (*types.Review, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}
	if err := transaction.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

func (r *reviewRepo) GetByUserAndBook(ctx context.Context, tx *gorm.DB, userID, bookID uuid.UUID) (*types.Review, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var review types.Review
	err := transaction.WithContext(ctx).Where("user_id = ? AND book_id = ?", userID, bookID).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepo) ListForBook(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) ([]*types.Review, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Review
	if err := transaction.WithContext(ctx).Where("book_id = ?", bookID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reviewRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Review, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Review
	if err := transaction.WithContext(ctx).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
