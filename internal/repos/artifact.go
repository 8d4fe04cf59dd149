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

type ArtifactRepo interface {
	GetByBookAndKind(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, kind string) (*types.BookArtifact, error)
	Create(ctx context.Context, tx *gorm.DB, artifact *types.BookArtifact) (*types.BookArtifact, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
}

type artifactRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewArtifactRepo(db *gorm.DB, baseLog *logger.Logger) ArtifactRepo {
	return &artifactRepo{db: db, log: baseLog.With("repo", "ArtifactRepo")}
}

func (r *artifactRepo) GetByBookAndKind(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, kind string) (*types.BookArtifact, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var artifact types.BookArtifact
	err := transaction.WithContext(ctx).Where("book_id = ? AND kind = ?", bookID, kind).First(&artifact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &artifact, nil
}

func (r *artifactRepo) Create(ctx context.Context, tx *gorm.DB, artifact *types.BookArtifact) (*types.BookArtifact, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if artifact.ID == uuid.Nil {
		artifact.ID = uuid.New()
	}
	if artifact.Status == "" {
		artifact.Status = types.ArtifactStatusPending
	}
	artifact.UpdatedAt = time.Now()
	if err := transaction.WithContext(ctx).Create(artifact).Error; err != nil {
		return nil, err
	}
	return artifact, nil
}

func (r *artifactRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	fields["updated_at"] = time.Now()
	return transaction.WithContext(ctx).
		Model(&types.BookArtifact{}).
		Where("id = ?", id).
		Updates(fields).Error
}
