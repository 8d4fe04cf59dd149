package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/types"
)

type TagRepo interface {
	GetOrCreate(ctx context.Context, tx *gorm.DB, name string) (*types.Tag, error)
	SetBookTags(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, names []string) error
	// TagsForBooks returns every book's tag names keyed by the book's uuid string.
	TagsForBooks(ctx context.Context, tx *gorm.DB) (map[string][]string, error)
	// TagIDsForBooks returns every book's tag ids keyed by the book's uuid string.
	TagIDsForBooks(ctx context.Context, tx *gorm.DB) (map[string][]uuid.UUID, error)
}

type tagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo {
	return &tagRepo{db: db, log: baseLog.With("repo", "TagRepo")}
}

func (r *tagRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, name string) (*types.Tag, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var tag types.Tag
	err := transaction.WithContext(ctx).Where("name = ?", name).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	tag = types.Tag{ID: uuid.New(), Name: name}
	if err := transaction.WithContext(ctx).Create(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepo) SetBookTags(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, names []string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Where("book_id = ?", bookID).Delete(&types.BookTag{}).Error; err != nil {
		return err
	}
	for _, name := range names {
		tag, err := r.GetOrCreate(ctx, transaction, name)
		if err != nil {
			return err
		}
		bt := types.BookTag{BookID: bookID, TagID: tag.ID}
		if err := transaction.WithContext(ctx).Create(&bt).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *tagRepo) TagsForBooks(ctx context.Context, tx *gorm.DB) (map[string][]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []struct {
		BookID uuid.UUID
		Name   string
	}
	err := transaction.WithContext(ctx).
		Table("book_tags").
		Select("book_tags.book_id AS book_id, tags.name AS name").
		Joins("JOIN tags ON tags.id = book_tags.tag_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(rows))
	for _, row := range rows {
		key := row.BookID.String()
		out[key] = append(out[key], row.Name)
	}
	return out, nil
}

func (r *tagRepo) TagIDsForBooks(ctx context.Context, tx *gorm.DB) (map[string][]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []types.BookTag
	if err := transaction.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string][]uuid.UUID, len(rows))
	for _, row := range rows {
		key := row.BookID.String()
		out[key] = append(out[key], row.TagID)
	}
	return out, nil
}
