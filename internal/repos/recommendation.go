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

// TagWeight is a preference row joined with its tag name, the shape the
// content scorer consumes.
type TagWeight struct {
	TagID  uuid.UUID
	Name   string
	Weight float64
}

type RecommendationRepo interface {
	LatestSnapshot(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.RecommendationSnapshot, error)
	CreateSnapshot(ctx context.Context, tx *gorm.DB, snap *types.RecommendationSnapshot) (*types.RecommendationSnapshot, error)
	ReplaceItems(ctx context.Context, tx *gorm.DB, snapshotID uuid.UUID, items []*types.RecommendationItem) error
	ItemsForSnapshot(ctx context.Context, tx *gorm.DB, snapshotID uuid.UUID) ([]*types.RecommendationItem, error)
	PreferencesWithNames(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]TagWeight, error)
	ReplacePreferences(ctx context.Context, tx *gorm.DB, userID uuid.UUID, weights map[uuid.UUID]float64) error
	UserBorrowedBookIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[string]bool, error)
}

type recommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationRepo {
	return &recommendationRepo{db: db, log: baseLog.With("repo", "RecommendationRepo")}
}

func (r *recommendationRepo) LatestSnapshot(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.RecommendationSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var snap types.RecommendationSnapshot
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("generated_at DESC").
		First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (r *recommendationRepo) CreateSnapshot(ctx context.Context, tx *gorm.DB, snap *types.RecommendationSnapshot) (*types.RecommendationSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	if snap.GeneratedAt.IsZero() {
		snap.GeneratedAt = time.Now()
	}
	if err := transaction.WithContext(ctx).Create(snap).Error; err != nil {
		return nil, err
	}
	return snap, nil
}

func (r *recommendationRepo) ReplaceItems(ctx context.Context, tx *gorm.DB, snapshotID uuid.UUID, items []*types.RecommendationItem) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Where("snapshot_id = ?", snapshotID).Delete(&types.RecommendationItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.SnapshotID = snapshotID
	}
	return transaction.WithContext(ctx).Create(&items).Error
}

func (r *recommendationRepo) ItemsForSnapshot(ctx context.Context, tx *gorm.DB, snapshotID uuid.UUID) ([]*types.RecommendationItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var items []*types.RecommendationItem
	err := transaction.WithContext(ctx).
		Where("snapshot_id = ?", snapshotID).
		Order("rank ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *recommendationRepo) PreferencesWithNames(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]TagWeight, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []TagWeight
	err := transaction.WithContext(ctx).
		Table("user_tag_preferences").
		Select("user_tag_preferences.tag_id AS tag_id, tags.name AS name, user_tag_preferences.weight AS weight").
		Joins("JOIN tags ON tags.id = user_tag_preferences.tag_id").
		Where("user_tag_preferences.user_id = ?", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *recommendationRepo) ReplacePreferences(ctx context.Context, tx *gorm.DB, userID uuid.UUID, weights map[uuid.UUID]float64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Where("user_id = ?", userID).Delete(&types.UserTagPreference{}).Error; err != nil {
		return err
	}
	if len(weights) == 0 {
		return nil
	}
	now := time.Now()
	prefs := make([]*types.UserTagPreference, 0, len(weights))
	for tagID, weight := range weights {
		prefs = append(prefs, &types.UserTagPreference{
			ID:        uuid.New(),
			UserID:    userID,
			TagID:     tagID,
			Weight:    weight,
			UpdatedAt: now,
		})
	}
	return transaction.WithContext(ctx).Create(&prefs).Error
}

func (r *recommendationRepo) UserBorrowedBookIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[string]bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	err := transaction.WithContext(ctx).
		Model(&types.Borrow{}).
		Distinct("book_id").
		Where("user_id = ?", userID).
		Pluck("book_id", &ids).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id.String()] = true
	}
	return out, nil
}
