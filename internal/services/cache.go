package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/types"
)

// CacheService is a read-through cache for the latest recommendation snapshot.
// Misses and Redis errors are both treated as misses; the database stays the
// source of truth.
type CacheService interface {
	GetSnapshot(ctx context.Context, userID uuid.UUID) (*types.RecommendationSnapshot, []*types.RecommendationItem, bool)
	SetSnapshot(ctx context.Context, userID uuid.UUID, snap *types.RecommendationSnapshot, items []*types.RecommendationItem)
	InvalidateSnapshot(ctx context.Context, userID uuid.UUID)
}

type cachedSnapshot struct {
	Snapshot *types.RecommendationSnapshot `json:"snapshot"`
	Items    []*types.RecommendationItem   `json:"items"`
}

type redisCache struct {
	log    *logger.Logger
	client *redis.Client
	ttl    time.Duration
}

// NewCacheService returns a Redis-backed cache when addr is set, otherwise a
// no-op cache so callers never branch on configuration.
func NewCacheService(log *logger.Logger, addr string, ttl time.Duration) CacheService {
	if addr == "" {
		return noopCache{}
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &redisCache{
		log:    log.With("service", "CacheService"),
		client: client,
		ttl:    ttl,
	}
}

func snapshotKey(userID uuid.UUID) string {
	return fmt.Sprintf("recs:latest:%s", userID)
}

func (c *redisCache) GetSnapshot(ctx context.Context, userID uuid.UUID) (*types.RecommendationSnapshot, []*types.RecommendationItem, bool) {
	raw, err := c.client.Get(ctx, snapshotKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("Cache read failed", "user_id", userID, "error", err)
		}
		return nil, nil, false
	}
	var cached cachedSnapshot
	if err := json.Unmarshal(raw, &cached); err != nil || cached.Snapshot == nil {
		return nil, nil, false
	}
	return cached.Snapshot, cached.Items, true
}

func (c *redisCache) SetSnapshot(ctx context.Context, userID uuid.UUID, snap *types.RecommendationSnapshot, items []*types.RecommendationItem) {
	raw, err := json.Marshal(cachedSnapshot{Snapshot: snap, Items: items})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, snapshotKey(userID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("Cache write failed", "user_id", userID, "error", err)
	}
}

func (c *redisCache) InvalidateSnapshot(ctx context.Context, userID uuid.UUID) {
	if err := c.client.Del(ctx, snapshotKey(userID)).Err(); err != nil {
		c.log.Warn("Cache invalidate failed", "user_id", userID, "error", err)
	}
}

type noopCache struct{}

func (noopCache) GetSnapshot(context.Context, uuid.UUID) (*types.RecommendationSnapshot, []*types.RecommendationItem, bool) {
	return nil, nil, false
}
func (noopCache) SetSnapshot(context.Context, uuid.UUID, *types.RecommendationSnapshot, []*types.RecommendationItem) {
}
func (noopCache) InvalidateSnapshot(context.Context, uuid.UUID) {}
