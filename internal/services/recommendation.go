package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/recs"
	"github.com/luminalib/luminalib-backend/internal/repos"
	"github.com/luminalib/luminalib-backend/internal/types"
	"github.com/luminalib/luminalib-backend/internal/utils"
)

// RecommendationService orchestrates scoring and persistence. The synchronous
// endpoint and the background job both call Recompute, so a user sees the same
// result regardless of which path produced it.
type RecommendationService interface {
	// ComputeAndGet materializes preferences on first touch, recomputes a
	// snapshot, and returns it with its ranked items.
	ComputeAndGet(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) (*types.RecommendationSnapshot, []*types.RecommendationItem, error)
	// Recompute scores the user against the current interaction data and
	// persists a fresh snapshot.
	Recompute(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) (*types.RecommendationSnapshot, []*types.RecommendationItem, error)
	// RecomputePreferences rebuilds the user's tag weight vector from their
	// whole borrow history.
	RecomputePreferences(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	// Latest returns the most recent snapshot and its items, or (nil, nil)
	// when the user has never had one computed.
	Latest(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.RecommendationSnapshot, []*types.RecommendationItem, error)
}

type recommendationService struct {
	db       *gorm.DB
	log      *logger.Logger
	recRepo  repos.RecommendationRepo
	borrows  repos.BorrowRepo
	reviews  repos.ReviewRepo
	tags     repos.TagRepo
	cache    CacheService
	strategy string
	als      *recs.ALSRecommender
	content  recs.ContentRecommender
}

func NewRecommendationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	recRepo repos.RecommendationRepo,
	borrows repos.BorrowRepo,
	reviews repos.ReviewRepo,
	tags repos.TagRepo,
	cache CacheService,
) RecommendationService {
	log := baseLog.With("service", "RecommendationService")
	strategy := strings.ToLower(utils.GetEnv("RECOMMENDER_STRATEGY", types.ProviderMLALS, log))
	if strategy != types.ProviderMLALS && strategy != types.ProviderContent {
		log.Warn("Unknown RECOMMENDER_STRATEGY, using ml_als", "strategy", strategy)
		strategy = types.ProviderMLALS
	}
	return &recommendationService{
		db:       db,
		log:      log,
		recRepo:  recRepo,
		borrows:  borrows,
		reviews:  reviews,
		tags:     tags,
		cache:    cache,
		strategy: strategy,
		als:      recs.NewALSRecommender(recs.DefaultALSConfig()),
	}
}

func (s *recommendationService) ComputeAndGet(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) (*types.RecommendationSnapshot, []*types.RecommendationItem, error) {
	if userID == uuid.Nil {
		return nil, nil, fmt.Errorf("missing user id")
	}
	prefs, err := s.recRepo.PreferencesWithNames(ctx, tx, userID)
	if err != nil {
		return nil, nil, err
	}
	if len(prefs) == 0 {
		if err := s.RecomputePreferences(ctx, tx, userID); err != nil {
			return nil, nil, err
		}
	}
	return s.Recompute(ctx, tx, userID, limit)
}

// recInputs is everything Recompute reads, loaded concurrently.
type recInputs struct {
	borrows  []*types.Borrow
	reviews  []*types.Review
	bookTags map[string][]string
	prefs    []repos.TagWeight
	exclude  map[string]bool
}

func (s *recommendationService) loadInputs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*recInputs, error) {
	in := &recInputs{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		in.borrows, err = s.borrows.ListAll(gctx, tx)
		return err
	})
	g.Go(func() error {
		var err error
		in.reviews, err = s.reviews.ListAll(gctx, tx)
		return err
	})
	g.Go(func() error {
		var err error
		in.bookTags, err = s.tags.TagsForBooks(gctx, tx)
		return err
	})
	g.Go(func() error {
		var err error
		in.prefs, err = s.recRepo.PreferencesWithNames(gctx, tx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		in.exclude, err = s.recRepo.UserBorrowedBookIDs(gctx, tx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}

func (s *recommendationService) Recompute(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) (*types.RecommendationSnapshot, []*types.RecommendationItem, error) {
	if limit <= 0 {
		limit = 10
	}
	in, err := s.loadInputs(ctx, tx, userID)
	if err != nil {
		return nil, nil, err
	}

	prefWeights := make(map[string]float64, len(in.prefs))
	for _, p := range in.prefs {
		prefWeights[p.Name] = p.Weight
	}

	scored, provider, err := s.score(userID, in, prefWeights, limit)
	if err != nil {
		return nil, nil, err
	}

	// Final ordering is by score regardless of which scorer contributed the
	// item; ranks are dense from 1.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > limit {
		scored = scored[:limit]
	}

	snap, items, err := s.persist(ctx, tx, userID, provider, scored)
	if err != nil {
		return nil, nil, err
	}
	s.cache.InvalidateSnapshot(ctx, userID)
	s.log.Info("Recommendation snapshot computed",
		"user_id", userID, "provider", provider, "items", len(items))
	return snap, items, nil
}

// score runs the configured strategy and applies the content fallback and the
// non-displacing merge for collaborative results that come back short.
func (s *recommendationService) score(userID uuid.UUID, in *recInputs, prefWeights map[string]float64, limit int) ([]recs.ScoredBook, string, error) {
	if s.strategy == types.ProviderContent {
		return s.content.Recommend(prefWeights, in.bookTags, in.exclude, limit), types.ProviderContent, nil
	}

	interactions, err := recs.ExtractInteractions(in.borrows, in.reviews)
	if err != nil {
		return nil, "", err
	}
	m := recs.NewMatrix(interactions)

	row, known := m.UserRow(userID.String())
	if !known {
		// Cold start: the user has no interactions at all, so the model has
		// no row to score. Fall back entirely to content.
		return s.content.Recommend(prefWeights, in.bookTags, in.exclude, limit), types.ProviderContent, nil
	}

	collaborative := s.als.ScoreWithMatrix(m, row, in.exclude, limit)
	if len(collaborative) == 0 {
		return s.content.Recommend(prefWeights, in.bookTags, in.exclude, limit), types.ProviderContent, nil
	}
	if len(collaborative) >= limit {
		return collaborative, types.ProviderMLALS, nil
	}

	// Short collaborative result: top up with content scores without
	// displacing anything the model already picked.
	seen := make(map[string]bool, len(collaborative))
	for _, sb := range collaborative {
		seen[sb.BookID] = true
	}
	for _, sb := range s.content.Recommend(prefWeights, in.bookTags, in.exclude, limit) {
		if seen[sb.BookID] {
			continue
		}
		collaborative = append(collaborative, sb)
		if len(collaborative) >= limit {
			break
		}
	}
	return collaborative, types.ProviderMLALS, nil
}

func (s *recommendationService) persist(ctx context.Context, tx *gorm.DB, userID uuid.UUID, provider string, scored []recs.ScoredBook) (*types.RecommendationSnapshot, []*types.RecommendationItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	var snap *types.RecommendationSnapshot
	var items []*types.RecommendationItem
	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var err error
		snap, err = s.recRepo.CreateSnapshot(ctx, txx, &types.RecommendationSnapshot{
			UserID:   userID,
			Provider: provider,
		})
		if err != nil {
			return err
		}
		items = make([]*types.RecommendationItem, 0, len(scored))
		for i, sb := range scored {
			bookID, err := uuid.Parse(sb.BookID)
			if err != nil {
				return fmt.Errorf("scored book id %q: %w", sb.BookID, err)
			}
			items = append(items, &types.RecommendationItem{
				BookID: bookID,
				Score:  sb.Score,
				Rank:   i + 1,
			})
		}
		return s.recRepo.ReplaceItems(ctx, txx, snap.ID, items)
	})
	if err != nil {
		return nil, nil, err
	}
	return snap, items, nil
}

func (s *recommendationService) RecomputePreferences(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("missing user id")
	}
	var (
		borrows []*types.Borrow
		tagIDs  map[string][]uuid.UUID
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		borrows, err = s.borrows.ListByUser(gctx, tx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		tagIDs, err = s.tags.TagIDsForBooks(gctx, tx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	// Tag occurrence counts over the distinct books in the user's whole
	// borrow history, active and returned alike. A re-borrowed book counts
	// once; review signal feeds the interaction matrix instead.
	weights := map[uuid.UUID]float64{}
	counted := map[uuid.UUID]bool{}
	for _, b := range borrows {
		if counted[b.BookID] {
			continue
		}
		counted[b.BookID] = true
		for _, tagID := range tagIDs[b.BookID.String()] {
			weights[tagID] += 1.0
		}
	}

	if err := s.recRepo.ReplacePreferences(ctx, tx, userID, weights); err != nil {
		return err
	}
	s.log.Info("Preferences recomputed", "user_id", userID, "tags", len(weights))
	return nil
}

func (s *recommendationService) Latest(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.RecommendationSnapshot, []*types.RecommendationItem, error) {
	if snap, items, ok := s.cache.GetSnapshot(ctx, userID); ok {
		return snap, items, nil
	}
	snap, err := s.recRepo.LatestSnapshot(ctx, tx, userID)
	if err != nil {
		return nil, nil, err
	}
	if snap == nil {
		return nil, nil, nil
	}
	items, err := s.recRepo.ItemsForSnapshot(ctx, tx, snap.ID)
	if err != nil {
		return nil, nil, err
	}
	s.cache.SetSnapshot(ctx, userID, snap, items)
	return snap, items, nil
}
