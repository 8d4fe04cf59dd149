package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/repos"
	"github.com/luminalib/luminalib-backend/internal/types"
)

// LibraryService owns the borrow and review operations. Each successful write
// enqueues the background recomputes that keep preferences, recommendations,
// and review consensus artifacts in step with the new signal.
type LibraryService interface {
	BorrowBook(ctx context.Context, userID, bookID uuid.UUID) (*types.Borrow, error)
	ReturnBook(ctx context.Context, userID, bookID uuid.UUID) (*types.Borrow, error)
	SubmitReview(ctx context.Context, userID, bookID uuid.UUID, rating int, reviewText string) (*types.Review, error)
}

type libraryService struct {
	db      *gorm.DB
	log     *logger.Logger
	users   repos.UserRepo
	books   repos.BookRepo
	borrows repos.BorrowRepo
	reviews repos.ReviewRepo
	jobs    JobService
}

func NewLibraryService(
	db *gorm.DB,
	baseLog *logger.Logger,
	users repos.UserRepo,
	books repos.BookRepo,
	borrows repos.BorrowRepo,
	reviews repos.ReviewRepo,
	jobs JobService,
) LibraryService {
	return &libraryService{
		db:      db,
		log:     baseLog.With("service", "LibraryService"),
		users:   users,
		books:   books,
		borrows: borrows,
		reviews: reviews,
		jobs:    jobs,
	}
}

func (s *libraryService) checkUserAndBook(ctx context.Context, tx *gorm.DB, userID, bookID uuid.UUID) error {
	user, err := s.users.GetByID(ctx, tx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %s not found", userID)
	}
	book, err := s.books.GetByID(ctx, tx, bookID)
	if err != nil {
		return err
	}
	if book == nil {
		return fmt.Errorf("book %s not found", bookID)
	}
	return nil
}

func (s *libraryService) BorrowBook(ctx context.Context, userID, bookID uuid.UUID) (*types.Borrow, error) {
	var borrow *types.Borrow
	err := s.db.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		if err := s.checkUserAndBook(ctx, txx, userID, bookID); err != nil {
			return err
		}
		active, err := s.borrows.GetActiveByBook(ctx, txx, bookID)
		if err != nil {
			return err
		}
		if active != nil {
			return fmt.Errorf("book %s is already borrowed", bookID)
		}
		holding, err := s.borrows.GetActiveByUser(ctx, txx, userID)
		if err != nil {
			return err
		}
		if holding != nil {
			return fmt.Errorf("user %s already holds book %s", userID, holding.BookID)
		}
		borrow, err = s.borrows.Create(ctx, txx, &types.Borrow{
			UserID: userID,
			BookID: bookID,
		})
		if err != nil {
			return err
		}
		return s.enqueueUserRecomputes(ctx, txx, userID)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Book borrowed", "user_id", userID, "book_id", bookID)
	return borrow, nil
}

func (s *libraryService) ReturnBook(ctx context.Context, userID, bookID uuid.UUID) (*types.Borrow, error) {
	var borrow *types.Borrow
	err := s.db.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var err error
		borrow, err = s.borrows.GetActiveByUserAndBook(ctx, txx, userID, bookID)
		if err != nil {
			return err
		}
		if borrow == nil {
			return fmt.Errorf("no active borrow of book %s by user %s", bookID, userID)
		}
		now := time.Now()
		if err := s.borrows.MarkReturned(ctx, txx, borrow.ID, now); err != nil {
			return err
		}
		borrow.ReturnedAt = &now
		return s.enqueueUserRecomputes(ctx, txx, userID)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Book returned", "user_id", userID, "book_id", bookID)
	return borrow, nil
}

func (s *libraryService) SubmitReview(ctx context.Context, userID, bookID uuid.UUID, rating int, reviewText string) (*types.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5")
	}
	var review *types.Review
	err := s.db.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		if err := s.checkUserAndBook(ctx, txx, userID, bookID); err != nil {
			return err
		}
		borrowed, err := s.borrows.GetAnyByUserAndBook(ctx, txx, userID, bookID)
		if err != nil {
			return err
		}
		if borrowed == nil {
			return fmt.Errorf("user %s has never borrowed book %s", userID, bookID)
		}
		existing, err := s.reviews.GetByUserAndBook(ctx, txx, userID, bookID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("user %s already reviewed book %s", userID, bookID)
		}
		review, err = s.reviews.Create(ctx, txx, &types.Review{
			UserID:     userID,
			BookID:     bookID,
			Rating:     rating,
			ReviewText: reviewText,
		})
		if err != nil {
			return err
		}
		entityID := bookID
		if _, err := s.jobs.Enqueue(ctx, txx, types.JobTypeReviewConsensus, "book", &entityID, map[string]any{
			"book_id": bookID.String(),
		}); err != nil {
			return err
		}
		return s.enqueueUserRecomputes(ctx, txx, userID)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Review submitted", "user_id", userID, "book_id", bookID, "rating", rating)
	return review, nil
}

// enqueueUserRecomputes queues the preference rebuild and then the
// recommendation refresh for a user whose signals just changed.
func (s *libraryService) enqueueUserRecomputes(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	entityID := userID
	if _, err := s.jobs.Enqueue(ctx, tx, types.JobTypePreferenceRecompute, "user", &entityID, map[string]any{
		"user_id": userID.String(),
	}); err != nil {
		return err
	}
	_, err := s.jobs.Enqueue(ctx, tx, types.JobTypeRecommendationRecompute, "user", &entityID, map[string]any{
		"user_id": userID.String(),
	})
	return err
}
