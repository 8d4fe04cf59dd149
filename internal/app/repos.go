package app

import (
	"gorm.io/gorm"

	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/repos"
)

type Repos struct {
	Users           repos.UserRepo
	Books           repos.BookRepo
	BookFiles       repos.BookFileRepo
	Tags            repos.TagRepo
	Borrows         repos.BorrowRepo
	Reviews         repos.ReviewRepo
	Recommendations repos.RecommendationRepo
	Artifacts       repos.ArtifactRepo
	JobRuns         repos.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Users:           repos.NewUserRepo(db, log),
		Books:           repos.NewBookRepo(db, log),
		BookFiles:       repos.NewBookFileRepo(db, log),
		Tags:            repos.NewTagRepo(db, log),
		Borrows:         repos.NewBorrowRepo(db, log),
		Reviews:         repos.NewReviewRepo(db, log),
		Recommendations: repos.NewRecommendationRepo(db, log),
		Artifacts:       repos.NewArtifactRepo(db, log),
		JobRuns:         repos.NewJobRunRepo(db, log),
	}
}
