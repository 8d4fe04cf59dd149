package app

import (
	"gorm.io/gorm"

	"github.com/luminalib/luminalib-backend/internal/handlers"
	"github.com/luminalib/luminalib-backend/internal/logger"
)

type Handlers struct {
	Health          *handlers.HealthHandler
	Recommendations *handlers.RecommendationHandler
	Library         *handlers.LibraryHandler
	Analysis        *handlers.AnalysisHandler
	Jobs            *handlers.JobHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, s Services) Handlers {
	return Handlers{
		Health:          handlers.NewHealthHandler(db),
		Recommendations: handlers.NewRecommendationHandler(log, s.Recommendations, s.Jobs),
		Library:         handlers.NewLibraryHandler(log, s.Library),
		Analysis:        handlers.NewAnalysisHandler(log, s.Artifacts, s.Jobs),
		Jobs:            handlers.NewJobHandler(log, s.Jobs),
	}
}
