package recommendation_recompute

import (
	"gorm.io/gorm"

	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/services"
	"github.com/luminalib/luminalib-backend/internal/types"
)

type Pipeline struct {
	db   *gorm.DB
	log  *logger.Logger
	recs services.RecommendationService
}

func New(db *gorm.DB, baseLog *logger.Logger, recs services.RecommendationService) *Pipeline {
	return &Pipeline{
		db:   db,
		log:  baseLog.With("job", types.JobTypeRecommendationRecompute),
		recs: recs,
	}
}

func (p *Pipeline) Type() string { return types.JobTypeRecommendationRecompute }
