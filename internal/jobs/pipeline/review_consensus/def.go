package review_consensus

import (
	"gorm.io/gorm"

	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/services"
	"github.com/luminalib/luminalib-backend/internal/types"
)

type Pipeline struct {
	db        *gorm.DB
	log       *logger.Logger
	artifacts services.ArtifactService
}

func New(db *gorm.DB, baseLog *logger.Logger, artifacts services.ArtifactService) *Pipeline {
	return &Pipeline{
		db:        db,
		log:       baseLog.With("job", types.JobTypeReviewConsensus),
		artifacts: artifacts,
	}
}

func (p *Pipeline) Type() string { return types.JobTypeReviewConsensus }
