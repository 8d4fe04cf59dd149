package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/repos"
	"github.com/luminalib/luminalib-backend/internal/types"
)

// JobService enqueues background work as job_runs rows; the worker pool picks
// them up by polling. Enqueueing inside a caller's transaction is safe because
// the row only becomes visible to workers at commit.
type JobService interface {
	Enqueue(ctx context.Context, tx *gorm.DB, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) (*types.JobRun, error)
	GetByID(ctx context.Context, tx *gorm.DB, jobID uuid.UUID) (*types.JobRun, error)
}

type jobService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.JobRunRepo
}

func NewJobService(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo) JobService {
	return &jobService{
		db:   db,
		log:  baseLog.With("service", "JobService"),
		repo: repo,
	}
}

func (s *jobService) Enqueue(ctx context.Context, tx *gorm.DB, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) (*types.JobRun, error) {
	if jobType == "" {
		return nil, fmt.Errorf("missing job_type")
	}
	if payload == nil {
		payload = map[string]any{}
	}
	b, _ := json.Marshal(payload)
	job := &types.JobRun{
		ID:         uuid.New(),
		JobType:    jobType,
		EntityType: entityType,
		EntityID:   entityID,
		Status:     "queued",
		Stage:      "queued",
		Message:    "Queued",
		Payload:    datatypes.JSON(b),
		Result:     datatypes.JSON([]byte(`{}`)),
	}
	created, err := s.repo.Create(ctx, tx, job)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	s.log.Debug("Job enqueued", "job_id", created.ID, "job_type", jobType)
	return created, nil
}

func (s *jobService) GetByID(ctx context.Context, tx *gorm.DB, jobID uuid.UUID) (*types.JobRun, error) {
	return s.repo.GetByID(ctx, tx, jobID)
}
