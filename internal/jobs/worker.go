package jobs

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/luminalib/luminalib-backend/internal/jobs/runtime"
	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/repos"
)

// Policy bounds retry behavior for every job type.
type Policy struct {
	MaxAttempts  int
	RetryBase    time.Duration
	StaleRunning time.Duration
	PollInterval time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  5,
		RetryBase:    30 * time.Second,
		StaleRunning: 2 * time.Minute,
		PollInterval: 1 * time.Second,
	}
}

// Worker polls job_runs for runnable work and dispatches to registered
// handlers. Run several for parallelism; the SKIP LOCKED claim keeps them
// from stepping on each other.
type Worker struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     repos.JobRunRepo
	registry *runtime.Registry
	policy   Policy
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo, registry *runtime.Registry, policy Policy) *Worker {
	if policy.MaxAttempts <= 0 {
		policy = DefaultPolicy()
	}
	return &Worker{
		db:       db,
		log:      baseLog.With("component", "JobWorker"),
		repo:     repo,
		registry: registry,
		policy:   policy,
	}
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.policy.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.tick(ctx)
			}
		}
	}()
}

func (w *Worker) tick(ctx context.Context) {
	job, err := w.repo.ClaimNextRunnable(ctx, w.db, w.policy.MaxAttempts, w.policy.StaleRunning)
	if err != nil {
		w.log.Warn("ClaimNextRunnable failed", "error", err)
		return
	}
	if job == nil {
		return
	}
	jc := runtime.NewContext(ctx, w.db, job, w.repo, w.policy.MaxAttempts, w.policy.RetryBase)
	h, ok := w.registry.Get(job.JobType)
	if !ok {
		w.log.Warn("No handler registered for job_type", "job_type", job.JobType, "job_id", job.ID)
		jc.FailPermanent("dispatch", fmt.Errorf("no handler registered for job_type=%s", job.JobType))
		return
	}
	// A panicking handler must not take the worker down with it.
	func() {
		defer func() {
			if r := recover(); r != nil {
				w.log.Error("Job handler panic", "job_id", job.ID, "job_type", job.JobType, "panic", r)
				jc.Fail("panic", fmt.Errorf("handler panic: %v", r))
			}
		}()
		if err := h.Run(jc); err != nil {
			w.log.Warn("Job handler returned error", "job_id", job.ID, "job_type", job.JobType, "error", err)
		}
	}()
}
