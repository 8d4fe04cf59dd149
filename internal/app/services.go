package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/luminalib/luminalib-backend/internal/jobs"
	"github.com/luminalib/luminalib-backend/internal/jobs/pipeline/book_summarize"
	"github.com/luminalib/luminalib-backend/internal/jobs/pipeline/preference_recompute"
	"github.com/luminalib/luminalib-backend/internal/jobs/pipeline/recommendation_recompute"
	"github.com/luminalib/luminalib-backend/internal/jobs/pipeline/review_consensus"
	"github.com/luminalib/luminalib-backend/internal/jobs/runtime"
	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/services"
)

type Services struct {
	Storage         services.StorageService
	LLM             services.LLMClient
	Cache           services.CacheService
	Jobs            services.JobService
	Artifacts       services.ArtifactService
	Recommendations services.RecommendationService
	Library         services.LibraryService
	JobWorkers      []*jobs.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos) (Services, error) {
	storage, err := services.NewStorageService(log)
	if err != nil {
		return Services{}, fmt.Errorf("init storage: %w", err)
	}
	llm := services.NewOllamaClient(log)
	cache := services.NewCacheService(log, cfg.RedisAddr, cfg.CacheTTL)

	jobSvc := services.NewJobService(db, log, r.JobRuns)
	artifactSvc := services.NewArtifactService(db, log, r.Artifacts, r.Books, r.BookFiles, r.Reviews, storage, llm)
	recSvc := services.NewRecommendationService(db, log, r.Recommendations, r.Borrows, r.Reviews, r.Tags, cache)
	librarySvc := services.NewLibraryService(db, log, r.Users, r.Books, r.Borrows, r.Reviews, jobSvc)

	registry := runtime.NewRegistry()
	for _, h := range []runtime.Handler{
		book_summarize.New(db, log, artifactSvc),
		review_consensus.New(db, log, artifactSvc),
		preference_recompute.New(db, log, recSvc),
		recommendation_recompute.New(db, log, recSvc),
	} {
		if err := registry.Register(h); err != nil {
			return Services{}, fmt.Errorf("register job handler: %w", err)
		}
	}

	policy := jobs.Policy{
		MaxAttempts:  cfg.MaxAttempts,
		RetryBase:    cfg.RetryBase,
		StaleRunning: cfg.StaleRunning,
		PollInterval: cfg.PollInterval,
	}
	workers := make([]*jobs.Worker, 0, cfg.WorkerCount)
	for i := 0; i < cfg.WorkerCount; i++ {
		workers = append(workers, jobs.NewWorker(db, log, r.JobRuns, registry, policy))
	}

	return Services{
		Storage:         storage,
		LLM:             llm,
		Cache:           cache,
		Jobs:            jobSvc,
		Artifacts:       artifactSvc,
		Recommendations: recSvc,
		Library:         librarySvc,
		JobWorkers:      workers,
	}, nil
}
