package repos

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/types"
)

func newJobRunTestRepo(t *testing.T) (JobRunRepo, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "jobs.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&types.JobRun{}); err != nil {
		t.Fatalf("migrate job_runs: %v", err)
	}
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return NewJobRunRepo(db, log), db
}

func seedJobRun(t *testing.T, repo JobRunRepo, mutate func(*types.JobRun)) *types.JobRun {
	t.Helper()
	run := &types.JobRun{
		ID:      uuid.New(),
		JobType: types.JobTypePreferenceRecompute,
		Status:  "queued",
	}
	if mutate != nil {
		mutate(run)
	}
	created, err := repo.Create(context.Background(), nil, run)
	if err != nil {
		t.Fatalf("seed job run: %v", err)
	}
	return created
}

func TestClaimNextRunnableClaimsQueued(t *testing.T) {
	repo, _ := newJobRunTestRepo(t)
	seeded := seedJobRun(t, repo, nil)

	got, err := repo.ClaimNextRunnable(context.Background(), nil, 5, 2*time.Minute)
	if err != nil {
		t.Fatalf("ClaimNextRunnable: %v", err)
	}
	if got == nil || got.ID != seeded.ID {
		t.Fatalf("claimed %v, want %s", got, seeded.ID)
	}
	if got.Status != "running" || got.Attempts != 1 {
		t.Fatalf("status=%s attempts=%d, want running/1", got.Status, got.Attempts)
	}
}

func TestClaimNextRunnableReclaimsStaleRunning(t *testing.T) {
	repo, _ := newJobRunTestRepo(t)
	stale := time.Now().Add(-10 * time.Minute)
	seeded := seedJobRun(t, repo, func(run *types.JobRun) {
		run.Status = "running"
		run.Attempts = 1
		run.HeartbeatAt = &stale
	})

	got, err := repo.ClaimNextRunnable(context.Background(), nil, 5, 2*time.Minute)
	if err != nil {
		t.Fatalf("ClaimNextRunnable: %v", err)
	}
	if got == nil || got.ID != seeded.ID {
		t.Fatalf("claimed %v, want the stale run %s", got, seeded.ID)
	}
	if got.Attempts != 2 {
		t.Fatalf("attempts=%d, want 2 after reclaim", got.Attempts)
	}
}

func TestClaimNextRunnableSkipsExhaustedStaleRunning(t *testing.T) {
	repo, _ := newJobRunTestRepo(t)
	stale := time.Now().Add(-10 * time.Minute)
	seedJobRun(t, repo, func(run *types.JobRun) {
		run.Status = "running"
		run.Attempts = 5
		run.HeartbeatAt = &stale
	})

	got, err := repo.ClaimNextRunnable(context.Background(), nil, 5, 2*time.Minute)
	if err != nil {
		t.Fatalf("ClaimNextRunnable: %v", err)
	}
	if got != nil {
		t.Fatalf("claimed exhausted run %s, want nothing runnable", got.ID)
	}
}

func TestClaimNextRunnableHonorsBackoffWindow(t *testing.T) {
	repo, _ := newJobRunTestRepo(t)
	future := time.Now().Add(5 * time.Minute)
	seeded := seedJobRun(t, repo, func(run *types.JobRun) {
		run.Status = "failed"
		run.Attempts = 1
		run.NextRetryAt = &future
	})

	got, err := repo.ClaimNextRunnable(context.Background(), nil, 5, 2*time.Minute)
	if err != nil {
		t.Fatalf("ClaimNextRunnable: %v", err)
	}
	if got != nil {
		t.Fatalf("claimed %s before its retry window elapsed", got.ID)
	}

	past := time.Now().Add(-time.Second)
	if err := repo.UpdateFields(context.Background(), nil, seeded.ID, map[string]interface{}{
		"next_retry_at": past,
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err = repo.ClaimNextRunnable(context.Background(), nil, 5, 2*time.Minute)
	if err != nil {
		t.Fatalf("ClaimNextRunnable after window: %v", err)
	}
	if got == nil || got.ID != seeded.ID {
		t.Fatalf("claimed %v, want %s once the window elapsed", got, seeded.ID)
	}
}
