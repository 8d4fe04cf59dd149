package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/luminalib/luminalib-backend/internal/types"
)

type recordingJobRepo struct {
	updates []map[string]interface{}
}

func (r *recordingJobRepo) Create(ctx context.Context, tx *gorm.DB, run *types.JobRun) (*types.JobRun, error) {
	return run, nil
}

func (r *recordingJobRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.JobRun, error) {
	return nil, nil
}

func (r *recordingJobRepo) ClaimNextRunnable(ctx context.Context, tx *gorm.DB, maxAttempts int, staleRunning time.Duration) (*types.JobRun, error) {
	return nil, nil
}

func (r *recordingJobRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	r.updates = append(r.updates, updates)
	return nil
}

func (r *recordingJobRepo) Heartbeat(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return nil
}

func newTestContext(job *types.JobRun, repo *recordingJobRepo) *Context {
	return NewContext(context.Background(), nil, job, repo, 5, 30*time.Second)
}

func TestNextRetryAtGrowsAndCaps(t *testing.T) {
	now := time.Now()
	job := &types.JobRun{ID: uuid.New()}
	c := newTestContext(job, &recordingJobRepo{})

	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{0, 30 * time.Second}, // clamped up to attempt 1
		{1, 30 * time.Second},
		{2, 60 * time.Second},
		{3, 120 * time.Second},
		{5, 480 * time.Second},
		{6, 10 * time.Minute}, // 16m capped
		{100, 10 * time.Minute},
	}
	for _, tc := range cases {
		job.Attempts = tc.attempts
		got := c.NextRetryAt(now).Sub(now)
		if got != tc.want {
			t.Fatalf("attempts=%d: delay=%v, want %v", tc.attempts, got, tc.want)
		}
	}
}

func TestPayloadUUID(t *testing.T) {
	id := uuid.New()
	job := &types.JobRun{
		ID:      uuid.New(),
		Payload: datatypes.JSON([]byte(`{"book_id":"` + id.String() + `","bad":"not-a-uuid"}`)),
	}
	c := newTestContext(job, &recordingJobRepo{})

	got, ok := c.PayloadUUID("book_id")
	if !ok || got != id {
		t.Fatalf("PayloadUUID(book_id)=(%v,%v), want (%v,true)", got, ok, id)
	}
	if _, ok := c.PayloadUUID("bad"); ok {
		t.Fatal("unparseable field reported ok")
	}
	if _, ok := c.PayloadUUID("missing"); ok {
		t.Fatal("missing field reported ok")
	}
}

func TestMalformedPayloadYieldsEmptyMap(t *testing.T) {
	job := &types.JobRun{ID: uuid.New(), Payload: datatypes.JSON([]byte(`{broken`))}
	c := newTestContext(job, &recordingJobRepo{})
	if p := c.Payload(); p == nil || len(p) != 0 {
		t.Fatalf("payload=%v, want empty map", p)
	}
}

func TestFailSchedulesRetry(t *testing.T) {
	repo := &recordingJobRepo{}
	job := &types.JobRun{ID: uuid.New(), Status: "running", Attempts: 2}
	c := newTestContext(job, repo)

	c.Fail("generate", context.DeadlineExceeded)

	if job.Status != "failed" {
		t.Fatalf("status=%s, want failed", job.Status)
	}
	if job.NextRetryAt == nil {
		t.Fatal("retryable failure must set next_retry_at")
	}
	if job.Attempts != 2 {
		t.Fatalf("attempts=%d, retryable failure must not burn attempts", job.Attempts)
	}
	if len(repo.updates) != 1 {
		t.Fatalf("got %d updates, want 1", len(repo.updates))
	}
	if _, ok := repo.updates[0]["attempts"]; ok {
		t.Fatal("retryable failure wrote attempts")
	}
	if job.LockedAt != nil {
		t.Fatal("lock not released on failure")
	}
}

func TestFailPermanentBurnsAttempts(t *testing.T) {
	repo := &recordingJobRepo{}
	job := &types.JobRun{ID: uuid.New(), Status: "running", Attempts: 1}
	c := newTestContext(job, repo)

	c.FailPermanent("dispatch", context.Canceled)

	if job.Status != "failed" {
		t.Fatalf("status=%s, want failed", job.Status)
	}
	if job.Attempts != c.MaxAttempts {
		t.Fatalf("attempts=%d, want %d", job.Attempts, c.MaxAttempts)
	}
	if got := repo.updates[0]["attempts"]; got != c.MaxAttempts {
		t.Fatalf("persisted attempts=%v, want %d", got, c.MaxAttempts)
	}
}

func TestSucceedStoresResult(t *testing.T) {
	repo := &recordingJobRepo{}
	job := &types.JobRun{ID: uuid.New(), Status: "running", Error: "old error"}
	c := newTestContext(job, repo)

	c.Succeed("done", map[string]any{"snapshot_id": "abc"})

	if job.Status != "succeeded" {
		t.Fatalf("status=%s, want succeeded", job.Status)
	}
	if job.Stage != "done" {
		t.Fatalf("stage=%s, want done", job.Stage)
	}
	if job.Error != "" {
		t.Fatal("stale error not cleared on success")
	}
	if len(job.Result) == 0 {
		t.Fatal("result not stored")
	}
	if job.LockedAt != nil {
		t.Fatal("lock not released on success")
	}
}
