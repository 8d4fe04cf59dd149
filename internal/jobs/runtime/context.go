package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/luminalib/luminalib-backend/internal/repos"
	"github.com/luminalib/luminalib-backend/internal/types"
)

// Context is the execution handle for one claimed job run. Pipelines never
// touch the job_run row directly; Progress, Fail, FailPermanent, and Succeed
// are the only sanctioned transitions.
type Context struct {
	Ctx  context.Context
	DB   *gorm.DB
	Job  *types.JobRun
	Repo repos.JobRunRepo

	// MaxAttempts and RetryBase come from the worker policy; Fail uses them
	// to schedule the next retry window.
	MaxAttempts int
	RetryBase   time.Duration

	payload map[string]any
}

// NewContext decodes the payload eagerly so handlers read inputs through
// Payload()/PayloadUUID(). A malformed payload yields an empty map; handlers
// validate required fields themselves.
func NewContext(ctx context.Context, db *gorm.DB, job *types.JobRun, repo repos.JobRunRepo, maxAttempts int, retryBase time.Duration) *Context {
	c := &Context{
		Ctx:         ctx,
		DB:          db,
		Job:         job,
		Repo:        repo,
		MaxAttempts: maxAttempts,
		RetryBase:   retryBase,
	}
	_ = c.decodePayload()
	return c
}

func (c *Context) decodePayload() error {
	if c.Job == nil {
		return nil
	}
	if len(c.Job.Payload) == 0 {
		c.payload = map[string]any{}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(c.Job.Payload, &m); err != nil {
		c.payload = map[string]any{}
		return err
	}
	c.payload = m
	return nil
}

// Payload never returns nil.
func (c *Context) Payload() map[string]any {
	if c.payload == nil {
		c.payload = map[string]any{}
	}
	return c.payload
}

// PayloadUUID reads a payload field and parses it as a UUID. Returns
// (uuid.Nil, false) when missing or unparseable.
func (c *Context) PayloadUUID(key string) (uuid.UUID, bool) {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(fmt.Sprint(v))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Progress publishes a non-terminal stage update and refreshes the heartbeat.
func (c *Context) Progress(stage string, msg string) {
	if c == nil || c.Repo == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	now := time.Now()
	_ = c.Repo.UpdateFields(ctx, c.DB, c.Job.ID, map[string]interface{}{
		"stage":        stage,
		"message":      msg,
		"heartbeat_at": now,
		"updated_at":   now,
	})
	c.Job.Stage = stage
	c.Job.Message = msg
	c.Job.HeartbeatAt = &now
	c.Job.UpdatedAt = now
}

// NextRetryAt computes the exponential backoff window for the current attempt
// count: base * 2^(attempts-1), capped at ten minutes.
func (c *Context) NextRetryAt(now time.Time) time.Time {
	base := c.RetryBase
	if base <= 0 {
		base = 30 * time.Second
	}
	attempts := c.Job.Attempts
	if attempts < 1 {
		attempts = 1
	}
	if attempts > 16 {
		attempts = 16
	}
	delay := base << (attempts - 1)
	if max := 10 * time.Minute; delay > max {
		delay = max
	}
	return now.Add(delay)
}

// Fail marks the run failed with a retry window; the claim query will hand it
// to a worker again once the window elapses, until attempts run out.
func (c *Context) Fail(stage string, err error) {
	c.fail(stage, err, false)
}

// FailPermanent marks the run failed and burns the remaining attempts. Used
// for broken inputs where retrying can only fail again.
func (c *Context) FailPermanent(stage string, err error) {
	c.fail(stage, err, true)
}

func (c *Context) fail(stage string, err error, permanent bool) {
	if c == nil || c.Repo == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	now := time.Now()
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	nextRetry := c.NextRetryAt(now)
	updates := map[string]interface{}{
		"status":        "failed",
		"stage":         stage,
		"message":       "",
		"error":         msg,
		"last_error_at": now,
		"next_retry_at": nextRetry,
		"locked_at":     nil,
		"updated_at":    now,
	}
	if permanent {
		updates["attempts"] = c.MaxAttempts
	}
	_ = c.Repo.UpdateFields(ctx, c.DB, c.Job.ID, updates)
	c.Job.Status = "failed"
	c.Job.Stage = stage
	c.Job.Message = ""
	c.Job.Error = msg
	c.Job.LastErrorAt = &now
	c.Job.NextRetryAt = &nextRetry
	c.Job.LockedAt = nil
	c.Job.UpdatedAt = now
	if permanent {
		c.Job.Attempts = c.MaxAttempts
	}
}

// Succeed marks the run succeeded and stores the result payload.
func (c *Context) Succeed(finalStage string, result any) {
	if c == nil || c.Repo == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	now := time.Now()
	var res datatypes.JSON
	if result != nil {
		b, _ := json.Marshal(result)
		res = datatypes.JSON(b)
	}
	_ = c.Repo.UpdateFields(ctx, c.DB, c.Job.ID, map[string]interface{}{
		"status":       "succeeded",
		"stage":        finalStage,
		"message":      "",
		"error":        "",
		"result":       res,
		"locked_at":    nil,
		"heartbeat_at": now,
		"updated_at":   now,
	})
	c.Job.Status = "succeeded"
	c.Job.Stage = finalStage
	c.Job.Message = ""
	c.Job.Error = ""
	c.Job.Result = res
	c.Job.LockedAt = nil
	c.Job.HeartbeatAt = &now
	c.Job.UpdatedAt = now
}
