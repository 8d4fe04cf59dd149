package recommendation_recompute

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	jobrt "github.com/luminalib/luminalib-backend/internal/jobs/runtime"
	"github.com/luminalib/luminalib-backend/internal/recs"
)

const defaultLimit = 10

// Run refreshes one user's recommendation snapshot. Broken interaction data
// fails permanently; everything else earns a retry.
func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	if p == nil || p.db == nil || p.recs == nil {
		jc.Fail("validate", fmt.Errorf("recommendation_recompute: pipeline not configured"))
		return nil
	}

	userID, ok := jc.PayloadUUID("user_id")
	if !ok || userID == uuid.Nil {
		jc.FailPermanent("validate", fmt.Errorf("missing user_id"))
		return nil
	}
	limit := defaultLimit
	if v, ok := jc.Payload()["limit"].(float64); ok && int(v) > 0 {
		limit = int(v)
	}

	jc.Progress("score", "Scoring recommendations")
	snap, items, err := p.recs.Recompute(jc.Ctx, nil, userID, limit)
	if err != nil {
		var integrity *recs.DataIntegrityError
		if errors.As(err, &integrity) {
			jc.FailPermanent("score", err)
			return nil
		}
		jc.Fail("score", err)
		return nil
	}

	jc.Succeed("done", map[string]any{
		"snapshot_id": snap.ID.String(),
		"provider":    snap.Provider,
		"items":       len(items),
	})
	return nil
}
