package preference_recompute

import (
	"fmt"

	"github.com/google/uuid"

	jobrt "github.com/luminalib/luminalib-backend/internal/jobs/runtime"
)

// Run rebuilds one user's tag preference vector from their full history.
func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	if p == nil || p.db == nil || p.recs == nil {
		jc.Fail("validate", fmt.Errorf("preference_recompute: pipeline not configured"))
		return nil
	}

	userID, ok := jc.PayloadUUID("user_id")
	if !ok || userID == uuid.Nil {
		jc.FailPermanent("validate", fmt.Errorf("missing user_id"))
		return nil
	}

	jc.Progress("recompute", "Recomputing tag preferences")
	if err := p.recs.RecomputePreferences(jc.Ctx, nil, userID); err != nil {
		jc.Fail("recompute", err)
		return nil
	}

	jc.Succeed("done", map[string]any{"user_id": userID.String()})
	return nil
}
