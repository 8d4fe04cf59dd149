package book_summarize

import (
	"fmt"

	"github.com/google/uuid"

	jobrt "github.com/luminalib/luminalib-backend/internal/jobs/runtime"
)

// Run generates the summary artifact for one book. A generation failure is
// recorded on the artifact row and the job still succeeds; only database
// trouble fails the job and earns a retry.
func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	if p == nil || p.db == nil || p.artifacts == nil {
		jc.Fail("validate", fmt.Errorf("book_summarize: pipeline not configured"))
		return nil
	}

	bookID, ok := jc.PayloadUUID("book_id")
	if !ok || bookID == uuid.Nil {
		jc.FailPermanent("validate", fmt.Errorf("missing book_id"))
		return nil
	}

	jc.Progress("generate", "Generating summary")
	artifact, err := p.artifacts.RunSummary(jc.Ctx, nil, bookID)
	if err != nil {
		jc.Fail("generate", err)
		return nil
	}

	jc.Succeed("done", map[string]any{
		"artifact_id":     artifact.ID.String(),
		"artifact_status": artifact.Status,
		"artifact_error":  artifact.ErrorMessage,
	})
	return nil
}
