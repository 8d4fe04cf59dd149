package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/services"
	"github.com/luminalib/luminalib-backend/internal/types"
)

type AnalysisHandler struct {
	log       *logger.Logger
	artifacts services.ArtifactService
	jobSvc    services.JobService
}

func NewAnalysisHandler(baseLog *logger.Logger, artifacts services.ArtifactService, jobSvc services.JobService) *AnalysisHandler {
	return &AnalysisHandler{
		log:       baseLog.With("handler", "AnalysisHandler"),
		artifacts: artifacts,
		jobSvc:    jobSvc,
	}
}

type artifactView struct {
	Status        string `json:"status"`
	Content       string `json:"content,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
	ModelName     string `json:"model_name,omitempty"`
	PromptVersion string `json:"prompt_version,omitempty"`
}

func toArtifactView(a *types.BookArtifact) *artifactView {
	if a == nil {
		return nil
	}
	return &artifactView{
		Status:        a.Status,
		Content:       a.Content,
		ErrorMessage:  a.ErrorMessage,
		ModelName:     a.ModelName,
		PromptVersion: a.PromptVersion,
	}
}

// GET /api/books/:book_id/analysis
// Returns both artifact kinds; a missing artifact means that kind was never
// requested for the book.
func (h *AnalysisHandler) Get(c *gin.Context) {
	bookID, err := uuid.Parse(c.Param("book_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_book_id", err)
		return
	}
	ctx := c.Request.Context()
	summary, err := h.artifacts.GetStatus(ctx, nil, bookID, types.ArtifactKindSummary)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "fetch_failed", err)
		return
	}
	consensus, err := h.artifacts.GetStatus(ctx, nil, bookID, types.ArtifactKindConsensus)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "fetch_failed", err)
		return
	}
	RespondOK(c, gin.H{
		"book_id":   bookID.String(),
		"summary":   toArtifactView(summary),
		"consensus": toArtifactView(consensus),
	})
}

func (h *AnalysisHandler) enqueueArtifactJob(c *gin.Context, jobType string) {
	bookID, err := uuid.Parse(c.Param("book_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_book_id", err)
		return
	}
	entityID := bookID
	job, err := h.jobSvc.Enqueue(c.Request.Context(), nil, jobType, "book", &entityID, map[string]any{
		"book_id": bookID.String(),
	})
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "enqueue_failed", err)
		return
	}
	RespondAccepted(c, gin.H{"job_id": job.ID.String(), "status": job.Status})
}

// POST /api/books/:book_id/analysis/summary/retry
func (h *AnalysisHandler) Summarize(c *gin.Context) {
	h.enqueueArtifactJob(c, types.JobTypeBookSummarize)
}

// POST /api/books/:book_id/analysis/consensus/retry
func (h *AnalysisHandler) Consensus(c *gin.Context) {
	h.enqueueArtifactJob(c, types.JobTypeReviewConsensus)
}
