package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/services"
)

type JobHandler struct {
	log    *logger.Logger
	jobSvc services.JobService
}

func NewJobHandler(baseLog *logger.Logger, jobSvc services.JobService) *JobHandler {
	return &JobHandler{
		log:    baseLog.With("handler", "JobHandler"),
		jobSvc: jobSvc,
	}
}

// GET /api/jobs/:id
func (h *JobHandler) Get(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	job, err := h.jobSvc.GetByID(c.Request.Context(), nil, jobID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "fetch_failed", err)
		return
	}
	if job == nil {
		RespondError(c, http.StatusNotFound, "job_not_found", errJobNotFound)
		return
	}
	RespondOK(c, job)
}

var errJobNotFound = &notFoundError{}

type notFoundError struct{}

func (*notFoundError) Error() string { return "job not found" }
