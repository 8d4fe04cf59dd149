package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/services"
	"github.com/luminalib/luminalib-backend/internal/types"
)

type RecommendationHandler struct {
	log    *logger.Logger
	recSvc services.RecommendationService
	jobSvc services.JobService
}

func NewRecommendationHandler(baseLog *logger.Logger, recSvc services.RecommendationService, jobSvc services.JobService) *RecommendationHandler {
	return &RecommendationHandler{
		log:    baseLog.With("handler", "RecommendationHandler"),
		recSvc: recSvc,
		jobSvc: jobSvc,
	}
}

type recommendationItemView struct {
	BookID string  `json:"book_id"`
	Score  float64 `json:"score"`
	Rank   int     `json:"rank"`
}

type recommendationView struct {
	SnapshotID  string                   `json:"snapshot_id"`
	UserID      string                   `json:"user_id"`
	Provider    string                   `json:"provider"`
	GeneratedAt string                   `json:"generated_at"`
	Items       []recommendationItemView `json:"items"`
	Message     string                   `json:"message,omitempty"`
}

func toRecommendationView(snap *types.RecommendationSnapshot, items []*types.RecommendationItem) recommendationView {
	views := make([]recommendationItemView, 0, len(items))
	for _, item := range items {
		views = append(views, recommendationItemView{
			BookID: item.BookID.String(),
			Score:  item.Score,
			Rank:   item.Rank,
		})
	}
	return recommendationView{
		SnapshotID:  snap.ID.String(),
		UserID:      snap.UserID.String(),
		Provider:    snap.Provider,
		GeneratedAt: snap.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Items:       views,
	}
}

func parseLimit(c *gin.Context) int {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	return limit
}

// GET /api/users/:user_id/recommendations
// Synchronous path: recomputes and returns a fresh snapshot in-request.
func (h *RecommendationHandler) Compute(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	snap, items, err := h.recSvc.ComputeAndGet(c.Request.Context(), nil, userID, parseLimit(c))
	if err != nil {
		h.log.Error("Compute recommendations failed", "user_id", userID, "error", err)
		RespondError(c, http.StatusInternalServerError, "compute_failed", err)
		return
	}
	view := toRecommendationView(snap, items)
	if len(view.Items) == 0 {
		view.Message = "no recommendation signal yet; borrow or review a book first"
	}
	RespondOK(c, view)
}

// GET /api/users/:user_id/recommendations/latest
// Read path: returns the latest persisted snapshot, or 404 when none was ever
// computed.
func (h *RecommendationHandler) Latest(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	snap, items, err := h.recSvc.Latest(c.Request.Context(), nil, userID)
	if err != nil {
		h.log.Error("Fetch latest recommendations failed", "user_id", userID, "error", err)
		RespondError(c, http.StatusInternalServerError, "fetch_failed", err)
		return
	}
	if snap == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": APIError{
				Message: "no recommendations computed yet",
				Code:    "no_recommendations",
			},
		})
		return
	}
	RespondOK(c, toRecommendationView(snap, items))
}

// POST /api/users/:user_id/recommendations/recompute
// Async path: enqueues a background refresh and returns the job id.
func (h *RecommendationHandler) Recompute(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	entityID := userID
	job, err := h.jobSvc.Enqueue(c.Request.Context(), nil, types.JobTypeRecommendationRecompute, "user", &entityID, map[string]any{
		"user_id": userID.String(),
		"limit":   parseLimit(c),
	})
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "enqueue_failed", err)
		return
	}
	RespondAccepted(c, gin.H{"job_id": job.ID.String(), "status": job.Status})
}
