package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/studyhub-io/exam-service/internal/repositories"
	"github.com/studyhub-io/exam-service/internal/services"
	"github.com/studyhub-io/exam-service/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	gradingService   services.GradingService
	analyticsService services.AnalyticsService
	repo             repositories.Repository
}

func NewAttemptHandler(
	gradingService services.GradingService,
	analyticsService services.AnalyticsService,
	repo repositories.Repository,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:      NewBaseHandler(logger),
		gradingService:   gradingService,
		analyticsService: analyticsService,
		repo:             repo,
	}
}

// SubmitAttempt grades a submission and returns the attempt together with the
// streak and achievement updates it triggered
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	var req services.SubmitExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Submitting exam attempt", "exam_id", req.ExamID)

	result, err := h.gradingService.Submit(c.Request.Context(), &req, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListAttempts lists the authenticated user's attempts
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	filters := parseAttemptFilters(c)

	attempts, total, err := h.repo.Attempt().GetByUser(c.Request.Context(), userID, filters)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Items: attempts,
		Total: total,
	})
}

// GetAttemptReview returns the per-question review of a completed attempt
func (h *AttemptHandler) GetAttemptReview(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	review, err := h.analyticsService.GetAttemptReview(c.Request.Context(), id, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

func parseAttemptFilters(c *gin.Context) repositories.AttemptFilters {
	filters := repositories.AttemptFilters{
		SortBy:    c.DefaultQuery("sort_by", "completed_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filters.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		filters.Offset = offset
	}
	if examIDStr := c.Query("exam_id"); examIDStr != "" {
		if examID, err := strconv.ParseUint(examIDStr, 10, 64); err == nil {
			id := uint(examID)
			filters.ExamID = &id
		}
	}
	return filters
}
