package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studyhub-io/exam-service/internal/services"
	"github.com/studyhub-io/exam-service/internal/utils"
)

type AnalyticsHandler struct {
	BaseHandler
	analyticsService services.AnalyticsService
	exportService    services.ExportService
}

func NewAnalyticsHandler(
	analyticsService services.AnalyticsService,
	exportService services.ExportService,
	logger utils.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler:      NewBaseHandler(logger),
		analyticsService: analyticsService,
		exportService:    exportService,
	}
}

// GetPerformance returns the authenticated user's aggregated performance
// snapshot
func (h *AnalyticsHandler) GetPerformance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	snapshot, err := h.analyticsService.GetUserPerformance(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// ExportPerformance streams the performance snapshot as an Excel workbook
func (h *AnalyticsHandler) ExportPerformance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting performance workbook")

	data, err := h.exportService.ExportPerformanceToExcel(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("performance-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// GetAchievements lists the authenticated user's unlocked achievements
func (h *AnalyticsHandler) GetAchievements(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	achievements, err := h.analyticsService.GetUserAchievements(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, achievements)
}
