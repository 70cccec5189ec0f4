package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyhub-io/exam-service/internal/repositories"
	"github.com/studyhub-io/exam-service/internal/services"
	"github.com/studyhub-io/exam-service/internal/utils"
)

type HandlerManager struct {
	examHandler      *ExamHandler
	attemptHandler   *AttemptHandler
	analyticsHandler *AnalyticsHandler
	repo             repositories.Repository
	logger           utils.Logger
}

func NewHandlerManager(
	examService services.ExamService,
	gradingService services.GradingService,
	analyticsService services.AnalyticsService,
	exportService services.ExportService,
	repo repositories.Repository,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		examHandler:      NewExamHandler(examService, logger),
		attemptHandler:   NewAttemptHandler(gradingService, analyticsService, repo, logger),
		analyticsHandler: NewAnalyticsHandler(analyticsService, exportService, logger),
		repo:             repo,
		logger:           logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(hm.logger))
	{
		exams := v1.Group("/exams")
		{
			exams.POST("", hm.examHandler.CreateExam)
			exams.GET("", hm.examHandler.ListExams)
			exams.GET("/:id", hm.examHandler.GetExam)
			exams.POST("/:id/deactivate", hm.examHandler.DeactivateExam)
			exams.DELETE("/:id", hm.examHandler.DeleteExam)
		}

		attempts := v1.Group("/attempts")
		{
			attempts.POST("/submit", hm.attemptHandler.SubmitAttempt)
			attempts.GET("", hm.attemptHandler.ListAttempts)
			attempts.GET("/:id/review", hm.attemptHandler.GetAttemptReview)
		}

		analytics := v1.Group("/analytics")
		{
			analytics.GET("/performance", hm.analyticsHandler.GetPerformance)
			analytics.GET("/performance/export", hm.analyticsHandler.ExportPerformance)
			analytics.GET("/achievements", hm.analyticsHandler.GetAchievements)
		}
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	status := http.StatusOK
	health := "healthy"
	database := "up"
	if err := hm.repo.Ping(c.Request.Context()); err != nil {
		status = http.StatusServiceUnavailable
		health = "unhealthy"
		database = "down"
	}

	c.JSON(status, gin.H{
		"status":   health,
		"service":  "exam-service",
		"database": database,
	})
}
