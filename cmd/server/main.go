package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studyhub-io/exam-service/internal/cache"
	"github.com/studyhub-io/exam-service/internal/config"
	"github.com/studyhub-io/exam-service/internal/handlers"
	"github.com/studyhub-io/exam-service/internal/models"
	"github.com/studyhub-io/exam-service/internal/repositories/postgres"
	"github.com/studyhub-io/exam-service/internal/services"
	"github.com/studyhub-io/exam-service/internal/utils"
	"github.com/studyhub-io/exam-service/internal/validator"
	"github.com/studyhub-io/exam-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
		gin.SetMode(gin.ReleaseMode)
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogLogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := db.AutoMigrate(
		&models.Exam{},
		&models.ExamAttempt{},
		&models.Achievement{},
	); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	cacheService := cache.NewRedisCache(redisClient, slogLogger)

	publisher, err := cfg.Events.CreateEventPublisher(slogLogger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	repo := postgres.NewRepository(db)
	v := validator.New()

	examService := services.NewExamService(repo, slogLogger, v)
	gradingService := services.NewGradingService(repo, slogLogger, v, cacheService, publisher)
	analyticsService := services.NewAnalyticsService(repo, slogLogger, cacheService)
	exportService := services.NewExportService(analyticsService, slogLogger)

	handlers.InitAuth(cfg.Casdoor)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager := handlers.NewHandlerManager(
		examService,
		gradingService,
		analyticsService,
		exportService,
		repo,
		logger,
	)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting exam service", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}

	if err := repo.Close(); err != nil {
		logger.Warn("Failed to close database", "error", err)
	}

	logger.Info("Server stopped")
}
