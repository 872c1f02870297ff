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

	"github.com/NarimanMilanfar/exam-analysis-service/internal/analysis"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/cache"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/config"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/events"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/handlers"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/models"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/repositories/postgres"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/services"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/utils"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/variantgen"
	"github.com/NarimanMilanfar/exam-analysis-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(&models.ExamVariantRecord{}, &models.StudentResponseRecord{}); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	cacheService := cache.NewRedisCache(redisClient, slogger)

	var publisher events.EventPublisher
	publisher, err = events.NewKafkaEventPublisher(events.PublisherConfig{
		KafkaBrokers: cfg.KafkaBrokers,
		TopicName:    cfg.EventTopic,
		Logger:       slogger,
	})
	if err != nil {
		// Kafka being down should not keep the API from serving.
		logger.Warn("Kafka unavailable, falling back to mock publisher", "error", err)
		publisher = events.NewMockEventPublisher(slogger)
	}
	defer publisher.Close()

	validator := utils.NewValidator()
	generator := variantgen.NewGenerator(
		variantgen.WithMaxVariationsCap(cfg.MaxVariationsCap),
		variantgen.WithTheoreticalSpaceCap(cfg.TheoreticalSpaceCap),
	)
	engine := analysis.NewEngine()

	variantRepo := postgres.NewVariantPostgreSQL(db)
	responseRepo := postgres.NewResponsePostgreSQL(db)

	variantService := services.NewVariantService(variantRepo, generator, publisher, cacheService, slogger, validator)
	analysisService := services.NewAnalysisService(
		variantRepo, responseRepo, engine, publisher, cacheService,
		time.Duration(cfg.AnalysisCacheTTL)*time.Second, slogger, validator)
	importExportService := services.NewImportExportService(
		variantRepo, responseRepo, analysisService, publisher, cacheService, slogger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager := handlers.NewHandlerManager(variantService, analysisService, importExportService, validator, logger)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
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
}
