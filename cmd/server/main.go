package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/wellbeing-service/internal/cache"
	"github.com/SAP-F-2025/wellbeing-service/internal/config"
	"github.com/SAP-F-2025/wellbeing-service/internal/handlers"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories/remote"
	"github.com/SAP-F-2025/wellbeing-service/internal/services"
	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
	"github.com/SAP-F-2025/wellbeing-service/internal/validator"
	"github.com/SAP-F-2025/wellbeing-service/pkg"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const janitorInterval = time.Minute

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger := utils.NewLogger(cfg.Environment)
	slogger := utils.ToSlogLogger(logger)
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Catalog and university cache
	var cacheService cache.CacheService
	if cfg.RedisURL != "" {
		zapLogger, err := newZapLogger(cfg)
		if err != nil {
			log.Fatal("Failed to create zap logger:", err)
		}
		defer zapLogger.Sync()

		rdb, err := pkg.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Warn("Redis unavailable, caching disabled", "error", err)
		} else {
			defer rdb.Close()
			cacheService = cache.NewRedisCache(rdb, zapLogger)
			logger.Info("Connected to Redis")
		}
	}

	// Submission archive
	var archive repositories.SubmissionRepository
	if cfg.DatabaseURL != "" {
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			log.Fatal("Failed to initialize database:", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		archive = postgres.NewSubmissionPostgreSQL(db)
		logger.Info("Submission archive enabled")
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		log.Fatal("Failed to create event publisher:", err)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	serviceManager := services.NewServiceManager(services.Dependencies{
		Questions:     remote.NewQuestionClient(cfg.QuestionsURL(), httpClient, cfg.HTTPRetries, logger),
		Sink:          remote.NewSubmissionClient(cfg.SubmitURL(), httpClient, cfg.HTTPRetries, logger),
		Universities:  remote.NewUniversityClient(cfg.UniversitiesURL, httpClient, cfg.HTTPRetries, logger),
		Archive:       archive,
		Cache:         cacheService,
		Publisher:     publisher,
		CacheTTL:      cfg.CacheTTL,
		SessionTTL:    cfg.SessionTTL,
		SubmitProfile: cfg.SubmitProfile,
		Logger:        slogger,
		Validator:     validator.New(),
	})
	serviceManager.Session().StartJanitor(ctx, janitorInterval)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(utils.ContextLogger(logger))

	handlers.NewHandlerManager(serviceManager, cfg.AllowedOrigin, logger).SetupRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"backend", cfg.BackendURL,
			"submit_profile", cfg.SubmitProfile)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	stop()
	serviceManager.Session().Wait()
	if err := publisher.Close(); err != nil {
		logger.Error("Failed to close event publisher", "error", err)
	}

	logger.Info("Server exited")
}

func newZapLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
