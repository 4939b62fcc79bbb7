package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/orgops-api/api/swagger"
	"github.com/noah-isme/orgops-api/internal/handler"
	"github.com/noah-isme/orgops-api/internal/middleware"
	"github.com/noah-isme/orgops-api/internal/models"
	"github.com/noah-isme/orgops-api/internal/repository"
	"github.com/noah-isme/orgops-api/internal/service"
	"github.com/noah-isme/orgops-api/migrations"
	"github.com/noah-isme/orgops-api/pkg/cache"
	"github.com/noah-isme/orgops-api/pkg/config"
	"github.com/noah-isme/orgops-api/pkg/database"
	"github.com/noah-isme/orgops-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/orgops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/orgops-api/pkg/middleware/requestid"
)

// @title Org Ops API
// @version 1.0.0
// @description Bulk event import for the organization operations dashboard
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		migrator, err := database.NewMigrator(db.DB, migrations.FS, logr)
		if err != nil {
			logr.Sugar().Fatalw("failed to init migrations", "error", err)
		}
		if err := migrator.Up(context.Background()); err != nil {
			logr.Sugar().Fatalw("failed to migrate database", "error", err)
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(
		repository.NewCacheRepository(redisClient, "event_import:report"),
		service.CacheOptions{
			Enabled:    cfg.Imports.ReportsEnabled && redisClient != nil,
			DefaultTTL: cfg.Imports.ReportTTL,
			OpTimeout:  cfg.Redis.OpTimeout,
			Metrics:    metricsSvc,
			Logger:     logr,
		},
	)
	reportSvc := service.NewImportReportService(cacheSvc, cfg.Imports.ReportTTL, logr)

	var notifier *service.ImportNotifier
	if cfg.Notifications.Enabled {
		notifier = service.NewImportNotifier(
			service.NewSMTPMailer(service.SMTPMailerConfig{
				Host:     cfg.Notifications.SMTPHost,
				Port:     cfg.Notifications.SMTPPort,
				Username: cfg.Notifications.SMTPUsername,
				Password: cfg.Notifications.SMTPPassword,
				From:     cfg.Notifications.From,
			}),
			service.ImportNotifierConfig{
				Recipients: cfg.Notifications.Recipients,
				Workers:    cfg.Notifications.Workers,
				MaxRetries: cfg.Notifications.Retries,
				RetryDelay: cfg.Notifications.RetryDelay,
			},
			logr,
		)
		notifier.Start(context.Background())
		defer notifier.Stop()
	}

	importSvc := service.NewEventImportService(
		service.RepositoryBeginner(repository.NewEventImportRepository(db)),
		repository.NewReferenceRepository(db),
		repository.NewTermRepository(db),
		service.NewDateParser(cfg.Imports.Timezone),
		reportSvc,
		notifier,
		metricsSvc,
		logr,
		service.EventImportServiceConfig{
			CurrentTermID: cfg.Imports.CurrentTermID,
			MaxBatchSize:  cfg.Imports.MaxBatchSize,
		},
	)

	importHandler := handler.NewEventImportHandler(importSvc, reportSvc, validator.New())
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)
	tokens := service.NewTokenService(cfg.JWT.Secret)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc, "/metrics"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	imports := api.Group("/events/import")
	imports.Use(middleware.JWT(tokens), middleware.RequireRoles(models.RoleAdmin, models.RoleOfficer))
	imports.POST("/validate", importHandler.ValidateEvents)
	imports.POST("", middleware.Audit(logr, "events.import"), importHandler.ImportEvents)
	imports.POST("/sheet", importHandler.PreviewSheet)
	imports.GET("/reports/:id", importHandler.DownloadReport)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
