package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/edulog/workload-api/api/swagger"
	"github.com/edulog/workload-api/internal/handler"
	"github.com/edulog/workload-api/internal/middleware"
	"github.com/edulog/workload-api/internal/models"
	"github.com/edulog/workload-api/internal/repository"
	"github.com/edulog/workload-api/internal/service"
	"github.com/edulog/workload-api/pkg/cache"
	"github.com/edulog/workload-api/pkg/config"
	"github.com/edulog/workload-api/pkg/database"
	"github.com/edulog/workload-api/pkg/jobs"
	"github.com/edulog/workload-api/pkg/logger"
	corsmiddleware "github.com/edulog/workload-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edulog/workload-api/pkg/middleware/requestid"
	"github.com/edulog/workload-api/pkg/storage"
)

// @title Instructor Workload API
// @version 1.0.0
// @description Work activity tracking and asynchronous reporting
// @BasePath /api/v1
// @schemes http

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, dashboard caching disabled", zap.Error(err))
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare report storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validator.New(), logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "workload-api",
		Audience:           []string{"workload-clients"},
	})
	activitySvc := service.NewActivityService(activityRepo, courseRepo, cacheRepo, logr)
	directorySvc := service.NewDirectoryService(courseRepo, userRepo, logr)
	dashboardSvc := service.NewDashboardService(activityRepo, cacheRepo, metricsSvc, logr, cfg.Dashboard.CacheTTL)
	exportSvc := service.NewExportService(activityRepo, userRepo, store, signer, logr, nil, nil)

	worker := service.NewReportWorker(reportRepo, exportSvc, metricsSvc, logr, cfg.Reports.WorkerRetries)
	queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()

	reportSvc := service.NewReportService(reportRepo, queue, exportSvc, userRepo, logr, cfg.APIPrefix+"/reports/download", cfg.Reports.ResultTTL)

	if err := reportSvc.RecoverPendingJobs(ctx); err != nil {
		logr.Warn("failed to recover pending report jobs", zap.Error(err))
	}
	reportSvc.StartCleanup(ctx, cfg.Reports.CleanupInterval)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	activityHandler := handler.NewActivityHandler(activitySvc, metricsSvc)
	reportHandler := handler.NewReportHandler(reportSvc, metricsSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	directoryHandler := handler.NewDirectoryHandler(directorySvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	// Downloads authenticate via the signed token in the path.
	api.GET("/reports/download/:token", reportHandler.Download)

	protected := api.Group("", middleware.JWT(authSvc))
	{
		activities := protected.Group("/activities")
		{
			activities.GET("", activityHandler.List)
			activities.GET("/schemas", activityHandler.Schemas)
			activities.POST("", middleware.Audit(userRepo, models.AuditActionActivityCreate, "activity"), activityHandler.Create)
			activities.GET("/:id", activityHandler.Get)
			activities.PUT("/:id", middleware.Audit(userRepo, models.AuditActionActivityUpdate, "activity"), activityHandler.Update)
			activities.DELETE("/:id", middleware.Audit(userRepo, models.AuditActionActivityDelete, "activity"), activityHandler.Delete)
		}

		reports := protected.Group("/reports")
		{
			reports.GET("", reportHandler.List)
			reports.POST("", middleware.Audit(userRepo, models.AuditActionReportSubmit, "report"), reportHandler.Submit)
			reports.GET("/:id", reportHandler.Status)
			reports.DELETE("/:id", middleware.Audit(userRepo, models.AuditActionReportDelete, "report"), reportHandler.Delete)
		}

		if cfg.Dashboard.Enabled {
			protected.GET("/dashboard/summary", dashboardHandler.Summary)
		}

		protected.GET("/courses", directoryHandler.Courses)
		protected.GET("/instructors", middleware.RequireRoles(models.RoleAdmin), directoryHandler.Instructors)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
