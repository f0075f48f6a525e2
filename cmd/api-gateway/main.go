package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/kjebali/stagehub-api/api/swagger"
	"github.com/kjebali/stagehub-api/internal/handler"
	"github.com/kjebali/stagehub-api/internal/middleware"
	"github.com/kjebali/stagehub-api/internal/models"
	"github.com/kjebali/stagehub-api/internal/repository"
	"github.com/kjebali/stagehub-api/internal/service"
	"github.com/kjebali/stagehub-api/pkg/cache"
	"github.com/kjebali/stagehub-api/pkg/config"
	"github.com/kjebali/stagehub-api/pkg/database"
	"github.com/kjebali/stagehub-api/pkg/jobs"
	"github.com/kjebali/stagehub-api/pkg/logger"
	corsmiddleware "github.com/kjebali/stagehub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/kjebali/stagehub-api/pkg/middleware/requestid"
	"github.com/kjebali/stagehub-api/pkg/storage"
)

// @title StageHub API
// @version 1.0.0
// @description Internship management backend: requests, two-stage reviews, reporting.
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	internRepo := repository.NewInternRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	reportRepo := repository.NewReportRepository(db)

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.Enabled)
	}

	// Services.
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "stagehub-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	internSvc := service.NewInternService(internRepo, validate, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, logr)
	requestSvc := service.NewRequestService(requestRepo, internRepo, notificationSvc, userRepo, logr)
	dashboardSvc := service.NewDashboardService(requestRepo, internRepo, cacheSvc, logr, cfg.Dashboard.CacheTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var reportSvc *service.ReportService
	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		exportStorage, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportSvc = service.NewReportService(requestRepo, reportRepo, exportStorage, signer, logr)
		reportQueue = jobs.NewQueue("report-export", reportSvc.Process, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportQueue.Start(ctx)
		defer reportQueue.Stop()
		reportSvc.AttachQueue(reportQueue)
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	internHandler := handler.NewInternHandler(internSvc)
	requestHandler := handler.NewRequestHandler(requestSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)

		authed := auth.Group("")
		authed.Use(middleware.JWT(authSvc))
		authed.POST("/logout", authHandler.Logout)
		authed.POST("/change-password", authHandler.ChangePassword)
		authed.GET("/me", authHandler.Me)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))

	users := secured.Group("/users")
	users.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleHR))
	{
		users.GET("", userHandler.List)
		users.GET("/:id", userHandler.Get)
		users.POST("", middleware.RequireRoles(models.RoleAdmin), userHandler.Create)
		users.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Update)
		users.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Delete)
	}

	interns := secured.Group("/interns")
	{
		interns.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleHR, models.RoleTutor), internHandler.List)
		interns.GET("/:id", internHandler.Get)
		interns.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleHR), middleware.Audit(userRepo, models.AuditActionInternCreate, "intern"), internHandler.Create)
		interns.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleHR), middleware.Audit(userRepo, models.AuditActionInternUpdate, "intern"), internHandler.Update)
		interns.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), middleware.Audit(userRepo, models.AuditActionInternDelete, "intern"), internHandler.Delete)
	}

	requests := secured.Group("/requests")
	{
		requests.POST("", middleware.RequireRoles(models.RoleIntern), requestHandler.Create)
		requests.GET("", requestHandler.List)
		requests.GET("/:id", requestHandler.Get)
		requests.PUT("/:id", middleware.RequireRoles(models.RoleIntern), requestHandler.Update)
		requests.PUT("/:id/tutor-decision", middleware.RequireRoles(models.RoleTutor), requestHandler.TutorDecision)
		requests.PUT("/:id/hr-decision", middleware.RequireRoles(models.RoleHR), requestHandler.HRDecision)
		requests.POST("/:id/comments", requestHandler.AddComment)
		requests.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), requestHandler.Delete)
	}

	notifications := secured.Group("/notifications")
	{
		notifications.GET("", notificationHandler.List)
		notifications.PUT("/:id/read", notificationHandler.MarkRead)
		notifications.PUT("/read-all", notificationHandler.MarkAllRead)
	}

	if cfg.Dashboard.Enabled {
		secured.GET("/dashboard", dashboardHandler.Summary)
	}

	if reportSvc != nil {
		reportHandler := handler.NewReportHandler(reportSvc)
		reports := secured.Group("/reports")
		reports.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleHR))
		{
			reports.GET("/requests", reportHandler.Summary)
			reports.POST("/requests/export", reportHandler.Export)
			reports.GET("/jobs/:id", reportHandler.Job)
		}
		// Token-authenticated; the signed URL is the credential.
		api.GET("/reports/download/:token", reportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
