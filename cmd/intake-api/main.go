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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lender-relay-api/api/swagger"
	"github.com/noah-isme/lender-relay-api/internal/handler"
	"github.com/noah-isme/lender-relay-api/internal/middleware"
	"github.com/noah-isme/lender-relay-api/internal/relay"
	"github.com/noah-isme/lender-relay-api/internal/repository"
	"github.com/noah-isme/lender-relay-api/internal/service"
	"github.com/noah-isme/lender-relay-api/pkg/cache"
	"github.com/noah-isme/lender-relay-api/pkg/config"
	"github.com/noah-isme/lender-relay-api/pkg/database"
	"github.com/noah-isme/lender-relay-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lender-relay-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lender-relay-api/pkg/middleware/requestid"
)

// @title Lender Relay API
// @version 1.0.0
// @description Loan intake, admin review and relay of approved submissions to a lender endpoint.
// @BasePath /api
// @schemes http https

const shutdownTimeout = 10 * time.Second

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

	settings, err := relay.NewSettings(cfg.Relay)
	if err != nil {
		logr.Fatal("invalid relay configuration", zap.Error(err))
	}
	if settings.EndpointURL == "" {
		logr.Warn("LENDER_ENDPOINT_URL not set, sends will be refused")
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	metrics := service.NewMetricsService()

	var cacheRepo *repository.CacheRepository
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, continuing without it", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(client, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	var cacheSvc *service.CacheService
	if cacheRepo != nil {
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)
		if err := cacheSvc.Flush(context.Background()); err != nil {
			logr.Warn("submission cache flush failed", zap.Error(err))
		}
	}

	sender, err := service.NewMailSender(context.Background(), cfg.Notify)
	if err != nil {
		logr.Fatal("invalid notification configuration", zap.Error(err))
	}
	var notifier *service.NotificationService
	if sender != nil {
		notifier = service.NewNotificationService(cfg.Notify, sender, metrics, logr)
	}

	submissionRepo := repository.NewSubmissionRepository(db)
	relayClient := relay.NewClient(settings, relay.WithLogger(logr), relay.WithObserver(metrics))

	params := service.SubmissionServiceParams{
		Store:    submissionRepo,
		Builder:  relay.NewBuilder(settings),
		Relay:    relayClient,
		Settings: settings,
		Cache:    cacheSvc,
		Metrics:  metrics,
		Logger:   logr,
	}
	if notifier != nil {
		params.Notifier = notifier
	}
	submissionSvc := service.NewSubmissionService(params)
	exportSvc := service.NewExportService(submissionRepo, service.ExportConfig{MaxRows: cfg.Exports.MaxRows}, logr, nil, nil)

	var limiter middleware.WindowCounter = middleware.NewMemoryWindow()
	if cacheRepo != nil {
		limiter = cacheRepo
	}

	metricsHandler := handler.NewMetricsHandler(metrics, submissionRepo)
	intakeHandler := handler.NewIntakeHandler(submissionSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	authHandler := handler.NewAdminAuthHandler(cfg.Admin, cfg.Env == config.EnvProduction, logr)
	notificationHandler := handler.NewNotificationHandler(submissionSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.ResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/submit",
		middleware.RateLimit("submit", limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window, logr),
		intakeHandler.Submit,
	)

	api.POST("/admin/login", authHandler.Login)
	api.POST("/admin/logout", authHandler.Logout)

	admin := api.Group("/admin")
	admin.Use(middleware.AdminGate(cfg.Admin.Token, cfg.Admin.CookieName, logr))
	admin.GET("/submissions", submissionHandler.List)
	admin.GET("/submissions/export.csv", exportHandler.SubmissionsCSV)
	admin.GET("/submissions/:id", submissionHandler.Get)
	admin.PATCH("/submissions/:id", submissionHandler.Update)
	admin.GET("/submissions/:id/preview", submissionHandler.Preview)
	admin.GET("/submissions/:id/review.pdf", exportHandler.ReviewSheet)
	admin.POST("/submissions/:id/send", submissionHandler.Send)
	admin.POST("/test-email", notificationHandler.TestEmail)
	admin.GET("/metrics/summary", metricsHandler.Summary)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("relay_mode", settings.Mode.String()),
			zap.String("payload_mode", settings.PayloadMode.String()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("server forced to shutdown", zap.Error(err))
	}
	logr.Info("server exited")
}
